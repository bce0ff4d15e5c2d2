// Copyright 2024 The Glue Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

// Package types is the Type Registry: the content-addressable collection
// of type descriptors the emitter consumes. It is built upstream (by
// whatever constructs the type graph for a given architecture) and is
// read-only from the emitter's point of view.
package types

import (
	"fmt"
	"strconv"
)

// TypeId is an opaque identifier into a Types registry. Two TypeIds from
// registries for different architectures are considered to refer to "the
// same type logically" when they carry the same numeric value, even
// though the type's size, alignment, and layout may differ between
// architectures.
type TypeId uint32

// Type is the common interface implemented by every node in the type
// graph the core consumes.
type Type interface {
	// Size returns the number of bytes a value of this type occupies in
	// memory on the registry's architecture.
	Size(types *Types) int

	// Alignment returns the memory alignment required by a value of this
	// type on the registry's architecture. Alignment is always a power of
	// two.
	Alignment(types *Types) int

	// String returns a short human-readable description, used in
	// diagnostics.
	String() string
}

// PrimitiveKind enumerates the built-in scalar types that never need a
// declaration of their own; they are referenced only by their canonical
// spelling (see primitiveTypeName in internal/emit for the mapping).
type PrimitiveKind uint8

const (
	InvalidPrimitive PrimitiveKind = iota
	U8
	U16
	U32
	U64
	U128
	I8
	I16
	I32
	I64
	I128
	F32
	F64
	F128
	Bool
	RocDec
	RocStr
)

var _ Type = PrimitiveKind(0)

func (p PrimitiveKind) Size(types *Types) int {
	sizes := map[PrimitiveKind]int{
		U8: 1, U16: 2, U32: 4, U64: 8, U128: 16,
		I8: 1, I16: 2, I32: 4, I64: 8, I128: 16,
		F32: 4, F64: 8, F128: 16,
		Bool: 1,
		// RocDec is a 128-bit fixed-point decimal.
		RocDec: 16,
		// RocStr is a small-string-optimised struct of three machine
		// words: a possibly-tagged length, a pointer, and a capacity.
		RocStr: 3 * types.Arch.PointerWidth(),
	}

	size, ok := sizes[p]
	if !ok {
		panic(fmt.Sprintf("unrecognised primitive kind %d", p))
	}

	return size
}

func (p PrimitiveKind) Alignment(types *Types) int {
	if p == RocStr {
		return types.Arch.PointerWidth()
	}

	return p.Size(types)
}

func (p PrimitiveKind) String() string {
	ss := map[PrimitiveKind]string{
		U8: "u8", U16: "u16", U32: "u32", U64: "u64", U128: "u128",
		I8: "i8", I16: "i16", I32: "i32", I64: "i64", I128: "i128",
		F32: "f32", F64: "f64", F128: "f128",
		Bool:   "bool",
		RocDec: "RocDec",
		RocStr: "RocStr",
	}

	s, ok := ss[p]
	if !ok {
		panic(fmt.Sprintf("unrecognised primitive kind %d", p))
	}

	return s
}

// IsSigned reports whether the primitive is one of the signed integer
// kinds.
func (p PrimitiveKind) IsSigned() bool {
	switch p {
	case I8, I16, I32, I64, I128:
		return true
	default:
		return false
	}
}

// IsFloat reports whether the primitive is a floating-point kind.
func (p PrimitiveKind) IsFloat() bool {
	switch p {
	case F32, F64, F128:
		return true
	default:
		return false
	}
}

// List represents a heap-allocated, reference-counted sequence of Elem.
type List struct{ Elem TypeId }

// Dict represents a heap-allocated associative map from Key to Value.
type Dict struct{ Key, Value TypeId }

// Set represents a heap-allocated collection of unique Elem values.
type Set struct{ Elem TypeId }

// Box represents a single heap-allocated Elem value.
type Box struct{ Elem TypeId }

var (
	_ Type = List{}
	_ Type = Dict{}
	_ Type = Set{}
	_ Type = Box{}
)

// A list/dict/set handle is three machine words (pointer, length,
// capacity) and a box is one; Size reports these in bytes.
func (l List) Size(types *Types) int { return 3 * types.Arch.PointerWidth() }
func (d Dict) Size(types *Types) int { return 3 * types.Arch.PointerWidth() }
func (s Set) Size(types *Types) int  { return 3 * types.Arch.PointerWidth() }
func (b Box) Size(types *Types) int  { return types.Arch.PointerWidth() }

func (l List) Alignment(types *Types) int { return types.Arch.PointerWidth() }
func (d Dict) Alignment(types *Types) int { return types.Arch.PointerWidth() }
func (s Set) Alignment(types *Types) int  { return types.Arch.PointerWidth() }
func (b Box) Alignment(types *Types) int  { return types.Arch.PointerWidth() }

func (l List) String() string { return "list" }
func (d Dict) String() string { return "dict" }
func (s Set) String() string  { return "set" }
func (b Box) String() string  { return "box" }

// Field is a single member of a Struct, or of a struct used as a tag
// union payload.
//
// A Recursive field points back into the type graph at the Recursive tag
// union that encloses the payload it appears in; it is emitted as a raw
// pointer, which is how cycles in the type graph are realised in the
// host language.
type Field struct {
	Label     string
	Type      TypeId
	Recursive bool
}

// FieldNumber parses the decimal suffix of a struct payload field label
// (e.g. "f10" -> 10, true). Payload field labels always follow this
// convention; sorting by the parsed number (rather than lexicographically)
// is required to put "f2" before "f10" in constructor argument order.
func FieldNumber(label string) (int, bool) {
	if len(label) < 2 || label[0] != 'f' {
		return 0, false
	}

	n, err := strconv.Atoi(label[1:])
	if err != nil {
		return 0, false
	}

	return n, true
}

// Struct represents a record type with named fields.
//
// Per the empty/single-field collapsing rule, a Struct with zero fields
// is zero-sized and never declared, and a Struct with exactly one field
// is represented everywhere by that field's type.
type Struct struct {
	Name   string
	Fields []Field
}

var _ Type = Struct{}

func (s Struct) Alignment(types *Types) int {
	maxAlign := 1
	for _, field := range s.Fields {
		var align int
		if field.Recursive {
			align = types.Arch.PointerWidth()
		} else {
			align = types.Get(field.Type).Alignment(types)
		}

		if align > maxAlign {
			maxAlign = align
		}
	}

	return maxAlign
}

func (s Struct) Size(types *Types) int {
	size := 0
	for _, field := range s.Fields {
		fieldSize, fieldAlign := types.Arch.PointerWidth(), types.Arch.PointerWidth()
		if !field.Recursive {
			fieldType := types.Get(field.Type)
			fieldSize, fieldAlign = fieldType.Size(types), fieldType.Alignment(types)
		}

		// Each field starts at the next multiple of its alignment (C layout).
		size = (size+fieldAlign-1)/fieldAlign*fieldAlign + fieldSize
	}

	align := s.Alignment(types)
	return (size + align - 1) / align * align
}

func (s Struct) String() string {
	return fmt.Sprintf("struct %s", s.Name)
}

// TransparentWrapper is a named single-field record that exists only for
// nominal typing; its in-memory representation is identical to Content.
type TransparentWrapper struct {
	Name    string
	Content TypeId
}

var _ Type = TransparentWrapper{}

func (t TransparentWrapper) Alignment(types *Types) int { return types.Get(t.Content).Alignment(types) }
func (t TransparentWrapper) Size(types *Types) int      { return types.Get(t.Content).Size(types) }
func (t TransparentWrapper) String() string             { return fmt.Sprintf("wrapper %s", t.Name) }

// Tag is a single alternative of a tag union. Payload is nil for tags
// that carry no data.
type Tag struct {
	Name    string
	Payload *TypeId
}
