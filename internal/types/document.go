// Copyright 2024 The Glue Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package types

import (
	"encoding/json"
	"fmt"

	"github.com/ProjectSerenity/glue/internal/target"
)

// Document is the on-disk, per-architecture wire format a registry is
// read from: a JSON object naming the target architecture and listing
// every type in insertion order, each tagged with a "kind" discriminator
// that selects which of the fields below apply.
//
// A real upstream type-graph compiler is expected to emit one Document
// per architecture it was asked to target; cmd/glue decodes each into a
// *Types and lowers them together so identical declarations collapse
// across architectures.
type Document struct {
	Architecture string           `json:"architecture"`
	Types        []EncodedTypeDef `json:"types"`
}

// EncodedTypeDef is the wire representation of a single Type. Only the
// fields relevant to Kind are populated; the rest are left zero.
type EncodedTypeDef struct {
	Id   TypeId `json:"id"`
	Kind string `json:"kind"`

	Name string `json:"name,omitempty"`

	// primitive
	Primitive string `json:"primitive,omitempty"`

	// list / set / box
	Elem TypeId `json:"elem,omitempty"`

	// dict
	Key   TypeId `json:"key,omitempty"`
	Value TypeId `json:"value,omitempty"`

	// struct
	Fields []EncodedField `json:"fields,omitempty"`

	// transparent_wrapper
	Content TypeId `json:"content,omitempty"`

	// enumeration
	Tags []string `json:"tags,omitempty"`

	// non_recursive_union / recursive_union
	UnionTags          []EncodedTag `json:"union_tags,omitempty"`
	TotalSize          int          `json:"total_size,omitempty"`
	Align              int          `json:"align,omitempty"`
	DiscriminantOffset int          `json:"discriminant_offset,omitempty"`

	// nullable_unwrapped_union
	NullTag                string `json:"null_tag,omitempty"`
	NonNullTag             string `json:"non_null_tag,omitempty"`
	NonNullPayload         TypeId `json:"non_null_payload,omitempty"`
	NullRepresentsFirstTag bool   `json:"null_represents_first_tag,omitempty"`
}

// EncodedField is the wire representation of a types.Field.
type EncodedField struct {
	Label     string `json:"label"`
	Type      TypeId `json:"type"`
	Recursive bool   `json:"recursive,omitempty"`
}

// EncodedTag is the wire representation of a types.Tag. A nil Payload
// decodes to a payload-free tag.
type EncodedTag struct {
	Name    string  `json:"name"`
	Payload *TypeId `json:"payload,omitempty"`
}

var primitivesByName = map[string]PrimitiveKind{
	"u8": U8, "u16": U16, "u32": U32, "u64": U64, "u128": U128,
	"i8": I8, "i16": I16, "i32": I32, "i64": I64, "i128": I128,
	"f32": F32, "f64": F64, "f128": F128,
	"bool": Bool, "dec": RocDec, "str": RocStr,
}

var archByName = map[string]target.Arch{
	"x86_64": target.X86_64, "x86": target.X86_32,
	"aarch64": target.Aarch64, "arm": target.Aarch32,
	"wasm32": target.Wasm32,
}

// DecodeDocument parses a Document from JSON and builds the *Types
// registry it describes. Every TypeId referenced by a non-recursive
// field, tag payload or container must have already been defined earlier
// in the document (or be the type currently being defined): this mirrors
// the Get panic-on-unknown-id contract callers of Types are already bound
// by, just caught one step earlier with a wrapped error instead of a
// panic, since malformed input here comes from outside the program rather
// than from another package's caller contract. Recursive fields are not
// checked, since they point at their enclosing union, which the document
// defines after its payloads.
func DecodeDocument(data []byte) (*Types, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding type registry document: %w", err)
	}

	arch, ok := archByName[doc.Architecture]
	if !ok {
		return nil, fmt.Errorf("decoding type registry document: unrecognised architecture %q", doc.Architecture)
	}

	ts := New(arch)
	for _, def := range doc.Types {
		t, err := decodeType(def)
		if err != nil {
			return nil, fmt.Errorf("decoding type %d: %w", def.Id, err)
		}

		ts.Insert(def.Id, t)

		for _, dep := range ts.dependencies(def.Id) {
			if _, ok := ts.byID[dep]; !ok {
				return nil, fmt.Errorf("decoding type %d: references type %d before it is defined", def.Id, dep)
			}
		}
	}

	return ts, nil
}

func decodeType(def EncodedTypeDef) (Type, error) {
	switch def.Kind {
	case "primitive":
		p, ok := primitivesByName[def.Primitive]
		if !ok {
			return nil, fmt.Errorf("unrecognised primitive %q", def.Primitive)
		}
		return p, nil
	case "list":
		return List{Elem: def.Elem}, nil
	case "set":
		return Set{Elem: def.Elem}, nil
	case "box":
		return Box{Elem: def.Elem}, nil
	case "dict":
		return Dict{Key: def.Key, Value: def.Value}, nil
	case "struct":
		return Struct{Name: def.Name, Fields: decodeFields(def.Fields)}, nil
	case "transparent_wrapper":
		return TransparentWrapper{Name: def.Name, Content: def.Content}, nil
	case "enumeration":
		return Enumeration{Name: def.Name, Tags: def.Tags}, nil
	case "non_recursive_union":
		return NonRecursiveUnion{
			Name:               def.Name,
			Tags:               decodeTags(def.UnionTags),
			TotalSize:          def.TotalSize,
			Align:              def.Align,
			DiscriminantOffset: def.DiscriminantOffset,
		}, nil
	case "recursive_union":
		return RecursiveUnion{
			Name:      def.Name,
			Tags:      decodeTags(def.UnionTags),
			TotalSize: def.TotalSize,
			Align:     def.Align,
		}, nil
	case "nullable_unwrapped_union":
		return NullableUnwrappedUnion{
			Name:                   def.Name,
			NullTag:                def.NullTag,
			NonNullTag:             def.NonNullTag,
			NonNullPayload:         def.NonNullPayload,
			NullRepresentsFirstTag: def.NullRepresentsFirstTag,
		}, nil
	case "nullable_wrapped_union":
		return NullableWrappedUnion{Name: def.Name}, nil
	case "non_nullable_unwrapped_union":
		return NonNullableUnwrappedUnion{Name: def.Name}, nil
	default:
		return nil, fmt.Errorf("unrecognised type kind %q", def.Kind)
	}
}

func decodeFields(fields []EncodedField) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = Field{Label: f.Label, Type: f.Type, Recursive: f.Recursive}
	}
	return out
}

func decodeTags(tags []EncodedTag) []Tag {
	out := make([]Tag, len(tags))
	for i, t := range tags {
		out[i] = Tag{Name: t.Name, Payload: t.Payload}
	}
	return out
}
