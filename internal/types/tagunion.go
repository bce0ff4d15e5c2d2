// Copyright 2024 The Glue Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package types

import "fmt"

// Enumeration is a tag union with no payloads: a numerical type with a
// constrained set of named values.
//
// An Enumeration with exactly one tag is a zero-sized unit type and is
// represented specially by the enumeration emitter, as a unit struct
// rather than a true enumeration (see §4.6 of the specification).
type Enumeration struct {
	Name string
	Tags []string
}

var _ Type = Enumeration{}

// DiscriminantBytes returns the width, in bytes, of the smallest integer
// that can hold every tag's ordinal: 1 byte for up to 256 tags, otherwise
// the next power of two, up to 8 bytes (the host's largest supported
// discriminant integer).
func DiscriminantBytes(tagCount int) int {
	switch {
	case tagCount <= 1<<8:
		return 1
	case tagCount <= 1<<16:
		return 2
	case tagCount <= 1<<32:
		return 4
	default:
		return 8
	}
}

func (e Enumeration) Alignment(types *Types) int { return DiscriminantBytes(len(e.Tags)) }
func (e Enumeration) Size(types *Types) int       { return DiscriminantBytes(len(e.Tags)) }
func (e Enumeration) String() string              { return fmt.Sprintf("enumeration %s", e.Name) }

// NonRecursiveUnion is a tag union none of whose payloads refer back to
// the union itself. Its representation is an overlapping union of
// payloads plus a filler byte array, with the discriminant stored in the
// padding bytes at DiscriminantOffset.
//
// TotalSize, Align and DiscriminantOffset are supplied by the caller (the
// upstream layout oracle): this package never recomputes a layout
// decision, it only renders the one it is given.
type NonRecursiveUnion struct {
	Name               string
	Tags               []Tag
	TotalSize          int
	Align              int
	DiscriminantOffset int
}

var _ Type = NonRecursiveUnion{}

func (u NonRecursiveUnion) Alignment(types *Types) int { return u.Align }
func (u NonRecursiveUnion) Size(types *Types) int       { return u.TotalSize }
func (u NonRecursiveUnion) String() string              { return fmt.Sprintf("tag union %s", u.Name) }

// RecursiveUnion is a tag union where at least one payload contains a
// Recursive field pointing back at the union. Its discriminant is stored
// in the spare low bits of that field's pointer rather than in a byte
// offset (see §4.8).
type RecursiveUnion struct {
	Name      string
	Tags      []Tag
	TotalSize int
	Align     int
}

var _ Type = RecursiveUnion{}

func (u RecursiveUnion) Alignment(types *Types) int { return u.Align }
func (u RecursiveUnion) Size(types *Types) int       { return u.TotalSize }
func (u RecursiveUnion) String() string              { return fmt.Sprintf("recursive tag union %s", u.Name) }

// RecursivePointerField locates the first Recursive field across the
// union's payloads, in tag order, and returns the tag name and field
// label that carries it (e.g. "Cons.tail"). It returns ok=false if no
// payload contains a Recursive field, which is a malformed-IR condition
// for a RecursiveUnion (the caller promised at least one payload refers
// back to the union).
func (u RecursiveUnion) RecursivePointerField(types *Types, selfId TypeId) (tagName, label string, ok bool) {
	for _, tag := range u.Tags {
		if tag.Payload == nil {
			continue
		}

		payload, isStruct := types.Get(*tag.Payload).(Struct)
		if !isStruct {
			continue
		}

		for _, field := range payload.Fields {
			if !field.Recursive {
				continue
			}

			if field.Type != selfId {
				panic(fmt.Sprintf("recursive field %s.%s does not point back to enclosing union %s", tag.Name, field.Label, u.Name))
			}

			return tag.Name, field.Label, true
		}
	}

	return "", "", false
}

// NullableUnwrappedUnion is a two-tag union where one tag carries a
// non-null heap pointer to NonNullPayload and the other tag is
// represented by a null pointer, eliminating the need for a discriminant
// byte entirely (see §4.10).
type NullableUnwrappedUnion struct {
	Name                   string
	NullTag                string
	NonNullTag             string
	NonNullPayload         TypeId
	NullRepresentsFirstTag bool
}

var _ Type = NullableUnwrappedUnion{}

func (u NullableUnwrappedUnion) Alignment(types *Types) int { return types.Arch.PointerWidth() }
func (u NullableUnwrappedUnion) Size(types *Types) int       { return types.Arch.PointerWidth() }
func (u NullableUnwrappedUnion) String() string              { return fmt.Sprintf("nullable tag union %s", u.Name) }

// SortedTagNames returns the union's two tag names sorted lexically. The
// discriminant enumeration generated for a NullableUnwrappedUnion orders
// its tags this way rather than in source order; this is load-bearing
// for the discriminant-to-tag mapping (see §4.10).
func (u NullableUnwrappedUnion) SortedTagNames() []string {
	names := []string{u.NullTag, u.NonNullTag}
	if names[0] > names[1] {
		names[0], names[1] = names[1], names[0]
	}

	return names
}

// NullableWrappedUnion and NonNullableUnwrappedUnion are recognized by
// the dispatcher but their lowering is an open question left to a future
// revision of this package (see spec.md §9, "Open questions"). Emitting
// either is a class-1 unsupported-IR-shape error (§7).

type NullableWrappedUnion struct {
	Name string
}

type NonNullableUnwrappedUnion struct {
	Name string
}

var (
	_ Type = NullableWrappedUnion{}
	_ Type = NonNullableUnwrappedUnion{}
)

func (u NullableWrappedUnion) Alignment(types *Types) int { panic(unsupportedShape(u.Name)) }
func (u NullableWrappedUnion) Size(types *Types) int       { panic(unsupportedShape(u.Name)) }
func (u NullableWrappedUnion) String() string              { return fmt.Sprintf("nullable-wrapped tag union %s", u.Name) }

func (u NonNullableUnwrappedUnion) Alignment(types *Types) int { panic(unsupportedShape(u.Name)) }
func (u NonNullableUnwrappedUnion) Size(types *Types) int       { panic(unsupportedShape(u.Name)) }
func (u NonNullableUnwrappedUnion) String() string              { return fmt.Sprintf("non-nullable-unwrapped tag union %s", u.Name) }

func unsupportedShape(name string) string {
	return fmt.Sprintf("unsupported IR shape: %s has no lowering defined", name)
}
