// Copyright 2024 The Glue Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package types

// HasPointer reports whether a value of the type registered under id
// transitively contains a heap reference: a string, a list/dict/set/box,
// a nullable-unwrapped union, a recursive union, or a Recursive field.
//
// This drives two derivation decisions (§4.9): whether Copy can be
// derived, and whether a tag union payload needs wrapping in a
// manual-drop cell.
func (ts *Types) HasPointer(id TypeId) bool {
	return hasPointer(ts, id, map[TypeId]bool{})
}

func hasPointer(ts *Types, id TypeId, seen map[TypeId]bool) bool {
	if seen[id] {
		// A cycle can only be reached through a Recursive field, which is
		// itself always a pointer; the caller that followed the
		// Recursive edge has already accounted for that.
		return false
	}
	seen[id] = true

	switch t := ts.Get(id).(type) {
	case PrimitiveKind:
		return t == RocStr
	case List, Dict, Set, Box:
		return true
	case Struct:
		for _, field := range t.Fields {
			if field.Recursive {
				return true
			}
			if hasPointer(ts, field.Type, seen) {
				return true
			}
		}
		return false
	case TransparentWrapper:
		return hasPointer(ts, t.Content, seen)
	case Enumeration:
		return false
	case NonRecursiveUnion:
		return anyTagPointer(ts, t.Tags, seen)
	case RecursiveUnion:
		return true
	case NullableUnwrappedUnion:
		return true
	case NullableWrappedUnion, NonNullableUnwrappedUnion:
		return true
	default:
		return false
	}
}

func anyTagPointer(ts *Types, tags []Tag, seen map[TypeId]bool) bool {
	for _, tag := range tags {
		if tag.Payload != nil && hasPointer(ts, *tag.Payload, seen) {
			return true
		}
	}
	return false
}

// HasFloat reports whether a value of the type registered under id
// transitively contains a floating-point number. Eq, Ord and Hash can
// only be derived for float-free types (§4.9), since IEEE-754 floats have
// no total order and NaN != NaN breaks Eq.
func (ts *Types) HasFloat(id TypeId) bool {
	return hasFloat(ts, id, map[TypeId]bool{})
}

func hasFloat(ts *Types, id TypeId, seen map[TypeId]bool) bool {
	if seen[id] {
		return false
	}
	seen[id] = true

	switch t := ts.Get(id).(type) {
	case PrimitiveKind:
		return t.IsFloat()
	case List:
		return hasFloat(ts, t.Elem, seen)
	case Set:
		return hasFloat(ts, t.Elem, seen)
	case Box:
		return hasFloat(ts, t.Elem, seen)
	case Dict:
		return hasFloat(ts, t.Key, seen) || hasFloat(ts, t.Value, seen)
	case Struct:
		for _, field := range t.Fields {
			if !field.Recursive && hasFloat(ts, field.Type, seen) {
				return true
			}
		}
		return false
	case TransparentWrapper:
		return hasFloat(ts, t.Content, seen)
	case NonRecursiveUnion:
		return anyTagFloat(ts, t.Tags, seen)
	case RecursiveUnion:
		return anyTagFloat(ts, t.Tags, seen)
	case NullableUnwrappedUnion:
		return hasFloat(ts, t.NonNullPayload, seen)
	default:
		return false
	}
}

func anyTagFloat(ts *Types, tags []Tag, seen map[TypeId]bool) bool {
	for _, tag := range tags {
		if tag.Payload != nil && hasFloat(ts, *tag.Payload, seen) {
			return true
		}
	}
	return false
}

// HasEnumeration reports whether a value of the type registered under id
// transitively contains a discriminated union of any kind (including
// itself). Default can only be derived for enumeration-free types
// (§4.9): there is no principled default variant to pick for an
// arbitrary tag union.
func (ts *Types) HasEnumeration(id TypeId) bool {
	return hasEnumeration(ts, id, map[TypeId]bool{})
}

func hasEnumeration(ts *Types, id TypeId, seen map[TypeId]bool) bool {
	if seen[id] {
		return false
	}
	seen[id] = true

	switch t := ts.Get(id).(type) {
	case Enumeration, NonRecursiveUnion, RecursiveUnion, NullableUnwrappedUnion,
		NullableWrappedUnion, NonNullableUnwrappedUnion:
		return true
	case List:
		return hasEnumeration(ts, t.Elem, seen)
	case Set:
		return hasEnumeration(ts, t.Elem, seen)
	case Box:
		return hasEnumeration(ts, t.Elem, seen)
	case Dict:
		return hasEnumeration(ts, t.Key, seen) || hasEnumeration(ts, t.Value, seen)
	case Struct:
		for _, field := range t.Fields {
			if !field.Recursive && hasEnumeration(ts, field.Type, seen) {
				return true
			}
		}
		return false
	case TransparentWrapper:
		return hasEnumeration(ts, t.Content, seen)
	default:
		return false
	}
}
