// Copyright 2024 The Glue Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

// Package emit lowers a type registry into Rust source declarations: one
// struct, enum or union per declared type, plus the impls that give tag
// unions constructors, a variant() accessor and (where Rust can't derive
// it) a handwritten Debug. It is grounded on the same shape decisions the
// data model in internal/types captures, but knows nothing about how
// several architectures' declarations get merged; that's internal/decls'
// job, driven by the Assembler in this package.
package emit

import (
	"fmt"

	"github.com/ProjectSerenity/glue/internal/types"
)

// TypeName returns the Rust spelling of the type registered under id:
// the primitive's keyword, a generic instantiation of a roc_std
// container, or a declared type's own name.
func TypeName(id types.TypeId, ts *types.Types) string {
	switch t := ts.Get(id).(type) {
	case types.PrimitiveKind:
		return primitiveTypeName(t)
	case types.List:
		return fmt.Sprintf("roc_std::RocList<%s>", TypeName(t.Elem, ts))
	case types.Dict:
		return fmt.Sprintf("roc_std::RocDict<%s, %s>", TypeName(t.Key, ts), TypeName(t.Value, ts))
	case types.Set:
		return fmt.Sprintf("roc_std::RocSet<%s>", TypeName(t.Elem, ts))
	case types.Box:
		return fmt.Sprintf("roc_std::RocBox<%s>", TypeName(t.Elem, ts))
	case types.Struct:
		if len(t.Fields) == 1 {
			// A single-field struct is never declared; it is spelled as its
			// one field's type wherever it is used.
			if t.Fields[0].Recursive {
				return "*mut " + TypeName(t.Fields[0].Type, ts)
			}
			return TypeName(t.Fields[0].Type, ts)
		}
		return t.Name
	case types.TransparentWrapper:
		return t.Name
	case types.Enumeration:
		return t.Name
	case types.NonRecursiveUnion:
		return t.Name
	case types.RecursiveUnion:
		return t.Name
	case types.NullableUnwrappedUnion:
		return t.Name
	default:
		panic(fmt.Sprintf("type %s has no Rust spelling", t))
	}
}

// primitiveTypeName maps a PrimitiveKind to its Rust spelling. Most
// primitives are Rust keywords; the ones that aren't (128-bit integers
// and floats, the fixed-point decimal, and the small string) are types
// supplied by roc_std.
func primitiveTypeName(p types.PrimitiveKind) string {
	switch p {
	case types.U128:
		return "roc_std::U128"
	case types.I128:
		return "roc_std::I128"
	case types.F128:
		return "roc_std::F128"
	case types.RocDec:
		return "roc_std::RocDec"
	case types.RocStr:
		return "roc_std::RocStr"
	default:
		return p.String()
	}
}
