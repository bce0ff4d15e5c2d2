// Copyright 2024 The Glue Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ProjectSerenity/glue/internal/target"
	"github.com/ProjectSerenity/glue/internal/types"
)

// payloadParam is one argument a tag's constructor accepts, or one
// component of the tuple its into_/as_ accessors return.
type payloadParam struct {
	Name string
	Type string
}

// payloadPlan describes how a tag's payload is built from, and read back
// into, the arguments exposed by its generated constructor and
// into_/as_ accessors. The payload stored inside the union is always of
// StorageType - the payload's own declared type - regardless of how
// ergonomic the public constructor/accessor signatures are; only the
// public-facing shape changes.
//
// OwnedRet is evaluated with a local `payload` bound to an owned value
// of StorageType (into_TagName consumes self). BorrowedRet is evaluated
// with `payload` bound to a &StorageType instead (as_TagName borrows
// self), so unlike OwnedRet it must not add its own leading `&` when it
// simply returns the whole payload - payload is already a reference in
// that case.
type payloadPlan struct {
	Params []payloadParam

	// StorageType is the Rust type actually held by the union field.
	StorageType string

	// ConstructExpr builds a value of StorageType from the in-scope
	// Params.
	ConstructExpr string

	// OwnedRetType/OwnedRet are into_TagName's return type and the
	// expression that produces it from a local `payload` variable of
	// StorageType.
	OwnedRetType, OwnedRet string

	// BorrowedRetType/BorrowedRet are as_TagName's return type and the
	// expression that produces it from the same `payload` variable.
	BorrowedRetType, BorrowedRet string
}

// planPayload works out the constructor/accessor shape for a tag whose
// payload is registered under payloadId.
//
// Three payload shapes get special treatment, per §4.7 of the
// specification:
//
//   - A TransparentWrapper payload is hidden entirely: the constructor
//     takes (and the accessors return) the wrapper's content type
//     directly, wrapping and unwrapping internally.
//   - A multi-field Struct payload is flattened into one positional
//     constructor argument per field, ordered by the field label's
//     numeric suffix (types.FieldNumber) rather than declaration order,
//     so "f2" precedes "f10".
//   - Everything else (primitives, containers, nested unions, and
//     single-field structs, which the struct emitter has already
//     collapsed to their one field's type) is passed through as a
//     single argument of its own declared type.
func planPayload(arch target.Arch, payloadId types.TypeId, ts *types.Types) payloadPlan {
	storageType := TypeName(payloadId, ts)

	switch t := ts.Get(payloadId).(type) {
	case types.TransparentWrapper:
		contentType := TypeName(t.Content, ts)
		return payloadPlan{
			Params:          []payloadParam{{Name: "payload", Type: contentType}},
			StorageType:     storageType,
			ConstructExpr:   storageType + "(payload)",
			OwnedRetType:    contentType,
			OwnedRet:        "payload.0",
			BorrowedRetType: "&" + contentType,
			BorrowedRet:     "&payload.0",
		}
	case types.Struct:
		if len(t.Fields) > 1 {
			return planStructPayload(arch, storageType, t.Fields, ts)
		}
	}

	return payloadPlan{
		Params:          []payloadParam{{Name: "payload", Type: storageType}},
		StorageType:     storageType,
		ConstructExpr:   "payload",
		OwnedRetType:    storageType,
		OwnedRet:        "payload",
		BorrowedRetType: "&" + storageType,
		// payload is already &StorageType here; see the payloadPlan
		// doc comment.
		BorrowedRet: "payload",
	}
}

// planStructPayload builds the flattened argument-per-field plan for a
// multi-field struct payload, with fields reordered by their label's
// numeric suffix.
func planStructPayload(arch target.Arch, storageType string, declared []types.Field, ts *types.Types) payloadPlan {
	fields := append([]types.Field(nil), declared...)
	sort.SliceStable(fields, func(i, j int) bool {
		ni, oki := types.FieldNumber(fields[i].Label)
		nj, okj := types.FieldNumber(fields[j].Label)
		if oki && okj {
			return ni < nj
		}
		return fields[i].Label < fields[j].Label
	})

	params := make([]payloadParam, len(fields))
	fieldInits := make([]string, len(fields))
	ownedTypes := make([]string, len(fields))
	ownedValues := make([]string, len(fields))
	borrowedTypes := make([]string, len(fields))
	borrowedValues := make([]string, len(fields))

	for i, f := range fields {
		fieldType := TypeName(f.Type, ts)
		if f.Recursive {
			fieldType = "*mut " + fieldType
		}

		params[i] = payloadParam{Name: f.Label, Type: fieldType}
		fieldInits[i] = fmt.Sprintf("%s: %s", f.Label, f.Label)
		ownedTypes[i] = fieldType
		borrowedTypes[i] = "&" + fieldType

		if f.Recursive {
			// The pointer stored in the field carries the enclosing
			// union's discriminant in its spare low bits (set by
			// set_discriminant once the whole Self is built), so
			// reading it back out by value has to mask those bits
			// off first. The borrowed accessor returns a reference to
			// the raw field instead of to a freshly-masked temporary,
			// since a reference to a temporary can't outlive the
			// expression that produced it.
			bitmask := fmt.Sprintf("0b%07b", arch.TagBitmask())
			ownedValues[i] = fmt.Sprintf("((payload.%s as usize) & !(%s as usize)) as %s", f.Label, bitmask, fieldType)
			borrowedValues[i] = "&payload." + f.Label
		} else {
			ownedValues[i] = "payload." + f.Label
			borrowedValues[i] = "&" + ownedValues[i]
		}
	}

	return payloadPlan{
		Params:          params,
		StorageType:     storageType,
		ConstructExpr:   fmt.Sprintf("%s { %s }", storageType, strings.Join(fieldInits, ", ")),
		OwnedRetType:    "(" + strings.Join(ownedTypes, ", ") + ")",
		OwnedRet:        "(" + strings.Join(ownedValues, ", ") + ")",
		BorrowedRetType: "(" + strings.Join(borrowedTypes, ", ") + ")",
		BorrowedRet:     "(" + strings.Join(borrowedValues, ", ") + ")",
	}
}
