// Copyright 2024 The Glue Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package emit

import (
	"fmt"

	"github.com/ProjectSerenity/glue/internal/decls"
	"github.com/ProjectSerenity/glue/internal/target"
	"github.com/ProjectSerenity/glue/internal/types"
)

// topLevelScope names the Declaration Store scope holding every
// declaration that isn't inside a Rust `impl` block. Every non-impl
// declaration, regardless of which type produced it, shares this one
// scope, so that the Assembler renders them all in a single flat
// top-to-bottom list in the order they were first declared - mirroring
// how a hand-written bindings file reads.
const topLevelScope = ""

// Type lowers the type registered under id, on the given architecture,
// into zero or more declarations recorded in store. Primitives and the
// roc_std container types (List, Dict, Set, Box) need no declaration of
// their own; they're referenced only by name wherever they appear.
func Type(store *decls.Store, arch target.Arch, id types.TypeId, ts *types.Types) {
	switch t := ts.Get(id).(type) {
	case types.PrimitiveKind, types.List, types.Dict, types.Set, types.Box:
		return
	case types.Struct:
		Struct(store, arch, id, t, ts)
	case types.TransparentWrapper:
		TransparentWrapper(store, arch, id, t, ts)
	case types.Enumeration:
		Enumeration(store, arch, id, t, ts)
	case types.NonRecursiveUnion:
		if len(t.Tags) == 0 {
			// An empty tag union can never come up at runtime and needs
			// no declared type.
			return
		}
		NonRecursiveUnion(store, arch, id, t, ts)
	case types.RecursiveUnion:
		if len(t.Tags) == 0 {
			return
		}
		RecursiveUnion(store, arch, id, t, ts)
	case types.NullableUnwrappedUnion:
		NullableUnwrapped(store, arch, id, t, ts)
	case types.NullableWrappedUnion, types.NonNullableUnwrappedUnion:
		panic(fmt.Sprintf("%s: lowering not implemented for this IR shape", t))
	default:
		panic(fmt.Sprintf("unrecognised type graph node: %s", t))
	}
}

// Registry lowers every type in ts, in dependency order, on the given
// architecture, recording the results in store. Calling this once per
// architecture against a shared store is what lets the Assembler
// collapse declarations that came out byte-identical across
// architectures.
func Registry(store *decls.Store, arch target.Arch, ts *types.Types) {
	for _, id := range ts.SortedIDs() {
		Type(store, arch, id, ts)
	}
}
