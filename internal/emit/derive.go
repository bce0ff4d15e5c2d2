// Copyright 2024 The Glue Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package emit

import (
	"strings"

	"github.com/ProjectSerenity/glue/internal/types"
)

// DeriveSuite renders the #[derive(...)] attribute for id, following the
// derivation rules: Clone and PartialEq/PartialOrd are always safe to
// derive; Copy requires the type to be pointer-free (a Copy type must
// never need a destructor); Default requires it to be enumeration-free
// (there's no principled default variant of an arbitrary tag union); Eq,
// Ord and Hash require it to be float-free (IEEE-754 has no total order
// and NaN != NaN).
//
// includeDebug is false only when the caller will hand-write a Debug impl
// of its own, which derive_str never does except for tag unions, whose
// raw union storage Rust can't derive Debug for automatically.
func DeriveSuite(id types.TypeId, ts *types.Types, includeDebug bool) string {
	var traits []string
	traits = append(traits, "Clone")

	if !ts.HasPointer(id) {
		traits = append(traits, "Copy")
	}
	if includeDebug {
		traits = append(traits, "Debug")
	}
	if !ts.HasEnumeration(id) {
		traits = append(traits, "Default")
	}
	if !ts.HasFloat(id) {
		traits = append(traits, "Eq", "Ord", "Hash")
	}

	traits = append(traits, "PartialEq", "PartialOrd")

	return "#[derive(" + strings.Join(traits, ", ") + ")]"
}
