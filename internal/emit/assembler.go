// Copyright 2024 The Glue Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package emit

import (
	"strings"

	"github.com/ProjectSerenity/glue/internal/decls"
)

const indent = "    "

// Assemble renders every scope recorded in store into a single Rust
// source file: the flat top-level scope first in whatever order its
// declarations were first produced, then each named impl block in the
// order it was first opened.
//
// A declaration whose architecture set doesn't cover every architecture
// in target.All gets an `#[cfg(...)]` gate immediately above it; one that
// does needs no gate at all.
func Assemble(store *decls.Store) string {
	var buf strings.Builder

	for _, scope := range store.Scopes() {
		hasImpl := scope.Name != topLevelScope
		ind := ""
		if hasImpl {
			ind = indent

			buf.WriteString("\n")
			buf.WriteString(scope.Name)
			buf.WriteString(" {")
		}

		for _, d := range scope.Declarations {
			buf.WriteString("\n")

			if gate := gateAttribute(d, ind); gate != "" {
				buf.WriteString(ind)
				buf.WriteString(gate)
				buf.WriteString("\n")
			}

			buf.WriteString(ind)
			buf.WriteString(d.Body)
			buf.WriteString("\n")
		}

		if hasImpl {
			buf.WriteString("}\n")
		}
	}

	return buf.String()
}

// gateAttribute renders a declaration's architecture set as the Rust
// conditional-compilation attribute that gates it: a single
// `#[cfg(target_arch = "...")]` for one architecture, or a
// `#[cfg(any(...))]` disjunction for several. A declaration produced for
// every architecture in target.All gets no attribute at all.
func gateAttribute(d decls.Declaration, ind string) string {
	if d.Unconditional() {
		return ""
	}

	if len(d.Archs) == 1 {
		return `#[cfg(target_arch = "` + d.Archs[0].String() + `")]`
	}

	alternatives := make([]string, len(d.Archs))
	for i, a := range d.Archs {
		alternatives[i] = ind + indent + `target_arch = "` + a.String() + `"`
	}

	return "#[cfg(any(\n" + strings.Join(alternatives, ",\n") + "\n" + ind + "))]"
}
