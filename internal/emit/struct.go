// Copyright 2024 The Glue Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package emit

import (
	"fmt"
	"strings"

	"github.com/ProjectSerenity/glue/internal/decls"
	"github.com/ProjectSerenity/glue/internal/target"
	"github.com/ProjectSerenity/glue/internal/types"
)

// Struct lowers a types.Struct into a Rust struct declaration.
//
// An empty struct is zero-sized and is never declared: no host value
// ever needs to name it. A single-field struct is unwrapped entirely,
// collapsing into whatever its one field's type lowers to, rather than
// introducing a newtype wrapper nothing asked for.
func Struct(store *decls.Store, arch target.Arch, id types.TypeId, s types.Struct, ts *types.Types) {
	switch len(s.Fields) {
	case 0:
		return
	case 1:
		Type(store, arch, s.Fields[0].Type, ts)
		return
	}

	var buf strings.Builder
	buf.WriteString(DeriveSuite(id, ts, true))
	buf.WriteString("\n#[repr(C)]\npub struct ")
	buf.WriteString(s.Name)
	buf.WriteString(" {\n")

	for _, field := range s.Fields {
		typeStr := TypeName(field.Type, ts)
		if field.Recursive {
			typeStr = "*mut " + typeStr
		}

		fmt.Fprintf(&buf, "    pub %s: %s,\n", field.Label, typeStr)
	}

	buf.WriteString("}")

	store.Add(topLevelScope, arch, buf.String())
}

// TransparentWrapper lowers a types.TransparentWrapper into a Rust
// #[repr(transparent)] newtype. Debug is always included, regardless of
// whether the wrapped content contains an enumeration: a wrapper never
// gets a handwritten Debug impl (only enumerations and tag unions do),
// so there's nothing for a derived Debug to conflict with.
func TransparentWrapper(store *decls.Store, arch target.Arch, id types.TypeId, w types.TransparentWrapper, ts *types.Types) {
	body := fmt.Sprintf(
		"%s\n#[repr(transparent)]\npub struct %s(pub %s);",
		DeriveSuite(id, ts, true),
		w.Name,
		TypeName(w.Content, ts),
	)

	store.Add(topLevelScope, arch, body)
}
