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

// Enumeration lowers a payload-free tag union into a C-like Rust enum,
// with its own Debug impl so that tag names print as "Name::Tag" rather
// than the default "0", "1", "2" an auto-derived Debug would give a
// #[repr(uN)] enum with no other markup.
//
// A single-tag enumeration is a zero-sized unit type and is represented
// as an empty tuple struct instead: there's no discriminant to store
// when there's only one possible value.
func Enumeration(store *decls.Store, arch target.Arch, id types.TypeId, e types.Enumeration, ts *types.Types) {
	if len(e.Tags) == 1 {
		body := fmt.Sprintf("%s\nstruct %s();", DeriveSuite(id, ts, true), e.Name)
		store.Add(topLevelScope, arch, body)
		return
	}

	emitEnumeration(store, arch, e.Name, e.Tags, ts)
}

// Discriminant declares the enumeration that distinguishes a tag union's
// variants without carrying any of their payloads, and returns its name
// ("variant_" + the union's name). Every tag union shape that has a
// variant() accessor - non-recursive, recursive, and nullable-unwrapped
// alike - declares one of these as that accessor's return type; a plain
// Enumeration does not.
func Discriminant(store *decls.Store, arch target.Arch, unionName string, tagNames []string, ts *types.Types) string {
	discriminantName := "variant_" + unionName
	emitEnumeration(store, arch, discriminantName, tagNames, ts)

	return discriminantName
}

func emitEnumeration(store *decls.Store, arch target.Arch, name string, tags []string, ts *types.Types) {
	reprBytes := types.DiscriminantBytes(len(tags)) * 8

	var buf strings.Builder
	// An enumeration never has a pointer or a float, so Copy and
	// Eq/Ord/Hash are always safe; Default is withheld because an
	// enumeration is itself the thing the Default rule is guarding
	// against (there's no principled default tag to pick). Debug is
	// written below by hand, since the derived one would print the repr
	// integer rather than the tag's name.
	fmt.Fprintf(&buf, "#[derive(Clone, Copy, Eq, Ord, Hash, PartialEq, PartialOrd)]\n#[repr(u%d)]\npub enum %s {\n", reprBytes, name)

	var debugBuf strings.Builder
	fmt.Fprintf(&debugBuf, "impl core::fmt::Debug for %s {\n    fn fmt(&self, f: &mut core::fmt::Formatter<'_>) -> core::fmt::Result {\n        match self {\n", name)

	for i, tag := range tags {
		fmt.Fprintf(&buf, "    %s = %d,\n", tag, i)
		fmt.Fprintf(&debugBuf, "            Self::%s => f.write_str(\"%s::%s\"),\n", tag, name, tag)
	}

	buf.WriteString("}\n\n")
	buf.WriteString(debugBuf.String())
	buf.WriteString("        }\n    }\n}")

	store.Add(topLevelScope, arch, buf.String())
}
