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

// forEachTag renders `match self.variant() { Discriminant::Tag => ...,
// ... }`, with one arm per tag built by calling arm. Drop, PartialEq,
// PartialOrd, Ord, Clone, Hash and Debug all switch on the same
// variant() and differ only in what each arm does, so every one of
// those impls is built on top of this one helper rather than repeating
// the match itself seven times.
func forEachTag(discriminantName string, tags []types.Tag, arm func(tag types.Tag) string) string {
	var buf strings.Builder
	buf.WriteString("match self.variant() {\n")
	for _, tag := range tags {
		fmt.Fprintf(&buf, "        %s::%s => %s\n", discriminantName, tag.Name, arm(tag))
	}
	buf.WriteString("    }")
	return buf.String()
}

// indentBody indents every non-empty line of s by prefix, for splicing
// a forEachTag match block into a surrounding function body.
func indentBody(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// emitTagUnionTraitImpls writes the handwritten Drop, PartialEq(+Eq),
// PartialOrd(+Ord), Clone(+Copy) and Hash impls a raw Rust union needs,
// since it can derive none of them itself: Rust has no way to know
// which field of a union is live, so every one of these has to inspect
// variant() first. Eq, Ord and Hash are only written for float-free
// unions, and Copy only for pointer-free ones. Debug is written
// separately, by emitTagUnionDebugImpl, which both union shapes call
// right after this function.
func emitTagUnionTraitImpls(store *decls.Store, arch target.Arch, id types.TypeId, name, discriminantName string, tags []types.Tag, ts *types.Types) {
	floatFree := !ts.HasFloat(id)

	emitDropImpl(store, arch, name, discriminantName, tags, ts)
	emitEqImpls(store, arch, id, name, discriminantName, tags, ts)
	emitOrdImpls(store, arch, name, discriminantName, tags, floatFree)
	emitCloneImpl(store, arch, id, name, discriminantName, tags, ts)
	if floatFree {
		emitHashImpl(store, arch, name, discriminantName, tags, ts)
	}
}

func emitDropImpl(store *decls.Store, arch target.Arch, name, discriminantName string, tags []types.Tag, ts *types.Types) {
	arms := forEachTag(discriminantName, tags, func(tag types.Tag) string {
		if tag.Payload != nil && ts.HasPointer(*tag.Payload) {
			return fmt.Sprintf("unsafe { core::mem::ManuallyDrop::drop(&mut self.%s) },", tag.Name)
		}
		return "{}"
	})

	body := fmt.Sprintf("fn drop(&mut self) {\n        %s\n    }", arms)
	store.Add("impl Drop for "+name, arch, body)
}

func emitEqImpls(store *decls.Store, arch target.Arch, id types.TypeId, name, discriminantName string, tags []types.Tag, ts *types.Types) {
	if !ts.HasFloat(id) {
		store.Add(topLevelScope, arch, fmt.Sprintf("impl Eq for %s {}", name))
	}

	arms := forEachTag(discriminantName, tags, func(tag types.Tag) string {
		if tag.Payload != nil {
			return fmt.Sprintf("unsafe { self.%s == other.%s },", tag.Name, tag.Name)
		}
		return "true,"
	})

	body := fmt.Sprintf(`fn eq(&self, other: &Self) -> bool {
        if self.variant() != other.variant() {
            return false;
        }

        %s
    }`, arms)

	store.Add("impl PartialEq for "+name, arch, body)
}

func emitOrdImpls(store *decls.Store, arch target.Arch, name, discriminantName string, tags []types.Tag, withOrd bool) {
	partialArms := forEachTag(discriminantName, tags, func(tag types.Tag) string {
		if tag.Payload != nil {
			return fmt.Sprintf("unsafe { self.%s.partial_cmp(&other.%s) },", tag.Name, tag.Name)
		}
		return "Some(core::cmp::Ordering::Equal),"
	})

	partialBody := fmt.Sprintf(`fn partial_cmp(&self, other: &Self) -> Option<core::cmp::Ordering> {
        match self.variant().partial_cmp(&other.variant()) {
            Some(core::cmp::Ordering::Equal) => {}
            not_eq => return not_eq,
        }

        %s
    }`, partialArms)

	store.Add("impl PartialOrd for "+name, arch, partialBody)

	if !withOrd {
		return
	}

	ordArms := forEachTag(discriminantName, tags, func(tag types.Tag) string {
		if tag.Payload != nil {
			return fmt.Sprintf("unsafe { self.%s.cmp(&other.%s) },", tag.Name, tag.Name)
		}
		return "core::cmp::Ordering::Equal,"
	})

	ordBody := fmt.Sprintf(`fn cmp(&self, other: &Self) -> core::cmp::Ordering {
        match self.variant().cmp(&other.variant()) {
            core::cmp::Ordering::Equal => {}
            not_eq => return not_eq,
        }

        %s
    }`, ordArms)

	store.Add("impl Ord for "+name, arch, ordBody)
}

func emitCloneImpl(store *decls.Store, arch target.Arch, id types.TypeId, name, discriminantName string, tags []types.Tag, ts *types.Types) {
	if !ts.HasPointer(id) {
		store.Add(topLevelScope, arch, fmt.Sprintf("impl Copy for %s {}", name))
	}

	arms := forEachTag(discriminantName, tags, func(tag types.Tag) string {
		if tag.Payload != nil {
			return fmt.Sprintf("Self { %s: unsafe { self.%s.clone() } },", tag.Name, tag.Name)
		}
		return "unsafe { core::mem::transmute_copy(self) },"
	})

	body := fmt.Sprintf(`fn clone(&self) -> Self {
        %s
    }`, arms)

	store.Add("impl Clone for "+name, arch, body)
}

func emitHashImpl(store *decls.Store, arch target.Arch, name, discriminantName string, tags []types.Tag, ts *types.Types) {
	arms := forEachTag(discriminantName, tags, func(tag types.Tag) string {
		discriminant := fmt.Sprintf("%s::%s.hash(state)", discriminantName, tag.Name)
		if tag.Payload != nil {
			return fmt.Sprintf("{ %s; unsafe { self.%s.hash(state) }; },", discriminant, tag.Name)
		}
		return discriminant + ","
	})

	body := fmt.Sprintf(`fn hash<H: core::hash::Hasher>(&self, state: &mut H) {
        %s
    }`, arms)

	store.Add("impl core::hash::Hash for "+name, arch, body)
}

// emitTagUnionDebugImpl writes the handwritten Debug impl shared by
// every non-nullable tag union shape. A payload wrapped in ManuallyDrop
// (one that contains a pointer) is dereferenced through the wrapper, so
// the payload's own Debug form is printed; a plain payload is referenced
// directly.
func emitTagUnionDebugImpl(store *decls.Store, arch target.Arch, name, discriminantName string, tags []types.Tag, ts *types.Types) {
	arms := forEachTag(discriminantName, tags, func(tag types.Tag) string {
		label := name + "::" + tag.Name

		if tag.Payload == nil {
			return fmt.Sprintf(`f.write_str("%s"),`, label)
		}

		ref := "&self." + tag.Name
		if ts.HasPointer(*tag.Payload) {
			ref = "&*self." + tag.Name
		}

		return fmt.Sprintf(`unsafe { f.debug_tuple("%s").field(%s).finish() },`, label, ref)
	})

	body := fmt.Sprintf(`fn fmt(&self, f: &mut core::fmt::Formatter<'_>) -> core::fmt::Result {
        %s
    }`, arms)

	store.Add("impl core::fmt::Debug for "+name, arch, body)
}
