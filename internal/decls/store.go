// Copyright 2024 The Glue Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

// Package decls is the Declaration Store: an ordered collection of
// scopes, each holding the distinct declaration bodies lowered for it
// across every architecture the core was asked to target.
//
// Two architectures whose type graphs lower a scope to byte-identical
// source text share a single declaration in the store, gated by a
// disjunction of their architecture predicates, rather than each
// producing its own copy. This is what lets the Assembler emit one
// struct definition behind an "x86_64 or aarch64" gate instead of two
// near-identical ones.
package decls

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ProjectSerenity/glue/internal/target"
)

// archSet records a set of architectures in the order they were first
// added. Architecture order within a gate follows insertion order (the
// order callers passed architecture documents to the generator), not a
// canonical ordering: two runs fed the same documents in a different
// order are expected to render different, but each internally
// consistent, gates.
type archSet struct {
	order []target.Arch
	seen  map[target.Arch]bool
}

func newArchSet() archSet {
	return archSet{seen: map[target.Arch]bool{}}
}

func (s *archSet) add(arch target.Arch) {
	if s.seen[arch] {
		return
	}
	s.seen[arch] = true
	s.order = append(s.order, arch)
}

type scopeEntry struct {
	bodies *orderedmap.OrderedMap[string, archSet]
}

// Store is the Declaration Store.
type Store struct {
	scopes *orderedmap.OrderedMap[string, *scopeEntry]
}

// New returns an empty Store.
func New() *Store {
	return &Store{scopes: orderedmap.New[string, *scopeEntry]()}
}

// Add records that, on the given architecture, scope lowers to body.
//
// If an identical body has already been recorded for scope on a
// different architecture, arch is merged into that body's architecture
// set rather than creating a second, redundant entry. Scopes and bodies
// are both tracked in first-insertion order, so a single-architecture
// run (where every body is necessarily distinct) produces output in
// exactly the order its types were declared.
func (s *Store) Add(scope string, arch target.Arch, body string) {
	sc, ok := s.scopes.Get(scope)
	if !ok {
		sc = &scopeEntry{bodies: orderedmap.New[string, archSet]()}
		s.scopes.Set(scope, sc)
	}

	archs, ok := sc.bodies.Get(body)
	if !ok {
		archs = newArchSet()
	}

	archs.add(arch)
	sc.bodies.Set(body, archs)
}

// Declaration is one distinct body recorded for a scope, together with
// the architectures it was produced for.
type Declaration struct {
	Body  string
	Archs []target.Arch
}

// Unconditional reports whether the declaration was produced for every
// architecture in target.All, meaning the Assembler can emit it without
// any gate at all. A declaration shared by every architecture the caller
// supplied, but not by all of target.All, is not unconditional.
func (d Declaration) Unconditional() bool {
	return len(d.Archs) == len(target.All)
}

// Gate renders the declaration's architecture set as a disjunction of
// predicate names, e.g. "x86_64 || arm", in the order the architectures
// were first added to the store. Translating this into a target host
// language's actual conditional-compilation syntax is the Assembler's
// job, not the Store's: the Store only knows which architectures share
// a body.
func (d Declaration) Gate() string {
	names := make([]string, len(d.Archs))
	for i, a := range d.Archs {
		names[i] = a.String()
	}

	return strings.Join(names, " || ")
}

// Scope holds every distinct declaration body recorded for one scope
// name, in first-insertion order.
type Scope struct {
	Name         string
	Declarations []Declaration
}

// Scopes returns every recorded scope, in first-insertion order, each
// with its declarations in first-insertion order and each declaration's
// architecture set in the order its architectures were first added.
func (s *Store) Scopes() []Scope {
	out := make([]Scope, 0, s.scopes.Len())
	for pair := s.scopes.Oldest(); pair != nil; pair = pair.Next() {
		sc := pair.Value

		decls := make([]Declaration, 0, sc.bodies.Len())
		for bp := sc.bodies.Oldest(); bp != nil; bp = bp.Next() {
			decls = append(decls, Declaration{
				Body:  bp.Key,
				Archs: append([]target.Arch(nil), bp.Value.order...),
			})
		}

		out = append(out, Scope{Name: pair.Key, Declarations: decls})
	}

	return out
}

// Len returns the number of distinct scopes recorded.
func (s *Store) Len() int {
	return s.scopes.Len()
}
