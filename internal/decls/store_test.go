// Copyright 2024 The Glue Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package decls

import (
	"reflect"
	"testing"

	"github.com/ProjectSerenity/glue/internal/target"
)

func TestAddCollapsesIdenticalBodies(t *testing.T) {
	s := New()

	s.Add("Point", target.X86_64, "struct Point { int64_t f0; int64_t f1; };")
	s.Add("Point", target.Aarch64, "struct Point { int64_t f0; int64_t f1; };")
	s.Add("Point", target.Wasm32, "struct Point { int32_t f0; int32_t f1; };")

	scopes := s.Scopes()
	if len(scopes) != 1 {
		t.Fatalf("Scopes() returned %d scopes, want 1", len(scopes))
	}

	decls := scopes[0].Declarations
	if len(decls) != 2 {
		t.Fatalf("Declarations = %d, want 2 (one 64-bit body, one wasm32 body)", len(decls))
	}

	want0 := []target.Arch{target.X86_64, target.Aarch64}
	if !reflect.DeepEqual(decls[0].Archs, want0) {
		t.Errorf("decls[0].Archs = %v, want %v", decls[0].Archs, want0)
	}
	if decls[0].Unconditional() {
		t.Errorf("decls[0].Unconditional() = true, want false")
	}

	want1 := []target.Arch{target.Wasm32}
	if !reflect.DeepEqual(decls[1].Archs, want1) {
		t.Errorf("decls[1].Archs = %v, want %v", decls[1].Archs, want1)
	}
}

func TestAddPreservesInsertionOrder(t *testing.T) {
	s := New()

	s.Add("Second", target.X86_64, "body-second")
	s.Add("First", target.X86_64, "body-first")

	scopes := s.Scopes()
	if len(scopes) != 2 || scopes[0].Name != "Second" || scopes[1].Name != "First" {
		t.Fatalf("Scopes() = %+v, want [Second, First] in insertion order", scopes)
	}
}

func TestUnconditionalWhenAllArchitecturesAgree(t *testing.T) {
	s := New()

	for _, a := range target.All {
		s.Add("Unit", a, "struct Unit {};")
	}

	decls := s.Scopes()[0].Declarations
	if len(decls) != 1 {
		t.Fatalf("Declarations = %d, want 1", len(decls))
	}
	if !decls[0].Unconditional() {
		t.Errorf("Unconditional() = false, want true when every architecture shares a body")
	}
}

func TestGateRendersInsertionOrder(t *testing.T) {
	s := New()
	s.Add("Scoped", target.Aarch32, "body")
	s.Add("Scoped", target.X86_64, "body")

	got := s.Scopes()[0].Declarations[0].Gate()
	want := "arm || x86_64"
	if got != want {
		t.Errorf("Gate() = %q, want %q (insertion order, not canonical order)", got, want)
	}

	// Feeding the same architectures in the opposite order produces the
	// opposite gate: insertion order, not a fixed canonical ordering.
	s2 := New()
	s2.Add("Scoped", target.X86_64, "body")
	s2.Add("Scoped", target.Aarch32, "body")

	got2 := s2.Scopes()[0].Declarations[0].Gate()
	want2 := "x86_64 || arm"
	if got2 != want2 {
		t.Errorf("Gate() = %q, want %q", got2, want2)
	}
}
