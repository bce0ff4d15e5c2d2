// Copyright 2024 The Glue Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package emit

import (
	"strings"
	"testing"

	"github.com/ProjectSerenity/glue/internal/decls"
	"github.com/ProjectSerenity/glue/internal/target"
	"github.com/ProjectSerenity/glue/internal/types"
)

func TestStructLoweringAndCollapsing(t *testing.T) {
	store := decls.New()

	for _, arch := range []target.Arch{target.X86_64, target.Aarch64} {
		ts := types.New(arch)
		i64 := ts.Add(types.I64)
		point := ts.Add(types.Struct{
			Name: "Point",
			Fields: []types.Field{
				{Label: "f0", Type: i64},
				{Label: "f1", Type: i64},
			},
		})

		Type(store, arch, point, ts)
	}

	out := Assemble(store)

	if !strings.Contains(out, "pub struct Point") {
		t.Fatalf("Assemble() missing struct declaration:\n%s", out)
	}
	if !strings.Contains(out, "#[cfg(any(\n    target_arch = \"x86_64\",\n    target_arch = \"aarch64\"\n))]") {
		t.Errorf("Assemble() did not gate the shared declaration by a disjunction of both architectures:\n%s", out)
	}
	if strings.Count(out, "pub struct Point") != 1 {
		t.Errorf("Assemble() did not collapse identical bodies across architectures:\n%s", out)
	}
}

func TestUnionLoweringDivergesByArchitecture(t *testing.T) {
	store := decls.New()

	for _, arch := range []target.Arch{target.X86_64, target.Wasm32} {
		ts := types.New(arch)
		str := ts.Add(types.RocStr)
		width := arch.PointerWidth()
		label := ts.Add(types.NonRecursiveUnion{
			Name:               "Label",
			Tags:               []types.Tag{{Name: "Text", Payload: &str}, {Name: "Blank"}},
			TotalSize:          4 * width,
			Align:              width,
			DiscriminantOffset: 3 * width,
		})

		Type(store, arch, label, ts)
	}

	out := Assemble(store)

	// RocStr's size depends on pointer width, so the union's size (and
	// with it the _sizer field and discriminant offset) differs, the two
	// architectures' bodies diverge, and each needs its own gate.
	if !strings.Contains(out, `#[cfg(target_arch = "x86_64")]`) || !strings.Contains(out, `#[cfg(target_arch = "wasm32")]`) {
		t.Errorf("Assemble() did not gate architecture-dependent bodies:\n%s", out)
	}
}

func TestSingleFieldStructUnwraps(t *testing.T) {
	store := decls.New()
	ts := types.New(target.X86_64)

	i64 := ts.Add(types.I64)
	wrapper := ts.Add(types.Struct{
		Name:   "Wrapper",
		Fields: []types.Field{{Label: "f0", Type: i64}},
	})

	Type(store, target.X86_64, wrapper, ts)

	if store.Len() != 0 {
		t.Errorf("single-field struct produced %d scopes, want 0 (it should unwrap to i64, which needs no declaration)", store.Len())
	}
}

func TestEmptyStructProducesNoDeclaration(t *testing.T) {
	store := decls.New()
	ts := types.New(target.X86_64)

	empty := ts.Add(types.Struct{Name: "Empty"})
	Type(store, target.X86_64, empty, ts)

	if store.Len() != 0 {
		t.Errorf("empty struct produced %d scopes, want 0", store.Len())
	}
}

func TestEnumerationLoweringAndDebugImpl(t *testing.T) {
	store := decls.New()
	ts := types.New(target.X86_64)

	color := ts.Add(types.Enumeration{Name: "Color", Tags: []string{"Red", "Green", "Blue"}})
	Type(store, target.X86_64, color, ts)

	out := Assemble(store)
	if !strings.Contains(out, "pub enum Color") {
		t.Fatalf("Assemble() missing enum declaration:\n%s", out)
	}
	if !strings.Contains(out, "impl core::fmt::Debug for Color") {
		t.Errorf("Assemble() missing handwritten Debug impl:\n%s", out)
	}
	if strings.Contains(out, "Default") {
		t.Errorf("Assemble() derived Default for an enumeration, which should be withheld:\n%s", out)
	}
}

func TestSingleTagEnumerationIsUnitStruct(t *testing.T) {
	store := decls.New()
	ts := types.New(target.X86_64)

	unit := ts.Add(types.Enumeration{Name: "Unit", Tags: []string{"OnlyTag"}})
	Type(store, target.X86_64, unit, ts)

	out := Assemble(store)
	if !strings.Contains(out, "struct Unit();") {
		t.Errorf("single-tag enumeration did not lower to a unit struct:\n%s", out)
	}
	if strings.Contains(out, "pub enum Unit") {
		t.Errorf("single-tag enumeration should not produce an enum:\n%s", out)
	}
}

func TestNonRecursiveUnionLowering(t *testing.T) {
	store := decls.New()
	ts := types.New(target.X86_64)

	i64 := ts.Add(types.I64)
	str := ts.Add(types.RocStr)

	union := ts.Add(types.NonRecursiveUnion{
		Name: "Shape",
		Tags: []types.Tag{
			{Name: "Circle", Payload: &i64},
			{Name: "Label", Payload: &str},
		},
		TotalSize:          32,
		Align:              8,
		DiscriminantOffset: 24,
	})

	Type(store, target.X86_64, union, ts)
	out := Assemble(store)

	if !strings.Contains(out, "pub union Shape") {
		t.Fatalf("Assemble() missing union declaration:\n%s", out)
	}
	if !strings.Contains(out, "ManuallyDrop<roc_std::RocStr>") {
		t.Errorf("Assemble() did not wrap pointer-bearing payload in ManuallyDrop:\n%s", out)
	}
	if !strings.Contains(out, "pub fn Circle(payload: i64) -> Self") {
		t.Errorf("Assemble() missing Circle constructor:\n%s", out)
	}
	if !strings.Contains(out, "impl Shape {") {
		t.Errorf("Assemble() missing impl Shape block:\n%s", out)
	}
}

func TestNullableUnwrappedLowering(t *testing.T) {
	store := decls.New()
	ts := types.New(target.X86_64)

	i64 := ts.Add(types.I64)
	cons := ts.Add(types.Struct{
		Name:   "Cons",
		Fields: []types.Field{{Label: "f0", Type: i64}},
	})

	list := ts.Add(types.NullableUnwrappedUnion{
		Name:           "LinkedList",
		NullTag:        "Nil",
		NonNullTag:     "Cons",
		NonNullPayload: cons,
	})

	Type(store, target.X86_64, list, ts)
	out := Assemble(store)

	if !strings.Contains(out, "pub struct LinkedList") {
		t.Fatalf("Assemble() missing struct declaration:\n%s", out)
	}
	if !strings.Contains(out, "pointer: *mut core::mem::ManuallyDrop") {
		t.Errorf("Assemble() missing tagged-null pointer field:\n%s", out)
	}
	if !strings.Contains(out, "pub fn Nil() -> Self") {
		t.Errorf("Assemble() missing Nil constructor:\n%s", out)
	}
}
