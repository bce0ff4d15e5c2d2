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

func TestRecursiveUnionLowering(t *testing.T) {
	store := decls.New()
	ts := types.New(target.X86_64)

	// The Cons payload's recursive field must point back at Tree, so
	// Tree's id is chosen up front and inserted explicitly below.
	treeId := types.TypeId(100)

	i64 := ts.Add(types.I64)
	consId := ts.Add(types.Struct{
		Name: "Cons",
		Fields: []types.Field{
			{Label: "f0", Type: i64},
			{Label: "f1", Type: treeId, Recursive: true},
		},
	})

	ts.Insert(treeId, types.RecursiveUnion{
		Name: "Tree",
		Tags: []types.Tag{
			{Name: "Leaf"},
			{Name: "Cons", Payload: &consId},
		},
		TotalSize: 8,
		Align:     8,
	})
	_ = treeId

	Type(store, target.X86_64, treeId, ts)
	out := Assemble(store)

	if !strings.Contains(out, "pub union Tree") {
		t.Fatalf("Assemble() missing union declaration:\n%s", out)
	}
	if !strings.Contains(out, "// The discriminant is stored in the unused low bits of the recursive pointer.") {
		t.Errorf("Assemble() missing pointer-tagged discriminant comment:\n%s", out)
	}
	if !strings.Contains(out, "impl Drop for Tree") {
		t.Errorf("Assemble() missing handwritten Drop impl:\n%s", out)
	}
	if !strings.Contains(out, "impl PartialEq for Tree") || !strings.Contains(out, "impl PartialOrd for Tree") {
		t.Errorf("Assemble() missing handwritten PartialEq/PartialOrd impls:\n%s", out)
	}
	if !strings.Contains(out, "impl core::hash::Hash for Tree") {
		t.Errorf("Assemble() missing handwritten Hash impl:\n%s", out)
	}
	if !strings.Contains(out, "impl core::fmt::Debug for Tree") {
		t.Errorf("Assemble() missing handwritten Debug impl:\n%s", out)
	}
}

func TestTagUnionConstructorFlattensStructPayloadByFieldNumber(t *testing.T) {
	store := decls.New()
	ts := types.New(target.X86_64)

	i64 := ts.Add(types.I64)
	point3Id := ts.Add(types.Struct{
		Name: "Point3",
		Fields: []types.Field{
			{Label: "f10", Type: i64},
			{Label: "f1", Type: i64},
			{Label: "f2", Type: i64},
		},
	})

	union := ts.Add(types.NonRecursiveUnion{
		Name:               "Shape",
		Tags:               []types.Tag{{Name: "Point", Payload: &point3Id}},
		TotalSize:          32,
		Align:              8,
		DiscriminantOffset: 24,
	})

	Type(store, target.X86_64, union, ts)
	out := Assemble(store)

	if !strings.Contains(out, "pub fn Point(f1: i64, f2: i64, f10: i64) -> Self") {
		t.Errorf("Assemble() did not flatten struct payload fields in numeric order:\n%s", out)
	}
	if !strings.Contains(out, "Point3 { f1: f1, f2: f2, f10: f10 }") {
		t.Errorf("Assemble() did not rebuild the struct literal from the flattened arguments:\n%s", out)
	}
}

func TestTagUnionAccessorsConsumeAndBorrow(t *testing.T) {
	store := decls.New()
	ts := types.New(target.X86_64)

	i64 := ts.Add(types.I64)
	union := ts.Add(types.NonRecursiveUnion{
		Name:               "Shape",
		Tags:               []types.Tag{{Name: "Circle", Payload: &i64}, {Name: "Empty"}},
		TotalSize:          16,
		Align:              8,
		DiscriminantOffset: 8,
	})

	Type(store, target.X86_64, union, ts)
	out := Assemble(store)

	if !strings.Contains(out, "pub unsafe fn into_Circle(self) -> i64") {
		t.Errorf("Assemble() missing consuming into_Circle accessor:\n%s", out)
	}
	if !strings.Contains(out, "pub unsafe fn as_Circle(&self) -> &i64") {
		t.Errorf("Assemble() missing borrowing as_Circle accessor:\n%s", out)
	}
	if !strings.Contains(out, "debug_assert_eq!(self.variant(), variant_Shape::Circle)") {
		t.Errorf("Assemble() accessors missing variant assertion:\n%s", out)
	}
	if !strings.Contains(out, "pub fn into_Empty(self) {}") {
		t.Errorf("Assemble() missing no-op into_Empty for payload-free tag:\n%s", out)
	}
	if !strings.Contains(out, "pub unsafe fn as_Empty(&self) {}") {
		t.Errorf("Assemble() missing no-op as_Empty for payload-free tag:\n%s", out)
	}
}

func TestTagUnionTransparentWrapperPayloadIsHidden(t *testing.T) {
	store := decls.New()
	ts := types.New(target.X86_64)

	i64 := ts.Add(types.I64)
	wrapperId := ts.Add(types.TransparentWrapper{Name: "UserId", Content: i64})

	union := ts.Add(types.NonRecursiveUnion{
		Name:               "Event",
		Tags:               []types.Tag{{Name: "Joined", Payload: &wrapperId}},
		TotalSize:          16,
		Align:              8,
		DiscriminantOffset: 8,
	})

	Type(store, target.X86_64, union, ts)
	out := Assemble(store)

	if !strings.Contains(out, "pub fn Joined(payload: i64) -> Self") {
		t.Errorf("Assemble() constructor did not hide the TransparentWrapper, expected the content type i64:\n%s", out)
	}
	if !strings.Contains(out, "let payload: UserId = UserId(payload);") {
		t.Errorf("Assemble() constructor did not wrap the argument back into UserId:\n%s", out)
	}
	if !strings.Contains(out, "pub unsafe fn into_Joined(self) -> i64") {
		t.Errorf("Assemble() into_Joined should return the wrapper's content type i64:\n%s", out)
	}
	if !strings.Contains(out, "pub unsafe fn as_Joined(&self) -> &i64") {
		t.Errorf("Assemble() as_Joined should return a reference to the wrapper's content type i64:\n%s", out)
	}
}

func TestNullableUnwrappedRefcountABI(t *testing.T) {
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

	if !strings.Contains(out, "crate::roc_alloc(size, payload_align as u32)") {
		t.Errorf("Assemble() constructor did not allocate through roc_alloc:\n%s", out)
	}
	if !strings.Contains(out, "roc_std::Storage::new_reference_counted()") {
		t.Errorf("Assemble() constructor did not initialise a reference-counted Storage cell:\n%s", out)
	}
	if strings.Contains(out, "alloc::boxed::Box") {
		t.Errorf("Assemble() should not allocate NullableUnwrapped payloads through Box:\n%s", out)
	}
	if !strings.Contains(out, "impl Clone for LinkedList") || !strings.Contains(out, "increment_reference_count()") {
		t.Errorf("Assemble() missing refcount-bumping Clone impl:\n%s", out)
	}
	if !strings.Contains(out, "impl Drop for LinkedList") || !strings.Contains(out, "new_storage.decrease()") {
		t.Errorf("Assemble() missing refcount-decrementing Drop impl:\n%s", out)
	}
	if !strings.Contains(out, "impl core::fmt::Debug for LinkedList") {
		t.Errorf("Assemble() missing Debug impl for NullableUnwrapped:\n%s", out)
	}
	if !strings.Contains(out, "core::mem::forget(self)") {
		t.Errorf("Assemble() into_Cons should forget self rather than letting Drop run a second time:\n%s", out)
	}
}
