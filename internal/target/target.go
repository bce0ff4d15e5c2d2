// Copyright 2024 The Glue Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

// Package target describes the CPU architectures the generator can emit
// code for, and the pointer-tagging parameters that follow from each
// architecture's pointer width.
package target

import "fmt"

// Arch identifies one of the CPU architectures the generator can target.
//
// Equal TypeIds in two different architectures' type registries refer to
// the same logical type, but Arch determines the pointer width (and hence
// the size, alignment and pointer-tagging budget) used to lower it.
type Arch uint8

const (
	// InvalidArch is the zero value, used to detect an Arch that was never
	// set.
	InvalidArch Arch = iota
	X86_64
	X86_32
	Aarch64
	Aarch32
	Wasm32
)

// All lists every architecture the generator recognises. Gate
// disjunctions do not use this order; they list architectures in the
// order the caller supplied them.
var All = []Arch{X86_64, X86_32, Aarch64, Aarch32, Wasm32}

// String returns the canonical spelling of the architecture used in the
// emitted architecture gates (e.g. `target_arch = "x86_64"`).
func (a Arch) String() string {
	names := map[Arch]string{
		X86_64:  "x86_64",
		X86_32:  "x86",
		Aarch64: "aarch64",
		Aarch32: "arm",
		Wasm32:  "wasm32",
	}

	s, ok := names[a]
	if !ok {
		panic(fmt.Sprintf("unrecognised architecture %d", a))
	}

	return s
}

// PointerWidth returns the width in bytes of a pointer on the architecture:
// 8 on the 64-bit architectures, 4 on the 32-bit ones.
func (a Arch) PointerWidth() int {
	switch a {
	case X86_64, Aarch64:
		return 8
	case X86_32, Aarch32, Wasm32:
		return 4
	default:
		panic(fmt.Sprintf("unrecognised architecture %d", a))
	}
}

// Is64Bit reports whether the architecture uses 64-bit pointers.
func (a Arch) Is64Bit() bool {
	return a.PointerWidth() == 8
}

// SpareTagBits returns the number of low bits of an aligned pointer that
// are guaranteed to be zero, and therefore available to store a
// recursive tag union's discriminant: 3 on 64-bit architectures, 2 on
// 32-bit ones.
func (a Arch) SpareTagBits() int {
	if a.Is64Bit() {
		return 3
	}

	return 2
}

// TagBitmask returns the bitmask covering SpareTagBits low bits of a
// pointer, e.g. 0b0000_0111 on a 64-bit architecture.
func (a Arch) TagBitmask() uint8 {
	return uint8(1<<a.SpareTagBits()) - 1
}

// MaxPointerTaggedVariants returns the largest number of tags a recursive
// tag union can have on this architecture while still fitting its
// discriminant into the spare bits of a tagged pointer.
func (a Arch) MaxPointerTaggedVariants() int {
	return 1 << a.SpareTagBits()
}
