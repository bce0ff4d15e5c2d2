// Copyright 2024 The Glue Authors.
//
// Use of this source code is governed by a BSD 3-clause
// license that can be found in the LICENSE file.

package types

import (
	"fmt"

	"github.com/ProjectSerenity/glue/internal/target"
)

// Types is a content-addressable, per-architecture collection of type
// descriptors. It is constructed once (by whatever built the type graph
// for Arch) and is read-only from this point on.
type Types struct {
	Arch target.Arch

	order []TypeId
	byID  map[TypeId]Type
	next  TypeId
}

// New returns an empty registry for the given architecture.
func New(arch target.Arch) *Types {
	return &Types{
		Arch: arch,
		byID: make(map[TypeId]Type),
		next: 1,
	}
}

// Add registers t under a freshly allocated TypeId and returns it.
//
// Constructing several per-architecture registries for the same logical
// set of types by calling Add in the same order on each gives matching
// types matching TypeIds, as required by the "same type logically" rule
// in the data model.
func (ts *Types) Add(t Type) TypeId {
	id := ts.next
	ts.next++

	ts.Insert(id, t)

	return id
}

// Insert registers t under an explicit id. It panics if id is already in
// use, since the registry is meant to be built up monotonically by its
// owner.
func (ts *Types) Insert(id TypeId, t Type) {
	if _, exists := ts.byID[id]; exists {
		panic(fmt.Sprintf("type id %d inserted twice", id))
	}

	if id >= ts.next {
		ts.next = id + 1
	}

	ts.order = append(ts.order, id)
	ts.byID[id] = t
}

// Get returns the type registered under id. It panics if id is unknown,
// which is a caller-contract violation: every TypeId that appears
// anywhere in the graph must have been registered.
func (ts *Types) Get(id TypeId) Type {
	t, ok := ts.byID[id]
	if !ok {
		panic(fmt.Sprintf("unknown type id %d", id))
	}

	return t
}

// Len returns the number of types registered.
func (ts *Types) Len() int {
	return len(ts.order)
}

// dependencies returns the TypeIds that must be declared before id can be
// referenced by name, in the order they should be visited. Recursive
// fields are excluded, since they are emitted as raw pointers and need no
// prior declaration of their target.
func (ts *Types) dependencies(id TypeId) []TypeId {
	switch t := ts.Get(id).(type) {
	case Struct:
		var deps []TypeId
		for _, field := range t.Fields {
			if !field.Recursive {
				deps = append(deps, field.Type)
			}
		}
		return deps
	case TransparentWrapper:
		return []TypeId{t.Content}
	case List:
		return []TypeId{t.Elem}
	case Set:
		return []TypeId{t.Elem}
	case Box:
		return []TypeId{t.Elem}
	case Dict:
		return []TypeId{t.Key, t.Value}
	case NonRecursiveUnion:
		return tagDeps(t.Tags)
	case RecursiveUnion:
		return tagDeps(t.Tags)
	case NullableUnwrappedUnion:
		return []TypeId{t.NonNullPayload}
	default:
		// Primitives, enumerations and the two unimplemented union
		// shapes have no dependencies of their own.
		return nil
	}
}

func tagDeps(tags []Tag) []TypeId {
	var deps []TypeId
	for _, tag := range tags {
		if tag.Payload != nil {
			deps = append(deps, *tag.Payload)
		}
	}
	return deps
}

// SortedIDs returns every registered TypeId in dependency order:
// dependencies appear before the types that reference them, and among
// types with no ordering constraint between them, the order in which
// they were first inserted is preserved. This is the traversal order the
// emitter walks when lowering a registry (§6).
func (ts *Types) SortedIDs() []TypeId {
	visited := make(map[TypeId]bool, len(ts.order))
	order := make([]TypeId, 0, len(ts.order))

	var visit func(id TypeId)
	visit = func(id TypeId) {
		if visited[id] {
			return
		}
		visited[id] = true

		for _, dep := range ts.dependencies(id) {
			visit(dep)
		}

		order = append(order, id)
	}

	for _, id := range ts.order {
		visit(id)
	}

	return order
}
