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

// variantDocComment precedes every variant() accessor; it's worth
// spelling out because the accessor's name invites the assumption that
// it also recovers the payload, which it never does.
const variantDocComment = "/// Returns which variant this tag union holds. Note that this never includes a payload!"

// NonRecursiveUnion lowers a tag union none of whose payloads refer back
// to it into a raw Rust union plus a handwritten impl. Rust can't derive
// anything for a union (it has no way to know which variant is active),
// so every trait this type gets comes from a method written out here
// instead of a #[derive(...)] line.
func NonRecursiveUnion(store *decls.Store, arch target.Arch, id types.TypeId, u types.NonRecursiveUnion, ts *types.Types) {
	discriminantName := Discriminant(store, arch, u.Name, tagNames(u.Tags), ts)

	emitUnionStorage(store, arch, u.Name, u.Tags, u.TotalSize, ts)

	implName := "impl " + u.Name

	store.Add(implName, arch, fmt.Sprintf(
		`%s
    pub fn variant(&self) -> %s {
        unsafe {
            let bytes = core::mem::transmute::<&Self, &[u8; core::mem::size_of::<Self>()]>(self);
            core::mem::transmute::<u8, %s>(*bytes.as_ptr().add(%d))
        }
    }`,
		variantDocComment, discriminantName, discriminantName, u.DiscriminantOffset,
	))

	store.Add(implName, arch, fmt.Sprintf(
		`fn set_discriminant(&mut self, discriminant: %s) {
        let discriminant_ptr: *mut %s = (self as *mut %s).cast();
        unsafe {
            *(discriminant_ptr.add(%d)) = discriminant;
        }
    }`,
		discriminantName, discriminantName, u.Name, u.DiscriminantOffset,
	))

	emitTagConstructors(store, arch, implName, u.Name, discriminantName, u.Tags, ts)
	emitTagUnionTraitImpls(store, arch, id, u.Name, discriminantName, u.Tags, ts)
	emitTagUnionDebugImpl(store, arch, u.Name, discriminantName, u.Tags, ts)
}

// RecursiveUnion lowers a tag union with at least one self-referential
// payload into a raw Rust union whose discriminant lives in the spare
// low bits of the recursive pointer field (see target.SpareTagBits),
// rather than at a byte offset: a recursive payload's size is the
// pointer's size, leaving no room for a separate discriminant byte.
func RecursiveUnion(store *decls.Store, arch target.Arch, id types.TypeId, u types.RecursiveUnion, ts *types.Types) {
	discriminantName := Discriminant(store, arch, u.Name, tagNames(u.Tags), ts)

	emitUnionStorage(store, arch, u.Name, u.Tags, u.TotalSize, ts)

	tagName, field, ok := u.RecursivePointerField(ts, id)
	if !ok {
		panic(fmt.Sprintf("recursive tag union %s has no payload field pointing back to itself", u.Name))
	}

	if len(u.Tags) > arch.MaxPointerTaggedVariants() {
		panic(fmt.Sprintf("recursive tag union %s has %d tags, too many for pointer tagging on %s", u.Name, len(u.Tags), arch))
	}

	recursivePointerField := tagName + "." + field
	bitmask := fmt.Sprintf("0b%07b", arch.TagBitmask())
	implName := "impl " + u.Name

	store.Add(implName, arch, fmt.Sprintf(
		`%s
    pub fn variant(&self) -> %s {
        // The discriminant is stored in the unused low bits of the recursive pointer.
        unsafe { core::mem::transmute::<u8, %s>((self.%s as u8) & %s) }
    }`,
		variantDocComment, discriminantName, discriminantName, recursivePointerField, bitmask,
	))

	store.Add(implName, arch, fmt.Sprintf(
		`fn set_discriminant(&mut self, discriminant: %s) {
        unsafe {
            let untagged = (self.%s as usize) & (!%s as usize);
            let tagged = untagged | (discriminant as usize);
            self.%s = tagged as *mut Self;
        }
    }`,
		discriminantName, recursivePointerField, bitmask, recursivePointerField,
	))

	emitTagConstructors(store, arch, implName, u.Name, discriminantName, u.Tags, ts)
	emitTagUnionTraitImpls(store, arch, id, u.Name, discriminantName, u.Tags, ts)
	emitTagUnionDebugImpl(store, arch, u.Name, discriminantName, u.Tags, ts)
}

// emitUnionStorage declares the raw `union Name { tag: Payload, ... }`
// backing any non-nullable tag union shape. A payload that itself
// contains a pointer is wrapped in ManuallyDrop, since Rust's union
// mechanics can't run a payload's destructor automatically (the union
// doesn't statically know which field is live); the manual wrapping
// forces the generated accessors to take that responsibility instead.
// A trailing _sizer field pads the union out to the layout oracle's
// reported size, in case the largest payload alone would leave Rust
// room to pack the discriminant where the oracle has placed other data.
func emitUnionStorage(store *decls.Store, arch target.Arch, name string, tags []types.Tag, size int, ts *types.Types) {
	var buf strings.Builder
	fmt.Fprintf(&buf, "#[repr(C)]\npub union %s {\n", name)

	for _, tag := range tags {
		if tag.Payload == nil {
			continue
		}

		payloadName := TypeName(*tag.Payload, ts)
		if ts.HasPointer(*tag.Payload) {
			fmt.Fprintf(&buf, "    %s: core::mem::ManuallyDrop<%s>,\n", tag.Name, payloadName)
		} else {
			fmt.Fprintf(&buf, "    %s: %s,\n", tag.Name, payloadName)
		}
	}

	fmt.Fprintf(&buf, "    _sizer: [u8; %d],\n}", size)

	store.Add(topLevelScope, arch, buf.String())
}

// emitTagConstructors adds, for every tag, a constructor, an
// into_TagName consuming accessor and an as_TagName borrowing accessor
// to the union's impl (§4.7).
//
// A payload-free tag's constructor takes no arguments, and its
// into_/as_ accessors take no action; they exist only so that generic
// code iterating every tag's accessors doesn't need a special case for
// the payload-free ones. A payload-bearing tag's constructor and
// accessors are shaped by planPayload: a multi-field struct payload is
// flattened into one argument per field (ordered by the field label's
// numeric suffix), and a TransparentWrapper payload is hidden behind
// its content type.
func emitTagConstructors(store *decls.Store, arch target.Arch, implName, unionName, discriminantName string, tags []types.Tag, ts *types.Types) {
	for _, tag := range tags {
		if tag.Payload == nil {
			store.Add(implName, arch, fmt.Sprintf(
				`pub fn %s() -> Self {
        let mut out: core::mem::MaybeUninit<Self> = core::mem::MaybeUninit::uninit();
        unsafe {
            let ptr = out.as_mut_ptr();
            (*ptr).set_discriminant(%s::%s);
            out.assume_init()
        }
    }`,
				tag.Name, discriminantName, tag.Name,
			))

			store.Add(implName, arch, fmt.Sprintf(
				"/// Other `into_` methods return a payload, but since the %s tag\n"+
					"    /// has no payload, this does nothing and is only here for completeness.\n"+
					"    pub fn into_%s(self) {}",
				tag.Name, tag.Name,
			))

			store.Add(implName, arch, fmt.Sprintf(
				"/// Other `as` methods return a payload, but since the %s tag\n"+
					"    /// has no payload, this does nothing and is only here for completeness.\n"+
					"    pub unsafe fn as_%s(&self) {}",
				tag.Name, tag.Name,
			))
			continue
		}

		plan := planPayload(arch, *tag.Payload, ts)
		hasPointer := ts.HasPointer(*tag.Payload)

		args := make([]string, len(plan.Params))
		for i, p := range plan.Params {
			args[i] = fmt.Sprintf("%s: %s", p.Name, p.Type)
		}

		storeExpr := "payload"
		if hasPointer {
			storeExpr = "core::mem::ManuallyDrop::new(payload)"
		}

		store.Add(implName, arch, fmt.Sprintf(
			`pub fn %s(%s) -> Self {
        let payload: %s = %s;
        let mut out = Self { %s: %s };
        out.set_discriminant(%s::%s);
        out
    }`,
			tag.Name, strings.Join(args, ", "), plan.StorageType, plan.ConstructExpr, tag.Name, storeExpr, discriminantName, tag.Name,
		))

		getPayload := fmt.Sprintf("self.%s", tag.Name)
		selfParam := "self"
		if hasPointer {
			getPayload = fmt.Sprintf("core::mem::ManuallyDrop::take(&mut self.%s)", tag.Name)
			selfParam = "mut self"
		}

		store.Add(implName, arch, fmt.Sprintf(
			`/// Unsafely assume the given %s has a .variant() of %s and convert it to %s's payload.
    /// (Always examine .variant() first to make sure this is the correct variant!)
    /// Panics in debug builds if the .variant() doesn't return %s.
    pub unsafe fn into_%s(%s) -> %s {
        debug_assert_eq!(self.variant(), %s::%s);

        let payload = %s;

        %s
    }`,
			unionName, tag.Name, unionName, tag.Name, tag.Name, selfParam, plan.OwnedRetType, discriminantName, tag.Name, getPayload, plan.OwnedRet,
		))

		store.Add(implName, arch, fmt.Sprintf(
			`/// Unsafely assume the given %s has a .variant() of %s and return its payload.
    /// (Always examine .variant() first to make sure this is the correct variant!)
    /// Panics in debug builds if the .variant() doesn't return %s.
    pub unsafe fn as_%s(&self) -> %s {
        debug_assert_eq!(self.variant(), %s::%s);

        let payload = &self.%s;

        %s
    }`,
			unionName, tag.Name, tag.Name, tag.Name, plan.BorrowedRetType, discriminantName, tag.Name, tag.Name, plan.BorrowedRet,
		))
	}
}

func tagNames(tags []types.Tag) []string {
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}

	return names
}

// NullableUnwrapped lowers a two-tag union, one of whose tags is
// represented entirely by a null pointer, into an opaque one-word struct
// with no discriminant byte at all: the pointer's nullness *is* the
// discriminant.
//
// The non-null tag's payload is heap-allocated through the same
// allocator and refcounting convention every other reference-counted
// roc_std container uses (§6): crate::roc_alloc reserves room for a
// roc_std::Storage refcount cell immediately before the payload, and
// crate::roc_dealloc releases it once the count drops to zero. This is
// what lets a value built by the host's allocator be shared (cloned
// cheaply by bumping the count) and freed (by the side that drops the
// last reference) across the FFI boundary, rather than silently
// assuming whoever holds the pointer owns an exclusive, Box-allocated
// copy.
func NullableUnwrapped(store *decls.Store, arch target.Arch, id types.TypeId, u types.NullableUnwrappedUnion, ts *types.Types) {
	discriminantName := Discriminant(store, arch, u.Name, u.SortedTagNames(), ts)
	payloadName := TypeName(u.NonNullPayload, ts)

	// selfAlign (the width of the pointer field itself) is where the
	// payload is placed, leaving exactly that much room before it for
	// the refcount; it's also the offset used to locate the start of the
	// allocation later. The allocation is freed with the payload's
	// alignment, the same alignment it was requested with.
	selfAlign := arch.PointerWidth()

	deriveExtras := ""
	if !ts.HasFloat(id) {
		deriveExtras = ", Eq, Ord, Hash"
	}

	store.Add(topLevelScope, arch, fmt.Sprintf(
		`#[repr(C)]
#[derive(PartialEq, PartialOrd%s)]
pub struct %s {
    pointer: *mut core::mem::ManuallyDrop<%s>,
}`,
		deriveExtras, u.Name, payloadName,
	))

	implName := "impl " + u.Name

	store.Add(implName, arch, fmt.Sprintf(
		`%s
    pub fn variant(&self) -> %s {
        if self.pointer.is_null() {
            %s::%s
        } else {
            %s::%s
        }
    }`,
		variantDocComment, discriminantName, discriminantName, u.NullTag, discriminantName, u.NonNullTag,
	))

	store.Add(implName, arch, fmt.Sprintf(
		`pub fn %s() -> Self {
        Self { pointer: core::ptr::null_mut() }
    }`,
		u.NullTag,
	))

	store.Add(implName, arch, fmt.Sprintf(
		"/// Other `into_` methods return a payload, but since the %s tag\n"+
			"    /// has no payload, this does nothing and is only here for completeness.\n"+
			"    pub fn into_%s(self) {}",
		u.NullTag, u.NullTag,
	))

	store.Add(implName, arch, fmt.Sprintf(
		"/// Other `as` methods return a payload, but since the %s tag\n"+
			"    /// has no payload, this does nothing and is only here for completeness.\n"+
			"    pub unsafe fn as_%s(&self) {}",
		u.NullTag, u.NullTag,
	))

	store.Add(implName, arch, fmt.Sprintf(
		`/// Construct a tag named %s, with the appropriate payload
    pub fn %s(payload: %s) -> Self {
        let payload_align = core::mem::align_of::<%s>();
        let self_align = %d;
        let size = self_align + core::mem::size_of::<%s>();

        unsafe {
            // Store the payload at self_align bytes after the allocation,
            // to leave room for the refcount.
            let alloc_ptr = crate::roc_alloc(size, payload_align as u32);
            let payload_ptr = alloc_ptr
                .cast::<u8>()
                .add(self_align)
                .cast::<core::mem::ManuallyDrop<%s>>();

            *payload_ptr = core::mem::ManuallyDrop::new(payload);

            // The reference count is stored immediately before the payload,
            // which isn't necessarily the same as alloc_ptr - e.g. when
            // alloc_ptr needs an alignment of 16.
            let storage_ptr = payload_ptr.cast::<roc_std::Storage>().sub(1);
            storage_ptr.write(roc_std::Storage::new_reference_counted());

            Self { pointer: payload_ptr }
        }
    }`,
		u.NonNullTag, u.NonNullTag, payloadName, payloadName, selfAlign, payloadName, payloadName,
	))

	store.Add(implName, arch, fmt.Sprintf(
		`fn storage(&self) -> Option<&core::cell::Cell<roc_std::Storage>> {
        if self.pointer.is_null() {
            None
        } else {
            unsafe { Some(&*self.pointer.cast::<core::cell::Cell<roc_std::Storage>>().sub(1)) }
        }
    }`,
	))

	store.Add(implName, arch, fmt.Sprintf(
		`/// Unsafely assume the given %s has a .variant() of %s and convert it to %s's payload.
    /// (Always examine .variant() first to make sure this is the correct variant!)
    /// Panics in debug builds if the .variant() doesn't return %s.
    pub unsafe fn into_%s(self) -> %s {
        debug_assert_eq!(self.variant(), %s::%s);

        let payload = core::mem::ManuallyDrop::take(&mut *self.pointer);
        let alloc_ptr = self.pointer.cast::<u8>().sub(%d);
        crate::roc_dealloc(alloc_ptr as *mut core::ffi::c_void, core::mem::align_of::<%s>() as u32);
        core::mem::forget(self);

        payload
    }`,
		u.Name, u.NonNullTag, u.NonNullTag, u.NonNullTag, u.NonNullTag, payloadName, discriminantName, u.NonNullTag, selfAlign, payloadName,
	))

	store.Add(implName, arch, fmt.Sprintf(
		`/// Unsafely assume the given %s has a .variant() of %s and return its payload.
    /// (Always examine .variant() first to make sure this is the correct variant!)
    /// Panics in debug builds if the .variant() doesn't return %s.
    pub unsafe fn as_%s(&self) -> &%s {
        debug_assert_eq!(self.variant(), %s::%s);
        &*self.pointer
    }`,
		u.Name, u.NonNullTag, u.NonNullTag, u.NonNullTag, payloadName, discriminantName, u.NonNullTag,
	))

	store.Add("impl Clone for "+u.Name, arch,
		`fn clone(&self) -> Self {
        if let Some(storage) = self.storage() {
            let mut new_storage = storage.get();
            if !new_storage.is_readonly() {
                new_storage.increment_reference_count();
                storage.set(new_storage);
            }
        }

        Self { pointer: self.pointer }
    }`,
	)

	store.Add("impl Drop for "+u.Name, arch, fmt.Sprintf(
		`fn drop(&mut self) {
        if let Some(storage) = self.storage() {
            {
                let mut new_storage = storage.get();

                if new_storage.is_readonly() {
                    return;
                }

                let needs_dealloc = new_storage.decrease();
                if !needs_dealloc {
                    storage.set(new_storage);
                    return;
                }
            }

            if !self.pointer.is_null() {
                let payload = unsafe { core::mem::ManuallyDrop::take(&mut *self.pointer) };
                core::mem::drop::<%s>(payload);
            }

            unsafe {
                let alloc_ptr = self.pointer.cast::<u8>().sub(%d);
                crate::roc_dealloc(alloc_ptr as *mut core::ffi::c_void, core::mem::align_of::<%s>() as u32);
            }
        }
    }`,
		payloadName, selfAlign, payloadName,
	))

	store.Add("impl core::fmt::Debug for "+u.Name, arch, fmt.Sprintf(
		`fn fmt(&self, f: &mut core::fmt::Formatter<'_>) -> core::fmt::Result {
        if self.pointer.is_null() {
            return f.write_str("%s::%s");
        }

        unsafe { f.debug_tuple("%s::%s").field(&*self.pointer).finish() }
    }`,
		u.Name, u.NullTag, u.Name, u.NonNullTag,
	))
}
