// Package view reinterprets raw byte buffers as typed slices without
// copying.
//
// The sparse wire format is a sequence of native-layout (index, value)
// pairs, so encode and decode operate directly on the caller's buffers
// the way the synchronization engine hands them over: as untyped bytes.
// Callers must ensure the buffer base is aligned for T; buffers from
// make([]byte, n) satisfy this for every supported element type.
package view

import "unsafe"

// Of reinterprets b as a slice of T, truncating any trailing bytes that
// do not fill a whole element.
func Of[T any](b []byte) []T {
	if len(b) == 0 {
		return nil
	}
	n := len(b) / int(unsafe.Sizeof(*new(T)))

	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}

// SameBase reports whether two buffers start at the same address.
//
// This is the aliasing test for in-place decoding: a compressed payload
// handed back in the front of the buffer it will be decoded into shares
// its base pointer with the destination.
func SameBase(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}

	return &a[0] == &b[0]
}
