// Package hash derives stable 64-bit identifiers for tensor slots.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given tensor name.
//
// The outer synchronization engine keys per-tensor compressor slots by
// this ID; callers must keep the name around to disambiguate the rare
// collision.
func ID(name string) uint64 {
	return xxhash.Sum64String(name)
}
