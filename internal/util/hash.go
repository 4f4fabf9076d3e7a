// Package util contains internal helpers (hashing, padding).
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import (
	"github.com/cespare/xxhash/v2"
)

// FaceHash computes the structural hash of a face identifier.
// xxhash is used rather than FNV: face IDs are often long, similar path
// strings ("/usr/share/fonts/...-Regular.ttf" vs "...-Bold.ttf") and the
// stronger avalanche keeps sibling faces from clustering in the node table.
func FaceHash(id string) uint64 {
	return xxhash.Sum64String(id)
}
