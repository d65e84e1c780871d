// Package ir provides the canonical serialized form of bit heaps and
// reduction plans, the content-addressed identities derived from it, and the
// record types persisted by the store.
//
// This package imports nothing internal. Key design constraints:
//   - NO float types in canonical JSON: timing offsets are carried as integer
//     picoseconds
//   - All JSON tags use snake_case
//   - Identity hashes are SHA-256 with a versioned domain prefix
package ir
