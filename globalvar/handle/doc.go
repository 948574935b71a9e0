// Package handle provides minimal-overhead, caller-managed storage for
// single values: allocate a heap cell, access it through an opaque Handle,
// free it explicitly.
//
// There is no registry, no type tag and no locking on the access path; the
// Handle is the sole record of the allocation's existence. That makes the
// contract strictly weaker than package registry's:
//
//   - Every access and the eventual Free must use the same concrete type
//     that was used at allocation. The package stores no type information
//     and cannot detect a wrong type parameter; the result is undefined
//     behavior, not a reported error.
//   - A Handle must be freed exactly once and never used afterward.
//   - The package performs zero synchronization. Concurrent access to the
//     same handle requires external synchronization by the caller.
//
// These constraints are the point: this is the "you asked for speed, you own
// the consequences" counterpart to the keyed registry, and the absence of
// runtime verification is intentional.
package handle
