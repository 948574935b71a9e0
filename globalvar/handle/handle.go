package handle

import (
	"sync"
	"unsafe"
)

// Handle is an opaque capability identifying one allocation: conceptually
// the address of its heap cell. It carries no type information; the caller
// supplies the type at every access. The zero Handle identifies nothing and
// must not be dereferenced.
//
// Handles are freely copyable values; all copies refer to the same cell.
type Handle struct {
	p unsafe.Pointer
}

// pins keeps every live allocation reachable for the garbage collector until
// Free. Go has no Box::leak, so without a strong reference here the runtime
// would be free to reclaim a cell whose only record is the caller's Handle
// copies.
//
// The pin set is not a registry: it stores no type information, answers no
// lookups, and is touched only by New, Free and Live — never by the access
// path.
//
//nolint:gochecknoglobals // package-level pin set is the allocation record.
var pins = struct {
	mu  sync.Mutex
	set map[unsafe.Pointer]struct{}
}{
	set: make(map[unsafe.Pointer]struct{}),
}

// New moves value into a fresh heap cell, pins the cell, and returns its
// handle. It never fails under normal memory availability.
func New[T any](value T) Handle {
	cell := new(T)
	*cell = value

	p := unsafe.Pointer(cell)

	pins.mu.Lock()
	pins.set[p] = struct{}{}
	pins.mu.Unlock()

	return Handle{p: p}
}

// Value returns a copy of the cell's contents read as a T.
//
// Undefined behavior if T differs from the allocation type or h is zero,
// freed, or otherwise stale.
func Value[T any](h Handle) T {
	return *(*T)(h.p)
}

// Deref returns a pointer to the cell read as a *T; the caller may mutate
// through it. No lock is taken and no validation is performed.
//
// Undefined behavior if T differs from the allocation type or h is zero,
// freed, or otherwise stale. The caller is solely responsible for
// synchronizing concurrent access to the same handle.
func Deref[T any](h Handle) *T {
	return (*T)(h.p)
}

// Free unpins the cell so the collector can reclaim it. Must be called
// exactly once per handle; the handle (and every copy of it) must not be
// used again afterward. Double free and use-after-free are undefined
// behavior.
func Free(h Handle) {
	pins.mu.Lock()
	delete(pins.set, h.p)
	pins.mu.Unlock()
}

// Live returns the number of currently pinned allocations. It is a
// diagnostic for leak checks in tests and reveals nothing about individual
// handles.
func Live() int {
	pins.mu.Lock()
	defer pins.mu.Unlock()

	return len(pins.set)
}
