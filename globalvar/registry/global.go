package registry

import "sync"

// The process-wide default registry is created lazily on first use and is
// never torn down; it exists so arbitrary call sites can share state without
// threading a *Registry through the program. Teardown at process exit is an
// accepted resource-lifetime simplification for small, bounded global state.
//
//nolint:gochecknoglobals // the process-wide registry is the point of this package.
var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry, creating it on first call.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewDefaultRegistry()
	})

	return defaultRegistry
}

// Init inserts value under key in the default registry.
// See InitIn for semantics.
func Init[T any](key string, value T) error {
	return InitIn(Default(), key, value)
}

// Fetch returns a copy of the value stored under key in the default registry.
// See FetchIn for semantics.
func Fetch[T any](key string) (T, error) {
	return FetchIn[T](Default(), key)
}

// View invokes fn with read-only access to the value stored under key in the
// default registry. See ViewIn for semantics.
func View[T any](key string, fn func(value *T) error) error {
	return ViewIn(Default(), key, fn)
}

// Update invokes fn with exclusive access to the value stored under key in
// the default registry. See UpdateIn for semantics.
func Update[T any](key string, fn func(value *T) error) error {
	return UpdateIn(Default(), key, fn)
}

// Drop removes the slot under key in the default registry after verifying it
// holds a T. See DropIn for semantics.
func Drop[T any](key string) error {
	return DropIn[T](Default(), key)
}
