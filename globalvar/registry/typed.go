package registry

import "reflect"

// The typed accessors recover compile-time type information from type-erased
// slots. Every one of them compares the slot's stored token against
// reflect.TypeFor[T]() before any cast, so a wrong T is a recoverable
// ErrTypeMismatch, never a mis-typed view.
//
// Accessors come in mirrored pairs: the ...In form targets an explicit
// registry, the short form targets the process-wide Default() registry
// (see global.go), in the spirit of slog's package-level functions.

// InitIn inserts value under key in r.
//
// Fails with ErrKeyExists if key is already occupied; the original value
// stays retrievable unchanged.
func InitIn[T any](r *Registry, key string, value T) error {
	cell := new(T)
	*cell = value

	return r.insert(key, cell, reflect.TypeFor[T]())
}

// FetchIn returns a copy of the value stored under key in r.
//
// A copy, not a reference: handing out a long-lived pointer from behind a
// briefly-held lock would let two goroutines mutate the same slot while each
// believes itself exclusive. Callers that need in-place access use ViewIn or
// UpdateIn, whose locks span the whole access.
//
// Fails with ErrKeyNotFound if key is absent and ErrTypeMismatch if the slot
// holds a different type.
func FetchIn[T any](r *Registry, key string) (T, error) {
	var zero T

	sh := r.shardFor(key)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	s, ok := sh.slots[key]
	if !ok {
		return zero, keyNotFoundError(key)
	}

	if want := reflect.TypeFor[T](); s.typ != want {
		return zero, typeMismatchError(key, s.typ, want)
	}

	return *(s.cell.(*T)), nil
}

// ViewIn invokes fn with a pointer to the value stored under key in r,
// holding the shard's read lock for the entire duration of fn.
//
// The pointer is valid only inside fn and must not escape it. fn must treat
// the value as read-only: other readers may run concurrently under the same
// read lock. Use UpdateIn to mutate.
//
// Fails with ErrKeyNotFound / ErrTypeMismatch before fn is invoked; any
// error returned by fn is passed through unchanged.
func ViewIn[T any](r *Registry, key string, fn func(value *T) error) error {
	sh := r.shardFor(key)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	s, ok := sh.slots[key]
	if !ok {
		return keyNotFoundError(key)
	}

	if want := reflect.TypeFor[T](); s.typ != want {
		return typeMismatchError(key, s.typ, want)
	}

	return fn(s.cell.(*T))
}

// UpdateIn invokes fn with a pointer to the value stored under key in r,
// holding the shard's write lock for the entire duration of fn.
//
// Because the lock spans the callback, concurrent UpdateIn calls against the
// same key serialize and read-modify-write sequences inside fn are atomic
// with respect to every other registry operation on that shard. The pointer
// is valid only inside fn and must not escape it.
//
// Fails with ErrKeyNotFound / ErrTypeMismatch before fn is invoked; any
// error returned by fn is passed through unchanged (the mutation fn already
// applied is not rolled back).
func UpdateIn[T any](r *Registry, key string, fn func(value *T) error) error {
	sh := r.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	s, ok := sh.slots[key]
	if !ok {
		return keyNotFoundError(key)
	}

	if want := reflect.TypeFor[T](); s.typ != want {
		return typeMismatchError(key, s.typ, want)
	}

	return fn(s.cell.(*T))
}

// DropIn removes the slot under key in r after verifying it holds a T.
//
// Fails with ErrKeyNotFound if key is absent and ErrTypeMismatch if the slot
// holds a different type; a rejected removal leaves the slot live and
// unchanged, preventing a caller from tearing down state it does not
// actually own.
func DropIn[T any](r *Registry, key string) error {
	sh := r.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	s, ok := sh.slots[key]
	if !ok {
		return keyNotFoundError(key)
	}

	if want := reflect.TypeFor[T](); s.typ != want {
		return typeMismatchError(key, s.typ, want)
	}

	delete(sh.slots, key)

	return nil
}
