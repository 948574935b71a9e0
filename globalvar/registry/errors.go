package registry

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrKeyNotFound is returned when an operation references a key with no live slot.
	ErrKeyNotFound = errors.New("key not found")
	// ErrKeyExists is returned when Init targets a key that already has a live slot.
	ErrKeyExists = errors.New("key already exists")
	// ErrTypeMismatch is returned when the stored type token differs from the
	// type requested by the caller. The operation is rejected; the slot is
	// left live and unchanged.
	ErrTypeMismatch = errors.New("stored type does not match requested type")
	// ErrNilValue is returned by SetValue when given a nil value: there is no
	// dynamic type to capture, so the slot could never be fetched back.
	ErrNilValue = errors.New("nil value cannot be stored")
)

// keyNotFoundError wraps ErrKeyNotFound with the offending key.
func keyNotFoundError(key string) error {
	return fmt.Errorf("%w: %q", ErrKeyNotFound, key)
}

// keyExistsError wraps ErrKeyExists with the offending key.
func keyExistsError(key string) error {
	return fmt.Errorf("%w: %q", ErrKeyExists, key)
}

// typeMismatchError wraps ErrTypeMismatch naming both the stored and the
// requested type, so callers can tell which side is wrong.
func typeMismatchError(key string, stored, requested reflect.Type) error {
	return fmt.Errorf("%w: key %q holds %s, requested %s", ErrTypeMismatch, key, stored, requested)
}
