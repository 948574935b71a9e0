package globalvar

import (
	"errors"

	"github.com/grafana/sobek"

	"github.com/itcraft-cn/globalvar/globalvar/registry"
)

var _ error = (*Error)(nil)

// ErrorName represents the name of an error.
type ErrorName string

const (
	// KeyNotFoundError is emitted when an operation references a key with no
	// live entry.
	KeyNotFoundError ErrorName = "KeyNotFoundError"

	// KeyAlreadyExistsError is emitted when init() targets a key that is
	// already occupied.
	KeyAlreadyExistsError ErrorName = "KeyAlreadyExistsError"

	// TypeMismatchError is emitted when the stored value's type token differs
	// from the type requested by the caller.
	TypeMismatchError ErrorName = "TypeMismatchError"

	// NilValueError is emitted when init() is given null/undefined: a nil
	// value has no type to capture.
	NilValueError ErrorName = "NilValueError"

	// RegistryNotOpenError is emitted when the registry is accessed before
	// openRegistry() has been called.
	RegistryNotOpenError ErrorName = "RegistryNotOpenError"

	// OptionsInvalidError is emitted when openRegistry() options cannot be
	// parsed.
	OptionsInvalidError ErrorName = "OptionsInvalidError"

	// OptionsConflictError is emitted when openRegistry() is called with
	// options that conflict with the already-established registry.
	OptionsConflictError ErrorName = "OptionsConflictError"
)

// Error represents a custom error emitted by the globalvar module.
type Error struct {
	// Name contains one of the strings associated with an error name.
	Name ErrorName `json:"name"`

	// Message represents message or description associated with the given error name.
	Message string `json:"message"`
}

// NewError returns a new Error instance.
func NewError(name ErrorName, message string) *Error {
	return &Error{
		Name:    name,
		Message: message,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return string(e.Name) + ": " + e.Message
}

// ToSobekValue converts the error into a value the VU runtime can reject
// promises with.
func (e *Error) ToSobekValue(rt *sobek.Runtime) sobek.Value {
	return rt.ToValue(e)
}

// classifyError downgrades internal Go errors to structured globalvar errors for JS.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var moduleErr *Error
	if errors.As(err, &moduleErr) {
		return moduleErr
	}

	switch {
	case errors.Is(err, registry.ErrKeyNotFound):
		return NewError(KeyNotFoundError, err.Error())
	case errors.Is(err, registry.ErrKeyExists):
		return NewError(KeyAlreadyExistsError, err.Error())
	case errors.Is(err, registry.ErrTypeMismatch):
		return NewError(TypeMismatchError, err.Error())
	case errors.Is(err, registry.ErrNilValue):
		return NewError(NilValueError, err.Error())
	case errors.Is(err, errRegistryOptionsConflict):
		return NewError(OptionsConflictError, err.Error())
	case errors.Is(err, errRegistryOptionsInvalid):
		return NewError(OptionsInvalidError, err.Error())
	}

	return err
}
