package globalvar

import (
	"github.com/grafana/sobek"
	"go.k6.io/k6/js/common"
	"go.k6.io/k6/js/modules"

	"github.com/itcraft-cn/globalvar/globalvar/registry"
)

// GlobalRegistry is the JavaScript-facing wrapper around the shared variable
// registry. Each exported method:
//
//   - Binds to the VU (virtual user) runtime via Sobek.
//   - Validates that an underlying registry is available (not nil).
//   - Executes the blocking registry operation in a separate goroutine.
//   - Resolves/rejects a Sobek Promise back on the VU event loop.
//
// Threading model:
//
//   - All blocking registry work occurs in a goroutine (off the VU event loop).
//   - Go results are converted to JavaScript values via the VU runtime inside
//     a callback enqueued onto the event loop, because Sobek runtimes are not
//     goroutine-safe.
//
// Values flow through the registry type-erased: a value stored from JS keeps
// the dynamic Go type produced by sobek's Export (string, int64, float64,
// bool, map[string]any, []any), and that type participates in the same
// type-token checks the Go generic accessors use.
type GlobalRegistry struct {
	// reg is the backing registry shared by all VUs.
	reg *registry.Registry

	// vu is the owning k6 VU that provides the Sobek runtime and event loop.
	vu modules.VU
}

// NewGlobalRegistry constructs a GlobalRegistry bound to the given VU and
// backing registry.
func NewGlobalRegistry(vu modules.VU, reg *registry.Registry) *GlobalRegistry {
	return &GlobalRegistry{
		vu:  vu,
		reg: reg,
	}
}

// Init returns a Promise that resolves to true once the value has been
// stored under the provided key.
//
// Rejection cases:
//   - the registry is not open,
//   - the key is already occupied (KeyAlreadyExistsError); the original
//     value stays retrievable unchanged,
//   - the value is null/undefined (NilValueError).
func (g *GlobalRegistry) Init(key sobek.Value, value sobek.Value) *sobek.Promise {
	keyString := key.String()

	// Convert the Sobek value to a Go value before leaving the event loop.
	exportedValue := value.Export()

	return g.runAsyncWithRegistry(
		func(r *registry.Registry) (any, error) {
			return true, r.SetValue(keyString, exportedValue)
		},

		func(rt *sobek.Runtime, result any) sobek.Value {
			return rt.ToValue(result)
		},
	)
}

// Get returns a Promise that resolves to the value stored under the provided key.
//
// Rejection cases:
//   - the registry is not open,
//   - the key does not exist (KeyNotFoundError).
func (g *GlobalRegistry) Get(key sobek.Value) *sobek.Promise {
	keyString := key.String()

	return g.runAsyncWithRegistry(
		func(r *registry.Registry) (any, error) {
			return r.Value(keyString)
		},

		// Convert the Go value to a JavaScript value for the VU runtime.
		func(rt *sobek.Runtime, result any) sobek.Value {
			return rt.ToValue(result)
		},
	)
}

// Exists returns a Promise that resolves to whether the key is present.
func (g *GlobalRegistry) Exists(key sobek.Value) *sobek.Promise {
	keyString := key.String()

	return g.runAsyncWithRegistry(
		func(r *registry.Registry) (any, error) {
			return r.Exists(keyString), nil
		},

		func(rt *sobek.Runtime, result any) sobek.Value {
			return rt.ToValue(result)
		},
	)
}

// TypeOf returns a Promise that resolves to the string form of the stored
// value's type token (e.g. "int64", "map[string]interface {}").
//
// Rejection cases:
//   - the registry is not open,
//   - the key does not exist (KeyNotFoundError).
func (g *GlobalRegistry) TypeOf(key sobek.Value) *sobek.Promise {
	keyString := key.String()

	return g.runAsyncWithRegistry(
		func(r *registry.Registry) (any, error) {
			typ, err := r.TypeOf(keyString)
			if err != nil {
				return nil, err
			}

			return typ.String(), nil
		},

		func(rt *sobek.Runtime, result any) sobek.Value {
			return rt.ToValue(result)
		},
	)
}

// Drop returns a Promise that resolves to true once the key has been removed.
//
// JS has no static types to verify against, so drop() maps to the
// type-erased removal; the type-checked variant exists on the Go surface
// (registry.Drop).
//
// Rejection cases:
//   - the registry is not open,
//   - the key does not exist (KeyNotFoundError).
func (g *GlobalRegistry) Drop(key sobek.Value) *sobek.Promise {
	keyString := key.String()

	return g.runAsyncWithRegistry(
		func(r *registry.Registry) (any, error) {
			return true, r.Remove(keyString)
		},

		func(rt *sobek.Runtime, result any) sobek.Value {
			return rt.ToValue(result)
		},
	)
}

// Size returns a Promise that resolves to the number of live entries.
func (g *GlobalRegistry) Size() *sobek.Promise {
	return g.runAsyncWithRegistry(
		func(r *registry.Registry) (any, error) {
			return r.Len(), nil
		},

		func(rt *sobek.Runtime, result any) sobek.Value {
			return rt.ToValue(result)
		},
	)
}

// Keys returns a Promise that resolves to the sorted list of keys, filtered
// by the optional {prefix, limit} options object.
func (g *GlobalRegistry) Keys(options sobek.Value) *sobek.Promise {
	keysOptions := ImportKeysOptions(g.vu.Runtime(), options)

	return g.runAsyncWithRegistry(
		func(r *registry.Registry) (any, error) {
			return r.Keys(keysOptions.Prefix, keysOptions.Limit), nil
		},

		func(rt *sobek.Runtime, result any) sobek.Value {
			return rt.ToValue(result)
		},
	)
}

// Clear returns a Promise that resolves to true once every entry has been
// removed from the registry.
func (g *GlobalRegistry) Clear() *sobek.Promise {
	return g.runAsyncWithRegistry(
		func(r *registry.Registry) (any, error) {
			r.Clear()
			return true, nil
		},

		func(rt *sobek.Runtime, result any) sobek.Value {
			return rt.ToValue(result)
		},
	)
}

// Stats returns a Promise that resolves to an occupancy snapshot
// ({entries, shards, maxShardEntries}).
func (g *GlobalRegistry) Stats() *sobek.Promise {
	return g.runAsyncWithRegistry(
		func(r *registry.Registry) (any, error) {
			return r.Stats(), nil
		},

		func(rt *sobek.Runtime, result any) sobek.Value {
			return rt.ToValue(result)
		},
	)
}

// KeysOptions describes filters for keys() operations; all fields are optional.
type KeysOptions struct {
	// Prefix selects only keys that start with the given string.
	Prefix string `json:"prefix"`

	// Limit is the maximum number of keys to return; <= 0 means "no limit".
	Limit int64 `json:"limit"`
}

// ImportKeysOptions converts a Sobek value into KeysOptions, accepting
// null/undefined and partial objects. Unknown fields are ignored.
func ImportKeysOptions(rt *sobek.Runtime, options sobek.Value) KeysOptions {
	keysOptions := KeysOptions{}

	if common.IsNullish(options) {
		return keysOptions
	}

	optionsObj := options.ToObject(rt)

	prefixValue := optionsObj.Get("prefix")
	if !common.IsNullish(prefixValue) {
		keysOptions.Prefix = prefixValue.String()
	}

	limitValue := optionsObj.Get("limit")
	if common.IsNullish(limitValue) {
		return keysOptions
	}

	var parsedLimit int64
	if err := rt.ExportTo(limitValue, &parsedLimit); err == nil {
		keysOptions.Limit = parsedLimit
	}

	return keysOptions
}

// registryNotOpenError produces a consistent error when the backing registry is nil.
func (g *GlobalRegistry) registryNotOpenError() error {
	return NewError(RegistryNotOpenError, "registry is not open")
}

// runAsyncWithRegistry executes a blocking registry operation on a worker
// goroutine and bridges its result back to JavaScript by resolving a Sobek
// promise on the VU's event loop. This indirection is required because:
//   - Sobek promises (rt.NewPromise) are not goroutine-safe; resolve/reject
//     must always run on the event loop thread.
//   - k6 extensions are responsible for scheduling their callbacks via
//     RegisterCallback, which is what keeps the VU iteration alive until the
//     promise settles.
func (g *GlobalRegistry) runAsyncWithRegistry(
	operation func(r *registry.Registry) (any, error),
	toJS func(rt *sobek.Runtime, result any) sobek.Value,
) *sobek.Promise {
	// Capture the VU runtime and create a promise whose resolve/reject
	// must run on the event loop thread.
	rt := g.vu.Runtime()
	promise, resolve, reject := rt.NewPromise()

	// Grab the VU's RegisterCallback hook so we can enqueue work back onto
	// the event loop after the registry operation completes.
	callback := g.vu.RegisterCallback()

	runOnEventLoop := func(fn func() error) {
		callback(fn)
	}

	go func() {
		if g.reg == nil {
			runOnEventLoop(func() error {
				return reject(g.registryNotOpenError())
			})

			return
		}

		goResult, err := operation(g.reg)
		if err != nil {
			runOnEventLoop(func() error {
				return reject(classifyError(err))
			})

			return
		}

		// Marshal the result back to JS by enqueueing a callback that
		// converts the Go value and resolves the promise on the event loop
		// thread.
		runOnEventLoop(func() error {
			jsValue := toJS(rt, goResult)
			return resolve(jsValue)
		})
	}()

	return promise
}
