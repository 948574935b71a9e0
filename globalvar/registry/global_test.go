package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The default registry is shared process-wide state, so these tests use
// unique key prefixes and clean up after themselves instead of clearing it.

// TestDefault_SameInstance verifies lazy initialization yields one shared
// registry, including under concurrent first use.
func TestDefault_SameInstance(t *testing.T) {
	t.Parallel()

	const goroutines = 8

	var (
		wg        sync.WaitGroup
		instances [goroutines]*Registry
	)

	wg.Add(goroutines)

	for i := range goroutines {
		go func() {
			defer wg.Done()

			instances[i] = Default()
		}()
	}

	wg.Wait()

	for i := 1; i < goroutines; i++ {
		require.Same(t, instances[0], instances[i],
			"Default() must return the same registry from every call site")
	}
}

// TestGlobal_RoundTrip exercises the package-level sugar end to end against
// the default registry: init, fetch, update, drop.
func TestGlobal_RoundTrip(t *testing.T) {
	t.Parallel()

	const key = "global_test/round-trip"

	require.NoError(t, Init(key, uint64(42)))

	t.Cleanup(func() { _ = Drop[uint64](key) })

	got, err := Fetch[uint64](key)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got)

	require.NoError(t, Update(key, func(n *uint64) error {
		*n++
		return nil
	}))

	require.NoError(t, View(key, func(n *uint64) error {
		assert.Equal(t, uint64(43), *n)
		return nil
	}))

	require.NoError(t, Drop[uint64](key))

	_, err = Fetch[uint64](key)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

// TestGlobal_DropWrongType verifies the type check guards the package-level
// drop as well.
func TestGlobal_DropWrongType(t *testing.T) {
	t.Parallel()

	const key = "global_test/wrong-type-drop"

	require.NoError(t, Init(key, "still here"))

	t.Cleanup(func() { _ = Drop[string](key) })

	require.ErrorIs(t, Drop[int](key), ErrTypeMismatch)

	got, err := Fetch[string](key)
	require.NoError(t, err)
	assert.Equal(t, "still here", got)
}
