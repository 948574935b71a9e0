package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// payload is a multi-field value used to exercise struct storage.
type payload struct {
	ID   uint64
	Name string
}

// TestTyped_InitFetchRoundTrip verifies that a value stored under a key comes
// back equal through a matching typed fetch, for scalars and structs alike.
func TestTyped_InitFetchRoundTrip(t *testing.T) {
	t.Parallel()

	reg := NewDefaultRegistry()

	require.NoError(t, InitIn(reg, "count", uint64(42)))

	got, err := FetchIn[uint64](reg, "count")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got)

	require.NoError(t, InitIn(reg, "foo", payload{ID: 1, Name: "bar"}))

	p, err := FetchIn[payload](reg, "foo")
	require.NoError(t, err)
	assert.Equal(t, payload{ID: 1, Name: "bar"}, p)
}

// TestTyped_FetchUnknownKey verifies that a missing key fails with
// ErrKeyNotFound regardless of the requested type.
func TestTyped_FetchUnknownKey(t *testing.T) {
	t.Parallel()

	reg := NewDefaultRegistry()

	_, err := FetchIn[int](reg, "missing")
	require.ErrorIs(t, err, ErrKeyNotFound)

	_, err = FetchIn[payload](reg, "missing")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

// TestTyped_FetchTypeMismatch verifies that a wrong type parameter fails with
// ErrTypeMismatch and never yields a value, including for types of identical
// size and layout (int64 vs uint64): identity is the type token, not the shape.
func TestTyped_FetchTypeMismatch(t *testing.T) {
	t.Parallel()

	reg := NewDefaultRegistry()

	require.NoError(t, InitIn(reg, "count", int64(42)))

	_, err := FetchIn[uint64](reg, "count")
	require.ErrorIs(t, err, ErrTypeMismatch)
	assert.ErrorContains(t, err, "int64", "mismatch error must name the stored type")
	assert.ErrorContains(t, err, "uint64", "mismatch error must name the requested type")

	_, err = FetchIn[string](reg, "count")
	require.ErrorIs(t, err, ErrTypeMismatch)

	// The slot itself is untouched.
	got, err := FetchIn[int64](reg, "count")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

// TestTyped_InitExistingKey verifies that re-initializing an occupied key
// fails with ErrKeyExists and leaves the original value retrievable, even
// when the second insert uses a different type.
func TestTyped_InitExistingKey(t *testing.T) {
	t.Parallel()

	reg := NewDefaultRegistry()

	require.NoError(t, InitIn(reg, "once", "first"))

	require.ErrorIs(t, InitIn(reg, "once", "second"), ErrKeyExists)
	require.ErrorIs(t, InitIn(reg, "once", 3), ErrKeyExists)

	got, err := FetchIn[string](reg, "once")
	require.NoError(t, err)
	assert.Equal(t, "first", got)
}

// TestTyped_ViewUpdate verifies in-place access: View observes the current
// value, Update mutates it, and a later Fetch sees the mutation.
func TestTyped_ViewUpdate(t *testing.T) {
	t.Parallel()

	reg := NewDefaultRegistry()

	require.NoError(t, InitIn(reg, "foo", payload{ID: 1, Name: "bar"}))

	err := UpdateIn(reg, "foo", func(p *payload) error {
		p.ID++
		p.Name += "1"

		return nil
	})
	require.NoError(t, err)

	err = ViewIn(reg, "foo", func(p *payload) error {
		assert.Equal(t, uint64(2), p.ID)
		assert.Equal(t, "bar1", p.Name)

		return nil
	})
	require.NoError(t, err)

	got, err := FetchIn[payload](reg, "foo")
	require.NoError(t, err)
	assert.Equal(t, payload{ID: 2, Name: "bar1"}, got)
}

// TestTyped_ViewUpdateResolution verifies that View/Update apply the same
// resolution rules as Fetch (not-found and type mismatch reject before the
// callback runs) and that callback errors pass through unchanged.
func TestTyped_ViewUpdateResolution(t *testing.T) {
	t.Parallel()

	reg := NewDefaultRegistry()

	sentinel := errors.New("callback failure")

	notRun := func(*int) error {
		t.Error("callback must not run when resolution fails")
		return nil
	}

	require.ErrorIs(t, ViewIn(reg, "missing", notRun), ErrKeyNotFound)
	require.ErrorIs(t, UpdateIn(reg, "missing", notRun), ErrKeyNotFound)

	require.NoError(t, InitIn(reg, "num", int64(1)))

	require.ErrorIs(t, ViewIn[int](reg, "num", notRun), ErrTypeMismatch)
	require.ErrorIs(t, UpdateIn[int](reg, "num", notRun), ErrTypeMismatch)

	err := UpdateIn(reg, "num", func(*int64) error { return sentinel })
	require.ErrorIs(t, err, sentinel, "callback errors must pass through unchanged")
}

// TestTyped_Drop verifies type-checked removal: matching type removes the
// slot, mismatching type rejects the removal and leaves the slot live and
// unchanged.
func TestTyped_Drop(t *testing.T) {
	t.Parallel()

	reg := NewDefaultRegistry()

	require.ErrorIs(t, DropIn[int](reg, "missing"), ErrKeyNotFound)

	require.NoError(t, InitIn(reg, "count", uint64(42)))

	// Wrong type: removal rejected, slot untouched.
	require.ErrorIs(t, DropIn[int64](reg, "count"), ErrTypeMismatch)

	got, err := FetchIn[uint64](reg, "count")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got, "rejected drop must leave the slot unchanged")

	// Matching type: removal succeeds and subsequent fetches see NotFound.
	require.NoError(t, DropIn[uint64](reg, "count"))

	_, err = FetchIn[uint64](reg, "count")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

// TestTyped_ConcurrentUpdateNoLostIncrements runs two goroutines performing
// disjoint batches of read-modify-write increments against the same key.
// Because Update holds the shard write lock for the whole callback, the
// final value must reflect every increment in some serial order.
func TestTyped_ConcurrentUpdateNoLostIncrements(t *testing.T) {
	t.Parallel()

	const perWorker = 500

	reg := NewRegistry(&Config{ShardCount: 4})

	require.NoError(t, InitIn(reg, "counter", 0))

	var wg sync.WaitGroup

	wg.Add(2)

	for range 2 {
		go func() {
			defer wg.Done()

			for range perWorker {
				_ = UpdateIn(reg, "counter", func(n *int) error {
					*n++
					return nil
				})
			}
		}()
	}

	wg.Wait()

	got, err := FetchIn[int](reg, "counter")
	require.NoError(t, err)
	assert.Equal(t, 2*perWorker, got, "no increment may be lost under concurrent updates")
}

// TestTyped_ErasedAndTypedInterop verifies that values stored through the
// erased surface resolve through the typed one and vice versa, sharing the
// same type tokens.
func TestTyped_ErasedAndTypedInterop(t *testing.T) {
	t.Parallel()

	reg := NewDefaultRegistry()

	// Erased insert, typed fetch.
	require.NoError(t, reg.SetValue("from-js", int64(7)))

	got, err := FetchIn[int64](reg, "from-js")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)

	_, err = FetchIn[int](reg, "from-js")
	require.ErrorIs(t, err, ErrTypeMismatch)

	// Typed insert, erased read.
	require.NoError(t, InitIn(reg, "from-go", payload{ID: 9}))

	raw, err := reg.Value("from-go")
	require.NoError(t, err)
	assert.Equal(t, payload{ID: 9}, raw)
}
