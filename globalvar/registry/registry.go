package registry

import (
	"reflect"
	"sort"
	"strings"
)

// slot owns one type-erased value together with the type token captured at
// insertion time.
//
// cell always holds a pointer to the stored value (a *T boxed as any), so
// typed accessors can hand the same cell to successive callers and in-place
// mutation through Update is visible to later reads. typ is the concrete
// type T, never the pointer type.
type slot struct {
	// cell is the boxed pointer to the stored value.
	cell any
	// typ is the reflect.Type of the stored value.
	typ reflect.Type
}

// Registry is a sharded, thread-safe mapping from string keys to type-erased
// slots.
//
// A Registry must be created with NewRegistry or NewDefaultRegistry; the zero
// value is not usable. All methods are safe for concurrent use.
type Registry struct {
	// shards is the fixed set of shards; keys are routed by hashKey.
	shards []*shard
	// shardCount is len(shards), kept separately for the hot hashing path.
	shardCount int
}

// NewRegistry creates a Registry configured by cfg.
// A nil cfg selects the defaults (runtime.NumCPU() shards).
func NewRegistry(cfg *Config) *Registry {
	shardCount := cfg.GetShardCount()

	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = &shard{slots: make(map[string]*slot)}
	}

	return &Registry{
		shards:     shards,
		shardCount: shardCount,
	}
}

// NewDefaultRegistry creates a Registry with the default configuration.
func NewDefaultRegistry() *Registry {
	return NewRegistry(nil)
}

// insert stores a pre-boxed cell under key.
//
// It is the single write path shared by the typed Init functions and the
// erased SetValue, so the one-slot-per-key invariant is enforced in exactly
// one place.
func (r *Registry) insert(key string, cell any, typ reflect.Type) error {
	sh := r.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, exists := sh.slots[key]; exists {
		return keyExistsError(key)
	}

	sh.slots[key] = &slot{cell: cell, typ: typ}

	return nil
}

// SetValue inserts value under key, capturing the value's dynamic type as the
// slot's type token.
//
// Fails with ErrKeyExists if key is already occupied and with ErrNilValue if
// value is nil (a nil interface has no dynamic type to capture).
//
// A value stored through SetValue is retrievable through the typed accessors
// as long as the requested type parameter equals the dynamic type captured
// here.
func (r *Registry) SetValue(key string, value any) error {
	if value == nil {
		return ErrNilValue
	}

	typ := reflect.TypeOf(value)

	// Box the value behind a fresh pointer so the slot cell is always a *T.
	cell := reflect.New(typ)
	cell.Elem().Set(reflect.ValueOf(value))

	return r.insert(key, cell.Interface(), typ)
}

// Value returns the value stored under key with its static type erased.
//
// The result is the slot's current value at call time; mutations applied
// through Update after Value returns are not reflected in value types,
// though they remain visible through shared reference types (maps, slices,
// pointers).
func (r *Registry) Value(key string) (any, error) {
	sh := r.shardFor(key)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	s, ok := sh.slots[key]
	if !ok {
		return nil, keyNotFoundError(key)
	}

	return reflect.ValueOf(s.cell).Elem().Interface(), nil
}

// TypeOf returns the type token captured when key was inserted.
func (r *Registry) TypeOf(key string) (reflect.Type, error) {
	sh := r.shardFor(key)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	s, ok := sh.slots[key]
	if !ok {
		return nil, keyNotFoundError(key)
	}

	return s.typ, nil
}

// Remove deletes the slot under key without checking its type.
//
// This is the type-erased building block used by the JS surface and by the
// type-checked Drop functions; Go callers that know the stored type should
// prefer Drop, which refuses to remove a slot of the wrong type.
func (r *Registry) Remove(key string) error {
	sh := r.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.slots[key]; !ok {
		return keyNotFoundError(key)
	}

	delete(sh.slots, key)

	return nil
}

// Exists reports whether key has a live slot.
func (r *Registry) Exists(key string) bool {
	sh := r.shardFor(key)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	_, ok := sh.slots[key]

	return ok
}

// Len returns the number of live slots across all shards.
//
// Shards are counted one at a time, so the result is a point-in-time
// approximation under concurrent writers (exact when quiescent).
func (r *Registry) Len() int64 {
	var total int64
	for _, sh := range r.shards {
		total += int64(sh.entryCount())
	}

	return total
}

// Keys returns the keys of all live slots, filtered by prefix and limited by
// limit, sorted lexicographically for deterministic ordering.
// Passing limit <= 0 means "no limit".
func (r *Registry) Keys(prefix string, limit int64) []string {
	keys := make([]string, 0)

	for _, sh := range r.shards {
		sh.mu.RLock()

		for k := range sh.slots {
			if prefix != "" && !strings.HasPrefix(k, prefix) {
				continue
			}

			keys = append(keys, k)
		}

		sh.mu.RUnlock()
	}

	sort.Strings(keys)

	if limit > 0 && limit < int64(len(keys)) {
		keys = keys[:limit]
	}

	return keys
}

// Clear removes all slots from the registry.
func (r *Registry) Clear() {
	for _, sh := range r.shards {
		sh.mu.Lock()
		sh.clearLocked()
		sh.mu.Unlock()
	}
}
