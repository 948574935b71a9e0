// Package registry provides a process-wide, thread-safe mapping from string
// keys to values of arbitrary concrete types.
//
// Each stored value is tagged with the reflect.Type captured at insertion.
// Typed accessors (Fetch, View, Update, Drop) compare that token against the
// requested type parameter before any cast, so reading a slot as the wrong
// type is a recoverable error rather than type confusion.
//
// Locking discipline:
//   - The registry is sharded; every operation takes exactly one shard lock
//     (cross-shard operations such as Keys and Clear take them in order).
//   - View and Update hold the shard lock for the entire duration of the
//     callback, so the pointer handed to the callback never outlives the
//     lock. Two concurrent Update calls against the same key serialize;
//     no update is lost.
//   - Fetch returns a copy of the stored value, never a live reference.
//
// The default registry returned by Default() is created lazily on first use
// and lives for the process lifetime; it is never torn down.
package registry
