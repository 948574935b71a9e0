// Package globalvar exposes a process-wide variable registry to k6 scripts,
// shared across all VUs (virtual users).
//
// High-level behavior:
//   - The first call to openRegistry() lazily initializes a single registry
//     shared by every VU; the first successful call decides the
//     configuration for the entire test run, and later calls with equal
//     options reuse the same registry.
//   - The registry is in-memory and ephemeral: values live for the test
//     process and are never persisted.
//   - Every operation on the returned object is asynchronous and resolves a
//     Promise on the VU event loop.
//
// The raw handle allocator (package handle) is deliberately not exposed
// here: handles are raw addresses whose type contract must be upheld by the
// caller at compile time, which a scripting runtime cannot do.
package globalvar
