// Package store defines IStore, the contract of the server-side key-value
// store shared by all concurrent request handlers.
//
// Implementations:
//
//   - Local Store (lstore): a map guarded by a single exclusive lock. Every
//     Set, Get and Remove holds that lock, reads included, so no operation
//     can observe a partially applied mutation.
//     Available in the "github.com/ValentinKolb/kvrpc/lib/store/lstore" package.
//
//   - Metered Store (mstore): a decorator that records operation counts in a
//     VictoriaMetrics metrics.Set and delegates to any other IStore.
//     Available in the "github.com/ValentinKolb/kvrpc/lib/store/mstore" package.
//
// The shared test suite for implementations lives in lib/store/testing.
//
// The store offers single-operation atomicity only. A read-modify-write
// sequence built from Get and Set is not atomic.
package store
