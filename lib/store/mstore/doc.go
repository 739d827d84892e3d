// Package mstore provides a metered decorator for store.IStore. It counts
// sets, get hits and misses, and successful and unsuccessful removes in a
// VictoriaMetrics metrics.Set, which the server exposes on its metrics
// endpoint. The decorator adds no locking of its own; thread safety comes
// from the wrapped store and the atomic counters.
package mstore
