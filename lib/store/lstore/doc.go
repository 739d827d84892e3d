// Package lstore implements a local, in-memory, single-node key-value store
// based on the store.IStore interface. Data is not persisted between process
// restarts.
//
// Thread Safety:
//
//	All operations take one sync.Mutex for their whole duration. Reads are
//	serialized with writes as well; a reader-writer lock would be faster for
//	read heavy loads but the store favours a single, simple exclusion rule.
//	Callers should not hold any other lock while calling into the store, and
//	any artificial delays must happen outside of it.
//
// Usage Example:
//
//	s := lstore.NewLocalStore()
//	s.Set("Key0", "Value0")
//	value, found := s.Get("Key0")
//	removed := s.Remove("Key0") // true, a second call returns false
package lstore
