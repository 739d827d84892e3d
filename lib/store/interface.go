package store

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the interface for interacting with an in-memory key–value store.
// Absence of a key is a normal result, not an error, so no method returns one.
// Implementations must be safe for concurrent use.
type IStore interface {
	// Set inserts or overwrites a key–value pair.
	Set(key, value string)
	// Get returns the value for a key. The boolean reports whether the key was found.
	Get(key string) (value string, loaded bool)
	// Remove deletes a key–value pair and reports whether an entry existed.
	Remove(key string) (removed bool)
}
