// Package kv provides the durable key-value blob storage the local
// cache is layered on. Values are opaque strings (JSON in practice);
// no transactional guarantee is made across keys.
package kv

// Store is the persistence adapter contract consumed by the local store.
type Store interface {
	// Get returns the stored blob for key. A missing key is reported via
	// the bool, not an error.
	Get(key string) (value string, ok bool, err error)
	// Set durably persists value under key, replacing any prior blob.
	Set(key, value string) error
	// Remove deletes key. Removing an absent key is a no-op.
	Remove(key string) error
	// RemoveMany deletes all given keys in one batch.
	RemoveMany(keys []string) error
}
