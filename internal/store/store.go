// Package store provides the durable key-value store backing all persisted
// governance state. Consumers receive a Store by injection; there is no
// package-level shared state.
package store

// Store is a flat string-keyed, string-valued durable store.
// Get reports presence via the second return so callers can distinguish
// a missing key from an empty value. All errors are persistence faults;
// callers are expected to degrade to best-effort in-memory behavior
// rather than abort.
type Store interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
	Delete(key string) error
	Keys() ([]string, error)
}
