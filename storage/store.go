package storage

import "errors"

// ErrClosed is returned by operations on a store that has been closed
var ErrClosed = errors.New("storage: store is closed")

// Store is a key-value slot store. The task list keeps its whole
// collection in a single slot, so backends only need whole-value reads
// and writes. This allows swapping between the JSON file, memory, or
// Postgres backends.
type Store interface {
	// Read returns the value of key and whether it was present
	Read(key string) (string, bool, error)

	// Write replaces the value of key. It either fully succeeds or
	// leaves the previous value in place.
	Write(key, value string) error

	// Lifecycle
	Close() error
}
