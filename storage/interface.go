package storage

import "errors"

var (
	// ErrTypeMismatch is returned when a key is read with a kind other than
	// the one it was written with.
	ErrTypeMismatch = errors.New("stored value has a different kind")

	// ErrCorrupt is returned when a stored value cannot be decoded or fails
	// authentication.
	ErrCorrupt = errors.New("stored value is corrupt")

	// ErrClosed is returned by operations on a closed backend.
	ErrClosed = errors.New("storage is closed")

	// ErrInvalidValue is returned when writing a Value that carries no kind,
	// such as the zero Value.
	ErrInvalidValue = errors.New("value has no kind")
)

// Backend defines the interface for the raw durable byte map every store
// variant is built on.
type Backend interface {
	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error
	// Get retrieves a value by key and whether it exists.
	Get(key string) ([]byte, bool, error)
	// Delete removes one or more keys and returns the number removed.
	Delete(keys ...string) (int, error)
	// Exists checks if a key exists.
	Exists(key string) (bool, error)

	// Lifecycle
	Close() error
}
