package keybackend

import "errors"

var (
	// ErrKeyNotFound is returned when no signing key has the requested id.
	ErrKeyNotFound = errors.New("signing key not found")

	// ErrNoKeys is returned when the configuration yields no usable key.
	ErrNoKeys = errors.New("no signing keys configured")
)
