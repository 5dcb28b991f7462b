package lockbox

import "errors"

var (
	// ErrNotFound is returned when no item exists for a filename
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden is returned when an item password does not match
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized is returned when a client credential is missing or invalid
	ErrUnauthorized = errors.New("unauthorized")
)
