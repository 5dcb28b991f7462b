package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrInvalidProfile  = errors.New("invalid profile")
)

// Errors for configuration validation.
var (
	ErrPasswordRequired = errors.New("password is required")
	ErrConfigRequired   = errors.New("config is required")
)

// Errors for input validation.
var (
	ErrNoPaths       = errors.New("no paths provided")
	ErrEmptyFilename = errors.New("filename is required")
	ErrNameWithMany  = errors.New("a name can only be given for a single file")
)
