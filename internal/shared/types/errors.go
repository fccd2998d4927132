package types

import "errors"

var (
	// ErrValidation marks a user-correctable problem such as a bad or
	// duplicate profile name, or an attempt to delete a protected profile.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing profile, profile directory, or source.
	ErrNotFound = errors.New("not found")

	// ErrFormat marks a malformed source-of-truth document (registry,
	// preferences). Session state format problems never surface as errors.
	ErrFormat = errors.New("malformed document")
)
