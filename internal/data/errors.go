package data

import "errors"

// Domain-specific errors for record serialization.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidInput is returned when a nil record or empty text is passed
	// to a serialization function.
	ErrInvalidInput = errors.New("data: invalid input")

	// ErrUnknownKind is returned when a record kind is not one of the known variants.
	ErrUnknownKind = errors.New("data: unknown record kind")
)
