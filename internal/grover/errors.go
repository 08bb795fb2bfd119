package grover

import "errors"

var (
	// ErrInvalidSize is returned when the search space has fewer than one or
	// more than MaxSize index bits.
	ErrInvalidSize = errors.New("invalid search size")
	// ErrInvalidTarget is returned when the target is not an n-character bit-string.
	ErrInvalidTarget = errors.New("invalid search target")
)
