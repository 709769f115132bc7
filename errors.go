package tracmigrate

import "errors"

// Sentinel errors for conversion operations.
var (
	// ErrMaskKeyExhausted reports that the masking pass could not derive a
	// free placeholder key within the bounded number of re-hash probes.
	// This is an internal invariant failure, not a property of the input.
	ErrMaskKeyExhausted = errors.New("mask key space exhausted")
)
