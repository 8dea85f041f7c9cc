package freelist

import "errors"

var (
	// ErrOutOfSpace indicates that no free block large enough was found under the chosen policy.
	ErrOutOfSpace = errors.New("freelist: no free block large enough")

	// ErrAddressNotFound indicates that no block starts at the address passed to Free.
	ErrAddressNotFound = errors.New("freelist: address not found")

	// ErrInvalidSize indicates a non-positive total or request size.
	ErrInvalidSize = errors.New("freelist: size must be positive")

	// ErrUnknownPolicy indicates a policy value or name outside best/worst/next fit.
	ErrUnknownPolicy = errors.New("freelist: unknown placement policy")
)
