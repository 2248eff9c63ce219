package memutils

import "github.com/pkg/errors"

var (
	// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
	PowerOfTwoError error = errors.New("number must be a power of two")
	// ErrExhausted is returned when an allocator has no capacity left to satisfy a request. Callers at this
	// layer generally treat it as fatal, but bounded pools may recover from it.
	ErrExhausted error = errors.New("allocator capacity exhausted")
	// ErrInsufficientSpan is returned when the address space handed to an allocator is smaller than the
	// minimum span it demands
	ErrInsufficientSpan error = errors.New("cannot find enough virtual memory space")
	// ErrAlreadyInitialized is returned when a process-wide value that may only be set once is set again
	ErrAlreadyInitialized error = errors.New("already initialized")
	// ErrMisaligned is returned when an address or size does not satisfy a required alignment
	ErrMisaligned error = errors.New("value is not correctly aligned")
)
