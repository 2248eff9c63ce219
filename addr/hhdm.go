package addr

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/vesselkit/memcore/memutils"
)

var (
	// Zero until boot sets it, so hosted code sees identity mapping
	hhdmOffset atomic.Uint64
	hhdmSet    atomic.Bool
)

// HHDMOffset returns the process-wide higher-half direct map offset
func HHDMOffset() uint64 {
	return hhdmOffset.Load()
}

// SetHHDMOffset establishes the process-wide HHDM offset. It may only succeed once per process.
func SetHHDMOffset(offset uint64) error {
	if !hhdmSet.CompareAndSwap(false, true) {
		return errors.Wrapf(memutils.ErrAlreadyInitialized, "HHDM offset is already %#x", HHDMOffset())
	}

	hhdmOffset.Store(offset)
	return nil
}
