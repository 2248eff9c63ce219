package vaa

import "github.com/vesselkit/memcore/addr"

const (
	// DefaultMinSpan is the value used as the MinSpan when none is provided via CreateOptions.
	// It is equal to 8 TiB.
	DefaultMinSpan uint64 = 8 << 40

	// maxPageId is the highest page id whose address is representable
	maxPageId = ^uint64(0) >> addr.PageShift
	// uninitMaxPageId bounds the placeholder allocator that stands in for the global one until boot
	uninitMaxPageId = 1000
)

// CreateOptions contains optional settings when creating an allocator
type CreateOptions struct {
	// MinSpan is the minimum number of bytes that must lie between the start address and the HHDM offset.
	// Zero means DefaultMinSpan.
	MinSpan uint64
}
