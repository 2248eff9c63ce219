package metadata

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vesselkit/memcore/memutils"
)

// SlotMetadata tracks which of a fixed number of equally-sized slots are in use. It knows nothing
// about the storage behind the slots: consumers map a SlotHandle to their own backing memory.
type SlotMetadata interface {
	// Init must be called before the SlotMetadata is used. It sizes the metadata to manage slotCount slots,
	// all of them free.
	Init(slotCount int)
	// SlotCount returns the number of slots the metadata was initialized with
	SlotCount() int

	// Validate performs internal consistency checks on the metadata. When the implementation is functioning
	// correctly it should not be possible for this method to return an error.
	Validate() error
	// AllocationCount returns the number of live slots
	AllocationCount() int
	// FreeRegionsCount returns the number of runs of adjacent free slots
	FreeRegionsCount() int
	// SumFreeSlots returns the number of free slots
	SumFreeSlots() int
	// IsEmpty will return true if no slot is live
	IsEmpty() bool
	// IsAllocated reports whether handle refers to a live slot
	IsAllocated(handle SlotHandle) bool

	// VisitAllRegions calls handleRegion once for each live slot, in slot order, and once for each run of
	// adjacent free slots. Free runs are reported with the handle NoSlot.
	VisitAllRegions(handleRegion func(handle SlotHandle, slot int, count int, free bool) error) error

	// AddDetailedStatistics sums this metadata's usage, with each slot slotSize bytes wide, into stats
	AddDetailedStatistics(stats *memutils.DetailedStatistics, slotSize uint64)
	// AddStatistics sums this metadata's usage, with each slot slotSize bytes wide, into stats
	AddStatistics(stats *memutils.Statistics, slotSize uint64)

	// Clear instantly frees all slots
	Clear()
	// BlockJsonData populates a json object with information about this metadata
	BlockJsonData(json *jwriter.ObjectState)

	// Alloc marks a free slot live and returns its handle. It returns an error wrapping
	// memutils.ErrExhausted when no slot is free.
	Alloc() (SlotHandle, error)
	// Free marks a live slot free again. It returns an error if the handle was never handed out by this
	// metadata or is already free.
	Free(handle SlotHandle) error
}
