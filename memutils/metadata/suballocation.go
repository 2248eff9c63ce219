package metadata

import "math"

// SlotHandle identifies one slot of a SlotMetadata. It is the slot's index.
type SlotHandle uint64

const (
	// NoSlot is passed to region visitors for free regions, which are not addressed by a single handle
	NoSlot SlotHandle = math.MaxUint64
)
