package metadata

// AllocationStrategy chooses which free slot a SlotMetadata hands out next
type AllocationStrategy uint32

const (
	// AllocationStrategyMinTime reuses the most recently freed slot first and otherwise takes the next
	// never-used slot. Allocation and free are both O(1). This is the default.
	AllocationStrategyMinTime AllocationStrategy = iota
	// AllocationStrategyMinOffset always hands out the lowest free slot, keeping live objects packed
	// toward the start of storage at the cost of a scan on each allocation.
	AllocationStrategyMinOffset
)

var allocationStrategyMapping = map[AllocationStrategy]string{
	AllocationStrategyMinTime:   "MinTime",
	AllocationStrategyMinOffset: "MinOffset",
}

func (s AllocationStrategy) String() string {
	return allocationStrategyMapping[s]
}
