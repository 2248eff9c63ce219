package metadata

import (
	"math/bits"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vesselkit/memcore/memutils"
)

// FreeListMetadata is a SlotMetadata implementation that combines a bump cursor with a free list of
// slot indices. Slots below the cursor have been handed out at least once; slots at or above it have
// never been touched. A bitmap records which slots are live so that frees of foreign, stale, or
// already-free handles are caught instead of corrupting the free list.
type FreeListMetadata struct {
	slotCount int
	strategy  AllocationStrategy

	bump      int
	liveCount int
	live      []uint64
	// Only maintained for AllocationStrategyMinTime; MinOffset scans live instead
	freeList []int
}

var _ SlotMetadata = &FreeListMetadata{}

// NewFreeListMetadata creates a new FreeListMetadata that will choose slots with the provided strategy
func NewFreeListMetadata(strategy AllocationStrategy) *FreeListMetadata {
	return &FreeListMetadata{
		strategy: strategy,
	}
}

// Init prepares this structure to manage slotCount slots, all of them free
func (m *FreeListMetadata) Init(slotCount int) {
	if slotCount < 0 {
		panic("attempted to initialize slot metadata with a negative slot count")
	}

	m.slotCount = slotCount
	m.live = make([]uint64, (slotCount+63)/64)
	m.freeList = make([]int, 0, 16)
	m.bump = 0
	m.liveCount = 0
}

// SlotCount returns the number of slots the metadata was initialized with
func (m *FreeListMetadata) SlotCount() int { return m.slotCount }

// Strategy returns the strategy used to choose slots
func (m *FreeListMetadata) Strategy() AllocationStrategy { return m.strategy }

func (m *FreeListMetadata) AllocationCount() int { return m.liveCount }

func (m *FreeListMetadata) SumFreeSlots() int { return m.slotCount - m.liveCount }

func (m *FreeListMetadata) IsEmpty() bool { return m.liveCount == 0 }

func (m *FreeListMetadata) IsAllocated(handle SlotHandle) bool {
	if handle >= SlotHandle(m.slotCount) {
		return false
	}
	return m.isLive(int(handle))
}

func (m *FreeListMetadata) isLive(slot int) bool {
	return m.live[slot/64]&(1<<(slot%64)) != 0
}

func (m *FreeListMetadata) setLive(slot int, live bool) {
	if live {
		m.live[slot/64] |= 1 << (slot % 64)
	} else {
		m.live[slot/64] &^= 1 << (slot % 64)
	}
}

func (m *FreeListMetadata) Alloc() (SlotHandle, error) {
	slot := -1

	switch m.strategy {
	case AllocationStrategyMinOffset:
		slot = m.lowestFreeSlot()
	default:
		if count := len(m.freeList); count > 0 {
			slot = m.freeList[count-1]
			m.freeList = m.freeList[:count-1]
		} else if m.bump < m.slotCount {
			slot = m.bump
		}
	}

	if slot < 0 {
		return NoSlot, errors.Wrapf(memutils.ErrExhausted, "all %d slots are live", m.slotCount)
	}

	if slot >= m.bump {
		m.bump = slot + 1
	}
	m.setLive(slot, true)
	m.liveCount++

	return SlotHandle(slot), nil
}

func (m *FreeListMetadata) lowestFreeSlot() int {
	for wordIndex, word := range m.live {
		if word == ^uint64(0) {
			continue
		}

		slot := wordIndex*64 + bits.TrailingZeros64(^word)
		if slot >= m.slotCount {
			return -1
		}
		return slot
	}

	return -1
}

func (m *FreeListMetadata) Free(handle SlotHandle) error {
	if handle >= SlotHandle(m.bump) {
		return errors.Errorf("slot %d was never handed out by this metadata", handle)
	}

	slot := int(handle)
	if !m.isLive(slot) {
		return errors.Errorf("slot %d is already free", handle)
	}

	m.setLive(slot, false)
	m.liveCount--

	if m.strategy == AllocationStrategyMinTime {
		m.freeList = append(m.freeList, slot)
	}

	return nil
}

func (m *FreeListMetadata) Clear() {
	for i := range m.live {
		m.live[i] = 0
	}
	m.freeList = m.freeList[:0]
	m.bump = 0
	m.liveCount = 0
}

func (m *FreeListMetadata) FreeRegionsCount() int {
	var count int
	_ = m.VisitAllRegions(func(handle SlotHandle, slot int, size int, free bool) error {
		if free {
			count++
		}
		return nil
	})
	return count
}

func (m *FreeListMetadata) VisitAllRegions(handleRegion func(handle SlotHandle, slot int, count int, free bool) error) error {
	freeStart := -1

	for slot := 0; slot < m.slotCount; slot++ {
		if !m.isLive(slot) {
			if freeStart < 0 {
				freeStart = slot
			}
			continue
		}

		if freeStart >= 0 {
			err := handleRegion(NoSlot, freeStart, slot-freeStart, true)
			if err != nil {
				return err
			}
			freeStart = -1
		}

		err := handleRegion(SlotHandle(slot), slot, 1, false)
		if err != nil {
			return err
		}
	}

	if freeStart >= 0 {
		return handleRegion(NoSlot, freeStart, m.slotCount-freeStart, true)
	}

	return nil
}

func (m *FreeListMetadata) Validate() error {
	var counted int
	for wordIndex, word := range m.live {
		counted += bits.OnesCount64(word)

		if word != 0 {
			highest := wordIndex*64 + 63 - bits.LeadingZeros64(word)
			if highest >= m.bump {
				return errors.Errorf("slot %d is live but lies beyond the bump cursor %d", highest, m.bump)
			}
		}
	}

	if counted != m.liveCount {
		return errors.Errorf("the metadata lists %d live slots, but %d are marked live", m.liveCount, counted)
	}

	if m.bump > m.slotCount {
		return errors.Errorf("the bump cursor %d is beyond the slot count %d", m.bump, m.slotCount)
	}

	if m.strategy != AllocationStrategyMinTime {
		if len(m.freeList) != 0 {
			return errors.Errorf("strategy %s should not maintain a free list, but it holds %d slots", m.strategy, len(m.freeList))
		}
		return nil
	}

	if len(m.freeList) != m.bump-m.liveCount {
		return errors.Errorf("the free list holds %d slots, but %d slots below the bump cursor are free", len(m.freeList), m.bump-m.liveCount)
	}

	seen := make(map[int]struct{}, len(m.freeList))
	for _, slot := range m.freeList {
		if slot < 0 || slot >= m.bump {
			return errors.Errorf("free list entry %d lies outside the handed-out range [0, %d)", slot, m.bump)
		}
		if m.isLive(slot) {
			return errors.Errorf("slot %d is in the free list but is live", slot)
		}
		if _, dup := seen[slot]; dup {
			return errors.Errorf("slot %d is in the free list twice", slot)
		}
		seen[slot] = struct{}{}
	}

	return nil
}

func (m *FreeListMetadata) AddDetailedStatistics(stats *memutils.DetailedStatistics, slotSize uint64) {
	stats.BlockCount++
	stats.BlockBytes += uint64(m.slotCount) * slotSize

	_ = m.VisitAllRegions(func(handle SlotHandle, slot int, count int, free bool) error {
		if free {
			stats.AddUnusedRange(uint64(count) * slotSize)
		} else {
			stats.AddAllocation(slotSize)
		}
		return nil
	})
}

func (m *FreeListMetadata) AddStatistics(stats *memutils.Statistics, slotSize uint64) {
	stats.BlockCount++
	stats.BlockBytes += uint64(m.slotCount) * slotSize
	stats.AllocationCount += m.liveCount
	stats.AllocationBytes += uint64(m.liveCount) * slotSize
}

func (m *FreeListMetadata) BlockJsonData(json *jwriter.ObjectState) {
	json.Name("TotalSlots").Int(m.slotCount)
	json.Name("FreeSlots").Int(m.SumFreeSlots())
	json.Name("Allocations").Int(m.liveCount)
	json.Name("UnusedRanges").Int(m.FreeRegionsCount())
	json.Name("TouchedSlots").Int(m.bump)
	json.Name("Strategy").String(m.strategy.String())
}
