package slab

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vesselkit/memcore/addr"
	"github.com/vesselkit/memcore/internal/utils"
	"github.com/vesselkit/memcore/memutils"
	"github.com/vesselkit/memcore/memutils/metadata"
)

// slabCore is the bookkeeping shared by typed and raw slabs: which slots are live, which generation
// each slot is on, and where the slots live in virtual address space. It never touches object storage.
type slabCore struct {
	logger   *slog.Logger
	name     string
	layout   Layout
	capacity int

	mutex    utils.OptionalMutex
	metadata metadata.SlotMetadata
	// Bumped each time a slot is freed so that handles to a previous occupant are recognized as stale
	generations []uint32

	hasAddressRange bool
	base            addr.VirtAddr
	destroyed       bool
}

func (c *slabCore) init(logger *slog.Logger, name string, layout Layout, capacity int, options CreateOptions) error {
	if capacity <= 0 {
		return errors.Newf("slab for %s must have a positive capacity, got %d", name, capacity)
	}

	c.logger = logger
	c.name = name
	c.layout = layout
	c.capacity = capacity
	c.mutex = utils.OptionalMutex{UseMutex: options.Flags&CreateExternallySynchronized == 0}
	c.generations = make([]uint32, capacity)

	slots := metadata.NewFreeListMetadata(options.Strategy)
	slots.Init(capacity)
	c.metadata = slots

	if options.AddressSpace != nil {
		size := uint64(capacity) * uint64(layout.Stride())
		pages := memutils.DivideRoundingUp(size, addr.PageSize)

		alignment := addr.PageSize
		if uint64(layout.Align) > alignment {
			alignment = uint64(layout.Align)
		}

		base, err := options.AddressSpace.Reserve(pages, alignment)
		if err != nil {
			return errors.Wrapf(err, "could not reserve %d pages for the slab for %s", pages, name)
		}

		c.hasAddressRange = true
		c.base = base
	}

	logger.LogAttrs(context.Background(), slog.LevelDebug, "Slab::init",
		slog.String("type", name),
		slog.Int("capacity", capacity),
		slog.String("layout", layout.String()),
		slog.String("flags", options.Flags.String()),
		slog.String("strategy", options.Strategy.String()),
		slog.Bool("addressed", c.hasAddressRange),
	)

	return nil
}

func (c *slabCore) checkLayout(layout Layout, operation string) {
	if layout != c.layout {
		panic(errors.AssertionFailedf("tried to %s an object with layout %s with a slab allocator designated for %s %s",
			operation, layout, c.name, c.layout))
	}
}

// alloc must be called with the mutex held
func (c *slabCore) alloc() (metadata.SlotHandle, uint32, error) {
	if c.destroyed {
		panic(errors.AssertionFailedf("tried to allocate from the destroyed slab for %s", c.name))
	}

	slot, err := c.metadata.Alloc()
	if err != nil {
		return metadata.NoSlot, 0, errors.Wrapf(err, "slab for %s", c.name)
	}
	memutils.DebugValidate(c.metadata)

	return slot, c.generations[slot], nil
}

// free must be called with the mutex held
func (c *slabCore) free(slot metadata.SlotHandle, generation uint32) {
	if c.destroyed {
		panic(errors.AssertionFailedf("tried to deallocate into the destroyed slab for %s", c.name))
	}

	c.checkLive(slot, generation)

	err := c.metadata.Free(slot)
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "tried to deallocate a %s that was not allocated by this allocator", c.name))
	}
	c.generations[slot]++
	memutils.DebugValidate(c.metadata)
}

// checkLive must be called with the mutex held
func (c *slabCore) checkLive(slot metadata.SlotHandle, generation uint32) {
	if slot >= metadata.SlotHandle(c.capacity) || !c.metadata.IsAllocated(slot) || c.generations[slot] != generation {
		panic(errors.AssertionFailedf("handle to slot %d of the slab for %s does not refer to a live object", slot, c.name))
	}
}

func (c *slabCore) addressOf(slot metadata.SlotHandle) (addr.VirtAddr, bool) {
	if !c.hasAddressRange {
		return 0, false
	}
	return c.base.Add(uint64(slot) * uint64(c.layout.Stride())), true
}

// destroy must be called with the mutex held
func (c *slabCore) destroy() error {
	if c.destroyed {
		return nil
	}

	if !c.metadata.IsEmpty() {
		err := c.metadata.VisitAllRegions(func(handle metadata.SlotHandle, slot int, count int, free bool) error {
			if free {
				return nil
			}

			c.logUnreleasedMemory(handle)
			return nil
		})
		if err != nil {
			c.logger.LogAttrs(context.Background(),
				slog.LevelError,
				"[UNRELEASED MEMORY] error while iterating unreleased objects",
				slog.Any("error", err))
		}

		return errors.Newf("%d objects of type %s were not freed before the destruction of their slab", c.metadata.AllocationCount(), c.name)
	}

	c.destroyed = true
	return nil
}

func (c *slabCore) logUnreleasedMemory(slot metadata.SlotHandle) {
	attrs := []slog.Attr{
		slog.String("type", c.name),
		slog.Int("slot", int(slot)),
		slog.Uint64("generation", uint64(c.generations[slot])),
	}
	if address, ok := c.addressOf(slot); ok {
		attrs = append(attrs, slog.String("address", address.String()))
	}

	c.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] unfreed object", attrs...)
}

func (c *slabCore) Name() string { return c.name }

func (c *slabCore) Layout() Layout { return c.layout }

func (c *slabCore) Capacity() int { return c.capacity }

// AddressRange returns the virtual address range reserved for this slab's storage, if it was created
// with an AddressSpace
func (c *slabCore) AddressRange() (start addr.VirtAddr, size uint64, ok bool) {
	if !c.hasAddressRange {
		return 0, 0, false
	}
	return c.base, uint64(c.capacity) * uint64(c.layout.Stride()), true
}

// AllocationCount returns the number of live objects
func (c *slabCore) AllocationCount() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.metadata.AllocationCount()
}

// Validate performs internal consistency checks on the slab's slot bookkeeping
func (c *slabCore) Validate() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(c.generations) != c.metadata.SlotCount() {
		return errors.Errorf("slab tracks %d generations but %d slots", len(c.generations), c.metadata.SlotCount())
	}
	return c.metadata.Validate()
}

func (c *slabCore) AddStatistics(stats *memutils.Statistics) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.metadata.AddStatistics(stats, uint64(c.layout.Stride()))
}

func (c *slabCore) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.metadata.AddDetailedStatistics(stats, uint64(c.layout.Stride()))
}

func (c *slabCore) writeJson(json *jwriter.ObjectState, detailedMap bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	json.Name("Type").String(c.name)
	json.Name("Size").Int(int(c.layout.Size))
	json.Name("Align").Int(int(c.layout.Align))
	if c.hasAddressRange {
		json.Name("Base").String(c.base.String())
	}

	var stats memutils.DetailedStatistics
	stats.Clear()
	c.metadata.AddDetailedStatistics(&stats, uint64(c.layout.Stride()))
	statsObj := json.Name("Stats").Object()
	stats.WriteJson(&statsObj)
	statsObj.End()

	if !detailedMap {
		return
	}

	mapObj := json.Name("Slots").Object()
	c.metadata.BlockJsonData(&mapObj)
	regions := mapObj.Name("Regions").Array()
	_ = c.metadata.VisitAllRegions(func(handle metadata.SlotHandle, slot int, count int, free bool) error {
		obj := regions.Object()
		defer obj.End()

		obj.Name("Slot").Int(slot)
		obj.Name("Count").Int(count)
		obj.Name("Free").Bool(free)
		if !free {
			obj.Name("Generation").Int(int(c.generations[handle]))
		}
		return nil
	})
	regions.End()
	mapObj.End()
}

// BuildStatsString returns a json document describing this slab. If detailedMap is true, every
// live slot and free run is listed.
func (c *slabCore) BuildStatsString(detailedMap bool) string {
	writer := jwriter.NewWriter()
	obj := writer.Object()
	c.writeJson(&obj, detailedMap)
	obj.End()

	return string(writer.Bytes())
}
