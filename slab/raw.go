package slab

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vesselkit/memcore/addr"
	"github.com/vesselkit/memcore/memutils"
	"github.com/vesselkit/memcore/memutils/metadata"
)

// MemoryAllocator is the general-purpose allocation capability: callers describe what they need with a
// Layout and get back a Block of memory. Implementations may be pinned to a single layout, in which
// case any other layout panics.
type MemoryAllocator interface {
	Allocate(layout Layout) (Block, error)
	Deallocate(block Block, layout Layout)
}

// Block is a region of memory handed out by a RawAllocator. The zero Block refers to nothing.
type Block struct {
	owner      *RawAllocator
	slot       metadata.SlotHandle
	generation uint32
	data       []byte
}

// IsNil reports whether the block is the zero Block
func (b Block) IsNil() bool {
	return b.owner == nil
}

// Bytes returns the block's memory. It must not be used after the block is deallocated.
func (b Block) Bytes() []byte {
	return b.data
}

// Offset returns the block's offset in bytes from the start of its slab's storage
func (b Block) Offset() uint64 {
	if b.owner == nil {
		return 0
	}
	return uint64(b.slot) * uint64(b.owner.layout.Stride())
}

// Addr returns the virtual address of the block if its slab was created with an AddressSpace
func (b Block) Addr() (addr.VirtAddr, bool) {
	if b.owner == nil {
		return 0, false
	}
	return b.owner.addressOf(b.slot)
}

// RawAllocator is a fixed-capacity pool of untyped, equally-sized blocks of bytes. It is pinned to the
// layout it was created with.
type RawAllocator struct {
	slabCore

	storage Storage
}

var _ MemoryAllocator = &RawAllocator{}

// NewRaw creates a slab able to hold capacity blocks of the provided layout
func NewRaw(logger *slog.Logger, layout Layout, capacity int, options CreateOptions) (*RawAllocator, error) {
	if err := memutils.CheckPow2(layout.Align, "layout alignment"); err != nil {
		return nil, err
	}

	a := &RawAllocator{}
	err := a.slabCore.init(logger, fmt.Sprintf("raw%s", layout), layout, capacity, options)
	if err != nil {
		return nil, err
	}

	size := capacity * int(layout.Stride())
	if options.Flags&CreateMmapStorage != 0 && uint64(layout.Align) <= addr.PageSize {
		a.storage, err = NewMmapStorage(size)
		if err != nil {
			return nil, err
		}
	} else {
		a.storage = NewHeapStorage(size, layout.Align)
	}

	return a, nil
}

func (a *RawAllocator) slotBytes(slot metadata.SlotHandle) []byte {
	start := int(slot) * int(a.layout.Stride())
	end := start + int(a.layout.Size)
	return a.storage.Bytes()[start:end:end]
}

// Allocate reserves one block. layout must equal the slab's layout; anything else panics. If every
// block is live, an error wrapping memutils.ErrExhausted is returned. The block is zeroed.
func (a *RawAllocator) Allocate(layout Layout) (Block, error) {
	a.checkLayout(layout, "allocate")

	a.mutex.Lock()
	defer a.mutex.Unlock()

	slot, generation, err := a.alloc()
	if err != nil {
		return Block{}, err
	}

	data := a.slotBytes(slot)
	if generation > 0 && !memutils.ValidateMagicValue(data) {
		panic(errors.AssertionFailedf("slot %d of the slab for %s was written to after it was freed", slot, a.name))
	}
	clear(data)

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "RawAllocator::Allocate",
		slog.String("layout", a.layout.String()),
		slog.Int("slot", int(slot)))

	return Block{
		owner:      a,
		slot:       slot,
		generation: generation,
		data:       data,
	}, nil
}

// Deallocate returns a block to the slab. layout must equal the slab's layout, and block must have been
// handed out by this slab and not deallocated since; anything else panics.
func (a *RawAllocator) Deallocate(block Block, layout Layout) {
	a.checkLayout(layout, "deallocate")

	if block.owner != a {
		panic(errors.AssertionFailedf("tried to deallocate a block that was not allocated by this allocator"))
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.free(block.slot, block.generation)
	memutils.WriteMagicValue(a.slotBytes(block.slot))

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "RawAllocator::Deallocate",
		slog.String("layout", a.layout.String()),
		slog.Int("slot", int(block.slot)))
}

// Destroy releases the slab's storage. If any blocks are still live, each is logged and an error is
// returned instead. Any use of the slab after a successful Destroy panics.
func (a *RawAllocator) Destroy() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	err := a.destroy()
	if err != nil {
		return err
	}

	return a.storage.Release()
}
