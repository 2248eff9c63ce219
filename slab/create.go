package slab

import (
	"strings"

	"github.com/vesselkit/memcore/addr"
	"github.com/vesselkit/memcore/memutils/metadata"
)

// CreateFlags indicate specific slab behaviors to activate or deactivate
type CreateFlags int32

const (
	// CreateExternallySynchronized ensures that this slab will not be synchronized internally. The consumer
	// must guarantee it is used from only one goroutine at a time or is synchronized by some other mechanism.
	CreateExternallySynchronized CreateFlags = 1 << iota
	// CreateMmapStorage backs a RawAllocator with an anonymous memory mapping instead of the Go heap.
	// Platforms without mmap fall back to the Go heap. Typed allocators ignore this flag because their
	// objects may hold Go pointers.
	CreateMmapStorage
)

var createFlagsMapping = map[CreateFlags]string{
	CreateExternallySynchronized: "CreateExternallySynchronized",
	CreateMmapStorage:            "CreateMmapStorage",
}

func (f CreateFlags) String() string {
	if f == 0 {
		return "None"
	}

	var names []string
	for flag := CreateExternallySynchronized; flag <= CreateMmapStorage; flag <<= 1 {
		if f&flag != 0 {
			names = append(names, createFlagsMapping[flag])
		}
	}
	return strings.Join(names, "|")
}

// AddressReserver hands out page-aligned virtual address ranges. It is satisfied by the virtual
// address allocator.
type AddressReserver interface {
	Reserve(count uint64, alignment uint64) (addr.VirtAddr, error)
}

// CreateOptions contains optional settings when creating a slab
type CreateOptions struct {
	// Flags indicates specific slab behaviors to activate or deactivate
	Flags CreateFlags
	// Strategy chooses which free slot is handed out next. The zero value is
	// metadata.AllocationStrategyMinTime.
	Strategy metadata.AllocationStrategy
	// AddressSpace is optional. When it is provided, the slab reserves a virtual address range large
	// enough for all of its slots at creation time, and every object has a stable virtual address
	// within it.
	AddressSpace AddressReserver
}
