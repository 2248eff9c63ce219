// Package addr models physical and virtual addresses and the higher-half direct map (HHDM) that
// links them.
package addr

import (
	"fmt"

	"github.com/vesselkit/memcore/memutils"
)

const (
	// PageShift is log2 of PageSize
	PageShift = 12
	// PageSize is the size in bytes of the basic page
	PageSize uint64 = 1 << PageShift
)

// VirtAddr is a virtual address
type VirtAddr uint64

// PhysAddr is a physical address
type PhysAddr uint64

// FromPageIndex returns the virtual address of the first byte of page index
func FromPageIndex(index uint64) VirtAddr {
	return VirtAddr(index << PageShift)
}

// Add offsets the address forward by off bytes
func (a VirtAddr) Add(off uint64) VirtAddr { return a + VirtAddr(off) }

// Sub offsets the address backward by off bytes
func (a VirtAddr) Sub(off uint64) VirtAddr { return a - VirtAddr(off) }

// Diff returns the number of bytes from other up to a. other must not be above a.
func (a VirtAddr) Diff(other VirtAddr) uint64 {
	if other > a {
		panic(fmt.Sprintf("address difference underflows: %s - %s", a, other))
	}
	return uint64(a - other)
}

// IsAligned reports whether the address is a multiple of align, which must be a power of two
func (a VirtAddr) IsAligned(align uint64) bool {
	return memutils.IsAligned(uint64(a), align)
}

// PageIndex returns the index of the page containing the address
func (a VirtAddr) PageIndex() uint64 {
	return uint64(a) >> PageShift
}

// SubtractHHDMOffset returns the physical address backing a virtual address that is HHDM mapped
func (a VirtAddr) SubtractHHDMOffset() PhysAddr {
	return PhysAddr(uint64(a) - HHDMOffset())
}

func (a VirtAddr) String() string {
	return fmt.Sprintf("%#x", uint64(a))
}

// Add offsets the address forward by off bytes
func (a PhysAddr) Add(off uint64) PhysAddr { return a + PhysAddr(off) }

// Sub offsets the address backward by off bytes
func (a PhysAddr) Sub(off uint64) PhysAddr { return a - PhysAddr(off) }

// Diff returns the number of bytes from other up to a. other must not be above a.
func (a PhysAddr) Diff(other PhysAddr) uint64 {
	if other > a {
		panic(fmt.Sprintf("address difference underflows: %s - %s", a, other))
	}
	return uint64(a - other)
}

// IsAligned reports whether the address is a multiple of align, which must be a power of two
func (a PhysAddr) IsAligned(align uint64) bool {
	return memutils.IsAligned(uint64(a), align)
}

// AddHHDMOffset returns the HHDM-mapped virtual address of a physical address
func (a PhysAddr) AddHHDMOffset() VirtAddr {
	return VirtAddr(uint64(a) + HHDMOffset())
}

func (a PhysAddr) String() string {
	return fmt.Sprintf("%#x", uint64(a))
}
