package slab

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vesselkit/memcore/memutils"
)

// Layout is the size and alignment of the objects a slab hands out. Two layouts are compatible only
// when they are equal.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// LayoutOf returns the layout of T
func LayoutOf[T any]() Layout {
	var zero T
	return Layout{
		Size:  unsafe.Sizeof(zero),
		Align: unsafe.Alignof(zero),
	}
}

// NewLayout creates a layout from a size and an alignment, which must be a power of two
func NewLayout(size, align uintptr) (Layout, error) {
	if err := memutils.CheckPow2(align, "align"); err != nil {
		return Layout{}, errors.Wrap(err, "invalid layout")
	}

	return Layout{Size: size, Align: align}, nil
}

// Stride is the distance in bytes between two adjacent objects of this layout in an array
func (l Layout) Stride() uintptr {
	memutils.DebugCheckPow2(l.Align, "layout alignment")

	stride := memutils.AlignUp(l.Size, l.Align)
	if stride == 0 {
		// Zero-sized objects still need distinct slots
		return 1
	}
	return stride
}

func (l Layout) String() string {
	return fmt.Sprintf("{size: %d, align: %d}", l.Size, l.Align)
}
