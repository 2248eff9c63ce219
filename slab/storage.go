package slab

import (
	"unsafe"

	"github.com/vesselkit/memcore/memutils"
)

// Storage is the backing memory of a RawAllocator
type Storage interface {
	// Bytes returns the backing memory. Its first byte satisfies the alignment the storage was
	// created with.
	Bytes() []byte
	// Release returns the memory to wherever it came from. Bytes must not be used afterward.
	Release() error
}

type heapStorage struct {
	data []byte
}

// NewHeapStorage allocates size bytes from the Go heap whose first byte is aligned to align, which
// must be a power of two
func NewHeapStorage(size int, align uintptr) Storage {
	buffer := make([]byte, size+int(align)-1)
	if len(buffer) == 0 {
		return &heapStorage{}
	}

	start := uintptr(unsafe.Pointer(&buffer[0]))
	padding := int(memutils.AlignUp(start, align) - start)
	return &heapStorage{data: buffer[padding : padding+size : padding+size]}
}

func (s *heapStorage) Bytes() []byte {
	return s.data
}

func (s *heapStorage) Release() error {
	s.data = nil
	return nil
}
