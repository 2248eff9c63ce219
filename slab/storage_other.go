//go:build !unix

package slab

// NewMmapStorage falls back to the Go heap on platforms without mmap
func NewMmapStorage(size int) (Storage, error) {
	return NewHeapStorage(size, 4096), nil
}
