//go:build unix

package slab

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

type mmapStorage struct {
	data []byte
}

// NewMmapStorage maps size bytes of anonymous, private, zero-filled memory. The mapping is page
// aligned, which satisfies any object alignment up to the page size.
func NewMmapStorage(size int) (Storage, error) {
	if size == 0 {
		return &mmapStorage{}, nil
	}

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrapf(err, "could not map %d bytes of slab storage", size)
	}

	return &mmapStorage{data: data}, nil
}

func (s *mmapStorage) Bytes() []byte {
	return s.data
}

func (s *mmapStorage) Release() error {
	if s.data == nil {
		return nil
	}

	err := unix.Munmap(s.data)
	s.data = nil
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}
