package slab_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vesselkit/memcore/memutils"
	"github.com/vesselkit/memcore/slab"
)

func TestRawAllocateRoundTrip(t *testing.T) {
	for _, flags := range []slab.CreateFlags{0, slab.CreateMmapStorage} {
		t.Run(flags.String(), func(t *testing.T) {
			layout, err := slab.NewLayout(48, 16)
			require.NoError(t, err)

			allocator, err := slab.NewRaw(discardLogger(), layout, 2, slab.CreateOptions{Flags: flags})
			require.NoError(t, err)

			var memory slab.MemoryAllocator = allocator

			first, err := memory.Allocate(layout)
			require.NoError(t, err)
			require.Len(t, first.Bytes(), 48)
			require.Equal(t, uint64(0), first.Offset())
			for i := range first.Bytes() {
				first.Bytes()[i] = 0xAB
			}

			second, err := memory.Allocate(layout)
			require.NoError(t, err)
			require.Equal(t, uint64(48), second.Offset())
			require.Equal(t, make([]byte, 48), second.Bytes())

			_, err = memory.Allocate(layout)
			require.True(t, errors.Is(err, memutils.ErrExhausted))

			memory.Deallocate(first, layout)
			again, err := memory.Allocate(layout)
			require.NoError(t, err)
			require.Equal(t, first.Offset(), again.Offset())
			require.Equal(t, make([]byte, 48), again.Bytes())

			memory.Deallocate(again, layout)
			memory.Deallocate(second, layout)
			require.NoError(t, allocator.Validate())
			require.NoError(t, allocator.Destroy())
		})
	}
}

func TestRawLayoutGuard(t *testing.T) {
	layout, err := slab.NewLayout(32, 8)
	require.NoError(t, err)
	allocator, err := slab.NewRaw(discardLogger(), layout, 1, slab.CreateOptions{})
	require.NoError(t, err)

	require.Panics(t, func() {
		_, _ = allocator.Allocate(slab.Layout{Size: 64, Align: 8})
	})

	block, err := allocator.Allocate(layout)
	require.NoError(t, err)
	require.Panics(t, func() {
		allocator.Deallocate(block, slab.Layout{Size: 32, Align: 4})
	})
	require.Panics(t, func() {
		allocator.Deallocate(slab.Block{}, layout)
	})

	allocator.Deallocate(block, layout)
	require.Panics(t, func() {
		allocator.Deallocate(block, layout)
	})
}

func TestRawForeignBlock(t *testing.T) {
	layout, err := slab.NewLayout(8, 8)
	require.NoError(t, err)

	first, err := slab.NewRaw(discardLogger(), layout, 1, slab.CreateOptions{})
	require.NoError(t, err)
	second, err := slab.NewRaw(discardLogger(), layout, 1, slab.CreateOptions{})
	require.NoError(t, err)

	block, err := first.Allocate(layout)
	require.NoError(t, err)
	require.Panics(t, func() {
		second.Deallocate(block, layout)
	})
}

func TestRawAlignment(t *testing.T) {
	layout, err := slab.NewLayout(24, 64)
	require.NoError(t, err)
	require.Equal(t, uintptr(64), layout.Stride())

	allocator, err := slab.NewRaw(discardLogger(), layout, 3, slab.CreateOptions{})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		block, err := allocator.Allocate(layout)
		require.NoError(t, err)
		require.Equal(t, uint64(i*64), block.Offset())
		require.Len(t, block.Bytes(), 24)
	}
}

func TestInvalidLayout(t *testing.T) {
	_, err := slab.NewLayout(24, 12)
	require.True(t, errors.Is(err, memutils.PowerOfTwoError))

	_, err = slab.NewRaw(discardLogger(), slab.Layout{Size: 8, Align: 3}, 1, slab.CreateOptions{})
	require.True(t, errors.Is(err, memutils.PowerOfTwoError))
}

func TestZeroSizedLayoutStride(t *testing.T) {
	require.Equal(t, uintptr(1), slab.LayoutOf[struct{}]().Stride())
}
