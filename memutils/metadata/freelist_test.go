package metadata_test

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vesselkit/memcore/memutils"
	"github.com/vesselkit/memcore/memutils/metadata"
)

func TestFreeListAlloc(t *testing.T) {
	slots := metadata.NewFreeListMetadata(metadata.AllocationStrategyMinTime)
	slots.Init(4)

	var stats memutils.DetailedStatistics
	stats.Clear()
	slots.AddDetailedStatistics(&stats, 16)

	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			BlockCount:      1,
			BlockBytes:      64,
			AllocationCount: 0,
			AllocationBytes: 0,
		},
		UnusedRangeCount:   1,
		AllocationSizeMin:  math.MaxUint64,
		AllocationSizeMax:  0,
		UnusedRangeSizeMin: 64,
		UnusedRangeSizeMax: 64,
	}, stats)

	var handles []metadata.SlotHandle
	for i := 0; i < 4; i++ {
		handle, err := slots.Alloc()
		require.NoError(t, err)
		require.Equal(t, metadata.SlotHandle(i), handle)
		handles = append(handles, handle)
	}
	require.NoError(t, slots.Validate())

	_, err := slots.Alloc()
	require.True(t, errors.Is(err, memutils.ErrExhausted))

	require.NoError(t, slots.Free(handles[1]))

	stats.Clear()
	slots.AddDetailedStatistics(&stats, 16)
	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			BlockCount:      1,
			BlockBytes:      64,
			AllocationCount: 3,
			AllocationBytes: 48,
		},
		UnusedRangeCount:   1,
		AllocationSizeMin:  16,
		AllocationSizeMax:  16,
		UnusedRangeSizeMin: 16,
		UnusedRangeSizeMax: 16,
	}, stats)

	// The freed slot is reused before anything else
	handle, err := slots.Alloc()
	require.NoError(t, err)
	require.Equal(t, handles[1], handle)
	require.NoError(t, slots.Validate())
}

func TestFreeListLIFOReuse(t *testing.T) {
	slots := metadata.NewFreeListMetadata(metadata.AllocationStrategyMinTime)
	slots.Init(8)

	for i := 0; i < 5; i++ {
		_, err := slots.Alloc()
		require.NoError(t, err)
	}

	require.NoError(t, slots.Free(0))
	require.NoError(t, slots.Free(3))

	handle, err := slots.Alloc()
	require.NoError(t, err)
	require.Equal(t, metadata.SlotHandle(3), handle)

	handle, err = slots.Alloc()
	require.NoError(t, err)
	require.Equal(t, metadata.SlotHandle(0), handle)

	handle, err = slots.Alloc()
	require.NoError(t, err)
	require.Equal(t, metadata.SlotHandle(5), handle)
	require.NoError(t, slots.Validate())
}

func TestMinOffsetStrategy(t *testing.T) {
	slots := metadata.NewFreeListMetadata(metadata.AllocationStrategyMinOffset)
	slots.Init(130)

	for i := 0; i < 130; i++ {
		_, err := slots.Alloc()
		require.NoError(t, err)
	}

	require.NoError(t, slots.Free(100))
	require.NoError(t, slots.Free(70))
	require.NoError(t, slots.Free(129))

	handle, err := slots.Alloc()
	require.NoError(t, err)
	require.Equal(t, metadata.SlotHandle(70), handle)

	handle, err = slots.Alloc()
	require.NoError(t, err)
	require.Equal(t, metadata.SlotHandle(100), handle)

	handle, err = slots.Alloc()
	require.NoError(t, err)
	require.Equal(t, metadata.SlotHandle(129), handle)

	_, err = slots.Alloc()
	require.True(t, errors.Is(err, memutils.ErrExhausted))
	require.NoError(t, slots.Validate())
}

func TestFreeRejectsForeignHandles(t *testing.T) {
	slots := metadata.NewFreeListMetadata(metadata.AllocationStrategyMinTime)
	slots.Init(4)

	handle, err := slots.Alloc()
	require.NoError(t, err)

	// Never handed out
	require.Error(t, slots.Free(2))
	require.Error(t, slots.Free(metadata.NoSlot))

	require.NoError(t, slots.Free(handle))
	// Double free
	require.Error(t, slots.Free(handle))
	require.NoError(t, slots.Validate())
}

func TestVisitAllRegions(t *testing.T) {
	slots := metadata.NewFreeListMetadata(metadata.AllocationStrategyMinTime)
	slots.Init(6)

	for i := 0; i < 4; i++ {
		_, err := slots.Alloc()
		require.NoError(t, err)
	}
	require.NoError(t, slots.Free(1))
	require.NoError(t, slots.Free(2))

	type region struct {
		handle metadata.SlotHandle
		slot   int
		count  int
		free   bool
	}
	var regions []region
	err := slots.VisitAllRegions(func(handle metadata.SlotHandle, slot int, count int, free bool) error {
		regions = append(regions, region{handle, slot, count, free})
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []region{
		{0, 0, 1, false},
		{metadata.NoSlot, 1, 2, true},
		{3, 3, 1, false},
		{metadata.NoSlot, 4, 2, true},
	}, regions)
	require.Equal(t, 2, slots.FreeRegionsCount())
	require.Equal(t, 4, slots.SumFreeSlots())

	stop := errors.New("stop")
	err = slots.VisitAllRegions(func(handle metadata.SlotHandle, slot int, count int, free bool) error {
		return stop
	})
	require.True(t, errors.Is(err, stop))
}

func TestClear(t *testing.T) {
	slots := metadata.NewFreeListMetadata(metadata.AllocationStrategyMinTime)
	slots.Init(3)

	for i := 0; i < 3; i++ {
		_, err := slots.Alloc()
		require.NoError(t, err)
	}
	require.NoError(t, slots.Free(1))

	slots.Clear()
	require.True(t, slots.IsEmpty())
	require.False(t, slots.IsAllocated(0))
	require.NoError(t, slots.Validate())

	handle, err := slots.Alloc()
	require.NoError(t, err)
	require.Equal(t, metadata.SlotHandle(0), handle)
}

func TestBlockJsonData(t *testing.T) {
	slots := metadata.NewFreeListMetadata(metadata.AllocationStrategyMinOffset)
	slots.Init(2)
	_, err := slots.Alloc()
	require.NoError(t, err)

	writer := jwriter.NewWriter()
	obj := writer.Object()
	slots.BlockJsonData(&obj)
	obj.End()

	require.JSONEq(t, `{"TotalSlots":2,"FreeSlots":1,"Allocations":1,"UnusedRanges":1,"TouchedSlots":1,"Strategy":"MinOffset"}`,
		string(writer.Bytes()))
}
