package vessel_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vesselkit/memcore/id"
	"github.com/vesselkit/memcore/memutils"
	"github.com/vesselkit/memcore/sched"
	"github.com/vesselkit/memcore/vessel"
	"github.com/vesselkit/memcore/vessel/mocks"
	"go.uber.org/mock/gomock"
)

var _ sched.Schedulable = (*vessel.Vessel)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func mockTech(ctrl *gomock.Controller) *mocks.MockTech {
	tech := mocks.NewMockTech(ctrl)
	tech.EXPECT().Name().Return("mock").AnyTimes()
	return tech
}

func TestNewDrawsIncreasingIds(t *testing.T) {
	ctrl := gomock.NewController(t)
	tech := mockTech(ctrl)
	tech.EXPECT().NewControlBlock(uint64(0x7c00)).Return(mocks.NewMockControlBlock(ctrl), nil).Times(2)

	first, err := vessel.New(tech, 0x7c00)
	require.NoError(t, err)
	second, err := vessel.New(tech, 0x7c00)
	require.NoError(t, err)

	require.True(t, second.ID() > first.ID())
	require.Equal(t, vessel.StateConstructed, first.State())
	require.Same(t, tech, second.Tech())
}

func TestNewSurfacesControlBlockErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	tech := mockTech(ctrl)
	tech.EXPECT().NewControlBlock(uint64(0x1000)).Return(nil, errors.Wrap(memutils.ErrExhausted, "no room"))

	v, err := vessel.New(tech, 0x1000)
	require.Nil(t, v)
	require.True(t, errors.Is(err, memutils.ErrExhausted))
}

func TestLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	tech := mockTech(ctrl)
	block := mocks.NewMockControlBlock(ctrl)
	tech.EXPECT().NewControlBlock(uint64(0x100000)).Return(block, nil)

	v, err := vessel.New(tech, 0x100000)
	require.NoError(t, err)

	require.Panics(t, v.Run)

	v.MarkScheduled()
	require.Equal(t, vessel.StateScheduled, v.State())
	require.Panics(t, v.MarkScheduled)

	block.EXPECT().Run().Do(func() {
		require.Equal(t, vessel.StateRunning, v.State())
	}).Times(2)
	v.Run()
	require.Equal(t, vessel.StateExited, v.State())
	v.Run()
	require.Equal(t, vessel.StateExited, v.State())

	block.EXPECT().Release()
	v.Destroy()
	require.Equal(t, vessel.StateDestroyed, v.State())
	require.True(t, vessel.IsRetired(v.ID()))

	require.Panics(t, v.Run)
	require.Panics(t, v.Destroy)
	require.Panics(t, v.MarkScheduled)
}

func TestRunningVesselCannotBeDestroyed(t *testing.T) {
	ctrl := gomock.NewController(t)
	tech := mockTech(ctrl)
	block := mocks.NewMockControlBlock(ctrl)
	tech.EXPECT().NewControlBlock(gomock.Any()).Return(block, nil)

	v, err := vessel.New(tech, 0)
	require.NoError(t, err)
	v.MarkScheduled()

	block.EXPECT().Run().Do(func() {
		require.Panics(t, v.Destroy)
	})
	v.Run()

	block.EXPECT().Release()
	v.Destroy()
}

func TestGuestPanicStillExits(t *testing.T) {
	ctrl := gomock.NewController(t)
	tech := mockTech(ctrl)
	block := mocks.NewMockControlBlock(ctrl)
	tech.EXPECT().NewControlBlock(gomock.Any()).Return(block, nil)

	v, err := vessel.New(tech, 0)
	require.NoError(t, err)
	v.MarkScheduled()

	block.EXPECT().Run().Do(func() {
		panic("triple fault")
	})
	require.Panics(t, v.Run)
	require.Equal(t, vessel.StateExited, v.State())
}

func TestStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	tech := mockTech(ctrl)
	tech.EXPECT().Start()

	vessel.Start(discardLogger(), tech)
}

func TestScheduleAndRetire(t *testing.T) {
	ctrl := gomock.NewController(t)
	tech := mockTech(ctrl)
	block := mocks.NewMockControlBlock(ctrl)
	tech.EXPECT().NewControlBlock(gomock.Any()).Return(block, nil)

	table := sched.NewTable()
	v, err := vessel.New(tech, 0x7c00)
	require.NoError(t, err)

	require.NoError(t, vessel.Schedule(table, v))
	require.Equal(t, vessel.StateScheduled, v.State())
	require.Equal(t, 1, table.Len())
	require.Error(t, vessel.Schedule(table, v))

	block.EXPECT().Run()
	require.Equal(t, 1, table.RunOnce())
	require.Equal(t, vessel.StateExited, v.State())

	retiredBefore := vessel.RetiredCount()
	block.EXPECT().Release()
	vessel.Retire(table, v)
	require.Equal(t, 0, table.Len())
	require.Equal(t, retiredBefore+1, vessel.RetiredCount())

	require.Error(t, vessel.Schedule(table, v))
	require.Equal(t, 0, table.Len())
}

func TestScheduleIntoSecondTable(t *testing.T) {
	ctrl := gomock.NewController(t)
	tech := mockTech(ctrl)
	block := mocks.NewMockControlBlock(ctrl)
	tech.EXPECT().NewControlBlock(gomock.Any()).Return(block, nil)

	first := sched.NewTable()
	second := sched.NewTable()
	v, err := vessel.New(tech, 0x7c00)
	require.NoError(t, err)

	require.NoError(t, vessel.Schedule(first, v))
	require.Error(t, vessel.Schedule(second, v))
	require.Equal(t, 0, second.Len())
	require.Equal(t, 1, first.Len())
	require.Equal(t, vessel.StateScheduled, v.State())

	// A vessel that already ran and was dropped from its table is not Constructed either
	block.EXPECT().Run()
	require.Equal(t, 1, first.RunOnce())
	require.True(t, first.Remove(v.ID()))
	require.Error(t, vessel.Schedule(second, v))
	require.Equal(t, 0, second.Len())
	require.Equal(t, vessel.StateExited, v.State())
}

// occupant holds an id in a table without being a vessel
type occupant struct {
	id id.Id
}

func (o occupant) ID() id.Id {
	return o.id
}

func (o occupant) Run() {}

func TestScheduleRollsBackOnTableConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	tech := mockTech(ctrl)
	tech.EXPECT().NewControlBlock(gomock.Any()).Return(mocks.NewMockControlBlock(ctrl), nil)

	v, err := vessel.New(tech, 0x7c00)
	require.NoError(t, err)

	table := sched.NewTable()
	require.NoError(t, table.Add(occupant{id: v.ID()}))

	require.Error(t, vessel.Schedule(table, v))
	require.Equal(t, vessel.StateConstructed, v.State())
	require.Equal(t, 1, table.Len())

	require.True(t, table.Remove(v.ID()))
	require.NoError(t, vessel.Schedule(table, v))
	require.Equal(t, vessel.StateScheduled, v.State())
}

func TestStateString(t *testing.T) {
	require.Equal(t, "Running", vessel.StateRunning.String())
	require.Equal(t, "State(9)", vessel.State(9).String())
}
