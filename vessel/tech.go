package vessel

import (
	"context"
	"log/slog"

	"github.com/vesselkit/memcore/slab"
)

//go:generate mockgen -destination mocks/mocks.go -package mocks github.com/vesselkit/memcore/vessel Tech,ControlBlock

// ControlBlock is a guest's hardware control structure. A backend hands one out per Vessel, carved
// from its own slab, and gets it back through Release.
type ControlBlock interface {
	// Run enters the guest and returns when it exits
	Run()
	// Release returns the control block to the slab it came from. The control block must not be used afterward.
	Release()
}

// Tech is a hardware virtualization backend
type Tech interface {
	// Name identifies the backend in logs
	Name() string
	// Start performs the backend's one-time hardware enablement. Backends document what happens when
	// the hardware refuses.
	Start()
	// NewControlBlock builds guest state whose execution begins at rip
	NewControlBlock(rip uint64) (ControlBlock, error)
}

// Start enables a backend. It is called once, before the first Vessel is created on it.
func Start(logger *slog.Logger, tech Tech) {
	logger.LogAttrs(context.Background(), slog.LevelInfo, "starting virtualization backend",
		slog.String("tech", tech.Name()))
	tech.Start()
}

// GuestState is a per-guest state type that can live in a slab and be driven as a ControlBlock
type GuestState[T any] interface {
	*T
	Init(rip uint64)
	Run()
}

// SlabControlBlock is a ControlBlock whose state is a T living in a slab.Allocator[T]
type SlabControlBlock[T any, PT GuestState[T]] struct {
	box *slab.Box[T]
}

// NewSlabControlBlock takes a T from allocator and initializes it to begin at rip. Slab exhaustion is
// returned unchanged.
func NewSlabControlBlock[T any, PT GuestState[T]](allocator *slab.Allocator[T], rip uint64) (*SlabControlBlock[T, PT], error) {
	box, err := allocator.New()
	if err != nil {
		return nil, err
	}

	PT(box.Value()).Init(rip)
	return &SlabControlBlock[T, PT]{box: box}, nil
}

// State returns the guest state. The pointer is invalid after Release.
func (c *SlabControlBlock[T, PT]) State() *T {
	return c.box.Value()
}

func (c *SlabControlBlock[T, PT]) Run() {
	PT(c.box.Value()).Run()
}

func (c *SlabControlBlock[T, PT]) Release() {
	c.box.Free()
}
