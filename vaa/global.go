package vaa

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vesselkit/memcore/addr"
	"github.com/vesselkit/memcore/internal/utils"
	"github.com/vesselkit/memcore/memutils"
)

type globalState struct {
	allocator   *Allocator
	initialized bool
}

var global = utils.NewSpinLock(globalState{allocator: newUninit()})

// Init replaces the process-wide allocator with one starting at start. It succeeds at most once;
// later calls return an error wrapping memutils.ErrAlreadyInitialized. Boot code treats any error as fatal.
// Init belongs before the first handout; pages already handed out by the placeholder are logged as a
// warning.
func Init(logger *slog.Logger, start addr.VirtAddr, options CreateOptions) error {
	var err error
	global.With(func(state *globalState) {
		if state.initialized {
			err = errors.Wrapf(memutils.ErrAlreadyInitialized, "virtual address allocator was already initialized at %s",
				state.allocator.Start())
			return
		}

		var allocator *Allocator
		allocator, err = New(logger, start, options)
		if err != nil {
			return
		}

		if consumed := state.allocator.consumedPages(); consumed > 0 {
			logger.LogAttrs(context.Background(), slog.LevelWarn,
				"virtual address allocator initialized after the placeholder handed out pages",
				slog.Uint64("pages", consumed),
				slog.String("start", start.String()))
		}

		state.allocator = allocator
		state.initialized = true
	})
	return err
}

// Initialized reports whether Init has succeeded
func Initialized() bool {
	var initialized bool
	global.With(func(state *globalState) {
		initialized = state.initialized
	})
	return initialized
}

// GlobalAllocator is a handle on the process-wide allocator. Every method takes the global lock for
// the duration of the call. The zero value is ready to use.
type GlobalAllocator struct{}

// Global returns a handle on the process-wide allocator
func Global() GlobalAllocator {
	return GlobalAllocator{}
}

// With runs fn with exclusive access to the process-wide allocator. fn must not retain the pointer.
func (GlobalAllocator) With(fn func(allocator *Allocator)) {
	global.With(func(state *globalState) {
		fn(state.allocator)
	})
}

// Reserve reserves pages from the process-wide allocator. See Allocator.Reserve.
func (g GlobalAllocator) Reserve(count uint64, alignment uint64) (addr.VirtAddr, error) {
	var start addr.VirtAddr
	var err error
	g.With(func(allocator *Allocator) {
		start, err = allocator.Reserve(count, alignment)
	})
	return start, err
}

// Handout reserves pages from the process-wide allocator and panics if it is exhausted
func (g GlobalAllocator) Handout(count uint64, alignment uint64) addr.VirtAddr {
	start, err := g.Reserve(count, alignment)
	if err != nil {
		panic(err)
	}
	return start
}

// BuildStatsString returns a json document describing the process-wide allocator
func (g GlobalAllocator) BuildStatsString() string {
	var stats string
	g.With(func(allocator *Allocator) {
		stats = allocator.BuildStatsString()
	})
	return stats
}

// Handout reserves count pages aligned to alignment from the process-wide allocator. Exhaustion panics.
func Handout(count uint64, alignment uint64) addr.VirtAddr {
	return Global().Handout(count, alignment)
}
