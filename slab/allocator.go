package slab

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/vesselkit/memcore/addr"
	"github.com/vesselkit/memcore/memutils/metadata"
)

// Allocator is a fixed-capacity pool of objects of exactly one type. Every request must carry T's
// layout; a request for any other layout is a programmer error and panics rather than corrupting the
// pool's bookkeeping.
//
// An Allocator is safe for concurrent use unless it was created with CreateExternallySynchronized.
type Allocator[T any] struct {
	slabCore

	slots []T
}

// New creates a slab able to hold capacity objects of type T
//
// logger - receives debug output and reports of unreleased objects
//
// capacity - the number of objects the slab can hold at once. The slab never grows.
//
// options - Optional parameters: it is valid to leave all the fields blank
func New[T any](logger *slog.Logger, capacity int, options CreateOptions) (*Allocator[T], error) {
	a := &Allocator[T]{}

	err := a.slabCore.init(logger, typeName[T](), LayoutOf[T](), capacity, options)
	if err != nil {
		return nil, err
	}

	a.slots = make([]T, capacity)
	return a, nil
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

// Allocate reserves one slot for a T. layout must equal LayoutOf[T](); anything else panics. If every
// slot is live, an error wrapping memutils.ErrExhausted is returned. The slot holds T's zero value.
func (a *Allocator[T]) Allocate(layout Layout) (Handle[T], error) {
	a.checkLayout(layout, "allocate")

	a.mutex.Lock()
	defer a.mutex.Unlock()

	slot, generation, err := a.alloc()
	if err != nil {
		return Handle[T]{}, err
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "Allocator::Allocate",
		slog.String("type", a.name),
		slog.Int("slot", int(slot)))

	return Handle[T]{
		owner:      a,
		slot:       slot,
		generation: generation,
	}, nil
}

// Deallocate returns a slot to the slab. layout must equal LayoutOf[T](), and handle must refer to
// an object this slab handed out that has not been deallocated since; anything else panics.
func (a *Allocator[T]) Deallocate(handle Handle[T], layout Layout) {
	a.checkLayout(layout, "deallocate")

	if handle.owner != a {
		panic(errors.AssertionFailedf("tried to deallocate a %s that was not allocated by this allocator", a.name))
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.free(handle.slot, handle.generation)

	// Drop references held by the old occupant so the garbage collector can reclaim them
	var zero T
	a.slots[handle.slot] = zero

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "Allocator::Deallocate",
		slog.String("type", a.name),
		slog.Int("slot", int(handle.slot)))
}

// New allocates a zeroed T and returns an owning Box for it
func (a *Allocator[T]) New() (*Box[T], error) {
	handle, err := a.Allocate(LayoutOf[T]())
	if err != nil {
		return nil, err
	}

	return &Box[T]{handle: handle}, nil
}

// Destroy releases the slab's storage. If any objects are still live, each is logged and an error is
// returned instead. Any use of the slab after a successful Destroy panics.
func (a *Allocator[T]) Destroy() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	err := a.destroy()
	if err != nil {
		return err
	}

	a.slots = nil
	return nil
}

func (a *Allocator[T]) value(handle Handle[T]) *T {
	if handle.owner != a {
		panic(errors.AssertionFailedf("tried to access a %s through a handle that was not allocated by this allocator", a.name))
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.checkLive(handle.slot, handle.generation)
	return &a.slots[handle.slot]
}

// Handle refers to one object in an Allocator. The zero Handle refers to nothing.
type Handle[T any] struct {
	owner      *Allocator[T]
	slot       metadata.SlotHandle
	generation uint32
}

// IsNil reports whether the handle is the zero Handle
func (h Handle[T]) IsNil() bool {
	return h.owner == nil
}

// Slot returns the index of the object within its slab
func (h Handle[T]) Slot() int {
	return int(h.slot)
}

// Value returns a pointer to the object. The pointer must not be used after the handle is deallocated.
// Calling Value on a handle that has been deallocated panics.
func (h Handle[T]) Value() *T {
	if h.owner == nil {
		panic("called Value on a nil slab handle")
	}
	return h.owner.value(h)
}

// Addr returns the virtual address of the object if its slab was created with an AddressSpace
func (h Handle[T]) Addr() (addr.VirtAddr, bool) {
	if h.owner == nil {
		return 0, false
	}
	return h.owner.addressOf(h.slot)
}

// Box exclusively owns one object allocated from a slab. The object is returned to its slab with Free.
type Box[T any] struct {
	handle Handle[T]
}

// Value returns a pointer to the boxed object
func (b *Box[T]) Value() *T {
	return b.handle.Value()
}

// Handle returns the slab handle of the boxed object
func (b *Box[T]) Handle() Handle[T] {
	return b.handle
}

// Free returns the boxed object to its slab. Freeing a Box twice panics.
func (b *Box[T]) Free() {
	if b.handle.owner == nil {
		panic("called Free on an empty slab box")
	}
	b.handle.owner.Deallocate(b.handle, LayoutOf[T]())
}
