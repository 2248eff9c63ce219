package utils

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// spinsBeforeYield is the number of failed attempts after which a waiter yields its P
const spinsBeforeYield = 128

// SpinMutex is a busy-wait mutual exclusion lock. It is not reentrant: a holder that calls Lock
// again deadlocks. There is no fairness between waiters.
type SpinMutex struct {
	state atomic.Uint32
}

var _ sync.Locker = &SpinMutex{}

func (m *SpinMutex) Lock() {
	for spins := 0; !m.state.CompareAndSwap(0, 1); spins++ {
		if spins == spinsBeforeYield {
			runtime.Gosched()
			spins = 0
		}
	}
}

func (m *SpinMutex) TryLock() bool {
	return m.state.CompareAndSwap(0, 1)
}

func (m *SpinMutex) Unlock() {
	if !m.state.CompareAndSwap(1, 0) {
		panic("unlock of unlocked SpinMutex")
	}
}

type OptionalMutex struct {
	Mutex    SpinMutex
	UseMutex bool
}

func (m *OptionalMutex) Lock() {
	if m.UseMutex {
		m.Mutex.Lock()
	}
}

func (m *OptionalMutex) Unlock() {
	if m.UseMutex {
		m.Mutex.Unlock()
	}
}

// SpinLock guards a single value behind a SpinMutex. It is the one access point for a process-wide
// singleton; callers must never hold two SpinLocks at once.
type SpinLock[T any] struct {
	mutex SpinMutex
	value T
}

// NewSpinLock creates a SpinLock guarding value
func NewSpinLock[T any](value T) *SpinLock[T] {
	return &SpinLock[T]{value: value}
}

// With runs fn with exclusive access to the guarded value and releases the lock when fn returns,
// including when it panics.
func (l *SpinLock[T]) With(fn func(value *T)) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	fn(&l.value)
}
