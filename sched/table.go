// Package sched is the boundary between guests and the scheduler. The scheduler's run loop lives
// elsewhere; this package only tracks what is runnable.
package sched

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vesselkit/memcore/id"
	"github.com/vesselkit/memcore/internal/utils"
)

//go:generate mockgen -destination mocks/mocks.go -package mocks github.com/vesselkit/memcore/sched Schedulable

// Schedulable is anything the scheduler can run
type Schedulable interface {
	ID() id.Id
	Run()
}

// Table is the set of registered Schedulables, keyed by id. It is safe for concurrent use.
type Table struct {
	entries *utils.SpinLock[*swiss.Map[id.Id, Schedulable]]
}

// NewTable creates an empty Table
func NewTable() *Table {
	return &Table{
		entries: utils.NewSpinLock(swiss.NewMap[id.Id, Schedulable](16)),
	}
}

// Add registers s. Registering an id that is already present is an error.
func (t *Table) Add(s Schedulable) error {
	var err error
	t.entries.With(func(entries **swiss.Map[id.Id, Schedulable]) {
		if (*entries).Has(s.ID()) {
			err = errors.Newf("%s is already registered", s.ID())
			return
		}
		(*entries).Put(s.ID(), s)
	})
	return err
}

// Remove unregisters the entry with the given id and reports whether one was present
func (t *Table) Remove(entryId id.Id) bool {
	var removed bool
	t.entries.With(func(entries **swiss.Map[id.Id, Schedulable]) {
		removed = (*entries).Delete(entryId)
	})
	return removed
}

// Get returns the entry with the given id
func (t *Table) Get(entryId id.Id) (Schedulable, bool) {
	var entry Schedulable
	var ok bool
	t.entries.With(func(entries **swiss.Map[id.Id, Schedulable]) {
		entry, ok = (*entries).Get(entryId)
	})
	return entry, ok
}

// Len returns the number of registered entries
func (t *Table) Len() int {
	var count int
	t.entries.With(func(entries **swiss.Map[id.Id, Schedulable]) {
		count = (*entries).Count()
	})
	return count
}

// Snapshot returns the registered entries in increasing id order
func (t *Table) Snapshot() []Schedulable {
	var snapshot []Schedulable
	t.entries.With(func(entries **swiss.Map[id.Id, Schedulable]) {
		snapshot = make([]Schedulable, 0, (*entries).Count())
		(*entries).Iter(func(_ id.Id, entry Schedulable) bool {
			snapshot = append(snapshot, entry)
			return false
		})
	})

	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].ID() < snapshot[j].ID()
	})
	return snapshot
}

// RunOnce runs every registered entry once, in increasing id order, and returns how many ran. Entries
// run without the table locked, so they may add or remove entries; changes apply from the next pass.
func (t *Table) RunOnce() int {
	snapshot := t.Snapshot()
	for _, entry := range snapshot {
		entry.Run()
	}
	return len(snapshot)
}
