// Package vessel models guest virtual machines. A Vessel pairs a VM id with the control block its
// virtualization backend built for it, and tracks where the guest is in its lifecycle.
package vessel

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vesselkit/memcore/id"
	"github.com/vesselkit/memcore/internal/utils"
	"github.com/vesselkit/memcore/sched"
)

// MaxVMId is the largest VM id that will ever be handed out
const MaxVMId id.Id = 0xffff_ffff

type vmIds struct {
	hander  *id.Hander
	retired *swiss.Map[id.Id, struct{}]
}

var vmIdState = utils.NewSpinLock(vmIds{
	hander:  id.New(MaxVMId),
	retired: swiss.NewMap[id.Id, struct{}](64),
})

func nextVMId() id.Id {
	var vmId id.Id
	var ok bool
	vmIdState.With(func(ids *vmIds) {
		vmId, ok = ids.hander.Handout()
	})
	if !ok {
		panic(errors.AssertionFailedf("VM ids exhausted after %d", MaxVMId))
	}
	return vmId
}

func retire(vmId id.Id) {
	vmIdState.With(func(ids *vmIds) {
		ids.retired.Put(vmId, struct{}{})
	})
}

// IsRetired reports whether the Vessel holding vmId has been destroyed
func IsRetired(vmId id.Id) bool {
	var retired bool
	vmIdState.With(func(ids *vmIds) {
		retired = ids.retired.Has(vmId)
	})
	return retired
}

// RetiredCount returns the number of Vessels destroyed so far
func RetiredCount() int {
	var count int
	vmIdState.With(func(ids *vmIds) {
		count = ids.retired.Count()
	})
	return count
}

// State is a Vessel's position in its lifecycle
type State int32

const (
	StateConstructed State = iota
	StateScheduled
	StateRunning
	StateExited
	StateDestroyed
)

var stateMapping = map[State]string{
	StateConstructed: "Constructed",
	StateScheduled:   "Scheduled",
	StateRunning:     "Running",
	StateExited:      "Exited",
	StateDestroyed:   "Destroyed",
}

func (s State) String() string {
	str, ok := stateMapping[s]
	if !ok {
		return fmt.Sprintf("State(%d)", int32(s))
	}
	return str
}

// Vessel is one guest virtual machine. Its lifecycle is
// Constructed -> Scheduled -> Running <-> Exited -> Destroyed, and any other transition panics.
type Vessel struct {
	id    id.Id
	tech  Tech
	block ControlBlock

	mutex utils.SpinMutex
	state State
}

// New creates a Vessel on tech whose guest begins executing at rip. It takes a fresh VM id, which
// panics once every id has been used. An error from the backend building the control block is returned
// as-is; the VM id is still consumed.
func New(tech Tech, rip uint64) (*Vessel, error) {
	vmId := nextVMId()

	block, err := tech.NewControlBlock(rip)
	if err != nil {
		return nil, errors.Wrapf(err, "%s could not build a control block for vessel %s", tech.Name(), vmId)
	}

	return &Vessel{
		id:    vmId,
		tech:  tech,
		block: block,
		state: StateConstructed,
	}, nil
}

// ID returns the Vessel's VM id
func (v *Vessel) ID() id.Id {
	return v.id
}

// Tech returns the backend the Vessel runs on
func (v *Vessel) Tech() Tech {
	return v.tech
}

// State returns the Vessel's current lifecycle state
func (v *Vessel) State() State {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	return v.state
}

func (v *Vessel) tryTransition(to State, from ...State) (State, bool) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	for _, allowed := range from {
		if v.state == allowed {
			v.state = to
			return allowed, true
		}
	}
	return v.state, false
}

func (v *Vessel) transition(to State, from ...State) {
	current, ok := v.tryTransition(to, from...)
	if !ok {
		panic(errors.AssertionFailedf("vessel %s cannot move from %s to %s", v.id, current, to))
	}
}

// MarkScheduled records that the Vessel has been handed to a scheduler
func (v *Vessel) MarkScheduled() {
	v.transition(StateScheduled, StateConstructed)
}

// Run enters the guest through its control block and returns when the guest exits. The Vessel must be
// Scheduled or Exited.
func (v *Vessel) Run() {
	v.transition(StateRunning, StateScheduled, StateExited)
	defer v.transition(StateExited, StateRunning)

	v.block.Run()
}

// Destroy returns the control block to its backend and retires the VM id. A running Vessel cannot be
// destroyed. Callers remove the Vessel from any scheduler table first; see Retire.
func (v *Vessel) Destroy() {
	v.transition(StateDestroyed, StateConstructed, StateScheduled, StateExited)

	v.block.Release()
	v.block = nil
	retire(v.id)
}

// Schedule registers v with table and marks it Scheduled. Only a Constructed Vessel can be scheduled;
// on any error v is left unregistered and its state is unchanged.
func Schedule(table *sched.Table, v *Vessel) error {
	if IsRetired(v.id) {
		return errors.Newf("vessel %s has been destroyed", v.id)
	}

	if current, ok := v.tryTransition(StateScheduled, StateConstructed); !ok {
		return errors.Newf("vessel %s is %s and cannot be scheduled", v.id, current)
	}

	if err := table.Add(v); err != nil {
		v.transition(StateConstructed, StateScheduled)
		return err
	}
	return nil
}

// Retire removes v from table and destroys it
func Retire(table *sched.Table, v *Vessel) {
	table.Remove(v.id)
	v.Destroy()
}
