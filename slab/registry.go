package slab

import (
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vesselkit/memcore/internal/utils"
	"github.com/vesselkit/memcore/memutils"
)

// registeredSlab is the type-erased view of an Allocator[T] held by the registry
type registeredSlab interface {
	Name() string
	AddDetailedStatistics(stats *memutils.DetailedStatistics)
	writeJson(json *jwriter.ObjectState, detailedMap bool)
}

// Process-wide slabs, one per type that opts into slab allocation
var registry = utils.NewSpinLock(swiss.NewMap[reflect.Type, registeredSlab](16))

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// registration serializes Register so that only one slab is ever created per type. It is held while
// the slab reserves address space, but never while the registry itself is locked.
var registration sync.Mutex

// Register creates the process-wide slab for T. If T already has one, it is returned unchanged and the
// arguments are ignored.
func Register[T any](logger *slog.Logger, capacity int, options CreateOptions) (*Allocator[T], error) {
	if existing, ok := Registered[T](); ok {
		return existing, nil
	}

	registration.Lock()
	defer registration.Unlock()

	if existing, ok := Registered[T](); ok {
		return existing, nil
	}

	// Created outside the registry lock: reserving address space takes the address allocator's lock
	created, err := New[T](logger, capacity, options)
	if err != nil {
		return nil, err
	}

	key := typeKey[T]()
	registry.With(func(slabs **swiss.Map[reflect.Type, registeredSlab]) {
		(*slabs).Put(key, created)
	})
	return created, nil
}

// Registered returns the process-wide slab for T, if Register has been called for T
func Registered[T any]() (*Allocator[T], bool) {
	key := typeKey[T]()

	var allocator *Allocator[T]
	registry.With(func(slabs **swiss.Map[reflect.Type, registeredSlab]) {
		if existing, ok := (*slabs).Get(key); ok {
			allocator = existing.(*Allocator[T])
		}
	})

	return allocator, allocator != nil
}

// For returns the process-wide slab for T. T must have been registered with Register; asking for the
// slab of an unregistered type is a programmer error and panics.
func For[T any]() *Allocator[T] {
	allocator, ok := Registered[T]()
	if !ok {
		panic(errors.AssertionFailedf("type %s has no registered slab allocator", typeName[T]()))
	}
	return allocator
}

func registeredSlabs() []registeredSlab {
	var slabs []registeredSlab
	registry.With(func(registered **swiss.Map[reflect.Type, registeredSlab]) {
		(*registered).Iter(func(key reflect.Type, value registeredSlab) bool {
			slabs = append(slabs, value)
			return false
		})
	})

	sort.Slice(slabs, func(i, j int) bool {
		return slabs[i].Name() < slabs[j].Name()
	})
	return slabs
}

// CalculateStatistics sums the usage of every registered slab into stats
func CalculateStatistics(stats *memutils.DetailedStatistics) {
	stats.Clear()
	for _, registered := range registeredSlabs() {
		var slabStats memutils.DetailedStatistics
		slabStats.Clear()
		registered.AddDetailedStatistics(&slabStats)
		stats.AddDetailedStatistics(&slabStats)
	}
}

// BuildStatsString returns a json document describing every registered slab, keyed by type name.
// If detailedMap is true, every live slot and free run is listed.
func BuildStatsString(detailedMap bool) string {
	slabs := registeredSlabs()

	writer := jwriter.NewWriter()
	obj := writer.Object()

	var total memutils.DetailedStatistics
	CalculateStatistics(&total)
	totalObj := obj.Name("Total").Object()
	total.WriteJson(&totalObj)
	totalObj.End()

	slabsObj := obj.Name("Slabs").Object()
	for _, registered := range slabs {
		slabObj := slabsObj.Name(registered.Name()).Object()
		registered.writeJson(&slabObj, detailedMap)
		slabObj.End()
	}
	slabsObj.End()

	obj.End()
	return string(writer.Bytes())
}
