// Package vaa reserves ranges of kernel virtual address space. Pages are treated as an id space:
// page id n is the page at address n * addr.PageSize, and a reservation is a run of consecutive ids
// taken from an id.Hander. Reservations are never returned.
package vaa

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vesselkit/memcore/addr"
	"github.com/vesselkit/memcore/id"
	"github.com/vesselkit/memcore/memutils"
)

// Allocator hands out page-aligned, non-overlapping virtual address ranges in increasing address
// order. It is not safe for concurrent use; the process-wide instance is reached through With.
type Allocator struct {
	logger *slog.Logger
	start  addr.VirtAddr
	hander *id.Hander

	reservations  int
	reservedPages uint64
	skippedPages  uint64
}

// New creates an Allocator whose first reservation begins at or after start. start must be page
// aligned; a misaligned start is a configuration bug and panics. If fewer than options.MinSpan bytes
// lie between start and the HHDM offset, an error wrapping memutils.ErrInsufficientSpan is returned.
func New(logger *slog.Logger, start addr.VirtAddr, options CreateOptions) (*Allocator, error) {
	if !start.IsAligned(addr.PageSize) {
		panic(errors.AssertionFailedf("virtual address allocator start %s is not page aligned", start))
	}

	hhdm := addr.VirtAddr(addr.HHDMOffset())
	if err := CheckSpan(start, hhdm, options); err != nil {
		return nil, err
	}

	logger.LogAttrs(context.Background(), slog.LevelInfo, "VAA initialized",
		slog.String("start", start.String()),
		slog.String("span", humanize.IBytes(hhdm.Diff(start))))

	return &Allocator{
		logger: logger,
		start:  start,
		hander: id.NewStartingFrom(id.Id(start.PageIndex()), id.Id(maxPageId)),
	}, nil
}

// CheckSpan reports whether an allocator starting at start would have enough room below an HHDM
// offset of hhdm. The returned error wraps memutils.ErrInsufficientSpan.
func CheckSpan(start addr.VirtAddr, hhdm addr.VirtAddr, options CreateOptions) error {
	minSpan := options.MinSpan
	if minSpan == 0 {
		minSpan = DefaultMinSpan
	}

	if start > hhdm || hhdm.Diff(start) < minSpan {
		var span uint64
		if start <= hhdm {
			span = hhdm.Diff(start)
		}
		return errors.Wrapf(memutils.ErrInsufficientSpan,
			"%s between %s and the HHDM offset %s, but %s is required",
			humanize.IBytes(span), start, hhdm, humanize.IBytes(minSpan))
	}
	return nil
}

// newUninit creates the placeholder allocator that the global instance holds until boot replaces it
func newUninit() *Allocator {
	return &Allocator{
		logger: slog.Default(),
		hander: id.New(uninitMaxPageId),
	}
}

// Start returns the address the allocator was created with
func (a *Allocator) Start() addr.VirtAddr {
	return a.start
}

// Next returns the lowest address a future reservation could begin at
func (a *Allocator) Next() addr.VirtAddr {
	return addr.FromPageIndex(uint64(a.hander.PeekNext()))
}

// Reserve reserves count contiguous pages whose first byte is aligned to alignment. alignment is in
// bytes and must be a power of two; anything below addr.PageSize means page alignment. Pages skipped
// to satisfy the alignment are lost. If the address space is exhausted, nothing is reserved and an
// error wrapping memutils.ErrExhausted is returned.
func (a *Allocator) Reserve(count uint64, alignment uint64) (addr.VirtAddr, error) {
	if count == 0 {
		panic(errors.AssertionFailedf("tried to reserve zero pages of virtual address space"))
	}
	if alignment < addr.PageSize {
		alignment = addr.PageSize
	}
	if err := memutils.CheckPow2(alignment, "alignment"); err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "invalid virtual address alignment"))
	}

	next := uint64(a.hander.PeekNext())
	first := memutils.AlignUp(next, alignment/addr.PageSize)
	skip := first - next
	if first < next || skip > ^uint64(0)-(count-1) {
		return 0, a.exhausted(count, alignment)
	}

	// HandoutAndSkip hands out the id after the skipped ones, which is the last page of the range
	last, ok := a.hander.HandoutAndSkip(skip + count - 1)
	if !ok {
		return 0, a.exhausted(count, alignment)
	}

	a.reservations++
	a.reservedPages += count
	a.skippedPages += skip

	start := addr.FromPageIndex(uint64(last) - (count - 1))
	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "Allocator::Reserve",
		slog.Uint64("count", count),
		slog.String("alignment", humanize.IBytes(alignment)),
		slog.String("start", start.String()),
		slog.Uint64("skipped", skip))

	return start, nil
}

func (a *Allocator) exhausted(count uint64, alignment uint64) error {
	return errors.Wrapf(memutils.ErrExhausted, "virtual address allocator ran out of ids reserving %d pages aligned to %s",
		count, humanize.IBytes(alignment))
}

// Handout is Reserve for callers that cannot continue without the address space: exhaustion panics.
func (a *Allocator) Handout(count uint64, alignment uint64) addr.VirtAddr {
	start, err := a.Reserve(count, alignment)
	if err != nil {
		panic(err)
	}
	return start
}

// consumedPages counts the page ids taken from the hander, reserved or skipped
func (a *Allocator) consumedPages() uint64 {
	consumed := uint64(a.hander.PeekNext()) - a.start.PageIndex()
	if a.hander.Remaining() == 0 {
		// An exhausted hander parks on its final id after issuing it
		consumed++
	}
	return consumed
}

// Validate performs internal consistency checks on the allocator
func (a *Allocator) Validate() error {
	consumed := a.consumedPages()
	if a.reservedPages+a.skippedPages > consumed {
		return errors.Errorf("the allocator accounts for %d reserved and %d skipped pages, but only %d page ids were consumed",
			a.reservedPages, a.skippedPages, consumed)
	}
	if a.reservations > 0 && a.reservedPages < uint64(a.reservations) {
		return errors.Errorf("%d reservations cannot cover only %d pages", a.reservations, a.reservedPages)
	}
	return nil
}

// AddStatistics sums this allocator's reservations into stats. The allocator's span counts as one
// block, each reservation as one allocation, and alignment padding as waste.
func (a *Allocator) AddStatistics(stats *memutils.Statistics) {
	stats.BlockCount++
	stats.BlockBytes += a.spanBytes()
	stats.AllocationCount += a.reservations
	stats.AllocationBytes += a.reservedPages * addr.PageSize
	stats.WastedBytes += a.skippedPages * addr.PageSize
}

func (a *Allocator) spanBytes() uint64 {
	hhdm := addr.VirtAddr(addr.HHDMOffset())
	if hhdm <= a.start {
		return (uint64(a.hander.Max()) - a.start.PageIndex() + 1) * addr.PageSize
	}
	return hhdm.Diff(a.start)
}

// BuildStatsString returns a json document describing this allocator
func (a *Allocator) BuildStatsString() string {
	writer := jwriter.NewWriter()
	obj := writer.Object()

	obj.Name("Start").String(a.start.String())
	obj.Name("Next").String(a.Next().String())
	obj.Name("RemainingPages").Float64(float64(a.hander.Remaining()))

	var stats memutils.Statistics
	a.AddStatistics(&stats)
	statsObj := obj.Name("Stats").Object()
	stats.WriteJson(&statsObj)
	statsObj.End()

	obj.End()
	return string(writer.Bytes())
}
