package boot

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/vesselkit/memcore/addr"
	"github.com/vesselkit/memcore/memutils"
	"github.com/vesselkit/memcore/vaa"
)

// VAAStart returns the address the virtual address allocator is seeded at: the end of the last
// memory map entry. Bootloaders report the map sorted by base address.
func VAAStart(entries []MemoryMapEntry) (addr.VirtAddr, error) {
	if len(entries) == 0 {
		return 0, errors.New("the memory map is empty")
	}

	last := entries[len(entries)-1]
	if last.End() < last.Base {
		return 0, errors.Newf("memory map entry %s overflows the address space", last)
	}

	start := addr.VirtAddr(last.End())
	if !start.IsAligned(addr.PageSize) {
		return 0, errors.Wrapf(memutils.ErrMisaligned, "the last memory map entry %s does not end on a page boundary", last)
	}
	return start, nil
}

// SeedVAA initializes the process-wide virtual address allocator just past the end of the memory map.
// It can succeed only once per process.
func SeedVAA(logger *slog.Logger, entries []MemoryMapEntry, options vaa.CreateOptions) error {
	start, err := VAAStart(entries)
	if err != nil {
		return errors.Wrap(err, "cannot seed the virtual address allocator")
	}

	if err := vaa.Init(logger, start, options); err != nil {
		return errors.Wrap(err, "cannot seed the virtual address allocator")
	}
	return nil
}

// Boot records the HHDM offset and seeds the virtual address allocator. It must run exactly once,
// before anything reserves address space; any error it returns should halt the kernel. The memory map
// and span are checked before any process-wide state changes, so a rejected config leaves nothing set.
func Boot(logger *slog.Logger, config *Config) error {
	options := vaa.CreateOptions{MinSpan: uint64(config.MinSpan)}

	start, err := VAAStart(config.MemoryMap)
	if err != nil {
		return errors.Wrap(err, "cannot seed the virtual address allocator")
	}
	if err := vaa.CheckSpan(start, addr.VirtAddr(config.HHDMOffset), options); err != nil {
		return errors.Wrap(err, "cannot seed the virtual address allocator")
	}

	if err := addr.SetHHDMOffset(config.HHDMOffset); err != nil {
		return err
	}

	if err := SeedVAA(logger, config.MemoryMap, options); err != nil {
		return err
	}

	logger.LogAttrs(context.Background(), slog.LevelInfo, "Boot complete",
		slog.String("hhdm", addr.VirtAddr(config.HHDMOffset).String()),
		slog.Int("entries", len(config.MemoryMap)),
		slog.String("usable", humanize.IBytes(UsableBytes(config.MemoryMap))))
	return nil
}
