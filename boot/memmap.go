// Package boot turns the information handed over by the bootloader into the kernel's initial memory
// state: it records the HHDM offset and seeds the virtual address allocator past the end of the
// memory map.
package boot

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// EntryType classifies a region of the physical memory map
type EntryType uint32

const (
	EntryUsable EntryType = iota
	EntryReserved
	EntryACPIReclaimable
	EntryACPINVS
	EntryBadMemory
	EntryBootloaderReclaimable
	EntryKernelAndModules
	EntryFramebuffer
)

var entryTypeMapping = map[EntryType]string{
	EntryUsable:                "usable",
	EntryReserved:              "reserved",
	EntryACPIReclaimable:       "acpi-reclaimable",
	EntryACPINVS:               "acpi-nvs",
	EntryBadMemory:             "bad-memory",
	EntryBootloaderReclaimable: "bootloader-reclaimable",
	EntryKernelAndModules:      "kernel-and-modules",
	EntryFramebuffer:           "framebuffer",
}

func (t EntryType) String() string {
	str, ok := entryTypeMapping[t]
	if !ok {
		return fmt.Sprintf("unknown(%d)", uint32(t))
	}
	return str
}

// ParseEntryType maps a name produced by EntryType.String back to its EntryType
func ParseEntryType(name string) (EntryType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for entryType, str := range entryTypeMapping {
		if str == name {
			return entryType, nil
		}
	}
	return 0, errors.Newf("unknown memory map entry type %q", name)
}

func (t EntryType) MarshalYAML() (any, error) {
	return t.String(), nil
}

func (t *EntryType) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return errors.Wrapf(err, "line %d: memory map entry type", value.Line)
	}

	parsed, err := ParseEntryType(name)
	if err != nil {
		return errors.Wrapf(err, "line %d", value.Line)
	}
	*t = parsed
	return nil
}

// MemoryMapEntry is one region of the physical memory map, as reported by the bootloader
type MemoryMapEntry struct {
	Base   uint64    `yaml:"base"`
	Length uint64    `yaml:"length"`
	Type   EntryType `yaml:"type"`
}

// End returns the first address past the region
func (e MemoryMapEntry) End() uint64 {
	return e.Base + e.Length
}

func (e MemoryMapEntry) String() string {
	return fmt.Sprintf("[%#x, %#x) %s", e.Base, e.End(), e.Type)
}

// UsableBytes sums the lengths of every usable entry in the map
func UsableBytes(entries []MemoryMapEntry) uint64 {
	var total uint64
	for _, entry := range entries {
		if entry.Type == EntryUsable {
			total += entry.Length
		}
	}
	return total
}
