package boot_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vesselkit/memcore/boot"
	"gopkg.in/yaml.v3"
)

const sampleConfig = `
hhdm_offset: 0x100000000000
min_span: 8 TiB
memory_map:
  - base: 0x0
    length: 0x9f000
    type: usable
  - base: 0x100000
    length: 0x7ff00000
    type: usable
  - base: 0x7ff00000
    length: 0x100000
    type: acpi-reclaimable
  - base: 0xfd000000
    length: 0x3000000
    type: framebuffer
`

func TestLoadConfig(t *testing.T) {
	config, err := boot.LoadConfig(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	require.Equal(t, uint64(0x1000_0000_0000), config.HHDMOffset)
	require.Equal(t, boot.ByteSize(8<<40), config.MinSpan)
	require.Len(t, config.MemoryMap, 4)
	require.Equal(t, boot.MemoryMapEntry{Base: 0x100000, Length: 0x7ff00000, Type: boot.EntryUsable}, config.MemoryMap[1])
	require.Equal(t, boot.EntryACPIReclaimable, config.MemoryMap[2].Type)
	require.Equal(t, boot.EntryFramebuffer, config.MemoryMap[3].Type)
	require.Equal(t, uint64(0x9f000+0x7ff00000), boot.UsableBytes(config.MemoryMap))
}

func TestMinSpanForms(t *testing.T) {
	testCases := map[string]boot.ByteSize{
		"4096":    4096,
		"0x1000":  4096,
		"16 MiB":  16 << 20,
		"\"1GiB\"": 1 << 30,
		"8 TiB":   8 << 40,
	}

	for raw, expected := range testCases {
		t.Run(raw, func(t *testing.T) {
			config, err := boot.LoadConfig(strings.NewReader("min_span: " + raw + "\n"))
			require.NoError(t, err)
			require.Equal(t, expected, config.MinSpan)
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	testCases := map[string]string{
		"empty":        "",
		"unknownField": "hhdm: 0x1000\n",
		"badSize":      "min_span: lots\n",
		"listSize":     "min_span: [1, 2]\n",
		"badType": `
memory_map:
  - base: 0x0
    length: 0x1000
    type: haunted
`,
	}

	for name, raw := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := boot.LoadConfig(strings.NewReader(raw))
			require.Error(t, err)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	config, err := boot.LoadConfigFile(path)
	require.NoError(t, err)
	require.Len(t, config.MemoryMap, 4)

	_, err = boot.LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestConfigMarshalsReadableNames(t *testing.T) {
	config := boot.Config{
		MinSpan: 8 << 40,
		MemoryMap: []boot.MemoryMapEntry{
			{Base: 0x1000, Length: 0x2000, Type: boot.EntryKernelAndModules},
		},
	}

	out, err := yaml.Marshal(&config)
	require.NoError(t, err)
	require.Contains(t, string(out), "min_span: 8.0 TiB")
	require.Contains(t, string(out), "type: kernel-and-modules")

	roundTripped, err := boot.LoadConfig(strings.NewReader(string(out)))
	require.NoError(t, err)
	require.Equal(t, config, *roundTripped)
}
