package boot

import (
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// ByteSize is a size in bytes that may be written in configuration as a plain integer or as a human
// readable size such as "8 TiB"
type ByteSize uint64

func (s ByteSize) String() string {
	return humanize.IBytes(uint64(s))
}

func (s ByteSize) MarshalYAML() (any, error) {
	return s.String(), nil
}

func (s *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.Newf("line %d: expected a size, found a %s", value.Line, nodeKindName(value.Kind))
	}

	if raw, err := strconv.ParseUint(value.Value, 0, 64); err == nil {
		*s = ByteSize(raw)
		return nil
	}

	parsed, err := humanize.ParseBytes(value.Value)
	if err != nil {
		return errors.Wrapf(err, "line %d: invalid size %q", value.Line, value.Value)
	}
	*s = ByteSize(parsed)
	return nil
}

func nodeKindName(kind yaml.Kind) string {
	switch kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	}
	return "scalar"
}

// Config is everything Boot needs from the bootloader. MinSpan of zero selects the virtual address
// allocator's default.
type Config struct {
	HHDMOffset uint64           `yaml:"hhdm_offset"`
	MinSpan    ByteSize         `yaml:"min_span"`
	MemoryMap  []MemoryMapEntry `yaml:"memory_map"`
}

// LoadConfig decodes a YAML boot configuration. Unknown fields are rejected.
func LoadConfig(reader io.Reader) (*Config, error) {
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	var config Config
	if err := decoder.Decode(&config); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("boot configuration is empty")
		}
		return nil, errors.Wrap(err, "failed to decode boot configuration")
	}
	return &config, nil
}

// LoadConfigFile reads a YAML boot configuration from path
func LoadConfigFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open boot configuration %s", path)
	}
	defer file.Close()

	config, err := LoadConfig(file)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return config, nil
}
