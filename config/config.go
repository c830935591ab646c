package config

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/juju/errors"

	"hummock/compaction"
)

// Config is the compaction daemon's configuration file.
type Config struct {
	LogLevel   string           `yaml:"log-level"`
	Compaction CompactionConfig `yaml:"compaction"`
}

// CompactionConfig maps onto compaction.Options; see there for the
// meaning of each knob.
type CompactionConfig struct {
	TriggerL0FileNumber int    `yaml:"trigger-l0-file-number"`
	MaxBytesPerSplit    uint64 `yaml:"max-bytes-per-split"`
	MaxSplits           int    `yaml:"max-splits"`
	PromoteDisjointL0   *bool  `yaml:"promote-disjoint-l0"`
	UltimateLevel       uint32 `yaml:"ultimate-level"`
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
	}
}

// Load reads the YAML file and fills unset knobs with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Annotatef(err, "parse config %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.NotValidf("log-level %q", c.LogLevel)
	}
	return c.CompactionOptions().Validate()
}

// CompactionOptions resolves the file's knobs against the built-in
// defaults: zero values mean "not set".
func (c *Config) CompactionOptions() *compaction.Options {
	opts := compaction.DefaultOptions()
	cc := c.Compaction
	if cc.TriggerL0FileNumber != 0 {
		opts.TriggerL0FileNumber = cc.TriggerL0FileNumber
	}
	if cc.MaxBytesPerSplit != 0 {
		opts.MaxBytesPerSplit = cc.MaxBytesPerSplit
	}
	if cc.MaxSplits != 0 {
		opts.MaxSplits = cc.MaxSplits
	}
	if cc.PromoteDisjointL0 != nil {
		opts.PromoteDisjointL0 = *cc.PromoteDisjointL0
	}
	opts.UltimateLevel = cc.UltimateLevel
	return opts
}
