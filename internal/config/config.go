package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Ordering values accepted by the map stage.
const (
	OrderingStrict    = "strict"
	OrderingUnordered = "unordered"
)

// Config captures the runtime knobs for an evaluation or training run.
type Config struct {
	DataDir      string   `yaml:"data_dir"`
	Split        string   `yaml:"split"`
	ShardRoots   []string `yaml:"shard_roots"`
	BatchSize    int      `yaml:"batch_size"`
	NumWorkers   int      `yaml:"num_workers"`
	BufferSize   int      `yaml:"buffer_size"`
	Ordering     string   `yaml:"ordering"`
	Seed         int64    `yaml:"seed"`
	NumSplits    int      `yaml:"num_splits"`
	SplitIndex   int      `yaml:"split_index"`
	Augmentation string   `yaml:"augmentation"`
	ImageSize    int      `yaml:"image_size"`
	Shuffle      bool     `yaml:"shuffle"`
	Train        bool     `yaml:"train"`
	Steps        int      `yaml:"steps"`
	LogEvery     int      `yaml:"log_every"`
	Progress     bool     `yaml:"progress"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	DataDir      string
	Split        string
	BatchSize    int
	NumWorkers   int
	BufferSize   int
	Ordering     string
	Seed         int64
	NumSplits    int
	SplitIndex   int
	Augmentation string
	Steps        int
	LogEvery     int
}

// Load reads a Config from YAML. The result is not validated; callers apply
// overrides first and then call Validate.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML from r, rejecting unknown keys.
func Parse(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override. SplitIndex is only
// taken together with NumSplits since zero is a valid index.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.Split != "" {
		c.Split = o.Split
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.NumWorkers > 0 {
		c.NumWorkers = o.NumWorkers
	}
	if o.BufferSize > 0 {
		c.BufferSize = o.BufferSize
	}
	if o.Ordering != "" {
		c.Ordering = o.Ordering
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.NumSplits > 0 {
		c.NumSplits = o.NumSplits
		c.SplitIndex = o.SplitIndex
	}
	if o.Augmentation != "" {
		c.Augmentation = o.Augmentation
	}
	if o.Steps > 0 {
		c.Steps = o.Steps
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
}

// Validate verifies the config is runnable and fills in defaults.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.DataDir == "" && len(c.ShardRoots) == 0 {
		return errors.New("either data_dir or shard_roots must be set")
	}
	if c.DataDir != "" && len(c.ShardRoots) > 0 {
		return errors.New("data_dir and shard_roots are mutually exclusive")
	}
	if c.Split == "" {
		c.Split = "val"
	}
	if c.Split != "train" && c.Split != "val" {
		return errors.Errorf("split must be train or val (got %q)", c.Split)
	}
	if c.Shuffle && c.Split == "val" {
		return errors.New("shuffle is only allowed for the train split")
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.NumWorkers < 0 {
		return errors.Errorf("num_workers must be >= 0 (got %d)", c.NumWorkers)
	}
	if c.BufferSize < 0 {
		return errors.Errorf("buffer_size must be >= 0 (got %d)", c.BufferSize)
	}
	switch c.Ordering {
	case OrderingStrict, OrderingUnordered:
	case "":
		return errors.New("ordering must be set explicitly to strict or unordered")
	default:
		return errors.Errorf("unknown ordering %q", c.Ordering)
	}
	if c.NumSplits < 0 {
		return errors.Errorf("num_splits must be >= 0 (got %d)", c.NumSplits)
	}
	if c.NumSplits > 0 && (c.SplitIndex < 0 || c.SplitIndex >= c.NumSplits) {
		return errors.Errorf("split_index %d out of range for %d splits", c.SplitIndex, c.NumSplits)
	}
	if c.NumSplits > 0 && len(c.ShardRoots) > 0 {
		return errors.New("num_splits requires an indexed data_dir")
	}
	if c.Augmentation == "" {
		c.Augmentation = "fbresnet"
	}
	if c.ImageSize <= 0 {
		c.ImageSize = 224
	}
	if c.Train && c.Steps <= 0 {
		return errors.Errorf("steps must be > 0 when training (got %d)", c.Steps)
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 50
	}
	return nil
}
