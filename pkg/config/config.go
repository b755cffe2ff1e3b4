// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/seqwrite/pkg/adapters/serfile"
	"github.com/user/seqwrite/pkg/adapters/synthsource"
	"github.com/user/seqwrite/pkg/frame"
	"github.com/user/seqwrite/pkg/orchestrator"
	"github.com/user/seqwrite/pkg/pipeline"
	"github.com/user/seqwrite/pkg/ports"
)

// Config represents the full configuration for seqwrite.
type Config struct {
	// Input/Output
	InputDir   string      `yaml:"input_dir"`
	Synth      SynthConfig `yaml:"synth"`
	OutputPath string      `yaml:"output"`
	Container  string      `yaml:"container"`
	Depth      string      `yaml:"depth"`
	Limit      int         `yaml:"limit"`

	// AllowHeterogeneous lets a FITS sequence hold frames of different sizes.
	AllowHeterogeneous bool `yaml:"allow_heterogeneous"`

	// Concurrency
	Workers         int `yaml:"workers"`
	MaxActiveBlocks int `yaml:"max_active_blocks"`
	MemoryBudgetMB  int `yaml:"memory_budget_mb"`

	// Processing
	Operations []string      `yaml:"operations"`
	Preview    PreviewConfig `yaml:"preview"`

	// Encoding
	FPS         float64   `yaml:"fps"`
	JPEGQuality int       `yaml:"jpeg_quality"`
	SER         SERConfig `yaml:"ser"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// SynthConfig configures generated star-field frames.
type SynthConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Channels   int     `yaml:"channels"`
	Count      int     `yaml:"count"`
	Stars      int     `yaml:"stars"`
	Seed       int64   `yaml:"seed"`
	DriftX     float64 `yaml:"drift_x"`
	DriftY     float64 `yaml:"drift_y"`
	DropEvery  int     `yaml:"drop_every"`
	Label      bool    `yaml:"label"`
	IntervalMs int     `yaml:"interval_ms"`
}

// PreviewConfig configures the optional second output.
type PreviewConfig struct {
	Path      string `yaml:"path"`
	Container string `yaml:"container"`
	Width     int    `yaml:"width"`
}

// SERConfig holds the free-text header fields of SER files.
type SERConfig struct {
	Observer   string `yaml:"observer"`
	Instrument string `yaml:"instrument"`
	Telescope  string `yaml:"telescope"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Container: "fitseq",
		Depth:     "16",

		Synth: SynthConfig{
			Width:      640,
			Height:     480,
			Channels:   1,
			Count:      100,
			Stars:      40,
			Seed:       1,
			DriftX:     0.5,
			DriftY:     0.25,
			IntervalMs: 40,
		},

		Workers: 4,

		Preview: PreviewConfig{
			Container: "mp4",
			Width:     320,
		},

		FPS:         25,
		JPEGQuality: 90,

		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the values that cannot be corrected silently.
func (c Config) Validate() error {
	var errs []error
	if c.OutputPath == "" {
		errs = append(errs, errors.New("output path is required"))
	}
	if _, err := ports.ParseContainerKind(c.Container); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDepth(c.Depth); err != nil {
		errs = append(errs, err)
	}
	if _, err := pipeline.ParseOperations(c.Operations); err != nil {
		errs = append(errs, err)
	}
	if c.Preview.Path != "" {
		if _, err := ports.ParseContainerKind(c.Preview.Container); err != nil {
			errs = append(errs, fmt.Errorf("preview: %w", err))
		}
		if c.Preview.Path == c.OutputPath {
			errs = append(errs, errors.New("preview path must differ from the output path"))
		}
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.MemoryBudgetMB < 0 {
		errs = append(errs, fmt.Errorf("memory budget must not be negative, got %d", c.MemoryBudgetMB))
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg quality must be between 0 and 100, got %d", c.JPEGQuality))
	}
	return errors.Join(errs...)
}

// ParseDepth parses the sample depth: "16" or "32f".
func ParseDepth(s string) (frame.Depth, error) {
	switch s {
	case "", "16", "u16":
		return frame.Depth16, nil
	case "32f", "float", "f32":
		return frame.Depth32F, nil
	default:
		return 0, fmt.Errorf("unknown depth %q", s)
	}
}

// ToOrchestratorConfig converts Config to orchestrator.Config. It expects a
// validated Config.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	kind, _ := ports.ParseContainerKind(c.Container)
	cfg := orchestrator.Config{
		OutputPath:         c.OutputPath,
		Kind:               kind,
		AllowHeterogeneous: c.AllowHeterogeneous,

		Limit: c.Limit,

		Workers:           c.Workers,
		MaxActive:         c.MaxActiveBlocks,
		MemoryBudgetBytes: int64(c.MemoryBudgetMB) << 20,
	}
	if c.Preview.Path != "" {
		cfg.PreviewPath = c.Preview.Path
		cfg.PreviewKind, _ = ports.ParseContainerKind(c.Preview.Container)
	}
	return cfg
}

// ProcessOperations returns the parsed processing operations.
func (c Config) ProcessOperations() []pipeline.Operation {
	ops, _ := pipeline.ParseOperations(c.Operations)
	return ops
}

// EncoderOptions returns the MP4 encoding options.
func (c Config) EncoderOptions() ports.EncoderOptions {
	return ports.EncoderOptions{
		FPS:         c.FPS,
		JPEGQuality: c.JPEGQuality,
	}
}

// SEROptions returns the SER header fields.
func (c Config) SEROptions() serfile.Options {
	return serfile.Options{
		Observer:   c.SER.Observer,
		Instrument: c.SER.Instrument,
		Telescope:  c.SER.Telescope,
	}
}

// SynthOptions returns the options of the synthetic source. start is the
// timestamp of the first frame.
func (c Config) SynthOptions(start time.Time) synthsource.Options {
	depth, _ := ParseDepth(c.Depth)
	return synthsource.Options{
		Width:     c.Synth.Width,
		Height:    c.Synth.Height,
		Channels:  c.Synth.Channels,
		Depth:     depth,
		Count:     c.Synth.Count,
		Stars:     c.Synth.Stars,
		Seed:      c.Synth.Seed,
		DriftX:    c.Synth.DriftX,
		DriftY:    c.Synth.DriftY,
		DropEvery: c.Synth.DropEvery,
		Label:     c.Synth.Label,
		Start:     start,
		Interval:  time.Duration(c.Synth.IntervalMs) * time.Millisecond,
	}
}
