package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/seqwrite/pkg/frame"
	"github.com/user/seqwrite/pkg/pipeline"
	"github.com/user/seqwrite/pkg/ports"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seqwrite.yaml")
	yaml := `
output: /data/m42.ser
container: ser
workers: 8
memory_budget_mb: 256
operations: [normalize, bin2]
synth:
  count: 12
  channels: 3
preview:
  path: /data/m42.mp4
ser:
  observer: Messier
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Synth.Count != 12 || cfg.Synth.Channels != 3 {
		t.Errorf("synth not loaded: %+v", cfg.Synth)
	}
	if cfg.Synth.Width != 640 || cfg.Preview.Width != 320 {
		t.Error("expected defaults to survive for unset keys")
	}

	oc := cfg.ToOrchestratorConfig()
	if oc.Kind != ports.ContainerSER || oc.PreviewKind != ports.ContainerMP4 {
		t.Errorf("unexpected kinds %s / %s", oc.Kind, oc.PreviewKind)
	}
	if oc.MemoryBudgetBytes != 256<<20 {
		t.Errorf("unexpected budget %d", oc.MemoryBudgetBytes)
	}
	if oc.Workers != 8 || oc.PreviewPath != "/data/m42.mp4" {
		t.Errorf("unexpected orchestrator config %+v", oc)
	}

	ops := cfg.ProcessOperations()
	if len(ops) != 2 || ops[0] != pipeline.OpNormalize || ops[1] != pipeline.OpBin2 {
		t.Errorf("unexpected operations %v", ops)
	}
	if cfg.SEROptions().Observer != "Messier" {
		t.Error("expected SER observer")
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"defaults with output", func(c *Config) {}, true},
		{"no output", func(c *Config) { c.OutputPath = "" }, false},
		{"bad container", func(c *Config) { c.Container = "avi" }, false},
		{"bad depth", func(c *Config) { c.Depth = "8" }, false},
		{"bad operation", func(c *Config) { c.Operations = []string{"sharpen"} }, false},
		{"preview on output", func(c *Config) { c.Preview.Path = c.OutputPath }, false},
		{"bad preview container", func(c *Config) { c.Preview.Path = "/p.x"; c.Preview.Container = "gif" }, false},
		{"negative workers", func(c *Config) { c.Workers = -1 }, false},
		{"quality", func(c *Config) { c.JPEGQuality = 101 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.OutputPath = "/out/seq.fits"
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseDepth(t *testing.T) {
	if d, _ := ParseDepth("32f"); d != frame.Depth32F {
		t.Errorf("expected float depth, got %s", d)
	}
	if d, _ := ParseDepth(""); d != frame.Depth16 {
		t.Errorf("expected 16-bit default, got %s", d)
	}
}

func TestSynthOptions(t *testing.T) {
	cfg := Defaults()
	cfg.Depth = "32f"
	opts := cfg.SynthOptions(time.Unix(100, 0))
	if opts.Depth != frame.Depth32F || opts.Interval != 40*time.Millisecond || opts.Count != 100 {
		t.Errorf("unexpected options %+v", opts)
	}
}
