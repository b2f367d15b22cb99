package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}

	if cfg.World.Width != 100 || cfg.World.Height != 100 {
		t.Errorf("expected 100x100 world, got %dx%d", cfg.World.Width, cfg.World.Height)
	}
	if cfg.Derived.Cells != 10000 {
		t.Errorf("Derived.Cells = %d, want 10000", cfg.Derived.Cells)
	}
	if cfg.Experiment.Timeout != 10*time.Minute {
		t.Errorf("timeout = %v, want 10m", cfg.Experiment.Timeout)
	}
	if cfg.Experiment.Seeds.Test.Start != 100 || cfg.Experiment.Seeds.Test.Count != 30 {
		t.Errorf("unexpected test seeds %+v", cfg.Experiment.Seeds.Test)
	}
	if cfg.Derived.SampleCount != 41 {
		t.Errorf("SampleCount = %d, want 41", cfg.Derived.SampleCount)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	overlay := "world:\n  width: 20\nresource:\n  diffusion: 0.9\n"
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.World.Width != 20 {
		t.Errorf("width = %d, want 20", cfg.World.Width)
	}
	// Untouched fields keep their defaults
	if cfg.World.Height != 100 {
		t.Errorf("height = %d, want default 100", cfg.World.Height)
	}
	if cfg.Derived.Diffusion != 0.25 {
		t.Errorf("diffusion should be clamped to 0.25, got %v", cfg.Derived.Diffusion)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero width", func(c *Config) { c.World.Width = 0 }},
		{"negative height", func(c *Config) { c.World.Height = -3 }},
		{"population exceeds cells", func(c *Config) { c.World.Width, c.World.Height = 5, 5 }},
		{"zero sample_every", func(c *Config) { c.Experiment.SampleEvery = 0 }},
		{"too many steps", func(c *Config) { c.Experiment.Steps = MaxSteps + 1 }},
		{"too many samples", func(c *Config) { c.Experiment.Steps = 200_000; c.Experiment.SampleEvery = 1 }},
		{"unknown family", func(c *Config) { c.Experiment.Family = "triple" }},
		{"unknown metric", func(c *Config) { c.Experiment.Metric = "median" }},
		{"alpha out of range", func(c *Config) { c.Experiment.Alpha = 1.5 }},
		{"perturb fraction", func(c *Config) { c.Environment.PerturbFraction = 2 }},
		{"zero patch fraction", func(c *Config) { c.Resource.PatchFraction = 0 }},
		{"child energy above max", func(c *Config) { c.Reproduction.ChildEnergy = 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MustLoad("")
			tt.mutate(cfg)
			err := cfg.Refresh()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v does not wrap ErrInvalid", err)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := MustLoad("")
	cfg.Resource.InjectionRate = 0.0123
	cfg.Experiment.Timeout = 90 * time.Second

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Resource.InjectionRate != 0.0123 {
		t.Errorf("injection rate = %v, want 0.0123", loaded.Resource.InjectionRate)
	}
	if loaded.Experiment.Timeout != 90*time.Second {
		t.Errorf("timeout = %v, want 1m30s", loaded.Experiment.Timeout)
	}
}

func TestSeedRange(t *testing.T) {
	r := SeedRange{Start: 100, Count: 3}
	seeds := r.Seeds()
	if len(seeds) != 3 || seeds[0] != 100 || seeds[2] != 102 {
		t.Errorf("Seeds() = %v", seeds)
	}
	if !r.Contains(102) || r.Contains(103) || r.Contains(99) {
		t.Error("Contains boundaries wrong")
	}
}
