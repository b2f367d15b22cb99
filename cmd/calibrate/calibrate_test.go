package main

import (
	"context"
	"math"
	"testing"

	"github.com/pthm-cable/lifecriteria/config"
	"github.com/pthm-cable/lifecriteria/telemetry"
)

func TestParamVectorRoundTrip(t *testing.T) {
	pv := NewParamVector()
	cfg := config.MustLoad("")

	raw := pv.ExtractFromConfig(cfg)
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(raw[i]-back[i]) > 1e-9 {
			t.Errorf("%s: %f -> %f", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestClampBoundsAndRounds(t *testing.T) {
	pv := NewParamVector()
	high := make([]float64, pv.Dim())
	for i := range high {
		high[i] = 1e6
	}
	clamped := pv.Clamp(high)
	for i, spec := range pv.Specs {
		if clamped[i] != spec.Max {
			t.Errorf("%s: got %f, want max %f", spec.Name, clamped[i], spec.Max)
		}
	}

	mid := pv.Denormalize(make([]float64, pv.Dim()))
	for i, spec := range pv.Specs {
		if spec.Integer {
			mid[i] += 0.6
		}
	}
	for i, v := range pv.Clamp(mid) {
		if pv.Specs[i].Integer && v != math.Round(v) {
			t.Errorf("%s not rounded: %f", pv.Specs[i].Name, v)
		}
	}
}

func TestApplyToConfig(t *testing.T) {
	pv := NewParamVector()
	cfg := config.MustLoad("")
	values := pv.Denormalize([]float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5})
	pv.ApplyToConfig(cfg, values)

	got := pv.ExtractFromConfig(cfg)
	want := pv.Clamp(values)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s: got %f, want %f", pv.Specs[i].Name, got[i], want[i])
		}
	}
}

func TestScorePenalises(t *testing.T) {
	cfg := config.MustLoad("")
	cfg.World.Width, cfg.World.Height = 10, 10
	cfg.World.InitialPopulation = 20
	if err := cfg.Refresh(); err != nil {
		t.Fatal(err)
	}
	fe := NewFitnessEvaluator(NewParamVector(), cfg, 0.5, 1)

	onTarget := telemetry.RunSummary{MeanAlive: 50, PeakAlive: 60, FinalAlive: 40, ExtinctionStep: -1, Complete: true}
	f, stats := fe.score([]telemetry.RunSummary{onTarget}, cfg.Derived.Cells)
	if f != 0 || stats.Extinct != 0 {
		t.Errorf("on-target run scored %f (%+v)", f, stats)
	}

	extinct := telemetry.RunSummary{MeanAlive: 25, ExtinctionStep: 10, Complete: true}
	f, stats = fe.score([]telemetry.RunSummary{extinct}, cfg.Derived.Cells)
	if math.Abs(f-1.5) > 1e-12 || stats.Extinct != 1 {
		t.Errorf("extinct run scored %f (%+v), want 1.5", f, stats)
	}

	full := telemetry.RunSummary{MeanAlive: 50, PeakAlive: 95, FinalAlive: 90, ExtinctionStep: -1, Complete: true}
	f, stats = fe.score([]telemetry.RunSummary{full}, cfg.Derived.Cells)
	if math.Abs(f-saturationPenalty) > 1e-12 || stats.Saturated != 1 {
		t.Errorf("saturated run scored %f (%+v)", f, stats)
	}

	if f, _ := fe.score(nil, cfg.Derived.Cells); !math.IsInf(f, 1) {
		t.Errorf("no runs should score +Inf, got %f", f)
	}
}

func TestEvaluateRunsCalibrationSeeds(t *testing.T) {
	cfg := config.MustLoad("")
	cfg.World.Width, cfg.World.Height = 15, 15
	cfg.World.InitialPopulation = 20
	cfg.Experiment.Steps = 40
	cfg.Experiment.Seeds.Calibration = config.SeedRange{Start: 0, Count: 2}
	if err := cfg.Refresh(); err != nil {
		t.Fatal(err)
	}

	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, cfg, 0.3, 2)
	f := fe.Evaluate(context.Background(), pv.ExtractFromConfig(cfg))
	if math.IsInf(f, 0) || math.IsNaN(f) || f < 0 {
		t.Fatalf("fitness %f", f)
	}
	if stats := fe.LastStats(); stats.Runs != 2 {
		t.Errorf("evaluated %d runs, want 2 calibration seeds", stats.Runs)
	}
}
