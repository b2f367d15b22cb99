package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/lifecriteria/config"
	"github.com/pthm-cable/lifecriteria/criteria"
	"github.com/pthm-cable/lifecriteria/experiment"
	"github.com/pthm-cable/lifecriteria/telemetry"
)

// Penalties added per calibration seed.
const (
	extinctionPenalty = 1.0
	saturationPenalty = 0.5
	// Peak occupancy above this share of the grid counts as saturated
	saturationShare = 0.9
)

// FitnessEvaluator runs the full system on the calibration seeds and scores
// how close the baseline population sits to the target occupancy.
type FitnessEvaluator struct {
	params  *ParamVector
	base    *config.Config
	target  float64 // Target mean_alive
	workers int
	logger  *slog.Logger

	mu        sync.Mutex
	lastStats EvalStats
}

// EvalStats summarises one evaluation across seeds.
type EvalStats struct {
	MeanAlive float64
	Extinct   int
	Saturated int
	Runs      int
}

// NewFitnessEvaluator creates an evaluator aiming for targetShare of the grid occupied on average.
func NewFitnessEvaluator(params *ParamVector, base *config.Config, targetShare float64, workers int) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:  params,
		base:    base,
		target:  targetShare * float64(base.Derived.Cells),
		workers: workers,
		logger:  slog.Default(),
	}
}

// LastStats returns the statistics from the most recent evaluation.
func (fe *FitnessEvaluator) LastStats() EvalStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastStats
}

// Config returns a copy of the base config with x applied.
func (fe *FitnessEvaluator) Config(x []float64) (*config.Config, error) {
	cfg := fe.base.Clone()
	fe.params.ApplyToConfig(cfg, x)
	if err := cfg.Refresh(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Evaluate computes fitness for raw parameter values (lower = better).
// Invalid parameter combinations score +Inf.
func (fe *FitnessEvaluator) Evaluate(ctx context.Context, x []float64) float64 {
	cfg, err := fe.Config(x)
	if err != nil {
		fe.logger.Debug("invalid parameters", "error", err)
		return math.Inf(1)
	}

	partition := experiment.NewSeedPartition(cfg.Experiment.Seeds)
	runner, err := experiment.NewRunner(experiment.Options{
		Config:     cfg,
		Conditions: []criteria.Condition{criteria.Full()},
		Seeds:      partition.CalibrationSeeds(),
		Workers:    fe.workers,
		Logger:     fe.logger.With("component", "calibrate"),
	})
	if err != nil {
		fe.logger.Error("runner setup failed", "error", err)
		return math.Inf(1)
	}

	runs, err := runner.Run(ctx)
	if err != nil {
		fe.logger.Warn("evaluation interrupted", "error", err)
		return math.Inf(1)
	}

	fitness, stats := fe.score(runs, cfg.Derived.Cells)
	fe.mu.Lock()
	fe.lastStats = stats
	fe.mu.Unlock()
	return fitness
}

// score averages the per-seed loss |mean_alive/target - 1| plus penalties.
// Incomplete runs count as extinct.
func (fe *FitnessEvaluator) score(runs []telemetry.RunSummary, cells int) (float64, EvalStats) {
	var stats EvalStats
	if len(runs) == 0 {
		return math.Inf(1), stats
	}

	var total, alive float64
	for _, r := range runs {
		loss := math.Abs(r.MeanAlive/fe.target - 1)
		if !r.Complete || r.Extinct() {
			loss += extinctionPenalty
			stats.Extinct++
		}
		if float64(r.PeakAlive) >= saturationShare*float64(cells) {
			loss += saturationPenalty
			stats.Saturated++
		}
		total += loss
		alive += r.MeanAlive
	}
	n := float64(len(runs))
	stats.Runs = len(runs)
	stats.MeanAlive = alive / n
	return total / n, stats
}

// String renders stats for progress lines.
func (s EvalStats) String() string {
	return fmt.Sprintf("mean_alive=%.1f extinct=%d/%d saturated=%d", s.MeanAlive, s.Extinct, s.Runs, s.Saturated)
}
