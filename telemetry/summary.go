package telemetry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Metric names usable as the analysis outcome.
const (
	MetricMeanAlive  = "mean_alive"
	MetricFinalAlive = "final_alive"
	MetricAUC        = "auc"
)

// ErrUnknownMetric is returned by RunSummary.Metric for an unsupported name.
var ErrUnknownMetric = errors.New("unknown metric")

// Reasons a run is recorded as incomplete.
const (
	ReasonTimeout     = "timeout"
	ReasonStepCeiling = "step_ceiling"
	ReasonCanceled    = "canceled"
)

// FailureFraction is the share of the starting value below which a series counts as failed.
const FailureFraction = 0.5

// RunSummary is the result of one (condition, seed) replicate.
type RunSummary struct {
	Condition string `csv:"condition"`
	Seed      int64  `csv:"seed"`
	Partition string `csv:"partition"`

	Budget   int    `csv:"budget"`
	StepsRun int    `csv:"steps_run"`
	Complete bool   `csv:"complete"`
	Reason   string `csv:"reason"`

	ExtinctionStep int     `csv:"extinction_step"` // -1 if the population survived
	InitialAlive   int     `csv:"initial_alive"`
	FinalAlive     int     `csv:"final_alive"`
	MeanAlive      float64 `csv:"mean_alive"`
	AUC            float64 `csv:"auc"`
	PeakAlive      int     `csv:"peak_alive"`

	Births        int `csv:"births"`
	Deaths        int `csv:"deaths"`
	Reproductions int `csv:"reproductions"`

	MaxGeneration  int     `csv:"max_generation"`
	MeanGeneration float64 `csv:"mean_generation"`
	GenomeDrift    float64 `csv:"genome_drift"`
	GenomeDiverse  float64 `csv:"genome_diversity"`

	LifespanCount  int     `csv:"lifespan_count"`
	LifespanMean   float64 `csv:"lifespan_mean"`
	LifespanMedian float64 `csv:"lifespan_median"`

	// First sample step at or below FailureFraction of the step 0 value, -1 if never
	FailEnergyStep   int `csv:"fail_energy_step"`
	FailBoundaryStep int `csv:"fail_boundary_step"`
	FailAliveStep    int `csv:"fail_alive_step"`

	WallMillis int64 `csv:"wall_ms"`

	Samples  []Sample       `csv:"-"`
	Events   []Event        `csv:"-"`
	Snapshot *SnapshotFrame `csv:"-"`
}

// Metric returns the named outcome metric.
func (s RunSummary) Metric(name string) (float64, error) {
	switch name {
	case MetricMeanAlive:
		return s.MeanAlive, nil
	case MetricFinalAlive:
		return float64(s.FinalAlive), nil
	case MetricAUC:
		return s.AUC, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
}

// Extinct reports whether the population died out.
func (s RunSummary) Extinct() bool {
	return s.ExtinctionStep >= 0
}

// LogValue implements slog.LogValuer for structured logging.
func (s RunSummary) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("condition", s.Condition),
		slog.Int64("seed", s.Seed),
		slog.Int("steps_run", s.StepsRun),
		slog.Bool("complete", s.Complete),
		slog.Int("extinction_step", s.ExtinctionStep),
		slog.Int("final_alive", s.FinalAlive),
		slog.Float64("mean_alive", s.MeanAlive),
		slog.Int("peak_alive", s.PeakAlive),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("max_generation", s.MaxGeneration),
		slog.Float64("genome_drift", s.GenomeDrift),
		slog.Int64("wall_ms", s.WallMillis),
	}
	if s.Reason != "" {
		attrs = append(attrs, slog.String("reason", s.Reason))
	}
	return slog.GroupValue(attrs...)
}

// Summary builds the RunSummary from everything observed so far.
// The caller fills Partition, Complete, Reason and WallMillis.
func (c *Collector) Summary() RunSummary {
	s := RunSummary{
		Condition:      c.condition,
		Seed:           c.seed,
		Budget:         c.budget,
		StepsRun:       c.steps,
		Complete:       true,
		ExtinctionStep: c.extinct,
		InitialAlive:   c.initial,
		FinalAlive:     c.lastAlive,
		AUC:            c.auc,
		PeakAlive:      c.peak,
		Births:         c.births,
		Deaths:         c.deaths,
		Reproductions:  c.reproductions,
		MaxGeneration:  int(c.maxGeneration),
		Samples:        c.samples,
		Events:         c.events,
	}
	if c.budget > 0 {
		s.MeanAlive = c.aliveSum / float64(c.budget)
	}

	if n := len(c.samples); n > 0 {
		last := c.samples[n-1]
		s.MeanGeneration = last.MeanGeneration
		s.GenomeDrift = last.GenomeDrift
		s.GenomeDiverse = last.GenomeDiverse
	}

	s.LifespanCount = len(c.lifespans)
	if s.LifespanCount > 0 {
		s.LifespanMean = stat.Mean(c.lifespans, nil)
		sorted := make([]float64, len(c.lifespans))
		copy(sorted, c.lifespans)
		sort.Float64s(sorted)
		s.LifespanMedian = Percentile(sorted, 0.5)
	}

	s.FailEnergyStep = FirstDrop(c.samples, func(x Sample) float64 { return x.EnergyMean })
	s.FailBoundaryStep = FirstDrop(c.samples, func(x Sample) float64 { return x.BoundaryMean })
	s.FailAliveStep = FirstDrop(c.samples, func(x Sample) float64 { return float64(x.Alive) })
	return s
}

// FirstDrop returns the first sample step whose value is at or below
// FailureFraction of the first sample's value. -1 if the baseline is not
// positive or the series never drops.
func FirstDrop(samples []Sample, value func(Sample) float64) int {
	if len(samples) == 0 {
		return -1
	}
	base := value(samples[0])
	if base <= 0 {
		return -1
	}
	threshold := base * FailureFraction
	for _, s := range samples {
		if value(s) <= threshold {
			return s.Step
		}
	}
	return -1
}
