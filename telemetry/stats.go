package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Sample is a snapshot of population state taken every sample_every steps.
// Event counts cover the steps since the previous sample.
type Sample struct {
	Condition string `csv:"condition"`
	Seed      int64  `csv:"seed"`
	Step      int    `csv:"step"`

	Alive  int `csv:"alive"`
	Births int `csv:"births"`
	Deaths int `csv:"deaths"`

	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	BoundaryMean float64 `csv:"boundary_mean"`
	BoundaryStd  float64 `csv:"boundary_std"`

	RegulationDev float64 `csv:"regulation_dev"` // Mean RMS distance from setpoints
	MatureFrac    float64 `csv:"mature_frac"`
	MeanAge       float64 `csv:"mean_age"`

	MeanGeneration float64 `csv:"mean_generation"`
	MaxGeneration  int     `csv:"max_generation"`
	GenomeDrift    float64 `csv:"genome_drift"`
	GenomeDiverse  float64 `csv:"genome_diversity"`

	ResourceTotal float64 `csv:"resource_total"`
	Injected      float64 `csv:"injected"`
	Depleted      float64 `csv:"depleted"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Distribution summarises a set of values.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// Describe computes mean, population standard deviation and percentiles.
// values is not modified.
func Describe(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}

	mean, std := stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Distribution{
		Mean: mean,
		Std:  std,
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s Sample) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("step", s.Step),
		slog.Int("alive", s.Alive),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
		slog.Float64("boundary_mean", s.BoundaryMean),
		slog.Float64("regulation_dev", s.RegulationDev),
		slog.Float64("mature_frac", s.MatureFrac),
		slog.Float64("mean_generation", s.MeanGeneration),
		slog.Int("max_generation", s.MaxGeneration),
		slog.Float64("genome_drift", s.GenomeDrift),
		slog.Float64("genome_diversity", s.GenomeDiverse),
		slog.Float64("resource_total", s.ResourceTotal),
	)
}
