package analysis

import (
	"sort"

	"github.com/pthm-cable/lifecriteria/telemetry"
)

// Pathway summarises which quantity failed first under one condition.
// Medians are over runs where that quantity failed; -1 if none did.
type Pathway struct {
	Condition      string  `csv:"condition"`
	Runs           int     `csv:"runs"`
	EnergyFailed   int     `csv:"energy_failed"`
	EnergyMedian   float64 `csv:"energy_median_step"`
	BoundaryFailed int     `csv:"boundary_failed"`
	BoundaryMedian float64 `csv:"boundary_median_step"`
	AliveFailed    int     `csv:"alive_failed"`
	AliveMedian    float64 `csv:"alive_median_step"`
	// First is the quantity with the earliest median failure, or "none"
	First string `csv:"first"`
}

// FailurePathways aggregates first-failure steps per condition over complete
// test-partition runs.
func FailurePathways(runs []telemetry.RunSummary) []Pathway {
	var out []Pathway
	for _, g := range GroupByCondition(TestRuns(runs)) {
		p := Pathway{Condition: g.Condition, Runs: len(g.Runs)}
		p.EnergyFailed, p.EnergyMedian = medianStep(g.Runs, func(r telemetry.RunSummary) int { return r.FailEnergyStep })
		p.BoundaryFailed, p.BoundaryMedian = medianStep(g.Runs, func(r telemetry.RunSummary) int { return r.FailBoundaryStep })
		p.AliveFailed, p.AliveMedian = medianStep(g.Runs, func(r telemetry.RunSummary) int { return r.FailAliveStep })
		p.First = firstFailure(p)
		out = append(out, p)
	}
	return out
}

func medianStep(runs []telemetry.RunSummary, step func(telemetry.RunSummary) int) (int, float64) {
	var steps []float64
	for _, r := range runs {
		if s := step(r); s >= 0 {
			steps = append(steps, float64(s))
		}
	}
	if len(steps) == 0 {
		return 0, -1
	}
	sort.Float64s(steps)
	return len(steps), telemetry.Percentile(steps, 0.5)
}

func firstFailure(p Pathway) string {
	first, best := "none", -1.0
	for _, c := range []struct {
		name   string
		median float64
	}{
		{"energy", p.EnergyMedian},
		{"boundary", p.BoundaryMedian},
		{"alive", p.AliveMedian},
	} {
		if c.median >= 0 && (best < 0 || c.median < best) {
			first, best = c.name, c.median
		}
	}
	return first
}
