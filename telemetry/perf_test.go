package telemetry

import (
	"testing"
	"time"
)

func timeSteps(pc *PerfCollector, n int, phases map[string]time.Duration) {
	for i := 0; i < n; i++ {
		pc.StartStep()
		for _, phase := range Phases {
			if d, ok := phases[phase]; ok {
				pc.StartPhase(phase)
				time.Sleep(d)
			}
		}
		pc.EndStep()
	}
}

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector()
	timeSteps(pc, 5, map[string]time.Duration{
		PhaseEnvironment: 100 * time.Microsecond,
		PhaseOrganisms:   200 * time.Microsecond,
	})

	stats := pc.Stats()
	if stats.Steps != 5 || stats.AvgStep <= 0 || stats.StepsPerSecond <= 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.MinStep > stats.AvgStep || stats.AvgStep > stats.MaxStep {
		t.Errorf("min %v avg %v max %v out of order", stats.MinStep, stats.AvgStep, stats.MaxStep)
	}
	if _, ok := stats.PhasePct[PhaseEnvironment]; !ok {
		t.Error("expected environment phase to be tracked")
	}
	if _, ok := stats.PhasePct[PhaseCleanup]; ok {
		t.Error("untimed phase should be absent")
	}
}

func TestPerfCollector_IntervalResets(t *testing.T) {
	pc := NewPerfCollector()
	timeSteps(pc, 4, map[string]time.Duration{PhaseCleanup: 10 * time.Microsecond})

	if got := pc.Interval(); got.Steps != 4 {
		t.Errorf("first interval has %d steps, want 4", got.Steps)
	}
	timeSteps(pc, 2, map[string]time.Duration{PhaseCleanup: 10 * time.Microsecond})
	if got := pc.Interval(); got.Steps != 2 {
		t.Errorf("second interval has %d steps, want 2", got.Steps)
	}
	if got := pc.Interval(); got.Steps != 0 || got.AvgStep != 0 {
		t.Errorf("empty interval: %+v", got)
	}
	if got := pc.Stats(); got.Steps != 6 {
		t.Errorf("run total has %d steps, want 6", got.Steps)
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector()
	timeSteps(pc, 5, map[string]time.Duration{
		PhaseBirths: 10 * time.Microsecond,
		PhaseStats:  200 * time.Microsecond,
	})

	stats := pc.Stats()
	if stats.PhasePct[PhaseStats] <= stats.PhasePct[PhaseBirths] {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", stats.PhasePct[PhaseStats], stats.PhasePct[PhaseBirths])
	}
	if sum := stats.PhasePct[PhaseStats] + stats.PhasePct[PhaseBirths]; sum > 100+1e-9 {
		t.Errorf("phase shares sum to %f%%", sum)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector().Stats()
	if stats.AvgStep != 0 || stats.Steps != 0 {
		t.Error("expected zero stats for empty collector")
	}
	if stats.PhasePct == nil {
		t.Error("expected non-nil phase map")
	}
}
