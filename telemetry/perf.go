package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the world step.
const (
	PhaseEnvironment = "environment"
	PhaseOrganisms   = "organisms"
	PhaseCleanup     = "cleanup"
	PhaseBirths      = "births"
	PhaseStats       = "stats"
)

// Phases lists the step phases in execution order.
var Phases = []string{PhaseEnvironment, PhaseOrganisms, PhaseCleanup, PhaseBirths, PhaseStats}

// PerfCollector times world steps by phase. It keeps totals for the whole
// run and for the interval since the last Interval call.
type PerfCollector struct {
	run, interval perfTotals

	current    map[string]time.Duration
	stepStart  time.Time
	phaseStart time.Time
	lastPhase  string
}

type perfTotals struct {
	steps    int
	total    time.Duration
	min, max time.Duration
	phases   map[string]time.Duration
}

func (t *perfTotals) add(step time.Duration, phases map[string]time.Duration) {
	if t.steps == 0 || step < t.min {
		t.min = step
	}
	if step > t.max {
		t.max = step
	}
	t.steps++
	t.total += step
	if t.phases == nil {
		t.phases = make(map[string]time.Duration, len(Phases))
	}
	for phase, d := range phases {
		t.phases[phase] += d
	}
}

func (t *perfTotals) stats() PerfStats {
	stats := PerfStats{Steps: t.steps, PhasePct: make(map[string]float64, len(t.phases))}
	if t.steps == 0 {
		return stats
	}
	stats.AvgStep = t.total / time.Duration(t.steps)
	stats.MinStep, stats.MaxStep = t.min, t.max
	if t.total > 0 {
		stats.StepsPerSecond = float64(t.steps) / t.total.Seconds()
		for phase, d := range t.phases {
			stats.PhasePct[phase] = float64(d) / float64(t.total) * 100
		}
	}
	return stats
}

// NewPerfCollector creates an empty collector.
func NewPerfCollector() *PerfCollector {
	return &PerfCollector{current: make(map[string]time.Duration, len(Phases))}
}

// StartStep begins timing a new step.
func (p *PerfCollector) StartStep() {
	p.stepStart = time.Now()
	clear(p.current)
	p.lastPhase = ""
}

// StartPhase ends the previous phase, if any, and begins timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.current[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndStep finishes timing the current step.
func (p *PerfCollector) EndStep() {
	now := time.Now()
	if p.lastPhase != "" {
		p.current[p.lastPhase] += now.Sub(p.phaseStart)
	}
	d := now.Sub(p.stepStart)
	p.run.add(d, p.current)
	p.interval.add(d, p.current)
}

// Stats summarises every step timed so far.
func (p *PerfCollector) Stats() PerfStats {
	return p.run.stats()
}

// Interval summarises the steps since the previous call and starts a new interval.
func (p *PerfCollector) Interval() PerfStats {
	stats := p.interval.stats()
	p.interval = perfTotals{}
	return stats
}

// PerfStats holds aggregated timing statistics.
type PerfStats struct {
	Steps   int
	AvgStep time.Duration
	MinStep time.Duration
	MaxStep time.Duration

	PhasePct map[string]float64 // Share of total step time

	StepsPerSecond float64
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("steps", s.Steps),
		slog.Int64("avg_step_us", s.AvgStep.Microseconds()),
		slog.Int64("min_step_us", s.MinStep.Microseconds()),
		slog.Int64("max_step_us", s.MaxStep.Microseconds()),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}
