package telemetry

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/lifecriteria/genome"
)

func population(energy, integrity float64, n int) *Population {
	p := &Population{}
	g := genome.Default()
	for i := 0; i < n; i++ {
		p.Energies = append(p.Energies, energy)
		p.Integrities = append(p.Integrities, integrity)
		p.Deviations = append(p.Deviations, 0.1)
		p.Ages = append(p.Ages, float64(i))
		p.Generations = append(p.Generations, float64(i%3))
		p.Genomes = append(p.Genomes, g)
		p.Founders = append(p.Founders, g)
	}
	p.Mature = n / 2
	return p
}

func TestCollectorMeanAliveCountsExtinctionAsZero(t *testing.T) {
	c := NewCollector("no_metabolism", 100, 10, 5, false)
	c.Begin(4, 100, population(1, 1, 4))

	alive := []int{4, 3, 2, 1, 0}
	for i, a := range alive {
		c.Observe(StepStats{Step: i + 1, Alive: a})
	}

	s := c.Summary()
	if want := 10.0 / 10.0; math.Abs(s.MeanAlive-want) > 1e-12 {
		t.Errorf("mean_alive = %v, want %v", s.MeanAlive, want)
	}
	if s.ExtinctionStep != 5 || !s.Extinct() {
		t.Errorf("extinction step = %d, want 5", s.ExtinctionStep)
	}
	// Trapezoid over 4,4,3,2,1,0
	if want := 4.0 + 3.5 + 2.5 + 1.5 + 0.5; math.Abs(s.AUC-want) > 1e-12 {
		t.Errorf("auc = %v, want %v", s.AUC, want)
	}
	if s.PeakAlive != 4 || s.FinalAlive != 0 || s.StepsRun != 5 {
		t.Errorf("peak=%d final=%d steps=%d", s.PeakAlive, s.FinalAlive, s.StepsRun)
	}
}

func TestCollectorSurvivingRun(t *testing.T) {
	c := NewCollector("normal", 100, 3, 0, false)
	c.Begin(2, 10, nil)
	for step := 1; step <= 3; step++ {
		c.Observe(StepStats{Step: step, Alive: 2 + step, Births: 1})
	}
	s := c.Summary()
	if s.ExtinctionStep != -1 || s.Extinct() {
		t.Error("surviving run should have extinction step -1")
	}
	if s.Births != 3 || s.PeakAlive != 5 {
		t.Errorf("births=%d peak=%d", s.Births, s.PeakAlive)
	}
	if math.Abs(s.MeanAlive-4) > 1e-12 {
		t.Errorf("mean_alive = %v, want 4", s.MeanAlive)
	}
}

func TestCollectorSamples(t *testing.T) {
	c := NewCollector("normal", 7, 100, 10, false)
	c.Begin(10, 50, population(1, 1, 10))

	if c.ShouldSample(0) || c.ShouldSample(5) || !c.ShouldSample(10) {
		t.Error("ShouldSample wrong")
	}

	for step := 1; step <= 10; step++ {
		c.Observe(StepStats{Step: step, Alive: 10, Births: 1, Deaths: 1, Injected: 0.5})
	}
	s := c.RecordSample(StepStats{Step: 10, Alive: 10, ResourceTotal: 40}, population(0.8, 0.9, 10))

	if s.Births != 10 || s.Deaths != 10 {
		t.Errorf("window births=%d deaths=%d, want 10/10", s.Births, s.Deaths)
	}
	if math.Abs(s.Injected-5) > 1e-12 {
		t.Errorf("window injected = %v, want 5", s.Injected)
	}
	if math.Abs(s.EnergyMean-0.8) > 1e-12 || math.Abs(s.BoundaryMean-0.9) > 1e-12 {
		t.Errorf("energy=%v boundary=%v", s.EnergyMean, s.BoundaryMean)
	}
	if s.MatureFrac != 0.5 || s.MaxGeneration != 2 {
		t.Errorf("mature_frac=%v max_generation=%d", s.MatureFrac, s.MaxGeneration)
	}
	if s.Condition != "normal" || s.Seed != 7 {
		t.Errorf("sample not tagged with run identity: %+v", s)
	}

	c.Observe(StepStats{Step: 11, Alive: 10, Births: 2})
	if next := c.RecordSample(StepStats{Step: 11, Alive: 10}, nil); next.Births != 2 {
		t.Errorf("window should reset after a sample, got births=%d", next.Births)
	}
	if len(c.Samples()) != 3 || c.LastSampleStep() != 11 {
		t.Errorf("samples=%d last=%d", len(c.Samples()), c.LastSampleStep())
	}
}

func TestCollectorLifespansAndLineage(t *testing.T) {
	c := NewCollector("normal", 1, 10, 0, true)
	c.Begin(2, 0, nil)
	c.RecordBirth(3, 3, 1, 1)
	c.RecordBirth(4, 4, 3, 2)
	c.RecordDeath(5, 1, 0, 10, "starvation")
	c.RecordDeath(6, 2, 0, 20, "dissolution")
	c.RecordDeath(7, 3, 1, 60, "starvation")

	s := c.Summary()
	if s.MaxGeneration != 2 {
		t.Errorf("max generation = %d, want 2", s.MaxGeneration)
	}
	if s.LifespanCount != 3 || math.Abs(s.LifespanMean-30) > 1e-12 || s.LifespanMedian != 20 {
		t.Errorf("lifespans count=%d mean=%v median=%v", s.LifespanCount, s.LifespanMean, s.LifespanMedian)
	}
	if len(s.Events) != 5 || s.Events[0].Type != EventBirth || s.Events[4].Cause != "starvation" {
		t.Errorf("unexpected events: %+v", s.Events)
	}

	quiet := NewCollector("normal", 1, 10, 0, false)
	quiet.RecordBirth(1, 2, 1, 1)
	if len(quiet.Events()) != 0 {
		t.Error("events should not be kept when disabled")
	}
}

func TestFirstDrop(t *testing.T) {
	samples := []Sample{
		{Step: 0, Alive: 100, EnergyMean: 1.0},
		{Step: 50, Alive: 80, EnergyMean: 0.6},
		{Step: 100, Alive: 50, EnergyMean: 0.4},
		{Step: 150, Alive: 20, EnergyMean: 0.7},
	}
	if got := FirstDrop(samples, func(s Sample) float64 { return float64(s.Alive) }); got != 100 {
		t.Errorf("alive drop step = %d, want 100", got)
	}
	if got := FirstDrop(samples, func(s Sample) float64 { return s.EnergyMean }); got != 100 {
		t.Errorf("energy drop step = %d, want 100", got)
	}
	if got := FirstDrop(samples, func(s Sample) float64 { return s.BoundaryMean }); got != -1 {
		t.Errorf("zero baseline should give -1, got %d", got)
	}
	if got := FirstDrop(nil, func(s Sample) float64 { return 1 }); got != -1 {
		t.Errorf("empty series should give -1, got %d", got)
	}
}

func TestRunSummaryMetric(t *testing.T) {
	s := RunSummary{MeanAlive: 12.5, FinalAlive: 9, AUC: 300}
	tests := []struct {
		name string
		want float64
	}{
		{MetricMeanAlive, 12.5},
		{MetricFinalAlive, 9},
		{MetricAUC, 300},
	}
	for _, tt := range tests {
		got, err := s.Metric(tt.name)
		if err != nil || got != tt.want {
			t.Errorf("Metric(%q) = %v, %v; want %v", tt.name, got, err, tt.want)
		}
	}
	if _, err := s.Metric("vibes"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
}
