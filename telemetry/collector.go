package telemetry

import (
	"github.com/pthm-cable/lifecriteria/genome"
)

// StepStats is what one world step did.
type StepStats struct {
	Step int

	Alive         int
	Births        int
	Deaths        int
	Reproductions int // Reproduction costs paid, including proxy attempts

	Injected      float64
	Depleted      float64
	Perturbed     float64
	ResourceTotal float64
}

// Population holds per-organism values gathered by the world at sample steps.
type Population struct {
	Energies    []float64
	Integrities []float64
	Deviations  []float64
	Ages        []float64
	Generations []float64
	Mature      int

	Genomes  []*genome.Genome
	Founders []*genome.Genome // Founders[i] is the lineage founder of Genomes[i]
}

// Reset empties the population, keeping capacity.
func (p *Population) Reset() {
	p.Energies = p.Energies[:0]
	p.Integrities = p.Integrities[:0]
	p.Deviations = p.Deviations[:0]
	p.Ages = p.Ages[:0]
	p.Generations = p.Generations[:0]
	p.Mature = 0
	p.Genomes = p.Genomes[:0]
	p.Founders = p.Founders[:0]
}

// Collector accumulates per-step stats of one run and produces samples and the RunSummary.
type Collector struct {
	condition   string
	seed        int64
	sampleEvery int
	budget      int
	keepEvents  bool

	initial   int
	lastAlive int
	peak      int
	aliveSum  float64
	auc       float64
	steps     int
	extinct   int

	births, deaths, reproductions int
	maxGeneration                 uint32

	// Window counters since the last sample
	winBirths, winDeaths int
	winInjected          float64
	winDepleted          float64

	lifespans []float64
	events    []Event
	samples   []Sample
}

// NewCollector creates a collector for a run of budget steps.
// sampleEvery <= 0 disables periodic samples (the initial and final ones are still taken).
func NewCollector(condition string, seed int64, budget, sampleEvery int, keepEvents bool) *Collector {
	return &Collector{
		condition:   condition,
		seed:        seed,
		sampleEvery: sampleEvery,
		budget:      budget,
		keepEvents:  keepEvents,
		extinct:     -1,
	}
}

// Begin records the founding population as the step 0 sample.
func (c *Collector) Begin(alive int, resourceTotal float64, pop *Population) {
	c.initial = alive
	c.lastAlive = alive
	c.peak = alive
	if alive == 0 {
		c.extinct = 0
	}
	c.samples = append(c.samples, c.buildSample(StepStats{Alive: alive, ResourceTotal: resourceTotal}, pop))
}

// Observe folds one step into the run totals.
func (c *Collector) Observe(st StepStats) {
	c.steps = st.Step
	c.aliveSum += float64(st.Alive)
	c.auc += float64(c.lastAlive+st.Alive) / 2
	c.lastAlive = st.Alive
	if st.Alive > c.peak {
		c.peak = st.Alive
	}
	if st.Alive == 0 && c.extinct < 0 {
		c.extinct = st.Step
	}

	c.births += st.Births
	c.deaths += st.Deaths
	c.reproductions += st.Reproductions

	c.winBirths += st.Births
	c.winDeaths += st.Deaths
	c.winInjected += st.Injected
	c.winDepleted += st.Depleted
}

// ShouldSample reports whether step is a sample step.
func (c *Collector) ShouldSample(step int) bool {
	return c.sampleEvery > 0 && step > 0 && step%c.sampleEvery == 0
}

// RecordSample appends a sample for st and resets the window counters.
func (c *Collector) RecordSample(st StepStats, pop *Population) Sample {
	s := c.buildSample(st, pop)
	c.samples = append(c.samples, s)
	c.winBirths, c.winDeaths = 0, 0
	c.winInjected, c.winDepleted = 0, 0
	return s
}

// LastSampleStep returns the step of the most recent sample.
func (c *Collector) LastSampleStep() int {
	if len(c.samples) == 0 {
		return -1
	}
	return c.samples[len(c.samples)-1].Step
}

func (c *Collector) buildSample(st StepStats, pop *Population) Sample {
	s := Sample{
		Condition:     c.condition,
		Seed:          c.seed,
		Step:          st.Step,
		Alive:         st.Alive,
		Births:        c.winBirths,
		Deaths:        c.winDeaths,
		ResourceTotal: st.ResourceTotal,
		Injected:      c.winInjected,
		Depleted:      c.winDepleted,
	}
	if pop == nil || len(pop.Energies) == 0 {
		return s
	}

	e := Describe(pop.Energies)
	s.EnergyMean, s.EnergyStd = e.Mean, e.Std
	s.EnergyP10, s.EnergyP50, s.EnergyP90 = e.P10, e.P50, e.P90

	b := Describe(pop.Integrities)
	s.BoundaryMean, s.BoundaryStd = b.Mean, b.Std

	s.RegulationDev = Describe(pop.Deviations).Mean
	s.MeanAge = Describe(pop.Ages).Mean
	s.MatureFrac = float64(pop.Mature) / float64(len(pop.Energies))

	g := Describe(pop.Generations)
	s.MeanGeneration = g.Mean
	for _, v := range pop.Generations {
		if int(v) > s.MaxGeneration {
			s.MaxGeneration = int(v)
		}
	}

	s.GenomeDiverse = genome.Diversity(pop.Genomes)
	s.GenomeDrift = genome.MeanDrift(pop.Genomes, pop.Founders)
	return s
}

// RecordBirth registers a newborn for lineage tracking.
func (c *Collector) RecordBirth(step int, childID, parentID uint64, generation uint32) {
	if generation > c.maxGeneration {
		c.maxGeneration = generation
	}
	if c.keepEvents {
		c.events = append(c.events, NewBirthEvent(step, childID, parentID, generation))
	}
}

// RecordDeath registers a death and its lifespan.
func (c *Collector) RecordDeath(step int, id uint64, generation uint32, age int, cause string) {
	c.lifespans = append(c.lifespans, float64(age))
	if c.keepEvents {
		c.events = append(c.events, NewDeathEvent(step, id, generation, age, cause))
	}
}

// Samples returns the samples recorded so far.
func (c *Collector) Samples() []Sample {
	return c.samples
}

// Events returns recorded lineage events (empty unless events are kept).
func (c *Collector) Events() []Event {
	return c.events
}
