// Package world runs a single simulated population under one run condition.
package world

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/lifecriteria/components"
	"github.com/pthm-cable/lifecriteria/config"
	"github.com/pthm-cable/lifecriteria/criteria"
	"github.com/pthm-cable/lifecriteria/genome"
	"github.com/pthm-cable/lifecriteria/systems"
	"github.com/pthm-cable/lifecriteria/telemetry"
)

// ErrNoConfig is returned by New when Options.Config is nil.
var ErrNoConfig = errors.New("world: nil config")

// Options configures a World.
type Options struct {
	Config    *config.Config
	Condition criteria.Condition
	Seed      int64
	// Steps is the step budget used for time averages. Defaults to Experiment.Steps.
	Steps int

	// Logger receives progress logs. Defaults to slog.Default().
	Logger *slog.Logger
	// LogProgress logs a sample line every Telemetry.LogInterval steps.
	LogProgress bool
	// Perf enables per-phase step timings.
	Perf bool
}

// pendingBirth is a child created during the organism phase and spawned after cleanup.
type pendingBirth struct {
	id         uint64
	parentID   uint64
	generation uint32
	pos        components.Position
	energy     float64
	genome     *genome.Genome
	founder    *genome.Genome
	regulation components.Regulation
}

// pendingDeath is an organism marked dead during the organism phase.
type pendingDeath struct {
	entity     ecs.Entity
	id         uint64
	generation uint32
	age        int
	pos        components.Position
	cause      systems.DeathCause
}

// World owns one population, its resource field and its random stream.
// Not safe for concurrent use; run separate Worlds in parallel instead.
type World struct {
	cfg    *config.Config
	cond   criteria.Condition
	env    config.EnvironmentConfig
	seed   int64
	rng    *rand.Rand
	logger *slog.Logger

	ecs *ecs.World

	// Entity mapper over every organism component
	mapper *ecs.Map6[
		components.Position,
		components.Energy,
		components.Regulation,
		components.Boundary,
		components.Organism,
		components.Heredity,
	]
	filter *ecs.Filter6[
		components.Position,
		components.Energy,
		components.Regulation,
		components.Boundary,
		components.Organism,
		components.Heredity,
	]

	field *systems.ResourceField
	grid  *systems.OccupancyGrid

	// Living organisms in ascending ID order
	order []ecs.Entity

	births []pendingBirth
	deaths []pendingDeath

	collector *telemetry.Collector
	lifetime  *telemetry.LifetimeTracker
	perf      *telemetry.PerfCollector
	pop       telemetry.Population

	step        int
	budget      int
	last        telemetry.StepStats
	nextID      uint64
	alive       int
	logProgress bool
}

// New builds a World with its founding population placed on random free cells.
func New(opts Options) (*World, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, ErrNoConfig
	}
	if err := opts.Condition.Validate(); err != nil {
		return nil, err
	}
	if cfg.World.InitialPopulation > cfg.Derived.Cells {
		return nil, fmt.Errorf("%w: initial_population %d exceeds %d cells",
			config.ErrInvalid, cfg.World.InitialPopulation, cfg.Derived.Cells)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	env := cfg.Environment
	if opts.Condition.Environment != nil {
		env = *opts.Condition.Environment
	}

	world := ecs.NewWorld()
	w := &World{
		cfg:    cfg,
		cond:   opts.Condition,
		env:    env,
		seed:   opts.Seed,
		rng:    rand.New(rand.NewSource(opts.Seed)),
		logger: logger.With("condition", opts.Condition.Name, "seed", opts.Seed),
		ecs:    world,
		mapper: ecs.NewMap6[
			components.Position,
			components.Energy,
			components.Regulation,
			components.Boundary,
			components.Organism,
			components.Heredity,
		](world),
		filter: ecs.NewFilter6[
			components.Position,
			components.Energy,
			components.Regulation,
			components.Boundary,
			components.Organism,
			components.Heredity,
		](world),
		field:       systems.NewResourceField(cfg.World.Width, cfg.World.Height, cfg.Resource, opts.Seed),
		grid:        systems.NewOccupancyGrid(cfg.World.Width, cfg.World.Height),
		lifetime:    telemetry.NewLifetimeTracker(),
		nextID:      1,
		logProgress: opts.LogProgress,
	}
	w.budget = opts.Steps
	if w.budget <= 0 {
		w.budget = cfg.Experiment.Steps
	}
	w.collector = telemetry.NewCollector(opts.Condition.Name, opts.Seed,
		w.budget, cfg.Experiment.SampleEvery, cfg.Telemetry.Lineage)
	if opts.Perf {
		w.perf = telemetry.NewPerfCollector()
	}

	w.spawnFounders()
	w.gatherPopulation()
	w.collector.Begin(w.alive, w.field.Total(), &w.pop)
	return w, nil
}

// StepCount returns the number of steps taken.
func (w *World) StepCount() int { return w.step }

// Alive returns the number of living organisms.
func (w *World) Alive() int { return w.alive }

// Field returns the resource field.
func (w *World) Field() *systems.ResourceField { return w.field }

// Grid returns the occupancy grid.
func (w *World) Grid() *systems.OccupancyGrid { return w.grid }

// Condition returns the run condition.
func (w *World) Condition() criteria.Condition { return w.cond }

// Seed returns the replicate seed.
func (w *World) Seed() int64 { return w.seed }

// Perf returns phase timings over the whole run, zero if timings are disabled.
func (w *World) Perf() telemetry.PerfStats {
	if w.perf == nil {
		return telemetry.PerfStats{}
	}
	return w.perf.Stats()
}

// ForEach calls fn for every living organism in ascending ID order.
// fn must not retain the pointers.
func (w *World) ForEach(fn func(org *components.Organism, pos *components.Position, energy *components.Energy, b *components.Boundary)) {
	for _, e := range w.order {
		pos, energy, _, b, org, _ := w.mapper.Get(e)
		fn(org, pos, energy, b)
	}
}

func (w *World) startPhase(name string) {
	if w.perf != nil {
		w.perf.StartPhase(name)
	}
}
