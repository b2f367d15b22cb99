package world

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/lifecriteria/components"
	"github.com/pthm-cable/lifecriteria/criteria"
	"github.com/pthm-cable/lifecriteria/systems"
	"github.com/pthm-cable/lifecriteria/telemetry"
)

// Step advances the world by one step:
// environment, organisms in ascending ID order, removal of the dead, newborns, stats.
// Newborns do not act in the step they are born.
func (w *World) Step() telemetry.StepStats {
	w.step++
	st := telemetry.StepStats{Step: w.step}
	modes := w.cond.Modes(w.step)

	if w.perf != nil {
		w.perf.StartStep()
	}

	w.startPhase(telemetry.PhaseEnvironment)
	st.Injected = w.field.Inject(InjectionRate(w.cfg.Resource.InjectionRate, w.env, w.step))
	if PerturbDue(w.env, w.step) {
		st.Perturbed = w.field.Perturb(w.env.PerturbFraction)
	}
	w.field.Diffuse(w.cfg.Derived.Diffusion)

	w.startPhase(telemetry.PhaseOrganisms)
	for _, e := range w.order {
		w.act(e, modes, &st)
	}

	w.startPhase(telemetry.PhaseCleanup)
	st.Deaths = w.cleanupDead()

	w.startPhase(telemetry.PhaseBirths)
	st.Births = w.spawnNewborns()

	w.startPhase(telemetry.PhaseStats)
	st.Alive = w.alive
	st.ResourceTotal = w.field.Total()
	w.collector.Observe(st)
	if w.collector.ShouldSample(w.step) {
		w.recordSample(st)
	}
	w.last = st

	if w.perf != nil {
		w.perf.EndStep()
	}
	return st
}

// act applies the criterion modules to one organism in their fixed order,
// then checks for death.
func (w *World) act(e ecs.Entity, modes criteria.Modes, st *telemetry.StepStats) {
	cfg := w.cfg
	pos, energy, reg, boundary, org, her := w.mapper.Get(e)
	g := her.Genome

	systems.BeginTurn(org)

	met := systems.Metabolize(modes.Of(criteria.Metabolism), w.field, *pos, energy, org, g,
		cfg.Metabolism, cfg.Organism.MaxEnergy)
	st.Depleted += met.Drawn
	if met.Gained > 0 {
		w.lifetime.RecordConsumed(org.ID, met.Gained, energy.Value)
	}

	hom := systems.Regulate(modes.Of(criteria.Homeostasis), w.rng, reg, energy, g, cfg.Homeostasis)

	systems.Maintain(modes.Of(criteria.Boundary), boundary, energy, g, hom.Alignment, cfg.Boundary)

	systems.Grow(modes.Of(criteria.Growth), org, energy, g, cfg.Growth)

	systems.Respond(modes.Of(criteria.Response), w.rng, w.field, w.grid, pos, energy, g, cfg.Response)

	childID := w.nextID
	rep := systems.Reproduce(modes.Of(criteria.Reproduction), w.rng, w.grid, *pos, org, energy, g,
		cfg.Reproduction, childID)
	if rep.Cost > 0 {
		st.Reproductions++
	}
	if rep.Spawn {
		w.nextID++
		w.births = append(w.births, pendingBirth{
			id:         childID,
			parentID:   org.ID,
			generation: org.Generation + 1,
			pos:        rep.At,
			energy:     rep.ChildEnergy,
			genome:     systems.Inherit(modes.Of(criteria.Evolution), w.rng, g, cfg.Mutation),
			founder:    her.Founder,
			regulation: *reg,
		})
	}

	if cause := systems.CheckDeath(org, energy, boundary, cfg.Organism.MaxAge); cause != systems.Alive {
		w.deaths = append(w.deaths, pendingDeath{
			entity:     e,
			id:         org.ID,
			generation: org.Generation,
			age:        org.Age,
			pos:        *pos,
			cause:      cause,
		})
	}
}

// Organism returns copies of an organism's components by ID, and false if it is not alive.
func (w *World) Organism(id uint64) (components.Organism, components.Energy, components.Boundary, bool) {
	for _, e := range w.order {
		_, energy, _, b, org, _ := w.mapper.Get(e)
		if org.ID == id {
			return *org, *energy, *b, true
		}
	}
	return components.Organism{}, components.Energy{}, components.Boundary{}, false
}
