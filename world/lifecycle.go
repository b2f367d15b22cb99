package world

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/lifecriteria/components"
	"github.com/pthm-cable/lifecriteria/genome"
)

// spawnFounders places the initial population on distinct random cells.
func (w *World) spawnFounders() {
	cfg := w.cfg
	cells := w.rng.Perm(cfg.Derived.Cells)[:cfg.World.InitialPopulation]

	for _, c := range cells {
		pos := components.Position{X: c % cfg.World.Width, Y: c / cfg.World.Width}
		g := genome.Founder(w.rng, cfg.Mutation)

		id := w.nextID
		w.nextID++
		w.grid.Place(pos, id)

		w.spawn(pendingBirth{
			id:         id,
			pos:        pos,
			energy:     cfg.Organism.InitialEnergy,
			genome:     g,
			founder:    g,
			regulation: components.Regulation{State: g.Setpoints()},
		})
	}
}

// spawn creates the entity for a birth whose cell is already reserved in the grid.
func (w *World) spawn(b pendingBirth) ecs.Entity {
	pos := b.pos
	energy := components.Energy{Value: b.energy}
	reg := b.regulation
	boundary := components.Boundary{Integrity: 1}
	org := components.Organism{
		ID:         b.id,
		ParentID:   b.parentID,
		Generation: b.generation,
		BirthStep:  w.step,
		Stage:      components.Immature,
	}
	her := components.Heredity{Genome: b.genome, Founder: b.founder}

	entity := w.mapper.NewEntity(&pos, &energy, &reg, &boundary, &org, &her)
	w.order = append(w.order, entity)
	w.alive++

	w.lifetime.Register(b.id, w.step, b.parentID, b.generation)
	return entity
}

// spawnNewborns creates the children produced this step. IDs were assigned in
// reproduction order, so appending keeps w.order sorted.
func (w *World) spawnNewborns() int {
	n := len(w.births)
	for _, b := range w.births {
		w.spawn(b)
		w.lifetime.RecordChild(b.parentID)
		w.collector.RecordBirth(w.step, b.id, b.parentID, b.generation)
	}
	w.births = w.births[:0]
	return n
}

// cleanupDead removes organisms marked dead this step.
func (w *World) cleanupDead() int {
	n := len(w.deaths)
	if n == 0 {
		return 0
	}

	for _, d := range w.deaths {
		w.collector.RecordDeath(w.step, d.id, d.generation, d.age, d.cause.String())
		w.lifetime.Remove(d.id)
		w.grid.Vacate(d.pos)
		w.ecs.RemoveEntity(d.entity)
		w.alive--
	}
	w.deaths = w.deaths[:0]

	// Compact the order slice, dropping removed entities
	kept := w.order[:0]
	for _, e := range w.order {
		if w.ecs.Alive(e) {
			kept = append(kept, e)
		}
	}
	w.order = kept
	return n
}
