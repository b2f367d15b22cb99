package systems

import (
	"math/rand"

	"github.com/pthm-cable/lifecriteria/components"
	"github.com/pthm-cable/lifecriteria/config"
	"github.com/pthm-cable/lifecriteria/criteria"
	"github.com/pthm-cable/lifecriteria/genome"
)

// ReproductionResult describes a reproduction attempt.
type ReproductionResult struct {
	Spawn       bool                // A child should be created at At
	At          components.Position // Reserved cell for the child
	ChildEnergy float64             // Energy transferred to the child
	Cost        float64             // Energy paid beyond the transfer
}

// CanReproduce reports whether the organism meets the maturity, energy and
// cooldown conditions.
func CanReproduce(org *components.Organism, energy *components.Energy, g *genome.Genome, cfg config.ReproductionConfig) bool {
	if org.Stage != components.Mature || org.Cooldown > 0 {
		return false
	}
	need := g.ReproduceAt()
	if floor := cfg.Cost + cfg.ChildEnergy; floor > need {
		need = floor
	}
	return energy.Value >= need
}

// Reproduce attempts to place one offspring in a free Moore neighbour cell.
// The cell is reserved in grid under childID so later organisms in the same
// step cannot claim it. With no free cell nothing happens and nothing is paid.
// Proxy organisms pay the cost and enter cooldown but produce no child.
func Reproduce(
	mode criteria.Mode,
	rng *rand.Rand,
	grid *OccupancyGrid,
	pos components.Position,
	org *components.Organism,
	energy *components.Energy,
	g *genome.Genome,
	cfg config.ReproductionConfig,
	childID uint64,
) ReproductionResult {
	var res ReproductionResult
	if mode == criteria.Ablated || !CanReproduce(org, energy, g, cfg) {
		return res
	}

	at, ok := freeNeighbour(rng, grid, pos)
	if !ok {
		return res
	}

	res.Cost = energy.Spend(cfg.Cost)
	org.Cooldown = cfg.Cooldown

	if mode == criteria.Enabled && grid.Place(at, childID) {
		res.ChildEnergy = energy.Spend(cfg.ChildEnergy)
		res.Spawn = true
		res.At = at
	}
	return res
}

func freeNeighbour(rng *rand.Rand, grid *OccupancyGrid, pos components.Position) (components.Position, bool) {
	for _, i := range rng.Perm(len(moore)) {
		d := moore[i]
		p := grid.Wrap(pos.X+d[0], pos.Y+d[1])
		if grid.Free(p) {
			return p, true
		}
	}
	return components.Position{}, false
}
