package systems

import (
	"github.com/pthm-cable/lifecriteria/components"
	"github.com/pthm-cable/lifecriteria/config"
	"github.com/pthm-cable/lifecriteria/criteria"
	"github.com/pthm-cable/lifecriteria/genome"
)

// GrowthResult reports one growth step.
type GrowthResult struct {
	Invested float64
	Cost     float64
	Matured  bool // Stage flipped this step
}

// Grow invests surplus energy into the growth signal of an immature organism
// and flips it to Mature once the genome threshold is reached. Mature never
// reverts. With growth ablated an organism stays Immature.
func Grow(
	mode criteria.Mode,
	org *components.Organism,
	energy *components.Energy,
	g *genome.Genome,
	cfg config.GrowthConfig,
) GrowthResult {
	var res GrowthResult
	if mode == criteria.Ablated || org.Stage == components.Mature {
		return res
	}

	invest := energy.Value - cfg.Reserve
	if invest > cfg.Rate {
		invest = cfg.Rate
	}
	if invest <= 0 {
		return res
	}

	res.Cost = energy.Spend(invest)
	if mode != criteria.Enabled {
		return res
	}

	res.Invested = res.Cost
	org.GrowthSignal += res.Invested
	if org.GrowthSignal >= g.MatureAt() {
		org.Stage = components.Mature
		res.Matured = true
	}
	return res
}
