package systems

import (
	"github.com/pthm-cable/lifecriteria/components"
	"github.com/pthm-cable/lifecriteria/config"
	"github.com/pthm-cable/lifecriteria/criteria"
	"github.com/pthm-cable/lifecriteria/genome"
)

// BoundaryResult reports one integrity update.
type BoundaryResult struct {
	Decay    float64
	Repaired float64
	Cost     float64
}

// Maintain decays membrane integrity and, when enabled, repairs it in
// proportion to homeostatic alignment. Decay accelerates while energy sits
// below the viability floor.
func Maintain(
	mode criteria.Mode,
	b *components.Boundary,
	energy *components.Energy,
	g *genome.Genome,
	alignment float64,
	cfg config.BoundaryConfig,
) BoundaryResult {
	var res BoundaryResult

	res.Decay = cfg.DecayBase
	if cfg.ViabilityFloor > 0 && energy.Value < cfg.ViabilityFloor {
		res.Decay += cfg.DeficitDecay * (cfg.ViabilityFloor - energy.Value) / cfg.ViabilityFloor
	}
	b.Integrity -= res.Decay
	b.Clamp()

	if mode == criteria.Ablated || b.Integrity <= 0 {
		return res
	}

	repair := cfg.RepairRate * g.RepairFactor() * alignment
	if room := 1 - b.Integrity; repair > room {
		repair = room
	}
	if cfg.RepairCost > 0 {
		if affordable := energy.Value / cfg.RepairCost; repair > affordable {
			repair = affordable
		}
	}
	if repair <= 0 {
		return res
	}

	res.Cost = energy.Spend(repair * cfg.RepairCost)
	if mode == criteria.Enabled {
		res.Repaired = repair
		b.Integrity += repair
		b.Clamp()
	}
	return res
}
