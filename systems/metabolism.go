package systems

import (
	"github.com/pthm-cable/lifecriteria/components"
	"github.com/pthm-cable/lifecriteria/config"
	"github.com/pthm-cable/lifecriteria/criteria"
	"github.com/pthm-cable/lifecriteria/genome"
)

// MetabolismResult reports what one metabolism step moved.
type MetabolismResult struct {
	Drawn  float64 // Resource removed from the field
	Gained float64 // Energy added to the organism
	Cost   float64 // Upkeep paid
}

// Metabolize draws resource from the organism's cell and converts it to energy,
// then charges upkeep. Efficiency scales both the draw and the energy yielded
// per unit drawn. Ablated organisms only pay upkeep. Proxy organisms draw
// the same resource but convert none of it.
func Metabolize(
	mode criteria.Mode,
	field *ResourceField,
	pos components.Position,
	energy *components.Energy,
	org *components.Organism,
	g *genome.Genome,
	cfg config.MetabolismConfig,
	maxEnergy float64,
) MetabolismResult {
	var res MetabolismResult

	if mode != criteria.Ablated {
		want := cfg.UptakeRate * g.Efficiency()
		if org.Stage == components.Immature {
			want *= cfg.ImmatureEfficiency
		}

		yield := cfg.Conversion * g.Efficiency()

		// Cap by headroom so no resource is wasted on a full store
		if yield > 0 {
			headroom := (maxEnergy - energy.Value) / yield
			if headroom < 0 {
				headroom = 0
			}
			if want > headroom {
				want = headroom
			}
		}

		res.Drawn = field.Deplete(pos.X, pos.Y, want)
		if mode == criteria.Enabled {
			res.Gained = res.Drawn * yield
			energy.Value += res.Gained
			if energy.Value > maxEnergy {
				energy.Value = maxEnergy
			}
		}
	}

	res.Cost = energy.Spend(cfg.UpkeepCost)
	return res
}
