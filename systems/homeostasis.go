package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/lifecriteria/components"
	"github.com/pthm-cable/lifecriteria/config"
	"github.com/pthm-cable/lifecriteria/criteria"
	"github.com/pthm-cable/lifecriteria/genome"
)

// HomeostasisResult reports one regulation step.
type HomeostasisResult struct {
	Moved     float64 // Total absolute correction applied
	Cost      float64
	Alignment float64 // In (0, 1], 1 when state sits on the setpoints
}

// Regulate applies environmental drift to the regulatory state, then (when
// enabled) steers each variable toward its genome setpoint. The drift always
// happens and always consumes two normal draws, whatever the mode.
func Regulate(
	mode criteria.Mode,
	rng *rand.Rand,
	reg *components.Regulation,
	energy *components.Energy,
	g *genome.Genome,
	cfg config.HomeostasisConfig,
) HomeostasisResult {
	for i := range reg.State {
		v := reg.State[i]*(1-cfg.DecayRate) + cfg.DriftSigma*rng.NormFloat64()
		reg.State[i] = clampRange(v, -cfg.StateLimit, cfg.StateLimit)
	}

	var res HomeostasisResult
	if mode != criteria.Ablated {
		sp := g.Setpoints()
		var moves [components.RegulatoryDims]float64
		for i := range reg.State {
			d := sp[i] - reg.State[i]
			step := math.Min(math.Abs(d), cfg.RegulationStep)
			moves[i] = math.Copysign(step, d)
			res.Moved += step
		}

		res.Cost = energy.Spend(cfg.RegulationCost * res.Moved)

		if mode == criteria.Enabled {
			for i := range reg.State {
				reg.State[i] += moves[i]
			}
		} else {
			res.Moved = 0
		}
	}

	res.Alignment = Alignment(reg, g, cfg.Tolerance)
	return res
}

// Alignment maps RMS deviation from the setpoints onto (0, 1].
// It is 0.5 when the deviation equals tolerance.
func Alignment(reg *components.Regulation, g *genome.Genome, tolerance float64) float64 {
	dev := Deviation(reg, g)
	if tolerance <= 0 {
		if dev == 0 {
			return 1
		}
		return 0
	}
	r := dev / tolerance
	return 1 / (1 + r*r)
}

// Deviation is the RMS distance of the regulatory state from the setpoints.
func Deviation(reg *components.Regulation, g *genome.Genome) float64 {
	sp := g.Setpoints()
	var sum float64
	for i, v := range reg.State {
		d := v - sp[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(reg.State)))
}
