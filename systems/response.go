package systems

import (
	"math/rand"

	"github.com/pthm-cable/lifecriteria/components"
	"github.com/pthm-cable/lifecriteria/config"
	"github.com/pthm-cable/lifecriteria/criteria"
	"github.com/pthm-cable/lifecriteria/genome"
)

// ResponseResult reports one movement step.
type ResponseResult struct {
	Moved bool
	Cost  float64
}

// Respond moves the organism one cell. Enabled organisms sense the field along
// four rays and climb the gradient; ablated and proxy organisms take an
// unbiased random step. Motor cost is always paid; sensing cost is paid by
// enabled and proxy organisms.
func Respond(
	mode criteria.Mode,
	rng *rand.Rand,
	field *ResourceField,
	grid *OccupancyGrid,
	pos *components.Position,
	energy *components.Energy,
	g *genome.Genome,
	cfg config.ResponseConfig,
) ResponseResult {
	var res ResponseResult

	cost := cfg.MoveCost
	if mode != criteria.Ablated {
		cost += cfg.SensingCost * float64(g.Radius())
	}
	res.Cost = energy.Spend(cost)

	var target components.Position
	if mode == criteria.Enabled {
		var ok bool
		target, ok = bestDirection(rng, field, grid, *pos, g.Radius())
		if !ok {
			return res
		}
	} else {
		d := vonNeumann[rng.Intn(len(vonNeumann))]
		target = grid.Wrap(pos.X+d[0], pos.Y+d[1])
	}

	if grid.Move(*pos, target) {
		*pos = target
		res.Moved = true
	}
	return res
}

// bestDirection scores each free neighbour by a distance-weighted mean of the
// field along a ray of length radius. Returns false if no free neighbour beats
// staying put.
func bestDirection(
	rng *rand.Rand,
	field *ResourceField,
	grid *OccupancyGrid,
	pos components.Position,
	radius int,
) (components.Position, bool) {
	if radius < 1 {
		radius = 1
	}

	here := field.At(pos.X, pos.Y)
	best := here
	var target components.Position
	found := false

	// Random visiting order breaks ties
	for _, di := range rng.Perm(len(vonNeumann)) {
		d := vonNeumann[di]
		next := grid.Wrap(pos.X+d[0], pos.Y+d[1])
		if !grid.Free(next) {
			continue
		}
		score := RayScore(field, pos, d[0], d[1], radius)
		if score > best {
			best = score
			target = next
			found = true
		}
	}
	return target, found
}

// RayScore is the 1/distance weighted mean concentration of the cells at
// distances 1..radius from pos in direction (dx, dy).
func RayScore(field *ResourceField, pos components.Position, dx, dy, radius int) float64 {
	var sum, wsum float64
	for k := 1; k <= radius; k++ {
		w := 1 / float64(k)
		sum += w * field.At(pos.X+dx*k, pos.Y+dy*k)
		wsum += w
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}
