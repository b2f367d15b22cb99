package genome

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/lifecriteria/config"
)

// draws is the number of normal variates consumed by one mutation.
const draws = int(NumGenes)

func boundedNorm(rng *rand.Rand, bound float64) float64 {
	z := rng.NormFloat64()
	if bound > 0 {
		if z > bound {
			z = bound
		} else if z < -bound {
			z = -bound
		}
	}
	return z
}

// Mutate returns a perturbed copy of g. The mutation rate gene adapts first
// (log-normal step), then scales the bounded noise applied to every other gene.
func (g *Genome) Mutate(rng *rand.Rand, cfg config.MutationConfig) *Genome {
	child := *g

	rateBounds := Layout[MutationRate]
	rate := g.genes[MutationRate] * math.Exp(cfg.Tau*boundedNorm(rng, cfg.NoiseBound))
	rate = rateBounds.clamp(rate)
	child.genes[MutationRate] = rate

	for i, b := range Layout {
		if Gene(i) == MutationRate {
			continue
		}
		delta := rate * b.Span() * boundedNorm(rng, cfg.NoiseBound)
		child.genes[i] = b.clamp(g.genes[i] + delta)
	}
	return &child
}

// Discard consumes exactly the random draws Mutate would, without producing a genome.
// Keeps the random stream aligned between mutating and non-mutating runs.
func Discard(rng *rand.Rand) {
	for i := 0; i < draws; i++ {
		rng.NormFloat64()
	}
}
