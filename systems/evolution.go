package systems

import (
	"math/rand"

	"github.com/pthm-cable/lifecriteria/config"
	"github.com/pthm-cable/lifecriteria/criteria"
	"github.com/pthm-cable/lifecriteria/genome"
)

// Inherit produces the child genome at birth.
// Enabled mutates; Ablated shares the parent's genome; Proxy consumes the
// draws mutation would and still shares the parent's genome.
func Inherit(mode criteria.Mode, rng *rand.Rand, parent *genome.Genome, cfg config.MutationConfig) *genome.Genome {
	switch mode {
	case criteria.Enabled:
		return parent.Mutate(rng, cfg)
	case criteria.Proxy:
		genome.Discard(rng)
		return parent
	default:
		return parent
	}
}
