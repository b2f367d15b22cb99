package components

import "github.com/pthm-cable/lifecriteria/genome"

// Heredity holds the organism's genome and the founder genome of its lineage.
// Both are shared immutable values.
type Heredity struct {
	Genome  *genome.Genome
	Founder *genome.Genome
}
