package genome

import (
	"gonum.org/v1/gonum/stat"
)

// Diversity is the mean over genes of the population standard deviation,
// each normalised by the gene span. Zero for fewer than two genomes.
func Diversity(genomes []*Genome) float64 {
	if len(genomes) < 2 {
		return 0
	}
	col := make([]float64, len(genomes))
	var sum float64
	for i, b := range Layout {
		for j, g := range genomes {
			col[j] = g.genes[i] / b.Span()
		}
		sum += stat.PopStdDev(col, nil)
	}
	return sum / float64(NumGenes)
}

// MeanDrift is the mean Distance of each genome from its reference.
// refs[i] is the founder genome of genomes[i].
func MeanDrift(genomes, refs []*Genome) float64 {
	if len(genomes) == 0 {
		return 0
	}
	var sum float64
	for i, g := range genomes {
		sum += g.Distance(refs[i])
	}
	return sum / float64(len(genomes))
}
