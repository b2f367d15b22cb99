// Package genome provides the immutable fixed-length parameter vector carried by organisms.
package genome

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/lifecriteria/config"
)

// Gene indexes a coefficient in the genome.
type Gene int

const (
	MetabolicEfficiency Gene = iota
	MutationRate
	SensingRadius
	ReproductionThreshold
	MaturationThreshold
	SetpointA
	SetpointB
	RepairEfficiency

	NumGenes
)

// Bounds is the valid range of a gene.
type Bounds struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
}

// Span returns Max - Min.
func (b Bounds) Span() float64 { return b.Max - b.Min }

func (b Bounds) clamp(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// Layout lists the bounds of every gene, indexed by Gene.
var Layout = [NumGenes]Bounds{
	MetabolicEfficiency:   {Name: "metabolic_efficiency", Min: 0.5, Max: 1.5, Default: 1.0},
	MutationRate:          {Name: "mutation_rate", Min: 0.005, Max: 0.3, Default: 0.05},
	SensingRadius:         {Name: "sensing_radius", Min: 1, Max: 6, Default: 3},
	ReproductionThreshold: {Name: "reproduction_threshold", Min: 0.8, Max: 1.9, Default: 1.2},
	MaturationThreshold:   {Name: "maturation_threshold", Min: 0.3, Max: 2.0, Default: 1.0},
	SetpointA:             {Name: "setpoint_a", Min: 0, Max: 1, Default: 0.5},
	SetpointB:             {Name: "setpoint_b", Min: 0, Max: 1, Default: 0.5},
	RepairEfficiency:      {Name: "repair_efficiency", Min: 0.5, Max: 1.5, Default: 1.0},
}

// Genome is immutable once created. Share it by pointer freely.
type Genome struct {
	genes [NumGenes]float64
}

// New builds a genome from raw values, clamping each into its bounds.
func New(values [NumGenes]float64) *Genome {
	g := &Genome{}
	for i, v := range values {
		g.genes[i] = Layout[i].clamp(v)
	}
	return g
}

// Default returns the genome with every gene at its default.
func Default() *Genome {
	var v [NumGenes]float64
	for i, b := range Layout {
		v[i] = b.Default
	}
	return New(v)
}

// Founder returns a default genome jittered uniformly by +/- jitter*span per gene,
// with the mutation rate gene set to cfg.InitialRate.
func Founder(rng *rand.Rand, cfg config.MutationConfig) *Genome {
	var v [NumGenes]float64
	for i, b := range Layout {
		v[i] = b.Default + (rng.Float64()*2-1)*cfg.FounderJitter*b.Span()
	}
	v[MutationRate] = cfg.InitialRate
	return New(v)
}

// Get returns the value of gene i.
func (g *Genome) Get(i Gene) float64 { return g.genes[i] }

// Values returns a copy of all genes.
func (g *Genome) Values() [NumGenes]float64 { return g.genes }

// Efficiency is the metabolic uptake multiplier.
func (g *Genome) Efficiency() float64 { return g.genes[MetabolicEfficiency] }

// Rate is the self-adapting mutation step size.
func (g *Genome) Rate() float64 { return g.genes[MutationRate] }

// Radius is the sensing radius in whole cells.
func (g *Genome) Radius() int { return int(math.Round(g.genes[SensingRadius])) }

// ReproduceAt is the energy needed to reproduce.
func (g *Genome) ReproduceAt() float64 { return g.genes[ReproductionThreshold] }

// MatureAt is the growth signal needed to mature.
func (g *Genome) MatureAt() float64 { return g.genes[MaturationThreshold] }

// Setpoints returns the homeostatic targets of the regulatory variables.
func (g *Genome) Setpoints() [2]float64 {
	return [2]float64{g.genes[SetpointA], g.genes[SetpointB]}
}

// RepairFactor multiplies boundary repair.
func (g *Genome) RepairFactor() float64 { return g.genes[RepairEfficiency] }

// Distance is the RMS gene difference normalised by gene spans.
func (g *Genome) Distance(other *Genome) float64 {
	var sum float64
	for i, b := range Layout {
		d := (g.genes[i] - other.genes[i]) / b.Span()
		sum += d * d
	}
	return math.Sqrt(sum / float64(NumGenes))
}
