package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// CohenD is the standardised mean difference (mean(a) - mean(b)) / pooled SD,
// with sample variances. Zero when either group has fewer than two values or
// the pooled SD is zero.
func CohenD(a, b []float64) float64 {
	na, nb := len(a), len(b)
	if na < 2 || nb < 2 {
		return 0
	}
	ma, va := stat.MeanVariance(a, nil)
	mb, vb := stat.MeanVariance(b, nil)
	pooled := math.Sqrt((float64(na-1)*va + float64(nb-1)*vb) / float64(na+nb-2))
	if pooled == 0 {
		return 0
	}
	return (ma - mb) / pooled
}

// CliffsDelta is P(a > b) - P(a < b) over all cross pairs.
func CliffsDelta(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dominance int
	for _, x := range a {
		for _, y := range b {
			switch {
			case x > y:
				dominance++
			case x < y:
				dominance--
			}
		}
	}
	return float64(dominance) / float64(len(a)*len(b))
}

// HolmBonferroni returns step-down adjusted p-values in input order.
// The i-th smallest p (0-based) is scaled by m-i, made monotone by a running
// maximum and capped at 1.
func HolmBonferroni(p []float64) []float64 {
	m := len(p)
	adjusted := make([]float64, m)
	if m == 0 {
		return adjusted
	}

	idx := make([]int, m)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return p[idx[a]] < p[idx[b]] })

	var running float64
	for rank, i := range idx {
		running = math.Max(running, p[i]*float64(m-rank))
		adjusted[i] = math.Min(running, 1)
	}
	return adjusted
}
