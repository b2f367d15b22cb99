// Package analysis compares ablated conditions against the full-system
// baseline: rank tests, effect sizes, family-wise correction, saturation
// flags, pairwise interaction and failure pathways.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Alternative hypotheses for the rank test.
type Alternative string

const (
	// Greater tests whether the first sample tends to be larger.
	Greater  Alternative = "greater"
	TwoSided Alternative = "two-sided"
)

// ExactLimit is the largest per-group size for which the exact null
// distribution is used when there are no ties.
const ExactLimit = 8

// ErrEmptySample is returned when either group has no observations.
var ErrEmptySample = errors.New("empty sample")

// ParseAlternative maps a config string onto an Alternative.
func ParseAlternative(s string) (Alternative, error) {
	switch Alternative(s) {
	case Greater, TwoSided:
		return Alternative(s), nil
	}
	return "", fmt.Errorf("unknown alternative %q", s)
}

// MannWhitney is the outcome of a Mann-Whitney U test.
type MannWhitney struct {
	U     float64 // U statistic of the first sample
	P     float64
	Z     float64 // Zero when Exact
	Exact bool
	Ties  bool
}

// MannWhitneyU tests x against y. With Greater the alternative is that x is
// stochastically larger than y.
func MannWhitneyU(x, y []float64, alt Alternative) (MannWhitney, error) {
	n1, n2 := len(x), len(y)
	if n1 == 0 || n2 == 0 {
		return MannWhitney{}, ErrEmptySample
	}

	pooled := make([]float64, 0, n1+n2)
	pooled = append(pooled, x...)
	pooled = append(pooled, y...)
	ranks, tieTerm := midranks(pooled)

	var r1 float64
	for _, r := range ranks[:n1] {
		r1 += r
	}
	u1 := r1 - float64(n1*(n1+1))/2
	u2 := float64(n1*n2) - u1

	res := MannWhitney{U: u1, Ties: tieTerm > 0}

	if !res.Ties && n1 <= ExactLimit && n2 <= ExactLimit {
		res.Exact = true
		res.P = exactP(n1, n2, u1, u2, alt)
		return res, nil
	}

	n := float64(n1 + n2)
	mu := float64(n1*n2) / 2
	sigma := math.Sqrt(float64(n1*n2) / 12 * ((n + 1) - tieTerm/(n*(n-1))))
	if sigma == 0 {
		// Every observation tied
		res.P = 1
		return res, nil
	}

	u := u1
	if alt == TwoSided {
		u = math.Max(u1, u2)
	}
	res.Z = (u - mu - 0.5) / sigma
	res.P = distuv.UnitNormal.Survival(res.Z)
	if alt == TwoSided {
		res.P = math.Min(1, 2*res.P)
	}
	return res, nil
}

// midranks assigns average ranks to tied values and returns the tie
// correction term sum(t^3 - t) over tie groups.
func midranks(values []float64) ([]float64, float64) {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks := make([]float64, len(values))
	var tieTerm float64
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		r := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = r
		}
		if t := float64(j - i + 1); t > 1 {
			tieTerm += t*t*t - t
		}
		i = j + 1
	}
	return ranks, tieTerm
}

// exactP computes the p-value from the exact null distribution of U.
func exactP(n1, n2 int, u1, u2 float64, alt Alternative) float64 {
	counts := uCounts(n1, n2)
	var total float64
	for _, c := range counts {
		total += c
	}

	u := u1
	if alt == TwoSided {
		u = math.Max(u1, u2)
	}
	var tail float64
	for k := int(math.Ceil(u)); k < len(counts); k++ {
		tail += counts[k]
	}
	p := tail / total
	if alt == TwoSided {
		p = math.Min(1, 2*p)
	}
	return p
}

// uCounts returns the number of orderings of n1 x's and n2 y's for each U in
// [0, n1*n2]. Placing the largest element last gives the recurrence
// f(i, j, u) = f(i-1, j, u-j) + f(i, j-1, u).
func uCounts(n1, n2 int) []float64 {
	size := n1*n2 + 1
	f := make([][][]float64, n1+1)
	for i := range f {
		f[i] = make([][]float64, n2+1)
		for j := range f[i] {
			f[i][j] = make([]float64, size)
		}
	}
	for i := 0; i <= n1; i++ {
		for j := 0; j <= n2; j++ {
			if i == 0 || j == 0 {
				f[i][j][0] = 1
				continue
			}
			for u := 0; u <= i*j; u++ {
				var c float64
				if u >= j {
					c += f[i-1][j][u-j]
				}
				c += f[i][j-1][u]
				f[i][j][u] = c
			}
		}
	}
	return f[n1][n2]
}
