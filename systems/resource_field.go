package systems

import (
	"math"
	"sort"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/lifecriteria/config"
)

// ResourceField is a toroidal grid of resource concentrations in [0, Max].
type ResourceField struct {
	W, H int
	Max  float64

	// Res holds concentrations row-major: Res[y*W+x]
	Res []float64

	// Weight scales per-cell injection. Its mean is 1, so a full injection
	// pass adds at most rate*W*H.
	Weight []float64

	// Scratch buffer for diffusion
	tmp []float64
}

// NewResourceField lays out resource patches from tileable OpenSimplex noise.
// Cells above the (1 - PatchFraction) quantile of the noise form patches and
// receive Patchiness of all injection in proportion to how far they clear the
// threshold. The rest is spread evenly. Patchiness 0 gives a flat field.
func NewResourceField(w, h int, cfg config.ResourceConfig, seed int64) *ResourceField {
	rf := &ResourceField{
		W:      w,
		H:      h,
		Max:    cfg.MaxConcentration,
		Res:    make([]float64, w*h),
		Weight: make([]float64, w*h),
		tmp:    make([]float64, w*h),
	}

	noise := opensimplex.NewNormalized(seed)

	// Map each axis onto a circle so the pattern wraps with the torus
	rx := cfg.NoiseScale * float64(w) / (2 * math.Pi)
	ry := cfg.NoiseScale * float64(h) / (2 * math.Pi)

	for y := 0; y < h; y++ {
		ay := 2 * math.Pi * float64(y) / float64(h)
		for x := 0; x < w; x++ {
			ax := 2 * math.Pi * float64(x) / float64(w)
			rf.Weight[y*w+x] = noise.Eval4(rx*math.Cos(ax), rx*math.Sin(ax), ry*math.Cos(ay), ry*math.Sin(ay))
		}
	}

	shapePatches(rf.Weight, cfg.Patchiness, cfg.PatchFraction)

	for i, wt := range rf.Weight {
		rf.Res[i] = clampRange(cfg.InitialLevel*wt, 0, rf.Max)
	}
	return rf
}

// shapePatches turns raw noise values into injection weights with mean 1.
func shapePatches(n []float64, patchiness, fraction float64) {
	sorted := make([]float64, len(n))
	copy(sorted, n)
	sort.Float64s(sorted)
	threshold := stat.Quantile(1-fraction, stat.Empirical, sorted, nil)

	var sum float64
	for i, v := range n {
		n[i] = math.Max(0, v-threshold)
		sum += n[i]
	}
	mean := sum / float64(len(n))

	for i, v := range n {
		shaped := 1.0
		if mean > 0 {
			shaped = v / mean
		}
		n[i] = (1 - patchiness) + patchiness*shaped
	}
}

// Fill sets every cell to v (clamped). Useful for controlled setups.
func (rf *ResourceField) Fill(v float64) {
	v = clampRange(v, 0, rf.Max)
	for i := range rf.Res {
		rf.Res[i] = v
	}
}

// Index returns the flat index for a (possibly out of range) cell.
func (rf *ResourceField) Index(x, y int) int {
	return modInt(y, rf.H)*rf.W + modInt(x, rf.W)
}

// At returns the concentration at a cell, wrapping coordinates.
func (rf *ResourceField) At(x, y int) float64 {
	return rf.Res[rf.Index(x, y)]
}

// Set overwrites a cell's concentration (clamped).
func (rf *ResourceField) Set(x, y int, v float64) {
	rf.Res[rf.Index(x, y)] = clampRange(v, 0, rf.Max)
}

// Inject adds up to rate*Weight[i] to each cell without exceeding Max.
// Returns the total mass injected, which is at most rate*W*H.
func (rf *ResourceField) Inject(rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	var total float64
	for i, c := range rf.Res {
		add := rf.Max - c
		if want := rate * rf.Weight[i]; add > want {
			add = want
		}
		if add <= 0 {
			continue
		}
		rf.Res[i] = c + add
		total += add
	}
	return total
}

// Deplete removes up to amount from a cell and returns what was actually taken.
// Never takes more than is present.
func (rf *ResourceField) Deplete(x, y int, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	i := rf.Index(x, y)
	avail := rf.Res[i]
	take := amount
	if take > avail {
		take = avail
	}
	rf.Res[i] = avail - take
	return take
}

// Perturb removes fraction of every cell's resource and returns the total removed.
func (rf *ResourceField) Perturb(fraction float64) float64 {
	if fraction <= 0 {
		return 0
	}
	if fraction > 1 {
		fraction = 1
	}
	var total float64
	for i, c := range rf.Res {
		d := c * fraction
		rf.Res[i] = c - d
		total += d
	}
	return total
}

// Diffuse applies 5-point stencil diffusion on the torus.
// The constant is clamped to 0.25, where each new value is a convex combination
// of old values, so mass is conserved and the [0, Max] bounds hold without clamping.
func (rf *ResourceField) Diffuse(constant float64) {
	a := constant
	if a <= 0 {
		return
	}
	if a > 0.25 {
		a = 0.25
	}

	w, h := rf.W, rf.H
	src := rf.Res
	dst := rf.tmp

	for y := 0; y < h; y++ {
		yN := modInt(y-1, h)
		yS := modInt(y+1, h)
		for x := 0; x < w; x++ {
			xW := modInt(x-1, w)
			xE := modInt(x+1, w)

			i := y*w + x
			c := src[i]
			n := src[yN*w+x]
			s := src[yS*w+x]
			e := src[y*w+xE]
			wv := src[y*w+xW]

			dst[i] = c + a*(n+s+e+wv-4*c)
		}
	}

	rf.Res, rf.tmp = dst, src
}

// Total returns the summed mass of the field.
func (rf *ResourceField) Total() float64 {
	var sum float64
	for _, c := range rf.Res {
		sum += c
	}
	return sum
}

// Dims returns the grid size.
func (rf *ResourceField) Dims() (int, int) {
	return rf.W, rf.H
}

func modInt(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
