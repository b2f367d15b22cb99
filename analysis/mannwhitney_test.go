package analysis

import (
	"errors"
	"math"
	"testing"
)

func TestMannWhitneyExact(t *testing.T) {
	tests := []struct {
		name  string
		x, y  []float64
		alt   Alternative
		wantU float64
		wantP float64
	}{
		{"separated greater", []float64{5, 6, 7, 8}, []float64{1, 2, 3, 4}, Greater, 16, 1.0 / 70},
		{"separated two-sided", []float64{5, 6, 7, 8}, []float64{1, 2, 3, 4}, TwoSided, 16, 2.0 / 70},
		{"wrong direction", []float64{1, 2, 3, 4}, []float64{5, 6, 7, 8}, Greater, 0, 1},
		{"five each", []float64{6, 7, 8, 9, 10}, []float64{1, 2, 3, 4, 5}, TwoSided, 25, 2.0 / 252},
		{"interleaved", []float64{1, 3, 5}, []float64{2, 4, 6}, TwoSided, 3, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MannWhitneyU(tt.x, tt.y, tt.alt)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Exact {
				t.Error("expected exact distribution")
			}
			if got.U != tt.wantU {
				t.Errorf("U = %f, want %f", got.U, tt.wantU)
			}
			if math.Abs(got.P-tt.wantP) > 1e-12 {
				t.Errorf("p = %.10f, want %.10f", got.P, tt.wantP)
			}
		})
	}
}

func TestMannWhitneyNormalApproximation(t *testing.T) {
	// Reference values: tie-corrected normal approximation with continuity correction
	x := []float64{12, 15, 15, 18, 20, 22, 22, 25, 30, 31}
	y := []float64{10, 11, 12, 15, 16, 16, 19, 20, 21, 23}

	tests := []struct {
		alt   Alternative
		wantZ float64
		wantP float64
	}{
		{Greater, 1.5543360851688715, 0.06005213514858443},
		{TwoSided, 1.5543360851688715, 0.12010427029716886},
	}
	for _, tt := range tests {
		got, err := MannWhitneyU(x, y, tt.alt)
		if err != nil {
			t.Fatal(err)
		}
		if got.Exact || !got.Ties {
			t.Errorf("%s: exact=%v ties=%v", tt.alt, got.Exact, got.Ties)
		}
		if got.U != 71 {
			t.Errorf("%s: U = %f, want 71", tt.alt, got.U)
		}
		if math.Abs(got.Z-tt.wantZ) > 1e-9 || math.Abs(got.P-tt.wantP) > 1e-9 {
			t.Errorf("%s: z=%f p=%f, want z=%f p=%f", tt.alt, got.Z, got.P, tt.wantZ, tt.wantP)
		}
	}
}

func TestMannWhitneyLargeUntied(t *testing.T) {
	var a, b []float64
	for i := 1; i <= 10; i++ {
		a = append(a, float64(i+10))
		b = append(b, float64(i))
	}
	got, err := MannWhitneyU(a, b, Greater)
	if err != nil {
		t.Fatal(err)
	}
	if got.Exact {
		t.Error("groups above the exact limit should use the normal approximation")
	}
	if got.U != 100 || math.Abs(got.P-9.13358955547752e-05) > 1e-12 {
		t.Errorf("U=%f p=%g", got.U, got.P)
	}
}

func TestMannWhitneyDegenerate(t *testing.T) {
	got, err := MannWhitneyU([]float64{3, 3, 3}, []float64{3, 3, 3}, Greater)
	if err != nil {
		t.Fatal(err)
	}
	if got.P != 1 {
		t.Errorf("all tied: p = %f, want 1", got.P)
	}
	if _, err := MannWhitneyU(nil, []float64{1}, Greater); !errors.Is(err, ErrEmptySample) {
		t.Errorf("empty sample: %v", err)
	}
}

func TestUCountsTotal(t *testing.T) {
	// Total arrangements is C(n1+n2, n1) and the distribution is symmetric
	counts := uCounts(4, 4)
	var total float64
	for _, c := range counts {
		total += c
	}
	if total != 70 {
		t.Errorf("total = %f, want 70", total)
	}
	for u := range counts {
		if counts[u] != counts[len(counts)-1-u] {
			t.Errorf("asymmetric at u=%d", u)
		}
	}
}

func TestMidranks(t *testing.T) {
	ranks, tie := midranks([]float64{10, 20, 20, 30, 20})
	want := []float64{1, 3, 3, 5, 3}
	for i := range want {
		if ranks[i] != want[i] {
			t.Errorf("rank[%d] = %f, want %f", i, ranks[i], want[i])
		}
	}
	if tie != 24 {
		t.Errorf("tie term = %f, want 24", tie)
	}
}
