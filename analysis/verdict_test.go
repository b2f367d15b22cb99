package analysis

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/pthm-cable/lifecriteria/experiment"
	"github.com/pthm-cable/lifecriteria/telemetry"
)

func run(cond string, seed int64, meanAlive float64) telemetry.RunSummary {
	return telemetry.RunSummary{
		Condition:        cond,
		Seed:             seed,
		Partition:        experiment.PartitionTest,
		Complete:         true,
		MeanAlive:        meanAlive,
		FinalAlive:       int(meanAlive),
		ExtinctionStep:   -1,
		FailEnergyStep:   -1,
		FailBoundaryStep: -1,
		FailAliveStep:    -1,
	}
}

func fixture() []telemetry.RunSummary {
	var runs []telemetry.RunSummary
	for i := 0; i < 5; i++ {
		seed := int64(100 + i)
		runs = append(runs,
			run("normal", seed, float64(100+i)),
			run("no_metabolism", seed, 0),
			run("no_response", seed, float64(90+i)),
			run("no_growth", seed, float64(100+i)),
		)
	}

	cal := run("no_response", 3, 1000)
	cal.Partition = experiment.PartitionCalibration
	timedOut := run("normal", 200, 1)
	timedOut.Complete = false
	timedOut.Reason = telemetry.ReasonTimeout
	return append(runs, cal, timedOut)
}

func TestAnalyze(t *testing.T) {
	vs, err := Analyze(fixture(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(vs) != 3 {
		t.Fatalf("got %d verdicts, want 3", len(vs))
	}

	byName := map[string]Verdict{}
	for _, v := range vs {
		byName[v.Condition] = v
		if v.NNormal != 5 || v.NAblated != 5 {
			t.Errorf("%s: n=%d/%d, calibration and incomplete runs must be excluded", v.Condition, v.NNormal, v.NAblated)
		}
		if v.PCorrected < v.PRaw {
			t.Errorf("%s: corrected p %f below raw %f", v.Condition, v.PCorrected, v.PRaw)
		}
	}
	if vs[0].Condition != "no_metabolism" || vs[2].Condition != "no_growth" {
		t.Errorf("verdicts out of order: %s, %s, %s", vs[0].Condition, vs[1].Condition, vs[2].Condition)
	}

	met := byName["no_metabolism"]
	// Only the normal group varies: pooled SD is sqrt(4*2.5/8)
	if want := 102 / math.Sqrt(1.25); !met.Saturated || math.Abs(met.CohenD-want) > 1e-9 || !met.Significant {
		t.Errorf("no_metabolism: saturated=%v d=%f (want %f) significant=%v", met.Saturated, met.CohenD, want, met.Significant)
	}
	if math.Abs(met.PercentDelta+100) > 1e-9 || met.CliffsDelta != 1 {
		t.Errorf("no_metabolism: delta=%f cliff=%f", met.PercentDelta, met.CliffsDelta)
	}

	resp := byName["no_response"]
	if !resp.Exact || math.Abs(resp.PRaw-1.0/252) > 1e-12 || !resp.Significant || resp.Saturated {
		t.Errorf("no_response: %+v", resp)
	}
	if resp.CohenD <= 0 {
		t.Errorf("no_response: d = %f, want positive", resp.CohenD)
	}

	growth := byName["no_growth"]
	if growth.Significant || growth.CliffsDelta != 0 || growth.PercentDelta != 0 {
		t.Errorf("no_growth should be indistinguishable: %+v", growth)
	}
	if CountSignificant(vs) != 2 {
		t.Errorf("significant = %d, want 2", CountSignificant(vs))
	}
}

func TestAnalyzeWithoutTestBaseline(t *testing.T) {
	runs := fixture()
	for i := range runs {
		runs[i].Partition = experiment.PartitionCalibration
	}
	if _, err := Analyze(runs, Options{}); !errors.Is(err, ErrNoTestRuns) {
		t.Errorf("expected ErrNoTestRuns, got %v", err)
	}
}

func TestAnalyzeUnknownMetric(t *testing.T) {
	if _, err := Analyze(fixture(), Options{Metric: "median_alive"}); !errors.Is(err, telemetry.ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestSaturated(t *testing.T) {
	tests := []struct {
		name           string
		va, vb, ma, mb float64
		want           bool
	}{
		{"both vary", 1, 1, 10, 5, false},
		{"ablated constant and lower", 1, 0, 10, 0, true},
		{"both constant", 0, 0, 3, 3, true},
		{"one constant same mean", 0, 2, 5, 5, false},
	}
	for _, tt := range tests {
		if got := Saturated(tt.va, tt.vb, tt.ma, tt.mb); got != tt.want {
			t.Errorf("%s: got %v", tt.name, got)
		}
	}
}

func TestCompareBothConstant(t *testing.T) {
	v, err := Compare([]float64{5, 5, 5}, []float64{0, 0, 0}, Greater)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Saturated || v.CohenD != 0 {
		t.Errorf("saturated=%v d=%f, want saturated with d=0", v.Saturated, v.CohenD)
	}

	var buf bytes.Buffer
	if err := WriteTable(&buf, []Verdict{v}, 0.05); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "(sat)") || !strings.Contains(buf.String(), "sat") {
		t.Errorf("constant groups should print a bare sat:\n%s", buf.String())
	}
}

func TestWriteTable(t *testing.T) {
	vs, err := Analyze(fixture(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteTable(&buf, vs, 0.05); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"no_metabolism", "(sat)", "SIG", "n.s.", "significant: 2/3"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
