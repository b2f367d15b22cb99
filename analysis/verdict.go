package analysis

import (
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/lifecriteria/config"
	"github.com/pthm-cable/lifecriteria/criteria"
	"github.com/pthm-cable/lifecriteria/telemetry"
)

// ErrNoTestRuns is returned when no complete baseline runs exist in the test partition.
var ErrNoTestRuns = errors.New("no complete test-partition baseline runs")

// MinGroupSize is the smallest number of replicates a condition needs to be compared.
const MinGroupSize = 2

// Options controls verdict computation.
type Options struct {
	Metric      string
	Alpha       float64
	Alternative Alternative
	// Baseline condition name. Defaults to criteria.BaselineName.
	Baseline string
	Logger   *slog.Logger
}

// OptionsFrom reads analysis settings from the experiment config.
func OptionsFrom(x config.ExperimentConfig) (Options, error) {
	alt, err := ParseAlternative(x.Alternative)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	return Options{Metric: x.Metric, Alpha: x.Alpha, Alternative: alt}, nil
}

func (o Options) withDefaults() Options {
	if o.Metric == "" {
		o.Metric = telemetry.MetricMeanAlive
	}
	if o.Alpha == 0 {
		o.Alpha = 0.05
	}
	if o.Alternative == "" {
		o.Alternative = Greater
	}
	if o.Baseline == "" {
		o.Baseline = criteria.BaselineName
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Verdict compares one condition against the baseline.
type Verdict struct {
	Condition    string  `csv:"condition"`
	Metric       string  `csv:"metric"`
	NNormal      int     `csv:"n_normal"`
	NAblated     int     `csv:"n_ablated"`
	NormalMean   float64 `csv:"normal_mean"`
	AblatedMean  float64 `csv:"ablated_mean"`
	PercentDelta float64 `csv:"percent_delta"` // (ablated - normal) / normal * 100, 0 when normal is 0
	CohenD       float64 `csv:"cohens_d"`
	CliffsDelta  float64 `csv:"cliffs_delta"`
	U            float64 `csv:"u"`
	PRaw         float64 `csv:"p_raw"`
	PCorrected   float64 `csv:"p_corrected"`
	Exact        bool    `csv:"exact"`
	Significant  bool    `csv:"significant"`
	Saturated    bool    `csv:"saturated"`
}

// LogValue implements slog.LogValuer.
func (v Verdict) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("condition", v.Condition),
		slog.Int("n", v.NAblated),
		slog.Float64("normal_mean", v.NormalMean),
		slog.Float64("ablated_mean", v.AblatedMean),
		slog.Float64("percent_delta", v.PercentDelta),
		slog.Float64("cohens_d", v.CohenD),
		slog.Float64("cliffs_delta", v.CliffsDelta),
		slog.Float64("p_raw", v.PRaw),
		slog.Float64("p_corrected", v.PCorrected),
		slog.Bool("significant", v.Significant),
		slog.Bool("saturated", v.Saturated),
	)
}

// Analyze compares every non-baseline condition in runs against the baseline,
// using only complete test-partition runs. The returned verdicts follow the
// order conditions first appear in runs, and Holm-Bonferroni correction is
// applied across all of them as one family.
func Analyze(runs []telemetry.RunSummary, opts Options) ([]Verdict, error) {
	opts = opts.withDefaults()

	groups := GroupByCondition(TestRuns(runs))
	base, ok := findGroup(groups, opts.Baseline)
	if !ok || len(base.Runs) < MinGroupSize {
		return nil, fmt.Errorf("%w: baseline %q has %d runs", ErrNoTestRuns, opts.Baseline, len(base.Runs))
	}
	normal, err := base.Values(opts.Metric)
	if err != nil {
		return nil, err
	}

	var verdicts []Verdict
	for _, g := range groups {
		if g.Condition == opts.Baseline {
			continue
		}
		if len(g.Runs) < MinGroupSize {
			opts.Logger.Warn("skipping condition", "condition", g.Condition, "runs", len(g.Runs))
			continue
		}
		ablated, err := g.Values(opts.Metric)
		if err != nil {
			return nil, err
		}
		v, err := Compare(normal, ablated, opts.Alternative)
		if err != nil {
			return nil, fmt.Errorf("comparing %s: %w", g.Condition, err)
		}
		v.Condition = g.Condition
		v.Metric = opts.Metric
		verdicts = append(verdicts, v)
	}

	p := make([]float64, len(verdicts))
	for i, v := range verdicts {
		p[i] = v.PRaw
	}
	for i, adj := range HolmBonferroni(p) {
		verdicts[i].PCorrected = adj
		verdicts[i].Significant = adj < opts.Alpha
	}
	return verdicts, nil
}

// Compare builds the uncorrected verdict for one pair of samples.
func Compare(normal, ablated []float64, alt Alternative) (Verdict, error) {
	mw, err := MannWhitneyU(normal, ablated, alt)
	if err != nil {
		return Verdict{}, err
	}

	mn, vn := stat.MeanVariance(normal, nil)
	ma, va := stat.MeanVariance(ablated, nil)

	v := Verdict{
		NNormal:     len(normal),
		NAblated:    len(ablated),
		NormalMean:  mn,
		AblatedMean: ma,
		CliffsDelta: CliffsDelta(normal, ablated),
		U:           mw.U,
		PRaw:        mw.P,
		Exact:       mw.Exact,
		Saturated:   Saturated(vn, va, mn, ma),
	}
	if mn != 0 {
		v.PercentDelta = (ma - mn) / mn * 100
	}
	v.CohenD = CohenD(normal, ablated)
	return v, nil
}

// Saturated reports whether a comparison is degenerate: both groups constant,
// or one constant while the means differ (typically every ablated replicate
// went extinct). Cohen's d is still reported when the pooled SD is positive,
// but it only measures the varying group's spread.
func Saturated(varA, varB, meanA, meanB float64) bool {
	if varA == 0 && varB == 0 {
		return true
	}
	return (varA == 0 || varB == 0) && meanA != meanB
}

// CountSignificant returns how many verdicts passed the corrected threshold.
func CountSignificant(vs []Verdict) int {
	n := 0
	for _, v := range vs {
		if v.Significant {
			n++
		}
	}
	return n
}
