package analysis

import (
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/lifecriteria/criteria"
	"github.com/pthm-cable/lifecriteria/telemetry"
)

// InteractionClass labels how a pair ablation compares with its single ablations.
type InteractionClass string

const (
	// Synergistic pairs hurt more than the product of their single effects.
	Synergistic  InteractionClass = "synergistic"
	Antagonistic InteractionClass = "antagonistic"
	Additive     InteractionClass = "additive"
)

// InteractionTolerance is the band around a ratio of 1 still counted as additive.
const InteractionTolerance = 0.1

// Interaction is the observed pair effect against the multiplicative expectation
// normal * (first/normal) * (second/normal).
type Interaction struct {
	Pair       string           `csv:"pair"`
	First      string           `csv:"first"`
	Second     string           `csv:"second"`
	NormalMean float64          `csv:"normal_mean"`
	FirstMean  float64          `csv:"first_mean"`
	SecondMean float64          `csv:"second_mean"`
	PairMean   float64          `csv:"pair_mean"`
	Expected   float64          `csv:"expected"`
	Ratio      float64          `csv:"ratio"`
	Class      InteractionClass `csv:"class"`
}

// Classify maps an observed/expected ratio onto a class.
func Classify(ratio float64) InteractionClass {
	switch {
	case ratio < 1-InteractionTolerance:
		return Synergistic
	case ratio > 1+InteractionTolerance:
		return Antagonistic
	default:
		return Additive
	}
}

// Interactions evaluates every pair condition in runs whose two single
// ablations, at the same onset step, and the baseline are also present. Only complete test-partition
// runs are used.
func Interactions(runs []telemetry.RunSummary, metric string) ([]Interaction, error) {
	if metric == "" {
		metric = telemetry.MetricMeanAlive
	}
	groups := GroupByCondition(TestRuns(runs))

	base, ok := findGroup(groups, criteria.BaselineName)
	if !ok {
		return nil, ErrNoTestRuns
	}
	normal, err := groupMean(base, metric)
	if err != nil {
		return nil, err
	}
	if normal == 0 {
		return nil, nil
	}

	var out []Interaction
	for _, g := range groups {
		cond, err := criteria.ParseCondition(g.Condition)
		if err != nil || !cond.IsPair() || cond.Proxy != 0 {
			continue
		}
		// Singles are matched at the pair's onset step
		members := cond.Ablated.Criteria()
		first, ok1 := findGroup(groups, criteria.Single(members[0]).From(cond.AblateFromStep).Name)
		second, ok2 := findGroup(groups, criteria.Single(members[1]).From(cond.AblateFromStep).Name)
		if !ok1 || !ok2 {
			continue
		}

		in := Interaction{Pair: g.Condition, First: first.Condition, Second: second.Condition, NormalMean: normal}
		if in.PairMean, err = groupMean(g, metric); err != nil {
			return nil, err
		}
		if in.FirstMean, err = groupMean(first, metric); err != nil {
			return nil, err
		}
		if in.SecondMean, err = groupMean(second, metric); err != nil {
			return nil, err
		}

		in.Expected = in.FirstMean * in.SecondMean / normal
		switch {
		case in.Expected != 0:
			in.Ratio = in.PairMean / in.Expected
		case in.PairMean == 0:
			in.Ratio = 1
		default:
			// A surviving pair whose singles both collapsed has no finite ratio
			continue
		}
		in.Class = Classify(in.Ratio)
		out = append(out, in)
	}
	return out, nil
}

func groupMean(g Group, metric string) (float64, error) {
	v, err := g.Values(metric)
	if err != nil {
		return 0, err
	}
	return stat.Mean(v, nil), nil
}
