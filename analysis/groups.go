package analysis

import (
	"github.com/pthm-cable/lifecriteria/experiment"
	"github.com/pthm-cable/lifecriteria/telemetry"
)

// Group is the runs of one condition in first-seen order.
type Group struct {
	Condition string
	Runs      []telemetry.RunSummary
}

// Values extracts metric from every run.
func (g Group) Values(metric string) ([]float64, error) {
	out := make([]float64, len(g.Runs))
	for i, r := range g.Runs {
		v, err := r.Metric(metric)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// TestRuns keeps the complete runs from the test partition. Calibration seeds
// never reach a verdict.
func TestRuns(runs []telemetry.RunSummary) []telemetry.RunSummary {
	out := make([]telemetry.RunSummary, 0, len(runs))
	for _, r := range runs {
		if r.Complete && r.Partition == experiment.PartitionTest {
			out = append(out, r)
		}
	}
	return out
}

// GroupByCondition splits runs by condition, keeping the order in which
// conditions first appear.
func GroupByCondition(runs []telemetry.RunSummary) []Group {
	var groups []Group
	index := map[string]int{}
	for _, r := range runs {
		i, ok := index[r.Condition]
		if !ok {
			i = len(groups)
			index[r.Condition] = i
			groups = append(groups, Group{Condition: r.Condition})
		}
		groups[i].Runs = append(groups[i].Runs, r)
	}
	return groups
}

func findGroup(groups []Group, name string) (Group, bool) {
	for _, g := range groups {
		if g.Condition == name {
			return g, true
		}
	}
	return Group{}, false
}
