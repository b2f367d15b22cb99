package experiment

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/pthm-cable/lifecriteria/config"
	"github.com/pthm-cable/lifecriteria/criteria"
	"github.com/pthm-cable/lifecriteria/telemetry"
	"github.com/pthm-cable/lifecriteria/world"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.MustLoad("")
	cfg.World.Width = 20
	cfg.World.Height = 20
	cfg.World.InitialPopulation = 30
	cfg.Experiment.Steps = 60
	cfg.Experiment.SampleEvery = 20
	cfg.Experiment.Timeout = 0
	cfg.Experiment.Seeds = config.SeedsConfig{
		Calibration: config.SeedRange{Start: 0, Count: 2},
		Test:        config.SeedRange{Start: 100, Count: 3},
		MinTest:     2,
	}
	if err := cfg.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return cfg
}

func TestNewRunnerValidation(t *testing.T) {
	cfg := testConfig(t)

	if _, err := NewRunner(Options{Conditions: []criteria.Condition{criteria.Full()}}); !errors.Is(err, world.ErrNoConfig) {
		t.Errorf("nil config: %v", err)
	}
	if _, err := NewRunner(Options{Config: cfg}); !errors.Is(err, criteria.ErrInvalidCondition) {
		t.Errorf("no conditions: %v", err)
	}
	dup := []criteria.Condition{criteria.Full(), criteria.Full()}
	if _, err := NewRunner(Options{Config: cfg, Conditions: dup}); !errors.Is(err, criteria.ErrInvalidCondition) {
		t.Errorf("duplicate conditions: %v", err)
	}

	few := cfg.Clone()
	few.Experiment.Seeds.MinTest = 10
	if _, err := NewRunner(Options{Config: few, Conditions: []criteria.Condition{criteria.Full()}}); !errors.Is(err, ErrInsufficientSeeds) {
		t.Errorf("insufficient seeds: %v", err)
	}
}

func TestRunOrderIndependentOfWorkers(t *testing.T) {
	cfg := testConfig(t)
	conds := []criteria.Condition{criteria.Full(), criteria.Single(criteria.Response)}

	run := func(workers int) []telemetry.RunSummary {
		r, err := NewRunner(Options{Config: cfg, Conditions: conds, Workers: workers})
		if err != nil {
			t.Fatal(err)
		}
		out, err := r.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return out
	}

	serial, parallel := run(1), run(4)
	if len(serial) != 6 || len(parallel) != 6 {
		t.Fatalf("got %d and %d results, want 6", len(serial), len(parallel))
	}

	wantCond := []string{"normal", "normal", "normal", "no_response", "no_response", "no_response"}
	wantSeed := []int64{100, 101, 102, 100, 101, 102}
	for i := range serial {
		a, b := serial[i], parallel[i]
		if a.Condition != wantCond[i] || a.Seed != wantSeed[i] {
			t.Errorf("result %d is %s/%d, want %s/%d", i, a.Condition, a.Seed, wantCond[i], wantSeed[i])
		}
		if a.Condition != b.Condition || a.Seed != b.Seed || a.MeanAlive != b.MeanAlive || a.Births != b.Births {
			t.Errorf("result %d differs between 1 and 4 workers: %v vs %v", i, a, b)
		}
		if a.Partition != PartitionTest || !a.Complete {
			t.Errorf("result %d: partition=%s complete=%v", i, a.Partition, a.Complete)
		}
	}
}

func TestRunTimeoutMarksIncomplete(t *testing.T) {
	cfg := testConfig(t)
	r, err := NewRunner(Options{
		Config:     cfg,
		Conditions: []criteria.Condition{criteria.Full()},
		Timeout:    time.Nanosecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("timeouts should not fail the experiment: %v", err)
	}
	for _, s := range out {
		if s.Complete || s.Reason != telemetry.ReasonTimeout {
			t.Errorf("%s/%d: complete=%v reason=%q", s.Condition, s.Seed, s.Complete, s.Reason)
		}
	}
	if len(Complete(out)) != 0 {
		t.Error("Complete should drop timed-out runs")
	}
}

func TestRunStepCeiling(t *testing.T) {
	cfg := testConfig(t)
	r, err := NewRunner(Options{
		Config:      cfg,
		Conditions:  []criteria.Condition{criteria.Full()},
		Seeds:       []int64{100},
		StepCeiling: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	s := out[0]
	if s.StepsRun != 10 || s.Complete || s.Reason != telemetry.ReasonStepCeiling {
		t.Errorf("steps_run=%d complete=%v reason=%q", s.StepsRun, s.Complete, s.Reason)
	}
}

func TestRunOnResult(t *testing.T) {
	cfg := testConfig(t)
	var seen []string
	r, err := NewRunner(Options{
		Config:     cfg,
		Conditions: []criteria.Condition{criteria.Full(), criteria.Single(criteria.Growth)},
		Workers:    3,
		OnResult: func(s telemetry.RunSummary) error {
			seen = append(seen, s.Condition)
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 6 {
		t.Errorf("OnResult called %d times, want 6", len(seen))
	}

	boom := errors.New("disk full")
	r, _ = NewRunner(Options{
		Config:     cfg,
		Conditions: []criteria.Condition{criteria.Full()},
		Workers:    1,
		OnResult:   func(telemetry.RunSummary) error { return boom },
	})
	partial, err := r.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected OnResult error, got %v", err)
	}
	if len(partial) == 0 || len(partial) == 3 {
		t.Errorf("expected a partial result set, got %d", len(partial))
	}
}

func TestRunCanceled(t *testing.T) {
	cfg := testConfig(t)
	r, err := NewRunner(Options{Config: cfg, Conditions: []criteria.Condition{criteria.Full()}})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestTasksOrder(t *testing.T) {
	cfg := testConfig(t)
	r, err := NewRunner(Options{
		Config:     cfg,
		Conditions: []criteria.Condition{criteria.Full(), criteria.Single(criteria.Boundary)},
		Seeds:      []int64{7, 3, 7, 5},
	})
	if err != nil {
		t.Fatal(err)
	}
	tasks := r.Tasks()
	want := []int64{3, 5, 7, 3, 5, 7}
	if len(tasks) != len(want) {
		t.Fatalf("got %d tasks", len(tasks))
	}
	for i, task := range tasks {
		if task.Index != i || task.Seed != want[i] {
			t.Errorf("task %d: index=%d seed=%d, want seed %d", i, task.Index, task.Seed, want[i])
		}
	}
}

func TestSortSummaries(t *testing.T) {
	runs := []telemetry.RunSummary{
		{Condition: "zzz", Seed: 1},
		{Condition: "no_growth", Seed: 102},
		{Condition: "normal", Seed: 101},
		{Condition: "no_growth", Seed: 100},
		{Condition: "normal", Seed: 100},
	}
	SortSummaries(runs, []criteria.Condition{criteria.Full(), criteria.Single(criteria.Growth)})

	want := []string{"normal/100", "normal/101", "no_growth/100", "no_growth/102", "zzz/1"}
	for i, r := range runs {
		if got := r.Condition + "/" + strconv.FormatInt(r.Seed, 10); got != want[i] {
			t.Errorf("position %d = %s, want %s", i, got, want[i])
		}
	}
}
