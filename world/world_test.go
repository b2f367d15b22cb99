package world

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/pthm-cable/lifecriteria/components"
	"github.com/pthm-cable/lifecriteria/config"
	"github.com/pthm-cable/lifecriteria/criteria"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.MustLoad("")
	cfg.World.Width = 30
	cfg.World.Height = 30
	cfg.World.InitialPopulation = 40
	cfg.Experiment.Steps = 300
	cfg.Experiment.SampleEvery = 25
	if err := cfg.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return cfg
}

func newWorld(t *testing.T, cfg *config.Config, cond criteria.Condition, seed int64) *World {
	t.Helper()
	w, err := New(Options{Config: cfg, Condition: cond, Seed: seed})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func TestNewPlacesFounders(t *testing.T) {
	cfg := testConfig(t)
	w := newWorld(t, cfg, criteria.Full(), 1)

	if w.Alive() != 40 || w.Grid().Count() != 40 {
		t.Fatalf("alive=%d occupied=%d, want 40", w.Alive(), w.Grid().Count())
	}

	var last uint64
	w.ForEach(func(org *components.Organism, pos *components.Position, e *components.Energy, b *components.Boundary) {
		if org.ID <= last {
			t.Errorf("ids not ascending: %d after %d", org.ID, last)
		}
		last = org.ID
		if org.Stage != components.Immature || org.Generation != 0 || org.ParentID != 0 {
			t.Errorf("founder %d has unexpected state %+v", org.ID, org)
		}
		if w.Grid().Occupant(*pos) != org.ID {
			t.Errorf("grid does not hold founder %d at %+v", org.ID, *pos)
		}
		if e.Value != cfg.Organism.InitialEnergy || b.Integrity != 1 {
			t.Errorf("founder %d energy=%f integrity=%f", org.ID, e.Value, b.Integrity)
		}
	})
}

func TestNewRejectsInvalidInput(t *testing.T) {
	cfg := testConfig(t)

	if _, err := New(Options{Condition: criteria.Full()}); !errors.Is(err, ErrNoConfig) {
		t.Errorf("nil config: got %v", err)
	}

	bad := criteria.Condition{Name: "bad", Ablated: criteria.SetOf(criteria.Metabolism, criteria.Growth, criteria.Boundary)}
	if _, err := New(Options{Config: cfg, Condition: bad}); !errors.Is(err, criteria.ErrInvalidCondition) {
		t.Errorf("three ablations: got %v", err)
	}

	crowded := cfg.Clone()
	crowded.World.InitialPopulation = crowded.Derived.Cells + 1
	if _, err := New(Options{Config: crowded, Condition: criteria.Full()}); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("overfull world: got %v", err)
	}
}

func TestDeterminism(t *testing.T) {
	cfg := testConfig(t)
	for _, cond := range []criteria.Condition{criteria.Full(), criteria.Single(criteria.Response), criteria.WithProxy(criteria.Evolution)} {
		a, _ := newWorld(t, cfg, cond, 42).Run(context.Background(), 0)
		b, _ := newWorld(t, cfg, cond, 42).Run(context.Background(), 0)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%s: same seed produced different summaries:\n%+v\n%+v", cond.Name, a, b)
		}
	}
}

func TestSeedsDiffer(t *testing.T) {
	cfg := testConfig(t)
	a, _ := newWorld(t, cfg, criteria.Full(), 1).Run(context.Background(), 100)
	b, _ := newWorld(t, cfg, criteria.Full(), 2).Run(context.Background(), 100)
	if reflect.DeepEqual(a.Samples, b.Samples) {
		t.Error("different seeds produced identical trajectories")
	}
}

func TestResourceConservationWithoutInjection(t *testing.T) {
	cfg := testConfig(t)
	cfg.Resource.InjectionRate = 0
	cfg.Environment = config.EnvironmentConfig{}

	w := newWorld(t, cfg, criteria.Full(), 5)
	prev := w.Field().Total()
	for i := 0; i < 150 && !w.Extinct(); i++ {
		st := w.Step()
		if st.Injected != 0 {
			t.Fatalf("step %d injected %f with zero rate", st.Step, st.Injected)
		}
		drop := prev - st.ResourceTotal
		if math.Abs(drop-st.Depleted) > 1e-9 {
			t.Fatalf("step %d: mass drop %f != depleted %f", st.Step, drop, st.Depleted)
		}
		prev = st.ResourceTotal
	}
}

func TestInvariantsHoldEveryStep(t *testing.T) {
	cfg := testConfig(t)
	w := newWorld(t, cfg, criteria.Full(), 9)

	mature := map[uint64]bool{}
	gone := map[uint64]bool{}
	prevAlive := map[uint64]bool{}

	for i := 0; i < 300 && !w.Extinct(); i++ {
		w.Step()

		alive := map[uint64]bool{}
		cells := map[components.Position]bool{}
		w.ForEach(func(org *components.Organism, pos *components.Position, e *components.Energy, b *components.Boundary) {
			alive[org.ID] = true
			if gone[org.ID] {
				t.Fatalf("step %d: organism %d reappeared after death", w.StepCount(), org.ID)
			}
			if cells[*pos] {
				t.Fatalf("step %d: two organisms at %+v", w.StepCount(), *pos)
			}
			cells[*pos] = true
			if org.Dead {
				t.Fatalf("step %d: dead organism %d still present", w.StepCount(), org.ID)
			}
			if e.Value < 0 || e.Value > cfg.Organism.MaxEnergy+1e-12 {
				t.Fatalf("step %d: energy %f out of range", w.StepCount(), e.Value)
			}
			if b.Integrity < 0 || b.Integrity > 1 {
				t.Fatalf("step %d: integrity %f out of range", w.StepCount(), b.Integrity)
			}
			if mature[org.ID] && org.Stage != components.Mature {
				t.Fatalf("step %d: organism %d reverted to immature", w.StepCount(), org.ID)
			}
			if org.Stage == components.Mature {
				mature[org.ID] = true
			}
		})

		for id := range prevAlive {
			if !alive[id] {
				gone[id] = true
			}
		}
		prevAlive = alive

		if len(alive) != w.Alive() || w.Grid().Count() != w.Alive() {
			t.Fatalf("step %d: alive=%d listed=%d occupied=%d", w.StepCount(), w.Alive(), len(alive), w.Grid().Count())
		}
	}
}

func TestDeadOrganismsLeaveTheWorld(t *testing.T) {
	cfg := testConfig(t)
	w := newWorld(t, cfg, criteria.Full(), 9)

	var died int
	for i := 0; i < cfg.Experiment.Steps && w.Alive() > 0; i++ {
		died += w.Step().Deaths
		if len(w.order) != w.Alive() {
			t.Fatalf("step %d: %d entities in order, %d alive", w.StepCount(), len(w.order), w.Alive())
		}
		for _, e := range w.order {
			if !w.ecs.Alive(e) || !w.mapper.HasAll(e) {
				t.Fatalf("step %d: dead or stripped entity left in turn order", w.StepCount())
			}
		}
		q := w.filter.Query()
		n := q.Count()
		q.Close()
		if n != w.Alive() {
			t.Fatalf("step %d: query sees %d organisms, %d alive", w.StepCount(), n, w.Alive())
		}
	}
	if died == 0 {
		t.Fatal("no organism died; the check never ran against a removal")
	}
}

func TestGrowthAblationPreventsReproduction(t *testing.T) {
	cfg := testConfig(t)
	s, err := newWorld(t, cfg, criteria.Single(criteria.Growth), 3).Run(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if s.Births != 0 || s.Reproductions != 0 {
		t.Errorf("growth ablated: births=%d reproductions=%d, want 0", s.Births, s.Reproductions)
	}
}

func TestMetabolismAblationLowersPopulation(t *testing.T) {
	cfg := testConfig(t)
	var full, ablated float64
	for seed := int64(100); seed < 103; seed++ {
		f, _ := newWorld(t, cfg, criteria.Full(), seed).Run(context.Background(), 0)
		a, _ := newWorld(t, cfg, criteria.Single(criteria.Metabolism), seed).Run(context.Background(), 0)
		full += f.MeanAlive
		ablated += a.MeanAlive
	}
	if ablated >= full {
		t.Errorf("metabolism ablated mean %f should be below full %f", ablated/3, full/3)
	}
}

func TestExtinctionStopsRun(t *testing.T) {
	cfg := testConfig(t)
	s, err := newWorld(t, cfg, criteria.Single(criteria.Metabolism), 4).Run(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Extinct() || s.StepsRun != s.ExtinctionStep || s.FinalAlive != 0 {
		t.Errorf("expected extinction: steps_run=%d extinction=%d final=%d", s.StepsRun, s.ExtinctionStep, s.FinalAlive)
	}
	if s.StepsRun >= cfg.Experiment.Steps {
		t.Errorf("ablated metabolism survived the whole budget")
	}
	if s.FailAliveStep < 0 {
		t.Error("extinct run should record an alive failure step")
	}
}

func TestMidRunAblationMatchesFullBeforeOnset(t *testing.T) {
	cfg := testConfig(t)
	full := newWorld(t, cfg, criteria.Full(), 8)
	late := newWorld(t, cfg, criteria.Single(criteria.Response).From(60), 8)

	for i := 0; i < 59; i++ {
		a, b := full.Step(), late.Step()
		if a != b {
			t.Fatalf("step %d diverged before ablation onset: %+v vs %+v", i+1, a, b)
		}
	}
}

func TestRunHonoursContext(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := newWorld(t, cfg, criteria.Full(), 1).Run(ctx, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if s.StepsRun != 0 {
		t.Errorf("canceled run took %d steps", s.StepsRun)
	}
}

func TestSummarySamplesAndSnapshot(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.Snapshots = true
	cfg.Telemetry.Lineage = true

	s, err := newWorld(t, cfg, criteria.Full(), 11).Run(context.Background(), 110)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Samples) == 0 || s.Samples[0].Step != 0 {
		t.Fatal("expected an initial sample at step 0")
	}
	last := s.Samples[len(s.Samples)-1]
	if last.Step != s.StepsRun {
		t.Errorf("last sample at %d, want final step %d", last.Step, s.StepsRun)
	}
	if s.Snapshot == nil || len(s.Snapshot.Organisms) != s.FinalAlive {
		t.Errorf("snapshot should list every living organism")
	}
	if s.Births > 0 && len(s.Events) == 0 {
		t.Error("lineage events missing")
	}
}

func TestInjectionRateSchedule(t *testing.T) {
	env := config.EnvironmentConfig{ShiftStep: 100, ShiftFactor: 0.5, CyclePeriod: 10, CycleLowFactor: 0.2}
	tests := []struct {
		step int
		want float64
	}{
		{1, 1.0},
		{5, 0.2},
		{99, 0.2},
		{101, 0.5},
		{106, 0.1},
	}
	for _, tt := range tests {
		if got := InjectionRate(1.0, env, tt.step); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("step %d: rate %f, want %f", tt.step, got, tt.want)
		}
	}
	if got := InjectionRate(0.3, config.EnvironmentConfig{}, 500); got != 0.3 {
		t.Errorf("no schedule should keep base rate, got %f", got)
	}
}

func TestConditionEnvironmentOverride(t *testing.T) {
	cfg := testConfig(t)
	dry := criteria.Full().WithEnvironment("dry", config.EnvironmentConfig{ShiftStep: 3, ShiftFactor: 0})
	if dry.Name != "normal_dry" {
		t.Errorf("name = %s", dry.Name)
	}

	w := newWorld(t, cfg, dry, 2)
	for i := 1; i <= 5; i++ {
		st := w.Step()
		if i < 3 && st.Injected <= 0 {
			t.Errorf("step %d: expected injection before the shift", i)
		}
		if i >= 3 && st.Injected != 0 {
			t.Errorf("step %d: injected %f after a zero shift", i, st.Injected)
		}
	}
}

func TestPerturbDue(t *testing.T) {
	env := config.EnvironmentConfig{PerturbInterval: 50, PerturbFraction: 0.3}
	if PerturbDue(env, 0) || PerturbDue(env, 49) || !PerturbDue(env, 100) {
		t.Error("perturbation schedule wrong")
	}
	if PerturbDue(config.EnvironmentConfig{PerturbInterval: 50}, 50) {
		t.Error("zero fraction should never perturb")
	}
}

func BenchmarkStep(b *testing.B) {
	cfg := config.MustLoad("")
	w, err := New(Options{Config: cfg, Condition: criteria.Full(), Seed: 1})
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if w.Extinct() {
			b.StopTimer()
			w, _ = New(Options{Config: cfg, Condition: criteria.Full(), Seed: int64(i)})
			b.StartTimer()
		}
		w.Step()
	}
}
