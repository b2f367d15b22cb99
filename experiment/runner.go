package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/lifecriteria/config"
	"github.com/pthm-cable/lifecriteria/criteria"
	"github.com/pthm-cable/lifecriteria/telemetry"
	"github.com/pthm-cable/lifecriteria/world"
)

// Options configures a Runner. Zero values fall back to the config's experiment section.
type Options struct {
	Config     *config.Config
	Conditions []criteria.Condition

	// Seeds to run for every condition. Defaults to the test range.
	Seeds []int64

	Workers     int
	Timeout     time.Duration
	StepCeiling int

	Logger *slog.Logger

	// OnResult is called once per finished replicate, serialised across workers.
	// A non-nil error stops the experiment.
	OnResult func(telemetry.RunSummary) error
}

// Task is one (condition, seed) replicate.
type Task struct {
	Index     int
	Condition criteria.Condition
	Seed      int64
}

// Runner executes every condition against every seed with a bounded worker pool.
type Runner struct {
	cfg        *config.Config
	conditions []criteria.Condition
	seeds      []int64
	partition  SeedPartition

	workers     int
	timeout     time.Duration
	stepCeiling int

	logger   *slog.Logger
	onResult func(telemetry.RunSummary) error
	mu       sync.Mutex
	done     int
}

// NewRunner validates the conditions and the seed partition. Nothing is
// simulated until Run.
func NewRunner(opts Options) (*Runner, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, world.ErrNoConfig
	}
	if len(opts.Conditions) == 0 {
		return nil, fmt.Errorf("%w: no conditions to run", criteria.ErrInvalidCondition)
	}

	names := make(map[string]bool, len(opts.Conditions))
	for _, c := range opts.Conditions {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if names[c.Name] {
			return nil, fmt.Errorf("%w: duplicate condition %q", criteria.ErrInvalidCondition, c.Name)
		}
		names[c.Name] = true
	}

	partition := NewSeedPartition(cfg.Experiment.Seeds)
	if err := partition.Validate(); err != nil {
		return nil, err
	}

	seeds := opts.Seeds
	if len(seeds) == 0 {
		seeds = partition.TestSeeds()
	}
	seeds = uniqueSorted(seeds)

	r := &Runner{
		cfg:         cfg,
		conditions:  opts.Conditions,
		seeds:       seeds,
		partition:   partition,
		workers:     opts.Workers,
		timeout:     opts.Timeout,
		stepCeiling: opts.StepCeiling,
		logger:      opts.Logger,
		onResult:    opts.OnResult,
	}
	if r.workers <= 0 {
		r.workers = cfg.Experiment.Workers
	}
	if r.workers <= 0 {
		r.workers = runtime.GOMAXPROCS(0)
	}
	if r.timeout <= 0 {
		r.timeout = cfg.Experiment.Timeout
	}
	if r.stepCeiling <= 0 {
		r.stepCeiling = cfg.Experiment.StepCeiling
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r, nil
}

func uniqueSorted(seeds []int64) []int64 {
	out := make([]int64, len(seeds))
	copy(out, seeds)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, s := range out {
		if i == 0 || s != out[n-1] {
			out[n] = s
			n++
		}
	}
	return out[:n]
}

// Tasks lists the replicates in result order: condition order, then ascending seed.
func (r *Runner) Tasks() []Task {
	tasks := make([]Task, 0, len(r.conditions)*len(r.seeds))
	for _, c := range r.conditions {
		for _, s := range r.seeds {
			tasks = append(tasks, Task{Index: len(tasks), Condition: c, Seed: s})
		}
	}
	return tasks
}

// Partition returns the validated seed partition.
func (r *Runner) Partition() SeedPartition {
	return r.partition
}

// Run executes every task and returns the summaries in Tasks order.
// Timed-out and ceiling-capped replicates are returned as incomplete.
// If ctx ends or OnResult fails, the summaries finished so far are
// returned together with the error.
func (r *Runner) Run(ctx context.Context) ([]telemetry.RunSummary, error) {
	tasks := r.Tasks()
	results := make([]telemetry.RunSummary, len(tasks))
	finished := make([]bool, len(tasks))

	r.logger.Info("experiment starting",
		"conditions", len(r.conditions),
		"seeds", len(r.seeds),
		"runs", len(tasks),
		"workers", r.workers,
		"steps", r.cfg.Experiment.Steps,
	)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, t := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := r.RunTask(gctx, t)
			if err != nil {
				return err
			}
			results[t.Index] = s
			finished[t.Index] = true
			return r.emit(s, len(tasks))
		})
	}

	if err := g.Wait(); err != nil {
		var partial []telemetry.RunSummary
		for i, ok := range finished {
			if ok {
				partial = append(partial, results[i])
			}
		}
		return partial, err
	}

	r.logger.Info("experiment finished", "runs", len(tasks), "elapsed", time.Since(start).Round(time.Millisecond))
	return results, nil
}

// emit forwards a summary to OnResult under the runner lock.
func (r *Runner) emit(s telemetry.RunSummary, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.done++
	r.logger.Info("run finished", "run", s, "done", r.done, "total", total)
	if r.onResult == nil {
		return nil
	}
	if err := r.onResult(s); err != nil {
		return fmt.Errorf("handling result %s/%d: %w", s.Condition, s.Seed, err)
	}
	return nil
}

// RunTask runs one replicate in its own World. The error is non-nil only when
// ctx itself ended; the replicate's own timeout is reported in the summary.
func (r *Runner) RunTask(ctx context.Context, t Task) (telemetry.RunSummary, error) {
	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	w, err := world.New(world.Options{
		Config:    r.cfg,
		Condition: t.Condition,
		Seed:      t.Seed,
		Logger:    r.logger,
	})
	if err != nil {
		return telemetry.RunSummary{}, fmt.Errorf("building world %s/%d: %w", t.Condition.Name, t.Seed, err)
	}

	budget := r.cfg.Experiment.Steps
	limit := budget
	if r.stepCeiling > 0 && r.stepCeiling < budget {
		limit = r.stepCeiling
	}

	s, runErr := w.Run(runCtx, limit)
	s.Partition = r.partition.Classify(t.Seed)
	s.WallMillis = time.Since(start).Milliseconds()

	switch {
	case runErr == nil:
		if !s.Extinct() && s.StepsRun < budget {
			s.Complete = false
			s.Reason = telemetry.ReasonStepCeiling
		}
	case ctx.Err() != nil:
		s.Complete = false
		s.Reason = telemetry.ReasonCanceled
		return s, ctx.Err()
	case errors.Is(runErr, context.DeadlineExceeded):
		s.Complete = false
		s.Reason = telemetry.ReasonTimeout
		r.logger.Warn("run timed out", "condition", t.Condition.Name, "seed", t.Seed, "step", s.StepsRun)
	default:
		return s, fmt.Errorf("running %s/%d: %w", t.Condition.Name, t.Seed, runErr)
	}
	return s, nil
}

// Complete filters summaries down to finished replicates.
func Complete(runs []telemetry.RunSummary) []telemetry.RunSummary {
	out := make([]telemetry.RunSummary, 0, len(runs))
	for _, s := range runs {
		if s.Complete {
			out = append(out, s)
		}
	}
	return out
}

// SortSummaries orders runs by the position of their condition in conditions,
// then by seed. Conditions not listed sort last, by name.
func SortSummaries(runs []telemetry.RunSummary, conditions []criteria.Condition) {
	rank := make(map[string]int, len(conditions))
	for i, c := range conditions {
		rank[c.Name] = i
	}
	pos := func(name string) int {
		if i, ok := rank[name]; ok {
			return i
		}
		return len(conditions)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		a, b := runs[i], runs[j]
		if pa, pb := pos(a.Condition), pos(b.Condition); pa != pb {
			return pa < pb
		}
		if a.Condition != b.Condition {
			return a.Condition < b.Condition
		}
		return a.Seed < b.Seed
	})
}
