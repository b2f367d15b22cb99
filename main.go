package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/lifecriteria/config"
	"github.com/pthm-cable/lifecriteria/criteria"
	"github.com/pthm-cable/lifecriteria/telemetry"
	"github.com/pthm-cable/lifecriteria/world"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	condition := flag.String("condition", criteria.BaselineName, "Condition to run, e.g. normal, no_growth, proxy_evolution")
	ablateFrom := flag.Int("ablate-from", 0, "Apply the ablation from this step onwards")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config and snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	steps := flag.Int("steps", 0, "Step budget (0 = config)")
	perf := flag.Bool("perf", false, "Log per-phase step timings at the end")
	snapshot := flag.Bool("snapshot", false, "Save an organism snapshot at the end")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *steps > 0 {
		cfg.Experiment.Steps = *steps
	}
	if *snapshot {
		cfg.Telemetry.Snapshots = true
	}
	if err := cfg.Refresh(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	cond, err := criteria.ParseCondition(*condition)
	if err != nil {
		slog.Error("invalid condition", "error", err)
		os.Exit(1)
	}
	if *ablateFrom > 0 {
		cond = cond.From(*ablateFrom)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	w, err := world.New(world.Options{
		Config:      cfg,
		Condition:   cond,
		Seed:        rngSeed,
		Logger:      logger,
		LogProgress: true,
		Perf:        *perf,
	})
	if err != nil {
		slog.Error("failed to build world", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting simulation",
		"condition", cond.Name,
		"seed", rngSeed,
		"steps", cfg.Experiment.Steps,
		"grid", cfg.Derived.Cells,
	)

	start := time.Now()
	summary, err := w.Run(ctx, 0)
	summary.WallMillis = time.Since(start).Milliseconds()
	if errors.Is(err, context.Canceled) {
		summary.Complete = false
		summary.Reason = telemetry.ReasonCanceled
		slog.Warn("simulation interrupted", "step", summary.StepsRun)
	}

	slog.Info("simulation finished", "run", summary)
	if *perf {
		slog.Info("perf", "stats", w.Perf())
	}

	if err := out.WriteRun(summary); err != nil {
		slog.Error("failed to write run", "error", err)
	}
	if summary.Snapshot != nil && out != nil {
		path, err := telemetry.SaveSnapshot(summary.Snapshot, out.Dir())
		if err != nil {
			slog.Error("failed to save snapshot", "error", err)
		} else {
			slog.Info("snapshot saved", "path", path)
		}
	}
}
