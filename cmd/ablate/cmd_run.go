package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/lifecriteria/config"
	"github.com/pthm-cable/lifecriteria/criteria"
	"github.com/pthm-cable/lifecriteria/experiment"
	"github.com/pthm-cable/lifecriteria/store"
	"github.com/pthm-cable/lifecriteria/telemetry"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a condition family over the test seeds and analyse it",
		Long: `Runs every condition of the chosen family against every test seed,
streams run summaries to CSV (and SQLite with --db), then prints the
verdict table comparing each condition to the full system.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}

			conds, err := selectConditions(cmd, cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			outputDir, _ := cmd.Flags().GetString("output")
			dbPath, _ := cmd.Flags().GetString("db")
			calibration, _ := cmd.Flags().GetBool("calibration")
			skipAnalysis, _ := cmd.Flags().GetBool("no-analysis")

			out, err := telemetry.NewOutputManager(outputDir)
			if err != nil {
				return err
			}
			defer out.Close()
			if err := out.WriteConfig(cfg); err != nil {
				return err
			}

			var db *store.Store
			if dbPath != "" {
				db, err = store.Open(ctx, dbPath)
				if err != nil {
					return err
				}
				defer db.Close()
			}

			opts := experiment.Options{
				Config:     cfg,
				Conditions: conds,
				Logger:     slog.Default(),
				OnResult: func(s telemetry.RunSummary) error {
					if err := out.WriteRun(s); err != nil {
						return err
					}
					if s.Snapshot != nil && out != nil {
						if _, err := telemetry.SaveSnapshot(s.Snapshot, out.Dir()); err != nil {
							return err
						}
					}
					if db != nil {
						return db.SaveRun(ctx, s)
					}
					return nil
				},
			}
			if calibration {
				opts.Seeds = experiment.NewSeedPartition(cfg.Experiment.Seeds).CalibrationSeeds()
			}

			runner, err := experiment.NewRunner(opts)
			if err != nil {
				return err
			}

			start := time.Now()
			runs, err := runner.Run(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					slog.Warn("experiment interrupted", "completed", len(runs))
				}
				return err
			}

			incomplete := len(runs) - len(experiment.Complete(runs))
			slog.Info("experiment complete",
				"runs", len(runs),
				"incomplete", incomplete,
				"elapsed", time.Since(start).Round(time.Second).String(),
				"output", out.Dir(),
			)

			if skipAnalysis || calibration {
				return nil
			}
			return analyze(ctx, cmd, cfg, runs, out, db)
		},
	}

	cmd.Flags().String("family", "", "Condition family (default from config): full, single, pairwise, pairwise_all, proxy, all")
	cmd.Flags().StringSlice("conditions", nil, "Explicit condition names instead of a family, e.g. normal,no_growth")
	cmd.Flags().Int("ablate-from", 0, "Start ablations at this step instead of step 1")
	cmd.Flags().Int("shift-step", 0, "Scale resource injection from this step on, for every condition")
	cmd.Flags().Float64("shift-factor", 0.5, "Injection multiplier applied from --shift-step")
	cmd.Flags().Int("steps", 0, "Step budget per run (0 = config)")
	cmd.Flags().Int64("seed-start", 0, "First test seed (with --seeds)")
	cmd.Flags().Int("seeds", 0, "Number of test seeds (0 = config)")
	cmd.Flags().Int("workers", 0, "Parallel runs (0 = config, then GOMAXPROCS)")
	cmd.Flags().Duration("timeout", 0, "Wall-clock limit per run (0 = config)")
	cmd.Flags().Int("step-ceiling", 0, "Hard step cap per run (0 = config)")
	cmd.Flags().Bool("snapshots", false, "Save an organism snapshot at the end of every run")
	cmd.Flags().Bool("lineage", false, "Keep birth and death events in run summaries")
	cmd.Flags().Bool("calibration", false, "Run on the calibration seeds and skip analysis")
	cmd.Flags().Bool("no-analysis", false, "Skip the verdict table")
	cmd.Flags().String("output", "", "Output directory for CSV files and the config snapshot")
	cmd.Flags().String("db", "", "SQLite database to store runs and verdicts in")
	addAnalysisFlags(cmd)
	return cmd
}

// applyRunFlags overrides config fields with explicitly set flags.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("steps") {
		cfg.Experiment.Steps, _ = f.GetInt("steps")
	}
	if f.Changed("seeds") {
		cfg.Experiment.Seeds.Test.Count, _ = f.GetInt("seeds")
	}
	if f.Changed("seed-start") {
		cfg.Experiment.Seeds.Test.Start, _ = f.GetInt64("seed-start")
	}
	if f.Changed("workers") {
		cfg.Experiment.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("timeout") {
		cfg.Experiment.Timeout, _ = f.GetDuration("timeout")
	}
	if f.Changed("step-ceiling") {
		cfg.Experiment.StepCeiling, _ = f.GetInt("step-ceiling")
	}
	if f.Changed("family") {
		cfg.Experiment.Family, _ = f.GetString("family")
	}
	if f.Changed("snapshots") {
		cfg.Telemetry.Snapshots, _ = f.GetBool("snapshots")
	}
	if f.Changed("lineage") {
		cfg.Telemetry.Lineage, _ = f.GetBool("lineage")
	}
	applyAnalysisFlags(cmd, cfg)
	return cfg.Refresh()
}

// selectConditions resolves --conditions or the configured family, then
// applies --ablate-from to every ablated condition and --shift-step to all of them.
func selectConditions(cmd *cobra.Command, cfg *config.Config) ([]criteria.Condition, error) {
	names, _ := cmd.Flags().GetStringSlice("conditions")
	from, _ := cmd.Flags().GetInt("ablate-from")

	var conds []criteria.Condition
	if len(names) > 0 {
		hasBaseline := false
		for _, n := range names {
			c, err := criteria.ParseCondition(strings.TrimSpace(n))
			if err != nil {
				return nil, err
			}
			hasBaseline = hasBaseline || c.IsBaseline()
			conds = append(conds, c)
		}
		if !hasBaseline {
			conds = append([]criteria.Condition{criteria.Full()}, conds...)
		}
	} else {
		var err error
		conds, err = criteria.ConditionsFor(criteria.Family(cfg.Experiment.Family))
		if err != nil {
			return nil, err
		}
	}

	if from > 0 {
		for i, c := range conds {
			if !c.IsBaseline() {
				conds[i] = c.From(from)
			}
		}
	}

	if shift, _ := cmd.Flags().GetInt("shift-step"); shift > 0 {
		env := cfg.Environment
		env.ShiftStep = shift
		env.ShiftFactor, _ = cmd.Flags().GetFloat64("shift-factor")
		// Names are kept so the baseline still matches the analysis baseline
		for i, c := range conds {
			conds[i] = c.WithEnvironment("", env)
		}
	}
	slog.Info("conditions selected", "conditions", describeConditions(conds))
	return conds, nil
}

// describeConditions renders condition names for log lines.
func describeConditions(conds []criteria.Condition) string {
	names := make([]string, len(conds))
	for i, c := range conds {
		names[i] = c.Name
	}
	return fmt.Sprintf("%d (%s)", len(conds), strings.Join(names, ", "))
}
