package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/lifecriteria/analysis"
	"github.com/pthm-cable/lifecriteria/config"
	"github.com/pthm-cable/lifecriteria/criteria"
	"github.com/pthm-cable/lifecriteria/experiment"
	"github.com/pthm-cable/lifecriteria/store"
	"github.com/pthm-cable/lifecriteria/telemetry"
)

// Analysis output files.
const (
	interactionsFile = "interactions.csv"
	pathwaysFile     = "pathways.csv"
	analysisFile     = "analysis.json"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute verdicts from stored runs",
		Long: `Reads run summaries from a runs.csv file or a SQLite database and
compares every condition against the full system on the test seeds.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyAnalysisFlags(cmd, cfg)
			if err := cfg.Refresh(); err != nil {
				return err
			}

			ctx := context.Background()
			runsPath, _ := cmd.Flags().GetString("runs")
			dbPath, _ := cmd.Flags().GetString("db")
			outputDir, _ := cmd.Flags().GetString("output")

			var runs []telemetry.RunSummary
			var db *store.Store
			switch {
			case dbPath != "":
				db, err = store.Open(ctx, dbPath)
				if err != nil {
					return err
				}
				defer db.Close()
				if runs, err = db.LoadRuns(ctx); err != nil {
					return err
				}
			case runsPath != "":
				if runs, err = telemetry.ReadRuns(runsPath); err != nil {
					return err
				}
			default:
				return fmt.Errorf("one of --runs or --db is required")
			}

			// Order by the family so verdict rows are stable regardless of completion order
			conds, err := criteria.ConditionsFor(criteria.FamilyPairwiseAll)
			if err != nil {
				return err
			}
			conds = append(conds, criteria.Proxies()...)
			experiment.SortSummaries(runs, conds)

			out, err := telemetry.NewOutputManager(outputDir)
			if err != nil {
				return err
			}
			defer out.Close()

			return analyze(ctx, cmd, cfg, runs, out, db)
		},
	}
	cmd.Flags().String("runs", "", "runs.csv produced by 'ablate run --output'")
	cmd.Flags().String("db", "", "SQLite database produced by 'ablate run --db'")
	cmd.Flags().String("output", "", "Directory for verdicts.csv and related tables")
	addAnalysisFlags(cmd)
	return cmd
}

func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().String("metric", "", "Outcome metric: mean_alive, final_alive, auc (default from config)")
	cmd.Flags().Float64("alpha", 0, "Family-wise significance level (0 = config)")
	cmd.Flags().String("alternative", "", "greater or two-sided (default from config)")
}

func applyAnalysisFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("metric") {
		cfg.Experiment.Metric, _ = f.GetString("metric")
	}
	if f.Changed("alpha") {
		cfg.Experiment.Alpha, _ = f.GetFloat64("alpha")
	}
	if f.Changed("alternative") {
		cfg.Experiment.Alternative, _ = f.GetString("alternative")
	}
}

// analyze computes verdicts, interactions and failure pathways, writes them
// to the output directory and database, and prints the verdict table.
func analyze(ctx context.Context, cmd *cobra.Command, cfg *config.Config, runs []telemetry.RunSummary,
	out *telemetry.OutputManager, db *store.Store) error {
	opts, err := analysis.OptionsFrom(cfg.Experiment)
	if err != nil {
		return err
	}
	opts.Logger = slog.Default()

	verdicts, err := analysis.Analyze(runs, opts)
	if err != nil {
		return err
	}
	for _, v := range verdicts {
		slog.Debug("verdict", "verdict", v)
	}

	interactions, err := analysis.Interactions(runs, opts.Metric)
	if err != nil {
		return err
	}
	pathways := analysis.FailurePathways(runs)

	if len(verdicts) > 0 {
		if err := out.WriteTable(telemetry.VerdictsFile, verdicts); err != nil {
			return err
		}
	}
	if len(interactions) > 0 {
		if err := out.WriteTable(interactionsFile, interactions); err != nil {
			return err
		}
	}
	if len(pathways) > 0 {
		if err := out.WriteTable(pathwaysFile, pathways); err != nil {
			return err
		}
	}

	if db != nil {
		if err := db.SaveVerdicts(ctx, verdicts); err != nil {
			return err
		}
		if err := db.SaveInteractions(ctx, interactions); err != nil {
			return err
		}
	}

	result := map[string]any{
		"metric":            opts.Metric,
		"alpha":             opts.Alpha,
		"alternative":       opts.Alternative,
		"correction":        "holm_bonferroni",
		"significant_count": analysis.CountSignificant(verdicts),
		"verdicts":          verdicts,
		"interactions":      interactions,
		"pathways":          pathways,
	}
	if err := out.WriteJSON(analysisFile, result); err != nil {
		return err
	}

	jsonOut, _ := cmd.Flags().GetBool("json")
	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	fmt.Printf("metric: %s, alternative: %s, test runs: %d\n\n", opts.Metric, opts.Alternative, len(analysis.TestRuns(runs)))
	if err := analysis.WriteTable(os.Stdout, verdicts, opts.Alpha); err != nil {
		return err
	}
	if len(interactions) > 0 {
		fmt.Println()
		if err := analysis.WriteInteractions(os.Stdout, interactions); err != nil {
			return err
		}
	}
	return nil
}
