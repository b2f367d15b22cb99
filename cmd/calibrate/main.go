// Package main tunes baseline parameters with CMA-ES so the full system holds
// a stable, unsaturated population on the calibration seeds.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/lifecriteria/config"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	steps := flag.Int("steps", 0, "Step budget per calibration run (0 = config)")
	maxEvals := flag.Int("max-evals", 150, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	target := flag.Float64("target", 0.1, "Target mean occupancy as a share of the grid")
	workers := flag.Int("workers", 0, "Parallel runs per evaluation (0 = config)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := run(*configPath, *outputDir, *steps, *maxEvals, *population, *target, *workers); err != nil {
		fmt.Fprintf(os.Stderr, "calibrate: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, outputDir string, steps, maxEvals, population int, target float64, workers int) error {
	if outputDir == "" {
		return fmt.Errorf("--output is required")
	}
	if target <= 0 || target >= 1 {
		return fmt.Errorf("--target must be in (0,1), got %g", target)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	baseCfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if steps > 0 {
		baseCfg.Experiment.Steps = steps
		if err := baseCfg.Refresh(); err != nil {
			return err
		}
	}
	if baseCfg.Experiment.Seeds.Calibration.Count == 0 {
		return fmt.Errorf("config has no calibration seeds")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, baseCfg, target, workers)

	dim := params.Dim()
	initX := params.Normalize(params.ExtractFromConfig(baseCfg))

	popSize := population
	if popSize == 0 {
		popSize = 4 + int(3.0*math.Log(float64(dim)))
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}
	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0, // Each evaluation already runs its seeds in parallel
	}

	logFile, err := os.Create(filepath.Join(outputDir, "optimize_log.csv"))
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()
	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := append([]string{"eval", "fitness", "mean_alive", "extinct", "saturated"}, params.Names()...)
	if err := logWriter.Write(header); err != nil {
		return err
	}

	evalCount := 0
	bestFitness := math.Inf(1)
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			// Once interrupted, finish the optimizer quickly with the worst score
			if ctx.Err() != nil {
				return math.Inf(1)
			}
			clamped := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(ctx, clamped)
			stats := evaluator.LastStats()
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = clamped
			}

			row := []string{
				strconv.Itoa(evalCount),
				strconv.FormatFloat(fitness, 'f', 6, 64),
				strconv.FormatFloat(stats.MeanAlive, 'f', 2, 64),
				strconv.Itoa(stats.Extinct),
				strconv.Itoa(stats.Saturated),
			}
			for _, v := range clamped {
				row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
			}
			logWriter.Write(row)
			logWriter.Flush()

			elapsed := time.Since(startTime)
			remaining := time.Duration(maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			fmt.Printf("Eval %d/%d: fitness=%.4f %s (best=%.4f) | elapsed: %s, ETA: %s\n",
				evalCount, maxEvals, fitness, stats, bestFitness,
				formatDuration(elapsed), formatDuration(remaining))
			return fitness
		},
	}

	fmt.Printf("Starting CMA-ES calibration with %d parameters, population=%d, max_evals=%d\n", dim, popSize, maxEvals)
	fmt.Printf("Calibration seeds: %d from %d, steps per run: %d, target mean_alive: %.0f\n",
		baseCfg.Experiment.Seeds.Calibration.Count, baseCfg.Experiment.Seeds.Calibration.Start,
		baseCfg.Experiment.Steps, target*float64(baseCfg.Derived.Cells))

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		return fmt.Errorf("no evaluation completed")
	}

	fmt.Printf("\nCalibration complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.4f\n\nBest parameters:\n", bestFitness)
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Name, bestParams[i])
	}

	bestCfg, err := evaluator.Config(bestParams)
	if err != nil {
		return fmt.Errorf("best parameters invalid: %w", err)
	}
	configOutPath := filepath.Join(outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	return ctx.Err()
}
