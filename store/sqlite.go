package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pthm-cable/lifecriteria/analysis"
	"github.com/pthm-cable/lifecriteria/telemetry"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store writes experiment results to a SQLite database.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and initialises its schema.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := MemoryPath
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: a second would see a different in-memory database
	db.SetMaxOpenConns(1)

	if path == MemoryPath {
		if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// SaveRun stores a run summary and its samples, replacing any earlier
// record of the same (condition, seed).
func (s *Store) SaveRun(ctx context.Context, r telemetry.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE condition = ? AND seed = ?`, r.Condition, r.Seed); err != nil {
		return fmt.Errorf("failed to replace run: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM samples WHERE condition = ? AND seed = ?`, r.Condition, r.Seed); err != nil {
		return fmt.Errorf("failed to replace samples: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			condition, seed, partition, budget, steps_run, complete, reason,
			extinction_step, initial_alive, final_alive, mean_alive, auc, peak_alive,
			births, deaths, reproductions,
			max_generation, mean_generation, genome_drift, genome_diversity,
			lifespan_count, lifespan_mean, lifespan_median,
			fail_energy_step, fail_boundary_step, fail_alive_step,
			wall_ms, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Condition, r.Seed, r.Partition, r.Budget, r.StepsRun, boolInt(r.Complete), r.Reason,
		r.ExtinctionStep, r.InitialAlive, r.FinalAlive, r.MeanAlive, r.AUC, r.PeakAlive,
		r.Births, r.Deaths, r.Reproductions,
		r.MaxGeneration, r.MeanGeneration, r.GenomeDrift, r.GenomeDiverse,
		r.LifespanCount, r.LifespanMean, r.LifespanMedian,
		r.FailEnergyStep, r.FailBoundaryStep, r.FailAliveStep,
		r.WallMillis, now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s/%d: %w", r.Condition, r.Seed, err)
	}

	if len(r.Samples) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO samples (
				condition, seed, step, alive, births, deaths,
				energy_mean, energy_std, energy_p10, energy_p50, energy_p90,
				boundary_mean, boundary_std, regulation_dev, mature_frac, mean_age,
				mean_generation, max_generation, genome_drift, genome_diversity,
				resource_total, injected, depleted
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare sample insert: %w", err)
		}
		defer stmt.Close()

		for _, x := range r.Samples {
			if _, err := stmt.ExecContext(ctx,
				r.Condition, r.Seed, x.Step, x.Alive, x.Births, x.Deaths,
				x.EnergyMean, x.EnergyStd, x.EnergyP10, x.EnergyP50, x.EnergyP90,
				x.BoundaryMean, x.BoundaryStd, x.RegulationDev, x.MatureFrac, x.MeanAge,
				x.MeanGeneration, x.MaxGeneration, x.GenomeDrift, x.GenomeDiverse,
				x.ResourceTotal, x.Injected, x.Depleted,
			); err != nil {
				return fmt.Errorf("failed to insert sample at step %d: %w", x.Step, err)
			}
		}
	}

	return tx.Commit()
}

// LoadRuns returns every stored run summary in insertion order, without samples.
func (s *Store) LoadRuns(ctx context.Context) ([]telemetry.RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT condition, seed, partition, budget, steps_run, complete, COALESCE(reason, ''),
			extinction_step, initial_alive, final_alive, mean_alive, auc, peak_alive,
			births, deaths, reproductions,
			max_generation, mean_generation, genome_drift, genome_diversity,
			lifespan_count, lifespan_mean, lifespan_median,
			fail_energy_step, fail_boundary_step, fail_alive_step, wall_ms
		FROM runs ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []telemetry.RunSummary
	for rows.Next() {
		var r telemetry.RunSummary
		var complete int
		if err := rows.Scan(
			&r.Condition, &r.Seed, &r.Partition, &r.Budget, &r.StepsRun, &complete, &r.Reason,
			&r.ExtinctionStep, &r.InitialAlive, &r.FinalAlive, &r.MeanAlive, &r.AUC, &r.PeakAlive,
			&r.Births, &r.Deaths, &r.Reproductions,
			&r.MaxGeneration, &r.MeanGeneration, &r.GenomeDrift, &r.GenomeDiverse,
			&r.LifespanCount, &r.LifespanMean, &r.LifespanMedian,
			&r.FailEnergyStep, &r.FailBoundaryStep, &r.FailAliveStep, &r.WallMillis,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Complete = complete != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadSamples returns the time series of one run in step order.
func (s *Store) LoadSamples(ctx context.Context, condition string, seed int64) ([]telemetry.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT step, alive, births, deaths,
			energy_mean, energy_std, energy_p10, energy_p50, energy_p90,
			boundary_mean, boundary_std, regulation_dev, mature_frac, mean_age,
			mean_generation, max_generation, genome_drift, genome_diversity,
			resource_total, injected, depleted
		FROM samples WHERE condition = ? AND seed = ? ORDER BY step`, condition, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var out []telemetry.Sample
	for rows.Next() {
		x := telemetry.Sample{Condition: condition, Seed: seed}
		if err := rows.Scan(
			&x.Step, &x.Alive, &x.Births, &x.Deaths,
			&x.EnergyMean, &x.EnergyStd, &x.EnergyP10, &x.EnergyP50, &x.EnergyP90,
			&x.BoundaryMean, &x.BoundaryStd, &x.RegulationDev, &x.MatureFrac, &x.MeanAge,
			&x.MeanGeneration, &x.MaxGeneration, &x.GenomeDrift, &x.GenomeDiverse,
			&x.ResourceTotal, &x.Injected, &x.Depleted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

// SaveVerdicts replaces the stored verdicts for each (condition, metric).
func (s *Store) SaveVerdicts(ctx context.Context, vs []analysis.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	recorded := now()
	for _, v := range vs {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO verdicts (
				condition, metric, n_normal, n_ablated, normal_mean, ablated_mean,
				percent_delta, cohens_d, cliffs_delta, u, p_raw, p_corrected,
				exact, significant, saturated, recorded_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			v.Condition, v.Metric, v.NNormal, v.NAblated, v.NormalMean, v.AblatedMean,
			v.PercentDelta, v.CohenD, v.CliffsDelta, v.U, v.PRaw, v.PCorrected,
			boolInt(v.Exact), boolInt(v.Significant), boolInt(v.Saturated), recorded,
		); err != nil {
			return fmt.Errorf("failed to insert verdict %s: %w", v.Condition, err)
		}
	}
	return tx.Commit()
}

// LoadVerdicts returns the stored verdicts for metric in insertion order.
func (s *Store) LoadVerdicts(ctx context.Context, metric string) ([]analysis.Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT condition, metric, n_normal, n_ablated, normal_mean, ablated_mean,
			percent_delta, cohens_d, cliffs_delta, u, p_raw, p_corrected,
			exact, significant, saturated
		FROM verdicts WHERE metric = ? ORDER BY rowid`, metric)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	defer rows.Close()

	var out []analysis.Verdict
	for rows.Next() {
		var v analysis.Verdict
		var exact, sig, sat int
		if err := rows.Scan(
			&v.Condition, &v.Metric, &v.NNormal, &v.NAblated, &v.NormalMean, &v.AblatedMean,
			&v.PercentDelta, &v.CohenD, &v.CliffsDelta, &v.U, &v.PRaw, &v.PCorrected,
			&exact, &sig, &sat,
		); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		v.Exact, v.Significant, v.Saturated = exact != 0, sig != 0, sat != 0
		out = append(out, v)
	}
	return out, rows.Err()
}

// SaveInteractions replaces the stored interaction rows.
func (s *Store) SaveInteractions(ctx context.Context, in []analysis.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range in {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO interactions (
				pair, first, second, normal_mean, first_mean, second_mean,
				pair_mean, expected, ratio, class
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Pair, r.First, r.Second, r.NormalMean, r.FirstMean, r.SecondMean,
			r.PairMean, r.Expected, r.Ratio, string(r.Class),
		); err != nil {
			return fmt.Errorf("failed to insert interaction %s: %w", r.Pair, err)
		}
	}
	return tx.Commit()
}

// CountRuns returns the number of stored runs.
func (s *Store) CountRuns(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}
