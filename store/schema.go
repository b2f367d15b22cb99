// Package store persists run summaries, time series and verdicts in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

const schemaV1 = `
-- One row per (condition, seed) replicate
CREATE TABLE IF NOT EXISTS runs (
    condition TEXT NOT NULL,
    seed INTEGER NOT NULL,
    partition TEXT NOT NULL,

    budget INTEGER NOT NULL,
    steps_run INTEGER NOT NULL,
    complete INTEGER NOT NULL,
    reason TEXT,

    extinction_step INTEGER NOT NULL,
    initial_alive INTEGER NOT NULL,
    final_alive INTEGER NOT NULL,
    mean_alive REAL NOT NULL,
    auc REAL NOT NULL,
    peak_alive INTEGER NOT NULL,

    births INTEGER NOT NULL,
    deaths INTEGER NOT NULL,
    reproductions INTEGER NOT NULL,

    max_generation INTEGER NOT NULL,
    mean_generation REAL NOT NULL,
    genome_drift REAL NOT NULL,
    genome_diversity REAL NOT NULL,

    lifespan_count INTEGER NOT NULL,
    lifespan_mean REAL NOT NULL,
    lifespan_median REAL NOT NULL,

    fail_energy_step INTEGER NOT NULL,
    fail_boundary_step INTEGER NOT NULL,
    fail_alive_step INTEGER NOT NULL,

    wall_ms INTEGER NOT NULL,
    recorded_at TEXT NOT NULL,
    PRIMARY KEY (condition, seed)
);
CREATE INDEX IF NOT EXISTS idx_runs_partition ON runs(partition, complete);

-- Sampled time series
CREATE TABLE IF NOT EXISTS samples (
    condition TEXT NOT NULL,
    seed INTEGER NOT NULL,
    step INTEGER NOT NULL,
    alive INTEGER NOT NULL,
    births INTEGER NOT NULL,
    deaths INTEGER NOT NULL,
    energy_mean REAL, energy_std REAL, energy_p10 REAL, energy_p50 REAL, energy_p90 REAL,
    boundary_mean REAL, boundary_std REAL,
    regulation_dev REAL,
    mature_frac REAL,
    mean_age REAL,
    mean_generation REAL,
    max_generation INTEGER,
    genome_drift REAL,
    genome_diversity REAL,
    resource_total REAL,
    injected REAL,
    depleted REAL,
    PRIMARY KEY (condition, seed, step),
    FOREIGN KEY (condition, seed) REFERENCES runs(condition, seed) ON DELETE CASCADE
);

-- Baseline comparisons
CREATE TABLE IF NOT EXISTS verdicts (
    condition TEXT NOT NULL,
    metric TEXT NOT NULL,
    n_normal INTEGER NOT NULL,
    n_ablated INTEGER NOT NULL,
    normal_mean REAL NOT NULL,
    ablated_mean REAL NOT NULL,
    percent_delta REAL NOT NULL,
    cohens_d REAL NOT NULL,
    cliffs_delta REAL NOT NULL,
    u REAL NOT NULL,
    p_raw REAL NOT NULL,
    p_corrected REAL NOT NULL,
    exact INTEGER NOT NULL,
    significant INTEGER NOT NULL,
    saturated INTEGER NOT NULL,
    recorded_at TEXT NOT NULL,
    PRIMARY KEY (condition, metric)
);

-- Pairwise interaction classes
CREATE TABLE IF NOT EXISTS interactions (
    pair TEXT PRIMARY KEY,
    first TEXT NOT NULL,
    second TEXT NOT NULL,
    normal_mean REAL NOT NULL,
    first_mean REAL NOT NULL,
    second_mean REAL NOT NULL,
    pair_mean REAL NOT NULL,
    expected REAL NOT NULL,
    ratio REAL NOT NULL,
    class TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// InitSchema creates the tables on a fresh database and checks the version
// of an existing one.
func InitSchema(ctx context.Context, db *sql.DB) error {
	current, err := getSchemaVersion(ctx, db)
	if err != nil {
		// No schema_version table yet
		if err := createSchema(ctx, db); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		return nil
	}
	if current > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, SchemaVersion)
	}
	return nil
}

func getSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}
