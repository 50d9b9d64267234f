// Package results persists run output at the reporting boundary: run
// metadata, per-batch metric rows, and churned uid sets, in SQLite. It
// stores only the Report surface, never engine internals.
package results

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/divinecomedylabs/churnlab/go-engine/internal/engine"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT PRIMARY KEY,
	seed            INTEGER NOT NULL,
	days            INTEGER NOT NULL,
	batches_per_day INTEGER NOT NULL,
	num_users       INTEGER NOT NULL,
	max_users       INTEGER NOT NULL,
	influx          INTEGER NOT NULL,
	created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS batch_metrics (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id            TEXT NOT NULL,
	batch_idx         INTEGER NOT NULL,
	challenger_energy REAL NOT NULL,
	challenger_arr    REAL NOT NULL,
	challenger_churn  REAL NOT NULL,
	baseline_energy   REAL NOT NULL,
	baseline_arr      REAL NOT NULL,
	baseline_churn    REAL NOT NULL,
	penalties         REAL NOT NULL,
	comebacks         INTEGER NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS churned_users (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	branch TEXT NOT NULL,
	uid    INTEGER NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// #endregion schema

// #region store

// Store writes and reads simulation results in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion store

// #region save-run

// SaveRun persists one run's config and full report atomically.
func (s *Store) SaveRun(config engine.Config, report engine.Report) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	influx := 0
	if config.EnableInflux {
		influx = 1
	}
	_, err = tx.Exec(
		`INSERT INTO runs (run_id, seed, days, batches_per_day, num_users, max_users, influx, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, config.Seed, config.Days, config.BatchesPerDay,
		config.NumUsers, config.MaxUsers, influx, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, batchIdx := range report.Batches {
		_, err = tx.Exec(
			`INSERT INTO batch_metrics (run_id, batch_idx,
			   challenger_energy, challenger_arr, challenger_churn,
			   baseline_energy, baseline_arr, baseline_churn,
			   penalties, comebacks)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, batchIdx,
			report.Challenger.Energy[i], report.Challenger.ARR[i], report.Challenger.Churn[i],
			report.Baseline.Energy[i], report.Baseline.ARR[i], report.Baseline.Churn[i],
			report.Penalties[i], report.Comebacks[i],
		)
		if err != nil {
			return fmt.Errorf("insert batch %d: %w", batchIdx, err)
		}
	}

	for _, uid := range report.ChallengerChurned {
		if _, err := tx.Exec(
			`INSERT INTO churned_users (run_id, branch, uid) VALUES (?, 'challenger', ?)`,
			report.RunID, uid,
		); err != nil {
			return fmt.Errorf("insert churned: %w", err)
		}
	}
	for _, uid := range report.BaselineChurned {
		if _, err := tx.Exec(
			`INSERT INTO churned_users (run_id, branch, uid) VALUES (?, 'baseline', ?)`,
			report.RunID, uid,
		); err != nil {
			return fmt.Errorf("insert churned: %w", err)
		}
	}

	return tx.Commit()
}

// #endregion save-run

// #region queries

// RunMeta is one row of the runs table.
type RunMeta struct {
	RunID         string
	Seed          int64
	Days          int
	BatchesPerDay int
	NumUsers      int
	MaxUsers      int
	Influx        bool
	CreatedAt     time.Time
}

// ListRuns returns the most recent runs.
func (s *Store) ListRuns(limit int) ([]RunMeta, error) {
	rows, err := s.db.Query(
		`SELECT run_id, seed, days, batches_per_day, num_users, max_users, influx, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var metas []RunMeta
	for rows.Next() {
		var m RunMeta
		var influx int
		var createdStr string
		if err := rows.Scan(&m.RunID, &m.Seed, &m.Days, &m.BatchesPerDay,
			&m.NumUsers, &m.MaxUsers, &influx, &createdStr); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		m.Influx = influx != 0
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// RunSummary aggregates one run for inspection.
type RunSummary struct {
	RunID             string
	ExecutedBatches   int
	FinalChurnReal    float64
	FinalChurnBase    float64
	TotalEnergyReal   float64
	TotalEnergyBase   float64
	TotalARRReal      float64
	TotalARRBase      float64
	TotalPenalties    float64
	TotalComebacks    int
	ChurnedChallenger int
	ChurnedBaseline   int
}

// Summary computes the aggregate view of a stored run.
func (s *Store) Summary(runID string) (RunSummary, error) {
	sum := RunSummary{RunID: runID}

	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(challenger_energy), 0), COALESCE(SUM(baseline_energy), 0),
		        COALESCE(SUM(challenger_arr), 0), COALESCE(SUM(baseline_arr), 0),
		        COALESCE(SUM(penalties), 0), COALESCE(SUM(comebacks), 0)
		 FROM batch_metrics WHERE run_id = ?`, runID,
	).Scan(&sum.ExecutedBatches, &sum.TotalEnergyReal, &sum.TotalEnergyBase,
		&sum.TotalARRReal, &sum.TotalARRBase, &sum.TotalPenalties, &sum.TotalComebacks)
	if err != nil {
		return RunSummary{}, fmt.Errorf("summarize run %s: %w", runID, err)
	}
	if sum.ExecutedBatches == 0 {
		return RunSummary{}, fmt.Errorf("run %s: no batch metrics", runID)
	}

	err = s.db.QueryRow(
		`SELECT challenger_churn, baseline_churn FROM batch_metrics
		 WHERE run_id = ? ORDER BY batch_idx DESC LIMIT 1`, runID,
	).Scan(&sum.FinalChurnReal, &sum.FinalChurnBase)
	if err != nil {
		return RunSummary{}, fmt.Errorf("final churn %s: %w", runID, err)
	}

	err = s.db.QueryRow(
		`SELECT
		   COUNT(CASE WHEN branch = 'challenger' THEN 1 END),
		   COUNT(CASE WHEN branch = 'baseline' THEN 1 END)
		 FROM churned_users WHERE run_id = ?`, runID,
	).Scan(&sum.ChurnedChallenger, &sum.ChurnedBaseline)
	if err != nil {
		return RunSummary{}, fmt.Errorf("churned counts %s: %w", runID, err)
	}

	return sum, nil
}

// #endregion queries
