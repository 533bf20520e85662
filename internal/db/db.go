package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"randomflight/internal/report"
	"randomflight/internal/stats"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

var schema = []string{`
CREATE TABLE IF NOT EXISTS random_flight_runs (
  run_id      uuid PRIMARY KEY,
  started_at  timestamptz NOT NULL,
  finished_at timestamptz NOT NULL,
  trials      integer NOT NULL,
  max_hops    integer NOT NULL,
  airports    integer NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS random_flight_stats (
  run_id       uuid NOT NULL REFERENCES random_flight_runs(run_id) ON DELETE CASCADE,
  airport      text NOT NULL,
  dead_ends    integer NOT NULL,
  didnt_finish integer NOT NULL,
  returned     integer NOT NULL,
  shortest     integer,
  longest      integer,
  average      double precision,
  PRIMARY KEY (run_id, airport)
)`,
}

// EnsureSchema creates the run and statistics tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, q := range schema {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

const (
	insertRun = `INSERT INTO random_flight_runs (run_id, started_at, finished_at, trials, max_hops, airports)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (run_id) DO UPDATE SET finished_at = EXCLUDED.finished_at, airports = EXCLUDED.airports`

	upsertStats = `INSERT INTO random_flight_stats (run_id, airport, dead_ends, didnt_finish, returned, shortest, longest, average)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (run_id, airport) DO UPDATE SET
  dead_ends = EXCLUDED.dead_ends,
  didnt_finish = EXCLUDED.didnt_finish,
  returned = EXCLUDED.returned,
  shortest = EXCLUDED.shortest,
  longest = EXCLUDED.longest,
  average = EXCLUDED.average`
)

// SaveReport stores the run and every airport's statistics in one transaction.
// Absent shortest/longest/average are stored as NULL.
func SaveReport(ctx context.Context, db *sql.DB, run report.Run, r report.Report) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertRun, run.ID, run.StartedAt, run.FinishedAt, run.Trials, run.MaxHops, len(r)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, upsertStats)
	if err != nil {
		return fmt.Errorf("prepare stats: %w", err)
	}
	defer stmt.Close()
	for _, code := range r.Codes() {
		if _, err := stmt.ExecContext(ctx, StatsArgs(run.ID, code, r[code])...); err != nil {
			return fmt.Errorf("insert stats %s: %w", code, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// StatsArgs returns the positional arguments of the statistics upsert.
func StatsArgs(runID, airport string, s stats.Stats) []any {
	return []any{
		runID, airport, s.DeadEnds, s.DidNotFinish, s.Returned,
		nullInt(s.Shortest), nullInt(s.Longest), nullFloat(s.Average),
	}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
