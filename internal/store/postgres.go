package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/carecap/hospcap-cli/internal/model"
)

// Querier is the subset of pgxpool.Pool the ledger needs. pgxmock satisfies
// it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Querier
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithQuerier wraps an existing pool-like connection. Used by
// tests to inject a mock.
func NewPostgresWithQuerier(q Querier) *PostgresStore {
	return &PostgresStore{pool: q}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS publish_runs (
	id                TEXT PRIMARY KEY,
	status            TEXT NOT NULL,
	started_at        TIMESTAMPTZ NOT NULL,
	finished_at       TIMESTAMPTZ NOT NULL,
	base_facilities   INTEGER NOT NULL DEFAULT 0,
	overrides_applied INTEGER NOT NULL DEFAULT 0,
	new_facilities    INTEGER NOT NULL DEFAULT 0,
	config_digest     TEXT,
	geojson_path      TEXT,
	csv_path          TEXT,
	shapefile_path    TEXT,
	error             TEXT
);

CREATE INDEX IF NOT EXISTS idx_publish_runs_started_at ON publish_runs(started_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) RecordRun(ctx context.Context, run *model.PublishRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO publish_runs
			(id, status, started_at, finished_at, base_facilities, overrides_applied,
			 new_facilities, config_digest, geojson_path, csv_path, shapefile_path, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		run.ID, run.Status, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.BaseFacilities, run.OverridesApplied, run.NewFacilities,
		run.ConfigDigest, run.GeoJSONPath, run.CSVPath, run.ShapefilePath, run.Error,
	)
	return eris.Wrap(err, "postgres: insert publish run")
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.PublishRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, status, started_at, finished_at, base_facilities, overrides_applied,
		        new_facilities, config_digest, geojson_path, csv_path, shapefile_path, error
		 FROM publish_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list publish runs")
	}
	defer rows.Close()

	var runs []model.PublishRun
	for rows.Next() {
		var run model.PublishRun
		if err := rows.Scan(&run.ID, &run.Status, &run.StartedAt, &run.FinishedAt,
			&run.BaseFacilities, &run.OverridesApplied, &run.NewFacilities,
			&run.ConfigDigest, &run.GeoJSONPath, &run.CSVPath, &run.ShapefilePath,
			&run.Error); err != nil {
			return nil, eris.Wrap(err, "postgres: scan publish run")
		}
		runs = append(runs, run)
	}

	return runs, eris.Wrap(rows.Err(), "postgres: iterate publish runs")
}
