package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/carecap/hospcap-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "sqlite: create dir %s", dir)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS publish_runs (
	id                TEXT PRIMARY KEY,
	status            TEXT NOT NULL,
	started_at        DATETIME NOT NULL,
	finished_at       DATETIME NOT NULL,
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

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run *model.PublishRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO publish_runs
			(id, status, started_at, finished_at, base_facilities, overrides_applied,
			 new_facilities, config_digest, geojson_path, csv_path, shapefile_path, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Status, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.BaseFacilities, run.OverridesApplied, run.NewFacilities,
		run.ConfigDigest, run.GeoJSONPath, run.CSVPath, run.ShapefilePath, run.Error,
	)
	return eris.Wrap(err, "sqlite: insert publish run")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.PublishRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, started_at, finished_at, base_facilities, overrides_applied,
		        new_facilities, config_digest, geojson_path, csv_path, shapefile_path, error
		 FROM publish_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list publish runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.PublishRun
	for rows.Next() {
		var run model.PublishRun
		var started, finished time.Time
		if err := rows.Scan(&run.ID, &run.Status, &started, &finished,
			&run.BaseFacilities, &run.OverridesApplied, &run.NewFacilities,
			&run.ConfigDigest, &run.GeoJSONPath, &run.CSVPath, &run.ShapefilePath,
			&run.Error); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan publish run")
		}
		run.StartedAt = started
		run.FinishedAt = finished
		runs = append(runs, run)
	}

	return runs, eris.Wrap(rows.Err(), "sqlite: iterate publish runs")
}
