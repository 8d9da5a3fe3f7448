// Package store persists the publish-run ledger.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/carecap/hospcap-cli/internal/config"
	"github.com/carecap/hospcap-cli/internal/model"
)

// Store defines the persistence interface for the publish ledger.
type Store interface {
	RecordRun(ctx context.Context, run *model.PublishRun) error
	ListRuns(ctx context.Context, limit int) ([]model.PublishRun, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured ledger driver.
func Open(ctx context.Context, cfg config.LedgerConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown ledger driver %q", cfg.Driver)
	}
}
