// Package duckdb provides a DuckDB store for dock.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/dockhouse/dock/internal/store"
)

func init() {
	store.Register("duckdb", func(logger *slog.Logger) store.Store { return New(logger) })
}

// Store implements store.Store for DuckDB.
type Store struct {
	store.BaseSQLStore
}

// New creates a DuckDB store instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		BaseSQLStore: store.BaseSQLStore{
			Logger:  logger,
			Dialect: store.Dialect{Name: "duckdb", DefaultSchema: "main"},
		},
	}
}

// DialectName returns the SQL dialect for this store.
func (s *Store) DialectName() string {
	return "duckdb"
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" as the path for an in-memory database.
func (s *Store) Connect(ctx context.Context, cfg store.Config) error {
	path := cfg.Path
	if path == "" {
		path = cfg.Database
	}

	s.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	return nil
}

var _ store.Store = (*Store)(nil)
