// Package sqlite provides a SQLite store for dock, using the pure-Go driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // sqlite driver (pure Go)

	"github.com/dockhouse/dock/internal/store"
)

func init() {
	store.Register("sqlite", func(logger *slog.Logger) store.Store { return New(logger) })
}

// Store implements store.Store for SQLite.
type Store struct {
	store.BaseSQLStore
}

// New creates a SQLite store instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		BaseSQLStore: store.BaseSQLStore{
			Logger:  logger,
			Dialect: store.Dialect{Name: "sqlite", DefaultSchema: "main"},
		},
	}
}

// DialectName returns the SQL dialect for this store.
func (s *Store) DialectName() string {
	return "sqlite"
}

// Connect opens the SQLite database.
// Use ":memory:" as the path for an in-memory database.
func (s *Store) Connect(ctx context.Context, cfg store.Config) error {
	path := cfg.Path
	if path == "" {
		path = cfg.Database
	}
	if path == "" {
		path = ":memory:"
	}

	s.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	return nil
}

// Fields enumerates a table's columns. SQLite has no information_schema, so
// the base implementation is replaced with PRAGMA table_info.
func (s *Store) Fields(ctx context.Context, table string) ([]store.Field, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("datastore connection not established")
	}

	//nolint:gosec // Identifier is quoted
	query := fmt.Sprintf("PRAGMA table_info(%s)", store.QuoteIdent(table))

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query field metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fields []store.Field
	for rows.Next() {
		var (
			cid        int
			name       string
			typ        string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan field metadata: %w", err)
		}
		fields = append(fields, store.Field{
			Name:     name,
			Type:     typ,
			Nullable: notNull == 0,
			Position: cid + 1,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating field metadata: %w", err)
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return fields, nil
}

var _ store.Store = (*Store)(nil)
