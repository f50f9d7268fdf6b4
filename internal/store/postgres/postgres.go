// Package postgres provides a PostgreSQL store for dock.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/dockhouse/dock/internal/store"
)

func init() {
	store.Register("postgres", func(logger *slog.Logger) store.Store { return New(logger) })
}

// Store implements store.Store for PostgreSQL.
type Store struct {
	store.BaseSQLStore
}

// New creates a PostgreSQL store instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		BaseSQLStore: store.BaseSQLStore{
			Logger:  logger,
			Dialect: store.Dialect{Name: "postgres", DefaultSchema: "public", Numbered: true},
		},
	}
}

// DialectName returns the SQL dialect for this store.
func (s *Store) DialectName() string {
	return "postgres"
}

// Connect establishes a connection to PostgreSQL.
func (s *Store) Connect(ctx context.Context, cfg store.Config) error {
	dsn := buildDSN(cfg)

	s.Logger.Debug("connecting to postgres",
		slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	return nil
}

// buildDSN constructs a PostgreSQL connection string in key=value form.
func buildDSN(cfg store.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if cfg.Options != nil {
		if mode, ok := cfg.Options["sslmode"]; ok {
			sslmode = mode
		}
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	return dsn
}

var _ store.Store = (*Store)(nil)
