// Package store defines the datastore capability boundary the importer
// writes through, plus a registry of self-registering SQL implementations.
// The importer never talks to a database driver directly; it receives a
// Store at construction time.
package store

import (
	"context"
	"fmt"
)

// Config holds the configuration for connecting to a datastore.
type Config struct {
	// Type selects a registered store implementation (e.g. "duckdb",
	// "postgres", "sqlite").
	Type string

	// Path is the file path for file-based stores. Use ":memory:" for an
	// in-memory database.
	Path string

	// Host is the hostname for network-based stores.
	Host string

	// Port is the port number for network-based stores.
	Port int

	// Database is the database name.
	Database string

	// Schema is the default schema to use.
	Schema string

	// Username for authentication.
	Username string

	// Password for authentication.
	Password string

	// Options contains additional driver-specific options.
	Options map[string]string
}

// Field describes one column of a model's table.
type Field struct {
	// Name is the column name
	Name string
	// Type is the column's data type
	Type string
	// Nullable indicates whether the column allows NULL values
	Nullable bool
	// Position is the ordinal position of the column in the table
	Position int
}

// Store is the capability set the importer needs from a datastore:
// enumerate a model's fields, persist records, and resolve references.
type Store interface {
	// Connect establishes the connection described by cfg.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error

	// Fields enumerates the columns of a model's table.
	Fields(ctx context.Context, table string) ([]Field, error)

	// Exists reports whether a record with the given id exists.
	Exists(ctx context.Context, table, id string) (bool, error)

	// Insert writes a new record.
	Insert(ctx context.Context, table string, row map[string]string) error

	// Update rewrites the record with the given id. The record must exist.
	Update(ctx context.Context, table, id string, row map[string]string) error

	// LookupRef resolves a value to a record id by matching field, for
	// foreign-key columns expressed as human-readable values.
	LookupRef(ctx context.Context, table, field, value string) (string, error)

	// DialectName returns the SQL dialect name for this store.
	DialectName() string
}

// UnknownStoreError is returned when an unregistered store type is requested.
type UnknownStoreError struct {
	Type      string
	Available []string
}

func (e *UnknownStoreError) Error() string {
	return fmt.Sprintf("unknown store type %q\nAvailable stores: %v\nHint: check target.type in dock.yaml", e.Type, e.Available)
}

// RefNotFoundError is returned when LookupRef matches no record.
type RefNotFoundError struct {
	Table string
	Field string
	Value string
}

func (e *RefNotFoundError) Error() string {
	return fmt.Sprintf("no %s record with %s = %q", e.Table, e.Field, e.Value)
}

// RecordNotFoundError is returned when Update targets a missing record.
type RecordNotFoundError struct {
	Table string
	ID    string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("no %s record with id %q", e.Table, e.ID)
}
