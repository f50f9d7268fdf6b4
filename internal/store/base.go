package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Dialect captures the per-engine SQL differences the base store needs.
type Dialect struct {
	// Name is the dialect name ("duckdb", "postgres", "sqlite").
	Name string
	// DefaultSchema is used when a table reference carries no schema.
	DefaultSchema string
	// Numbered selects $N placeholders instead of ?.
	Numbered bool
}

// Placeholder returns the parameter placeholder for position n (1-based).
func (d Dialect) Placeholder(n int) string {
	if d.Numbered {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// BaseSQLStore provides the shared database/sql plumbing for stores.
// Embed it in concrete implementations to get the standard Close, Fields,
// Exists, Insert, Update, and LookupRef behavior.
type BaseSQLStore struct {
	DB      *sql.DB
	Cfg     Config
	Logger  *slog.Logger
	Dialect Dialect
}

// Close closes the database connection.
func (b *BaseSQLStore) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing datastore connection")
		}
		return b.DB.Close()
	}
	return nil
}

// IsConnected reports whether the connection is established.
func (b *BaseSQLStore) IsConnected() bool {
	return b.DB != nil
}

// Ping verifies the connection is alive.
func (b *BaseSQLStore) Ping(ctx context.Context) error {
	if b.DB == nil {
		return errors.New("not connected")
	}
	return b.DB.PingContext(ctx)
}

// ParseQualifiedName splits a table reference into schema and name, falling
// back to the dialect's default schema.
func (b *BaseSQLStore) ParseQualifiedName(table string) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	if b.Cfg.Schema != "" {
		return b.Cfg.Schema, table
	}
	return b.Dialect.DefaultSchema, table
}

// Fields enumerates a table's columns via information_schema.
func (b *BaseSQLStore) Fields(ctx context.Context, table string) ([]Field, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("datastore connection not established")
	}

	schema, tableName := b.ParseQualifiedName(table)

	//nolint:gosec // Placeholders come from the dialect and are safe
	query := fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, b.Dialect.Placeholder(1), b.Dialect.Placeholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query field metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fields []Field
	for rows.Next() {
		var f Field
		var nullable string
		if err := rows.Scan(&f.Name, &f.Type, &nullable, &f.Position); err != nil {
			return nil, fmt.Errorf("failed to scan field metadata: %w", err)
		}
		f.Nullable = nullable == "YES"
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating field metadata: %w", err)
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return fields, nil
}

// Exists reports whether a record with the given id exists.
func (b *BaseSQLStore) Exists(ctx context.Context, table, id string) (bool, error) {
	if b.DB == nil {
		return false, fmt.Errorf("datastore connection not established")
	}

	//nolint:gosec // Identifiers are quoted; values go through placeholders
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = %s",
		QuoteIdent(table), QuoteIdent("id"), b.Dialect.Placeholder(1))

	var one int
	err := b.DB.QueryRowContext(ctx, query, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check record existence: %w", err)
	}
	return true, nil
}

// Insert writes a new record. Column order is sorted for determinism.
func (b *BaseSQLStore) Insert(ctx context.Context, table string, row map[string]string) error {
	if b.DB == nil {
		return fmt.Errorf("datastore connection not established")
	}
	if len(row) == 0 {
		return fmt.Errorf("empty record for table %s", table)
	}

	cols := sortedColumns(row)
	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = QuoteIdent(col)
		placeholders[i] = b.Dialect.Placeholder(i + 1)
		args[i] = row[col]
	}

	//nolint:gosec // Identifiers are quoted; values go through placeholders
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdent(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	if _, err := b.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

// Update rewrites the record with the given id; the record must exist.
func (b *BaseSQLStore) Update(ctx context.Context, table, id string, row map[string]string) error {
	if b.DB == nil {
		return fmt.Errorf("datastore connection not established")
	}
	if len(row) == 0 {
		return fmt.Errorf("empty record for table %s", table)
	}

	cols := sortedColumns(row)
	assignments := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		assignments[i] = fmt.Sprintf("%s = %s", QuoteIdent(col), b.Dialect.Placeholder(i+1))
		args = append(args, row[col])
	}
	args = append(args, id)

	//nolint:gosec // Identifiers are quoted; values go through placeholders
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		QuoteIdent(table), strings.Join(assignments, ", "),
		QuoteIdent("id"), b.Dialect.Placeholder(len(cols)+1))

	res, err := b.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return &RecordNotFoundError{Table: table, ID: id}
	}
	return nil
}

// LookupRef resolves a value to a record id by matching field.
func (b *BaseSQLStore) LookupRef(ctx context.Context, table, field, value string) (string, error) {
	if b.DB == nil {
		return "", fmt.Errorf("datastore connection not established")
	}

	//nolint:gosec // Identifiers are quoted; values go through placeholders
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		QuoteIdent("id"), QuoteIdent(table), QuoteIdent(field), b.Dialect.Placeholder(1))

	var id any
	err := b.DB.QueryRowContext(ctx, query, value).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &RefNotFoundError{Table: table, Field: field, Value: value}
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up %s.%s: %w", table, field, err)
	}

	switch v := id.(type) {
	case []byte:
		return string(v), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// QuoteIdent makes an identifier safe for interpolation into SQL.
// Qualified names are quoted part by part.
func QuoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

func sortedColumns(row map[string]string) []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
