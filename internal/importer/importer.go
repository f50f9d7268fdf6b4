// Package importer moves resolved plan entries into the datastore. It parses
// each CSV file, normalizes headers to column names, resolves reference
// columns, and persists rows one record at a time through the injected store.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dockhouse/dock/internal/naming"
	"github.com/dockhouse/dock/internal/resolver"
	"github.com/dockhouse/dock/internal/store"
)

// Options configures import behavior.
type Options struct {
	// LookupSeparator splits a CSV header into column and lookup field
	// (e.g. "author_id:name"). Defaults to ":".
	LookupSeparator string
	// LookupFields are tried in order when resolving a reference column
	// whose header names no explicit lookup field.
	LookupFields []string
	// OnFile, when set, receives the result of every attempted file.
	OnFile func(FileResult, error)
}

// FileResult is the outcome of loading one plan entry.
type FileResult struct {
	Path     string
	Model    string
	Rows     int
	Duration time.Duration
}

// Result summarizes a completed import.
type Result struct {
	Files []FileResult
	Rows  int
}

// Importer loads plan entries into a datastore.
type Importer struct {
	store        store.Store
	naming       naming.Strategy
	logger       *slog.Logger
	sep          string
	lookupFields []string
	onFile       func(FileResult, error)
}

// New creates an importer writing through st. The store is a required
// capability object; there is no process-wide default.
func New(st store.Store, strategy naming.Strategy, logger *slog.Logger, opts Options) *Importer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sep := opts.LookupSeparator
	if sep == "" {
		sep = ":"
	}
	fields := opts.LookupFields
	if len(fields) == 0 {
		fields = []string{"id", "name"}
	}
	return &Importer{
		store:        st,
		naming:       strategy,
		logger:       logger,
		sep:          sep,
		lookupFields: fields,
		onFile:       opts.OnFile,
	}
}

// Run loads every plan entry in order. The first failure aborts the run;
// prior writes stay (no cross-file transaction boundary).
func (im *Importer) Run(ctx context.Context, plan *resolver.Plan) (*Result, error) {
	result := &Result{}

	for _, mf := range plan.Entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		start := time.Now()
		rows, err := im.importFile(ctx, mf)
		fr := FileResult{Path: mf.Path, Model: mf.Model, Rows: rows, Duration: time.Since(start)}

		if im.onFile != nil {
			im.onFile(fr, err)
		}
		if err != nil {
			return result, err
		}

		im.logger.Debug("file imported", "path", mf.Path, "model", mf.Model, "rows", rows)
		result.Files = append(result.Files, fr)
		result.Rows += rows
	}

	return result, nil
}

// columnSpec is one parsed CSV header.
type columnSpec struct {
	column string // target column name
	lookup string // explicit lookup field, empty for plain columns
}

// importFile loads one file. Returns the number of rows written.
func (im *Importer) importFile(ctx context.Context, mf resolver.ModelFile) (int, error) {
	f, err := os.Open(mf.Path)
	if err != nil {
		return 0, &ImportFailure{Path: mf.Path, Model: mf.Model, Err: err}
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		// An empty file has nothing to load.
		return 0, nil
	}
	if err != nil {
		return 0, &ImportFailure{Path: mf.Path, Model: mf.Model, Err: err}
	}

	specs, err := im.parseHeader(ctx, mf, header)
	if err != nil {
		return 0, err
	}

	// rows counts written records; rowNum counts data rows as read, so a
	// failure names the offending row even after skipped empty lines.
	rows := 0
	rowNum := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			return rows, &ImportFailure{Path: mf.Path, Model: mf.Model, Row: rowNum, Err: err}
		}

		row, err := im.buildRow(ctx, specs, record)
		if err != nil {
			return rows, &ImportFailure{Path: mf.Path, Model: mf.Model, Row: rowNum, Err: err}
		}
		if len(row) == 0 {
			// Entirely empty line; nothing to save.
			continue
		}

		if err := im.saveRow(ctx, mf.Model, row); err != nil {
			return rows, &ImportFailure{Path: mf.Path, Model: mf.Model, Row: rowNum, Err: err}
		}
		rows++
	}

	return rows, nil
}

// parseHeader normalizes headers into column specs and checks every target
// column against the model's fields.
func (im *Importer) parseHeader(ctx context.Context, mf resolver.ModelFile, header []string) ([]columnSpec, error) {
	fields, err := im.store.Fields(ctx, mf.Model)
	if err != nil {
		return nil, &ImportFailure{Path: mf.Path, Model: mf.Model, Err: err}
	}
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.Name] = true
	}

	specs := make([]columnSpec, len(header))
	for i, h := range header {
		spec := columnSpec{column: normalizeHeader(h)}
		if before, after, found := strings.Cut(spec.column, im.sep); found {
			spec.column = before
			spec.lookup = after
		}
		if !known[spec.column] {
			return nil, &ImportFailure{
				Path:  mf.Path,
				Model: mf.Model,
				Err:   fmt.Errorf("column %q does not exist on model %s", spec.column, mf.Model),
			}
		}
		specs[i] = spec
	}
	return specs, nil
}

// buildRow converts one CSV record into a column map, dropping empty values
// and resolving reference columns to record ids.
func (im *Importer) buildRow(ctx context.Context, specs []columnSpec, record []string) (map[string]string, error) {
	row := make(map[string]string, len(record))
	for i, value := range record {
		if value == "" {
			continue
		}
		spec := specs[i]
		if spec.lookup != "" {
			id, err := im.resolveRef(ctx, spec, value)
			if err != nil {
				return nil, err
			}
			row[spec.column] = id
			continue
		}
		row[spec.column] = value
	}
	return row, nil
}

// resolveRef turns a human-readable reference value into a record id, trying
// the header's explicit lookup field first, then the configured fallbacks.
func (im *Importer) resolveRef(ctx context.Context, spec columnSpec, value string) (string, error) {
	table := im.naming.RefTable(spec.column)

	tried := make(map[string]bool)
	candidates := append([]string{spec.lookup}, im.lookupFields...)

	var lastErr error
	for _, field := range candidates {
		if field == "" || tried[field] {
			continue
		}
		tried[field] = true

		id, err := im.store.LookupRef(ctx, table, field, value)
		if err == nil {
			return id, nil
		}
		var notFound *store.RefNotFoundError
		if !errors.As(err, &notFound) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

// saveRow applies the id-based upsert convention: a row carrying an id
// updates that record (which must exist); otherwise a new record is inserted.
func (im *Importer) saveRow(ctx context.Context, model string, row map[string]string) error {
	id, hasID := row["id"]
	if !hasID {
		return im.store.Insert(ctx, model, row)
	}

	values := make(map[string]string, len(row)-1)
	for k, v := range row {
		if k != "id" {
			values[k] = v
		}
	}
	if len(values) == 0 {
		// Nothing to change; just require the record to exist.
		exists, err := im.store.Exists(ctx, model, id)
		if err != nil {
			return err
		}
		if !exists {
			return &store.RecordNotFoundError{Table: model, ID: id}
		}
		return nil
	}
	return im.store.Update(ctx, model, id, values)
}

// normalizeHeader lowercases a header and strips spaces, quotes, and hyphens.
// Underscores are valid column name characters and survive.
func normalizeHeader(h string) string {
	h = strings.ToLower(h)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '"', '\'', '-':
			return -1
		}
		return r
	}, h)
}
