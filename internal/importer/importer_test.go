package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockhouse/dock/internal/naming"
	"github.com/dockhouse/dock/internal/resolver"
	"github.com/dockhouse/dock/internal/store"
)

// fakeStore records writes in memory and serves canned fields and refs.
type fakeStore struct {
	fields  map[string][]store.Field
	refs    map[string]string // "table/field/value" -> id
	records map[string]bool   // "table/id"
	inserts []map[string]string
	updates []map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		fields:  make(map[string][]store.Field),
		refs:    make(map[string]string),
		records: make(map[string]bool),
	}
}

func (s *fakeStore) setFields(table string, names ...string) {
	for _, n := range names {
		s.fields[table] = append(s.fields[table], store.Field{Name: n, Type: "text"})
	}
}

func (s *fakeStore) Connect(ctx context.Context, cfg store.Config) error { return nil }
func (s *fakeStore) Close() error                                        { return nil }
func (s *fakeStore) Ping(ctx context.Context) error                      { return nil }
func (s *fakeStore) DialectName() string                                 { return "fake" }

func (s *fakeStore) Fields(ctx context.Context, table string) ([]store.Field, error) {
	fields, ok := s.fields[table]
	if !ok {
		return nil, fmt.Errorf("no such table %s", table)
	}
	return fields, nil
}

func (s *fakeStore) Exists(ctx context.Context, table, id string) (bool, error) {
	return s.records[table+"/"+id], nil
}

func (s *fakeStore) Insert(ctx context.Context, table string, values map[string]string) error {
	row := map[string]string{"_table": table}
	for k, v := range values {
		row[k] = v
	}
	s.inserts = append(s.inserts, row)
	return nil
}

func (s *fakeStore) Update(ctx context.Context, table, id string, values map[string]string) error {
	if !s.records[table+"/"+id] {
		return &store.RecordNotFoundError{Table: table, ID: id}
	}
	row := map[string]string{"_table": table, "id": id}
	for k, v := range values {
		row[k] = v
	}
	s.updates = append(s.updates, row)
	return nil
}

func (s *fakeStore) LookupRef(ctx context.Context, table, field, value string) (string, error) {
	if id, ok := s.refs[table+"/"+field+"/"+value]; ok {
		return id, nil
	}
	return "", &store.RefNotFoundError{Table: table, Field: field, Value: value}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func planFor(path, model string) *resolver.Plan {
	return &resolver.Plan{
		Entries: []resolver.ModelFile{{Path: path, Rel: filepath.Base(path), Model: model}},
	}
}

func newImporter(s store.Store, opts Options) *Importer {
	return New(s, naming.NewConvention(nil), slog.New(slog.DiscardHandler), opts)
}

func TestRunInsertsRows(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "book.csv", "title,pages\nDune,412\nHyperion,482\n")

	s := newFakeStore()
	s.setFields("book", "id", "title", "pages")

	result, err := newImporter(s, Options{}).Run(context.Background(), planFor(path, "book"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Rows)
	require.Len(t, s.inserts, 2)
	assert.Equal(t, "Dune", s.inserts[0]["title"])
	assert.Equal(t, "412", s.inserts[0]["pages"])
	assert.Empty(t, s.updates)
}

func TestRunNormalizesHeaders(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "book.csv", "Book Title,\"page-count\"\nDune,412\n")

	s := newFakeStore()
	s.setFields("book", "id", "booktitle", "pagecount")

	_, err := newImporter(s, Options{}).Run(context.Background(), planFor(path, "book"))
	require.NoError(t, err)

	require.Len(t, s.inserts, 1)
	assert.Equal(t, "Dune", s.inserts[0]["booktitle"])
	assert.Equal(t, "412", s.inserts[0]["pagecount"])
}

func TestRunDropsEmptyValues(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "book.csv", "title,pages\nDune,\n")

	s := newFakeStore()
	s.setFields("book", "id", "title", "pages")

	_, err := newImporter(s, Options{}).Run(context.Background(), planFor(path, "book"))
	require.NoError(t, err)

	require.Len(t, s.inserts, 1)
	_, ok := s.inserts[0]["pages"]
	assert.False(t, ok, "empty cell should not reach the store")
}

func TestRunSkipsFullyEmptyRows(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "book.csv", "title,pages\n,\nDune,412\n")

	s := newFakeStore()
	s.setFields("book", "id", "title", "pages")

	result, err := newImporter(s, Options{}).Run(context.Background(), planFor(path, "book"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)
	assert.Len(t, s.inserts, 1)
}

func TestRunUpdatesRowsWithID(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "book.csv", "id,title\n7,Dune Messiah\n")

	s := newFakeStore()
	s.setFields("book", "id", "title")
	s.records["book/7"] = true

	_, err := newImporter(s, Options{}).Run(context.Background(), planFor(path, "book"))
	require.NoError(t, err)

	assert.Empty(t, s.inserts)
	require.Len(t, s.updates, 1)
	assert.Equal(t, "7", s.updates[0]["id"])
	assert.Equal(t, "Dune Messiah", s.updates[0]["title"])
}

func TestRunUpdateMissingRecordFails(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "book.csv", "id,title\n99,Ghost\n")

	s := newFakeStore()
	s.setFields("book", "id", "title")

	_, err := newImporter(s, Options{}).Run(context.Background(), planFor(path, "book"))
	require.Error(t, err)

	var failure *ImportFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, path, failure.Path)
	assert.Equal(t, 1, failure.Row)

	var notFound *store.RecordNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestRunResolvesReferences(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "book.csv", "title,author_id:name\nDune,Frank Herbert\n")

	s := newFakeStore()
	s.setFields("book", "id", "title", "author_id")
	s.refs["author/name/Frank Herbert"] = "42"

	_, err := newImporter(s, Options{}).Run(context.Background(), planFor(path, "book"))
	require.NoError(t, err)

	require.Len(t, s.inserts, 1)
	assert.Equal(t, "42", s.inserts[0]["author_id"])
}

func TestRunReferenceFallbackFields(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "book.csv", "title,author_id:slug\nDune,frank-herbert\n")

	s := newFakeStore()
	s.setFields("book", "id", "title", "author_id")
	// Not under "slug"; only resolvable through the configured fallback.
	s.refs["author/name/frank-herbert"] = "42"

	imp := newImporter(s, Options{LookupFields: []string{"name"}})
	_, err := imp.Run(context.Background(), planFor(path, "book"))
	require.NoError(t, err)

	require.Len(t, s.inserts, 1)
	assert.Equal(t, "42", s.inserts[0]["author_id"])
}

func TestRunReferenceNotFound(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "book.csv", "title,author_id:name\nDune,Nobody\n")

	s := newFakeStore()
	s.setFields("book", "id", "title", "author_id")

	_, err := newImporter(s, Options{}).Run(context.Background(), planFor(path, "book"))
	require.Error(t, err)

	var notFound *store.RefNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "author", notFound.Table)
}

func TestRunFailureRowNumberCountsSkippedRows(t *testing.T) {
	dir := t.TempDir()
	// Row 2 is entirely empty and skipped; the bad reference is on row 3 and
	// must be reported as row 3, not shifted by the skip.
	path := writeFile(t, dir, "book.csv", "title,author_id:name\nDune,Frank Herbert\n,\nGhost,Nobody\n")

	s := newFakeStore()
	s.setFields("book", "id", "title", "author_id")
	s.refs["author/name/Frank Herbert"] = "42"

	_, err := newImporter(s, Options{}).Run(context.Background(), planFor(path, "book"))
	require.Error(t, err)

	var failure *ImportFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 3, failure.Row)
	assert.Len(t, s.inserts, 1, "the first row landed before the failure")
}

func TestRunUnknownColumnFails(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "book.csv", "title,color\nDune,orange\n")

	s := newFakeStore()
	s.setFields("book", "id", "title")

	_, err := newImporter(s, Options{}).Run(context.Background(), planFor(path, "book"))
	require.Error(t, err)

	var failure *ImportFailure
	require.ErrorAs(t, err, &failure)
	assert.Contains(t, failure.Error(), "color")
	assert.Zero(t, failure.Row)
}

func TestRunEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "book.csv", "")

	s := newFakeStore()
	s.setFields("book", "id", "title")

	result, err := newImporter(s, Options{}).Run(context.Background(), planFor(path, "book"))
	require.NoError(t, err)
	assert.Zero(t, result.Rows)
}

func TestRunStopsOnFirstFailure(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "author.csv", "name\nFrank Herbert\n")
	bad := writeFile(t, dir, "book.csv", "title,color\nDune,orange\n")

	s := newFakeStore()
	s.setFields("author", "id", "name")
	s.setFields("book", "id", "title")

	plan := &resolver.Plan{Entries: []resolver.ModelFile{
		{Path: good, Rel: "author.csv", Model: "author"},
		{Path: bad, Rel: "book.csv", Model: "book"},
	}}

	var seen []string
	var failed []bool
	imp := newImporter(s, Options{OnFile: func(fr FileResult, err error) {
		seen = append(seen, fr.Model)
		failed = append(failed, err != nil)
	}})

	result, err := imp.Run(context.Background(), plan)
	require.Error(t, err)

	// The first file landed before the second one failed.
	assert.Len(t, s.inserts, 1)
	assert.Equal(t, 1, result.Rows)
	assert.Equal(t, []string{"author", "book"}, seen)
	assert.Equal(t, []bool{false, true}, failed)
}

func TestRunHonorsContextCancellation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "book.csv", "title\nDune\n")

	s := newFakeStore()
	s.setFields("book", "id", "title")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newImporter(s, Options{}).Run(ctx, planFor(path, "book"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.inserts)
}

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		"Title":         "title",
		"Book Title":    "booktitle",
		"page-count":    "pagecount",
		"'quoted'":      "quoted",
		`"also quoted"`: "alsoquoted",
		"snake_case":    "snake_case",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeHeader(in), "input %q", in)
	}
}

func TestImportFailureMessage(t *testing.T) {
	err := &ImportFailure{Path: "data/book.csv", Model: "book", Row: 3, Err: errors.New("boom")}
	assert.Contains(t, err.Error(), "data/book.csv")
	assert.Contains(t, err.Error(), "row 3")

	headerErr := &ImportFailure{Path: "data/book.csv", Model: "book", Err: errors.New("boom")}
	assert.NotContains(t, headerErr.Error(), "row")
}
