// Package naming maps filesystem names onto datastore names. The mapping is
// an explicit strategy object so projects can replace the convention without
// touching the resolver or importer.
package naming

import (
	"path/filepath"
	"strings"
)

// Strategy turns filesystem names into datastore identifiers.
type Strategy interface {
	// Model maps a data file name (e.g. "Book.csv") to a model/table name.
	Model(filename string) string
	// Module maps a directory name to a module/namespace name.
	Module(dirname string) string
	// RefTable maps a reference column (e.g. "author_id") to the table the
	// reference points at.
	RefTable(column string) string
}

// Convention is the default strategy: lowercase base names, module names as
// written, and reference columns resolved by trimming a trailing "_id".
// Overrides win over the convention for both models and reference tables.
type Convention struct {
	// Overrides maps a file base name or reference column to an explicit
	// table name.
	Overrides map[string]string
}

// NewConvention creates the default strategy with optional overrides.
func NewConvention(overrides map[string]string) *Convention {
	return &Convention{Overrides: overrides}
}

// Model returns the table name for a data file.
func (c *Convention) Model(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if t, ok := c.Overrides[base]; ok {
		return t
	}
	return strings.ToLower(base)
}

// Module returns the module name for a directory.
func (c *Convention) Module(dirname string) string {
	return strings.ToLower(filepath.Base(dirname))
}

// RefTable returns the table a reference column points at.
func (c *Convention) RefTable(column string) string {
	if t, ok := c.Overrides[column]; ok {
		return t
	}
	return strings.ToLower(strings.TrimSuffix(column, "_id"))
}

var _ Strategy = (*Convention)(nil)
