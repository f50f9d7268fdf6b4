// Package index reads per-directory manifest files. Each data directory
// carries an index file (index.json by default) whose "ordering" field lists
// the directory's children in the order their records must reach the
// datastore.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirectoryIndex is one directory's manifest.
type DirectoryIndex struct {
	// Dir is the directory the index belongs to.
	Dir string
	// Ordering lists child names in load order. Insertion order is
	// significant: it defines the load sequence for the directory.
	Ordering []string
}

// rawIndex mirrors the on-disk JSON shape. Ordering is kept as raw JSON so a
// wrong type produces a MalformedIndexError instead of a bare decode error.
type rawIndex struct {
	Ordering json.RawMessage `json:"ordering"`
}

// Loader reads index files by a fixed per-directory filename.
type Loader struct {
	filename string
}

// NewLoader creates a loader for the given index filename (e.g. "index.json").
func NewLoader(filename string) *Loader {
	return &Loader{filename: filename}
}

// Filename returns the index filename this loader looks for.
func (l *Loader) Filename() string {
	return l.filename
}

// Exists reports whether dir carries an index file.
func (l *Loader) Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, l.filename))
	return err == nil
}

// Load reads and validates the index file of dir.
// A missing file yields a MissingIndexError; unreadable JSON, a non-string
// ordering, empty entries, duplicates, or entries that escape the directory
// yield a MalformedIndexError.
func (l *Loader) Load(dir string) (*DirectoryIndex, error) {
	path := filepath.Join(dir, l.filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingIndexError{Dir: dir, Filename: l.filename}
		}
		return nil, fmt.Errorf("failed to read index %s: %w", path, err)
	}

	var raw rawIndex
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &MalformedIndexError{Path: path, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if raw.Ordering == nil {
		return nil, &MalformedIndexError{Path: path, Reason: `missing "ordering" field`}
	}

	var ordering []string
	if err := json.Unmarshal(raw.Ordering, &ordering); err != nil {
		return nil, &MalformedIndexError{Path: path, Reason: `"ordering" must be a sequence of strings`}
	}

	seen := make(map[string]bool, len(ordering))
	for _, entry := range ordering {
		if entry == "" {
			return nil, &MalformedIndexError{Path: path, Reason: "ordering contains an empty entry"}
		}
		if strings.ContainsAny(entry, `/\`) || entry == ".." || strings.HasPrefix(entry, "../") {
			// Ordering is scoped to the directory's own children; references
			// into other modules are rejected.
			return nil, &MalformedIndexError{Path: path, Reason: fmt.Sprintf("entry %q escapes the directory", entry)}
		}
		if seen[entry] {
			return nil, &MalformedIndexError{Path: path, Reason: fmt.Sprintf("duplicate entry %q", entry)}
		}
		seen[entry] = true
	}

	return &DirectoryIndex{Dir: dir, Ordering: ordering}, nil
}
