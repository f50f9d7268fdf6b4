package index

import "fmt"

// MissingIndexError is returned when a directory that needs an index has none.
type MissingIndexError struct {
	Dir      string
	Filename string
}

func (e *MissingIndexError) Error() string {
	return fmt.Sprintf("directory %s has no %s index file", e.Dir, e.Filename)
}

// MalformedIndexError is returned when an index file cannot be interpreted.
type MalformedIndexError struct {
	Path   string
	Reason string
}

func (e *MalformedIndexError) Error() string {
	return fmt.Sprintf("malformed index %s: %s", e.Path, e.Reason)
}
