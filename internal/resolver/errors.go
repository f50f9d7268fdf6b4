package resolver

import (
	"fmt"
	"strings"
)

// CycleError is returned when resolution would enter a directory that is
// already being resolved (symlink loops, aliased paths).
type CycleError struct {
	Dir   string
	Stack []string
}

func (e *CycleError) Error() string {
	if len(e.Stack) > 0 {
		return fmt.Sprintf("load order cycle at %s: %s", e.Dir, strings.Join(e.Stack, " -> "))
	}
	return fmt.Sprintf("load order cycle at %s", e.Dir)
}

// OrphanFileError is returned when a loadable file (or a directory containing
// loadable files) exists but is not named in its parent's ordering.
type OrphanFileError struct {
	Path  string
	IsDir bool
}

func (e *OrphanFileError) Error() string {
	if e.IsDir {
		return fmt.Sprintf("directory %s contains data files but is not listed in its parent's ordering", e.Path)
	}
	return fmt.Sprintf("file %s is not listed in its directory's ordering", e.Path)
}
