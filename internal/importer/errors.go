package importer

import "fmt"

// ImportFailure reports a write or parse failure for one file. Row is the
// 1-based data row number, 0 when the failure is not row-specific.
type ImportFailure struct {
	Path  string
	Model string
	Row   int
	Err   error
}

func (e *ImportFailure) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("import %s (model %s) row %d: %v", e.Path, e.Model, e.Row, e.Err)
	}
	return fmt.Sprintf("import %s (model %s): %v", e.Path, e.Model, e.Err)
}

func (e *ImportFailure) Unwrap() error {
	return e.Err
}
