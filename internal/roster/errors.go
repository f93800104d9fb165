package roster

import (
	"errors"
	"fmt"
)

var (
	// ErrInputNotFound marks an input file that does not exist or cannot be read.
	ErrInputNotFound = errors.New("input not found")

	// ErrMissingColumn marks an input without a required name column. The
	// concrete error is a *ColumnError.
	ErrMissingColumn = errors.New("missing required column")

	// ErrMalformedCSV marks an input that is not valid CSV, or has a data row
	// wider than its header.
	ErrMalformedCSV = errors.New("malformed csv")

	// ErrOutputWrite marks a failure to create the output directory or write
	// the output file.
	ErrOutputWrite = errors.New("output write failed")
)

// ColumnError names the required column that is absent and the input it is
// absent from.
type ColumnError struct {
	Source string
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s: %s %q", e.Source, ErrMissingColumn, e.Column)
}

// Is lets errors.Is(err, ErrMissingColumn) match.
func (e *ColumnError) Is(target error) bool { return target == ErrMissingColumn }
