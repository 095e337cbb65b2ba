package dataset

import "fmt"

// ColumnError reports a required column absent from a table header.
type ColumnError struct {
	Source string
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s: missing required column %q", e.Source, e.Column)
}

// ValueError reports a cell that could not be decoded.
type ValueError struct {
	Source string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s:%d: column %q: invalid value %q: %v", e.Source, e.Line, e.Column, e.Value, e.Err)
}

func (e *ValueError) Unwrap() error { return e.Err }
