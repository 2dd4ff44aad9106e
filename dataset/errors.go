package dataset

import "fmt"

// ParseError reports a source that is not valid comma-separated tabular data.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("dataset: parse: %v", e.Err)
	}
	return fmt.Sprintf("dataset: parse %q: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingColumnError reports a required column absent from a table.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("dataset: missing required column %q", e.Column)
}
