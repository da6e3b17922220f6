package core

import (
	"errors"
	"fmt"
)

var (
	// ErrSource matches any *SourceError via errors.Is.
	ErrSource = errors.New("source error")
	// ErrSchema matches any *SchemaError via errors.Is.
	ErrSchema = errors.New("schema error")
)

// SourceError reports that the input could not be read: missing file,
// I/O failure or malformed CSV structure.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("read source: %v", e.Err)
	}
	return fmt.Sprintf("read source %q: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool { return target == ErrSource }

// SchemaError reports a missing required column or a cell that cannot be
// interpreted as its column's type. Line is the 1-based CSV line, zero for
// header problems.
type SchemaError struct {
	Column string
	Line   int
	Value  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("line %d, column %q: %s (value %q)", e.Line, e.Column, e.Reason, e.Value)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }
