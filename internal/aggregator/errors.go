package aggregator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSchema = errors.New("schema error")
	ErrParse  = errors.New("parse error")
)

// SchemaError reports the expected columns absent from an input table.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: missing columns %s", ErrSchema, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// ParseError reports a cell that does not match its column's format. Row is
// the 1-based data row, not counting the header.
type ParseError struct {
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%v: column %s row %d: invalid value %q", ErrParse, e.Column, e.Row, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}
