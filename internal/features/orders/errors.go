package orders

import (
	"fmt"
)

type ParseErrorKind string

const (
	// ParseEmpty: no header, or a header with no data rows.
	ParseEmpty ParseErrorKind = "empty"
	// ParseSchema: a column the run needs is missing from the header.
	ParseSchema ParseErrorKind = "schema"
	// ParseField: a field failed to decode under the abort policy.
	ParseField ParseErrorKind = "field"
)

type ParseError struct {
	Kind   ParseErrorKind
	Line   int    // 1-based source line, 0 when not tied to a line
	Column string // offending column(s), if any
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("parse %s: line %d, column %q: %v", e.Kind, e.Line, e.Column, e.Err)
	case e.Column != "":
		return fmt.Sprintf("parse %s: column %s: %v", e.Kind, e.Column, e.Err)
	default:
		return fmt.Sprintf("parse %s: %v", e.Kind, e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

type FieldErrorKind string

const (
	FieldMissing FieldErrorKind = "missing" // absent or blank
	FieldInvalid FieldErrorKind = "invalid" // present but not parseable
)

// FieldError records one field of one row that did not decode.
type FieldError struct {
	Line   int
	Column string
	Kind   FieldErrorKind
	Raw    string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Kind == FieldMissing {
		return fmt.Sprintf("line %d: %s is missing", e.Line, e.Column)
	}
	return fmt.Sprintf("line %d: %s %q is invalid: %v", e.Line, e.Column, e.Raw, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }
