package loader

import (
	"errors"
	"fmt"

	"github.com/dd0wney/medgraph/pkg/backend"
)

// Sentinel errors for errors.Is checks
var (
	ErrParse               = errors.New("parse error")
	ErrMissingColumn       = errors.New("missing column")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrMissingEndpoint     = errors.New("missing endpoint")
)

// ParseError reports a field that is not a base-10 integer.
type ParseError struct {
	File   string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: column %s: invalid integer %q", e.File, e.Line, e.Column, e.Value)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// MissingColumnError reports a header without a required column.
type MissingColumnError struct {
	File   string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: header has no %s column", e.File, e.Column)
}

func (e *MissingColumnError) Unwrap() error {
	return ErrMissingColumn
}

// ConstraintViolation reports a node rejected by a uniqueness constraint.
type ConstraintViolation struct {
	File  string
	Line  int
	Label string
	ID    int64
	Err   error
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("%s:%d: %s with id %d violates uniqueness", e.File, e.Line, e.Label, e.ID)
}

func (e *ConstraintViolation) Unwrap() []error {
	return []error{ErrConstraintViolation, e.Err}
}

// MissingEndpointError reports a relationship row whose source or target
// does not exist. It is only returned in strict mode.
type MissingEndpointError struct {
	File string
	Line int
	Link backend.Link
}

func (e *MissingEndpointError) Error() string {
	return fmt.Sprintf("%s:%d: no endpoint for %s", e.File, e.Line, e.Link)
}

func (e *MissingEndpointError) Unwrap() error {
	return ErrMissingEndpoint
}
