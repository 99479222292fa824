package transform

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/finquery/internal/domain/query"
)

var (
	// ErrEmptyInput signals an empty or whitespace-only input query.
	ErrEmptyInput = errors.New("empty input")
	// ErrProviderFailure signals a model provider transport failure.
	ErrProviderFailure = errors.New("model provider failure")
	// ErrMalformed signals model output that does not parse as the expected shape.
	ErrMalformed = errors.New("malformed model output")
	// ErrSchemaViolation signals a parseable query that fails grammar validation.
	ErrSchemaViolation = errors.New("schema violation")
	// ErrEmptyOutput signals model output carrying neither answer nor query.
	ErrEmptyOutput = errors.New("empty model output")
)

// SchemaViolationError wraps ErrSchemaViolation with the full violation list,
// so recovered failures stay diagnosable without retrying.
type SchemaViolationError struct {
	Violations []query.Violation
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSchemaViolation.Error(), query.JoinViolations(e.Violations))
}

func (e *SchemaViolationError) Unwrap() error { return ErrSchemaViolation }

// NewSchemaViolation creates a schema violation error.
func NewSchemaViolation(violations []query.Violation) error {
	return &SchemaViolationError{Violations: violations}
}
