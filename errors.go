package finquery

import (
	"errors"

	"github.com/kailas-cloud/finquery/internal/domain/transform"
)

// ErrNoIndex signals an operation that needs Elasticsearch on a client
// configured without it.
var ErrNoIndex = errors.New("finquery: elasticsearch not configured (use WithElasticsearch)")

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrProviderFailure = transform.ErrProviderFailure
	ErrMalformed       = transform.ErrMalformed
	ErrSchemaViolation = transform.ErrSchemaViolation
	ErrEmptyOutput     = transform.ErrEmptyOutput
)
