package search

import (
	"context"

	"github.com/kailas-cloud/finquery/internal/domain/query"
	"github.com/kailas-cloud/finquery/internal/domain/result"
	"github.com/kailas-cloud/finquery/internal/domain/transform"
)

// Transformer compiles natural language into a search query or direct answer.
type Transformer interface {
	Transform(ctx context.Context, input string) transform.Result
}

// Index executes structured queries against the stock index.
type Index interface {
	Search(ctx context.Context, q *query.StructuredQuery) ([]result.Hit, error)
}
