package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/finquery/internal/domain/query"
	"github.com/kailas-cloud/finquery/internal/domain/result"
)

// Response is the outcome of one search request. Either Answer is set and
// the index was never consulted, or Query holds the executed structured
// query together with its hits.
type Response struct {
	Answer   string
	Answered bool
	Query    *query.StructuredQuery
	Hits     []result.Hit
}

// Service turns natural language into index results.
type Service struct {
	transformer Transformer
	index       Index
}

// New creates a search service.
func New(transformer Transformer, index Index) *Service {
	return &Service{transformer: transformer, index: index}
}

// Search transforms the input and, when the transform yields a structured
// query, executes it against the index. Direct answers skip the index.
func (s *Service) Search(ctx context.Context, input string) (Response, error) {
	res := s.transformer.Transform(ctx, input)

	if !res.IsSearch() {
		return Response{Answer: res.Answer(), Answered: true}, nil
	}

	q := res.Query()

	hits, err := s.index.Search(ctx, q)
	if err != nil {
		return Response{}, fmt.Errorf("execute search: %w", err)
	}

	return Response{Answer: res.Answer(), Query: q, Hits: hits}, nil
}
