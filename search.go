package finquery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/finquery/internal/domain/result"
)

// Result is the outcome of compiling one natural-language query.
// Either the model answered directly, or Query holds an Elasticsearch
// _search body ready to execute.
type Result struct {
	Answer   string          // direct answer, or explanation for a search
	Answered bool            // true when no search is needed
	Query    json.RawMessage // _search body, nil for answers
}

// Hit is one ranked document from the index.
type Hit struct {
	Score  float64
	Fields map[string]any
}

// SearchResult bundles a compiled query with its executed hits.
type SearchResult struct {
	Answer   string
	Answered bool
	Query    json.RawMessage
	Hits     []Hit
}

// Transform compiles a natural-language query without executing it.
// Compilation never fails: unanswerable input degrades to a match-all
// query, observable via an empty Answer on a match-all body.
func (c *Client) Transform(ctx context.Context, input string) (Result, error) {
	res := c.transformer.Transform(ctx, input)
	if !res.IsSearch() {
		return Result{Answer: res.Answer(), Answered: true}, nil
	}

	body, err := json.Marshal(res.Query())
	if err != nil {
		return Result{}, fmt.Errorf("transform: encode query: %w", err)
	}
	return Result{Answer: res.Answer(), Query: body}, nil
}

// Search compiles a natural-language query and executes it against the
// index. Direct answers skip execution.
func (c *Client) Search(ctx context.Context, input string) (SearchResult, error) {
	if c.searchSvc == nil {
		return SearchResult{}, ErrNoIndex
	}

	resp, err := c.searchSvc.Search(ctx, input)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search: %w", err)
	}

	out := SearchResult{
		Answer:   resp.Answer,
		Answered: resp.Answered,
		Hits:     fromHits(resp.Hits),
	}
	if resp.Query != nil {
		body, err := json.Marshal(resp.Query)
		if err != nil {
			return SearchResult{}, fmt.Errorf("search: encode query: %w", err)
		}
		out.Query = body
	}
	return out, nil
}

func fromHits(hits []result.Hit) []Hit {
	if len(hits) == 0 {
		return nil
	}
	out := make([]Hit, len(hits))
	for i, h := range hits {
		out[i] = Hit{Score: h.Score, Fields: h.Fields}
	}
	return out
}

// DecodeHits maps hit fields onto a typed struct via its json tags.
func DecodeHits[T any](hits []Hit) ([]T, error) {
	out := make([]T, len(hits))
	for i, h := range hits {
		raw, err := json.Marshal(h.Fields)
		if err != nil {
			return nil, fmt.Errorf("decode hit %d: %w", i, err)
		}
		if err := json.Unmarshal(raw, &out[i]); err != nil {
			return nil, fmt.Errorf("decode hit %d: %w", i, err)
		}
	}
	return out, nil
}
