// Package transform defines the compiler's output contract: a result that is
// either a direct natural-language answer or an explanation plus a structured
// query, never both and never neither.
package transform

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/finquery/internal/domain/query"
)

// Result is the compiler's sole output artifact.
type Result struct {
	answer string
	query  *query.StructuredQuery
}

// NewAnswer creates an answer-only result.
func NewAnswer(text string) (Result, error) {
	if text == "" {
		return Result{}, fmt.Errorf("answer text is required")
	}
	return Result{answer: text}, nil
}

// NewSearch creates a search result. The explanation text may be empty; the
// query may not.
func NewSearch(explanation string, q *query.StructuredQuery) (Result, error) {
	if q == nil {
		return Result{}, fmt.Errorf("structured query is required")
	}
	return Result{answer: explanation, query: q}, nil
}

// IsSearch reports whether the result carries a query.
func (r Result) IsSearch() bool { return r.query != nil }

// Answer returns the answer or explanation text.
func (r Result) Answer() string { return r.answer }

// Query returns the structured query, nil for answer-only results.
func (r Result) Query() *query.StructuredQuery { return r.query }

// IsFallback reports whether the result is the facade's match-all degradation:
// a search with no explanation and a trivial query.
func (r Result) IsFallback() bool {
	return r.query != nil && r.answer == "" && r.query.IsMatchAll()
}

type resultJSON struct {
	Answer string                 `json:"answer,omitempty"`
	Query  *query.StructuredQuery `json:"query,omitempty"`
}

// MarshalJSON serializes the result for caching and transport.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{Answer: r.answer, Query: r.query})
}

// UnmarshalJSON restores a result, enforcing the exactly-one-variant
// invariant.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw resultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Query == nil && raw.Answer == "" {
		return fmt.Errorf("result carries neither answer nor query")
	}
	r.answer = raw.Answer
	r.query = raw.Query
	return nil
}
