// Package query defines the restricted target query language: a boolean
// combinator over match, term and range predicates, plus optional sort,
// pagination and aggregations. Its JSON form is the search index's _search
// body, identical in both directions.
package query

import (
	"encoding/json"
	"fmt"
	"sort"
)

// MaxPredicatesPerGroup caps each bool group.
const MaxPredicatesPerGroup = 32

// BoolClause combines predicates with must/should/must_not/filter semantics.
// Group order is insertion order and round-trips through JSON.
type BoolClause struct {
	must    []Predicate
	should  []Predicate
	mustNot []Predicate
	filter  []Predicate
}

// NewBoolClause validates and creates a BoolClause.
func NewBoolClause(must, should, mustNot, filter []Predicate) (BoolClause, error) {
	for _, g := range []struct {
		name  string
		preds []Predicate
	}{
		{"must", must}, {"should", should}, {"must_not", mustNot}, {"filter", filter},
	} {
		if len(g.preds) > MaxPredicatesPerGroup {
			return BoolClause{}, fmt.Errorf("too many %s predicates (max %d)", g.name, MaxPredicatesPerGroup)
		}
	}
	return BoolClause{must: must, should: should, mustNot: mustNot, filter: filter}, nil
}

// Must returns the must predicates.
func (c BoolClause) Must() []Predicate { return c.must }

// Should returns the should predicates.
func (c BoolClause) Should() []Predicate { return c.should }

// MustNot returns the must-not predicates.
func (c BoolClause) MustNot() []Predicate { return c.mustNot }

// Filter returns the filter predicates.
func (c BoolClause) Filter() []Predicate { return c.filter }

// IsEmpty reports whether the clause has no predicates.
func (c BoolClause) IsEmpty() bool {
	return len(c.must) == 0 && len(c.should) == 0 && len(c.mustNot) == 0 && len(c.filter) == 0
}

type boolClauseJSON struct {
	Must    []Predicate `json:"must,omitempty"`
	Should  []Predicate `json:"should,omitempty"`
	MustNot []Predicate `json:"must_not,omitempty"`
	Filter  []Predicate `json:"filter,omitempty"`
}

// MarshalJSON emits only non-empty groups.
func (c BoolClause) MarshalJSON() ([]byte, error) {
	return json.Marshal(boolClauseJSON{
		Must: c.must, Should: c.should, MustNot: c.mustNot, Filter: c.filter,
	})
}

// UnmarshalJSON parses the bool DSL object.
func (c *BoolClause) UnmarshalJSON(data []byte) error {
	var raw boolClauseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.must = raw.Must
	c.should = raw.Should
	c.mustNot = raw.MustNot
	c.filter = raw.Filter
	return nil
}

// SortOrder is a sort direction.
type SortOrder string

const (
	// Asc sorts ascending.
	Asc SortOrder = "asc"
	// Desc sorts descending.
	Desc SortOrder = "desc"
)

// Sort is one sort criterion.
type Sort struct {
	Field string
	Order SortOrder
}

// MarshalJSON emits {"<field>":{"order":"<order>"}}.
func (s Sort) MarshalJSON() ([]byte, error) {
	order := s.Order
	if order == "" {
		order = Asc
	}
	return json.Marshal(map[string]map[string]SortOrder{
		s.Field: {"order": order},
	})
}

// UnmarshalJSON accepts "<field>", {"<field>":"<order>"} and
// {"<field>":{"order":"<order>"}}.
func (s *Sort) UnmarshalJSON(data []byte) error {
	var field string
	if err := json.Unmarshal(data, &field); err == nil {
		*s = Sort{Field: field, Order: Asc}
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("sort entry must be a string or an object: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("sort entry must address exactly one field, got %d", len(obj))
	}
	for f, inner := range obj {
		var order SortOrder
		if err := json.Unmarshal(inner, &order); err != nil {
			var full struct {
				Order SortOrder `json:"order"`
			}
			if err := json.Unmarshal(inner, &full); err != nil {
				return fmt.Errorf("sort order for %q: %w", f, err)
			}
			order = full.Order
		}
		if order == "" {
			order = Asc
		}
		*s = Sort{Field: f, Order: order}
	}
	return nil
}

// Aggregation is a single named metric or bucket aggregation.
type Aggregation struct {
	Name   string
	Metric string // avg, min, max, sum, terms
	Field  string
}

// StructuredQuery is the compiler's validated output artifact. Optional
// members that are absent never appear in the serialized form.
type StructuredQuery struct {
	clause BoolClause
	sort   []Sort
	offset *int
	limit  *int
	aggs   []Aggregation
}

// New creates a query from a bool clause.
func New(clause BoolClause) *StructuredQuery {
	return &StructuredQuery{clause: clause}
}

// MatchAll returns the query that matches every document. It is the facade's
// degradation target and is deliberately trivial.
func MatchAll() *StructuredQuery {
	return &StructuredQuery{}
}

// WithSort appends sort criteria.
func (q *StructuredQuery) WithSort(s ...Sort) *StructuredQuery {
	q.sort = append(q.sort, s...)
	return q
}

// WithPage sets result pagination.
func (q *StructuredQuery) WithPage(offset, limit int) *StructuredQuery {
	q.offset = &offset
	q.limit = &limit
	return q
}

// WithAggregations appends aggregations.
func (q *StructuredQuery) WithAggregations(a ...Aggregation) *StructuredQuery {
	q.aggs = append(q.aggs, a...)
	return q
}

// Clause returns the bool clause.
func (q *StructuredQuery) Clause() BoolClause { return q.clause }

// SortCriteria returns the sort criteria.
func (q *StructuredQuery) SortCriteria() []Sort { return q.sort }

// Page returns offset and limit; ok is false when pagination is absent.
func (q *StructuredQuery) Page() (offset, limit int, ok bool) {
	if q.offset == nil && q.limit == nil {
		return 0, 0, false
	}
	if q.offset != nil {
		offset = *q.offset
	}
	if q.limit != nil {
		limit = *q.limit
	}
	return offset, limit, true
}

// Aggregations returns the aggregations.
func (q *StructuredQuery) Aggregations() []Aggregation { return q.aggs }

// IsMatchAll reports whether the query is the trivial match-everything query.
func (q *StructuredQuery) IsMatchAll() bool {
	return q.clause.IsEmpty() && len(q.sort) == 0 && len(q.aggs) == 0 &&
		q.offset == nil && q.limit == nil
}

// Prune normalizes the query in place: empty groups and empty optional
// sequences become absent so they cannot appear in the serialized form.
// Pruning is idempotent and runs after validation, never before.
func (q *StructuredQuery) Prune() *StructuredQuery {
	if len(q.clause.must) == 0 {
		q.clause.must = nil
	}
	if len(q.clause.should) == 0 {
		q.clause.should = nil
	}
	if len(q.clause.mustNot) == 0 {
		q.clause.mustNot = nil
	}
	if len(q.clause.filter) == 0 {
		q.clause.filter = nil
	}
	if len(q.sort) == 0 {
		q.sort = nil
	}
	if len(q.aggs) == 0 {
		q.aggs = nil
	}
	return q
}

type queryBodyJSON struct {
	Query json.RawMessage `json:"query"`
	Sort  []Sort          `json:"sort,omitempty"`
	From  *int            `json:"from,omitempty"`
	Size  *int            `json:"size,omitempty"`
	Aggs  json.RawMessage `json:"aggs,omitempty"`
}

// MarshalJSON emits the full _search body. An empty clause serializes as
// match_all so the index always receives a runnable query.
func (q StructuredQuery) MarshalJSON() ([]byte, error) {
	var inner []byte
	var err error
	if q.clause.IsEmpty() {
		inner = []byte(`{"match_all":{}}`)
	} else {
		var clause []byte
		clause, err = json.Marshal(q.clause)
		if err != nil {
			return nil, err
		}
		inner = append(append([]byte(`{"bool":`), clause...), '}')
	}

	body := queryBodyJSON{Query: inner, Sort: q.sort, From: q.offset, Size: q.limit}
	if len(q.aggs) > 0 {
		body.Aggs, err = marshalAggs(q.aggs)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(body)
}

// UnmarshalJSON parses a _search body.
func (q *StructuredQuery) UnmarshalJSON(data []byte) error {
	var body queryBodyJSON
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}

	*q = StructuredQuery{sort: body.Sort, offset: body.From, limit: body.Size}

	if len(body.Query) > 0 {
		var root map[string]json.RawMessage
		if err := json.Unmarshal(body.Query, &root); err != nil {
			return fmt.Errorf("query must be an object: %w", err)
		}
		if rawBool, ok := root["bool"]; ok {
			if err := json.Unmarshal(rawBool, &q.clause); err != nil {
				return err
			}
		} else if _, ok := root["match_all"]; !ok && len(root) > 0 {
			return fmt.Errorf("query root must be bool or match_all")
		}
	}

	if len(body.Aggs) > 0 {
		aggs, err := unmarshalAggs(body.Aggs)
		if err != nil {
			return err
		}
		q.aggs = aggs
	}
	return nil
}

func marshalAggs(aggs []Aggregation) (json.RawMessage, error) {
	out := make(map[string]map[string]map[string]string, len(aggs))
	for _, a := range aggs {
		out[a.Name] = map[string]map[string]string{
			a.Metric: {"field": a.Field},
		}
	}
	return json.Marshal(out)
}

func unmarshalAggs(data json.RawMessage) ([]Aggregation, error) {
	var raw map[string]map[string]struct {
		Field string `json:"field"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("aggs must map names to metric objects: %w", err)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	var aggs []Aggregation
	for _, name := range names {
		for metric, body := range raw[name] {
			aggs = append(aggs, Aggregation{Name: name, Metric: metric, Field: body.Field})
		}
	}
	return aggs, nil
}
