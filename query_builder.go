package finquery

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/finquery/internal/domain/query"
	"github.com/kailas-cloud/finquery/internal/domain/transform"
)

// Sort orders.
const (
	Asc  = "asc"
	Desc = "desc"
)

// Range bounds one side-open or closed numeric or date interval.
// Numeric bounds take float64 or int; date bounds take a string.
type Range struct {
	GT  any
	GTE any
	LT  any
	LTE any
}

// QueryBuilder assembles a structured query directly, skipping the model.
// Fields and values are validated against the stocks schema on Do.
type QueryBuilder struct {
	c *Client

	filter  []query.Predicate
	mustNot []query.Predicate
	sort    []query.Sort

	from, size int
	paged      bool

	errs []error
}

// Query starts a direct query against the index.
func (c *Client) Query() *QueryBuilder {
	return &QueryBuilder{c: c}
}

// Term adds an exact-match filter on a keyword field.
func (b *QueryBuilder) Term(field, value string) *QueryBuilder {
	p, err := query.NewTerm(field, value)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.filter = append(b.filter, p)
	return b
}

// Match adds a full-text filter on a text field.
func (b *QueryBuilder) Match(field, text string) *QueryBuilder {
	p, err := query.NewMatch(field, text)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.filter = append(b.filter, p)
	return b
}

// Not excludes documents matching an exact value.
func (b *QueryBuilder) Not(field, value string) *QueryBuilder {
	p, err := query.NewTerm(field, value)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.mustNot = append(b.mustNot, p)
	return b
}

// Range adds an interval filter on a numeric or date field.
func (b *QueryBuilder) Range(field string, r Range) *QueryBuilder {
	p, err := rangePredicate(field, r)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("range %q: %w", field, err))
		return b
	}
	b.filter = append(b.filter, p)
	return b
}

func rangePredicate(field string, r Range) (query.Predicate, error) {
	var bvs [4]*query.BoundValue
	for i, v := range []any{r.GT, r.GTE, r.LT, r.LTE} {
		bv, err := toBound(v)
		if err != nil {
			return query.Predicate{}, err
		}
		bvs[i] = bv
	}

	bounds, err := query.NewBounds(bvs[0], bvs[1], bvs[2], bvs[3])
	if err != nil {
		return query.Predicate{}, err
	}
	return query.NewRange(field, bounds)
}

// Sort adds a sort criterion (Asc or Desc).
func (b *QueryBuilder) Sort(field, order string) *QueryBuilder {
	b.sort = append(b.sort, query.Sort{Field: field, Order: query.SortOrder(order)})
	return b
}

// From sets the result offset.
func (b *QueryBuilder) From(n int) *QueryBuilder {
	b.from = n
	b.paged = true
	return b
}

// Size sets the maximum number of results.
func (b *QueryBuilder) Size(n int) *QueryBuilder {
	b.size = n
	b.paged = true
	return b
}

// Do validates the query against the stocks schema and executes it.
func (b *QueryBuilder) Do(ctx context.Context) ([]Hit, error) {
	if b.c.index == nil {
		return nil, ErrNoIndex
	}
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("query: %w", errors.Join(b.errs...))
	}

	clause, err := query.NewBoolClause(nil, nil, b.mustNot, b.filter)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	q := query.New(clause)
	if len(b.sort) > 0 {
		q = q.WithSort(b.sort...)
	}
	if b.paged {
		q = q.WithPage(b.from, b.size)
	}

	if violations := q.Validate(b.c.registry); len(violations) > 0 {
		return nil, fmt.Errorf("query: %w", transform.NewSchemaViolation(violations))
	}

	hits, err := b.c.index.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return fromHits(hits), nil
}

func toBound(v any) (*query.BoundValue, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case float64:
		b := query.Num(t)
		return &b, nil
	case int:
		b := query.Num(float64(t))
		return &b, nil
	case string:
		b := query.DateValue(t)
		return &b, nil
	default:
		return nil, fmt.Errorf("unsupported bound type %T", v)
	}
}
