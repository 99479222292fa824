package query

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kailas-cloud/finquery/internal/domain/schema"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	return schema.MustNew([]schema.Definition{
		{Path: "name", Kind: schema.Text, ExactSubField: "keyword"},
		{Path: "description", Kind: schema.Text},
		{Path: "currency", Kind: schema.Keyword},
		{Path: "size_label", Kind: schema.Keyword, Enum: []string{"SMALL", "MID", "LARGE"}},
		{Path: "div_yield_ttm", Kind: schema.Numeric},
		{Path: "listed_at", Kind: schema.Date},
	})
}

func hasCode(vs []Violation, code string) bool {
	for _, v := range vs {
		if v.Code == code {
			return true
		}
	}
	return false
}

func TestValidate_OK(t *testing.T) {
	reg := testRegistry(t)

	b, _ := NewBounds(nil, ptr(Num(0.03)), nil, nil)
	rng, _ := NewRange("div_yield_ttm", b)
	match, _ := NewMatch("description", "bank")
	term, _ := NewTerm("currency", "EUR")

	clause := mustClause(t, []Predicate{match}, nil, nil, []Predicate{term, rng})
	q := New(clause).WithSort(Sort{Field: "div_yield_ttm", Order: Desc})

	if vs := q.Validate(reg); len(vs) != 0 {
		t.Errorf("unexpected violations: %v", vs)
	}
}

func TestValidate_EmptyQuery(t *testing.T) {
	vs := MatchAll().Validate(testRegistry(t))
	if len(vs) != 1 || vs[0].Code != CodeEmptyQuery {
		t.Errorf("expected single EMPTY_QUERY violation, got %v", vs)
	}
}

func TestValidate_UnknownField(t *testing.T) {
	term, _ := NewTerm("ticker", "AAPL")
	q := New(mustClause(t, []Predicate{term}, nil, nil, nil))

	vs := q.Validate(testRegistry(t))
	if !hasCode(vs, CodeUnknownField) {
		t.Errorf("expected UNKNOWN_FIELD, got %v", vs)
	}
}

func TestValidate_KindMismatch(t *testing.T) {
	reg := testRegistry(t)

	term, _ := NewTerm("description", "bank") // term on text
	q := New(mustClause(t, []Predicate{term}, nil, nil, nil))
	if vs := q.Validate(reg); !hasCode(vs, CodeKindMismatch) {
		t.Errorf("term on text: expected KIND_MISMATCH, got %v", vs)
	}

	match, _ := NewMatch("currency", "EUR") // match on keyword
	q = New(mustClause(t, []Predicate{match}, nil, nil, nil))
	if vs := q.Validate(reg); !hasCode(vs, CodeKindMismatch) {
		t.Errorf("match on keyword: expected KIND_MISMATCH, got %v", vs)
	}

	b, _ := NewBounds(nil, ptr(Num(1)), nil, nil)
	rng, _ := NewRange("currency", b) // range on keyword
	q = New(mustClause(t, []Predicate{rng}, nil, nil, nil))
	if vs := q.Validate(reg); !hasCode(vs, CodeKindMismatch) {
		t.Errorf("range on keyword: expected KIND_MISMATCH, got %v", vs)
	}
}

func TestValidate_EnumViolation(t *testing.T) {
	term, _ := NewTerm("size_label", "HUGE")
	q := New(mustClause(t, []Predicate{term}, nil, nil, nil))

	vs := q.Validate(testRegistry(t))
	if !hasCode(vs, CodeEnumViolation) {
		t.Errorf("expected ENUM_VIOLATION, got %v", vs)
	}
}

func TestValidate_RangeBounds(t *testing.T) {
	reg := testRegistry(t)

	// Empty and illegal bounds arrive through decoding, not constructors.
	var p Predicate
	if err := json.Unmarshal([]byte(`{"range":{"div_yield_ttm":{}}}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	q := New(mustClause(t, []Predicate{p}, nil, nil, nil))
	if vs := q.Validate(reg); !hasCode(vs, CodeEmptyBounds) {
		t.Errorf("expected EMPTY_BOUNDS, got %v", vs)
	}

	if err := json.Unmarshal([]byte(`{"range":{"div_yield_ttm":{"gte":1,"approx":2}}}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	q = New(mustClause(t, []Predicate{p}, nil, nil, nil))
	if vs := q.Validate(reg); !hasCode(vs, CodeIllegalBound) {
		t.Errorf("expected ILLEGAL_BOUND, got %v", vs)
	}

	if err := json.Unmarshal([]byte(`{"range":{"div_yield_ttm":{"gt":0,"gte":0.01}}}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	q = New(mustClause(t, []Predicate{p}, nil, nil, nil))
	if vs := q.Validate(reg); !hasCode(vs, CodeBoundConflict) {
		t.Errorf("expected BOUND_CONFLICT, got %v", vs)
	}
}

func TestValidate_BoundTypes(t *testing.T) {
	reg := testRegistry(t)

	b, _ := NewBounds(nil, ptr(DateValue("2024-01-01")), nil, nil)
	rng, _ := NewRange("div_yield_ttm", b) // date bound on numeric
	q := New(mustClause(t, []Predicate{rng}, nil, nil, nil))
	if vs := q.Validate(reg); !hasCode(vs, CodeBoundType) {
		t.Errorf("date bound on numeric: expected BOUND_TYPE, got %v", vs)
	}

	b, _ = NewBounds(nil, ptr(Num(5)), nil, nil)
	rng, _ = NewRange("listed_at", b) // numeric bound on date
	q = New(mustClause(t, []Predicate{rng}, nil, nil, nil))
	if vs := q.Validate(reg); !hasCode(vs, CodeBoundType) {
		t.Errorf("numeric bound on date: expected BOUND_TYPE, got %v", vs)
	}

	b, _ = NewBounds(nil, ptr(DateValue("2024-06-15")), nil, nil)
	rng, _ = NewRange("listed_at", b)
	q = New(mustClause(t, []Predicate{rng}, nil, nil, nil))
	if vs := q.Validate(reg); len(vs) != 0 {
		t.Errorf("valid date range rejected: %v", vs)
	}
}

func TestValidate_NullPredicate(t *testing.T) {
	q := New(mustClause(t, []Predicate{{}}, nil, nil, nil))
	if vs := q.Validate(testRegistry(t)); !hasCode(vs, CodeNullPredicate) {
		t.Errorf("expected NULL_PREDICATE, got %v", vs)
	}
}

func TestValidate_SortAndAggs(t *testing.T) {
	reg := testRegistry(t)

	term, _ := NewTerm("currency", "EUR")
	q := New(mustClause(t, nil, nil, nil, []Predicate{term})).
		WithSort(Sort{Field: "momentum", Order: Desc}).
		WithAggregations(Aggregation{Name: "p50", Metric: "percentile", Field: "div_yield_ttm"})

	vs := q.Validate(reg)
	if !hasCode(vs, CodeUnknownField) {
		t.Errorf("expected UNKNOWN_FIELD for sort, got %v", vs)
	}
	if !hasCode(vs, CodeKindMismatch) {
		t.Errorf("expected KIND_MISMATCH for agg metric, got %v", vs)
	}
}

func TestValidate_StampsTermIndexField(t *testing.T) {
	reg := schema.MustNew([]schema.Definition{
		{Path: "name", Kind: schema.Keyword, ExactSubField: "keyword"},
	})

	term, _ := NewTerm("name", "Acme Corp")
	q := New(mustClause(t, nil, nil, nil, []Predicate{term}))
	if vs := q.Validate(reg); len(vs) != 0 {
		t.Fatalf("unexpected violations: %v", vs)
	}

	data, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"name.keyword"`) {
		t.Errorf("term not stamped with index field: %s", data)
	}
}

func TestJoinViolations(t *testing.T) {
	out := JoinViolations([]Violation{
		{Field: "ticker", Code: CodeUnknownField, Message: "unknown field"},
		{Code: CodeEmptyQuery, Message: "empty query"},
	})
	if out != "ticker: unknown field; empty query" {
		t.Errorf("unexpected join: %q", out)
	}
}
