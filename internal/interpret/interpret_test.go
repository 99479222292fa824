package interpret

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/finquery/internal/domain/query"
	"github.com/kailas-cloud/finquery/internal/domain/schema"
	"github.com/kailas-cloud/finquery/internal/domain/transform"
)

func newInterpreter(t *testing.T) *Interpreter {
	t.Helper()
	return New(schema.Stocks())
}

func TestInterpret_SearchResult(t *testing.T) {
	raw := `{
		"answer": "Stocks reporting in EUR with a yield of at least 3%.",
		"query": {"bool": {"filter": [
			{"term": {"currency": "EUR"}},
			{"range": {"div_yield_ttm": {"gte": 0.03}}}
		]}},
		"size": 20
	}`

	res, err := newInterpreter(t).Interpret(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsSearch() {
		t.Fatal("expected a search result")
	}
	if len(res.Query().Clause().Filter()) != 2 {
		t.Errorf("filter group lost: %+v", res.Query().Clause())
	}
	if _, size, ok := res.Query().Page(); !ok || size != 20 {
		t.Errorf("size lost: %d %v", size, ok)
	}
}

func TestInterpret_AnswerResult(t *testing.T) {
	res, err := newInterpreter(t).Interpret(`{"answer": "ROE is return on equity."}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsSearch() {
		t.Error("expected an answer-only result")
	}
	if res.Answer() != "ROE is return on equity." {
		t.Errorf("unexpected answer: %q", res.Answer())
	}
}

func TestInterpret_NullMembersTreatedAsAbsent(t *testing.T) {
	// Models emit explicit nulls for members they leave unused; a null
	// query must not drag an answer into grammar validation.
	raw := `{"answer": "ROE measures profitability.", "query": null, "sort": null, "aggs": null}`

	res, err := newInterpreter(t).Interpret(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsSearch() {
		t.Error("expected an answer-only result")
	}
	if res.Answer() != "ROE measures profitability." {
		t.Errorf("unexpected answer: %q", res.Answer())
	}
}

func TestInterpret_NullQueryAlone(t *testing.T) {
	_, err := newInterpreter(t).Interpret(`{"query": null}`)
	if !errors.Is(err, transform.ErrEmptyOutput) {
		t.Errorf("expected ErrEmptyOutput, got %v", err)
	}
}

func TestInterpret_StripsFences(t *testing.T) {
	raw := "```json\n{\"answer\": \"hi\"}\n```"
	res, err := newInterpreter(t).Interpret(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Answer() != "hi" {
		t.Errorf("unexpected answer: %q", res.Answer())
	}
}

func TestInterpret_RepairsSloppyJSON(t *testing.T) {
	// Bare keys and a trailing comma, both common model slips.
	raw := `{answer: "tech stocks", query: {bool: {filter: [{term: {equity_sector: "TECHNOLOGY"}},]}}}`

	res, err := newInterpreter(t).Interpret(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsSearch() || len(res.Query().Clause().Filter()) != 1 {
		t.Errorf("repaired query lost content: %+v", res.Query())
	}
}

func TestInterpret_Malformed(t *testing.T) {
	for _, raw := range []string{
		"the query you want is currency = EUR",
		`{"answer": 5}`,
		`{"query": {"wildcard": {"name": "a*"}}}`,
		`{"query": {"bool": {"filter": [{"term": {"a": "1"}, "match": {"b": "2"}}]}}}`,
	} {
		_, err := newInterpreter(t).Interpret(raw)
		if !errors.Is(err, transform.ErrMalformed) {
			t.Errorf("%s: expected ErrMalformed, got %v", raw, err)
		}
	}
}

func TestInterpret_EmptyOutput(t *testing.T) {
	for _, raw := range []string{`{}`, `{"answer": ""}`} {
		_, err := newInterpreter(t).Interpret(raw)
		if !errors.Is(err, transform.ErrEmptyOutput) {
			t.Errorf("%s: expected ErrEmptyOutput, got %v", raw, err)
		}
	}
}

func TestInterpret_SchemaViolations(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		code string
	}{
		{
			name: "unknown field",
			raw:  `{"query": {"bool": {"filter": [{"term": {"ticker": "AAPL"}}]}}}`,
			code: query.CodeUnknownField,
		},
		{
			name: "enum violation",
			raw:  `{"query": {"bool": {"filter": [{"term": {"size_label": "HUGE"}}]}}}`,
			code: query.CodeEnumViolation,
		},
		{
			name: "empty bounds",
			raw:  `{"query": {"bool": {"filter": [{"range": {"roe_ttm": {}}}]}}}`,
			code: query.CodeEmptyBounds,
		},
		{
			name: "illegal bound key survives decoding",
			raw:  `{"query": {"bool": {"filter": [{"range": {"roe_ttm": {"about": 0.1}}}]}}}`,
			code: query.CodeIllegalBound,
		},
		{
			name: "empty query object",
			raw:  `{"query": {"bool": {}}}`,
			code: query.CodeEmptyQuery,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newInterpreter(t).Interpret(tc.raw)
			if !errors.Is(err, transform.ErrSchemaViolation) {
				t.Fatalf("expected ErrSchemaViolation, got %v", err)
			}
			var sv *transform.SchemaViolationError
			if !errors.As(err, &sv) {
				t.Fatal("violation list not attached")
			}
			found := false
			for _, v := range sv.Violations {
				if v.Code == tc.code {
					found = true
				}
			}
			if !found {
				t.Errorf("expected code %s, got %+v", tc.code, sv.Violations)
			}
		})
	}
}

func TestInterpret_TermOnTextRejected(t *testing.T) {
	raw := `{"query": {"bool": {"filter": [{"term": {"name": "Acme Corp"}}]}}}`

	_, err := newInterpreter(t).Interpret(raw)
	if !errors.Is(err, transform.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation for term on a text field, got %v", err)
	}
}

func TestInterpret_PrunesAfterValidation(t *testing.T) {
	raw := `{"query": {"bool": {"must": [], "filter": [{"term": {"currency": "EUR"}}]}}}`

	res, err := newInterpreter(t).Interpret(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Query().Clause().Must() != nil {
		t.Error("empty must group must be pruned from the result")
	}
}

func TestInterpret_OutputRevalidates(t *testing.T) {
	// Every emitted query must pass the grammar again untouched.
	cases := []struct {
		name string
		raw  string
	}{
		{
			name: "filters with paging",
			raw: `{
				"answer": "Euro instruments with a yield of at least 3%.",
				"query": {"bool": {"filter": [
					{"term": {"currency": "EUR"}},
					{"range": {"div_yield_ttm": {"gte": 0.03}}}
				]}},
				"size": 20
			}`,
		},
		{
			name: "empty groups pruned away",
			raw:  `{"query": {"bool": {"must": [], "should": [], "filter": [{"term": {"size_label": "LARGE"}}]}}}`,
		},
		{
			name: "sort only",
			raw:  `{"sort": [{"market_cap": "desc"}], "size": 10}`,
		},
	}

	reg := schema.Stocks()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := newInterpreter(t).Interpret(tc.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !res.IsSearch() {
				t.Fatal("expected a search result")
			}
			if violations := res.Query().Validate(reg); len(violations) != 0 {
				t.Errorf("emitted query fails re-validation: %s", query.JoinViolations(violations))
			}
		})
	}
}
