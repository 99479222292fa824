// Package interpret parses raw model output into a validated transform
// result. It decides pass or fail; degradation policy belongs to the
// compiler facade, so every failure here stays observable.
package interpret

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/finquery/internal/domain/query"
	"github.com/kailas-cloud/finquery/internal/domain/schema"
	"github.com/kailas-cloud/finquery/internal/domain/transform"
)

// Interpreter validates model output against one schema registry.
type Interpreter struct {
	reg *schema.Registry
}

// New creates an interpreter.
func New(reg *schema.Registry) *Interpreter {
	return &Interpreter{reg: reg}
}

// envelope is the expected output shape: an optional answer plus an optional
// search body. The search members sit beside the answer at the top level, the
// way the prompt's output contract states them.
type envelope struct {
	Answer string          `json:"answer"`
	Query  json.RawMessage `json:"query"`
	Sort   json.RawMessage `json:"sort"`
	From   json.RawMessage `json:"from"`
	Size   json.RawMessage `json:"size"`
	Aggs   json.RawMessage `json:"aggs"`
}

func (e *envelope) hasSearchBody() bool {
	return present(e.Query) || present(e.Sort) || present(e.Aggs)
}

// present reports whether a raw member carries a value. Models emit an
// explicit null for members they leave unused; null and absent mean the
// same thing here.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// searchBody reassembles the envelope's search members into a _search body
// for the query grammar to parse.
func (e *envelope) searchBody() ([]byte, error) {
	body := make(map[string]json.RawMessage, 5)
	if present(e.Query) {
		body["query"] = e.Query
	}
	for key, raw := range map[string]json.RawMessage{
		"sort": e.Sort, "from": e.From, "size": e.Size, "aggs": e.Aggs,
	} {
		if present(raw) {
			body[key] = raw
		}
	}
	return json.Marshal(body)
}

// Interpret parses raw output into a transform result. Failures:
// ErrMalformed when the text does not parse as the expected shape,
// ErrSchemaViolation (with the violation list) when the query fails grammar
// validation, ErrEmptyOutput when neither answer nor query is present.
func (i *Interpreter) Interpret(raw string) (transform.Result, error) {
	cleaned := repairJSON(stripFences(raw))

	var env envelope
	if err := json.Unmarshal([]byte(cleaned), &env); err != nil {
		return transform.Result{}, fmt.Errorf("%w: %s", transform.ErrMalformed, err)
	}

	if !env.hasSearchBody() {
		if env.Answer == "" {
			return transform.Result{}, transform.ErrEmptyOutput
		}
		return transform.NewAnswer(env.Answer)
	}

	body, err := env.searchBody()
	if err != nil {
		return transform.Result{}, fmt.Errorf("%w: %s", transform.ErrMalformed, err)
	}

	var q query.StructuredQuery
	if err := json.Unmarshal(body, &q); err != nil {
		return transform.Result{}, fmt.Errorf("%w: %s", transform.ErrMalformed, err)
	}

	if violations := q.Validate(i.reg); len(violations) > 0 {
		return transform.Result{}, transform.NewSchemaViolation(violations)
	}

	// Prune after validation; pruning first would hide missing-bound errors.
	q.Prune()

	return transform.NewSearch(env.Answer, &q)
}

// stripFences removes a surrounding markdown code fence, which chat models
// add even when told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
