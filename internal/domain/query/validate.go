package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/finquery/internal/domain/schema"
)

// Violation codes.
const (
	CodeUnknownField  = "UNKNOWN_FIELD"
	CodeKindMismatch  = "KIND_MISMATCH"
	CodeEnumViolation = "ENUM_VIOLATION"
	CodeEmptyBounds   = "EMPTY_BOUNDS"
	CodeIllegalBound  = "ILLEGAL_BOUND"
	CodeBoundConflict = "BOUND_CONFLICT"
	CodeBoundType     = "BOUND_TYPE"
	CodeEmptyQuery    = "EMPTY_QUERY"
	CodeNullPredicate = "NULL_PREDICATE"
)

// Violation is one validation failure.
type Violation struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Field == "" {
		return v.Message
	}
	return v.Field + ": " + v.Message
}

// JoinViolations renders violations as a single line for logging.
func JoinViolations(vs []Violation) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}

// Validate checks the query against the schema registry. A non-empty result
// invalidates the whole query; there are no partial, best-effort predicates.
// On success every term predicate is stamped with its concrete index field,
// so exact-match addressing is structural rather than a convention the model
// has to remember.
func (q *StructuredQuery) Validate(reg *schema.Registry) []Violation {
	var violations []Violation

	if q.clause.IsEmpty() && len(q.sort) == 0 && len(q.aggs) == 0 {
		return []Violation{{
			Code:    CodeEmptyQuery,
			Message: "query declares no predicates, sort, or aggregations",
		}}
	}

	groups := []*[]Predicate{&q.clause.must, &q.clause.should, &q.clause.mustNot, &q.clause.filter}
	for _, group := range groups {
		for i := range *group {
			violations = append(violations, validatePredicate(&(*group)[i], reg)...)
		}
	}

	for _, s := range q.sort {
		if _, ok := reg.Lookup(s.Field); !ok {
			violations = append(violations, Violation{
				Field: s.Field, Code: CodeUnknownField,
				Message: fmt.Sprintf("sort references unknown field %q", s.Field),
			})
		}
	}

	for _, a := range q.aggs {
		if _, ok := reg.Lookup(a.Field); !ok {
			violations = append(violations, Violation{
				Field: a.Field, Code: CodeUnknownField,
				Message: fmt.Sprintf("aggregation %q references unknown field %q", a.Name, a.Field),
			})
		}
		switch a.Metric {
		case "avg", "min", "max", "sum", "terms":
		default:
			violations = append(violations, Violation{
				Field: a.Field, Code: CodeKindMismatch,
				Message: fmt.Sprintf("aggregation %q uses unsupported metric %q", a.Name, a.Metric),
			})
		}
	}

	return violations
}

func validatePredicate(p *Predicate, reg *schema.Registry) []Violation {
	if p.kind == KindInvalid {
		return []Violation{{
			Code:    CodeNullPredicate,
			Message: "predicate is empty",
		}}
	}

	attr, ok := reg.Lookup(p.field)
	if !ok {
		return []Violation{{
			Field: p.field, Code: CodeUnknownField,
			Message: fmt.Sprintf("unknown field %q", p.field),
		}}
	}

	switch p.kind {
	case KindMatch:
		if attr.Kind() != schema.Text {
			return []Violation{{
				Field: p.field, Code: CodeKindMismatch,
				Message: fmt.Sprintf("match predicate on %s field %q; match is legal on text fields only", attr.Kind(), p.field),
			}}
		}
	case KindTerm:
		if attr.Kind() != schema.Keyword {
			return []Violation{{
				Field: p.field, Code: CodeKindMismatch,
				Message: fmt.Sprintf("term predicate on %s field %q; term is legal on keyword fields only", attr.Kind(), p.field),
			}}
		}
		if !attr.AllowsValue(p.value) {
			return []Violation{{
				Field: p.field, Code: CodeEnumViolation,
				Message: fmt.Sprintf("value %q is not in the enumeration of %q", p.value, p.field),
			}}
		}
		p.indexField = attr.IndexField()
	case KindRange:
		return validateRange(p, attr)
	}
	return nil
}

func validateRange(p *Predicate, attr schema.Attribute) []Violation {
	if !attr.Kind().Rangeable() {
		return []Violation{{
			Field: p.field, Code: CodeKindMismatch,
			Message: fmt.Sprintf("range predicate on %s field %q; range is legal on numeric, integer and date fields only", attr.Kind(), p.field),
		}}
	}

	var violations []Violation
	b := p.bounds
	for _, key := range b.illegal {
		violations = append(violations, Violation{
			Field: p.field, Code: CodeIllegalBound,
			Message: fmt.Sprintf("illegal range bound %q; legal bounds are gt, gte, lt, lte", key),
		})
	}
	if b.IsEmpty() {
		violations = append(violations, Violation{
			Field: p.field, Code: CodeEmptyBounds,
			Message: "range declares no bounds; at least one of gt, gte, lt, lte is required",
		})
		return violations
	}
	if b.gt != nil && b.gte != nil {
		violations = append(violations, Violation{
			Field: p.field, Code: CodeBoundConflict,
			Message: "range declares both gt and gte",
		})
	}
	if b.lt != nil && b.lte != nil {
		violations = append(violations, Violation{
			Field: p.field, Code: CodeBoundConflict,
			Message: "range declares both lt and lte",
		})
	}

	b.each(func(key string, v *BoundValue) {
		if attr.Kind() == schema.Date {
			if !v.IsDate() || !v.ValidDate() {
				violations = append(violations, Violation{
					Field: p.field, Code: CodeBoundType,
					Message: fmt.Sprintf("bound %q on date field %q must be an ISO date", key, p.field),
				})
			}
			return
		}
		if v.IsDate() {
			violations = append(violations, Violation{
				Field: p.field, Code: CodeBoundType,
				Message: fmt.Sprintf("bound %q on %s field %q must be numeric", key, attr.Kind(), p.field),
			})
		}
	})
	return violations
}
