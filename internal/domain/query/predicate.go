package query

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// PredicateKind identifies the type of leaf predicate.
type PredicateKind int

const (
	// KindInvalid is the zero value; it never validates.
	KindInvalid PredicateKind = iota

	// KindMatch is a full-text match, legal on text fields only.
	KindMatch

	// KindTerm is an exact match, legal on keyword fields only.
	KindTerm

	// KindRange is a bounded comparison, legal on numeric, integer and
	// date fields.
	KindRange
)

func (k PredicateKind) String() string {
	switch k {
	case KindMatch:
		return "match"
	case KindTerm:
		return "term"
	case KindRange:
		return "range"
	default:
		return "invalid"
	}
}

// Predicate is a single leaf condition on one field.
type Predicate struct {
	kind  PredicateKind
	field string
	value string

	// indexField is the concrete index field for term predicates, resolved
	// from the schema during validation. Empty until then.
	indexField string

	bounds *Bounds
}

// NewMatch creates a full-text match predicate.
func NewMatch(field, value string) (Predicate, error) {
	if field == "" {
		return Predicate{}, fmt.Errorf("match predicate requires a field")
	}
	if value == "" {
		return Predicate{}, fmt.Errorf("match value is required for field %q", field)
	}
	return Predicate{kind: KindMatch, field: field, value: value}, nil
}

// NewTerm creates an exact-match predicate.
func NewTerm(field, value string) (Predicate, error) {
	if field == "" {
		return Predicate{}, fmt.Errorf("term predicate requires a field")
	}
	if value == "" {
		return Predicate{}, fmt.Errorf("term value is required for field %q", field)
	}
	return Predicate{kind: KindTerm, field: field, value: value}, nil
}

// NewRange creates a range predicate.
func NewRange(field string, b Bounds) (Predicate, error) {
	if field == "" {
		return Predicate{}, fmt.Errorf("range predicate requires a field")
	}
	return Predicate{kind: KindRange, field: field, bounds: &b}, nil
}

// Kind returns the predicate kind.
func (p Predicate) Kind() PredicateKind { return p.kind }

// Field returns the schema path the predicate addresses.
func (p Predicate) Field() string { return p.field }

// Value returns the match or term value.
func (p Predicate) Value() string { return p.value }

// Bounds returns the range bounds, nil for non-range predicates.
func (p Predicate) Bounds() *Bounds { return p.bounds }

// MarshalJSON emits the predicate as a search DSL leaf, e.g.
// {"term":{"currency":"EUR"}} or {"range":{"roe_ttm":{"gte":0.1}}}.
// Term predicates address their resolved index field when validation has
// stamped one.
func (p Predicate) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case KindMatch:
		return json.Marshal(map[string]map[string]string{
			"match": {p.field: p.value},
		})
	case KindTerm:
		field := p.field
		if p.indexField != "" {
			field = p.indexField
		}
		return json.Marshal(map[string]map[string]string{
			"term": {field: p.value},
		})
	case KindRange:
		return json.Marshal(map[string]map[string]*Bounds{
			"range": {p.field: p.bounds},
		})
	default:
		return nil, fmt.Errorf("cannot marshal predicate of kind %s", p.kind)
	}
}

// UnmarshalJSON parses a search DSL leaf: an object with exactly one of the
// keys "match", "term" or "range".
func (p *Predicate) UnmarshalJSON(data []byte) error {
	var leaf map[string]json.RawMessage
	if err := json.Unmarshal(data, &leaf); err != nil {
		return fmt.Errorf("predicate must be an object: %w", err)
	}
	if len(leaf) != 1 {
		return fmt.Errorf("predicate must have exactly one of match/term/range, got %d keys", len(leaf))
	}

	for key, inner := range leaf {
		switch key {
		case "match", "term":
			var fields map[string]string
			if err := json.Unmarshal(inner, &fields); err != nil {
				return fmt.Errorf("%s value must map a field to a string: %w", key, err)
			}
			if len(fields) != 1 {
				return fmt.Errorf("%s must address exactly one field, got %d", key, len(fields))
			}
			for field, value := range fields {
				p.field = field
				p.value = value
			}
			p.kind = KindMatch
			if key == "term" {
				p.kind = KindTerm
			}
		case "range":
			var fields map[string]json.RawMessage
			if err := json.Unmarshal(inner, &fields); err != nil {
				return fmt.Errorf("range value must be an object: %w", err)
			}
			if len(fields) != 1 {
				return fmt.Errorf("range must address exactly one field, got %d", len(fields))
			}
			for field, rawBounds := range fields {
				var b Bounds
				if err := json.Unmarshal(rawBounds, &b); err != nil {
					return err
				}
				p.field = field
				p.bounds = &b
			}
			p.kind = KindRange
		default:
			return fmt.Errorf("unknown predicate kind %q", key)
		}
	}
	return nil
}

// BoundValue is a single range boundary: a number, or a date for date fields.
type BoundValue struct {
	num    float64
	date   string
	isDate bool
}

// Num creates a numeric boundary.
func Num(v float64) BoundValue { return BoundValue{num: v} }

// DateValue creates a date boundary from an ISO date string.
func DateValue(s string) BoundValue { return BoundValue{date: s, isDate: true} }

// IsDate reports whether the boundary is a date.
func (v BoundValue) IsDate() bool { return v.isDate }

// Float returns the numeric boundary value.
func (v BoundValue) Float() float64 { return v.num }

// Date returns the date boundary value.
func (v BoundValue) Date() string { return v.date }

// ValidDate reports whether the date parses as YYYY-MM-DD or RFC 3339.
func (v BoundValue) ValidDate() bool {
	if !v.isDate {
		return false
	}
	if _, err := time.Parse("2006-01-02", v.date); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, v.date)
	return err == nil
}

// MarshalJSON emits the boundary as a bare number or a date string.
func (v BoundValue) MarshalJSON() ([]byte, error) {
	if v.isDate {
		return json.Marshal(v.date)
	}
	return json.Marshal(v.num)
}

// UnmarshalJSON accepts a number or a string.
func (v *BoundValue) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*v = BoundValue{num: num}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("range boundary must be a number or a date string")
	}
	*v = BoundValue{date: s, isDate: true}
	return nil
}

// Bounds holds the gt/gte/lt/lte boundaries of a range predicate.
type Bounds struct {
	gt  *BoundValue
	gte *BoundValue
	lt  *BoundValue
	lte *BoundValue

	// illegal records unknown bound keys seen during decoding, reported
	// by validation rather than swallowed.
	illegal []string
}

// NewBounds validates and creates Bounds. At least one boundary is required;
// gt/gte and lt/lte are mutually exclusive.
func NewBounds(gt, gte, lt, lte *BoundValue) (Bounds, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Bounds{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Bounds{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Bounds{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Bounds{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (b *Bounds) GT() *BoundValue { return b.gt }

// GTE returns the lower inclusive bound.
func (b *Bounds) GTE() *BoundValue { return b.gte }

// LT returns the upper exclusive bound.
func (b *Bounds) LT() *BoundValue { return b.lt }

// LTE returns the upper inclusive bound.
func (b *Bounds) LTE() *BoundValue { return b.lte }

// IsEmpty reports whether no boundary is set.
func (b *Bounds) IsEmpty() bool {
	return b.gt == nil && b.gte == nil && b.lt == nil && b.lte == nil
}

func (b *Bounds) each(fn func(key string, v *BoundValue)) {
	if b.gt != nil {
		fn("gt", b.gt)
	}
	if b.gte != nil {
		fn("gte", b.gte)
	}
	if b.lt != nil {
		fn("lt", b.lt)
	}
	if b.lte != nil {
		fn("lte", b.lte)
	}
}

// MarshalJSON emits only the boundaries that are set.
func (b Bounds) MarshalJSON() ([]byte, error) {
	out := make(map[string]*BoundValue, 4)
	b.each(func(key string, v *BoundValue) { out[key] = v })
	return json.Marshal(out)
}

// UnmarshalJSON decodes boundaries leniently: unknown keys are recorded and
// surfaced as violations during validation, not dropped.
func (b *Bounds) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("range bounds must be an object: %w", err)
	}

	*b = Bounds{}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch key {
		case "gt", "gte", "lt", "lte":
			var v BoundValue
			if err := json.Unmarshal(raw[key], &v); err != nil {
				return fmt.Errorf("bound %q: %w", key, err)
			}
			switch key {
			case "gt":
				b.gt = &v
			case "gte":
				b.gte = &v
			case "lt":
				b.lt = &v
			case "lte":
				b.lte = &v
			}
		default:
			b.illegal = append(b.illegal, key)
		}
	}
	return nil
}
