package query

import (
	"encoding/json"
	"testing"
)

func TestNewMatch(t *testing.T) {
	if _, err := NewMatch("", "bank"); err == nil {
		t.Error("expected error for empty field")
	}
	if _, err := NewMatch("description", ""); err == nil {
		t.Error("expected error for empty value")
	}

	p, err := NewMatch("description", "renewable energy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Kind() != KindMatch || p.Field() != "description" || p.Value() != "renewable energy" {
		t.Errorf("unexpected predicate: %+v", p)
	}
}

func TestNewTerm(t *testing.T) {
	if _, err := NewTerm("", "EUR"); err == nil {
		t.Error("expected error for empty field")
	}
	if _, err := NewTerm("currency", ""); err == nil {
		t.Error("expected error for empty value")
	}

	p, err := NewTerm("currency", "EUR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Kind() != KindTerm {
		t.Errorf("expected term, got %s", p.Kind())
	}
}

func TestNewRange(t *testing.T) {
	b, err := NewBounds(nil, ptr(Num(0.03)), nil, nil)
	if err != nil {
		t.Fatalf("NewBounds: %v", err)
	}

	p, err := NewRange("div_yield_ttm", b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Kind() != KindRange || p.Bounds() == nil {
		t.Errorf("unexpected predicate: %+v", p)
	}

	if _, err := NewRange("", b); err == nil {
		t.Error("expected error for empty field")
	}
}

func TestNewBounds(t *testing.T) {
	if _, err := NewBounds(nil, nil, nil, nil); err == nil {
		t.Error("expected error for no bounds")
	}
	if _, err := NewBounds(ptr(Num(1)), ptr(Num(1)), nil, nil); err == nil {
		t.Error("expected error for gt+gte")
	}
	if _, err := NewBounds(nil, nil, ptr(Num(1)), ptr(Num(1))); err == nil {
		t.Error("expected error for lt+lte")
	}
	if _, err := NewBounds(ptr(Num(0)), nil, nil, ptr(Num(1))); err != nil {
		t.Errorf("gt+lte must be legal: %v", err)
	}
}

func TestPredicateMarshal(t *testing.T) {
	m, _ := NewMatch("description", "solar")
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal match: %v", err)
	}
	if string(data) != `{"match":{"description":"solar"}}` {
		t.Errorf("unexpected match JSON: %s", data)
	}

	term, _ := NewTerm("currency", "EUR")
	data, err = json.Marshal(term)
	if err != nil {
		t.Fatalf("marshal term: %v", err)
	}
	if string(data) != `{"term":{"currency":"EUR"}}` {
		t.Errorf("unexpected term JSON: %s", data)
	}

	var invalid Predicate
	if _, err := json.Marshal(invalid); err == nil {
		t.Error("marshaling an invalid predicate must fail")
	}
}

func TestPredicateUnmarshal(t *testing.T) {
	var p Predicate
	if err := json.Unmarshal([]byte(`{"term":{"size_label":"LARGE"}}`), &p); err != nil {
		t.Fatalf("unmarshal term: %v", err)
	}
	if p.Kind() != KindTerm || p.Field() != "size_label" || p.Value() != "LARGE" {
		t.Errorf("unexpected predicate: %+v", p)
	}

	if err := json.Unmarshal([]byte(`{"range":{"roe_ttm":{"gte":0.15}}}`), &p); err != nil {
		t.Fatalf("unmarshal range: %v", err)
	}
	if p.Kind() != KindRange {
		t.Fatalf("expected range, got %s", p.Kind())
	}
	if p.Bounds().GTE() == nil || p.Bounds().GTE().Float() != 0.15 {
		t.Errorf("unexpected bounds: %+v", p.Bounds())
	}

	for _, bad := range []string{
		`{"wildcard":{"name":"a*"}}`,
		`{"term":{"a":"1"},"match":{"b":"2"}}`,
		`{"term":{"a":"1","b":"2"}}`,
		`{}`,
		`"term"`,
	} {
		var q Predicate
		if err := json.Unmarshal([]byte(bad), &q); err == nil {
			t.Errorf("expected error for %s", bad)
		}
	}
}

func TestBoundsLenientDecode(t *testing.T) {
	var b Bounds
	if err := json.Unmarshal([]byte(`{"gte":5,"between":[1,2]}`), &b); err != nil {
		t.Fatalf("lenient decode must not fail on unknown keys: %v", err)
	}
	if b.GTE() == nil || b.GTE().Float() != 5 {
		t.Errorf("gte lost: %+v", b)
	}
	if len(b.illegal) != 1 || b.illegal[0] != "between" {
		t.Errorf("unknown key not recorded: %v", b.illegal)
	}
}

func TestBoundsMarshalOmitsUnset(t *testing.T) {
	b, _ := NewBounds(nil, ptr(Num(1)), ptr(Num(10)), nil)
	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"gte":1,"lt":10}` {
		t.Errorf("unexpected JSON: %s", data)
	}
}

func TestBoundValueDates(t *testing.T) {
	d := DateValue("2024-01-31")
	if !d.ValidDate() {
		t.Error("ISO date must validate")
	}
	if !DateValue("2024-01-31T10:00:00Z").ValidDate() {
		t.Error("RFC 3339 must validate")
	}
	if DateValue("January 2024").ValidDate() {
		t.Error("free-form date must not validate")
	}
	if Num(5).ValidDate() {
		t.Error("numbers are not dates")
	}

	var v BoundValue
	if err := json.Unmarshal([]byte(`"2024-06-01"`), &v); err != nil {
		t.Fatalf("unmarshal date: %v", err)
	}
	if !v.IsDate() || v.Date() != "2024-06-01" {
		t.Errorf("unexpected value: %+v", v)
	}
	if err := json.Unmarshal([]byte(`2.5`), &v); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if v.IsDate() || v.Float() != 2.5 {
		t.Errorf("unexpected value: %+v", v)
	}
	if err := json.Unmarshal([]byte(`[1]`), &v); err == nil {
		t.Error("expected error for array boundary")
	}
}

func ptr(v BoundValue) *BoundValue { return &v }
