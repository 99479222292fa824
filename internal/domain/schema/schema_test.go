package schema

import (
	"strings"
	"testing"
)

func TestNew_FlatAttributes(t *testing.T) {
	reg, err := New([]Definition{
		{Path: "currency", Kind: Keyword},
		{Path: "div_yield_ttm", Kind: Numeric},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	attr, ok := reg.Lookup("currency")
	if !ok {
		t.Fatal("currency not found")
	}
	if attr.Kind() != Keyword {
		t.Errorf("expected keyword, got %q", attr.Kind())
	}
	if attr.IndexField() != "currency" {
		t.Errorf("expected index field 'currency', got %q", attr.IndexField())
	}
}

func TestNew_NestedObject(t *testing.T) {
	reg, err := New([]Definition{
		{Path: "analyst_consensus_price_target", Kind: Object, Children: []Definition{
			{Path: "currency", Kind: Keyword},
			{Path: "price", Kind: Numeric},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	attr, ok := reg.Lookup("analyst_consensus_price_target.price")
	if !ok {
		t.Fatal("nested child not addressable by dotted path")
	}
	if attr.Kind() != Numeric {
		t.Errorf("expected numeric, got %q", attr.Kind())
	}

	parent, ok := reg.Lookup("analyst_consensus_price_target")
	if !ok {
		t.Fatal("parent not found")
	}
	if len(parent.Children()) != 2 {
		t.Errorf("expected 2 children, got %d", len(parent.Children()))
	}
}

func TestNew_ExactSubField(t *testing.T) {
	reg := MustNew([]Definition{
		{Path: "name", Kind: Text, ExactSubField: "keyword"},
		{Path: "isin", Kind: Keyword},
	})

	name, _ := reg.Lookup("name")
	if name.IndexField() != "name.keyword" {
		t.Errorf("expected 'name.keyword', got %q", name.IndexField())
	}
	isin, _ := reg.Lookup("isin")
	if isin.IndexField() != "isin" {
		t.Errorf("expected 'isin', got %q", isin.IndexField())
	}
}

func TestNew_Errors(t *testing.T) {
	cases := []struct {
		name string
		defs []Definition
		want string
	}{
		{
			name: "duplicate path",
			defs: []Definition{
				{Path: "currency", Kind: Keyword},
				{Path: "currency", Kind: Keyword},
			},
			want: "duplicate",
		},
		{
			name: "unknown kind",
			defs: []Definition{{Path: "x", Kind: Kind("geo")}},
			want: "unknown kind",
		},
		{
			name: "empty enum",
			defs: []Definition{{Path: "x", Kind: Keyword, Enum: []string{}}},
			want: "empty enumeration",
		},
		{
			name: "enum on non-keyword",
			defs: []Definition{{Path: "x", Kind: Numeric, Enum: []string{"a"}}},
			want: "not keyword",
		},
		{
			name: "object without children",
			defs: []Definition{{Path: "x", Kind: Object}},
			want: "no children",
		},
		{
			name: "children on leaf",
			defs: []Definition{{Path: "x", Kind: Keyword, Children: []Definition{{Path: "y", Kind: Keyword}}}},
			want: "not object",
		},
		{
			name: "no attributes",
			defs: nil,
			want: "no attributes",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.defs)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tc.want)
			}
		})
	}
}

func TestAllowsValue(t *testing.T) {
	reg := MustNew([]Definition{
		{Path: "size_label", Kind: Keyword, Enum: []string{"SMALL", "MID", "LARGE"}},
		{Path: "currency", Kind: Keyword},
	})

	size, _ := reg.Lookup("size_label")
	if !size.AllowsValue("MID") {
		t.Error("MID must be allowed")
	}
	if size.AllowsValue("HUGE") {
		t.Error("HUGE must be rejected")
	}
	if !size.HasEnum() {
		t.Error("size_label must report an enum")
	}

	cur, _ := reg.Lookup("currency")
	if !cur.AllowsValue("anything") {
		t.Error("unrestricted keyword must allow any value")
	}
	if cur.HasEnum() {
		t.Error("currency must not report an enum")
	}
}

func TestDescribe_DeclarationOrder(t *testing.T) {
	reg := MustNew([]Definition{
		{Path: "b", Kind: Keyword},
		{Path: "a", Kind: Keyword},
		{Path: "obj", Kind: Object, Children: []Definition{
			{Path: "c", Kind: Numeric},
		}},
	})

	var paths []string
	for _, a := range reg.Describe() {
		paths = append(paths, a.Path())
	}

	want := []string{"b", "a", "obj", "obj.c"}
	if len(paths) != len(want) {
		t.Fatalf("expected %d attributes, got %v", len(want), paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], paths[i])
		}
	}
}

func TestStocksRegistry(t *testing.T) {
	reg := Stocks()

	sector, ok := reg.Lookup("equity_sector")
	if !ok {
		t.Fatal("equity_sector missing")
	}
	if !sector.HasEnum() {
		t.Error("equity_sector must declare an enum")
	}
	if !sector.AllowsValue("TECHNOLOGY") {
		t.Error("TECHNOLOGY must be a legal sector")
	}
	if sector.AllowsValue("Technology") {
		t.Error("sector values are case sensitive")
	}

	name, ok := reg.Lookup("name")
	if !ok {
		t.Fatal("name missing")
	}
	if name.IndexField() != "name.keyword" {
		t.Errorf("expected name.keyword, got %q", name.IndexField())
	}

	if _, ok := reg.Lookup("analyst_recommendations.BUY"); !ok {
		t.Error("nested analyst_recommendations.BUY missing")
	}
	if _, ok := reg.Lookup("value_stars"); !ok {
		t.Error("value_stars missing")
	}
}

func TestRangeable(t *testing.T) {
	for kind, want := range map[Kind]bool{
		Numeric: true,
		Integer: true,
		Date:    true,
		Keyword: false,
		Text:    false,
		Object:  false,
	} {
		if kind.Rangeable() != want {
			t.Errorf("%s.Rangeable() = %v, want %v", kind, !want, want)
		}
	}
}
