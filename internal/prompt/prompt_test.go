package prompt

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/finquery/internal/domain/schema"
)

func TestBuildDeterministic(t *testing.T) {
	b := NewBuilder(schema.Stocks())

	ctx1, instr1 := b.Build("cheap tech stocks")
	ctx2, instr2 := b.Build("cheap tech stocks")

	if ctx1 != ctx2 || instr1 != instr2 {
		t.Error("prompt build must be deterministic")
	}
}

func TestBuildInstruction(t *testing.T) {
	b := NewBuilder(schema.Stocks())

	_, instr := b.Build(`stocks with "high" yield`)
	if instr != `Query: "stocks with \"high\" yield"` {
		t.Errorf("instruction must quote the input verbatim: %q", instr)
	}
}

func TestContextListsFields(t *testing.T) {
	b := NewBuilder(schema.Stocks())
	ctx, _ := b.Build("x")

	for _, field := range []string{
		"div_yield_ttm (numeric)",
		"currency (keyword)",
		"description (text)",
		"analyst_consensus_price_target.nr_analysts (integer)",
	} {
		if !strings.Contains(ctx, field) {
			t.Errorf("context missing field line %q", field)
		}
	}

	// Object parents carry no predicates and must not be offered.
	if strings.Contains(ctx, "analyst_consensus_price_target (object)") {
		t.Error("object parents must not be listed as queryable")
	}
}

func TestContextListsEnums(t *testing.T) {
	b := NewBuilder(schema.Stocks())
	ctx, _ := b.Build("x")

	if !strings.Contains(ctx, "one of SMALL, MID, LARGE") {
		t.Error("size_label enum missing from context")
	}
	if !strings.Contains(ctx, "TECHNOLOGY") {
		t.Error("sector enum values missing from context")
	}
}

func TestContextCarriesDecisionRules(t *testing.T) {
	b := NewBuilder(schema.Stocks())
	ctx, _ := b.Build("x")

	for _, rule := range []string{
		"5% is 0.05",
		"div_yield_ttm gte 0.03",
		"term on currency",
		"omit \"query\" entirely",
	} {
		if !strings.Contains(ctx, rule) {
			t.Errorf("context missing rule %q", rule)
		}
	}
}
