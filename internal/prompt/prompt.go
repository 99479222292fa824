// Package prompt builds the instruction set handed to the language model:
// the schema description, disambiguation rules, worked examples, and the
// output contract. The build is deterministic for a given schema.
package prompt

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/finquery/internal/domain/schema"
)

// Builder renders prompts for one schema registry. The fixed context is
// computed once at construction; Build only formats the per-call instruction.
type Builder struct {
	context string
}

// NewBuilder creates a prompt builder bound to a registry.
func NewBuilder(reg *schema.Registry) *Builder {
	return &Builder{context: renderContext(reg)}
}

// Build returns the fixed system context and the per-call user instruction.
func (b *Builder) Build(nlQuery string) (context, instruction string) {
	return b.context, fmt.Sprintf("Query: %q", nlQuery)
}

func renderContext(reg *schema.Registry) string {
	var sb strings.Builder

	sb.WriteString("You translate natural-language stock screening requests into a structured search query.\n\n")

	sb.WriteString("Respond with a single JSON object of this shape:\n")
	sb.WriteString("  {\"answer\": \"<short explanation or direct answer>\", \"query\": {\"bool\": {\"must\": [], \"should\": [], \"must_not\": [], \"filter\": []}}, \"sort\": [], \"from\": 0, \"size\": 0}\n")
	sb.WriteString("Omit every member you do not use. Leaf predicates are:\n")
	sb.WriteString("  {\"term\": {\"<field>\": \"<value>\"}}   exact match, keyword fields only\n")
	sb.WriteString("  {\"match\": {\"<field>\": \"<text>\"}}   full-text match, text fields only\n")
	sb.WriteString("  {\"range\": {\"<field>\": {\"gt\"|\"gte\"|\"lt\"|\"lte\": <number>}}}   numeric, integer and date fields only\n\n")

	sb.WriteString("Queryable fields:\n")
	for _, attr := range reg.Describe() {
		if attr.Kind() == schema.Object {
			continue
		}
		sb.WriteString("  - ")
		sb.WriteString(attr.Path())
		sb.WriteString(" (")
		sb.WriteString(string(attr.Kind()))
		if attr.HasEnum() {
			sb.WriteString("; one of ")
			sb.WriteString(strings.Join(attr.Enum(), ", "))
		}
		sb.WriteString(")\n")
	}
	sb.WriteString("\n")

	sb.WriteString("Rules:\n")
	sb.WriteString("  - Use only the fields listed above, spelled exactly as listed. Never invent a field or an enumeration value.\n")
	sb.WriteString("  - Ratios and yields are fractions: 5% is 0.05.\n")
	sb.WriteString("  - If the user does not ask for an exact number, treat better values as acceptable: \"high dividends\" means div_yield_ttm gte 0.03, \"positive ROE\" means roe_ttm gt 0.\n")
	sb.WriteString("  - \"European\" companies report in EUR: term on currency.\n")
	sb.WriteString("  - Put screening criteria that need no relevance scoring under filter.\n")
	sb.WriteString("  - If the input is a question rather than a filter request, answer it in \"answer\" and omit \"query\" entirely. Never emit an empty or catch-all query for a question.\n\n")

	sb.WriteString("Examples:\n")
	sb.WriteString(`  "European banks with high dividends" ->
  {"answer": "Banks reporting in EUR with a trailing dividend yield of at least 3%.",
   "query": {"bool": {"filter": [
     {"term": {"currency": "EUR"}},
     {"term": {"equity_industry": "Banks"}},
     {"range": {"div_yield_ttm": {"gte": 0.03}}}]}}}

  "Large growth companies in the technology sector" ->
  {"answer": "Large-cap growth-style companies in the technology sector.",
   "query": {"bool": {"filter": [
     {"term": {"size_label": "LARGE"}},
     {"term": {"value_growth_label": "GROWTH"}},
     {"term": {"equity_sector": "TECHNOLOGY"}}]}}}

  "Companies with upward potential of 5%, covered by 5 analysts, debt to equity below 40%" ->
  {"answer": "Companies with at least 5% analyst upside, five or more covering analysts, and debt to equity under 0.4.",
   "query": {"bool": {"filter": [
     {"range": {"analyst_upward_potential": {"gte": 0.05}}},
     {"range": {"analyst_consensus_price_target.nr_analysts": {"gte": 5}}},
     {"range": {"debt_equity_latest": {"lte": 0.4}}}]}}}

  "renewable energy companies" ->
  {"answer": "Companies whose business description mentions renewable energy.",
   "query": {"bool": {"must": [
     {"match": {"description": "renewable energy"}}]}}}

  "What does ROE mean?" ->
  {"answer": "ROE (return on equity) measures net income relative to shareholders' equity; roe_ttm holds the trailing twelve month value."}
`)

	return sb.String()
}
