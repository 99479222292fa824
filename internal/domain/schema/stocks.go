package schema

// Sector labels carried by the stock index.
var sectors = []string{
	"BASIC_MATERIALS",
	"COMMUNICATION_SERVICES",
	"CONSUMER_CYCLICAL",
	"CONSUMER_DEFENSIVE",
	"ENERGY",
	"FINANCIAL_SERVICES",
	"HEALTHCARE",
	"INDUSTRIALS",
	"REAL_ESTATE",
	"TECHNOLOGY",
	"UTILITIES",
}

// Stocks returns the stock screening schema: the attribute set of the
// instrument index, mirroring its mapping one to one.
func Stocks() *Registry {
	return MustNew([]Definition{
		{Path: "name", Kind: Text, ExactSubField: "keyword"},
		{Path: "description", Kind: Text},
		{Path: "isin", Kind: Keyword},
		{Path: "currency", Kind: Keyword},
		{Path: "equity_sector", Kind: Keyword, Enum: sectors},
		{Path: "equity_industry", Kind: Keyword},
		{Path: "size_label", Kind: Keyword, Enum: []string{"SMALL", "MID", "LARGE"}},
		{Path: "value_growth_label", Kind: Keyword, Enum: []string{"VALUE", "BLEND", "GROWTH"}},
		{Path: "market_cap", Kind: Numeric},
		{Path: "div_yield_current", Kind: Numeric},
		{Path: "div_yield_current_fy", Kind: Numeric},
		{Path: "div_yield_ttm", Kind: Numeric},
		{Path: "dividend_payout_ratio_ttm", Kind: Numeric},
		{Path: "eps_ttm", Kind: Numeric},
		{Path: "eps_growth_last_5y", Kind: Numeric},
		{Path: "roe_ttm", Kind: Numeric},
		{Path: "net_profit_margin_ttm", Kind: Numeric},
		{Path: "debt_equity_latest", Kind: Numeric},
		{Path: "price_book_latest", Kind: Numeric},
		{Path: "price_earnings_ex_extra_ttm", Kind: Numeric},
		{Path: "price_sales_ttm", Kind: Numeric},
		{Path: "analyst_upward_potential", Kind: Numeric},
		{Path: "analyst_recommendation_count", Kind: Integer},
		{Path: "number_of_employees", Kind: Integer},
		{Path: "financial_health_stars", Kind: Integer},
		{Path: "growth_stars", Kind: Integer},
		{Path: "momentum_stars", Kind: Integer},
		{Path: "profitability_stars", Kind: Integer},
		{Path: "stability_stars", Kind: Integer},
		{Path: "value_stars", Kind: Integer},
		{Path: "analyst_consensus_price_target", Kind: Object, Children: []Definition{
			{Path: "currency", Kind: Keyword},
			{Path: "price", Kind: Numeric},
			{Path: "nr_analysts", Kind: Integer},
		}},
		{Path: "analyst_recommendations", Kind: Object, Children: []Definition{
			{Path: "BUY", Kind: Integer},
			{Path: "HOLD", Kind: Integer},
			{Path: "OUTPERFORM", Kind: Integer},
			{Path: "UNDERPERFORM", Kind: Integer},
		}},
	})
}
