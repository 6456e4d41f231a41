package model

// CategoryTotals holds the per-token sums of one bucket and their USD value.
type CategoryTotals struct {
	TokenAmounts map[string]float64 `json:"token_amounts"`
	USD          float64            `json:"usd"`
}

// NewCategoryTotals returns an empty bucket with a non-nil token map.
func NewCategoryTotals() CategoryTotals {
	return CategoryTotals{TokenAmounts: map[string]float64{}}
}

// AggregatedTotals is the result of aggregating one player's season.
// Overall covers ranked, brawl and tournament; entry fees are reported
// separately and never netted out.
type AggregatedTotals struct {
	Ranked     CategoryTotals `json:"ranked"`
	Brawl      CategoryTotals `json:"brawl"`
	Tournament CategoryTotals `json:"tournament"`
	EntryFees  CategoryTotals `json:"entry_fees"`
	Overall    CategoryTotals `json:"overall"`
}

// NewAggregatedTotals returns all-zero totals.
func NewAggregatedTotals() AggregatedTotals {
	return AggregatedTotals{
		Ranked:     NewCategoryTotals(),
		Brawl:      NewCategoryTotals(),
		Tournament: NewCategoryTotals(),
		EntryFees:  NewCategoryTotals(),
		Overall:    NewCategoryTotals(),
	}
}
