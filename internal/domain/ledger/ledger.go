// Package ledger sums token amounts per symbol.
package ledger

import (
	"math"
	"sort"
	"strings"

	"github.com/lorkus/scholarledger/internal/domain/model"
	"github.com/lorkus/scholarledger/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// Ledger maps uppercase token symbols to summed amounts.
type Ledger map[string]float64

// builder accumulates amounts as decimals so long runs of small fractional
// rewards do not drift.
type builder map[string]decimal.Decimal

func (b builder) add(token string, amount float64) bool {
	token = normalize(token)
	if token == "" || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return false
	}
	b[token] = b[token].Add(decimal.NewFromFloat(amount))
	return true
}

func (b builder) ledger() Ledger {
	out := make(Ledger, len(b))
	for token, sum := range b {
		out[token] = sum.InexactFloat64()
	}
	return out
}

func normalize(token string) string {
	return strings.ToUpper(strings.TrimSpace(token))
}

// FromRewards sums a reward feed. Non-positive amounts are adjustments and
// are dropped before summation; malformed entries are skipped.
func FromRewards(rewards []model.RewardEvent) Ledger {
	b := builder{}
	for _, r := range rewards {
		if r.Amount <= 0 {
			continue
		}
		b.add(r.Token, r.Amount)
	}
	return b.ledger()
}

// FromAmounts sums prize or fee amounts as given. Malformed entries are
// skipped; there is no sign filter.
func FromAmounts(amounts []model.TokenAmount) Ledger {
	b := builder{}
	for _, a := range amounts {
		b.add(a.Token, a.Amount)
	}
	return b.ledger()
}

// Tokens returns the symbols in sorted order.
func (l Ledger) Tokens() []string {
	tokens := make([]string, 0, len(l))
	for t := range l {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens
}

// Value prices every token and sums the USD values. Tokens without a quote
// contribute zero.
func (l Ledger) Value(quotes pricing.Quotes) float64 {
	total := decimal.Zero
	for _, token := range l.Tokens() {
		price := quotes.Or(token)
		if price == 0 {
			continue
		}
		total = total.Add(decimal.NewFromFloat(l[token]).Mul(decimal.NewFromFloat(price)))
	}
	return total.InexactFloat64()
}

// Totals packages the ledger and its USD value as a category bucket.
func (l Ledger) Totals(quotes pricing.Quotes) model.CategoryTotals {
	out := model.NewCategoryTotals()
	for token, amount := range l {
		out.TokenAmounts[token] = amount
	}
	out.USD = l.Value(quotes)
	return out
}
