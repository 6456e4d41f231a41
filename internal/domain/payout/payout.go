// Package payout splits a season's USD value between scholar and owner and
// renders the scholar share in a payout currency.
package payout

import (
	"fmt"
	"math"
	"strings"

	"github.com/lorkus/scholarledger/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// USD is the currency that never needs a quote.
const USD = "USD"

// Share is the result of splitting an overall USD value.
type Share struct {
	ScholarPct float64 `json:"scholar_pct"`
	ScholarUSD float64 `json:"scholar_usd"`
	OwnerUSD   float64 `json:"owner_usd"`
}

// CheckPercent returns ErrPercentOutOfRange unless pct is within [0, 100].
func CheckPercent(pct float64) error {
	if math.IsNaN(pct) || pct < 0 || pct > 100 {
		return fmt.Errorf("%w: %v", ErrPercentOutOfRange, pct)
	}
	return nil
}

// Split divides overallUSD by the scholar percentage. The two parts always
// add back up to overallUSD.
func Split(overallUSD, scholarPct float64) (Share, error) {
	if err := CheckPercent(scholarPct); err != nil {
		return Share{}, err
	}
	if math.IsNaN(overallUSD) || math.IsInf(overallUSD, 0) {
		return Share{}, fmt.Errorf("%w: %v", ErrInvalidAmount, overallUSD)
	}
	overall := decimal.NewFromFloat(overallUSD)
	scholar := overall.Mul(decimal.NewFromFloat(scholarPct)).Div(decimal.NewFromInt(100))
	return Share{
		ScholarPct: scholarPct,
		ScholarUSD: scholar.InexactFloat64(),
		OwnerUSD:   overall.Sub(scholar).InexactFloat64(),
	}, nil
}

// Rendering is a USD amount expressed in a payout currency.
type Rendering struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
	Rate     float64 `json:"rate"`
}

func (r Rendering) String() string {
	if r.Currency == USD {
		return fmt.Sprintf("$%.2f", r.Amount)
	}
	return fmt.Sprintf("%.3f %s", r.Amount, r.Currency)
}

// Render converts scholarUSD into currency using quotes. A missing quote
// yields ErrNoQuote rather than a zero amount.
func Render(scholarUSD float64, currency string, quotes pricing.Quotes) (Rendering, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" || currency == USD {
		return Rendering{Currency: USD, Amount: scholarUSD, Rate: 1}, nil
	}
	rate, ok := quotes.Get(currency)
	if !ok || rate <= 0 {
		return Rendering{Currency: currency}, fmt.Errorf("%w: %s", ErrNoQuote, currency)
	}
	return Rendering{Currency: currency, Amount: scholarUSD / rate, Rate: rate}, nil
}

// Describe renders for display, using "-" when no quote is available.
func Describe(scholarUSD float64, currency string, quotes pricing.Quotes) string {
	r, err := Render(scholarUSD, currency, quotes)
	if err != nil {
		return "-"
	}
	return r.String()
}
