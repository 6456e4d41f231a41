package pricing

import (
	"strings"

	"github.com/lorkus/scholarledger/pkg/metrics"
)

// Quotes maps lowercase token symbols to positive USD prices. A snapshot is
// built once and then only read, so it can be shared between goroutines.
type Quotes map[string]float64

// Get looks a token up case-insensitively, trying the lowercase key first.
func (q Quotes) Get(token string) (float64, bool) {
	if p, ok := q[strings.ToLower(token)]; ok {
		return p, true
	}
	p, ok := q[strings.ToUpper(token)]
	return p, ok
}

// Or returns the quote for token or zero when it is absent.
func (q Quotes) Or(token string) float64 {
	p, _ := q.Get(token)
	return p
}

// NewSnapshot parses every entry of a raw price payload, drops unreadable or
// implausible prices and returns the surviving quotes. A nil sanitizer uses
// the default ceilings.
func NewSnapshot(raw map[string]any, s *Sanitizer) Quotes {
	if s == nil {
		s = NewSanitizer()
	}
	out := make(Quotes, len(raw))
	for token, v := range raw {
		k := strings.ToLower(strings.TrimSpace(token))
		if k == "" {
			continue
		}
		price, ok := ExtractQuote(v)
		if !ok {
			metrics.RecordQuoteDiscarded("unparseable")
			continue
		}
		price, ok = s.Sanitize(k, price)
		if !ok {
			metrics.RecordQuoteDiscarded("above_ceiling")
			continue
		}
		out[k] = price
	}
	metrics.UpdateQuotesAvailable(len(out))
	return out
}
