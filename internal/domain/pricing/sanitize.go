package pricing

import "strings"

// DefaultCeilings are the largest plausible USD prices per token. Anything
// above is treated as a bad feed value.
func DefaultCeilings() map[string]float64 {
	return map[string]float64{
		"sps":     1.0,
		"dec":     0.01,
		"voucher": 2.0,
		"glx":     1.0,
		"glusd":   10.0,
		"hive":    10.0,
		"hbd":     10.0,
	}
}

// Sanitizer discards quotes that exceed a per-token ceiling.
type Sanitizer struct {
	ceilings map[string]float64
}

// Option applies a configuration option to the Sanitizer.
type Option func(*Sanitizer)

// WithCeilings overrides or extends the default ceilings. Non-positive
// values remove the ceiling for that token.
func WithCeilings(ceilings map[string]float64) Option {
	return func(s *Sanitizer) {
		for token, c := range ceilings {
			k := strings.ToLower(strings.TrimSpace(token))
			if c <= 0 {
				delete(s.ceilings, k)
				continue
			}
			s.ceilings[k] = c
		}
	}
}

// NewSanitizer creates a Sanitizer seeded with DefaultCeilings.
func NewSanitizer(opts ...Option) *Sanitizer {
	s := &Sanitizer{ceilings: DefaultCeilings()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sanitize returns the price unchanged when it is within the token's ceiling.
// Prices above the ceiling are discarded, never clamped.
func (s *Sanitizer) Sanitize(token string, price float64) (float64, bool) {
	if price <= 0 {
		return 0, false
	}
	if c, ok := s.ceilings[strings.ToLower(token)]; ok && price > c {
		return 0, false
	}
	return price, true
}

// Ceiling reports the configured ceiling for token.
func (s *Sanitizer) Ceiling(token string) (float64, bool) {
	c, ok := s.ceilings[strings.ToLower(token)]
	return c, ok
}
