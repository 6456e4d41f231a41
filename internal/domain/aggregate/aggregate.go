// Package aggregate folds a player's season into per-category totals.
package aggregate

import (
	"strings"

	"github.com/lorkus/scholarledger/internal/domain/ledger"
	"github.com/lorkus/scholarledger/internal/domain/model"
	"github.com/lorkus/scholarledger/internal/domain/pricing"
	"github.com/lorkus/scholarledger/internal/domain/season"
	"github.com/lorkus/scholarledger/pkg/metrics"
)

// Default reward categories.
var (
	DefaultRankedCategories = []string{"modern", "wild", "survival"}
	DefaultBrawlCategories  = []string{"brawl"}
)

// Aggregator classifies rewards and values every bucket. It holds no mutable
// state after construction and is safe for concurrent use.
type Aggregator struct {
	ranked map[string]struct{}
	brawl  map[string]struct{}
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithRankedCategories replaces the set of ranked reward categories.
func WithRankedCategories(categories []string) Option {
	return func(a *Aggregator) {
		if len(categories) > 0 {
			a.ranked = toSet(categories)
		}
	}
}

// WithBrawlCategories replaces the set of brawl reward categories.
func WithBrawlCategories(categories []string) Option {
	return func(a *Aggregator) {
		if len(categories) > 0 {
			a.brawl = toSet(categories)
		}
	}
}

// New creates an Aggregator using the default categories unless overridden.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		ranked: toSet(DefaultRankedCategories),
		brawl:  toSet(DefaultBrawlCategories),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

// Aggregate filters both streams to w and computes every bucket. Rewards
// outside the ranked and brawl categories are excluded from all totals.
func (a *Aggregator) Aggregate(
	w model.SeasonWindow,
	rewards []model.RewardEvent,
	tournaments []model.TournamentEntry,
	quotes pricing.Quotes,
) model.AggregatedTotals {
	rewards = season.FilterRewards(w, rewards)
	tournaments = season.FilterTournaments(w, tournaments)

	var ranked, brawl []model.RewardEvent
	for _, r := range rewards {
		category := strings.ToLower(strings.TrimSpace(r.Category))
		if _, ok := a.ranked[category]; ok {
			ranked = append(ranked, r)
			continue
		}
		if _, ok := a.brawl[category]; ok {
			brawl = append(brawl, r)
		}
	}

	var prizes, fees []model.TokenAmount
	for _, t := range tournaments {
		prizes = append(prizes, t.PrizeTokens...)
		if t.EntryFee != nil {
			fees = append(fees, *t.EntryFee)
		}
	}

	rankedLedger := ledger.FromRewards(ranked)
	brawlLedger := ledger.FromRewards(brawl)
	prizeLedger := ledger.FromAmounts(prizes)

	overall := ledger.Ledger{}
	for _, bucket := range []ledger.Ledger{rankedLedger, brawlLedger, prizeLedger} {
		for token, amount := range bucket {
			overall[token] += amount
		}
	}

	metrics.RecordAggregation()
	return model.AggregatedTotals{
		Ranked:     rankedLedger.Totals(quotes),
		Brawl:      brawlLedger.Totals(quotes),
		Tournament: prizeLedger.Totals(quotes),
		EntryFees:  ledger.FromAmounts(fees).Totals(quotes),
		Overall:    overall.Totals(quotes),
	}
}
