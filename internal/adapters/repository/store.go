// Package repository persists per-season reward records.
package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lorkus/scholarledger/internal/domain/model"
)

// SeasonRecord is one player's aggregated season, as last synced.
type SeasonRecord struct {
	ID             uuid.UUID            `json:"id"`
	Username       string               `json:"username"`
	SeasonID       int                  `json:"season_id"`
	SeasonStart    time.Time            `json:"season_start"`
	SeasonEnd      time.Time            `json:"season_end"`
	Ranked         model.CategoryTotals `json:"ranked"`
	Brawl          model.CategoryTotals `json:"brawl"`
	Tournament     model.CategoryTotals `json:"tournament"`
	EntryFees      model.CategoryTotals `json:"entry_fees"`
	OverallUSD     *float64             `json:"overall_usd"`
	ScholarPct     float64              `json:"scholar_pct"`
	PayoutCurrency string               `json:"payout_currency"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// NewSeasonRecord captures aggregated totals for username in window w.
func NewSeasonRecord(username string, w model.SeasonWindow, t model.AggregatedTotals, scholarPct float64, currency string) SeasonRecord {
	overall := t.Overall.USD
	return SeasonRecord{
		ID:             uuid.New(),
		Username:       normalizeUser(username),
		SeasonID:       w.ID,
		SeasonStart:    w.Starts,
		SeasonEnd:      w.Ends,
		Ranked:         t.Ranked,
		Brawl:          t.Brawl,
		Tournament:     t.Tournament,
		EntryFees:      t.EntryFees,
		OverallUSD:     &overall,
		ScholarPct:     scholarPct,
		PayoutCurrency: currency,
		UpdatedAt:      time.Now().UTC(),
	}
}

// Totals rebuilds aggregated totals from the stored buckets. Overall tokens
// are the sum of ranked, brawl and tournament; when the overall USD value was
// not stored it falls back to the sum of those bucket values.
func (r SeasonRecord) Totals() model.AggregatedTotals {
	t := model.AggregatedTotals{
		Ranked:     withTokens(r.Ranked),
		Brawl:      withTokens(r.Brawl),
		Tournament: withTokens(r.Tournament),
		EntryFees:  withTokens(r.EntryFees),
		Overall:    model.NewCategoryTotals(),
	}
	for _, c := range []model.CategoryTotals{t.Ranked, t.Brawl, t.Tournament} {
		for tok, amt := range c.TokenAmounts {
			t.Overall.TokenAmounts[tok] += amt
		}
	}
	if r.OverallUSD != nil {
		t.Overall.USD = *r.OverallUSD
	} else {
		t.Overall.USD = t.Ranked.USD + t.Brawl.USD + t.Tournament.USD
	}
	return t
}

func withTokens(c model.CategoryTotals) model.CategoryTotals {
	if c.TokenAmounts == nil {
		c.TokenAmounts = map[string]float64{}
	}
	return c
}

func normalizeUser(u string) string { return strings.ToLower(strings.TrimSpace(u)) }

// Store provides read/write access to season records.
type Store interface {
	// SaveSeason upserts a record keyed by (username, season id). The first
	// record's id is kept across updates.
	SaveSeason(ctx context.Context, rec SeasonRecord) error

	// SeasonHistory returns a player's records, newest season first.
	SeasonHistory(ctx context.Context, username string) ([]SeasonRecord, error)

	// Latest returns the player's most recent season.
	// Returns ErrNotFound if the player has no records.
	Latest(ctx context.Context, username string) (SeasonRecord, error)

	// UpdateCurrency changes the payout currency of a stored season.
	// Returns ErrNotFound if the record does not exist.
	UpdateCurrency(ctx context.Context, username string, seasonID int, currency string) error

	// Count returns the number of stored records.
	Count(ctx context.Context) int

	Close() error
}
