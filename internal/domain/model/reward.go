// Package model contains domain models passed between layers.
package model

import "time"

// TokenAmount is a quantity of one token symbol.
type TokenAmount struct {
	Token  string  `json:"token"`
	Amount float64 `json:"amount"`
}

// RewardEvent is a single reward payout credited to a player.
// Category is the reward type reported by the feed, e.g. "modern", "wild",
// "survival" or "brawl". A zero OccurredAt means the feed gave no timestamp.
type RewardEvent struct {
	ID         string    `json:"id"`
	Player     string    `json:"player"`
	Token      string    `json:"token"`
	Amount     float64   `json:"amount"`
	Category   string    `json:"category"`
	OccurredAt time.Time `json:"occurred_at"`
}

// HasTimestamp reports whether the feed supplied a timestamp for the reward.
func (r RewardEvent) HasTimestamp() bool { return !r.OccurredAt.IsZero() }

// TournamentEntry is one player's participation in one tournament.
type TournamentEntry struct {
	TournamentID string        `json:"tournament_id"`
	Name         string        `json:"name"`
	Player       string        `json:"player"`
	StartDate    *time.Time    `json:"start_date"`
	EntryFee     *TokenAmount  `json:"entry_fee"`
	PrizeTokens  []TokenAmount `json:"prize_tokens"`
	Finish       *int          `json:"finish"`
}
