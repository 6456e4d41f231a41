// Package season restricts event streams to a season window.
package season

import "github.com/lorkus/scholarledger/internal/domain/model"

// FilterRewards keeps rewards inside w. Rewards without a timestamp are kept
// because the window cannot rule them out.
func FilterRewards(w model.SeasonWindow, rewards []model.RewardEvent) []model.RewardEvent {
	out := make([]model.RewardEvent, 0, len(rewards))
	for _, r := range rewards {
		if r.HasTimestamp() && !w.Contains(r.OccurredAt) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterTournaments keeps tournaments that started inside w, plus those with
// no known start date.
func FilterTournaments(w model.SeasonWindow, entries []model.TournamentEntry) []model.TournamentEntry {
	out := make([]model.TournamentEntry, 0, len(entries))
	for _, e := range entries {
		if e.StartDate != nil && !w.Contains(*e.StartDate) {
			continue
		}
		out = append(out, e)
	}
	return out
}
