package feed

import (
	"cmp"
	"context"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/lorkus/scholarledger/internal/domain/model"
	"github.com/lorkus/scholarledger/internal/domain/scoring"
	"github.com/lorkus/scholarledger/pkg/logger"
)

// futureSlack tolerates small clock skew on upstream start dates.
const futureSlack = 24 * time.Hour

// Tournaments lists a player's completed tournaments within the window,
// enriched from each tournament's detail payload. Listing stops at the first
// tournament that started before the window.
func (c *Client) Tournaments(ctx context.Context, username string, w model.SeasonWindow, limit int) ([]model.TournamentEntry, error) {
	params := url.Values{}
	params.Set("username", username)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var list []any
	if err := c.getJSON(ctx, "tournaments_completed", c.baseURL+"/tournaments/completed", params, &list); err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if raw, ok := item.(map[string]any); ok {
			rows = append(rows, raw)
		}
	}
	slices.SortStableFunc(rows, func(a, b map[string]any) int {
		return parseTime(b["start_date"]).Compare(parseTime(a["start_date"]))
	})

	cutoff := time.Now().UTC().Add(futureSlack)
	var out []model.TournamentEntry
	for _, raw := range rows {
		start := parseTimePtr(raw["start_date"])
		if start != nil && start.After(cutoff) {
			continue
		}
		entry := model.TournamentEntry{
			TournamentID: str(raw["id"]),
			Name:         orDefault(str(raw["name"]), "Tournament"),
			Player:       username,
			StartDate:    start,
			EntryFee:     parseEntryFee(raw["entry_fee"]),
		}

		detail := c.detail(ctx, entry.TournamentID, username)
		if fee := parseEntryFee(detail["entry_fee"]); fee != nil {
			entry.EntryFee = fee
		}
		if s := parseTimePtr(detail["start_date"]); s != nil {
			entry.StartDate = s
		}
		if p := findPlayer(detail, username); p != nil {
			entry.Finish = intPtr(p["finish"])
			entry.PrizeTokens = playerPrizes(p)
		}
		if len(entry.PrizeTokens) == 0 {
			entry.PrizeTokens = listPrizes(raw)
		}

		if entry.StartDate != nil {
			if entry.StartDate.Before(w.Starts) {
				break
			}
			if entry.StartDate.After(w.Ends) {
				continue
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

// detail fetches /tournaments/find. Failures are logged and yield nil, the
// list row alone is still usable.
func (c *Client) detail(ctx context.Context, id, username string) map[string]any {
	if id == "" {
		return nil
	}
	params := url.Values{}
	params.Set("id", id)
	params.Set("username", username)
	var payload map[string]any
	if err := c.getJSON(ctx, "tournaments_find", c.baseURL+"/tournaments/find", params, &payload); err != nil {
		c.logger.Debug(ctx, "tournament detail unavailable", logger.String("id", id), logger.Error(err))
		return nil
	}
	return payload
}

// HostedTournaments lists tournaments run by organizer, newest first.
func (c *Client) HostedTournaments(ctx context.Context, organizer string) ([]scoring.Event, error) {
	params := url.Values{}
	params.Set("username", organizer)
	var list []any
	if err := c.getJSON(ctx, "tournaments_mine", c.baseURL+"/tournaments/mine", params, &list); err != nil {
		return nil, err
	}
	out := make([]scoring.Event, 0, len(list))
	for _, item := range list {
		raw, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, scoring.Event{
			TournamentID: str(raw["id"]),
			Name:         orDefault(str(raw["name"]), "Tournament"),
			Organizer:    organizer,
			StartDate:    parseTimePtr(raw["start_date"]),
		})
	}
	slices.SortStableFunc(out, func(a, b scoring.Event) int {
		return cmp.Compare(unixOrMin(b.StartDate), unixOrMin(a.StartDate))
	})
	return out, nil
}

// TournamentResults returns each player's finish in one tournament.
func (c *Client) TournamentResults(ctx context.Context, id, organizer string) ([]scoring.ResultRow, error) {
	params := url.Values{}
	params.Set("id", id)
	params.Set("username", organizer)
	var payload map[string]any
	if err := c.getJSON(ctx, "tournaments_find", c.baseURL+"/tournaments/find", params, &payload); err != nil {
		return nil, err
	}
	players, _ := payload["players"].([]any)
	out := make([]scoring.ResultRow, 0, len(players))
	for _, item := range players {
		p, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := str(p["player"])
		if name == "" {
			continue
		}
		out = append(out, scoring.ResultRow{TournamentID: id, Player: name, Finish: intPtr(p["finish"])})
	}
	return out, nil
}

func unixOrMin(t *time.Time) int64 {
	if t == nil {
		return -1 << 63
	}
	return t.Unix()
}
