package feed

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lorkus/scholarledger/internal/domain/dedupe"
	"github.com/lorkus/scholarledger/internal/domain/model"
	"github.com/lorkus/scholarledger/pkg/logger"
)

// Rewards pages through a player's unclaimed balance history until the
// season start is covered. Zero and negative adjustments are skipped, dated
// rows outside the window are dropped, and rows without a timestamp are kept
// for the season filter to decide. Results are newest first.
func (c *Client) Rewards(ctx context.Context, username, tokenType string, w model.SeasonWindow) ([]model.RewardEvent, error) {
	if tokenType == "" {
		tokenType = DefaultRewardToken
	}
	seen := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

	var out []model.RewardEvent
	for offset := 0; ; offset += c.pageSize {
		params := url.Values{}
		params.Set("username", username)
		params.Set("token_type", tokenType)
		params.Set("offset", strconv.Itoa(offset))
		params.Set("limit", strconv.Itoa(c.pageSize))

		var page []any
		if err := c.getJSON(ctx, "unclaimed_balance_history", c.baseURL+"/players/unclaimed_balance_history", params, &page); err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		var oldest time.Time
		for _, item := range page {
			raw, ok := item.(map[string]any)
			if !ok {
				continue
			}
			at := parseTime(raw["created_date"])
			if !at.IsZero() && (oldest.IsZero() || at.Before(oldest)) {
				oldest = at
			}
			amount, ok := coerceFloat(raw["amount"])
			if !ok || amount <= 0 {
				continue
			}
			if !at.IsZero() && !w.Contains(at) {
				continue
			}
			ev := model.RewardEvent{
				ID:         str(raw["id"]),
				Player:     orDefault(str(raw["player"]), username),
				Token:      orDefault(str(raw["token"]), tokenType),
				Amount:     amount,
				Category:   strings.ToLower(str(raw["type"])),
				OccurredAt: at,
			}
			if ev.ID != "" && seen.SeenAndRecord(ctx, ev.ID) {
				continue
			}
			out = append(out, ev)
		}

		if !oldest.IsZero() && oldest.Before(w.Starts) {
			break
		}
		if len(page) < c.pageSize {
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	c.logger.Debug(ctx, "rewards fetched",
		logger.String("username", username),
		logger.String("token", tokenType),
		logger.Int("count", len(out)),
	)
	return out, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
