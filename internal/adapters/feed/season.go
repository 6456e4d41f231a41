package feed

import (
	"context"
	"net/url"
	"strconv"

	"github.com/lorkus/scholarledger/internal/domain/model"
	"github.com/lorkus/scholarledger/pkg/logger"
)

// Season resolves the current season. The /season endpoint is preferred; the
// window announced by /settings is the fallback when it fails.
func (c *Client) Season(ctx context.Context) (model.SeasonWindow, error) {
	var settings map[string]any
	settingsErr := c.getJSON(ctx, "settings", c.baseURL+"/settings", nil, &settings)
	if settingsErr != nil {
		c.logger.Debug(ctx, "settings unavailable", logger.Error(settingsErr))
	}

	current, _ := settings["season"].(map[string]any)
	id, hasID := coerceInt(current["id"])

	params := url.Values{}
	if hasID {
		params.Set("id", strconv.Itoa(id))
	}
	var season map[string]any
	if err := c.getJSON(ctx, "season", c.baseURL+"/season", params, &season); err == nil {
		if ends := parseTime(season["ends"]); !ends.IsZero() {
			if resolved, ok := coerceInt(season["id"]); ok {
				id = resolved
			}
			return model.SeasonFromEnd(id, ends), nil
		}
	} else {
		c.logger.Debug(ctx, "season endpoint failed", logger.Error(err))
	}

	if ends := parseTime(current["ends"]); !ends.IsZero() {
		previous, _ := settings["previous_season"].(map[string]any)
		return model.SeasonFromSettings(id, ends, parseTimePtr(previous["ends"])), nil
	}
	return model.SeasonWindow{}, ErrNoSeason
}

// Prices fetches the raw price snapshot keyed by token symbol.
func (c *Client) Prices(ctx context.Context) (map[string]any, error) {
	var raw map[string]any
	if err := c.getJSON(ctx, "prices", c.priceURL, nil, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}
