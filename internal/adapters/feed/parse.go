package feed

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lorkus/scholarledger/internal/domain/model"
)

// timeLayouts are tried in order. Layouts without a zone are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseTime returns the zero time when v is not a recognizable timestamp.
func parseTime(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func parseTimePtr(v any) *time.Time {
	t := parseTime(v)
	if t.IsZero() {
		return nil
	}
	return &t
}

func coerceFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func coerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return int(f), true
		}
		return 0, false
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		f, ok := coerceFloat(v)
		return int(f), ok
	}
}

func intPtr(v any) *int {
	i, ok := coerceInt(v)
	if !ok {
		return nil
	}
	return &i
}

// str renders ids that arrive as either strings or numbers.
func str(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		if f, ok := coerceFloat(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return ""
	}
}

// parseEntryFee reads fees shaped like "400 DEC".
func parseEntryFee(v any) *model.TokenAmount {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return nil
	}
	amount, ok := coerceFloat(parts[0])
	if !ok {
		return nil
	}
	return &model.TokenAmount{Token: parts[1], Amount: amount}
}

// parsePrizePayload accepts a list of prize objects, a single prize object or
// either of those encoded as a JSON string.
func parsePrizePayload(v any) []model.TokenAmount {
	if s, ok := v.(string); ok {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		var decoded any
		if err := dec.Decode(&decoded); err != nil {
			return nil
		}
		v = decoded
	}

	var out []model.TokenAmount
	switch p := v.(type) {
	case []any:
		for _, item := range p {
			if obj, ok := item.(map[string]any); ok {
				if ta, ok := prizeFromObject(obj); ok {
					out = append(out, ta)
				}
			}
		}
	case map[string]any:
		if ta, ok := prizeFromObject(p); ok {
			out = append(out, ta)
		}
	}
	return out
}

func prizeFromObject(obj map[string]any) (model.TokenAmount, bool) {
	qty, ok := coerceFloat(firstPresent(obj, "qty", "amount", "value"))
	if !ok {
		return model.TokenAmount{}, false
	}
	token := str(firstPresent(obj, "type", "token"))
	if token == "" {
		return model.TokenAmount{}, false
	}
	return model.TokenAmount{Token: token, Amount: qty}, true
}

// firstPresent returns the first key holding a non-empty value.
func firstPresent(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v
	}
	return nil
}

// findPlayer locates username among a detail payload's players, falling back
// to current_player.
func findPlayer(detail map[string]any, username string) map[string]any {
	if detail == nil {
		return nil
	}
	if players, ok := detail["players"].([]any); ok {
		for _, item := range players {
			p, ok := item.(map[string]any)
			if ok && strings.EqualFold(str(p["player"]), username) {
				return p
			}
		}
	}
	if cur, ok := detail["current_player"].(map[string]any); ok && strings.EqualFold(str(cur["player"]), username) {
		return cur
	}
	return nil
}

func playerPrizes(p map[string]any) []model.TokenAmount {
	return parsePrizePayload(firstPresent(p, "ext_prize_info", "prize", "prizes", "player_prize"))
}

// listPrizes reads prizes attached to a /tournaments/completed row.
func listPrizes(raw map[string]any) []model.TokenAmount {
	for _, k := range []string{"player_prizes", "player_prize", "prize", "prizes"} {
		if v, ok := raw[k]; ok {
			return parsePrizePayload(v)
		}
	}
	return nil
}
