// Package pricing turns raw price-feed payloads into sanitized USD quotes.
package pricing

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// accessor pulls a candidate value out of an object-shaped quote.
type accessor func(map[string]any) (any, bool)

func key(name string) accessor {
	return func(m map[string]any) (any, bool) {
		v, ok := m[name]
		return v, ok
	}
}

// candidates are tried in order; the first numeric hit decides.
var candidates = []accessor{
	key("usd"),
	key("USD"),
	key("price"),
	key("last"),
	key("close"),
}

// ExtractQuote reads a USD price from a bare number, a numeric string or an
// object carrying one of the candidate fields. Values that are not strictly
// positive are reported as absent.
func ExtractQuote(v any) (float64, bool) {
	if f, ok := asNumber(v); ok {
		return positive(f)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return 0, false
	}
	for _, get := range candidates {
		raw, present := get(obj)
		if !present {
			continue
		}
		if f, ok := asNumber(raw); ok {
			return positive(f)
		}
	}
	// Fall back to any numeric field, visited in key order so the pick is
	// stable across map iterations.
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if f, ok := asNumber(obj[k]); ok {
			return positive(f)
		}
	}
	return 0, false
}

func positive(f float64) (float64, bool) {
	if f <= 0 {
		return 0, false
	}
	return f, true
}

// asNumber accepts JSON numbers in their decoded forms and numeric strings.
// Booleans are not numbers.
func asNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
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
