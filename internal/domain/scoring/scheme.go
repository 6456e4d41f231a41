// Package scoring awards points per tournament finish and ranks players
// across a series of tournaments.
package scoring

import "strings"

// Scheme modes.
const (
	ModeFixed      = "fixed"
	ModeMultiplier = "multiplier"
)

// Rule covers finishes in [Min, Max]. A nil Max is open-ended.
type Rule struct {
	Min        int      `json:"min" koanf:"min"`
	Max        *int     `json:"max" koanf:"max"`
	Points     *float64 `json:"points,omitempty" koanf:"points"`
	Multiplier *float64 `json:"multiplier,omitempty" koanf:"multiplier"`
}

func (r Rule) covers(finish int) bool {
	return r.Min <= finish && (r.Max == nil || finish <= *r.Max)
}

// Scheme maps finishing positions to points.
type Scheme struct {
	Slug       string  `json:"slug" koanf:"slug"`
	Label      string  `json:"label" koanf:"label"`
	Mode       string  `json:"mode" koanf:"mode"`
	BasePoints float64 `json:"base_points" koanf:"base_points"`
	DNPPoints  float64 `json:"dnp_points" koanf:"dnp_points"`
	Rules      []Rule  `json:"rules" koanf:"rules"`
}

// IsMultiplier reports whether the scheme scales BasePoints. Any mode other
// than "multiplier" is fixed.
func (s Scheme) IsMultiplier() bool {
	return strings.EqualFold(strings.TrimSpace(s.Mode), ModeMultiplier)
}

// PointsFor awards points for a finish. A nil finish scores DNPPoints. The
// first rule covering the finish decides; matched is false when no rule
// does, in which case DNPPoints is returned as well.
func (s Scheme) PointsFor(finish *int) (points float64, matched bool) {
	if finish == nil {
		return s.DNPPoints, true
	}
	for _, r := range s.Rules {
		if !r.covers(*finish) {
			continue
		}
		if s.IsMultiplier() {
			m := 1.0
			if r.Multiplier != nil {
				m = *r.Multiplier
			}
			return s.BasePoints * m, true
		}
		p := 0.0
		if r.Points != nil {
			p = *r.Points
		}
		return s.BasePoints + p, true
	}
	return s.DNPPoints, false
}
