package scoring

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lorkus/scholarledger/pkg/metrics"
)

// Event is one tournament in a series.
type Event struct {
	TournamentID string     `json:"tournament_id"`
	Name         string     `json:"name"`
	Organizer    string     `json:"organizer,omitempty"`
	StartDate    *time.Time `json:"start_date"`
}

// ResultRow is one player's finish in one event. A nil Finish means the
// player did not place.
type ResultRow struct {
	TournamentID string `json:"tournament_id"`
	Player       string `json:"player"`
	Finish       *int   `json:"finish"`
}

// PlayerSeriesTotals accumulates a player's results across a series.
type PlayerSeriesTotals struct {
	Player     string    `json:"player"`
	Points     float64   `json:"points"`
	Events     int       `json:"events"`
	Finishes   []float64 `json:"finishes"`
	Podiums    int       `json:"podiums"`
	AvgFinish  *float64  `json:"avg_finish"`
	BestFinish *float64  `json:"best_finish"`
}

func (t *PlayerSeriesTotals) add(points float64, finish *int) {
	t.Points += points
	t.Events++
	if finish == nil {
		return
	}
	t.Finishes = append(t.Finishes, float64(*finish))
	if *finish >= 1 && *finish <= 3 {
		t.Podiums++
	}
}

func (t *PlayerSeriesTotals) finalize() {
	if len(t.Finishes) == 0 {
		return
	}
	sum, best := 0.0, t.Finishes[0]
	for _, f := range t.Finishes {
		sum += f
		best = min(best, f)
	}
	avg := sum / float64(len(t.Finishes))
	t.AvgFinish = &avg
	t.BestFinish = &best
}

// Score folds result rows into per-player totals ranked by points, highest
// first, ties broken by player name. When events is non-empty only rows for
// those events count. Rows without a player name are skipped.
func Score(events []Event, rows []ResultRow, scheme Scheme) []PlayerSeriesTotals {
	var allowed map[string]struct{}
	if len(events) > 0 {
		allowed = make(map[string]struct{}, len(events))
		for _, e := range events {
			allowed[e.TournamentID] = struct{}{}
		}
	}

	byPlayer := map[string]*PlayerSeriesTotals{}
	for _, row := range rows {
		if allowed != nil {
			if _, ok := allowed[row.TournamentID]; !ok {
				continue
			}
		}
		player := strings.TrimSpace(row.Player)
		if player == "" {
			continue
		}
		points, matched := scheme.PointsFor(row.Finish)
		if !matched {
			metrics.RecordSchemeGap(scheme.Slug)
		}
		acc, ok := byPlayer[player]
		if !ok {
			acc = &PlayerSeriesTotals{Player: player}
			byPlayer[player] = acc
		}
		acc.add(points, row.Finish)
	}

	out := make([]PlayerSeriesTotals, 0, len(byPlayer))
	for _, acc := range byPlayer {
		acc.finalize()
		out = append(out, *acc)
	}
	slices.SortFunc(out, func(a, b PlayerSeriesTotals) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		return cmp.Compare(a.Player, b.Player)
	})
	return out
}

// Gaps returns the rows whose finish no rule of scheme covers.
func Gaps(rows []ResultRow, scheme Scheme) []ResultRow {
	var gaps []ResultRow
	for _, row := range rows {
		if _, matched := scheme.PointsFor(row.Finish); !matched {
			gaps = append(gaps, row)
		}
	}
	return gaps
}

// Leaderboard is a ranked series with an optional qualification cutoff.
type Leaderboard struct {
	Rows      []PlayerSeriesTotals `json:"rows"`
	Cutoff    float64              `json:"cutoff"`
	Qualified int                  `json:"qualified"`
}

// ApplyCutoff marks the leading rows with at least cutoff points as
// qualified. Rows must already be ranked; the cutoff is positional and never
// re-sorts. A cutoff of zero or less disables qualification.
func ApplyCutoff(rows []PlayerSeriesTotals, cutoff float64) Leaderboard {
	lb := Leaderboard{Rows: rows, Cutoff: cutoff}
	if cutoff <= 0 {
		return lb
	}
	for i, r := range rows {
		if r.Points >= cutoff {
			lb.Qualified = i + 1
		}
	}
	return lb
}

// Line is one entry of a rendered leaderboard: a ranked row or the cutoff
// marker.
type Line struct {
	Rank      int                 `json:"rank,omitempty"`
	Row       *PlayerSeriesTotals `json:"row,omitempty"`
	Qualified bool                `json:"qualified"`
	Marker    string              `json:"marker,omitempty"`
}

// Lines renders the leaderboard with the cutoff marker inserted right after
// the last qualifying row.
func (lb Leaderboard) Lines() []Line {
	lines := make([]Line, 0, len(lb.Rows)+1)
	for i := range lb.Rows {
		lines = append(lines, Line{Rank: i + 1, Row: &lb.Rows[i], Qualified: i < lb.Qualified})
		if lb.Qualified > 0 && i+1 == lb.Qualified {
			lines = append(lines, Line{Marker: fmt.Sprintf("Cutoff at %g pts", lb.Cutoff)})
		}
	}
	return lines
}
