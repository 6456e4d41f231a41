package model

import (
	"errors"
	"time"
)

// DefaultSeasonLength is used when only the season end is known.
const DefaultSeasonLength = 15 * 24 * time.Hour

// ErrInvalidWindow is returned when a window ends before it starts.
var ErrInvalidWindow = errors.New("season window ends before it starts")

// SeasonWindow is a closed time interval [Starts, Ends] identified by ID.
type SeasonWindow struct {
	ID     int       `json:"id"`
	Starts time.Time `json:"starts"`
	Ends   time.Time `json:"ends"`
}

// NewSeasonWindow validates and builds a window. Times are normalized to UTC.
func NewSeasonWindow(id int, starts, ends time.Time) (SeasonWindow, error) {
	if ends.Before(starts) {
		return SeasonWindow{}, ErrInvalidWindow
	}
	return SeasonWindow{ID: id, Starts: starts.UTC(), Ends: ends.UTC()}, nil
}

// SeasonFromEnd derives a window of DefaultSeasonLength ending at ends.
func SeasonFromEnd(id int, ends time.Time) SeasonWindow {
	ends = ends.UTC()
	return SeasonWindow{ID: id, Starts: ends.Add(-DefaultSeasonLength), Ends: ends}
}

// SeasonFromSettings starts the window at the previous season's end when it
// is known, falling back to DefaultSeasonLength otherwise.
func SeasonFromSettings(id int, ends time.Time, previousEnds *time.Time) SeasonWindow {
	w := SeasonFromEnd(id, ends)
	if previousEnds != nil && !previousEnds.IsZero() && !previousEnds.After(ends) {
		w.Starts = previousEnds.UTC()
	}
	return w
}

// Contains reports whether t lies in the window, bounds included.
func (w SeasonWindow) Contains(t time.Time) bool {
	return !t.Before(w.Starts) && !t.After(w.Ends)
}

// Duration is the length of the window.
func (w SeasonWindow) Duration() time.Duration { return w.Ends.Sub(w.Starts) }

// Previous returns the window of equal length immediately before w.
func (w SeasonWindow) Previous() SeasonWindow {
	d := w.Duration()
	return SeasonWindow{ID: w.ID - 1, Starts: w.Starts.Add(-d), Ends: w.Ends.Add(-d)}
}
