package scoring

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// SeriesConfig describes which hosted tournaments form a series and how they
// are scored.
type SeriesConfig struct {
	Name                string     `json:"name"`
	Organizer           string     `json:"organizer"`
	PointScheme         string     `json:"point_scheme"`
	NameFilter          string     `json:"name_filter"`
	IncludeIDs          []string   `json:"include_ids"`
	ExcludeIDs          []string   `json:"exclude_ids"`
	IncludeAfter        *time.Time `json:"include_after"`
	IncludeBefore       *time.Time `json:"include_before"`
	QualificationCutoff float64    `json:"qualification_cutoff"`
	Limit               int        `json:"limit"`
}

// SelectEvents applies the config filters to a list of hosted events and
// returns the newest first. Events without a start date are never excluded
// by the date bounds. The name filter is a case-insensitive substring match
// against the event name, or its id when the name is empty.
func SelectEvents(cfg SeriesConfig, events []Event) []Event {
	include := toLookup(cfg.IncludeIDs)
	exclude := toLookup(cfg.ExcludeIDs)
	filter := strings.ToLower(strings.TrimSpace(cfg.NameFilter))

	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.StartDate != nil {
			if cfg.IncludeAfter != nil && e.StartDate.Before(*cfg.IncludeAfter) {
				continue
			}
			if cfg.IncludeBefore != nil && e.StartDate.After(*cfg.IncludeBefore) {
				continue
			}
		}
		if filter != "" {
			if !strings.Contains(strings.ToLower(eventLabel(e)), filter) {
				continue
			}
		}
		if len(include) > 0 {
			if _, ok := include[e.TournamentID]; !ok {
				continue
			}
		}
		if _, ok := exclude[e.TournamentID]; ok {
			continue
		}
		out = append(out, e)
	}

	slices.SortStableFunc(out, func(a, b Event) int {
		return cmp.Compare(startUnix(b), startUnix(a))
	})
	if cfg.Limit > 0 && len(out) > cfg.Limit {
		out = out[:cfg.Limit]
	}
	return out
}

// SuggestNames ranks event labels that loosely match filter, closest first,
// for a name filter that selected nothing. At most n labels are returned.
func SuggestNames(filter string, events []Event, n int) []string {
	filter = strings.TrimSpace(filter)
	if filter == "" || n <= 0 {
		return nil
	}
	labels := make([]string, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		l := eventLabel(e)
		if _, ok := seen[l]; ok || l == "" {
			continue
		}
		seen[l] = struct{}{}
		labels = append(labels, l)
	}

	ranks := fuzzy.RankFindFold(filter, labels)
	slices.SortStableFunc(ranks, func(a, b fuzzy.Rank) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Target, b.Target)
	})
	if len(ranks) > n {
		ranks = ranks[:n]
	}
	out := make([]string, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, r.Target)
	}
	return out
}

func eventLabel(e Event) string {
	if e.Name != "" {
		return e.Name
	}
	return e.TournamentID
}

func startUnix(e Event) int64 {
	if e.StartDate == nil {
		return 0
	}
	return e.StartDate.Unix()
}

func toLookup(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}
