package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lorkus/scholarledger/internal/domain/model"
	"github.com/lorkus/scholarledger/internal/domain/payout"
	"github.com/lorkus/scholarledger/internal/domain/pricing"
	"github.com/lorkus/scholarledger/internal/domain/scoring"
	"github.com/lorkus/scholarledger/pkg/logger"
	"github.com/lorkus/scholarledger/pkg/metrics"
)

// TotalsRequest aggregates caller-supplied records. Season and Prices are
// optional; the current snapshot fills in whichever is missing. With a Season
// but no Prices and no snapshot, USD values are zero.
type TotalsRequest struct {
	Season      *model.SeasonWindow     `json:"season,omitempty"`
	Rewards     []model.RewardEvent     `json:"rewards"`
	Tournaments []model.TournamentEntry `json:"tournaments"`
	Prices      map[string]any          `json:"prices,omitempty"`

	// SkippedRewards and SkippedTournaments count rows dropped while decoding.
	SkippedRewards     int `json:"-"`
	SkippedTournaments int `json:"-"`
}

// UnmarshalJSON decodes rewards and tournaments one row at a time. A row that
// fails to decode is skipped and counted rather than failing the request.
func (r *TotalsRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Season      *model.SeasonWindow `json:"season"`
		Rewards     []json.RawMessage   `json:"rewards"`
		Tournaments []json.RawMessage   `json:"tournaments"`
		Prices      map[string]any      `json:"prices"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	*r = TotalsRequest{Season: raw.Season, Prices: raw.Prices}
	r.Rewards, r.SkippedRewards = decodeRows[model.RewardEvent](raw.Rewards)
	r.Tournaments, r.SkippedTournaments = decodeRows[model.TournamentEntry](raw.Tournaments)
	return nil
}

func decodeRows[T any](rows []json.RawMessage) ([]T, int) {
	out := make([]T, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		var v T
		if err := json.Unmarshal(row, &v); err != nil {
			skipped++
			continue
		}
		out = append(out, v)
	}
	return out, skipped
}

// Totals aggregates one player's season.
func (s *Service) Totals(ctx context.Context, req TotalsRequest) (model.AggregatedTotals, error) {
	w, quotes, err := s.resolveInputs(req.Season, req.Prices)
	if err != nil {
		return model.AggregatedTotals{}, err
	}
	if req.SkippedRewards > 0 || req.SkippedTournaments > 0 {
		metrics.RecordRowsSkipped("reward", req.SkippedRewards)
		metrics.RecordRowsSkipped("tournament", req.SkippedTournaments)
		if s.logger != nil {
			s.logger.Debug(ctx, "skipped malformed rows",
				logger.Int("rewards", req.SkippedRewards),
				logger.Int("tournaments", req.SkippedTournaments),
			)
		}
	}
	return s.aggregator.Aggregate(w, req.Rewards, req.Tournaments, quotes), nil
}

func (s *Service) resolveInputs(season *model.SeasonWindow, prices map[string]any) (model.SeasonWindow, pricing.Quotes, error) {
	var (
		w      model.SeasonWindow
		quotes pricing.Quotes
	)
	if season != nil {
		if season.Ends.Before(season.Starts) {
			return w, nil, fmt.Errorf("%w: %w", ErrInvalidRequest, model.ErrInvalidWindow)
		}
		w = *season
	}
	if prices != nil {
		quotes = pricing.NewSnapshot(prices, s.sanitizer)
	}
	if season != nil && prices != nil {
		return w, quotes, nil
	}

	snap, ok := s.snap.get()
	switch {
	case !ok && season == nil:
		return w, nil, ErrNoSnapshot
	case !ok:
		// Without quotes every token values at zero USD.
		return w, pricing.Quotes{}, nil
	}
	if season == nil {
		w = snap.Season
	}
	if prices == nil {
		quotes = snap.Quotes
	}
	return w, quotes, nil
}

// PayoutRequest splits an overall USD value. A nil ScholarPct and an empty
// Currency take the configured defaults.
type PayoutRequest struct {
	OverallUSD float64        `json:"overall_usd"`
	ScholarPct *float64       `json:"scholar_pct,omitempty"`
	Currency   string         `json:"currency,omitempty"`
	Prices     map[string]any `json:"prices,omitempty"`
}

// PayoutResult is the split plus the scholar share in the payout currency.
// Rendering is nil and Display is "-" when no quote exists for Currency.
type PayoutResult struct {
	payout.Share
	Currency  string            `json:"currency"`
	Rendering *payout.Rendering `json:"rendering,omitempty"`
	Display   string            `json:"display"`
}

// Payout splits the overall value and renders the scholar share.
func (s *Service) Payout(_ context.Context, req PayoutRequest) (PayoutResult, error) {
	pct := s.scholarPct
	if req.ScholarPct != nil {
		pct = *req.ScholarPct
	}
	share, err := payout.Split(req.OverallUSD, pct)
	if err != nil {
		return PayoutResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.payoutCurrency
	}

	var quotes pricing.Quotes
	switch {
	case req.Prices != nil:
		quotes = pricing.NewSnapshot(req.Prices, s.sanitizer)
	default:
		if snap, ok := s.snap.get(); ok {
			quotes = snap.Quotes
		}
	}

	res := PayoutResult{Share: share, Currency: currency, Display: "-"}
	r, err := payout.Render(share.ScholarUSD, currency, quotes)
	switch {
	case err == nil:
		res.Rendering = &r
		res.Display = r.String()
	case errors.Is(err, payout.ErrNoQuote):
	default:
		return PayoutResult{}, err
	}
	return res, nil
}

// SeriesRequest scores a tournament series. When Events is empty and the
// config names an organizer, events and results are fetched from the feed.
type SeriesRequest struct {
	Config  scoring.SeriesConfig `json:"config"`
	Events  []scoring.Event      `json:"events,omitempty"`
	Results []scoring.ResultRow  `json:"results,omitempty"`
}

// SeriesResult is a ranked series with its cutoff marker rendered in Lines.
// Suggestions lists near-miss event names when the name filter selected
// nothing.
type SeriesResult struct {
	Name        string              `json:"name"`
	Scheme      scoring.Scheme      `json:"scheme"`
	Events      []scoring.Event     `json:"events"`
	Leaderboard scoring.Leaderboard `json:"leaderboard"`
	Lines       []scoring.Line      `json:"lines"`
	Gaps        []scoring.ResultRow `json:"gaps,omitempty"`
	Suggestions []string            `json:"suggestions,omitempty"`
}

const maxSuggestions = 5

// SeriesLeaderboard selects the series events, scores them with the
// configured scheme and applies the qualification cutoff.
func (s *Service) SeriesLeaderboard(ctx context.Context, req SeriesRequest) (SeriesResult, error) {
	cfg := req.Config
	events, results := req.Events, req.Results

	if len(events) == 0 {
		organizer := strings.TrimSpace(cfg.Organizer)
		if organizer == "" {
			return SeriesResult{}, fmt.Errorf("%w: events or organizer required", ErrInvalidRequest)
		}
		if s.feed == nil {
			return SeriesResult{}, ErrNotStarted
		}
		hosted, err := s.feed.HostedTournaments(ctx, organizer)
		if err != nil {
			return SeriesResult{}, fmt.Errorf("list hosted tournaments: %w", err)
		}
		events = hosted
		results = nil
	}

	selected := scoring.SelectEvents(cfg, events)

	if len(req.Events) == 0 {
		for _, ev := range selected {
			rows, err := s.feed.TournamentResults(ctx, ev.TournamentID, cfg.Organizer)
			if err != nil {
				return SeriesResult{}, fmt.Errorf("tournament %s results: %w", ev.TournamentID, err)
			}
			results = append(results, rows...)
		}
	}

	scheme := s.registry.Resolve(cfg.PointScheme)
	if len(selected) == 0 {
		return SeriesResult{
			Name:        cfg.Name,
			Scheme:      scheme,
			Events:      []scoring.Event{},
			Leaderboard: scoring.ApplyCutoff([]scoring.PlayerSeriesTotals{}, cfg.QualificationCutoff),
			Lines:       []scoring.Line{},
			Suggestions: scoring.SuggestNames(cfg.NameFilter, events, maxSuggestions),
		}, nil
	}

	rows := scoring.Score(selected, results, scheme)
	if len(rows) > s.maxLeaderboardRows {
		rows = rows[:s.maxLeaderboardRows]
	}
	gaps := scoring.Gaps(inEvents(results, selected), scheme)
	if len(gaps) > 0 && s.logger != nil {
		s.logger.Warn(ctx, "finishes not covered by points scheme",
			logger.String("scheme", scheme.Slug),
			logger.Int("rows", len(gaps)),
		)
	}

	lb := scoring.ApplyCutoff(rows, cfg.QualificationCutoff)
	return SeriesResult{
		Name:        cfg.Name,
		Scheme:      scheme,
		Events:      selected,
		Leaderboard: lb,
		Lines:       lb.Lines(),
		Gaps:        gaps,
	}, nil
}

// Schemes lists the registered points schemes ordered by slug.
func (s *Service) Schemes() []scoring.Scheme { return s.registry.List() }

func inEvents(rows []scoring.ResultRow, events []scoring.Event) []scoring.ResultRow {
	ids := make(map[string]struct{}, len(events))
	for _, ev := range events {
		ids[ev.TournamentID] = struct{}{}
	}
	out := make([]scoring.ResultRow, 0, len(rows))
	for _, r := range rows {
		if _, ok := ids[r.TournamentID]; ok {
			out = append(out, r)
		}
	}
	return out
}
