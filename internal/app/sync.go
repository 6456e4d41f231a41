package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	eventqueue "github.com/lorkus/scholarledger/internal/adapters/mq/queue"
	"github.com/lorkus/scholarledger/internal/adapters/repository"
	"github.com/lorkus/scholarledger/internal/domain/model"
	"github.com/lorkus/scholarledger/internal/domain/payout"
	"github.com/lorkus/scholarledger/internal/domain/pricing"
	"github.com/lorkus/scholarledger/pkg/logger"
)

// SyncRequest asks for one account's season to be refreshed in the
// background. RequestID is optional; a repeated id is acknowledged without
// queueing a second job.
type SyncRequest struct {
	RequestID  string   `json:"request_id,omitempty"`
	Username   string   `json:"username"`
	ScholarPct *float64 `json:"scholar_pct,omitempty"`
	Currency   string   `json:"currency,omitempty"`
}

// EnqueueSync validates req and queues a sync job. It returns the job id and
// whether the request id was already seen.
func (s *Service) EnqueueSync(ctx context.Context, req SyncRequest) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return "", false, ErrNotStarted
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return "", false, fmt.Errorf("%w: username required", ErrInvalidRequest)
	}
	pct := s.scholarPct
	if req.ScholarPct != nil {
		pct = *req.ScholarPct
	}
	if err := payout.CheckPercent(pct); err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.payoutCurrency
	}

	id := strings.TrimSpace(req.RequestID)
	if id != "" {
		if s.deduper.SeenAndRecord(ctx, id) {
			s.logger.Debug(ctx, "duplicate sync request", logger.String("request_id", id))
			return id, true, nil
		}
	} else {
		id = uuid.NewString()
	}

	job := model.SyncJob{
		ID:          id,
		Username:    username,
		ScholarPct:  pct,
		Currency:    currency,
		RequestedAt: time.Now().UTC(),
	}
	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		if req.RequestID != "" {
			s.deduper.Unrecord(ctx, id)
		}
		if errors.Is(err, eventqueue.ErrFull) {
			return "", false, ErrBackpressure
		}
		return "", false, fmt.Errorf("enqueue sync job: %w", err)
	}
	return id, false, nil
}

// Process runs one sync job: it pulls the account's rewards and tournaments
// for the current season, aggregates them and saves the season record. The
// payout split is derived from the record when history is read. Workers call it; it must not take s.mu.
func (s *Service) Process(ctx context.Context, job model.SyncJob) error {
	if err := payout.CheckPercent(job.ScholarPct); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	w, quotes, err := s.syncInputs(ctx)
	if err != nil {
		return err
	}

	var rewards []model.RewardEvent
	for _, token := range s.rewardTokens {
		batch, err := s.feed.Rewards(ctx, job.Username, token, w)
		if err != nil {
			return fmt.Errorf("fetch %s rewards: %w", token, err)
		}
		rewards = append(rewards, batch...)
	}
	tournaments, err := s.feed.Tournaments(ctx, job.Username, w, s.tournamentLimit)
	if err != nil {
		return fmt.Errorf("fetch tournaments: %w", err)
	}

	totals := s.aggregator.Aggregate(w, rewards, tournaments, quotes)

	rec := repository.NewSeasonRecord(job.Username, w, totals, job.ScholarPct, job.Currency)
	if err := s.store.SaveSeason(ctx, rec); err != nil {
		return fmt.Errorf("save season record: %w", err)
	}

	s.logger.Debug(ctx, "season record synced",
		logger.String("job_id", job.ID),
		logger.String("username", rec.Username),
		logger.Int("season", w.ID),
		logger.Int("rewards", len(rewards)),
		logger.Int("tournaments", len(tournaments)),
		logger.Float64("overall_usd", totals.Overall.USD),
	)
	return nil
}

// syncInputs prefers the cached snapshot and falls back to a direct fetch
// when none was ever loaded. Missing prices only zero the USD values.
func (s *Service) syncInputs(ctx context.Context) (model.SeasonWindow, pricing.Quotes, error) {
	if snap, ok := s.snap.get(); ok {
		return snap.Season, snap.Quotes, nil
	}
	w, err := s.feed.Season(ctx)
	if err != nil {
		return model.SeasonWindow{}, nil, fmt.Errorf("%w: %w", ErrNoSnapshot, err)
	}
	quotes := pricing.Quotes{}
	if raw, err := s.feed.Prices(ctx); err == nil {
		quotes = pricing.NewSnapshot(raw, s.sanitizer)
	} else {
		s.logger.Warn(ctx, "prices unavailable for sync", logger.Error(err))
	}
	return w, quotes, nil
}

// HistoryEntry is a stored season with totals and split re-derived from it.
type HistoryEntry struct {
	Record repository.SeasonRecord `json:"record"`
	Totals model.AggregatedTotals  `json:"totals"`
	Share  *payout.Share           `json:"share,omitempty"`
}

// History returns username's stored seasons, newest first.
func (s *Service) History(ctx context.Context, username string) ([]HistoryEntry, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username required", ErrInvalidRequest)
	}
	if s.store == nil {
		return nil, ErrNotStarted
	}
	recs, err := s.store.SeasonHistory(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("season history: %w", err)
	}

	out := make([]HistoryEntry, 0, len(recs))
	for _, rec := range recs {
		e := HistoryEntry{Record: rec, Totals: rec.Totals()}
		if share, err := payout.Split(e.Totals.Overall.USD, rec.ScholarPct); err == nil {
			e.Share = &share
		}
		out = append(out, e)
	}
	return out, nil
}

// UpdateCurrency changes the payout currency stored for one season.
func (s *Service) UpdateCurrency(ctx context.Context, username string, seasonID int, currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if strings.TrimSpace(username) == "" || seasonID <= 0 || currency == "" {
		return fmt.Errorf("%w: username, season and currency required", ErrInvalidRequest)
	}
	if s.store == nil {
		return ErrNotStarted
	}
	return s.store.UpdateCurrency(ctx, username, seasonID, currency)
}
