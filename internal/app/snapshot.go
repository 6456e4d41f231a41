package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lorkus/scholarledger/internal/domain/model"
	"github.com/lorkus/scholarledger/internal/domain/pricing"
	"github.com/lorkus/scholarledger/pkg/logger"
	"github.com/lorkus/scholarledger/pkg/metrics"
)

// Snapshot is the season window and sanitized quotes the engine runs against.
// It is replaced wholesale on refresh and never mutated.
type Snapshot struct {
	Season      model.SeasonWindow `json:"season"`
	Quotes      pricing.Quotes     `json:"quotes"`
	RefreshedAt time.Time          `json:"refreshed_at"`
}

type snapshotCache struct {
	mu   sync.RWMutex
	snap *Snapshot
}

func (c *snapshotCache) get() (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return Snapshot{}, false
	}
	return *c.snap, true
}

func (c *snapshotCache) set(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = &s
}

// Snapshot returns the current snapshot, if one was ever loaded.
func (s *Service) Snapshot() (Snapshot, bool) { return s.snap.get() }

// RefreshSnapshots reloads the season and price snapshot from the feed. When
// only one half fails the previous value of that half is kept, so a price
// outage does not blank out totals.
func (s *Service) RefreshSnapshots(ctx context.Context) error {
	prev, hasPrev := s.snap.get()

	season, seasonErr := s.feed.Season(ctx)
	raw, pricesErr := s.feed.Prices(ctx)

	if seasonErr != nil && pricesErr != nil {
		metrics.RecordSnapshotRefresh("error")
		return fmt.Errorf("%w: season: %w; prices: %w", ErrNoSnapshot, seasonErr, pricesErr)
	}

	next := Snapshot{Season: season, RefreshedAt: time.Now().UTC()}
	if pricesErr == nil {
		next.Quotes = pricing.NewSnapshot(raw, s.sanitizer)
	} else {
		next.Quotes = prev.Quotes
		s.logger.Warn(ctx, "price refresh failed, keeping previous quotes", logger.Error(pricesErr))
	}
	if seasonErr != nil {
		if !hasPrev {
			metrics.RecordSnapshotRefresh("error")
			return fmt.Errorf("%w: season: %w", ErrNoSnapshot, seasonErr)
		}
		next.Season = prev.Season
		s.logger.Warn(ctx, "season refresh failed, keeping previous window", logger.Error(seasonErr))
	}
	if next.Quotes == nil {
		next.Quotes = pricing.Quotes{}
	}

	s.snap.set(next)
	status := "ok"
	if seasonErr != nil || pricesErr != nil {
		status = "partial"
	}
	metrics.RecordSnapshotRefresh(status)
	metrics.UpdateSnapshotLastUnix(next.RefreshedAt.Unix())
	s.logger.Debug(ctx, "snapshot refreshed",
		logger.Int("season", next.Season.ID),
		logger.Int("quotes", len(next.Quotes)),
		logger.String("status", status),
	)
	return nil
}
