package repository

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lorkus/scholarledger/pkg/metrics"
)

// MemoryStore keeps season records in process memory, indexed by player and
// season id.
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[string]map[int]SeasonRecord
	total  int

	metricsUpdateInterval time.Duration
	historyLimit          int

	wg       sync.WaitGroup
	stopChan chan struct{}
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs a memory store with configuration options. The
// metrics updater runs until ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byUser:                make(map[string]map[int]SeasonRecord),
		metricsUpdateInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)
	return s
}

// SaveSeason implements Store.SaveSeason.
func (s *MemoryStore) SaveSeason(_ context.Context, rec SeasonRecord) error {
	if err := validate(&rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seasons, ok := s.byUser[rec.Username]
	if !ok {
		seasons = make(map[int]SeasonRecord)
		s.byUser[rec.Username] = seasons
	}
	if prev, exists := seasons[rec.SeasonID]; exists {
		rec.ID = prev.ID
	} else {
		s.total++
	}
	seasons[rec.SeasonID] = rec

	if s.historyLimit > 0 && len(seasons) > s.historyLimit {
		ids := slices.Sorted(maps.Keys(seasons))
		for _, id := range ids[:len(ids)-s.historyLimit] {
			delete(seasons, id)
			s.total--
		}
	}
	metrics.RecordRecordSaved()
	return nil
}

// SeasonHistory implements Store.SeasonHistory.
func (s *MemoryStore) SeasonHistory(_ context.Context, username string) ([]SeasonRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seasons := s.byUser[normalizeUser(username)]
	out := make([]SeasonRecord, 0, len(seasons))
	for _, rec := range seasons {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b SeasonRecord) int { return cmp.Compare(b.SeasonID, a.SeasonID) })
	return out, nil
}

// Latest implements Store.Latest.
func (s *MemoryStore) Latest(ctx context.Context, username string) (SeasonRecord, error) {
	history, err := s.SeasonHistory(ctx, username)
	if err != nil {
		return SeasonRecord{}, err
	}
	if len(history) == 0 {
		return SeasonRecord{}, ErrNotFound
	}
	return history[0], nil
}

// UpdateCurrency implements Store.UpdateCurrency.
func (s *MemoryStore) UpdateCurrency(_ context.Context, username string, seasonID int, currency string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seasons := s.byUser[normalizeUser(username)]
	rec, ok := seasons[seasonID]
	if !ok {
		return ErrNotFound
	}
	rec.PayoutCurrency = currency
	rec.UpdatedAt = time.Now().UTC()
	seasons[seasonID] = rec
	return nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateRecordsTotal(s.Count(ctx))
			}
		}
	}()
}

// validate normalizes rec in place and rejects records that cannot be keyed.
func validate(rec *SeasonRecord) error {
	rec.Username = normalizeUser(rec.Username)
	if rec.Username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidRecord)
	}
	if rec.SeasonID <= 0 {
		return fmt.Errorf("%w: season id must be positive, got %d", ErrInvalidRecord, rec.SeasonID)
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	return nil
}
