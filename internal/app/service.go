// Package service wires the feed, the engine and the store into the
// operations exposed by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/lorkus/scholarledger/internal/adapters/feed"
	eventqueue "github.com/lorkus/scholarledger/internal/adapters/mq/queue"
	workerpool "github.com/lorkus/scholarledger/internal/adapters/mq/worker"
	"github.com/lorkus/scholarledger/internal/adapters/repository"
	"github.com/lorkus/scholarledger/internal/domain/aggregate"
	"github.com/lorkus/scholarledger/internal/domain/dedupe"
	"github.com/lorkus/scholarledger/internal/domain/model"
	"github.com/lorkus/scholarledger/internal/domain/pricing"
	"github.com/lorkus/scholarledger/internal/domain/scoring"
	"github.com/lorkus/scholarledger/pkg/logger"
	"github.com/lorkus/scholarledger/pkg/metrics"
)

// Feed is the upstream data source. feed.Client implements it.
type Feed interface {
	Season(ctx context.Context) (model.SeasonWindow, error)
	Prices(ctx context.Context) (map[string]any, error)
	Rewards(ctx context.Context, username, tokenType string, w model.SeasonWindow) ([]model.RewardEvent, error)
	Tournaments(ctx context.Context, username string, w model.SeasonWindow, limit int) ([]model.TournamentEntry, error)
	HostedTournaments(ctx context.Context, organizer string) ([]scoring.Event, error)
	TournamentResults(ctx context.Context, id, organizer string) ([]scoring.ResultRow, error)
}

var _ Feed = (*feed.Client)(nil)

// Service implements the API dependencies for the rewards ledger.
type Service struct {
	mu sync.RWMutex

	// Core components
	feed       Feed
	store      repository.Store
	ownStore   bool
	aggregator *aggregate.Aggregator
	sanitizer  *pricing.Sanitizer
	registry   *scoring.Registry
	deduper    dedupe.Deduper
	jobQueue   eventqueue.Queue
	workerPool *workerpool.Pool

	// Configuration
	workerCount        int
	queueSize          int
	dedupeSize         int
	jobTimeout         time.Duration
	scholarPct         float64
	payoutCurrency     string
	rewardTokens       []string
	tournamentLimit    int
	maxLeaderboardRows int

	snap snapshotCache

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of sync workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending sync jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the sync request id cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithJobTimeout bounds a single sync job.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFeed sets the upstream data source.
func WithFeed(f Feed) Option {
	return func(s *Service) {
		if f != nil {
			s.feed = f
		}
	}
}

// WithStore sets the season record store. The caller keeps ownership and
// closes it.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithAggregator replaces the default category aggregator.
func WithAggregator(a *aggregate.Aggregator) Option {
	return func(s *Service) {
		if a != nil {
			s.aggregator = a
		}
	}
}

// WithSanitizer replaces the default price sanitizer.
func WithSanitizer(p *pricing.Sanitizer) Option {
	return func(s *Service) {
		if p != nil {
			s.sanitizer = p
		}
	}
}

// WithRegistry replaces the default points scheme registry.
func WithRegistry(r *scoring.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithPayoutDefaults sets the scholar share and currency used when a request
// omits them.
func WithPayoutDefaults(scholarPct float64, currency string) Option {
	return func(s *Service) {
		if scholarPct >= 0 && scholarPct <= 100 {
			s.scholarPct = scholarPct
		}
		if currency != "" {
			s.payoutCurrency = currency
		}
	}
}

// WithRewardTokens sets the token types pulled from the reward history.
func WithRewardTokens(tokens ...string) Option {
	return func(s *Service) {
		if len(tokens) > 0 {
			s.rewardTokens = tokens
		}
	}
}

// WithTournamentLimit caps how many completed tournaments a sync inspects.
func WithTournamentLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.tournamentLimit = n
		}
	}
}

// WithMaxLeaderboardRows caps series leaderboard responses.
func WithMaxLeaderboardRows(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLeaderboardRows = n
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:        runtime.NumCPU() * 2,
		queueSize:          10_000,
		dedupeSize:         50_000,
		jobTimeout:         2 * time.Minute,
		scholarPct:         50,
		payoutCurrency:     "USD",
		rewardTokens:       []string{feed.DefaultRewardToken},
		tournamentLimit:    1000,
		maxLeaderboardRows: 500,
		aggregator:         aggregate.New(),
		sanitizer:          pricing.NewSanitizer(),
		registry:           scoring.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the sync pipeline and warms the season and price snapshot.
// A failed warm-up is logged and retried by the scheduler.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.feed == nil {
		s.feed = feed.New()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.ownStore = true
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s,
		workerpool.WithJobTimeout(s.jobTimeout))
	s.workerPool.Start(ctx)
	s.started = true

	if err := s.RefreshSnapshots(ctx); err != nil {
		s.logger.Warn(ctx, "initial snapshot refresh failed", logger.Error(err))
	}

	s.logger.Info(ctx, "scholar ledger service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains the worker pool and releases owned resources.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping scholar ledger service...")

	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
		}
	}
	if s.ownStore {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "scholar ledger service stopped")
}

// Started reports whether Start has completed.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"schemes":     len(s.registry.List()),
	}

	if snap, ok := s.snap.get(); ok {
		stats["seasonId"] = snap.Season.ID
		stats["quotes"] = len(snap.Quotes)
		stats["snapshotAt"] = snap.RefreshedAt
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		records := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["seasonRecords"] = records
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateRecordsTotal(records)
	}
	return stats
}
