// Package scheduler runs the periodic season and price snapshot refresh.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/lorkus/scholarledger/pkg/logger"
)

// ErrInvalidInterval is returned for a non-positive refresh interval.
var ErrInvalidInterval = errors.New("refresh interval must be positive")

// Refresher reloads the snapshot the engine runs against.
type Refresher interface {
	RefreshSnapshots(ctx context.Context) error
}

// Scheduler owns a gocron scheduler with a single refresh job.
type Scheduler struct {
	s        gocron.Scheduler
	target   Refresher
	interval time.Duration
	timeout  time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	logger   logger.Logger
}

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithTimeout bounds a single refresh run. Defaults to the interval.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a scheduler refreshing target every interval.
func New(target Refresher, interval time.Duration, opts ...Option) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}

	gs, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s := &Scheduler{
		s:        gs,
		target:   target,
		interval: interval,
		timeout:  interval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("scheduler")
	}
	return s, nil
}

// Start registers the refresh job and starts the scheduler. Runs never
// overlap; a run still going when the next is due pushes it back.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	_, err := s.s.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.refresh),
		gocron.WithName("snapshot-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		s.cancel()
		return fmt.Errorf("failed to create snapshot refresh job: %w", err)
	}

	s.s.Start()
	s.logger.Info(ctx, "scheduler started", logger.Duration("interval", s.interval))
	return nil
}

// Stop cancels a run in progress and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.s.Shutdown()
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	if err := s.target.RefreshSnapshots(ctx); err != nil {
		s.logger.Error(ctx, "snapshot refresh failed", logger.Error(err))
	}
}
