package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithHistoryLimit caps how many seasons are kept per player; the oldest
// seasons are dropped first. Zero keeps everything.
func WithHistoryLimit(n int) Option {
	return func(s *MemoryStore) {
		if n >= 0 {
			s.historyLimit = n
		}
	}
}
