package model

import "time"

// SyncJob asks the workers to refresh one account's season record.
type SyncJob struct {
	ID          string    // unique id for idempotency
	Username    string    // account to refresh
	ScholarPct  float64   // scholar share in percent, 0..100
	Currency    string    // payout currency, e.g. "USD" or "SPS"
	RequestedAt time.Time // enqueue time
}
