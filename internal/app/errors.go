package service

import "errors"

// Sentinel kinds for service errors. The API maps them to HTTP statuses.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrBackpressure   = errors.New("sync queue is full")
	ErrNoSnapshot     = errors.New("season and price snapshot unavailable")
	ErrInvalidRequest = errors.New("invalid request")
)
