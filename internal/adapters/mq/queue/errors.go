package queue

import "errors"

// Sentinel kinds for enqueue failures.
var (
	ErrClosed = errors.New("sync queue closed")
	ErrFull   = errors.New("sync queue full")
)
