package payout

import "errors"

// Sentinel kinds for payout errors.
var (
	ErrPercentOutOfRange = errors.New("scholar percent out of range")
	ErrInvalidAmount     = errors.New("invalid usd amount")
	ErrNoQuote           = errors.New("payout currency unavailable")
)
