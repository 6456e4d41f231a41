package feed

import "errors"

// Sentinel kinds for feed errors.
var (
	ErrUnexpectedStatus = errors.New("unexpected upstream status")
	ErrDecode           = errors.New("decode upstream payload")
	ErrNoSeason         = errors.New("season data unavailable")
)
