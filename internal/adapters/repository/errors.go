package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("season record not found")
	ErrInvalidRecord = errors.New("invalid season record")
)
