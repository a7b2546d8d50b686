package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrAuthCodeAlreadyUsed is returned by ConsumeAuthorizationCode when the
	// code was already consumed by a concurrent request (0 rows deleted).
	ErrAuthCodeAlreadyUsed = errors.New("authorization code already used")
)
