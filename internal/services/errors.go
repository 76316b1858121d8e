package services

import "errors"

// Validation sentinels. Store-level sentinels (not-found, throttled)
// live in the storage package; together they form the full error
// taxonomy the controller maps onto HTTP statuses.
var (
	ErrInvalidHash        = errors.New("invalid hash")
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidText        = errors.New("invalid message")
	ErrInvalidMessageID   = errors.New("invalid message id")
	ErrInvalidFingerprint = errors.New("invalid hash or data")
)
