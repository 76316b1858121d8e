package storage

import "errors"

var (
	// ErrProfileNotFound: no profile directory exists for the hash.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrMessageNotFound covers both an unknown message id and an id
	// owned by a different hash. The two cases are deliberately
	// indistinguishable so callers cannot probe for foreign messages.
	ErrMessageNotFound = errors.New("message not found")

	// ErrThrottled: the source address sent within the cooldown window.
	ErrThrottled = errors.New("too fast")
)
