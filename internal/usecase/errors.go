package usecase

import "errors"

var (
	// ErrUserNotFound covers both unknown ids and soft-deleted users.
	ErrUserNotFound = errors.New("user not found")

	// ErrStoreUnavailable wraps any failure reported by the user store.
	ErrStoreUnavailable = errors.New("user store unavailable")
)
