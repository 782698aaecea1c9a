package domain

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail indicates a registration attempt with an email that
	// is already taken. Surfaced from the persistence layer's uniqueness
	// constraint so concurrent registrations cannot race past a pre-check.
	ErrDuplicateEmail = errors.New("email already registered")
)
