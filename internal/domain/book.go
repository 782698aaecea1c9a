package domain

import "time"

// Published year bounds accepted on book creation.
const (
	MinPublishedYear = 0
	MaxPublishedYear = 2100
)

// Book is a catalog entry owned by exactly one user.
type Book struct {
	ID            int64
	Title         string
	Author        string
	PublishedYear *int
	OwnerID       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
