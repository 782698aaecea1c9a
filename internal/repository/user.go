package repository

import (
	"context"

	"library-catalog/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	SetRole(ctx context.Context, id int64, role domain.Role) error
	// Delete removes the user and every book they own in one transaction.
	Delete(ctx context.Context, id int64) error
}
