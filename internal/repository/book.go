package repository

import (
	"context"

	"library-catalog/internal/domain"
)

// BookRepository defines persistence operations for Book entities.
type BookRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, book *domain.Book) (int64, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Book, error)
	GetByID(ctx context.Context, id int64) (*domain.Book, error)
	Delete(ctx context.Context, id int64) error
}
