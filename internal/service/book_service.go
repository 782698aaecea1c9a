package service

import (
	"context"
	"fmt"
	"strings"

	"library-catalog/internal/domain"
	"library-catalog/internal/repository"
)

var (
	ErrTitleRequired  = fmt.Errorf("%w: title is required", ErrValidation)
	ErrAuthorRequired = fmt.Errorf("%w: author is required", ErrValidation)
	ErrYearOutOfRange = fmt.Errorf("%w: published year must be between %d and %d",
		ErrValidation, domain.MinPublishedYear, domain.MaxPublishedYear)
)

// BookService coordinates book operations and enforces ownership and role
// rules on behalf of the authenticated caller. Existence is always checked
// before authorization, so a missing book reads as not found for everyone
// and an existing foreign book reads as forbidden.
type BookService interface {
	Create(ctx context.Context, caller *domain.User, title, author string, publishedYear *int) (*domain.Book, error)
	ListOwned(ctx context.Context, caller *domain.User) ([]domain.Book, error)
	Get(ctx context.Context, caller *domain.User, id int64) (*domain.Book, error)
	Delete(ctx context.Context, caller *domain.User, id int64) error
}

type bookService struct {
	books repository.BookRepository
}

func NewBookService(books repository.BookRepository) BookService {
	return &bookService{books: books}
}

// Create persists a new book owned by the caller. The owner is always the
// caller; there is no way to create a book on someone else's behalf.
func (s *bookService) Create(ctx context.Context, caller *domain.User, title, author string, publishedYear *int) (*domain.Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)

	if title == "" {
		return nil, ErrTitleRequired
	}
	if author == "" {
		return nil, ErrAuthorRequired
	}
	if publishedYear != nil && (*publishedYear < domain.MinPublishedYear || *publishedYear > domain.MaxPublishedYear) {
		return nil, ErrYearOutOfRange
	}

	book := &domain.Book{
		Title:         title,
		Author:        author,
		PublishedYear: publishedYear,
		OwnerID:       caller.ID,
	}

	if _, err := s.books.Create(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// ListOwned returns the caller's books and nothing else.
func (s *bookService) ListOwned(ctx context.Context, caller *domain.User) ([]domain.Book, error) {
	return s.books.ListByOwner(ctx, caller.ID)
}

// Get fetches a book by id. Only admins may fetch by id; owners without the
// admin role are denied like anyone else.
func (s *bookService) Get(ctx context.Context, caller *domain.User, id int64) (*domain.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch caller.Role {
	case domain.RoleAdmin:
		return book, nil
	case domain.RoleUser:
		return nil, ErrForbidden
	default:
		return nil, ErrForbidden
	}
}

// Delete removes a book by id. Only the owner may delete it; the admin role
// grants no bypass here.
func (s *bookService) Delete(ctx context.Context, caller *domain.User, id int64) error {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if book.OwnerID != caller.ID {
		return ErrForbidden
	}
	return s.books.Delete(ctx, id)
}
