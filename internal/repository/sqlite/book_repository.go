package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"library-catalog/internal/domain"
	"library-catalog/internal/repository"
)

const (
	createBooksTable = `
CREATE TABLE IF NOT EXISTS books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	published_year INTEGER NULL,
	owner_id INTEGER NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`
	createBooksOwnerIndex = `
CREATE INDEX IF NOT EXISTS idx_books_owner_id ON books(owner_id);
`
)

type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) repository.BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createBooksTable); err != nil {
		return fmt.Errorf("create books table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createBooksOwnerIndex); err != nil {
		return fmt.Errorf("create books owner index: %w", err)
	}
	return nil
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) (int64, error) {
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO books (title, author, published_year, owner_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		book.Title,
		book.Author,
		nullInt(book.PublishedYear),
		book.OwnerID,
		book.CreatedAt,
		book.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("book last insert id: %w", err)
	}
	book.ID = id
	return id, nil
}

func (r *BookRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Book, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, author, published_year, owner_id, created_at, updated_at
FROM books
WHERE owner_id = ?
ORDER BY id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return books, nil
}

func (r *BookRepository) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, author, published_year, owner_id, created_at, updated_at
FROM books
WHERE id = ?`,
		id,
	)
	return scanBook(row)
}

func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("book delete rows affected: %w", err)
	}
	if aff == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanBook(row interface {
	Scan(dest ...any) error
}) (*domain.Book, error) {
	var book domain.Book
	var year sql.NullInt64
	if err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&year,
		&book.OwnerID,
		&book.CreatedAt,
		&book.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}
	if year.Valid {
		v := int(year.Int64)
		book.PublishedYear = &v
	}
	return &book, nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
