package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bookshop/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrBookHasOrders = errors.New("book has orders and cannot be deleted")
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// BookRepository defines the interface for catalog data access
type BookRepository interface {
	Create(ctx context.Context, book *domain.Book) error
	Update(ctx context.Context, book *domain.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	List(ctx context.Context, genreID *uuid.UUID, page, pageSize int, sortBy string, sortOrder SortOrder) ([]*domain.Book, int, error)
	Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Book, int, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.Book, error)
}

type bookRepository struct {
	db *sql.DB
}

// NewBookRepository creates a new instance of BookRepository
func NewBookRepository(db *sql.DB) BookRepository {
	return &bookRepository{db: db}
}

const bookColumns = `id, title, description, price_cents, author_id, genre_id, language_id, seller_id, in_stock, publication_date, cover_image, file_name, created_at, updated_at`

// Create inserts a new book into the catalog using parameterized queries
func (r *bookRepository) Create(ctx context.Context, book *domain.Book) error {
	query := `
		INSERT INTO books (` + bookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		book.ID,
		book.Title,
		book.Description,
		book.PriceCents,
		book.AuthorID,
		book.GenreID,
		book.LanguageID,
		book.SellerID,
		book.InStock,
		book.PublicationDate,
		book.CoverImage,
		book.FileName,
		book.CreatedAt,
		book.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}

	return nil
}

// Update updates an existing book using parameterized queries
func (r *bookRepository) Update(ctx context.Context, book *domain.Book) error {
	query := `
		UPDATE books
		SET title = $2, description = $3, price_cents = $4, author_id = $5,
		    genre_id = $6, language_id = $7, in_stock = $8, publication_date = $9,
		    cover_image = $10, file_name = $11, updated_at = $12
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		book.ID,
		book.Title,
		book.Description,
		book.PriceCents,
		book.AuthorID,
		book.GenreID,
		book.LanguageID,
		book.InStock,
		book.PublicationDate,
		book.CoverImage,
		book.FileName,
		book.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrBookNotFound
	}

	return nil
}

// Delete removes a book from the catalog. A book that has ever been sold is
// not deletable: order rows reference it as the ownership record. Cart rows
// referencing the book cascade away.
func (r *bookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var hasOrders bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE book_id = $1)`, id,
	).Scan(&hasOrders)
	if err != nil {
		return fmt.Errorf("failed to check book orders: %w", err)
	}
	if hasOrders {
		return ErrBookHasOrders
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrBookNotFound
	}

	return nil
}

// FindByID retrieves a book by ID using parameterized queries
func (r *bookRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	book := &domain.Book{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&book.ID,
		&book.Title,
		&book.Description,
		&book.PriceCents,
		&book.AuthorID,
		&book.GenreID,
		&book.LanguageID,
		&book.SellerID,
		&book.InStock,
		&book.PublicationDate,
		&book.CoverImage,
		&book.FileName,
		&book.CreatedAt,
		&book.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to find book by ID: %w", err)
	}

	return book, nil
}

// List retrieves books with optional genre filtering, pagination, and sorting
func (r *bookRepository) List(ctx context.Context, genreID *uuid.UUID, page, pageSize int, sortBy string, sortOrder SortOrder) ([]*domain.Book, int, error) {
	// Validate sort field to prevent SQL injection
	validSortFields := map[string]bool{
		"title":            true,
		"price_cents":      true,
		"publication_date": true,
		"created_at":       true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderDesc
	}

	whereClause := ""
	args := []interface{}{}
	argIndex := 1

	if genreID != nil {
		whereClause = fmt.Sprintf("WHERE genre_id = $%d", argIndex)
		args = append(args, *genreID)
		argIndex++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM books %s", whereClause)
	var total int
	err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT `+bookColumns+`
		FROM books
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, sortBy, sortOrder, argIndex, argIndex+1)

	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books, err := scanBooks(rows)
	if err != nil {
		return nil, 0, err
	}

	return books, total, nil
}

// Search searches for books by title or description with pagination
func (r *bookRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Book, int, error) {
	if strings.TrimSpace(query) == "" {
		return r.List(ctx, nil, page, pageSize, "created_at", SortOrderDesc)
	}

	searchPattern := "%" + query + "%"

	countQuery := `
		SELECT COUNT(*)
		FROM books
		WHERE title ILIKE $1 OR description ILIKE $1
	`
	var total int
	err := r.db.QueryRowContext(ctx, countQuery, searchPattern).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	offset := (page - 1) * pageSize

	searchQuery := `
		SELECT ` + bookColumns + `
		FROM books
		WHERE title ILIKE $1 OR description ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, searchQuery, searchPattern, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search books: %w", err)
	}
	defer rows.Close()

	books, err := scanBooks(rows)
	if err != nil {
		return nil, 0, err
	}

	return books, total, nil
}

// ListBySeller retrieves all books belonging to one seller
func (r *bookRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE seller_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seller books: %w", err)
	}
	defer rows.Close()

	return scanBooks(rows)
}

func scanBooks(rows *sql.Rows) ([]*domain.Book, error) {
	books := []*domain.Book{}
	for rows.Next() {
		book := &domain.Book{}
		err := rows.Scan(
			&book.ID,
			&book.Title,
			&book.Description,
			&book.PriceCents,
			&book.AuthorID,
			&book.GenreID,
			&book.LanguageID,
			&book.SellerID,
			&book.InStock,
			&book.PublicationDate,
			&book.CoverImage,
			&book.FileName,
			&book.CreatedAt,
			&book.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}

	return books, nil
}
