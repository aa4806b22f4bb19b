package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookshop/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrFavoriteNotFound = errors.New("favorite not found")
)

// FavoriteRepository defines the interface for favorite data access
type FavoriteRepository interface {
	Insert(ctx context.Context, favorite *domain.Favorite) error
	Delete(ctx context.Context, userID, bookID uuid.UUID) error
	Exists(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	ListBooks(ctx context.Context, userID uuid.UUID) ([]*domain.Book, error)
}

type favoriteRepository struct {
	db *sql.DB
}

// NewFavoriteRepository creates a new instance of FavoriteRepository
func NewFavoriteRepository(db *sql.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

// Insert adds a favorite; re-adding the same pair is a no-op
func (r *favoriteRepository) Insert(ctx context.Context, favorite *domain.Favorite) error {
	query := `
		INSERT INTO favorites (user_id, book_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, book_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, favorite.UserID, favorite.BookID, favorite.AddedAt)
	if err != nil {
		return fmt.Errorf("failed to insert favorite: %w", err)
	}

	return nil
}

// Delete removes a favorite
func (r *favoriteRepository) Delete(ctx context.Context, userID, bookID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND book_id = $2`,
		userID, bookID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrFavoriteNotFound
	}

	return nil
}

// Exists reports whether the user has favorited the book
func (r *favoriteRepository) Exists(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND book_id = $2)`,
		userID, bookID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return exists, nil
}

// ListBooks returns the user's favorited books, most recently added first
func (r *favoriteRepository) ListBooks(ctx context.Context, userID uuid.UUID) ([]*domain.Book, error) {
	query := `
		SELECT ` + bookColumns2("b") + `
		FROM favorites f
		JOIN books b ON b.id = f.book_id
		WHERE f.user_id = $1
		ORDER BY f.added_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	return scanBooks(rows)
}

// bookColumns2 qualifies the shared book column list with a table alias
func bookColumns2(alias string) string {
	return alias + ".id, " + alias + ".title, " + alias + ".description, " +
		alias + ".price_cents, " + alias + ".author_id, " + alias + ".genre_id, " +
		alias + ".language_id, " + alias + ".seller_id, " + alias + ".in_stock, " +
		alias + ".publication_date, " + alias + ".cover_image, " + alias + ".file_name, " +
		alias + ".created_at, " + alias + ".updated_at"
}
