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
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartRepository defines the interface for cart data access. The unique
// (user_id, book_id) constraint in the schema backs the one-row-per-pair
// invariant; Insert is still guarded by Exists in the service for a clean
// idempotent no-op.
type CartRepository interface {
	Insert(ctx context.Context, item *domain.CartItem) error
	Delete(ctx context.Context, userID, bookID uuid.UUID) error
	DeleteAll(ctx context.Context, userID uuid.UUID) error
	Exists(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	ListLines(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, error)
	Count(ctx context.Context, userID uuid.UUID) (int, error)
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// Insert adds a cart row. A duplicate (user, book) pair is treated as
// success so concurrent adds stay idempotent.
func (r *cartRepository) Insert(ctx context.Context, item *domain.CartItem) error {
	query := `
		INSERT INTO cart_items (id, user_id, book_id, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, book_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, item.ID, item.UserID, item.BookID, item.AddedAt)
	if err != nil {
		return fmt.Errorf("failed to insert cart item: %w", err)
	}

	return nil
}

// Delete removes one cart row
func (r *cartRepository) Delete(ctx context.Context, userID, bookID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND book_id = $2`,
		userID, bookID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

// DeleteAll clears a user's cart; idempotent
func (r *cartRepository) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Exists reports whether a (user, book) cart row is present
func (r *cartRepository) Exists(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM cart_items WHERE user_id = $1 AND book_id = $2)`,
		userID, bookID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check cart item: %w", err)
	}
	return exists, nil
}

// ListLines returns the user's cart joined with book and author data, with
// live catalog prices, in insertion order.
func (r *cartRepository) ListLines(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, error) {
	query := `
		SELECT b.id, b.title, a.first_name, a.last_name, b.price_cents, b.cover_image, c.added_at
		FROM cart_items c
		JOIN books b ON b.id = c.book_id
		JOIN authors a ON a.id = b.author_id
		WHERE c.user_id = $1
		ORDER BY c.added_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var line domain.CartLine
		var author domain.Author
		err := rows.Scan(
			&line.BookID,
			&line.Title,
			&author.FirstName,
			&author.LastName,
			&line.UnitPriceCents,
			&line.CoverImage,
			&line.AddedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		line.AuthorName = author.DisplayName()
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return lines, nil
}

// Count returns the number of items in the user's cart
func (r *cartRepository) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cart_items WHERE user_id = $1`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}
	return count, nil
}
