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
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository defines the interface for order data access. Orders are
// write-once: CreateBatch is the only insert path and there is no update.
// DeleteBatch exists solely for the checkout compensating rollback; DeleteByID
// is the administrative override.
type OrderRepository interface {
	CreateBatch(ctx context.Context, orders []*domain.Order) error
	DeleteBatch(ctx context.Context, ids []uuid.UUID) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	ListLibrary(ctx context.Context, userID uuid.UUID) ([]domain.LibraryEntry, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// CreateBatch inserts all orders of one checkout attempt in a single
// transaction: either every row is durably written or none is.
func (r *orderRepository) CreateBatch(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (id, user_id, book_id, quantity, unit_price_cents, total_price_cents, delivery, ordered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, order := range orders {
		_, err := tx.ExecContext(
			ctx,
			query,
			order.ID,
			order.UserID,
			order.BookID,
			order.Quantity,
			order.UnitPriceCents,
			order.TotalPriceCents,
			order.Delivery,
			order.OrderedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit orders: %w", err)
	}

	return nil
}

// DeleteBatch removes the given orders. Used only by the checkout rollback
// after a failed debit.
func (r *orderRepository) DeleteBatch(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete order %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order deletion: %w", err)
	}

	return nil
}

// DeleteByID removes a single order (administrative override)
func (r *orderRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// Exists reports whether the user owns the book, i.e. whether any order row
// exists for the pair. This is the single ownership source of truth.
func (r *orderRepository) Exists(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE user_id = $1 AND book_id = $2)`,
		userID, bookID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check ownership: %w", err)
	}
	return exists, nil
}

// FindByID retrieves an order by ID
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `
		SELECT id, user_id, book_id, quantity, unit_price_cents, total_price_cents, delivery, ordered_at
		FROM orders
		WHERE id = $1
	`

	order := &domain.Order{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.BookID,
		&order.Quantity,
		&order.UnitPriceCents,
		&order.TotalPriceCents,
		&order.Delivery,
		&order.OrderedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	return order, nil
}

// ListByUser retrieves a user's orders, newest first
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := `
		SELECT id, user_id, book_id, quantity, unit_price_cents, total_price_cents, delivery, ordered_at
		FROM orders
		WHERE user_id = $1
		ORDER BY ordered_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order := &domain.Order{}
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.BookID,
			&order.Quantity,
			&order.UnitPriceCents,
			&order.TotalPriceCents,
			&order.Delivery,
			&order.OrderedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// ListLibrary returns the user's owned books joined with catalog data for
// the library view, newest purchase first. The join never loses entries:
// books with order rows cannot be deleted from the catalog.
func (r *orderRepository) ListLibrary(ctx context.Context, userID uuid.UUID) ([]domain.LibraryEntry, error) {
	query := `
		SELECT b.id, b.title, a.first_name, a.last_name, b.cover_image, o.ordered_at, o.id
		FROM orders o
		JOIN books b ON b.id = o.book_id
		JOIN authors a ON a.id = b.author_id
		WHERE o.user_id = $1
		ORDER BY o.ordered_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list library: %w", err)
	}
	defer rows.Close()

	entries := []domain.LibraryEntry{}
	for rows.Next() {
		var entry domain.LibraryEntry
		var author domain.Author
		err := rows.Scan(
			&entry.BookID,
			&entry.Title,
			&author.FirstName,
			&author.LastName,
			&entry.CoverImage,
			&entry.PurchasedAt,
			&entry.OrderID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan library entry: %w", err)
		}
		entry.AuthorName = author.DisplayName()
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating library entries: %w", err)
	}

	return entries, nil
}
