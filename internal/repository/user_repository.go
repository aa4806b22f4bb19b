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
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this email already exists")
	// ErrInsufficientBalance means a conditional debit matched the user row
	// but the balance guard rejected the decrement.
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUserHasOrders       = errors.New("user has orders and cannot be deleted")
)

// UserRepository defines the interface for user data access, including the
// wallet balance primitives used by the checkout path.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	Balance(ctx context.Context, id uuid.UUID) (int64, error)
	CreditBalance(ctx context.Context, id uuid.UUID, amountCents int64) error
	DebitBalance(ctx context.Context, id uuid.UUID, amountCents int64) error
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database using parameterized queries
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, phone, role, balance_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Role,
		user.BalanceCents,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		// Unique constraint violation on email (SQLSTATE 23505)
		if strings.Contains(err.Error(), "users_email_key") {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindByEmail retrieves a user by email using parameterized queries
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, phone, role, balance_cents, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, email), "email")
}

// FindByID retrieves a user by ID using parameterized queries
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, phone, role, balance_cents, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, id), "ID")
}

func (r *userRepository) scanUser(row *sql.Row, by string) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.Role,
		&user.BalanceCents,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by %s: %w", by, err)
	}

	return user, nil
}

// UpdateProfile updates the editable profile fields only; balance and role
// are never touched here.
func (r *userRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, phone = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, user.ID, user.FirstName, user.LastName, user.Email, user.Phone)
	if err != nil {
		if strings.Contains(err.Error(), "users_email_key") {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update user profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Delete removes a user unless orders still reference them
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var hasOrders bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE user_id = $1)`, id,
	).Scan(&hasOrders)
	if err != nil {
		return fmt.Errorf("failed to check user orders: %w", err)
	}
	if hasOrders {
		return ErrUserHasOrders
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Balance returns the current wallet balance in cents
func (r *userRepository) Balance(ctx context.Context, id uuid.UUID) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx,
		`SELECT balance_cents FROM users WHERE id = $1`, id,
	).Scan(&balance)

	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}

	return balance, nil
}

// CreditBalance increases the wallet balance. Amount validation lives in the
// service layer; this only guards against a missing user.
func (r *userRepository) CreditBalance(ctx context.Context, id uuid.UUID, amountCents int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET balance_cents = balance_cents + $2 WHERE id = $1`,
		id, amountCents,
	)
	if err != nil {
		return fmt.Errorf("failed to credit balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// DebitBalance decrements the wallet balance atomically. The balance guard in
// the WHERE clause is the critical section for concurrent debits on the same
// user: two racing checkouts cannot jointly overdraw because only an update
// whose guard still holds affects a row.
func (r *userRepository) DebitBalance(ctx context.Context, id uuid.UUID, amountCents int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET balance_cents = balance_cents - $2 WHERE id = $1 AND balance_cents >= $2`,
		id, amountCents,
	)
	if err != nil {
		return fmt.Errorf("failed to debit balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Distinguish a missing user from a balance guard rejection
		if _, err := r.Balance(ctx, id); err != nil {
			return err
		}
		return ErrInsufficientBalance
	}

	return nil
}
