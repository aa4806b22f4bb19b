package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookshop/internal/domain"
	"bookshop/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrAlreadyOwned = errors.New("book is already owned")
)

// Cart is a user's cart with its derived totals. TotalCents reflects live
// catalog prices at query time, not snapshots.
type Cart struct {
	Lines      []domain.CartLine `json:"lines"`
	TotalCents int64             `json:"total_cents"`
	Count      int               `json:"count"`
}

// CartService maintains the set of books a user intends to purchase.
// Invariants: at most one line per (user, book), and a book the user already
// owns can never be added. Stock is deliberately not checked on add.
type CartService interface {
	Add(ctx context.Context, userID, bookID uuid.UUID) error
	Remove(ctx context.Context, userID, bookID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Total(ctx context.Context, userID uuid.UUID) (int64, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	cartRepo  repository.CartRepository
	bookRepo  repository.BookRepository
	orderRepo repository.OrderRepository
	logger    *zap.Logger
}

// NewCartService creates a new instance of CartService
func NewCartService(
	cartRepo repository.CartRepository,
	bookRepo repository.BookRepository,
	orderRepo repository.OrderRepository,
	logger *zap.Logger,
) CartService {
	return &cartService{
		cartRepo:  cartRepo,
		bookRepo:  bookRepo,
		orderRepo: orderRepo,
		logger:    logger,
	}
}

// Add puts a book into the user's cart. Adding a book that is already in
// the cart succeeds without effect; adding an owned book fails with
// ErrAlreadyOwned.
func (s *cartService) Add(ctx context.Context, userID, bookID uuid.UUID) error {
	if _, err := s.bookRepo.FindByID(ctx, bookID); err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return err
		}
		return fmt.Errorf("failed to look up book: %w", err)
	}

	inCart, err := s.cartRepo.Exists(ctx, userID, bookID)
	if err != nil {
		return fmt.Errorf("failed to check cart: %w", err)
	}
	if inCart {
		s.logger.Debug("Book already in cart",
			zap.String("user_id", userID.String()),
			zap.String("book_id", bookID.String()),
		)
		return nil
	}

	owned, err := s.orderRepo.Exists(ctx, userID, bookID)
	if err != nil {
		return fmt.Errorf("failed to check ownership: %w", err)
	}
	if owned {
		return ErrAlreadyOwned
	}

	item := &domain.CartItem{
		ID:      uuid.New(),
		UserID:  userID,
		BookID:  bookID,
		AddedAt: time.Now(),
	}

	if err := s.cartRepo.Insert(ctx, item); err != nil {
		return fmt.Errorf("failed to add to cart: %w", err)
	}

	s.logger.Info("Book added to cart",
		zap.String("user_id", userID.String()),
		zap.String("book_id", bookID.String()),
	)

	return nil
}

// Remove deletes a single cart line
func (s *cartService) Remove(ctx context.Context, userID, bookID uuid.UUID) error {
	err := s.cartRepo.Delete(ctx, userID, bookID)
	if err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			return err
		}
		return fmt.Errorf("failed to remove from cart: %w", err)
	}

	s.logger.Info("Book removed from cart",
		zap.String("user_id", userID.String()),
		zap.String("book_id", bookID.String()),
	)

	return nil
}

// List returns the cart lines in insertion order with the live total
func (s *cartService) List(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	lines, err := s.cartRepo.ListLines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}

	var total int64
	for _, line := range lines {
		total += line.UnitPriceCents
	}

	return &Cart{
		Lines:      lines,
		TotalCents: total,
		Count:      len(lines),
	}, nil
}

// Total sums the current catalog prices of all cart lines
func (s *cartService) Total(ctx context.Context, userID uuid.UUID) (int64, error) {
	cart, err := s.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	return cart.TotalCents, nil
}

// Clear empties the cart; clearing an empty cart is a no-op
func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.cartRepo.DeleteAll(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	s.logger.Info("Cart cleared", zap.String("user_id", userID.String()))
	return nil
}
