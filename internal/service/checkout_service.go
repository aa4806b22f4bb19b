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
	ErrEmptyCart      = errors.New("cart is empty")
	ErrNothingToOrder = errors.New("no purchasable items in cart")
	// ErrPaymentFailed means the wallet debit lost a race after orders were
	// tentatively created; the orders have been rolled back and retrying the
	// checkout is safe.
	ErrPaymentFailed = errors.New("payment failed")
)

// CheckoutResult is the outcome of a successful checkout
type CheckoutResult struct {
	OrderIDs   []uuid.UUID `json:"order_ids"`
	TotalCents int64       `json:"total_cents"`
}

// CheckoutService converts a non-empty cart into permanent order records
// paid from the wallet. The outcome is all-or-nothing: the end state never
// shows orders without a matching debit, nor a debit without orders.
type CheckoutService interface {
	Process(ctx context.Context, userID uuid.UUID) (*CheckoutResult, error)
}

type checkoutService struct {
	cartRepo  repository.CartRepository
	bookRepo  repository.BookRepository
	orderRepo repository.OrderRepository
	wallet    WalletService
	logger    *zap.Logger
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(
	cartRepo repository.CartRepository,
	bookRepo repository.BookRepository,
	orderRepo repository.OrderRepository,
	wallet WalletService,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		cartRepo:  cartRepo,
		bookRepo:  bookRepo,
		orderRepo: orderRepo,
		wallet:    wallet,
		logger:    logger,
	}
}

// Process runs one checkout attempt:
//
//	read cart -> re-verify lines -> funds check -> write orders ->
//	debit wallet -> clear cart
//
// Lines whose book vanished or became owned since being added are skipped,
// not fatal; only an entirely unpurchasable cart fails. Orders are written
// before the debit; if the debit then fails (a concurrent spend raced the
// balance down), the just-created orders are deleted and ErrPaymentFailed
// is returned, restoring the pre-attempt state.
func (s *checkoutService) Process(ctx context.Context, userID uuid.UUID) (*CheckoutResult, error) {
	lines, err := s.cartRepo.ListLines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	// Re-verify each line against the live catalog and the ownership
	// registry; cart contents can be stale relative to both.
	orderedAt := time.Now()
	orders := make([]*domain.Order, 0, len(lines))
	var total int64

	for _, line := range lines {
		book, err := s.bookRepo.FindByID(ctx, line.BookID)
		if err != nil {
			if errors.Is(err, repository.ErrBookNotFound) {
				s.logger.Warn("Skipping cart line: book no longer exists",
					zap.String("user_id", userID.String()),
					zap.String("book_id", line.BookID.String()),
				)
				// Drop the dead line so a retry does not trip on it again
				if err := s.cartRepo.Delete(ctx, userID, line.BookID); err != nil &&
					!errors.Is(err, repository.ErrCartItemNotFound) {
					s.logger.Error("Failed to drop stale cart line", zap.Error(err))
				}
				continue
			}
			return nil, fmt.Errorf("failed to verify cart line: %w", err)
		}

		owned, err := s.orderRepo.Exists(ctx, userID, line.BookID)
		if err != nil {
			return nil, fmt.Errorf("failed to check ownership: %w", err)
		}
		if owned {
			s.logger.Warn("Skipping cart line: book already owned",
				zap.String("user_id", userID.String()),
				zap.String("book_id", line.BookID.String()),
			)
			continue
		}

		orders = append(orders, &domain.Order{
			ID:              uuid.New(),
			UserID:          userID,
			BookID:          book.ID,
			Quantity:        1,
			UnitPriceCents:  book.PriceCents,
			TotalPriceCents: book.PriceCents,
			Delivery:        domain.DeliveryDigital,
			OrderedAt:       orderedAt,
		})
		total += book.PriceCents
	}

	if len(orders) == 0 {
		return nil, ErrNothingToOrder
	}

	// Funds check before any order row is written. The authoritative check
	// is the conditional debit below; this one keeps an underfunded attempt
	// from touching the orders table at all.
	balance, err := s.wallet.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	if balance < total {
		return nil, ErrInsufficientFunds
	}

	if err := s.orderRepo.CreateBatch(ctx, orders); err != nil {
		return nil, fmt.Errorf("failed to create orders: %w", err)
	}

	orderIDs := make([]uuid.UUID, len(orders))
	for i, order := range orders {
		orderIDs[i] = order.ID
	}

	if err := s.wallet.Debit(ctx, userID, total); err != nil {
		// Compensate: the orders must not survive an unpaid attempt. The
		// rollback runs detached from request cancellation so an aborted
		// caller cannot strand order rows that were never paid for.
		s.rollbackOrders(context.WithoutCancel(ctx), userID, orderIDs)

		if errors.Is(err, ErrInsufficientFunds) {
			s.logger.Warn("Checkout debit lost balance race",
				zap.String("user_id", userID.String()),
				zap.Int64("total_cents", total),
			)
			return nil, ErrPaymentFailed
		}
		return nil, fmt.Errorf("failed to debit wallet: %w", err)
	}

	// The purchase is committed. A cart-clear failure is logged, not
	// surfaced: the orders and the debit already stand.
	if err := s.cartRepo.DeleteAll(ctx, userID); err != nil {
		s.logger.Error("Failed to clear cart after checkout",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("Checkout completed",
		zap.String("user_id", userID.String()),
		zap.Int("orders", len(orderIDs)),
		zap.Int64("total_cents", total),
	)

	return &CheckoutResult{OrderIDs: orderIDs, TotalCents: total}, nil
}

func (s *checkoutService) rollbackOrders(ctx context.Context, userID uuid.UUID, orderIDs []uuid.UUID) {
	if err := s.orderRepo.DeleteBatch(ctx, orderIDs); err != nil {
		// Unlikely and serious: orders now exist without a debit. Surface
		// loudly for operator attention.
		s.logger.Error("Failed to roll back orders after failed debit",
			zap.String("user_id", userID.String()),
			zap.Int("orders", len(orderIDs)),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Rolled back orders after failed debit",
		zap.String("user_id", userID.String()),
		zap.Int("orders", len(orderIDs)),
	)
}
