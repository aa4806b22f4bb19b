package service

import (
	"context"
	"errors"
	"fmt"

	"bookshop/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInsufficientFunds = errors.New("insufficient wallet funds")
)

// WalletService manages the per-user spendable balance. All amounts are
// integer cents. The balance can never go negative: debits go through the
// repository's conditional update, which is atomic with respect to
// concurrent debits and credits on the same user.
type WalletService interface {
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	TopUp(ctx context.Context, userID uuid.UUID, amountCents int64) (int64, error)
	Debit(ctx context.Context, userID uuid.UUID, amountCents int64) error
}

type walletService struct {
	userRepo repository.UserRepository
	logger   *zap.Logger
}

// NewWalletService creates a new instance of WalletService
func NewWalletService(userRepo repository.UserRepository, logger *zap.Logger) WalletService {
	return &walletService{userRepo: userRepo, logger: logger}
}

// Balance returns the current wallet balance in cents
func (s *walletService) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	balance, err := s.userRepo.Balance(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to read wallet balance: %w", err)
	}
	return balance, nil
}

// TopUp credits the wallet and returns the new balance
func (s *walletService) TopUp(ctx context.Context, userID uuid.UUID, amountCents int64) (int64, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}

	if err := s.userRepo.CreditBalance(ctx, userID, amountCents); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to top up wallet: %w", err)
	}

	balance, err := s.userRepo.Balance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read balance after top-up: %w", err)
	}

	s.logger.Info("Wallet topped up",
		zap.String("user_id", userID.String()),
		zap.Int64("amount_cents", amountCents),
		zap.Int64("balance_cents", balance),
	)

	return balance, nil
}

// Debit withdraws from the wallet. Returns ErrInsufficientFunds when the
// balance is too low; in that case the balance is left untouched.
func (s *walletService) Debit(ctx context.Context, userID uuid.UUID, amountCents int64) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}

	err := s.userRepo.DebitBalance(ctx, userID, amountCents)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return ErrInsufficientFunds
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to debit wallet: %w", err)
	}

	s.logger.Info("Wallet debited",
		zap.String("user_id", userID.String()),
		zap.Int64("amount_cents", amountCents),
	)

	return nil
}
