package service

import (
	"context"
	"errors"
	"fmt"

	"bookshop/internal/domain"
	"bookshop/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotOwned = errors.New("book is not owned by this user")
)

// LibraryService is the read-only ownership registry: a user owns a book
// exactly when an order row exists for the pair. There is no independent
// ownership storage.
type LibraryService interface {
	IsOwned(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	ListOwned(ctx context.Context, userID uuid.UUID) ([]domain.LibraryEntry, error)
	Download(ctx context.Context, userID, bookID uuid.UUID) (string, error)
}

type libraryService struct {
	orderRepo repository.OrderRepository
	bookRepo  repository.BookRepository
	logger    *zap.Logger
}

// NewLibraryService creates a new instance of LibraryService
func NewLibraryService(
	orderRepo repository.OrderRepository,
	bookRepo repository.BookRepository,
	logger *zap.Logger,
) LibraryService {
	return &libraryService{
		orderRepo: orderRepo,
		bookRepo:  bookRepo,
		logger:    logger,
	}
}

// IsOwned answers whether the user owns the book
func (s *libraryService) IsOwned(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	owned, err := s.orderRepo.Exists(ctx, userID, bookID)
	if err != nil {
		return false, fmt.Errorf("failed to check ownership: %w", err)
	}
	return owned, nil
}

// ListOwned returns the user's library, newest purchase first
func (s *libraryService) ListOwned(ctx context.Context, userID uuid.UUID) ([]domain.LibraryEntry, error) {
	entries, err := s.orderRepo.ListLibrary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list library: %w", err)
	}
	return entries, nil
}

// Download authorizes a file download: the stored file name is released
// only to the owner of the book.
func (s *libraryService) Download(ctx context.Context, userID, bookID uuid.UUID) (string, error) {
	owned, err := s.IsOwned(ctx, userID, bookID)
	if err != nil {
		return "", err
	}
	if !owned {
		s.logger.Warn("Download denied for unowned book",
			zap.String("user_id", userID.String()),
			zap.String("book_id", bookID.String()),
		)
		return "", ErrNotOwned
	}

	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to look up book: %w", err)
	}

	return book.FileName, nil
}
