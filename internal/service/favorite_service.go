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

// FavoriteService manages user favorites, independent of cart and ownership
type FavoriteService interface {
	Add(ctx context.Context, userID, bookID uuid.UUID) error
	Remove(ctx context.Context, userID, bookID uuid.UUID) error
	Toggle(ctx context.Context, userID, bookID uuid.UUID) (favorited bool, err error)
	IsFavorite(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Book, error)
}

type favoriteService struct {
	favoriteRepo repository.FavoriteRepository
	bookRepo     repository.BookRepository
	logger       *zap.Logger
}

// NewFavoriteService creates a new instance of FavoriteService
func NewFavoriteService(
	favoriteRepo repository.FavoriteRepository,
	bookRepo repository.BookRepository,
	logger *zap.Logger,
) FavoriteService {
	return &favoriteService{
		favoriteRepo: favoriteRepo,
		bookRepo:     bookRepo,
		logger:       logger,
	}
}

// Add marks a book as favorite; already-favorited is a no-op
func (s *favoriteService) Add(ctx context.Context, userID, bookID uuid.UUID) error {
	if _, err := s.bookRepo.FindByID(ctx, bookID); err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return err
		}
		return fmt.Errorf("failed to look up book: %w", err)
	}

	favorite := &domain.Favorite{
		UserID:  userID,
		BookID:  bookID,
		AddedAt: time.Now(),
	}

	if err := s.favoriteRepo.Insert(ctx, favorite); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}

	return nil
}

// Remove unmarks a favorite
func (s *favoriteService) Remove(ctx context.Context, userID, bookID uuid.UUID) error {
	err := s.favoriteRepo.Delete(ctx, userID, bookID)
	if err != nil {
		if errors.Is(err, repository.ErrFavoriteNotFound) {
			return err
		}
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// Toggle flips the favorite state and reports the new state
func (s *favoriteService) Toggle(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	exists, err := s.favoriteRepo.Exists(ctx, userID, bookID)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}

	if exists {
		if err := s.Remove(ctx, userID, bookID); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := s.Add(ctx, userID, bookID); err != nil {
		return false, err
	}
	return true, nil
}

// IsFavorite reports the favorite state
func (s *favoriteService) IsFavorite(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	return s.favoriteRepo.Exists(ctx, userID, bookID)
}

// List returns the user's favorited books
func (s *favoriteService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Book, error) {
	return s.favoriteRepo.ListBooks(ctx, userID)
}
