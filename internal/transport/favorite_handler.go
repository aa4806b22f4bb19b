package transport

import (
	"errors"
	"net/http"

	"bookshop/internal/middleware"
	"bookshop/internal/repository"
	"bookshop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ToggleFavoriteResponse reports the state after a toggle
type ToggleFavoriteResponse struct {
	Favorited bool `json:"favorited"`
}

// FavoriteHandler handles HTTP requests for favorite books
type FavoriteHandler struct {
	favoriteService service.FavoriteService
	logger          *zap.Logger
}

// NewFavoriteHandler creates a new FavoriteHandler
func NewFavoriteHandler(favoriteService service.FavoriteService, logger *zap.Logger) *FavoriteHandler {
	return &FavoriteHandler{
		favoriteService: favoriteService,
		logger:          logger,
	}
}

// RegisterRoutes registers all favorite routes. Every route requires auth.
func (h *FavoriteHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/favorites", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.ListFavorites)
		r.Get("/{bookID}", h.IsFavorite)
		r.Post("/{bookID}", h.AddFavorite)
		r.Post("/{bookID}/toggle", h.ToggleFavorite)
		r.Delete("/{bookID}", h.RemoveFavorite)
	})
}

// ListFavorites returns the user's favorite books
func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	books, err := h.favoriteService.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list favorites", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list favorites")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, books)
}

// IsFavorite reports whether a book is in the user's favorites
func (h *FavoriteHandler) IsFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	bookID, err := uuid.Parse(chi.URLParam(r, "bookID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	favorited, err := h.favoriteService.IsFavorite(r.Context(), userID, bookID)
	if err != nil {
		h.logger.Error("Failed to check favorite", zap.Error(err), zap.String("book_id", bookID.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to check favorite")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ToggleFavoriteResponse{Favorited: favorited})
}

// AddFavorite marks a book as favorite; repeating the call is a no-op
func (h *FavoriteHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	bookID, err := uuid.Parse(chi.URLParam(r, "bookID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	if err := h.favoriteService.Add(r.Context(), userID, bookID); err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "book not found")
			return
		}

		h.logger.Error("Failed to add favorite", zap.Error(err), zap.String("book_id", bookID.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add favorite")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, map[string]string{"message": "favorite added"})
}

// ToggleFavorite flips the favorite state of a book
func (h *FavoriteHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	bookID, err := uuid.Parse(chi.URLParam(r, "bookID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	favorited, err := h.favoriteService.Toggle(r.Context(), userID, bookID)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "book not found")
			return
		}

		h.logger.Error("Failed to toggle favorite", zap.Error(err), zap.String("book_id", bookID.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to toggle favorite")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ToggleFavoriteResponse{Favorited: favorited})
}

// RemoveFavorite unmarks a favorite
func (h *FavoriteHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	bookID, err := uuid.Parse(chi.URLParam(r, "bookID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	if err := h.favoriteService.Remove(r.Context(), userID, bookID); err != nil {
		if errors.Is(err, repository.ErrFavoriteNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "book is not a favorite")
			return
		}

		h.logger.Error("Failed to remove favorite", zap.Error(err), zap.String("book_id", bookID.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to remove favorite")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "favorite removed"})
}
