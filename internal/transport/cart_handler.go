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

// CartHandler handles HTTP requests for the shopping cart
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers all cart routes. Every route requires auth.
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetCart)
		r.Post("/{bookID}", h.AddToCart)
		r.Delete("/{bookID}", h.RemoveFromCart)
		r.Delete("/", h.ClearCart)
	})
}

// GetCart returns the user's cart lines with the running total
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	cart, err := h.cartService.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

// AddToCart puts a book into the cart. Adding a book that is already in
// the cart is a no-op, adding one the user owns is rejected.
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
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

	if err := h.cartService.Add(r.Context(), userID, bookID); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "book not found")
		case errors.Is(err, service.ErrAlreadyOwned):
			middleware.RespondWithError(w, http.StatusConflict, "book is already in your library")
		default:
			h.logger.Error("Failed to add to cart", zap.Error(err), zap.String("book_id", bookID.String()))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add to cart")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "added to cart"})
}

// RemoveFromCart deletes a single line from the cart
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
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

	if err := h.cartService.Remove(r.Context(), userID, bookID); err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "book is not in the cart")
			return
		}

		h.logger.Error("Failed to remove from cart", zap.Error(err), zap.String("book_id", bookID.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to remove from cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "removed from cart"})
}

// ClearCart removes every line from the cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	if err := h.cartService.Clear(r.Context(), userID); err != nil {
		h.logger.Error("Failed to clear cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}
