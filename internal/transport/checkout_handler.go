package transport

import (
	"errors"
	"net/http"

	"bookshop/internal/domain"
	"bookshop/internal/middleware"
	"bookshop/internal/repository"
	"bookshop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutHandler handles HTTP requests for checkout and order history
type CheckoutHandler struct {
	checkoutService service.CheckoutService
	orderRepo       repository.OrderRepository
	logger          *zap.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService service.CheckoutService, orderRepo repository.OrderRepository, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		orderRepo:       orderRepo,
		logger:          logger,
	}
}

// RegisterRoutes registers checkout and order routes
func (h *CheckoutHandler) RegisterRoutes(r chi.Router, authMiddleware, adminOnly, rateLimiter func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.With(rateLimiter).Post("/api/checkout", h.Checkout)
		r.Get("/api/orders", h.ListOrders)
		r.Get("/api/orders/{id}", h.GetOrder)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Delete("/api/orders/{id}", h.DeleteOrder)
		})
	})
}

// Checkout converts the cart into orders paid from the wallet
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	result, err := h.checkoutService.Process(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
		case errors.Is(err, service.ErrNothingToOrder):
			middleware.RespondWithError(w, http.StatusConflict, "no purchasable items in cart")
		case errors.Is(err, service.ErrInsufficientFunds):
			middleware.RespondWithError(w, http.StatusPaymentRequired, "insufficient wallet funds")
		case errors.Is(err, service.ErrPaymentFailed):
			middleware.RespondWithError(w, http.StatusPaymentRequired, "payment failed, no charge was made")
		default:
			h.logger.Error("Checkout failed", zap.Error(err), zap.String("user_id", userID.String()))
			middleware.RespondWithError(w, http.StatusInternalServerError, "checkout failed")
		}
		return
	}

	h.logger.Info("Checkout completed",
		zap.String("user_id", userID.String()),
		zap.Int("orders", len(result.OrderIDs)),
		zap.Int64("total_cents", result.TotalCents))
	middleware.RespondWithJSON(w, http.StatusCreated, result)
}

// ListOrders returns the authenticated user's order history
func (h *CheckoutHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	orders, err := h.orderRepo.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// GetOrder returns a single order. Users only see their own orders; admins
// see any.
func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orderRepo.FindByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}

		h.logger.Error("Failed to load order", zap.Error(err), zap.String("order_id", orderID.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	role, _ := middleware.GetUserRole(r.Context())
	if order.UserID != userID && role != domain.RoleAdmin {
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// DeleteOrder removes an order record. Admin only; deleting the order
// also revokes ownership of the book it granted.
func (h *CheckoutHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if err := h.orderRepo.DeleteByID(r.Context(), orderID); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}

		h.logger.Error("Failed to delete order", zap.Error(err), zap.String("order_id", orderID.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete order")
		return
	}

	h.logger.Info("Order deleted", zap.String("order_id", orderID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}
