package transport

import (
	"errors"
	"net/http"

	"bookshop/internal/middleware"
	"bookshop/internal/repository"
	"bookshop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TopUpRequest represents a wallet top-up payload
type TopUpRequest struct {
	AmountCents int64 `json:"amount_cents" validate:"required,gt=0"`
}

// BalanceResponse represents the wallet balance
type BalanceResponse struct {
	BalanceCents int64 `json:"balance_cents"`
}

// WalletHandler handles HTTP requests for the user's wallet
type WalletHandler struct {
	walletService service.WalletService
	logger        *zap.Logger
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(walletService service.WalletService, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		logger:        logger,
	}
}

// RegisterRoutes registers all wallet routes. Every route requires auth.
func (h *WalletHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler, rateLimiter func(http.Handler) http.Handler) {
	r.Route("/api/wallet", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetBalance)
		r.With(rateLimiter).Post("/topup", h.TopUp)
	})
}

// GetBalance returns the current wallet balance
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	balance, err := h.walletService.Balance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "user not found")
			return
		}

		h.logger.Error("Failed to load balance", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load balance")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, BalanceResponse{BalanceCents: balance})
}

// TopUp credits the wallet and returns the new balance
func (h *WalletHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	var req TopUpRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	newBalance, err := h.walletService.TopUp(r.Context(), userID, req.AmountCents)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			middleware.RespondWithError(w, http.StatusBadRequest, "amount must be greater than zero")
		case errors.Is(err, repository.ErrUserNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "user not found")
		default:
			h.logger.Error("Top-up failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to top up wallet")
		}
		return
	}

	h.logger.Info("Wallet topped up",
		zap.String("user_id", userID.String()),
		zap.Int64("amount_cents", req.AmountCents))
	middleware.RespondWithJSON(w, http.StatusOK, BalanceResponse{BalanceCents: newBalance})
}
