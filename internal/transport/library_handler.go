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

// DownloadResponse points the client at the purchased book's file
type DownloadResponse struct {
	FileName string `json:"file_name"`
}

// LibraryHandler handles HTTP requests for the user's owned books
type LibraryHandler struct {
	libraryService service.LibraryService
	logger         *zap.Logger
}

// NewLibraryHandler creates a new LibraryHandler
func NewLibraryHandler(libraryService service.LibraryService, logger *zap.Logger) *LibraryHandler {
	return &LibraryHandler{
		libraryService: libraryService,
		logger:         logger,
	}
}

// RegisterRoutes registers all library routes. Every route requires auth.
func (h *LibraryHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/library", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.ListLibrary)
		r.Get("/{bookID}/download", h.Download)
	})
}

// ListLibrary returns every book the user owns
func (h *LibraryHandler) ListLibrary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	entries, err := h.libraryService.ListOwned(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list library", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list library")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, entries)
}

// Download resolves the file for an owned book. Ownership is checked on
// every request, not just at purchase time.
func (h *LibraryHandler) Download(w http.ResponseWriter, r *http.Request) {
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

	fileName, err := h.libraryService.Download(r.Context(), userID, bookID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotOwned):
			middleware.RespondWithError(w, http.StatusForbidden, "book is not in your library")
		case errors.Is(err, repository.ErrBookNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "book not found")
		default:
			h.logger.Error("Download failed", zap.Error(err), zap.String("book_id", bookID.String()))
			middleware.RespondWithError(w, http.StatusInternalServerError, "download failed")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, DownloadResponse{FileName: fileName})
}
