package transport

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookshop/internal/domain"
	"bookshop/internal/middleware"
	"bookshop/internal/repository"
	"bookshop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookRequest represents the payload for creating or updating a book
type BookRequest struct {
	Title           string `json:"title" validate:"required"`
	Description     string `json:"description"`
	PriceCents      int64  `json:"price_cents" validate:"required,gt=0"`
	AuthorFirstName string `json:"author_first_name" validate:"required"`
	AuthorLastName  string `json:"author_last_name"`
	GenreName       string `json:"genre_name" validate:"required"`
	LanguageName    string `json:"language_name" validate:"required"`
	InStock         int    `json:"in_stock" validate:"gte=0"`
	PublicationDate string `json:"publication_date"`
	CoverImage      string `json:"cover_image"`
	FileName        string `json:"file_name"`
}

// BookListResponse represents a paginated book listing
type BookListResponse struct {
	Books    interface{} `json:"books"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// BookHandler handles HTTP requests for the catalog
type BookHandler struct {
	bookService  service.BookService
	taxonomyRepo repository.TaxonomyRepository
	logger       *zap.Logger
}

// NewBookHandler creates a new BookHandler
func NewBookHandler(bookService service.BookService, taxonomyRepo repository.TaxonomyRepository, logger *zap.Logger) *BookHandler {
	return &BookHandler{
		bookService:  bookService,
		taxonomyRepo: taxonomyRepo,
		logger:       logger,
	}
}

// RegisterRoutes registers all catalog routes
func (h *BookHandler) RegisterRoutes(r chi.Router, authMiddleware, sellerOnly func(http.Handler) http.Handler) {
	r.Route("/api/books", func(r chi.Router) {
		// Public catalog routes
		r.Get("/", h.ListBooks)
		r.Get("/search", h.SearchBooks)
		r.Get("/{id}", h.GetBook)

		// Seller routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(sellerOnly)
			r.Get("/mine", h.ListMyBooks)
			r.Post("/", h.CreateBook)
			r.Put("/{id}", h.UpdateBook)
			r.Delete("/{id}", h.DeleteBook)
		})
	})

	r.Get("/api/genres", h.ListGenres)
	r.Get("/api/authors", h.ListAuthors)
	r.Get("/api/languages", h.ListLanguages)
}

// ListBooks returns a paginated, optionally genre-filtered catalog page
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	page, pageSize := paginationParams(r)

	var genreID *uuid.UUID
	if raw := r.URL.Query().Get("genre_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid genre id")
			return
		}
		genreID = &id
	}

	sortBy := r.URL.Query().Get("sort_by")
	sortOrder := repository.SortOrderDesc
	if strings.EqualFold(r.URL.Query().Get("sort_order"), "asc") {
		sortOrder = repository.SortOrderAsc
	}

	books, total, err := h.bookService.ListBooks(r.Context(), genreID, page, pageSize, sortBy, sortOrder)
	if err != nil {
		h.logger.Error("Failed to list books", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list books")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, BookListResponse{
		Books:    books,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// SearchBooks searches the catalog by title substring
func (h *BookHandler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "search query is required")
		return
	}

	page, pageSize := paginationParams(r)

	books, total, err := h.bookService.SearchBooks(r.Context(), query, page, pageSize)
	if err != nil {
		h.logger.Error("Search failed", zap.Error(err), zap.String("query", query))
		middleware.RespondWithError(w, http.StatusInternalServerError, "search failed")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, BookListResponse{
		Books:    books,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetBook returns a single book by ID
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	book, err := h.bookService.GetBook(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "book not found")
			return
		}

		h.logger.Error("Failed to get book", zap.Error(err), zap.String("book_id", id.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get book")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, book)
}

// ListMyBooks returns the authenticated seller's own books
func (h *BookHandler) ListMyBooks(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	books, err := h.bookService.ListSellerBooks(r.Context(), sellerID)
	if err != nil {
		h.logger.Error("Failed to list seller books", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list books")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, books)
}

// CreateBook creates a new catalog entry owned by the authenticated seller
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	input, ok := h.decodeBookInput(w, r)
	if !ok {
		return
	}

	book, err := h.bookService.CreateBook(r.Context(), sellerID, input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPrice) {
			middleware.RespondWithError(w, http.StatusBadRequest, "price must be greater than zero")
			return
		}

		h.logger.Error("Failed to create book", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create book")
		return
	}

	h.logger.Info("Book created", zap.String("book_id", book.ID.String()), zap.String("seller_id", sellerID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, book)
}

// UpdateBook updates a book. Sellers may only touch their own books,
// admins may touch any.
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	bookID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	input, ok := h.decodeBookInput(w, r)
	if !ok {
		return
	}

	role, _ := middleware.GetUserRole(r.Context())

	book, err := h.bookService.UpdateBook(r.Context(), sellerID, bookID, input, role == domain.RoleAdmin)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "book not found")
		case errors.Is(err, service.ErrNotBookOwner):
			middleware.RespondWithError(w, http.StatusForbidden, "book belongs to a different seller")
		case errors.Is(err, service.ErrInvalidPrice):
			middleware.RespondWithError(w, http.StatusBadRequest, "price must be greater than zero")
		default:
			h.logger.Error("Failed to update book", zap.Error(err), zap.String("book_id", bookID.String()))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update book")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, book)
}

// DeleteBook removes a book from the catalog
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	bookID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	role, _ := middleware.GetUserRole(r.Context())

	if err := h.bookService.DeleteBook(r.Context(), sellerID, bookID, role == domain.RoleAdmin); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "book not found")
		case errors.Is(err, service.ErrNotBookOwner):
			middleware.RespondWithError(w, http.StatusForbidden, "book belongs to a different seller")
		case errors.Is(err, repository.ErrBookHasOrders):
			middleware.RespondWithError(w, http.StatusConflict, "book has been purchased and cannot be removed")
		default:
			h.logger.Error("Failed to delete book", zap.Error(err), zap.String("book_id", bookID.String()))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete book")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "book deleted"})
}

// ListGenres returns all genres
func (h *BookHandler) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.taxonomyRepo.ListGenres(r.Context())
	if err != nil {
		h.logger.Error("Failed to list genres", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list genres")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, genres)
}

// ListAuthors returns all authors
func (h *BookHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.taxonomyRepo.ListAuthors(r.Context())
	if err != nil {
		h.logger.Error("Failed to list authors", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list authors")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, authors)
}

// ListLanguages returns all languages
func (h *BookHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.taxonomyRepo.ListLanguages(r.Context())
	if err != nil {
		h.logger.Error("Failed to list languages", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list languages")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, languages)
}

func (h *BookHandler) decodeBookInput(w http.ResponseWriter, r *http.Request) (service.BookInput, bool) {
	var req BookRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return service.BookInput{}, false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return service.BookInput{}, false
	}

	var pubDate time.Time
	if req.PublicationDate != "" {
		parsed, err := time.Parse("2006-01-02", req.PublicationDate)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "publication_date must be YYYY-MM-DD")
			return service.BookInput{}, false
		}
		pubDate = parsed
	}

	return service.BookInput{
		Title:           req.Title,
		Description:     req.Description,
		PriceCents:      req.PriceCents,
		AuthorFirstName: req.AuthorFirstName,
		AuthorLastName:  req.AuthorLastName,
		GenreName:       req.GenreName,
		LanguageName:    req.LanguageName,
		InStock:         req.InStock,
		PublicationDate: pubDate,
		CoverImage:      req.CoverImage,
		FileName:        req.FileName,
	}, true
}

func paginationParams(r *http.Request) (page, pageSize int) {
	page, pageSize = 1, 20

	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
