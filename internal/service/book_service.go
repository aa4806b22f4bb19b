package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookshop/internal/domain"
	"bookshop/internal/fuzzy"
	"bookshop/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidPrice = errors.New("price must be greater than zero")
	ErrNotBookOwner = errors.New("book belongs to a different seller")
)

// BookInput carries the fields a seller submits when creating or updating a
// book. Author, genre, and language arrive as names and are resolved (with
// fuzzy deduplication) against the lookup tables.
type BookInput struct {
	Title           string
	Description     string
	PriceCents      int64
	AuthorFirstName string
	AuthorLastName  string
	GenreName       string
	LanguageName    string
	InStock         int
	PublicationDate time.Time
	CoverImage      string
	FileName        string
}

// BookService defines catalog business logic
type BookService interface {
	GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	ListBooks(ctx context.Context, genreID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Book, int, error)
	SearchBooks(ctx context.Context, query string, page, pageSize int) ([]*domain.Book, int, error)
	ListSellerBooks(ctx context.Context, sellerID uuid.UUID) ([]*domain.Book, error)
	CreateBook(ctx context.Context, sellerID uuid.UUID, input BookInput) (*domain.Book, error)
	UpdateBook(ctx context.Context, sellerID, bookID uuid.UUID, input BookInput, isAdmin bool) (*domain.Book, error)
	DeleteBook(ctx context.Context, sellerID, bookID uuid.UUID, isAdmin bool) error
}

type bookService struct {
	bookRepo     repository.BookRepository
	taxonomyRepo repository.TaxonomyRepository
	fuzzyMaxDist int
	logger       *zap.Logger
}

// NewBookService creates a new instance of BookService. fuzzyMaxDist is the
// Levenshtein threshold for author/genre/language deduplication.
func NewBookService(
	bookRepo repository.BookRepository,
	taxonomyRepo repository.TaxonomyRepository,
	fuzzyMaxDist int,
	logger *zap.Logger,
) BookService {
	return &bookService{
		bookRepo:     bookRepo,
		taxonomyRepo: taxonomyRepo,
		fuzzyMaxDist: fuzzyMaxDist,
		logger:       logger,
	}
}

// GetBook retrieves a single book
func (s *bookService) GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	return s.bookRepo.FindByID(ctx, id)
}

// ListBooks lists catalog books with filtering, pagination, and sorting
func (s *bookService) ListBooks(ctx context.Context, genreID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Book, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.bookRepo.List(ctx, genreID, page, pageSize, sortBy, sortOrder)
}

// SearchBooks searches by title or description
func (s *bookService) SearchBooks(ctx context.Context, query string, page, pageSize int) ([]*domain.Book, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.bookRepo.Search(ctx, query, page, pageSize)
}

// ListSellerBooks lists one seller's books
func (s *bookService) ListSellerBooks(ctx context.Context, sellerID uuid.UUID) ([]*domain.Book, error) {
	return s.bookRepo.ListBySeller(ctx, sellerID)
}

// CreateBook creates a catalog entry for a seller, resolving author, genre,
// and language names against existing rows before creating new ones.
func (s *bookService) CreateBook(ctx context.Context, sellerID uuid.UUID, input BookInput) (*domain.Book, error) {
	if input.PriceCents <= 0 {
		return nil, ErrInvalidPrice
	}

	authorID, err := s.resolveAuthor(ctx, input.AuthorFirstName, input.AuthorLastName)
	if err != nil {
		return nil, err
	}

	genreID, err := s.resolveGenre(ctx, input.GenreName)
	if err != nil {
		return nil, err
	}

	languageID, err := s.resolveLanguage(ctx, input.LanguageName)
	if err != nil {
		return nil, err
	}

	book := &domain.Book{
		ID:              uuid.New(),
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		PriceCents:      input.PriceCents,
		AuthorID:        authorID,
		GenreID:         genreID,
		LanguageID:      languageID,
		SellerID:        &sellerID,
		InStock:         input.InStock,
		PublicationDate: input.PublicationDate,
		CoverImage:      input.CoverImage,
		FileName:        input.FileName,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	s.logger.Info("Book created",
		zap.String("book_id", book.ID.String()),
		zap.String("seller_id", sellerID.String()),
	)

	return book, nil
}

// UpdateBook updates a book. Sellers may only touch their own books;
// admins may touch any.
func (s *bookService) UpdateBook(ctx context.Context, sellerID, bookID uuid.UUID, input BookInput, isAdmin bool) (*domain.Book, error) {
	if input.PriceCents <= 0 {
		return nil, ErrInvalidPrice
	}

	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if !isAdmin && (book.SellerID == nil || *book.SellerID != sellerID) {
		return nil, ErrNotBookOwner
	}

	authorID, err := s.resolveAuthor(ctx, input.AuthorFirstName, input.AuthorLastName)
	if err != nil {
		return nil, err
	}

	genreID, err := s.resolveGenre(ctx, input.GenreName)
	if err != nil {
		return nil, err
	}

	languageID, err := s.resolveLanguage(ctx, input.LanguageName)
	if err != nil {
		return nil, err
	}

	book.Title = strings.TrimSpace(input.Title)
	book.Description = input.Description
	book.PriceCents = input.PriceCents
	book.AuthorID = authorID
	book.GenreID = genreID
	book.LanguageID = languageID
	book.InStock = input.InStock
	book.PublicationDate = input.PublicationDate
	book.CoverImage = input.CoverImage
	book.FileName = input.FileName
	book.UpdatedAt = time.Now()

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	return book, nil
}

// DeleteBook removes a book from the catalog
func (s *bookService) DeleteBook(ctx context.Context, sellerID, bookID uuid.UUID, isAdmin bool) error {
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return err
	}

	if !isAdmin && (book.SellerID == nil || *book.SellerID != sellerID) {
		return ErrNotBookOwner
	}

	return s.bookRepo.Delete(ctx, bookID)
}

// resolveAuthor finds an existing author whose name is within the fuzzy
// threshold of both submitted name parts, creating one only when no match
// exists.
func (s *bookService) resolveAuthor(ctx context.Context, firstName, lastName string) (uuid.UUID, error) {
	authors, err := s.taxonomyRepo.ListAuthors(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	for _, author := range authors {
		if fuzzy.Matches(author.FirstName, firstName, s.fuzzyMaxDist) &&
			fuzzy.Matches(author.LastName, lastName, s.fuzzyMaxDist) {
			return author.ID, nil
		}
	}

	author := &domain.Author{
		ID:        uuid.New(),
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		CreatedAt: time.Now(),
	}
	if err := s.taxonomyRepo.CreateAuthor(ctx, author); err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("Author created", zap.String("author_id", author.ID.String()))
	return author.ID, nil
}

func (s *bookService) resolveGenre(ctx context.Context, name string) (uuid.UUID, error) {
	genres, err := s.taxonomyRepo.ListGenres(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	for _, genre := range genres {
		if fuzzy.Matches(genre.Name, name, s.fuzzyMaxDist) {
			return genre.ID, nil
		}
	}

	genre := &domain.Genre{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now(),
	}
	if err := s.taxonomyRepo.CreateGenre(ctx, genre); err != nil {
		return uuid.Nil, err
	}

	return genre.ID, nil
}

func (s *bookService) resolveLanguage(ctx context.Context, name string) (uuid.UUID, error) {
	languages, err := s.taxonomyRepo.ListLanguages(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	for _, language := range languages {
		if fuzzy.Matches(language.Name, name, s.fuzzyMaxDist) {
			return language.ID, nil
		}
	}

	language := &domain.Language{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now(),
	}
	if err := s.taxonomyRepo.CreateLanguage(ctx, language); err != nil {
		return uuid.Nil, err
	}

	return language.ID, nil
}
