package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookshop/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrAuthorNotFound   = errors.New("author not found")
	ErrGenreNotFound    = errors.New("genre not found")
	ErrLanguageNotFound = errors.New("language not found")
)

// TaxonomyRepository manages the author/genre/language lookup tables used by
// the catalog. Listing everything is acceptable here; these tables are small
// and the fuzzy dedup in the book service needs full scans anyway.
type TaxonomyRepository interface {
	CreateAuthor(ctx context.Context, author *domain.Author) error
	ListAuthors(ctx context.Context) ([]*domain.Author, error)
	FindAuthorByID(ctx context.Context, id uuid.UUID) (*domain.Author, error)

	CreateGenre(ctx context.Context, genre *domain.Genre) error
	ListGenres(ctx context.Context) ([]*domain.Genre, error)
	FindGenreByID(ctx context.Context, id uuid.UUID) (*domain.Genre, error)

	CreateLanguage(ctx context.Context, language *domain.Language) error
	ListLanguages(ctx context.Context) ([]*domain.Language, error)
	FindLanguageByID(ctx context.Context, id uuid.UUID) (*domain.Language, error)
}

type taxonomyRepository struct {
	db *sql.DB
}

// NewTaxonomyRepository creates a new instance of TaxonomyRepository
func NewTaxonomyRepository(db *sql.DB) TaxonomyRepository {
	return &taxonomyRepository{db: db}
}

func (r *taxonomyRepository) CreateAuthor(ctx context.Context, author *domain.Author) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO authors (id, first_name, last_name, created_at) VALUES ($1, $2, $3, $4)`,
		author.ID, author.FirstName, author.LastName, author.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create author: %w", err)
	}
	return nil
}

func (r *taxonomyRepository) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, first_name, last_name, created_at FROM authors ORDER BY last_name, first_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list authors: %w", err)
	}
	defer rows.Close()

	authors := []*domain.Author{}
	for rows.Next() {
		author := &domain.Author{}
		if err := rows.Scan(&author.ID, &author.FirstName, &author.LastName, &author.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan author: %w", err)
		}
		authors = append(authors, author)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating authors: %w", err)
	}

	return authors, nil
}

func (r *taxonomyRepository) FindAuthorByID(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	author := &domain.Author{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, created_at FROM authors WHERE id = $1`, id,
	).Scan(&author.ID, &author.FirstName, &author.LastName, &author.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAuthorNotFound
		}
		return nil, fmt.Errorf("failed to find author: %w", err)
	}

	return author, nil
}

func (r *taxonomyRepository) CreateGenre(ctx context.Context, genre *domain.Genre) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO genres (id, name, created_at) VALUES ($1, $2, $3)`,
		genre.ID, genre.Name, genre.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create genre: %w", err)
	}
	return nil
}

func (r *taxonomyRepository) ListGenres(ctx context.Context) ([]*domain.Genre, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM genres ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	defer rows.Close()

	genres := []*domain.Genre{}
	for rows.Next() {
		genre := &domain.Genre{}
		if err := rows.Scan(&genre.ID, &genre.Name, &genre.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres = append(genres, genre)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating genres: %w", err)
	}

	return genres, nil
}

func (r *taxonomyRepository) FindGenreByID(ctx context.Context, id uuid.UUID) (*domain.Genre, error) {
	genre := &domain.Genre{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM genres WHERE id = $1`, id,
	).Scan(&genre.ID, &genre.Name, &genre.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrGenreNotFound
		}
		return nil, fmt.Errorf("failed to find genre: %w", err)
	}

	return genre, nil
}

func (r *taxonomyRepository) CreateLanguage(ctx context.Context, language *domain.Language) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO languages (id, name, created_at) VALUES ($1, $2, $3)`,
		language.ID, language.Name, language.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create language: %w", err)
	}
	return nil
}

func (r *taxonomyRepository) ListLanguages(ctx context.Context) ([]*domain.Language, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM languages ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}
	defer rows.Close()

	languages := []*domain.Language{}
	for rows.Next() {
		language := &domain.Language{}
		if err := rows.Scan(&language.ID, &language.Name, &language.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan language: %w", err)
		}
		languages = append(languages, language)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating languages: %w", err)
	}

	return languages, nil
}

func (r *taxonomyRepository) FindLanguageByID(ctx context.Context, id uuid.UUID) (*domain.Language, error) {
	language := &domain.Language{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM languages WHERE id = $1`, id,
	).Scan(&language.ID, &language.Name, &language.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrLanguageNotFound
		}
		return nil, fmt.Errorf("failed to find language: %w", err)
	}

	return language, nil
}
