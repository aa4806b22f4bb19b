package domain

import (
	"time"

	"github.com/google/uuid"
)

// Book represents a digital book in the catalog. PriceCents is the current
// catalog price in integer cents; orders snapshot it at purchase time.
// InStock is informational only and is not decremented by digital purchases.
type Book struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Description     string     `json:"description" db:"description"`
	PriceCents      int64      `json:"price_cents" db:"price_cents"`
	AuthorID        uuid.UUID  `json:"author_id" db:"author_id"`
	GenreID         uuid.UUID  `json:"genre_id" db:"genre_id"`
	LanguageID      uuid.UUID  `json:"language_id" db:"language_id"`
	SellerID        *uuid.UUID `json:"seller_id,omitempty" db:"seller_id"`
	InStock         int        `json:"in_stock" db:"in_stock"`
	PublicationDate time.Time  `json:"publication_date" db:"publication_date"`
	CoverImage      string     `json:"cover_image" db:"cover_image"`
	FileName        string     `json:"file_name,omitempty" db:"file_name"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// Author is a catalog author
type Author struct {
	ID        uuid.UUID `json:"id" db:"id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DisplayName returns the author's name as shown on cart and library lines
func (a Author) DisplayName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// Genre is a catalog genre
type Genre struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Language is a catalog language
type Language struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
