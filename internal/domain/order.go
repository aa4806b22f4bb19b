package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryDigital marks orders fulfilled by download rather than shipment.
const DeliveryDigital = "digital"

// Order is the immutable record of a completed purchase. An order existing
// for a (user, book) pair means the user owns that book permanently; the
// pair is unique. Prices are snapshotted at checkout and never change.
type Order struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	BookID          uuid.UUID `json:"book_id" db:"book_id"`
	Quantity        int       `json:"quantity" db:"quantity"`
	UnitPriceCents  int64     `json:"unit_price_cents" db:"unit_price_cents"`
	TotalPriceCents int64     `json:"total_price_cents" db:"total_price_cents"`
	Delivery        string    `json:"delivery" db:"delivery"`
	OrderedAt       time.Time `json:"ordered_at" db:"ordered_at"`
}

// CartItem is one pending-purchase association. At most one row exists per
// (user, book) pair.
type CartItem struct {
	ID      uuid.UUID `json:"id" db:"id"`
	UserID  uuid.UUID `json:"user_id" db:"user_id"`
	BookID  uuid.UUID `json:"book_id" db:"book_id"`
	AddedAt time.Time `json:"added_at" db:"added_at"`
}

// CartLine is a cart item joined with its book for display: live catalog
// price, not a snapshot.
type CartLine struct {
	BookID         uuid.UUID `json:"book_id"`
	Title          string    `json:"title"`
	AuthorName     string    `json:"author_name"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	CoverImage     string    `json:"cover_image"`
	AddedAt        time.Time `json:"added_at"`
}

// LibraryEntry is an owned book as shown in the user's library
type LibraryEntry struct {
	BookID      uuid.UUID `json:"book_id"`
	Title       string    `json:"title"`
	AuthorName  string    `json:"author_name"`
	CoverImage  string    `json:"cover_image"`
	PurchasedAt time.Time `json:"purchased_at"`
	OrderID     uuid.UUID `json:"order_id"`
}

// Favorite marks user interest in a book, independent of cart and ownership
type Favorite struct {
	UserID  uuid.UUID `json:"user_id" db:"user_id"`
	BookID  uuid.UUID `json:"book_id" db:"book_id"`
	AddedAt time.Time `json:"added_at" db:"added_at"`
}
