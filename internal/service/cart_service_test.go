package service

import (
	"context"
	"errors"
	"testing"

	"bookshop/internal/domain"
	"bookshop/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type cartFixture struct {
	userID uuid.UUID
	books  *mockBookRepository
	orders *mockOrderRepository
	cart   CartService
}

func newCartFixture() *cartFixture {
	books := newMockBookRepository()
	cartRepo := newMockCartRepository(books)
	orders := newMockOrderRepository(books)

	return &cartFixture{
		userID: uuid.New(),
		books:  books,
		orders: orders,
		cart:   NewCartService(cartRepo, books, orders, zap.NewNop()),
	}
}

func (f *cartFixture) addBook(title string, priceCents int64) uuid.UUID {
	book := &domain.Book{
		ID:         uuid.New(),
		Title:      title,
		PriceCents: priceCents,
	}
	f.books.books[book.ID] = book
	return book.ID
}

func TestCart_AddIsIdempotent(t *testing.T) {
	f := newCartFixture()
	bookID := f.addBook("Dune", 12_50)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := f.cart.Add(ctx, f.userID, bookID); err != nil {
			t.Fatalf("add attempt %d failed: %v", i+1, err)
		}
	}

	cart, err := f.cart.List(ctx, f.userID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if cart.Count != 1 {
		t.Errorf("expected 1 line after repeated adds, got %d", cart.Count)
	}
	if cart.TotalCents != 12_50 {
		t.Errorf("expected total 1250, got %d", cart.TotalCents)
	}
}

func TestCart_AddUnknownBook(t *testing.T) {
	f := newCartFixture()

	err := f.cart.Add(context.Background(), f.userID, uuid.New())
	if !errors.Is(err, repository.ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
}

func TestCart_AddOwnedBookRejected(t *testing.T) {
	f := newCartFixture()
	bookID := f.addBook("Dune", 12_50)

	f.orders.orders[uuid.New()] = &domain.Order{
		ID:     uuid.New(),
		UserID: f.userID,
		BookID: bookID,
	}

	err := f.cart.Add(context.Background(), f.userID, bookID)
	if !errors.Is(err, ErrAlreadyOwned) {
		t.Fatalf("expected ErrAlreadyOwned, got %v", err)
	}

	cart, _ := f.cart.List(context.Background(), f.userID)
	if cart.Count != 0 {
		t.Errorf("expected empty cart, got %d lines", cart.Count)
	}
}

func TestCart_TotalSumsLinePrices(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	prices := []int64{6_00, 3_00, 99}
	for i, p := range prices {
		bookID := f.addBook("Book", p)
		if err := f.cart.Add(ctx, f.userID, bookID); err != nil {
			t.Fatalf("add %d failed: %v", i, err)
		}
	}

	total, err := f.cart.Total(ctx, f.userID)
	if err != nil {
		t.Fatalf("total failed: %v", err)
	}
	if total != 9_99 {
		t.Errorf("expected total 999, got %d", total)
	}
}

func TestCart_RemoveMissingLine(t *testing.T) {
	f := newCartFixture()
	bookID := f.addBook("Dune", 12_50)

	err := f.cart.Remove(context.Background(), f.userID, bookID)
	if !errors.Is(err, repository.ErrCartItemNotFound) {
		t.Fatalf("expected ErrCartItemNotFound, got %v", err)
	}
}

func TestCart_ClearEmptiesOnlyThisUser(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	bookID := f.addBook("Dune", 12_50)

	otherUser := uuid.New()
	if err := f.cart.Add(ctx, f.userID, bookID); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := f.cart.Add(ctx, otherUser, bookID); err != nil {
		t.Fatalf("add for other user failed: %v", err)
	}

	if err := f.cart.Clear(ctx, f.userID); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	mine, _ := f.cart.List(ctx, f.userID)
	if mine.Count != 0 {
		t.Errorf("expected cleared cart, got %d lines", mine.Count)
	}

	theirs, _ := f.cart.List(ctx, otherUser)
	if theirs.Count != 1 {
		t.Errorf("expected other user's cart intact, got %d lines", theirs.Count)
	}
}
