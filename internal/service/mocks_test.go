package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"bookshop/internal/domain"
	"bookshop/internal/repository"

	"github.com/google/uuid"
)

// In-memory repository doubles shared by the service tests.

type mockUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User

	deleteErr error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[uuid.UUID]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	for id, u := range m.users {
		if id != user.ID && u.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.Email = user.Email
	existing.Phone = user.Phone
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepository) Balance(ctx context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	return u.BalanceCents, nil
}

func (m *mockUserRepository) CreditBalance(ctx context.Context, id uuid.UUID, amountCents int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.BalanceCents += amountCents
	return nil
}

func (m *mockUserRepository) DebitBalance(ctx context.Context, id uuid.UUID, amountCents int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if u.BalanceCents < amountCents {
		return repository.ErrInsufficientBalance
	}
	u.BalanceCents -= amountCents
	return nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

type mockBookRepository struct {
	books     map[uuid.UUID]*domain.Book
	deleteErr error
}

func newMockBookRepository() *mockBookRepository {
	return &mockBookRepository{books: make(map[uuid.UUID]*domain.Book)}
}

func (m *mockBookRepository) Create(ctx context.Context, book *domain.Book) error {
	copied := *book
	m.books[book.ID] = &copied
	return nil
}

func (m *mockBookRepository) Update(ctx context.Context, book *domain.Book) error {
	if _, ok := m.books[book.ID]; !ok {
		return repository.ErrBookNotFound
	}
	copied := *book
	m.books[book.ID] = &copied
	return nil
}

func (m *mockBookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.books[id]; !ok {
		return repository.ErrBookNotFound
	}
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.books, id)
	return nil
}

func (m *mockBookRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	b, ok := m.books[id]
	if !ok {
		return nil, repository.ErrBookNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *mockBookRepository) List(ctx context.Context, genreID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Book, int, error) {
	var out []*domain.Book
	for _, b := range m.books {
		if genreID != nil && b.GenreID != *genreID {
			continue
		}
		copied := *b
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, len(out), nil
}

func (m *mockBookRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Book, int, error) {
	var out []*domain.Book
	for _, b := range m.books {
		if strings.Contains(strings.ToLower(b.Title), strings.ToLower(query)) {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, len(out), nil
}

func (m *mockBookRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.Book, error) {
	var out []*domain.Book
	for _, b := range m.books {
		if b.SellerID != nil && *b.SellerID == sellerID {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

type pairKey struct {
	userID uuid.UUID
	bookID uuid.UUID
}

// mockCartRepository joins against the book mock when listing lines, the
// same shape the SQL join produces.
type mockCartRepository struct {
	items map[pairKey]*domain.CartItem
	books *mockBookRepository
}

func newMockCartRepository(books *mockBookRepository) *mockCartRepository {
	return &mockCartRepository{
		items: make(map[pairKey]*domain.CartItem),
		books: books,
	}
}

func (m *mockCartRepository) Insert(ctx context.Context, item *domain.CartItem) error {
	key := pairKey{item.UserID, item.BookID}
	if _, exists := m.items[key]; exists {
		return nil
	}
	copied := *item
	m.items[key] = &copied
	return nil
}

func (m *mockCartRepository) Delete(ctx context.Context, userID, bookID uuid.UUID) error {
	key := pairKey{userID, bookID}
	if _, exists := m.items[key]; !exists {
		return repository.ErrCartItemNotFound
	}
	delete(m.items, key)
	return nil
}

func (m *mockCartRepository) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	for key := range m.items {
		if key.userID == userID {
			delete(m.items, key)
		}
	}
	return nil
}

func (m *mockCartRepository) Exists(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	_, exists := m.items[pairKey{userID, bookID}]
	return exists, nil
}

func (m *mockCartRepository) ListLines(ctx context.Context, userID uuid.UUID) ([]domain.CartLine, error) {
	var lines []domain.CartLine
	for key, item := range m.items {
		if key.userID != userID {
			continue
		}
		line := domain.CartLine{
			BookID:  item.BookID,
			AddedAt: item.AddedAt,
		}
		if b, ok := m.books.books[item.BookID]; ok {
			line.Title = b.Title
			line.UnitPriceCents = b.PriceCents
			line.CoverImage = b.CoverImage
		}
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].AddedAt.Before(lines[j].AddedAt) })
	return lines, nil
}

func (m *mockCartRepository) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for key := range m.items {
		if key.userID == userID {
			n++
		}
	}
	return n, nil
}

type mockOrderRepository struct {
	orders map[uuid.UUID]*domain.Order
	books  *mockBookRepository

	createBatchErr error
	deleteBatchErr error
}

func newMockOrderRepository(books *mockBookRepository) *mockOrderRepository {
	return &mockOrderRepository{
		orders: make(map[uuid.UUID]*domain.Order),
		books:  books,
	}
}

func (m *mockOrderRepository) CreateBatch(ctx context.Context, orders []*domain.Order) error {
	if m.createBatchErr != nil {
		return m.createBatchErr
	}
	for _, o := range orders {
		copied := *o
		m.orders[o.ID] = &copied
	}
	return nil
}

func (m *mockOrderRepository) DeleteBatch(ctx context.Context, ids []uuid.UUID) error {
	if m.deleteBatchErr != nil {
		return m.deleteBatchErr
	}
	for _, id := range ids {
		delete(m.orders, id)
	}
	return nil
}

func (m *mockOrderRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.orders[id]; !ok {
		return repository.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *mockOrderRepository) Exists(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	for _, o := range m.orders {
		if o.UserID == userID && o.BookID == bookID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *o
	return &copied, nil
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			copied := *o
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderedAt.Before(out[j].OrderedAt) })
	return out, nil
}

func (m *mockOrderRepository) ListLibrary(ctx context.Context, userID uuid.UUID) ([]domain.LibraryEntry, error) {
	var out []domain.LibraryEntry
	for _, o := range m.orders {
		if o.UserID != userID {
			continue
		}
		entry := domain.LibraryEntry{
			BookID:      o.BookID,
			PurchasedAt: o.OrderedAt,
			OrderID:     o.ID,
		}
		if b, ok := m.books.books[o.BookID]; ok {
			entry.Title = b.Title
			entry.CoverImage = b.CoverImage
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchasedAt.Before(out[j].PurchasedAt) })
	return out, nil
}

type mockFavoriteRepository struct {
	favorites map[pairKey]*domain.Favorite
	books     *mockBookRepository
}

func newMockFavoriteRepository(books *mockBookRepository) *mockFavoriteRepository {
	return &mockFavoriteRepository{
		favorites: make(map[pairKey]*domain.Favorite),
		books:     books,
	}
}

func (m *mockFavoriteRepository) Insert(ctx context.Context, favorite *domain.Favorite) error {
	key := pairKey{favorite.UserID, favorite.BookID}
	if _, exists := m.favorites[key]; exists {
		return nil
	}
	copied := *favorite
	m.favorites[key] = &copied
	return nil
}

func (m *mockFavoriteRepository) Delete(ctx context.Context, userID, bookID uuid.UUID) error {
	key := pairKey{userID, bookID}
	if _, exists := m.favorites[key]; !exists {
		return repository.ErrFavoriteNotFound
	}
	delete(m.favorites, key)
	return nil
}

func (m *mockFavoriteRepository) Exists(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	_, exists := m.favorites[pairKey{userID, bookID}]
	return exists, nil
}

func (m *mockFavoriteRepository) ListBooks(ctx context.Context, userID uuid.UUID) ([]*domain.Book, error) {
	var out []*domain.Book
	for key := range m.favorites {
		if key.userID != userID {
			continue
		}
		if b, ok := m.books.books[key.bookID]; ok {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

type mockTaxonomyRepository struct {
	authors   map[uuid.UUID]*domain.Author
	genres    map[uuid.UUID]*domain.Genre
	languages map[uuid.UUID]*domain.Language
}

func newMockTaxonomyRepository() *mockTaxonomyRepository {
	return &mockTaxonomyRepository{
		authors:   make(map[uuid.UUID]*domain.Author),
		genres:    make(map[uuid.UUID]*domain.Genre),
		languages: make(map[uuid.UUID]*domain.Language),
	}
}

func (m *mockTaxonomyRepository) CreateAuthor(ctx context.Context, author *domain.Author) error {
	copied := *author
	m.authors[author.ID] = &copied
	return nil
}

func (m *mockTaxonomyRepository) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	var out []*domain.Author
	for _, a := range m.authors {
		copied := *a
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	return out, nil
}

func (m *mockTaxonomyRepository) FindAuthorByID(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	a, ok := m.authors[id]
	if !ok {
		return nil, repository.ErrAuthorNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockTaxonomyRepository) CreateGenre(ctx context.Context, genre *domain.Genre) error {
	copied := *genre
	m.genres[genre.ID] = &copied
	return nil
}

func (m *mockTaxonomyRepository) ListGenres(ctx context.Context) ([]*domain.Genre, error) {
	var out []*domain.Genre
	for _, g := range m.genres {
		copied := *g
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockTaxonomyRepository) FindGenreByID(ctx context.Context, id uuid.UUID) (*domain.Genre, error) {
	g, ok := m.genres[id]
	if !ok {
		return nil, repository.ErrGenreNotFound
	}
	copied := *g
	return &copied, nil
}

func (m *mockTaxonomyRepository) CreateLanguage(ctx context.Context, language *domain.Language) error {
	copied := *language
	m.languages[language.ID] = &copied
	return nil
}

func (m *mockTaxonomyRepository) ListLanguages(ctx context.Context) ([]*domain.Language, error) {
	var out []*domain.Language
	for _, l := range m.languages {
		copied := *l
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockTaxonomyRepository) FindLanguageByID(ctx context.Context, id uuid.UUID) (*domain.Language, error) {
	l, ok := m.languages[id]
	if !ok {
		return nil, repository.ErrLanguageNotFound
	}
	copied := *l
	return &copied, nil
}

// mockWallet lets checkout tests force debit outcomes independently of the
// balance snapshot the funds precheck reads.
type mockWallet struct {
	balanceCents int64
	debitErr     error
	debited      int64
}

func (m *mockWallet) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return m.balanceCents, nil
}

func (m *mockWallet) TopUp(ctx context.Context, userID uuid.UUID, amountCents int64) (int64, error) {
	m.balanceCents += amountCents
	return m.balanceCents, nil
}

func (m *mockWallet) Debit(ctx context.Context, userID uuid.UUID, amountCents int64) error {
	if m.debitErr != nil {
		return m.debitErr
	}
	if m.balanceCents < amountCents {
		return ErrInsufficientFunds
	}
	m.balanceCents -= amountCents
	m.debited += amountCents
	return nil
}
