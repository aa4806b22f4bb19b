package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"bookshop/internal/domain"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var testDB *sql.DB

func setupTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, err
	}

	connStr := "postgres://" + dbUser + ":" + dbPwd + "@" + dbHost + ":" + dbPort.Port() + "/" + dbName + "?sslmode=disable"
	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	_, err = testDB.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			first_name VARCHAR(100),
			last_name VARCHAR(100),
			phone VARCHAR(30),
			role VARCHAR(50) NOT NULL DEFAULT 'user',
			balance_cents BIGINT NOT NULL DEFAULT 0 CHECK (balance_cents >= 0),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return dbContainer.Terminate, err
	}

	_, err = testDB.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			book_id UUID NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 1,
			unit_price_cents BIGINT NOT NULL,
			total_price_cents BIGINT NOT NULL,
			delivery VARCHAR(50) NOT NULL,
			ordered_at TIMESTAMP NOT NULL,
			UNIQUE (user_id, book_id)
		)
	`)
	if err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	teardown, err := setupTestDB()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
}

func createTestUser(t *testing.T, repo UserRepository, balanceCents int64) *domain.User {
	t.Helper()

	user := &domain.User{
		ID:           uuid.New(),
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "User",
		Role:         domain.RoleUser,
		BalanceCents: balanceCents,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	user := createTestUser(t, repo, 5_00)

	byEmail, err := repo.FindByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("expected ID %s, got %s", user.ID, byEmail.ID)
	}
	if byEmail.BalanceCents != 5_00 {
		t.Errorf("expected balance 500, got %d", byEmail.BalanceCents)
	}

	dup := *user
	dup.ID = uuid.New()
	if err := repo.Create(ctx, &dup); !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("expected ErrUserAlreadyExists for duplicate email, got %v", err)
	}
}

func TestUserRepository_DebitBalance(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	user := createTestUser(t, repo, 10_00)

	if err := repo.DebitBalance(ctx, user.ID, 4_00); err != nil {
		t.Fatalf("debit failed: %v", err)
	}

	balance, err := repo.Balance(ctx, user.ID)
	if err != nil {
		t.Fatalf("balance read failed: %v", err)
	}
	if balance != 6_00 {
		t.Errorf("expected balance 600, got %d", balance)
	}

	// Overdraw is rejected and leaves the balance untouched
	if err := repo.DebitBalance(ctx, user.ID, 7_00); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	balance, _ = repo.Balance(ctx, user.ID)
	if balance != 6_00 {
		t.Errorf("expected balance still 600, got %d", balance)
	}

	if err := repo.DebitBalance(ctx, uuid.New(), 1_00); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

// TestUserRepository_ConcurrentDebits exercises the conditional update under
// contention: with balance for exactly N debits and 2N attempts racing, the
// guard must admit exactly N and the balance must land on zero, never below.
func TestUserRepository_ConcurrentDebits(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	const (
		debitCents = 1_00
		funded     = 10
		attempts   = 20
	)

	user := createTestUser(t, repo, debitCents*funded)

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.DebitBalance(ctx, user.ID, debitCents)
		}()
	}
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInsufficientBalance):
			rejected++
		default:
			t.Errorf("unexpected debit error: %v", err)
		}
	}

	if succeeded != funded {
		t.Errorf("expected %d successful debits, got %d", funded, succeeded)
	}
	if rejected != attempts-funded {
		t.Errorf("expected %d rejected debits, got %d", attempts-funded, rejected)
	}

	balance, err := repo.Balance(ctx, user.ID)
	if err != nil {
		t.Fatalf("balance read failed: %v", err)
	}
	if balance != 0 {
		t.Errorf("expected balance 0 after the race, got %d", balance)
	}
}

func TestUserRepository_CreditBalance(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	user := createTestUser(t, repo, 0)

	if err := repo.CreditBalance(ctx, user.ID, 25_00); err != nil {
		t.Fatalf("credit failed: %v", err)
	}

	balance, _ := repo.Balance(ctx, user.ID)
	if balance != 25_00 {
		t.Errorf("expected balance 2500, got %d", balance)
	}

	if err := repo.CreditBalance(ctx, uuid.New(), 1_00); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_DeleteBlockedByOrders(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	user := createTestUser(t, repo, 0)

	_, err := testDB.Exec(`
		INSERT INTO orders (id, user_id, book_id, quantity, unit_price_cents, total_price_cents, delivery, ordered_at)
		VALUES ($1, $2, $3, 1, 500, 500, 'digital', NOW())
	`, uuid.New(), user.ID, uuid.New())
	if err != nil {
		t.Fatalf("failed to insert order: %v", err)
	}

	if err := repo.Delete(ctx, user.ID); !errors.Is(err, ErrUserHasOrders) {
		t.Fatalf("expected ErrUserHasOrders, got %v", err)
	}

	// The user record must still be there
	if _, err := repo.FindByID(ctx, user.ID); err != nil {
		t.Errorf("expected user to survive blocked delete: %v", err)
	}
}
