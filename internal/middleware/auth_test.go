package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookshop/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, userID uuid.UUID, role string, expiresAt time.Time) string {
	t.Helper()

	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func authProtected(t *testing.T) (http.Handler, *uuid.UUID, *string) {
	t.Helper()

	var gotUserID uuid.UUID
	var gotRole string

	handler := AuthMiddleware(testSecret, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserUUID(r.Context())
		if !ok {
			t.Error("expected user UUID in context")
		}
		gotUserID = id
		gotRole, _ = GetUserRole(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	return handler, &gotUserID, &gotRole
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	handler, gotUserID, gotRole := authProtected(t)

	userID := uuid.New()
	token := signToken(t, testSecret, userID, domain.RoleSeller, time.Now().Add(time.Hour))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if *gotUserID != userID {
		t.Errorf("expected user ID %s in context, got %s", userID, *gotUserID)
	}
	if *gotRole != domain.RoleSeller {
		t.Errorf("expected role %q in context, got %q", domain.RoleSeller, *gotRole)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	handler, _, _ := authProtected(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)

	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	handler, _, _ := authProtected(t)

	for _, header := range []string{"token-without-scheme", "Basic abc", "Bearer"} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
		r.Header.Set("Authorization", header)

		handler.ServeHTTP(w, r)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	handler, _, _ := authProtected(t)

	token := signToken(t, "other-secret", uuid.New(), domain.RoleUser, time.Now().Add(time.Hour))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for forged token, got %d", w.Code)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	handler, _, _ := authProtected(t)

	token := signToken(t, testSecret, uuid.New(), domain.RoleUser, time.Now().Add(-time.Hour))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for expired token, got %d", w.Code)
	}

	// Expiry is detected via the jwt sentinel and reported distinctly
	// from other validation failures.
	var response ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse error body: %v", err)
	}
	if response.Error.Message != "token expired" {
		t.Errorf("expected message %q, got %q", "token expired", response.Error.Message)
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name       string
		middleware func(http.Handler) http.Handler
		role       string
		wantStatus int
	}{
		{"admin passes admin gate", RequireAdmin(zap.NewNop()), domain.RoleAdmin, http.StatusOK},
		{"user blocked by admin gate", RequireAdmin(zap.NewNop()), domain.RoleUser, http.StatusForbidden},
		{"seller passes seller gate", RequireSeller(zap.NewNop()), domain.RoleSeller, http.StatusOK},
		{"admin passes seller gate", RequireSeller(zap.NewNop()), domain.RoleAdmin, http.StatusOK},
		{"user blocked by seller gate", RequireSeller(zap.NewNop()), domain.RoleUser, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := AuthMiddleware(testSecret, zap.NewNop())(tc.middleware(ok))

			token := signToken(t, testSecret, uuid.New(), tc.role, time.Now().Add(time.Hour))

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/books", nil)
			r.Header.Set("Authorization", "Bearer "+token)

			handler.ServeHTTP(w, r)

			if w.Code != tc.wantStatus {
				t.Errorf("expected %d, got %d", tc.wantStatus, w.Code)
			}
		})
	}
}
