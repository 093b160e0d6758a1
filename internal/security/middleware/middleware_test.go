package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cybertheory/vendordashboard/internal/domain"
	"github.com/cybertheory/vendordashboard/internal/security/audit"
	"github.com/cybertheory/vendordashboard/internal/security/auth"
	"github.com/cybertheory/vendordashboard/internal/service"
)

// rejectAllTokens fails verification for every bearer token.
type rejectAllTokens struct{}

func (rejectAllTokens) Generate(subject, email string, expiresIn time.Duration) (string, error) {
	return "", domain.ErrInvalidCredential
}

func (rejectAllTokens) Verify(token string) (*auth.Claims, error) {
	return nil, domain.ErrInvalidCredential
}

func newGuard(logs *bytes.Buffer) func(http.Handler) http.Handler {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditLog := audit.NewLogger(slog.New(slog.NewJSONHandler(logs, nil)))
	authService := service.NewAuthService(nil, nil, rejectAllTokens{}, time.Hour, discard)
	return AuthMiddleware(authService, auditLog, discard)
}

func TestAuthMiddlewareAuditsMissingToken(t *testing.T) {
	var logs bytes.Buffer
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without a token")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/posts", nil)
	newGuard(&logs)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	out := logs.String()
	if !strings.Contains(out, "access_denied") || !strings.Contains(out, "missing bearer token") {
		t.Fatalf("expected an access_denied audit record, got %q", out)
	}
}

func TestAuthMiddlewareAuditsInvalidToken(t *testing.T) {
	var logs bytes.Buffer
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run with a rejected token")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/posts", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	newGuard(&logs)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	out := logs.String()
	if !strings.Contains(out, "access_denied") || !strings.Contains(out, "invalid bearer token") {
		t.Fatalf("expected an access_denied audit record, got %q", out)
	}
}

func TestAuthMiddlewareSkipsPublicPaths(t *testing.T) {
	var logs bytes.Buffer
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/healthz", nil)
	newGuard(&logs)(next).ServeHTTP(rec, req)

	if !called {
		t.Fatal("public path should reach the handler without a token")
	}
	if logs.Len() != 0 {
		t.Fatalf("public path should not leave audit records, got %q", logs.String())
	}
}
