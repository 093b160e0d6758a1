package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/cybertheory/vendordashboard/internal/domain"
)

func TestGenerateAndVerify(t *testing.T) {
	tm := NewTokenManager("test-secret", "vendordashboard")

	token, err := tm.Generate("acct-1", "alice@example.com", time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := tm.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Subject != "acct-1" || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	tm := NewTokenManager("test-secret", "vendordashboard")

	if _, err := tm.Verify(""); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected missing credential, got %v", err)
	}
	if _, err := tm.Verify("not-a-jwt"); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected invalid credential, got %v", err)
	}

	// Token signed with another key
	other := NewTokenManager("different-secret", "vendordashboard")
	token, _ := other.Generate("acct-1", "alice@example.com", time.Hour)
	if _, err := tm.Verify(token); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected invalid credential for wrong key, got %v", err)
	}

	// Expired token
	expired, _ := tm.Generate("acct-1", "alice@example.com", -time.Minute)
	if _, err := tm.Verify(expired); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected invalid credential for expired token, got %v", err)
	}
}

func TestExtractToken(t *testing.T) {
	if _, err := ExtractToken(""); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected missing credential, got %v", err)
	}
	if _, err := ExtractToken("Basic abc"); err == nil {
		t.Fatalf("expected error for non-bearer header")
	}
	token, err := ExtractToken("Bearer abc123")
	if err != nil || token != "abc123" {
		t.Fatalf("expected abc123, got %q (%v)", token, err)
	}
}
