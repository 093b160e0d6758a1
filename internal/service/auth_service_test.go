package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cybertheory/vendordashboard/internal/domain"
	"github.com/cybertheory/vendordashboard/internal/security/auth"
)

type memAccountRepo struct {
	byEmail map[string]*domain.Account
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{byEmail: map[string]*domain.Account{}}
}

func (m *memAccountRepo) add(id, email, password string) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	m.byEmail[email] = &domain.Account{ID: id, Email: email, PasswordHash: string(hash), CreatedAt: time.Now()}
}

func (m *memAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if a, ok := m.byEmail[email]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

type memVendorRepo struct {
	byUserID map[string]*domain.Vendor
}

func newMemVendorRepo() *memVendorRepo {
	return &memVendorRepo{byUserID: map[string]*domain.Vendor{}}
}

func (m *memVendorRepo) GetByUserID(ctx context.Context, userID string) (*domain.Vendor, error) {
	if v, ok := m.byUserID[userID]; ok {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

// fakeTokens signs tokens as "tok:<subject>" so tests never depend on a
// real signing key.
type fakeTokens struct{}

func (fakeTokens) Generate(subject, email string, expiresIn time.Duration) (string, error) {
	return "tok:" + subject + ":" + email, nil
}

func (fakeTokens) Verify(token string) (*auth.Claims, error) {
	rest, ok := strings.CutPrefix(token, "tok:")
	if !ok {
		return nil, domain.ErrInvalidCredential
	}
	subject, email, _ := strings.Cut(rest, ":")
	claims := &auth.Claims{Email: email}
	claims.Subject = subject
	return claims, nil
}

func activeVendor(userID string) *domain.Vendor {
	return &domain.Vendor{
		ID:                "v-" + userID,
		UserID:            userID,
		Email:             userID + "@example.com",
		CompanyName:       "Acme Books",
		AllowedCategories: []int64{1, 2},
		Status:            domain.VendorStatusActive,
		ConfigID:          "cfg-1",
	}
}

func TestLogin(t *testing.T) {
	accounts := newMemAccountRepo()
	vendors := newMemVendorRepo()
	accounts.add("u-1", "alice@example.com", "Password123")
	vendors.byUserID["u-1"] = activeVendor("u-1")

	s := NewAuthService(accounts, vendors, fakeTokens{}, time.Hour, nil)

	r, err := s.Login(context.Background(), "alice@example.com", "Password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if r.AccessToken == "" || r.TokenType != "Bearer" {
		t.Fatalf("expected bearer token, got %+v", r)
	}
	if r.VendorID != "v-u-1" {
		t.Fatalf("expected vendor id v-u-1, got %s", r.VendorID)
	}

	// Unknown email and wrong password are the same failure
	if _, err := s.Login(context.Background(), "nobody@example.com", "Password123"); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected invalid credential for unknown email, got %v", err)
	}
	if _, err := s.Login(context.Background(), "alice@example.com", "Wrong"); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected invalid credential for wrong password, got %v", err)
	}
}

func TestLoginRequiresActiveVendor(t *testing.T) {
	accounts := newMemAccountRepo()
	vendors := newMemVendorRepo()
	accounts.add("u-1", "alice@example.com", "Password123")
	accounts.add("u-2", "bob@example.com", "Password123")

	pending := activeVendor("u-2")
	pending.Status = "pending"
	vendors.byUserID["u-2"] = pending

	s := NewAuthService(accounts, vendors, fakeTokens{}, time.Hour, nil)

	// Account with no vendor record at all
	if _, err := s.Login(context.Background(), "alice@example.com", "Password123"); !errors.Is(err, domain.ErrVendorNotApproved) {
		t.Fatalf("expected not-approved for missing vendor, got %v", err)
	}
	// Vendor exists but is not active
	if _, err := s.Login(context.Background(), "bob@example.com", "Password123"); !errors.Is(err, domain.ErrVendorNotApproved) {
		t.Fatalf("expected not-approved for inactive vendor, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	accounts := newMemAccountRepo()
	vendors := newMemVendorRepo()
	vendors.byUserID["u-1"] = activeVendor("u-1")

	s := NewAuthService(accounts, vendors, fakeTokens{}, time.Hour, nil)

	vendor, err := s.Authenticate(context.Background(), "tok:u-1:alice@example.com")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if vendor.ID != "v-u-1" {
		t.Fatalf("expected vendor v-u-1, got %s", vendor.ID)
	}

	if _, err := s.Authenticate(context.Background(), "garbage"); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected invalid credential, got %v", err)
	}

	// Valid token whose subject has no active vendor
	if _, err := s.Authenticate(context.Background(), "tok:u-unknown:x@example.com"); !errors.Is(err, domain.ErrVendorNotApproved) {
		t.Fatalf("expected not-approved, got %v", err)
	}
}
