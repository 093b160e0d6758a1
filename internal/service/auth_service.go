package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cybertheory/vendordashboard/internal/domain"
	"github.com/cybertheory/vendordashboard/internal/observability/metrics"
	"github.com/cybertheory/vendordashboard/internal/security/auth"
)

// TokenProvider signs and verifies bearer tokens. Tests substitute a fake
// instead of relying on any magic bypass value.
type TokenProvider interface {
	Generate(subject, email string, expiresIn time.Duration) (string, error)
	Verify(token string) (*auth.Claims, error)
}

// AuthService issues tokens and is the authorization guard every protected
// endpoint runs first.
type AuthService struct {
	accounts    domain.AccountRepository
	vendors     domain.VendorRepository
	tokens      TokenProvider
	tokenExpiry time.Duration
	logger      *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	accounts domain.AccountRepository,
	vendors domain.VendorRepository,
	tokens TokenProvider,
	tokenExpiry time.Duration,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		accounts:    accounts,
		vendors:     vendors,
		tokens:      tokens,
		tokenExpiry: tokenExpiry,
		logger:      logger,
	}
}

// TokenResult is the credential exchange response.
type TokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserEmail   string `json:"user_email"`
	VendorID    string `json:"vendor_id"`
}

// Login exchanges email+password for a bearer token. Unknown email and
// wrong password are the same failure; an account without an active vendor
// gets a token refusal, not a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenResult, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalid)
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("login attempt with unknown email")
			return nil, fmt.Errorf("%w: invalid credentials", domain.ErrInvalidCredential)
		}
		return nil, fmt.Errorf("%w: account lookup failed", domain.ErrUpstream)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("account_id", account.ID))
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrInvalidCredential)
	}

	vendor, err := s.resolveVendor(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(account.ID, account.Email, s.tokenExpiry)
	if err != nil {
		s.logger.Error("failed to sign token",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: failed to generate token", domain.ErrUpstream)
	}

	s.logger.Info("vendor logged in",
		slog.String("vendor_id", vendor.ID),
		slog.String("config_id", vendor.ConfigID),
	)

	return &TokenResult{
		AccessToken: token,
		TokenType:   "Bearer",
		UserEmail:   account.Email,
		VendorID:    vendor.ID,
	}, nil
}

// Authenticate converts a raw bearer token into a verified, active vendor.
// Credential failures short-circuit before any vendor lookup runs.
func (s *AuthService) Authenticate(ctx context.Context, bearer string) (*domain.Vendor, error) {
	claims, err := s.tokens.Verify(bearer)
	if err != nil {
		metrics.ObserveAuth("invalid_credential")
		return nil, err
	}

	vendor, err := s.resolveVendor(ctx, claims.Subject)
	if err != nil {
		metrics.ObserveAuth("not_approved")
		return nil, err
	}

	metrics.ObserveAuth("ok")
	return vendor, nil
}

// resolveVendor maps an account subject to its vendor record. A missing
// link and an inactive vendor both come back as ErrVendorNotApproved; the
// sub-reason is logged here and nowhere else.
func (s *AuthService) resolveVendor(ctx context.Context, subject string) (*domain.Vendor, error) {
	vendor, err := s.vendors.GetByUserID(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("no vendor linked to account", slog.String("account_id", subject))
			return nil, domain.ErrVendorNotApproved
		}
		return nil, fmt.Errorf("%w: vendor lookup failed", domain.ErrUpstream)
	}

	if !vendor.IsActive() {
		s.logger.Info("vendor is not active",
			slog.String("vendor_id", vendor.ID),
			slog.String("status", vendor.Status),
		)
		return nil, domain.ErrVendorNotApproved
	}

	return vendor, nil
}
