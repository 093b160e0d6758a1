package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cybertheory/vendordashboard/internal/domain"
)

// Claims carried by a vendor dashboard bearer token. Subject is the account
// id the vendor resolver maps to a vendor record.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 bearer tokens. There is no bypass
// token of any kind; tests substitute a verifier through the service layer.
type TokenManager struct {
	secret []byte
	issuer string
}

func NewTokenManager(secret, issuer string) *TokenManager {
	if issuer == "" {
		issuer = "vendordashboard"
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer}
}

// Generate issues a token for the given account subject.
func (tm *TokenManager) Generate(subject, email string, expiresIn time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("subject required")
	}
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Verify checks signature and expiry and extracts {subject, email}.
// Every parse failure surfaces as domain.ErrInvalidCredential; an empty
// token is domain.ErrMissingCredential.
func (tm *TokenManager) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, domain.ErrMissingCredential
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidCredential, err.Error())
	}
	if !token.Valid || claims.Subject == "" {
		return nil, domain.ErrInvalidCredential
	}
	return claims, nil
}

// ExtractToken pulls the bearer token out of an Authorization header.
func ExtractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", domain.ErrMissingCredential
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid authorization header")
	}
	return parts[1], nil
}
