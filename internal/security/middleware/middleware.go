package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cybertheory/vendordashboard/internal/domain"
	"github.com/cybertheory/vendordashboard/internal/security/audit"
	"github.com/cybertheory/vendordashboard/internal/security/auth"
	"github.com/cybertheory/vendordashboard/internal/security/ratelimit"
	"github.com/cybertheory/vendordashboard/internal/service"
)

type VendorContextKey struct{}

// publicPath lists the routes that run without a bearer token.
func publicPath(path string) bool {
	switch path {
	case "/token", "/healthz", "/readyz", "/metrics":
		return true
	default:
		return false
	}
}

// AuthMiddleware is the authorization guard: it turns the bearer token into
// a verified, active vendor before any handler runs, and stores the vendor
// in the request context. Token failures are 401; a missing or inactive
// vendor is a single indistinct 403. Every refusal leaves an audit record.
func AuthMiddleware(authService *service.AuthService, auditLog *audit.Logger, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token, err := auth.ExtractToken(r.Header.Get("Authorization"))
			if err != nil {
				auditLog.LogDenied(r.Context(), "", "missing bearer token")
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}

			vendor, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrMissingCredential), errors.Is(err, domain.ErrInvalidCredential):
					auditLog.LogDenied(r.Context(), "", "invalid bearer token")
					http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				case errors.Is(err, domain.ErrVendorNotApproved):
					auditLog.LogDenied(r.Context(), "", "no active approved vendor for token subject")
					http.Error(w, `{"error":"not an active approved vendor"}`, http.StatusForbidden)
				default:
					log.Error("authorization guard failed", slog.String("error", err.Error()))
					http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				}
				return
			}

			ctx := context.WithValue(r.Context(), VendorContextKey{}, vendor)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware limits authenticated traffic per vendor. It runs
// after the guard, so the key is always the resolved vendor id.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			key := ""
			if vendor := GetVendorFromContext(r.Context()); vendor != nil {
				key = vendor.ID
			}

			if !limiter.Allow(key) {
				log.Warn("rate limit exceeded", slog.String("vendor_id", key))
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetVendorFromContext returns the vendor the guard resolved, or nil.
func GetVendorFromContext(ctx context.Context) *domain.Vendor {
	if v := ctx.Value(VendorContextKey{}); v != nil {
		return v.(*domain.Vendor)
	}
	return nil
}
