package handler

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cybertheory/vendordashboard/internal/security/ratelimit"
	"github.com/cybertheory/vendordashboard/internal/service"
)

// TokenHandler handles the credential exchange
type TokenHandler struct {
	authService *service.AuthService
	limiter     *ratelimit.Limiter
	logger      *slog.Logger
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(authService *service.AuthService, limiter *ratelimit.Limiter, logger *slog.Logger) *TokenHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenHandler{
		authService: authService,
		limiter:     limiter,
		logger:      logger,
	}
}

// TokenRequest represents login credentials
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ServeHTTP handles POST /token requests
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Credential exchange gets a strict per-address limit to slow down
	// password guessing.
	if !h.limiter.AllowStrict(clientAddr(r), 10, time.Minute) {
		writeErrorMessage(w, http.StatusTooManyRequests, "too many attempts")
		return
	}

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode token request", slog.String("error", err.Error()))
		writeErrorMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeErrorMessage(w, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
