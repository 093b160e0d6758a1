package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cybertheory/vendordashboard/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeError maps a domain failure onto one HTTP status. Storage and
// upstream details stay in the server log; clients get a short message.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var upstream *domain.UpstreamError

	switch {
	case errors.Is(err, domain.ErrInvalid):
		writeErrorMessage(w, http.StatusBadRequest, userMessage(err, "invalid request"))
	case errors.Is(err, domain.ErrMissingCredential), errors.Is(err, domain.ErrInvalidCredential):
		writeErrorMessage(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrVendorNotApproved):
		writeErrorMessage(w, http.StatusForbidden, "not an active approved vendor")
	case errors.Is(err, domain.ErrCategoryNotAllowed):
		writeErrorMessage(w, http.StatusForbidden, "category not allowed")
	case errors.Is(err, domain.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, "not found")
	case errors.As(err, &upstream):
		writeErrorMessage(w, http.StatusBadGateway, upstream.Message)
	default:
		logger.Error("request failed", slog.String("error", err.Error()))
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}

// userMessage returns the sentinel-stripped message for client-safe
// errors, or fallback when there is nothing beyond the sentinel itself.
func userMessage(err error, fallback string) string {
	msg := err.Error()
	if msg == "" {
		return fallback
	}
	return msg
}
