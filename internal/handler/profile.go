package handler

import (
	"log/slog"
	"net/http"

	"github.com/cybertheory/vendordashboard/internal/security/middleware"
)

// ProfileHandler serves the authenticated vendor's own record
type ProfileHandler struct {
	logger *slog.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(logger *slog.Logger) *ProfileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileHandler{logger: logger}
}

// ServeHTTP handles GET /me requests. The guard already resolved the
// vendor; this just returns it.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vendor := middleware.GetVendorFromContext(r.Context())
	if vendor == nil {
		writeErrorMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, vendor)
}
