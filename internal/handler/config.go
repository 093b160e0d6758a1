package handler

import (
	"log/slog"
	"net/http"

	"github.com/cybertheory/vendordashboard/internal/domain"
)

// ConfigHandler serves tenant display information
type ConfigHandler struct {
	configs domain.ConfigRepository
	logger  *slog.Logger
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(configs domain.ConfigRepository, logger *slog.Logger) *ConfigHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigHandler{configs: configs, logger: logger}
}

// ServeHTTP handles GET /config/{id} requests
func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeErrorMessage(w, http.StatusBadRequest, "config id required")
		return
	}

	config, err := h.configs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, config)
}
