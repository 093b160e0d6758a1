package handler

import (
	"log/slog"
	"net/http"

	"github.com/cybertheory/vendordashboard/internal/security/middleware"
	"github.com/cybertheory/vendordashboard/internal/service"
)

// CategoriesHandler serves the vendor's allowed categories
type CategoriesHandler struct {
	categoryService *service.CategoryService
	logger          *slog.Logger
}

// NewCategoriesHandler creates a new categories handler
func NewCategoriesHandler(categoryService *service.CategoryService, logger *slog.Logger) *CategoriesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoriesHandler{categoryService: categoryService, logger: logger}
}

// ServeHTTP handles GET /categories requests. A vendor with an empty
// allowed set gets an empty array with 200, not an error.
func (h *CategoriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vendor := middleware.GetVendorFromContext(r.Context())
	if vendor == nil {
		writeErrorMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	categories, err := h.categoryService.ListAllowed(r.Context(), vendor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, categories)
}
