package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cybertheory/vendordashboard/internal/domain"
	"github.com/cybertheory/vendordashboard/internal/security/middleware"
	"github.com/cybertheory/vendordashboard/internal/service"
)

// PostDetailHandler handles operations on a single owned post
type PostDetailHandler struct {
	postService *service.PostService
	logger      *slog.Logger
}

// NewPostDetailHandler creates a new post detail handler
func NewPostDetailHandler(postService *service.PostService, logger *slog.Logger) *PostDetailHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostDetailHandler{postService: postService, logger: logger}
}

// UpdatePostRequest is a partial update. Category fields are accepted in
// the payload for client convenience but silently ignored: they are
// immutable after creation.
type UpdatePostRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	PhotoURLs   *[]string `json:"photo_urls,omitempty"`
}

// MessageResponse is the generic mutation acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// Get handles GET /posts/{id}
func (h *PostDetailHandler) Get(w http.ResponseWriter, r *http.Request) {
	vendor, id, ok := h.vendorAndID(w, r)
	if !ok {
		return
	}

	post, err := h.postService.Get(r.Context(), vendor, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// Update handles PATCH /posts/{id}
func (h *PostDetailHandler) Update(w http.ResponseWriter, r *http.Request) {
	vendor, id, ok := h.vendorAndID(w, r)
	if !ok {
		return
	}

	var req UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode update request", slog.String("error", err.Error()))
		writeErrorMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	if req.Price != nil && *req.Price <= 0 {
		writeErrorMessage(w, http.StatusBadRequest, "price must be positive")
		return
	}
	if req.Title != nil && *req.Title == "" {
		writeErrorMessage(w, http.StatusBadRequest, "title must not be empty")
		return
	}

	err := h.postService.Update(r.Context(), vendor, id, domain.PostUpdate{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		PhotoURLs:   req.PhotoURLs,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "post updated"})
}

// Delete handles DELETE /posts/{id}. Row removal and image cleanup are one
// logical operation: a cleanup failure is surfaced and the row stays.
func (h *PostDetailHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vendor, id, ok := h.vendorAndID(w, r)
	if !ok {
		return
	}

	if err := h.postService.Delete(r.Context(), vendor, id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "post deleted"})
}

// Repost handles POST /posts/{id}/repost
func (h *PostDetailHandler) Repost(w http.ResponseWriter, r *http.Request) {
	vendor, id, ok := h.vendorAndID(w, r)
	if !ok {
		return
	}

	result, err := h.postService.Repost(r.Context(), vendor, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreatePostResponse{
		Message:   "post reposted",
		PostID:    result.PostID,
		EditToken: result.EditToken,
	})
}

func (h *PostDetailHandler) vendorAndID(w http.ResponseWriter, r *http.Request) (*domain.Vendor, string, bool) {
	vendor := middleware.GetVendorFromContext(r.Context())
	if vendor == nil {
		writeErrorMessage(w, http.StatusUnauthorized, "unauthorized")
		return nil, "", false
	}

	id := r.PathValue("id")
	if id == "" {
		writeErrorMessage(w, http.StatusBadRequest, "post id required")
		return nil, "", false
	}

	return vendor, id, true
}
