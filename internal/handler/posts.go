package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cybertheory/vendordashboard/internal/security/middleware"
	"github.com/cybertheory/vendordashboard/internal/service"
)

// PostsHandler handles the post collection: list own posts and create
type PostsHandler struct {
	postService *service.PostService
	logger      *slog.Logger
}

// NewPostsHandler creates a new posts handler
func NewPostsHandler(postService *service.PostService, logger *slog.Logger) *PostsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostsHandler{postService: postService, logger: logger}
}

// CreatePostRequest is the post draft payload
type CreatePostRequest struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	CategoryID    int64   `json:"category_id"`
	SubcategoryID *int64  `json:"subcategory_id,omitempty"`
	Email         string  `json:"email,omitempty"`
	CompanyName   string  `json:"company_name,omitempty"`
}

// CreatePostResponse returns the new post id and its edit token
type CreatePostResponse struct {
	Message   string `json:"message"`
	PostID    string `json:"postId"`
	EditToken string `json:"editToken"`
}

// List handles GET /posts
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	vendor := middleware.GetVendorFromContext(r.Context())
	if vendor == nil {
		writeErrorMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	posts, err := h.postService.List(r.Context(), vendor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

// Create handles POST /posts
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	vendor := middleware.GetVendorFromContext(r.Context())
	if vendor == nil {
		writeErrorMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode create post request", slog.String("error", err.Error()))
		writeErrorMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	result, err := h.postService.Create(r.Context(), vendor, service.CreateInput{
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		Email:         req.Email,
		CompanyName:   req.CompanyName,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreatePostResponse{
		Message:   "post created",
		PostID:    result.PostID,
		EditToken: result.EditToken,
	})
}
