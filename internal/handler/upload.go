package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cybertheory/vendordashboard/internal/domain"
	"github.com/cybertheory/vendordashboard/internal/security/middleware"
	"github.com/cybertheory/vendordashboard/internal/service"
)

// UploadHandler proxies image uploads to the external image store
type UploadHandler struct {
	uploadService *service.UploadService
	maxBytes      int64
	logger        *slog.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadService *service.UploadService, maxBytes int64, logger *slog.Logger) *UploadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadHandler{
		uploadService: uploadService,
		maxBytes:      maxBytes,
		logger:        logger,
	}
}

// ServeHTTP handles POST /upload-image requests. Files are forwarded one
// at a time with no rollback: when a mid-batch upload fails, the earlier
// files stay attached and the upstream error is returned as-is.
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vendor := middleware.GetVendorFromContext(r.Context())
	if vendor == nil {
		writeErrorMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	editToken := r.FormValue("token")
	postID := r.FormValue("postId")
	configID := r.FormValue("config_id")

	files := r.MultipartForm.File["image"]
	if editToken == "" || postID == "" || configID == "" || len(files) == 0 {
		writeErrorMessage(w, http.StatusBadRequest, "token, postId, config_id and image are required")
		return
	}

	results := make([]json.RawMessage, 0, len(files))
	for _, fh := range files {
		file, err := fh.Open()
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "unreadable image file")
			return
		}

		body, err := h.uploadService.Forward(r.Context(), vendor, domain.ImageUpload{
			EditToken: editToken,
			PostID:    postID,
			ConfigID:  configID,
			FileName:  fh.Filename,
			MIMEType:  fh.Header.Get("Content-Type"),
			Data:      file,
		})
		file.Close()
		if err != nil {
			h.writeUploadError(w, err)
			return
		}

		results = append(results, json.RawMessage(body))
	}

	// Single file: the upstream body goes back verbatim.
	if len(results) == 1 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(results[0])
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// writeUploadError propagates the upstream status code and message when
// the image function itself rejected the upload.
func (h *UploadHandler) writeUploadError(w http.ResponseWriter, err error) {
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		writeErrorMessage(w, upstream.StatusCode, upstream.Message)
		return
	}
	writeError(w, h.logger, err)
}
