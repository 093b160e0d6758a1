package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cybertheory/vendordashboard/internal/domain"
	"github.com/cybertheory/vendordashboard/internal/observability/metrics"
	"github.com/cybertheory/vendordashboard/internal/security/audit"
)

// UploadService forwards authenticated image uploads to the external image
// store. The store client injects the privileged service key; this layer
// only validates the payload and records the outcome.
type UploadService struct {
	images domain.ImageStore
	audit  *audit.Logger
	logger *slog.Logger
}

// NewUploadService creates a new upload service
func NewUploadService(images domain.ImageStore, auditLog *audit.Logger, logger *slog.Logger) *UploadService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadService{
		images: images,
		audit:  auditLog,
		logger: logger,
	}
}

// Forward sends one file to the image store and returns the upstream body
// verbatim. The post's edit token is the capability that authorizes the
// write downstream; ownership is not re-derived here.
func (s *UploadService) Forward(ctx context.Context, vendor *domain.Vendor, upload domain.ImageUpload) ([]byte, error) {
	if upload.EditToken == "" {
		return nil, fmt.Errorf("%w: token is required", domain.ErrInvalid)
	}
	if upload.PostID == "" {
		return nil, fmt.Errorf("%w: postId is required", domain.ErrInvalid)
	}
	if upload.ConfigID == "" {
		return nil, fmt.Errorf("%w: config_id is required", domain.ErrInvalid)
	}
	if upload.Data == nil {
		return nil, fmt.Errorf("%w: image file is required", domain.ErrInvalid)
	}

	start := time.Now()
	body, err := s.images.Upload(ctx, upload)
	if err != nil {
		metrics.ObserveUpload("error", time.Since(start))
		s.audit.LogUpload(ctx, vendor.ID, vendor.ConfigID, upload.PostID, "error")
		return nil, err
	}

	metrics.ObserveUpload("ok", time.Since(start))
	s.audit.LogUpload(ctx, vendor.ID, vendor.ConfigID, upload.PostID, "ok")
	return body, nil
}
