package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cybertheory/vendordashboard/internal/domain"
	"github.com/cybertheory/vendordashboard/internal/observability/metrics"
	"github.com/cybertheory/vendordashboard/internal/security"
	"github.com/cybertheory/vendordashboard/internal/security/audit"
)

// PostService owns the post lifecycle: create, read, update, delete,
// repost. Every operation is scoped to the authenticated vendor.
type PostService struct {
	posts      domain.PostRepository
	categories *CategoryService
	images     domain.ImageStore
	audit      *audit.Logger
	logger     *slog.Logger
}

// NewPostService creates a new post service
func NewPostService(
	posts domain.PostRepository,
	categories *CategoryService,
	images domain.ImageStore,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *PostService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostService{
		posts:      posts,
		categories: categories,
		images:     images,
		audit:      auditLog,
		logger:     logger,
	}
}

// CreateInput is a post draft. Contact fields default from the vendor
// profile when absent.
type CreateInput struct {
	Title         string
	Description   string
	Price         float64
	CategoryID    int64
	SubcategoryID *int64
	Email         string
	CompanyName   string
}

// CreateResult returns the new post id plus the edit token the image
// upload flow needs.
type CreateResult struct {
	PostID    string `json:"postId"`
	EditToken string `json:"editToken"`
}

// List returns the vendor's own posts, newest first.
func (s *PostService) List(ctx context.Context, vendor *domain.Vendor) ([]*domain.Post, error) {
	posts, err := s.posts.ListByVendor(ctx, vendor.ID, vendor.ConfigID)
	if err != nil {
		return nil, fmt.Errorf("%w: post listing failed", domain.ErrUpstream)
	}
	return posts, nil
}

// Get returns one owned post. A miss and someone else's post are the same
// ErrNotFound.
func (s *PostService) Get(ctx context.Context, vendor *domain.Vendor, id string) (*domain.Post, error) {
	post, err := s.posts.GetForVendor(ctx, id, vendor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: post lookup failed", domain.ErrUpstream)
	}
	if !security.OwnsPost(vendor, post) {
		return nil, domain.ErrNotFound
	}
	return post, nil
}

// Create validates the draft against the vendor's allowed categories and
// inserts a fresh post. New posts publish immediately with a 30-day expiry.
func (s *PostService) Create(ctx context.Context, vendor *domain.Vendor, input CreateInput) (*CreateResult, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalid)
	}
	if input.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", domain.ErrInvalid)
	}
	if input.CategoryID == 0 {
		return nil, fmt.Errorf("%w: category is required", domain.ErrInvalid)
	}

	if err := s.categories.ValidateAssignment(ctx, vendor, input.CategoryID, input.SubcategoryID); err != nil {
		return nil, err
	}

	email := input.Email
	if email == "" {
		email = vendor.Email
	}
	companyName := input.CompanyName
	if companyName == "" {
		companyName = vendor.CompanyName
	}

	now := time.Now()
	post := &domain.Post{
		ID:                 uuid.NewString(),
		Title:              input.Title,
		Description:        input.Description,
		Price:              input.Price,
		CategoryID:         input.CategoryID,
		SubcategoryID:      input.SubcategoryID,
		VendorID:           vendor.ID,
		ConfigID:           vendor.ConfigID,
		Status:             domain.PostStatusVerified,
		Email:              email,
		CompanyName:        companyName,
		PhotoURLs:          []string{},
		HasPhoto:           false,
		EditToken:          uuid.NewString(),
		EditTokenExpiresAt: now.Add(domain.DefaultPostLifetime),
		CreatedAt:          now,
		UpdatedAt:          now,
		PublishedAt:        now,
		ExpiresAt:          now.Add(domain.DefaultPostLifetime),
		IsVendorPost:       true,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		metrics.ObservePostOperation("create", "error")
		return nil, fmt.Errorf("%w: post creation failed", domain.ErrUpstream)
	}

	metrics.ObservePostOperation("create", "ok")
	s.audit.LogPostMutation(ctx, vendor.ID, vendor.ConfigID, "create", post.ID, "ok")

	return &CreateResult{PostID: post.ID, EditToken: post.EditToken}, nil
}

// Update applies a partial field set to an owned post. Category and
// subcategory are immutable; the handler drops them before this runs.
// Zero affected rows is ErrNotFound, never an insert.
func (s *PostService) Update(ctx context.Context, vendor *domain.Vendor, id string, update domain.PostUpdate) error {
	err := s.posts.Update(ctx, id, vendor.ID, vendor.ConfigID, update)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.ObservePostOperation("update", "not_found")
			return domain.ErrNotFound
		}
		metrics.ObservePostOperation("update", "error")
		return fmt.Errorf("%w: post update failed", domain.ErrUpstream)
	}

	metrics.ObservePostOperation("update", "ok")
	s.audit.LogPostMutation(ctx, vendor.ID, vendor.ConfigID, "update", id, "ok")
	return nil
}

// Delete removes an owned post and its stored images. Image cleanup runs
// before the row delete; a cleanup failure surfaces and leaves the row in
// place rather than silently orphaning stored files.
func (s *PostService) Delete(ctx context.Context, vendor *domain.Vendor, id string) error {
	post, err := s.Get(ctx, vendor, id)
	if err != nil {
		return err
	}

	if err := s.images.Cleanup(ctx, post.ID, post.ConfigID, post.EditToken); err != nil {
		metrics.ObservePostOperation("delete", "cleanup_error")
		s.audit.LogPostMutation(ctx, vendor.ID, vendor.ConfigID, "delete", id, "cleanup_failed")
		s.logger.Error("image cleanup failed",
			slog.String("post_id", id),
			slog.String("error", err.Error()),
		)
		return err
	}

	if err := s.posts.Delete(ctx, id, vendor.ID, vendor.ConfigID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Raced with another delete of the same post; the outcome
			// the caller asked for holds.
			return domain.ErrNotFound
		}
		metrics.ObservePostOperation("delete", "error")
		return fmt.Errorf("%w: post deletion failed", domain.ErrUpstream)
	}

	metrics.ObservePostOperation("delete", "ok")
	s.audit.LogPostMutation(ctx, vendor.ID, vendor.ConfigID, "delete", id, "ok")
	return nil
}

// Repost clones an owned post as a brand-new listing: new id, new edit
// token, fresh timestamps, verified status, scrape provenance cleared.
// The original is left untouched.
func (s *PostService) Repost(ctx context.Context, vendor *domain.Vendor, id string) (*CreateResult, error) {
	original, err := s.Get(ctx, vendor, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	clone := *original
	clone.ID = uuid.NewString()
	clone.EditToken = uuid.NewString()
	clone.EditTokenExpiresAt = now.Add(domain.DefaultPostLifetime)
	clone.CreatedAt = now
	clone.UpdatedAt = now
	clone.PublishedAt = now
	clone.ExpiresAt = now.Add(domain.DefaultPostLifetime)
	clone.Status = domain.PostStatusVerified
	clone.IsScraped = false
	clone.ScrapedURL = ""
	clone.IsVendorPost = true

	if err := s.posts.Create(ctx, &clone); err != nil {
		metrics.ObservePostOperation("repost", "error")
		return nil, fmt.Errorf("%w: repost failed", domain.ErrUpstream)
	}

	metrics.ObservePostOperation("repost", "ok")
	s.audit.LogPostMutation(ctx, vendor.ID, vendor.ConfigID, "repost", clone.ID, "ok")

	return &CreateResult{PostID: clone.ID, EditToken: clone.EditToken}, nil
}
