package domain

import (
	"context"
	"io"
	"time"
)

// Post statuses. New and reposted posts are verified immediately; pending
// exists for listings ingested through other channels.
const (
	PostStatusPending  = "pending"
	PostStatusVerified = "verified"
)

// DefaultPostLifetime is how long a post stays live after publishing.
// Expiry is advisory metadata; nothing here transitions a post on expiry.
const DefaultPostLifetime = 30 * 24 * time.Hour

// Post is a classified listing owned by exactly one vendor within one tenant.
type Post struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Price              float64   `json:"price"`
	CategoryID         int64     `json:"category_id"`
	SubcategoryID      *int64    `json:"subcategory_id,omitempty"`
	VendorID           string    `json:"vendor_id"`
	ConfigID           string    `json:"config_id"`
	Status             string    `json:"status"`
	Email              string    `json:"email"`
	CompanyName        string    `json:"company_name"`
	PhotoURLs          []string  `json:"photo_urls"`
	HasPhoto           bool      `json:"has_photo"`
	EditToken          string    `json:"-"`
	EditTokenExpiresAt time.Time `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	PublishedAt        time.Time `json:"published_at"`
	ExpiresAt          time.Time `json:"expires_at"`
	IsVendorPost       bool      `json:"is_vendor_post"`
	IsScraped          bool      `json:"is_scraped"`
	ScrapedURL         string    `json:"scraped_url,omitempty"`
}

// PostUpdate is a partial field set for PATCH. Nil means "leave unchanged".
// Category and subcategory are immutable after creation and deliberately
// have no place here.
type PostUpdate struct {
	Title       *string
	Description *string
	Price       *float64
	PhotoURLs   *[]string
}

// Empty reports whether the update would change nothing.
func (u PostUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Price == nil && u.PhotoURLs == nil
}

// Category is one node of the two-level, tenant-independent classification
// tree. ParentID is nil for top-level categories.
type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// PostRepository defines data access for posts. Every read and write is
// scoped to the owning vendor; a miss and an ownership mismatch are the
// same ErrNotFound.
type PostRepository interface {
	ListByVendor(ctx context.Context, vendorID, configID string) ([]*Post, error)
	GetForVendor(ctx context.Context, id, vendorID string) (*Post, error)
	Create(ctx context.Context, post *Post) error
	// Update applies the partial field set to the owner-scoped row and
	// reports ErrNotFound when zero rows were affected.
	Update(ctx context.Context, id, vendorID, configID string, update PostUpdate) error
	Delete(ctx context.Context, id, vendorID, configID string) error
	CountActive(ctx context.Context) (int64, error)
}

// CategoryRepository defines read access to the global category tree.
type CategoryRepository interface {
	GetByID(ctx context.Context, id int64) (*Category, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*Category, error)
}

// ImageUpload is one file forwarded to the external image function.
type ImageUpload struct {
	EditToken string
	PostID    string
	ConfigID  string
	FileName  string
	MIMEType  string
	Data      io.Reader
}

// ImageStore is the external image-storage function. Implementations inject
// the server-held service key; callers never handle it.
type ImageStore interface {
	// Upload forwards one file and returns the upstream response body
	// verbatim. Non-2xx upstream responses come back as *UpstreamError.
	Upload(ctx context.Context, upload ImageUpload) ([]byte, error)
	// Cleanup removes every stored image belonging to a post.
	Cleanup(ctx context.Context, postID, configID, editToken string) error
}

// UpstreamError carries the status and message of a failed call to the
// image function so handlers can propagate them.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
