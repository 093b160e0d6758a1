package security

import (
	"github.com/cybertheory/vendordashboard/internal/domain"
)

// Authorization policy for vendor-owned resources. The rules are small but
// centralizing them keeps the ownership and category checks identical across
// every service that mutates posts.

// OwnsPost reports whether the post belongs to the vendor within the
// vendor's own tenant. A false answer is surfaced to callers as NotFound,
// never Forbidden, so the existence of other vendors' posts stays hidden.
func OwnsPost(vendor *domain.Vendor, post *domain.Post) bool {
	if vendor == nil || post == nil {
		return false
	}
	return post.VendorID == vendor.ID && post.ConfigID == vendor.ConfigID
}

// CanAssignCategory reports whether the vendor may create posts in the
// given category.
func CanAssignCategory(vendor *domain.Vendor, categoryID int64) bool {
	if vendor == nil {
		return false
	}
	return vendor.AllowsCategory(categoryID)
}
