package domain

import (
	"context"
	"time"
)

// Account is the authentication principal a vendor logs in with.
type Account struct {
	ID           string // UUID, the token subject
	Email        string // Unique email address
	PasswordHash string // Bcrypt hash, never returned in API responses
	CreatedAt    time.Time
}

// Vendor is an approved seller scoped to one tenant (config). Vendors are
// created and approved out-of-band; this service only reads them.
type Vendor struct {
	ID                    string     `json:"id"`
	UserID                string     `json:"user_id"`
	Email                 string     `json:"email"`
	CompanyName           string     `json:"company_name"`
	ContactName           string     `json:"contact_name"`
	Phone                 string     `json:"phone"`
	AllowedCategories     []int64    `json:"allowed_categories"`
	Status                string     `json:"status"` // "active" or anything else
	ConfigID              string     `json:"config_id"`
	SubscriptionTier      string     `json:"subscription_tier"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// IsActive reports whether the vendor may use the dashboard.
func (v *Vendor) IsActive() bool {
	return v.Status == VendorStatusActive
}

// AllowsCategory reports membership of id in the vendor's allowed set.
func (v *Vendor) AllowsCategory(id int64) bool {
	for _, c := range v.AllowedCategories {
		if c == id {
			return true
		}
	}
	return false
}

const VendorStatusActive = "active"

// Config is a tenant: one university-marketplace instance.
type Config struct {
	ID         string `json:"id"`
	SchoolName string `json:"school_name"`
}

// AccountRepository defines data access for auth accounts.
type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
}

// VendorRepository defines data access for vendors. Lookups run with the
// server's own database privileges, independent of any caller session.
type VendorRepository interface {
	GetByUserID(ctx context.Context, userID string) (*Vendor, error)
}

// ConfigRepository defines data access for tenants.
type ConfigRepository interface {
	GetByID(ctx context.Context, id string) (*Config, error)
}
