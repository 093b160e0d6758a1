package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/cybertheory/vendordashboard/internal/domain"
)

// PostgresVendorRepository implements domain.VendorRepository using
// PostgreSQL. Lookups run on the server's own pool, so they succeed
// regardless of any row-level visibility tied to a caller session.
type PostgresVendorRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresVendorRepository creates a new vendor repository
func NewPostgresVendorRepository(db *sql.DB, logger *slog.Logger) *PostgresVendorRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresVendorRepository{db: db, logger: logger}
}

// GetByUserID retrieves the single vendor linked to an account subject.
func (r *PostgresVendorRepository) GetByUserID(ctx context.Context, userID string) (*domain.Vendor, error) {
	vendor := &domain.Vendor{}

	query := `
		SELECT id, user_id, email, company_name, contact_name, phone,
		       allowed_categories, status, config_id,
		       subscription_tier, subscription_expires_at,
		       created_at, updated_at
		FROM vendors
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&vendor.ID,
		&vendor.UserID,
		&vendor.Email,
		&vendor.CompanyName,
		&vendor.ContactName,
		&vendor.Phone,
		pq.Array(&vendor.AllowedCategories),
		&vendor.Status,
		&vendor.ConfigID,
		&vendor.SubscriptionTier,
		&vendor.SubscriptionExpiresAt,
		&vendor.CreatedAt,
		&vendor.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("failed to get vendor by user id",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}

	return vendor, nil
}
