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

// PostgresCategoryRepository implements domain.CategoryRepository using
// PostgreSQL. The category tree is global and read-only here.
type PostgresCategoryRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCategoryRepository creates a new category repository
func NewPostgresCategoryRepository(db *sql.DB, logger *slog.Logger) *PostgresCategoryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCategoryRepository{db: db, logger: logger}
}

// GetByID retrieves one category
func (r *PostgresCategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	category := &domain.Category{}

	query := `
		SELECT id, name, slug, parent_id
		FROM categories
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.ParentID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}

// ListByIDs retrieves the categories whose id is in ids, name ascending.
// An empty id set yields an empty slice without touching the database.
func (r *PostgresCategoryRepository) ListByIDs(ctx context.Context, ids []int64) ([]*domain.Category, error) {
	if len(ids) == 0 {
		return []*domain.Category{}, nil
	}

	query := `
		SELECT id, name, slug, parent_id
		FROM categories
		WHERE id = ANY($1)
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		r.logger.Error("failed to list categories",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category := &domain.Category{}
		if err := rows.Scan(&category.ID, &category.Name, &category.Slug, &category.ParentID); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}
