package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"

	"github.com/cybertheory/vendordashboard/internal/domain"
)

const postColumns = `id, title, description, price, category_id, subcategory_id,
	vendor_id, config_id, status, email, company_name,
	photo_urls, has_photo, edit_token, edit_token_expires_at,
	created_at, updated_at, published_at, expires_at,
	is_vendor_post, is_scraped, scraped_url`

// PostgresPostRepository implements domain.PostRepository using PostgreSQL
type PostgresPostRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresPostRepository creates a new post repository
func NewPostgresPostRepository(db *sql.DB, logger *slog.Logger) *PostgresPostRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPostRepository{db: db, logger: logger}
}

// ListByVendor returns the vendor's own posts, newest first.
func (r *PostgresPostRepository) ListByVendor(ctx context.Context, vendorID, configID string) ([]*domain.Post, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM posts
		WHERE vendor_id = $1 AND config_id = $2
		ORDER BY created_at DESC
	`, postColumns)

	rows, err := r.db.QueryContext(ctx, query, vendorID, configID)
	if err != nil {
		r.logger.Error("failed to list posts",
			slog.String("vendor_id", vendorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []*domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// GetForVendor returns one post scoped to its owner. A missing row and a
// row owned by someone else are the same ErrNotFound.
func (r *PostgresPostRepository) GetForVendor(ctx context.Context, id, vendorID string) (*domain.Post, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM posts
		WHERE id = $1 AND vendor_id = $2
	`, postColumns)

	row := r.db.QueryRowContext(ctx, query, id, vendorID)
	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return post, nil
}

// Create inserts a fully populated post row.
func (r *PostgresPostRepository) Create(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (id, title, description, price, category_id, subcategory_id,
			vendor_id, config_id, status, email, company_name,
			photo_urls, has_photo, edit_token, edit_token_expires_at,
			created_at, updated_at, published_at, expires_at,
			is_vendor_post, is_scraped, scraped_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	_, err := r.db.ExecContext(ctx, query,
		post.ID,
		post.Title,
		post.Description,
		post.Price,
		post.CategoryID,
		post.SubcategoryID,
		post.VendorID,
		post.ConfigID,
		post.Status,
		post.Email,
		post.CompanyName,
		pq.Array(post.PhotoURLs),
		post.HasPhoto,
		post.EditToken,
		post.EditTokenExpiresAt,
		post.CreatedAt,
		post.UpdatedAt,
		post.PublishedAt,
		post.ExpiresAt,
		post.IsVendorPost,
		post.IsScraped,
		post.ScrapedURL,
	)
	if err != nil {
		r.logger.Error("failed to create post",
			slog.String("vendor_id", post.VendorID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// Update applies a partial field set to the owner-scoped row. The affected
// row count is the correctness signal: zero rows means the post does not
// exist for this owner, and no row is ever created here.
func (r *PostgresPostRepository) Update(ctx context.Context, id, vendorID, configID string, update domain.PostUpdate) error {
	set := []string{"updated_at = NOW()"}
	args := []interface{}{}
	arg := 1

	if update.Title != nil {
		set = append(set, fmt.Sprintf("title = $%d", arg))
		args = append(args, *update.Title)
		arg++
	}
	if update.Description != nil {
		set = append(set, fmt.Sprintf("description = $%d", arg))
		args = append(args, *update.Description)
		arg++
	}
	if update.Price != nil {
		set = append(set, fmt.Sprintf("price = $%d", arg))
		args = append(args, *update.Price)
		arg++
	}
	if update.PhotoURLs != nil {
		set = append(set, fmt.Sprintf("photo_urls = $%d", arg))
		args = append(args, pq.Array(*update.PhotoURLs))
		arg++
		set = append(set, fmt.Sprintf("has_photo = $%d", arg))
		args = append(args, len(*update.PhotoURLs) > 0)
		arg++
	}

	query := fmt.Sprintf(`
		UPDATE posts
		SET %s
		WHERE id = $%d AND vendor_id = $%d AND config_id = $%d
	`, strings.Join(set, ", "), arg, arg+1, arg+2)
	args = append(args, id, vendorID, configID)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to update post",
			slog.String("post_id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to update post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the owner-scoped row.
func (r *PostgresPostRepository) Delete(ctx context.Context, id, vendorID, configID string) error {
	query := `
		DELETE FROM posts
		WHERE id = $1 AND vendor_id = $2 AND config_id = $3
	`

	result, err := r.db.ExecContext(ctx, query, id, vendorID, configID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountActive counts verified, unexpired posts across all vendors.
func (r *PostgresPostRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	query := `
		SELECT COUNT(*)
		FROM posts
		WHERE status = $1 AND expires_at > NOW()
	`
	if err := r.db.QueryRowContext(ctx, query, domain.PostStatusVerified).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active posts: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*domain.Post, error) {
	post := &domain.Post{}
	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Description,
		&post.Price,
		&post.CategoryID,
		&post.SubcategoryID,
		&post.VendorID,
		&post.ConfigID,
		&post.Status,
		&post.Email,
		&post.CompanyName,
		pq.Array(&post.PhotoURLs),
		&post.HasPhoto,
		&post.EditToken,
		&post.EditTokenExpiresAt,
		&post.CreatedAt,
		&post.UpdatedAt,
		&post.PublishedAt,
		&post.ExpiresAt,
		&post.IsVendorPost,
		&post.IsScraped,
		&post.ScrapedURL,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan post: %w", err)
	}
	if post.PhotoURLs == nil {
		post.PhotoURLs = []string{}
	}
	return post, nil
}
