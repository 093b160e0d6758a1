package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cybertheory/vendordashboard/internal/domain"
	"github.com/cybertheory/vendordashboard/internal/infrastructure/redis"
)

// PostgresConfigRepository implements domain.ConfigRepository using PostgreSQL
type PostgresConfigRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresConfigRepository creates a new config repository
func NewPostgresConfigRepository(db *sql.DB, logger *slog.Logger) *PostgresConfigRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresConfigRepository{db: db, logger: logger}
}

// GetByID retrieves a tenant config
func (r *PostgresConfigRepository) GetByID(ctx context.Context, id string) (*domain.Config, error) {
	config := &domain.Config{}

	query := `
		SELECT id, school_name
		FROM configs
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(&config.ID, &config.SchoolName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	return config, nil
}

// CachedConfigRepository layers a Redis cache over another config
// repository. Tenant names change rarely, so a short TTL keeps the
// dashboard from hammering postgres for the same row on every page load.
type CachedConfigRepository struct {
	inner  domain.ConfigRepository
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedConfigRepository wraps inner with a Redis cache.
func NewCachedConfigRepository(inner domain.ConfigRepository, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedConfigRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedConfigRepository{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

// GetByID serves from cache when possible. Cache failures degrade to the
// inner repository; they never fail the request.
func (r *CachedConfigRepository) GetByID(ctx context.Context, id string) (*domain.Config, error) {
	key := "config:" + id

	if raw, err := r.cache.Get(ctx, key); err == nil {
		config := &domain.Config{}
		if err := json.Unmarshal([]byte(raw), config); err == nil {
			return config, nil
		}
		// Unreadable entry; drop it and fall through.
		_ = r.cache.Delete(ctx, key)
	} else if !redis.IsMiss(err) {
		r.logger.Warn("config cache read failed",
			slog.String("config_id", id),
			slog.String("error", err.Error()),
		)
	}

	config, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(config); err == nil {
		if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
			r.logger.Warn("config cache write failed",
				slog.String("config_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return config, nil
}
