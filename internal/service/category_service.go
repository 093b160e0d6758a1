package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cybertheory/vendordashboard/internal/domain"
	"github.com/cybertheory/vendordashboard/internal/security"
	"github.com/cybertheory/vendordashboard/pkg/cache"
)

// CategoryService filters the global category tree down to what one vendor
// is allowed to see and use.
type CategoryService struct {
	categories domain.CategoryRepository
	cache      *cache.Cache
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// NewCategoryService creates a new category service
func NewCategoryService(categories domain.CategoryRepository, c *cache.Cache, cacheTTL time.Duration, logger *slog.Logger) *CategoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryService{
		categories: categories,
		cache:      c,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// ListAllowed returns the categories in the vendor's allowed set, name
// ascending. An empty allowed set is an empty result, not an error.
func (s *CategoryService) ListAllowed(ctx context.Context, vendor *domain.Vendor) ([]*domain.Category, error) {
	if len(vendor.AllowedCategories) == 0 {
		return []*domain.Category{}, nil
	}

	key := allowedSetKey(vendor.AllowedCategories)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*domain.Category), nil
	}

	categories, err := s.categories.ListByIDs(ctx, vendor.AllowedCategories)
	if err != nil {
		return nil, fmt.Errorf("%w: category lookup failed", domain.ErrUpstream)
	}

	s.cache.Set(key, categories, s.cacheTTL)
	return categories, nil
}

// ValidateAssignment checks a candidate category (and optional subcategory)
// for post creation. The subcategory must actually be a child of the chosen
// category; client-supplied pairing is not trusted.
func (s *CategoryService) ValidateAssignment(ctx context.Context, vendor *domain.Vendor, categoryID int64, subcategoryID *int64) error {
	if !security.CanAssignCategory(vendor, categoryID) {
		return domain.ErrCategoryNotAllowed
	}

	if subcategoryID == nil {
		return nil
	}

	sub, err := s.categories.GetByID(ctx, *subcategoryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: unknown subcategory", domain.ErrInvalid)
		}
		return fmt.Errorf("%w: category lookup failed", domain.ErrUpstream)
	}
	if sub.ParentID == nil || *sub.ParentID != categoryID {
		return fmt.Errorf("%w: subcategory does not belong to the chosen category", domain.ErrInvalid)
	}
	return nil
}

// allowedSetKey builds a stable cache key from an allowed-category set.
func allowedSetKey(ids []int64) string {
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "categories:" + strings.Join(parts, ",")
}
