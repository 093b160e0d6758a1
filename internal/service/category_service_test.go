package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/cybertheory/vendordashboard/internal/domain"
	"github.com/cybertheory/vendordashboard/pkg/cache"
)

type memCategoryRepo struct {
	byID  map[int64]*domain.Category
	calls int
}

func newMemCategoryRepo(categories ...*domain.Category) *memCategoryRepo {
	m := &memCategoryRepo{byID: map[int64]*domain.Category{}}
	for _, c := range categories {
		m.byID[c.ID] = c
	}
	return m
}

func (m *memCategoryRepo) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	if c, ok := m.byID[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memCategoryRepo) ListByIDs(ctx context.Context, ids []int64) ([]*domain.Category, error) {
	m.calls++
	out := []*domain.Category{}
	for _, id := range ids {
		if c, ok := m.byID[id]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func parentOf(id int64) *int64 { return &id }

func testCategories() *memCategoryRepo {
	return newMemCategoryRepo(
		&domain.Category{ID: 1, Name: "Books", Slug: "books"},
		&domain.Category{ID: 2, Name: "Electronics", Slug: "electronics"},
		&domain.Category{ID: 3, Name: "Furniture", Slug: "furniture"},
		&domain.Category{ID: 10, Name: "Textbooks", Slug: "textbooks", ParentID: parentOf(1)},
		&domain.Category{ID: 11, Name: "Laptops", Slug: "laptops", ParentID: parentOf(2)},
	)
}

func TestListAllowed(t *testing.T) {
	repo := testCategories()
	s := NewCategoryService(repo, cache.New(), time.Minute, nil)

	vendor := &domain.Vendor{ID: "v-1", AllowedCategories: []int64{2, 1}}
	got, err := s.ListAllowed(context.Background(), vendor)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Books" || got[1].Name != "Electronics" {
		t.Fatalf("expected [Books Electronics], got %v", got)
	}

	// Second call is served from cache
	if _, err := s.ListAllowed(context.Background(), vendor); err != nil {
		t.Fatalf("cached list failed: %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("expected one repository call, got %d", repo.calls)
	}
}

func TestListAllowedEmptySet(t *testing.T) {
	s := NewCategoryService(testCategories(), cache.New(), time.Minute, nil)

	got, err := s.ListAllowed(context.Background(), &domain.Vendor{ID: "v-1"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
}

func TestValidateAssignment(t *testing.T) {
	s := NewCategoryService(testCategories(), cache.New(), time.Minute, nil)
	vendor := &domain.Vendor{ID: "v-1", AllowedCategories: []int64{1}}

	// Category outside the allowed set
	if err := s.ValidateAssignment(context.Background(), vendor, 2, nil); !errors.Is(err, domain.ErrCategoryNotAllowed) {
		t.Fatalf("expected category-not-allowed, got %v", err)
	}

	// Allowed category without subcategory
	if err := s.ValidateAssignment(context.Background(), vendor, 1, nil); err != nil {
		t.Fatalf("expected valid assignment, got %v", err)
	}

	// Matching parent/child pair
	sub := int64(10)
	if err := s.ValidateAssignment(context.Background(), vendor, 1, &sub); err != nil {
		t.Fatalf("expected valid subcategory, got %v", err)
	}

	// Subcategory that belongs to a different category
	wrong := int64(11)
	if err := s.ValidateAssignment(context.Background(), vendor, 1, &wrong); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("expected invalid for mismatched subcategory, got %v", err)
	}

	// Nonexistent subcategory
	missing := int64(999)
	if err := s.ValidateAssignment(context.Background(), vendor, 1, &missing); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("expected invalid for unknown subcategory, got %v", err)
	}
}
