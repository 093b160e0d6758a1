package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/cybertheory/vendordashboard/internal/domain"
	"github.com/cybertheory/vendordashboard/internal/security/audit"
	"github.com/cybertheory/vendordashboard/pkg/cache"
)

type memPostRepo struct {
	byID map[string]*domain.Post
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{byID: map[string]*domain.Post{}}
}

func (m *memPostRepo) ListByVendor(ctx context.Context, vendorID, configID string) ([]*domain.Post, error) {
	out := []*domain.Post{}
	for _, p := range m.byID {
		if p.VendorID == vendorID && p.ConfigID == configID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memPostRepo) GetForVendor(ctx context.Context, id, vendorID string) (*domain.Post, error) {
	p, ok := m.byID[id]
	if !ok || p.VendorID != vendorID {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *memPostRepo) Create(ctx context.Context, post *domain.Post) error {
	cp := *post
	m.byID[post.ID] = &cp
	return nil
}

func (m *memPostRepo) Update(ctx context.Context, id, vendorID, configID string, update domain.PostUpdate) error {
	p, ok := m.byID[id]
	if !ok || p.VendorID != vendorID || p.ConfigID != configID {
		return domain.ErrNotFound
	}
	if update.Title != nil {
		p.Title = *update.Title
	}
	if update.Description != nil {
		p.Description = *update.Description
	}
	if update.Price != nil {
		p.Price = *update.Price
	}
	if update.PhotoURLs != nil {
		p.PhotoURLs = *update.PhotoURLs
		p.HasPhoto = len(p.PhotoURLs) > 0
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (m *memPostRepo) Delete(ctx context.Context, id, vendorID, configID string) error {
	p, ok := m.byID[id]
	if !ok || p.VendorID != vendorID || p.ConfigID != configID {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memPostRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	for _, p := range m.byID {
		if p.Status == domain.PostStatusVerified && p.ExpiresAt.After(time.Now()) {
			n++
		}
	}
	return n, nil
}

// fakeImageStore records calls and can be primed to fail.
type fakeImageStore struct {
	uploads    []domain.ImageUpload
	cleanups   []string
	uploadErr  error
	cleanupErr error
	response   []byte
}

func (f *fakeImageStore) Upload(ctx context.Context, upload domain.ImageUpload) ([]byte, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploads = append(f.uploads, upload)
	if f.response != nil {
		return f.response, nil
	}
	return []byte(`{"success":true}`), nil
}

func (f *fakeImageStore) Cleanup(ctx context.Context, postID, configID, editToken string) error {
	if f.cleanupErr != nil {
		return f.cleanupErr
	}
	f.cleanups = append(f.cleanups, postID)
	return nil
}

func newTestPostService(posts domain.PostRepository, images domain.ImageStore) *PostService {
	categories := NewCategoryService(testCategories(), cache.New(), time.Minute, nil)
	return NewPostService(posts, categories, images, audit.NewLogger(slog.Default()), nil)
}

func TestCreatePost(t *testing.T) {
	repo := newMemPostRepo()
	s := newTestPostService(repo, &fakeImageStore{})
	vendor := activeVendor("u-1")

	result, err := s.Create(context.Background(), vendor, CreateInput{
		Title:      "Calculus textbook",
		Price:      25,
		CategoryID: 1,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if result.PostID == "" || result.EditToken == "" {
		t.Fatalf("expected post id and edit token, got %+v", result)
	}

	post, err := s.Get(context.Background(), vendor, result.PostID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if post.Status != domain.PostStatusVerified {
		t.Fatalf("expected verified status, got %s", post.Status)
	}
	if post.HasPhoto || post.PhotoURLs == nil || len(post.PhotoURLs) != 0 {
		t.Fatalf("expected no photos on a fresh post, got %+v", post)
	}
	if post.Email != vendor.Email || post.CompanyName != vendor.CompanyName {
		t.Fatalf("expected contact defaults from vendor profile, got %s / %s", post.Email, post.CompanyName)
	}
	if !post.IsVendorPost {
		t.Fatalf("expected vendor-post flag set")
	}
	wantExpiry := post.PublishedAt.Add(domain.DefaultPostLifetime)
	if !post.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expected 30-day expiry, got %v", post.ExpiresAt)
	}
}

func TestCreatePostValidation(t *testing.T) {
	repo := newMemPostRepo()
	s := newTestPostService(repo, &fakeImageStore{})
	vendor := activeVendor("u-1")

	cases := map[string]CreateInput{
		"missing title":    {Price: 10, CategoryID: 1},
		"zero price":       {Title: "x", Price: 0, CategoryID: 1},
		"negative price":   {Title: "x", Price: -5, CategoryID: 1},
		"missing category": {Title: "x", Price: 10},
	}
	for name, input := range cases {
		if _, err := s.Create(context.Background(), vendor, input); !errors.Is(err, domain.ErrInvalid) {
			t.Errorf("%s: expected invalid, got %v", name, err)
		}
	}

	// Category outside the allowed set is refused and nothing is inserted
	if _, err := s.Create(context.Background(), vendor, CreateInput{Title: "x", Price: 10, CategoryID: 3}); !errors.Is(err, domain.ErrCategoryNotAllowed) {
		t.Fatalf("expected category-not-allowed, got %v", err)
	}
	if len(repo.byID) != 0 {
		t.Fatalf("expected no rows after refused create, got %d", len(repo.byID))
	}
}

func TestListNewestFirst(t *testing.T) {
	repo := newMemPostRepo()
	s := newTestPostService(repo, &fakeImageStore{})
	vendor := activeVendor("u-1")

	for _, title := range []string{"first", "second", "third"} {
		if _, err := s.Create(context.Background(), vendor, CreateInput{Title: title, Price: 10, CategoryID: 1}); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	posts, err := s.List(context.Background(), vendor)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	if posts[0].Title != "third" || posts[1].Title != "second" || posts[2].Title != "first" {
		t.Fatalf("expected newest first, got %s %s %s", posts[0].Title, posts[1].Title, posts[2].Title)
	}
}

func TestUpdatePost(t *testing.T) {
	repo := newMemPostRepo()
	s := newTestPostService(repo, &fakeImageStore{})
	vendor := activeVendor("u-1")

	result, err := s.Create(context.Background(), vendor, CreateInput{Title: "Old title", Price: 10, CategoryID: 1})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	title := "New title"
	price := 12.5
	if err := s.Update(context.Background(), vendor, result.PostID, domain.PostUpdate{Title: &title, Price: &price}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	post, _ := s.Get(context.Background(), vendor, result.PostID)
	if post.Title != "New title" || post.Price != 12.5 {
		t.Fatalf("update not applied: %+v", post)
	}

	// Someone else's post looks like a miss
	other := activeVendor("u-2")
	if err := s.Update(context.Background(), other, result.PostID, domain.PostUpdate{Title: &title}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found for foreign post, got %v", err)
	}

	if err := s.Update(context.Background(), vendor, "missing", domain.PostUpdate{Title: &title}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestDeletePost(t *testing.T) {
	repo := newMemPostRepo()
	store := &fakeImageStore{}
	s := newTestPostService(repo, store)
	vendor := activeVendor("u-1")

	result, err := s.Create(context.Background(), vendor, CreateInput{Title: "x", Price: 10, CategoryID: 1})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := s.Delete(context.Background(), vendor, result.PostID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(store.cleanups) != 1 || store.cleanups[0] != result.PostID {
		t.Fatalf("expected image cleanup for %s, got %v", result.PostID, store.cleanups)
	}
	if _, err := s.Get(context.Background(), vendor, result.PostID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found after delete, got %v", err)
	}

	// Deleting again is a miss, not a server error
	if err := s.Delete(context.Background(), vendor, result.PostID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found on second delete, got %v", err)
	}
}

func TestDeletePostCleanupFailureKeepsRow(t *testing.T) {
	repo := newMemPostRepo()
	store := &fakeImageStore{cleanupErr: &domain.UpstreamError{StatusCode: 500, Message: "storage down"}}
	s := newTestPostService(repo, store)
	vendor := activeVendor("u-1")

	result, err := s.Create(context.Background(), vendor, CreateInput{Title: "x", Price: 10, CategoryID: 1})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := s.Delete(context.Background(), vendor, result.PostID); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if _, err := s.Get(context.Background(), vendor, result.PostID); err != nil {
		t.Fatalf("expected post to survive failed cleanup, got %v", err)
	}
}

func TestRepost(t *testing.T) {
	repo := newMemPostRepo()
	s := newTestPostService(repo, &fakeImageStore{})
	vendor := activeVendor("u-1")

	created, err := s.Create(context.Background(), vendor, CreateInput{Title: "Lamp", Price: 15, CategoryID: 2})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Simulate scraped provenance on the original
	original := repo.byID[created.PostID]
	original.IsScraped = true
	original.ScrapedURL = "https://example.com/listing"

	reposted, err := s.Repost(context.Background(), vendor, created.PostID)
	if err != nil {
		t.Fatalf("repost failed: %v", err)
	}
	if reposted.PostID == created.PostID {
		t.Fatalf("expected a new post id")
	}
	if reposted.EditToken == created.EditToken {
		t.Fatalf("expected a new edit token")
	}

	clone, err := s.Get(context.Background(), vendor, reposted.PostID)
	if err != nil {
		t.Fatalf("get clone failed: %v", err)
	}
	if clone.Title != "Lamp" || clone.Price != 15 {
		t.Fatalf("expected content carried over, got %+v", clone)
	}
	if clone.Status != domain.PostStatusVerified || clone.IsScraped || clone.ScrapedURL != "" || !clone.IsVendorPost {
		t.Fatalf("expected fresh vendor post with cleared provenance, got %+v", clone)
	}

	// Original is untouched
	if got, _ := s.Get(context.Background(), vendor, created.PostID); !got.IsScraped {
		t.Fatalf("expected original left as-is")
	}

	// Cannot repost someone else's post
	other := activeVendor("u-2")
	if _, err := s.Repost(context.Background(), other, created.PostID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found for foreign repost, got %v", err)
	}
}
