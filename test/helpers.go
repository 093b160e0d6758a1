package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cybertheory/vendordashboard/internal/domain"
	"github.com/cybertheory/vendordashboard/internal/handler"
	"github.com/cybertheory/vendordashboard/internal/infrastructure/imagestore"
	"github.com/cybertheory/vendordashboard/internal/infrastructure/logger"
	"github.com/cybertheory/vendordashboard/internal/security/audit"
	"github.com/cybertheory/vendordashboard/internal/security/auth"
	"github.com/cybertheory/vendordashboard/internal/security/middleware"
	"github.com/cybertheory/vendordashboard/internal/security/ratelimit"
	"github.com/cybertheory/vendordashboard/internal/service"
	"github.com/cybertheory/vendordashboard/pkg/cache"
)

// In-memory repositories backing the end-to-end server.

type memAccounts struct {
	mu      sync.Mutex
	byEmail map[string]*domain.Account
}

func (m *memAccounts) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byEmail[email]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

type memVendors struct {
	mu       sync.Mutex
	byUserID map[string]*domain.Vendor
}

func (m *memVendors) GetByUserID(ctx context.Context, userID string) (*domain.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.byUserID[userID]; ok {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

type memCategories struct {
	byID map[int64]*domain.Category
}

func (m *memCategories) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	if c, ok := m.byID[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memCategories) ListByIDs(ctx context.Context, ids []int64) ([]*domain.Category, error) {
	out := []*domain.Category{}
	for _, id := range ids {
		if c, ok := m.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

type memPosts struct {
	mu   sync.Mutex
	byID map[string]*domain.Post
}

func (m *memPosts) ListByVendor(ctx context.Context, vendorID, configID string) ([]*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Post{}
	for _, p := range m.byID {
		if p.VendorID == vendorID && p.ConfigID == configID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memPosts) GetForVendor(ctx context.Context, id, vendorID string) (*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok || p.VendorID != vendorID {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPosts) Create(ctx context.Context, post *domain.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *post
	m.byID[post.ID] = &cp
	return nil
}

func (m *memPosts) Update(ctx context.Context, id, vendorID, configID string, update domain.PostUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
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

func (m *memPosts) Delete(ctx context.Context, id, vendorID, configID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok || p.VendorID != vendorID || p.ConfigID != configID {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memPosts) CountActive(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.byID {
		if p.Status == domain.PostStatusVerified && p.ExpiresAt.After(time.Now()) {
			n++
		}
	}
	return n, nil
}

// upstreamState controls the fake image function behind the proxy.
// failAfter delays the failure until that many uploads have succeeded.
type upstreamState struct {
	mu         sync.Mutex
	failStatus int
	failBody   string
	failAfter  int
	uploads    int
	cleanups   int
}

// Env is a fully wired test server over in-memory storage with a fake
// image function upstream.
type Env struct {
	Server   *httptest.Server
	Upstream *httptest.Server
	Accounts *memAccounts
	Vendors  *memVendors
	Posts    *memPosts
	State    *upstreamState
	limiters []*ratelimit.Limiter
}

const testServiceKey = "test-service-key"

// NewEnv builds the same handler/middleware stack the server binary runs,
// minus Postgres and Redis.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	log := logger.NewLogger("error")

	state := &upstreamState{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testServiceKey {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"bad service key"}`)
			return
		}

		state.mu.Lock()
		failStatus, failBody := state.failStatus, state.failBody
		uploadShouldFail := failStatus != 0 && state.uploads >= state.failAfter
		state.mu.Unlock()

		switch r.URL.Path {
		case "/upload-image":
			if uploadShouldFail {
				w.WriteHeader(failStatus)
				fmt.Fprint(w, failBody)
				return
			}
			if err := r.ParseMultipartForm(32 << 20); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":"bad multipart"}`)
				return
			}
			state.mu.Lock()
			state.uploads++
			n := state.uploads
			state.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"success":true,"url":"https://cdn.example.com/img-%d.jpg"}`, n)
		case "/cleanup-post":
			if failStatus != 0 {
				w.WriteHeader(failStatus)
				fmt.Fprint(w, failBody)
				return
			}
			state.mu.Lock()
			state.cleanups++
			state.mu.Unlock()
			fmt.Fprint(w, `{"success":true}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	accounts := &memAccounts{byEmail: map[string]*domain.Account{}}
	vendors := &memVendors{byUserID: map[string]*domain.Vendor{}}
	categories := &memCategories{byID: map[int64]*domain.Category{
		1:  {ID: 1, Name: "Books", Slug: "books"},
		2:  {ID: 2, Name: "Electronics", Slug: "electronics"},
		3:  {ID: 3, Name: "Furniture", Slug: "furniture"},
		10: {ID: 10, Name: "Textbooks", Slug: "textbooks", ParentID: int64Ptr(1)},
	}}
	posts := &memPosts{byID: map[string]*domain.Post{}}

	tokenManager := auth.NewTokenManager("test-secret", "vendordashboard")
	imageStore := imagestore.NewClient(upstream.URL, testServiceKey, log)
	auditLogger := audit.NewLogger(log)

	authService := service.NewAuthService(accounts, vendors, tokenManager, time.Hour, log)
	categoryService := service.NewCategoryService(categories, cache.New(), time.Minute, log)
	postService := service.NewPostService(posts, categoryService, imageStore, auditLogger, log)
	uploadService := service.NewUploadService(imageStore, auditLogger, log)

	loginLimiter := ratelimit.NewLimiter(1000, time.Minute)
	vendorLimiter := ratelimit.NewLimiter(1000, time.Minute)

	mux := http.NewServeMux()
	mux.Handle("POST /token", handler.NewTokenHandler(authService, loginLimiter, log))
	mux.Handle("GET /me", handler.NewProfileHandler(log))
	mux.Handle("GET /categories", handler.NewCategoriesHandler(categoryService, log))
	postsHandler := handler.NewPostsHandler(postService, log)
	mux.HandleFunc("GET /posts", postsHandler.List)
	mux.HandleFunc("POST /posts", postsHandler.Create)
	postDetail := handler.NewPostDetailHandler(postService, log)
	mux.HandleFunc("GET /posts/{id}", postDetail.Get)
	mux.HandleFunc("PATCH /posts/{id}", postDetail.Update)
	mux.HandleFunc("DELETE /posts/{id}", postDetail.Delete)
	mux.HandleFunc("POST /posts/{id}/repost", postDetail.Repost)
	mux.Handle("POST /upload-image", handler.NewUploadHandler(uploadService, 10<<20, log))

	root := middleware.CORS([]string{"http://localhost:5173"})(
		middleware.ValidateJSONContentType(log)(
			middleware.AuthMiddleware(authService, auditLogger, log)(
				middleware.RateLimitMiddleware(vendorLimiter, log)(mux),
			),
		),
	)

	server := httptest.NewServer(root)

	env := &Env{
		Server:   server,
		Upstream: upstream,
		Accounts: accounts,
		Vendors:  vendors,
		Posts:    posts,
		State:    state,
		limiters: []*ratelimit.Limiter{loginLimiter, vendorLimiter},
	}
	t.Cleanup(env.Close)
	return env
}

func (e *Env) Close() {
	e.Server.Close()
	e.Upstream.Close()
	for _, l := range e.limiters {
		l.Stop()
	}
}

func (e *Env) URL() string { return e.Server.URL }

// FailUpstream makes the image function return the given error until reset
// with FailUpstream(0, "").
func (e *Env) FailUpstream(status int, body string) {
	e.State.mu.Lock()
	defer e.State.mu.Unlock()
	e.State.failStatus = status
	e.State.failBody = body
	e.State.failAfter = 0
}

// FailUpstreamAfter lets n uploads succeed, then fails the rest.
func (e *Env) FailUpstreamAfter(n, status int, body string) {
	e.State.mu.Lock()
	defer e.State.mu.Unlock()
	e.State.failStatus = status
	e.State.failBody = body
	e.State.failAfter = n
}

// SeedVendor creates an account plus vendor record and returns the vendor.
func (e *Env) SeedVendor(t *testing.T, email, password, status string, allowed []int64) *domain.Vendor {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	userID := "u-" + email
	e.Accounts.mu.Lock()
	e.Accounts.byEmail[email] = &domain.Account{ID: userID, Email: email, PasswordHash: string(hash), CreatedAt: time.Now()}
	e.Accounts.mu.Unlock()

	vendor := &domain.Vendor{
		ID:                "v-" + email,
		UserID:            userID,
		Email:             email,
		CompanyName:       "Campus Traders",
		AllowedCategories: allowed,
		Status:            status,
		ConfigID:          "cfg-1",
	}
	e.Vendors.mu.Lock()
	e.Vendors.byUserID[userID] = vendor
	e.Vendors.mu.Unlock()
	return vendor
}

// Login exchanges credentials for a bearer token.
func (e *Env) Login(t *testing.T, email, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(e.URL()+"/token", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("login failed with %d: %s", resp.StatusCode, raw)
	}
	var result struct {
		AccessToken string `json:"access_token"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	return result.AccessToken
}

// Do sends an authenticated request with an optional JSON body.
func (e *Env) Do(t *testing.T, token, method, path string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.URL()+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// DecodeJSON decodes a response body and closes it.
func DecodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// AssertStatusCode fails the test when the response status differs.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func int64Ptr(v int64) *int64 { return &v }
