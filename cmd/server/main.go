package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cybertheory/vendordashboard/internal/featureflags"
	"github.com/cybertheory/vendordashboard/internal/handler"
	"github.com/cybertheory/vendordashboard/internal/infrastructure/imagestore"
	"github.com/cybertheory/vendordashboard/internal/infrastructure/logger"
	"github.com/cybertheory/vendordashboard/internal/infrastructure/redis"
	"github.com/cybertheory/vendordashboard/internal/observability/metrics"
	"github.com/cybertheory/vendordashboard/internal/observability/tracing"
	"github.com/cybertheory/vendordashboard/internal/repository"
	"github.com/cybertheory/vendordashboard/internal/security/audit"
	"github.com/cybertheory/vendordashboard/internal/security/auth"
	"github.com/cybertheory/vendordashboard/internal/security/middleware"
	"github.com/cybertheory/vendordashboard/internal/security/ratelimit"
	"github.com/cybertheory/vendordashboard/internal/service"
	"github.com/cybertheory/vendordashboard/internal/worker"
	"github.com/cybertheory/vendordashboard/pkg/cache"
	"github.com/cybertheory/vendordashboard/pkg/config"
	"github.com/cybertheory/vendordashboard/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting vendor dashboard server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(ctx, log, "vendordashboard", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Connect to Postgres
	pool, err := database.NewConnectionPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Connect to Redis
	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	// 6. Initialize repositories
	db := pool.GetDB()
	accountRepo := repository.NewPostgresAccountRepository(db, log)
	vendorRepo := repository.NewPostgresVendorRepository(db, log)
	categoryRepo := repository.NewPostgresCategoryRepository(db, log)
	postRepo := repository.NewPostgresPostRepository(db, log)
	configRepo := repository.NewCachedConfigRepository(
		repository.NewPostgresConfigRepository(db, log),
		redisClient,
		cfg.ConfigCacheTTL,
		log,
	)

	// 7. Initialize services
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "vendordashboard")
	imageStore := imagestore.NewClient(cfg.StorageURL, cfg.StorageServiceKey, log)
	auditLogger := audit.NewLogger(log)

	authService := service.NewAuthService(accountRepo, vendorRepo, tokenManager, cfg.TokenExpiry, log)
	categoryService := service.NewCategoryService(categoryRepo, cache.New(), cfg.CategoryCacheTTL, log)
	postService := service.NewPostService(postRepo, categoryService, imageStore, auditLogger, log)
	uploadService := service.NewUploadService(imageStore, auditLogger, log)

	// 8. Initialize handlers
	loginLimiter := ratelimit.NewLimiter(10, time.Minute)
	tokenHandler := handler.NewTokenHandler(authService, loginLimiter, log)
	profileHandler := handler.NewProfileHandler(log)
	categoriesHandler := handler.NewCategoriesHandler(categoryService, log)
	configHandler := handler.NewConfigHandler(configRepo, log)
	postsHandler := handler.NewPostsHandler(postService, log)
	postDetailHandler := handler.NewPostDetailHandler(postService, log)
	uploadHandler := handler.NewUploadHandler(uploadService, cfg.MaxUploadBytes, log)
	healthHandler := handler.NewHealthHandler(pool, redisClient, log)

	// 9. Setup HTTP routes
	mux := http.NewServeMux()
	mux.Handle("POST /token", tokenHandler)
	mux.Handle("GET /me", profileHandler)
	mux.Handle("GET /categories", categoriesHandler)
	mux.Handle("GET /config/{id}", configHandler)
	mux.HandleFunc("GET /posts", postsHandler.List)
	mux.HandleFunc("POST /posts", postsHandler.Create)
	mux.HandleFunc("GET /posts/{id}", postDetailHandler.Get)
	mux.HandleFunc("PATCH /posts/{id}", postDetailHandler.Update)
	mux.HandleFunc("DELETE /posts/{id}", postDetailHandler.Delete)
	mux.HandleFunc("POST /posts/{id}/repost", postDetailHandler.Repost)
	mux.Handle("POST /upload-image", uploadHandler)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// Chain middleware: request ID -> metrics -> CORS -> content type ->
	// JWT+vendor guard -> rate limit. CORS sits outside the guard so
	// preflight OPTIONS requests get answered without a bearer token.
	vendorLimiter := ratelimit.NewLimiter(100, time.Minute)
	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(
			middleware.CORS(cfg.CORSAllowedOrigins)(
				middleware.ValidateJSONContentType(log)(
					middleware.AuthMiddleware(authService, auditLogger, log)(
						middleware.RateLimitMiddleware(vendorLimiter, log)(mux),
					),
				),
			),
		),
		log,
	)

	// 10. Start stats worker in background
	if featureflags.Enabled("disable_stats_worker") {
		log.Info("stats worker disabled by flag")
	} else {
		statsWorker := worker.NewStatsWorker(postRepo, log, cfg.StatsInterval)
		go statsWorker.Start(ctx)
	}

	// 11. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", 100),
		slog.String("rate_limit_window", "1m"),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop stats worker
	loginLimiter.Stop()
	vendorLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
