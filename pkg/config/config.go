package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration. It is assembled exactly once
// at process start and passed down explicitly; nothing reads the environment
// after Load returns. Missing required options fail the process fast.
type Config struct {
	Environment        string        `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort         int           `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel           string        `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL        string        `envconfig:"DATABASE_URL" required:"true"`
	RedisURL           string        `envconfig:"REDIS_URL" required:"true"`
	StorageURL         string        `envconfig:"STORAGE_URL" required:"true"`
	StorageServiceKey  string        `envconfig:"STORAGE_SERVICE_KEY" required:"true"`
	JWTSecret          string        `envconfig:"JWT_SECRET" required:"true"`
	TokenExpiry        time.Duration `envconfig:"TOKEN_EXPIRY" default:"24h"`
	ConfigCacheTTL     time.Duration `envconfig:"CONFIG_CACHE_TTL" default:"10m"`
	CategoryCacheTTL   time.Duration `envconfig:"CATEGORY_CACHE_TTL" default:"5m"`
	StatsInterval      time.Duration `envconfig:"STATS_INTERVAL" default:"60s"`
	MaxUploadBytes     int64         `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// .env file is optional, mainly for local development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
