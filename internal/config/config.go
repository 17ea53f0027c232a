package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DBPath      string
	Environment string
	Version     string
	LogLevel    string
	LogFormat   string

	JWTSecret  string
	JWTIssuer  string
	JWTTTL     time.Duration
	BcryptCost int

	AnthropicAPIKey string
	AnthropicModel  string
	AIMaxAttempts   int
	AITimeout       time.Duration

	UploadDir      string
	GCSBucket      string
	MaxUploadBytes int64

	RedisURL            string
	LeaderboardCacheTTL time.Duration
	RefreshWorkerCount  int
	RefreshQueueSize    int

	CORSOrigins      []string
	RateLimitWindow  time.Duration
	RateLimitMax     int
	AuthRateLimitMax int
	UploadRateLimit  int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or invalid.
func Load() Config {
	// .env is optional outside development.
	_ = godotenv.Load()

	return Config{
		Addr:        envOr("ADDR", ":3001"),
		DBPath:      envOr("DB_PATH", "file:flashgenius.db"),
		Environment: envOr("APP_ENV", "development"),
		Version:     envOr("APP_VERSION", "1.0.0"),
		LogLevel:    envOr("LOG_LEVEL", "INFO"),
		LogFormat:   envOr("LOG_FORMAT", "text"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		JWTIssuer:  envOr("JWT_ISSUER", "flashgenius"),
		JWTTTL:     envDurationOr("JWT_TTL", 7*24*time.Hour),
		BcryptCost: envIntOr("BCRYPT_COST", 12),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		AIMaxAttempts:   envIntOr("AI_MAX_ATTEMPTS", 3),
		AITimeout:       envDurationOr("AI_TIMEOUT", 60*time.Second),

		UploadDir:      envOr("UPLOAD_DIR", "uploads"),
		GCSBucket:      os.Getenv("GCS_BUCKET"),
		MaxUploadBytes: int64(envIntOr("MAX_UPLOAD_BYTES", 10*1024*1024)),

		RedisURL:            os.Getenv("REDIS_URL"),
		LeaderboardCacheTTL: envDurationOr("LEADERBOARD_CACHE_TTL", 5*time.Minute),
		RefreshWorkerCount:  envIntOr("REFRESH_WORKER_COUNT", 1),
		RefreshQueueSize:    envIntOr("REFRESH_QUEUE_SIZE", 16),

		CORSOrigins:      envListOr("CORS_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		RateLimitWindow:  envDurationOr("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitMax:     envIntOr("RATE_LIMIT_MAX_REQUESTS", 100),
		AuthRateLimitMax: envIntOr("AUTH_RATE_LIMIT_MAX", 5),
		UploadRateLimit:  envIntOr("UPLOAD_RATE_LIMIT_PER_HOUR", 10),
	}
}

// IsProduction reports whether APP_ENV is "production".
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// AIEnabled reports whether an LLM API key is configured.
func (c Config) AIEnabled() bool {
	return strings.TrimSpace(c.AnthropicAPIKey) != ""
}

// Validate checks every field and returns all problems joined into one error.
func (c Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH cannot be empty"))
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR, got %q", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET cannot be empty"))
	} else if c.IsProduction() && len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters in production"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost))
	}

	if c.AIMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("AI_MAX_ATTEMPTS must be at least 1, got %d", c.AIMaxAttempts))
	}
	if c.AITimeout <= 0 {
		errs = append(errs, errors.New("AI_TIMEOUT must be positive"))
	}

	if c.GCSBucket == "" && c.UploadDir == "" {
		errs = append(errs, errors.New("UPLOAD_DIR cannot be empty when GCS_BUCKET is unset"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}

	if c.LeaderboardCacheTTL <= 0 {
		errs = append(errs, errors.New("LEADERBOARD_CACHE_TTL must be positive"))
	}
	if c.RefreshWorkerCount <= 0 {
		errs = append(errs, fmt.Errorf("REFRESH_WORKER_COUNT must be positive, got %d", c.RefreshWorkerCount))
	}
	if c.RefreshQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("REFRESH_QUEUE_SIZE must be positive, got %d", c.RefreshQueueSize))
	}

	if c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if c.RateLimitMax <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive, got %d", c.RateLimitMax))
	}
	if c.AuthRateLimitMax <= 0 {
		errs = append(errs, fmt.Errorf("AUTH_RATE_LIMIT_MAX must be positive, got %d", c.AuthRateLimitMax))
	}
	if c.UploadRateLimit <= 0 {
		errs = append(errs, fmt.Errorf("UPLOAD_RATE_LIMIT_PER_HOUR must be positive, got %d", c.UploadRateLimit))
	}

	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid duration for %s=%q, using default %s", key, v, def)
	}
	return def
}

func envListOr(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
