package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ezyshopper/storefront/internal/models"
	"github.com/ezyshopper/storefront/internal/validation"
	"github.com/joho/godotenv"
)

const (
	// DefaultPort is used when PORT is unset
	DefaultPort = 3000
	// DefaultMaxBodyBytes is the JSON body ceiling (10 MiB)
	DefaultMaxBodyBytes int64 = 10 << 20
	// DefaultDevAPIBaseURL is the API target of a development frontend build
	DefaultDevAPIBaseURL = "http://localhost:3001/api"
)

// AllowedMethods is the fixed CORS method set.
var AllowedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodPatch,
}

// AllowedHeaders is the fixed CORS request header set.
var AllowedHeaders = []string{"Content-Type", "Authorization", "X-Requested-With", "Accept"}

// Config holds application configuration. It is built once by Load and must be treated as read-only.
type Config struct {
	Mode                models.DeploymentMode `validate:"deployment_mode"`
	Port                int                   `validate:"min=1,max=65535"`
	DatabaseURL         string                `validate:"required"`
	DBConnectRetries    int                   `validate:"min=0"`
	DBConnectRetryDelay time.Duration
	CORS                CORSPolicy
	CORSReloadInterval  time.Duration
	MaxBodyBytes        int64 `validate:"gt=0"`
	RequestTimeout      time.Duration
	ShutdownTimeout     time.Duration
	Static              StaticConfig
	CookieSecret        string
	RedisURL            string
	RateLimit           string `validate:"rate"`
	RateLimitReload     time.Duration
	TrustProxy          bool
	EnableHSTS          bool
	ServerDebugMode     bool
	OTELEnabled         bool
	OTELEndpoint        string
	OpenAPIPath         string
	Client              ClientTargets
}

// CORSPolicy is the cross-origin policy applied to every request.
type CORSPolicy struct {
	AllowedOrigins   []string `validate:"min=1,dive,origin"`
	AllowedMethods   []string `validate:"min=1"`
	AllowedHeaders   []string `validate:"min=1"`
	AllowCredentials bool
	MaxAge           int `validate:"min=0"`
	// RejectDisallowed answers cross-origin requests from unknown origins with 403
	// instead of only omitting the CORS headers.
	RejectDisallowed bool
}

// StaticConfig names the frontend asset directories.
type StaticConfig struct {
	PublicDir string `validate:"required"`
	DistDir   string `validate:"required"`
}

// Roots returns the static roots searched for assets, in lookup order.
func (s StaticConfig) Roots(mode models.DeploymentMode) []string {
	if mode == models.ModeProduction {
		return []string{s.PublicDir, s.DistDir}
	}
	return []string{s.PublicDir}
}

// Index returns the fallback document served for unmatched client-side routes.
func (s StaticConfig) Index(mode models.DeploymentMode) string {
	if mode == models.ModeProduction {
		return filepath.Join(s.DistDir, "index.html")
	}
	return filepath.Join(s.PublicDir, "index.html")
}

// ClientTargets maps each deployment mode to the API base URL a frontend build talks to.
type ClientTargets struct {
	Development string `validate:"omitempty,url"`
	Production  string `validate:"omitempty,url"`
}

// Addr returns the listen address for the configured port.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// Load loads configuration from environment variables, after applying a .env file if present.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	port, err := lookupInt("PORT", DefaultPort)
	if err != nil {
		return nil, err
	}
	maxBody, err := lookupInt64("MAX_BODY_BYTES", DefaultMaxBodyBytes)
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		Mode:             models.ParseDeploymentMode(os.Getenv("NODE_ENV")),
		Port:             port,
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DBConnectRetries: getEnvInt("DB_CONNECT_RETRIES", 0),
		CORS: CORSPolicy{
			AllowedOrigins:   models.SplitOrigins(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
			AllowedMethods:   append([]string(nil), AllowedMethods...),
			AllowedHeaders:   append([]string(nil), AllowedHeaders...),
			AllowCredentials: true,
			MaxAge:           getEnvInt("CORS_MAX_AGE", 86400),
			RejectDisallowed: getEnvBool("CORS_REJECT_DISALLOWED", true),
		},
		MaxBodyBytes: maxBody,
		Static: StaticConfig{
			PublicDir: getEnv("PUBLIC_DIR", "public"),
			DistDir:   getEnv("DIST_DIR", filepath.Join("frontend", "dist")),
		},
		CookieSecret:    getEnv("COOKIE_SECRET", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		RateLimit:       getEnv("RATE_LIMIT", "5-S"),
		TrustProxy:      getEnvBool("TRUST_PROXY", false),
		EnableHSTS:      getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OpenAPIPath:     getEnv("OPENAPI_PATH", filepath.Join("api", "openapi", "openapi.yaml")),
		Client:          loadClientTargets(),
	}
	for _, d := range []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"DB_CONNECT_RETRY_DELAY", 2 * time.Second, &cfg.DBConnectRetryDelay},
		{"CORS_RELOAD_INTERVAL", time.Minute, &cfg.CORSReloadInterval},
		{"RATE_LIMIT_RELOAD_INTERVAL", time.Minute, &cfg.RateLimitReload},
		{"REQUEST_TIMEOUT", 30 * time.Second, &cfg.RequestTimeout},
		{"SHUTDOWN_TIMEOUT", 30 * time.Second, &cfg.ShutdownTimeout},
	} {
		value, err := lookupDuration(d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.dst = value
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadClient loads only what an API client needs: the deployment mode and the per-mode targets.
func LoadClient() (models.DeploymentMode, ClientTargets, error) {
	if err := loadDotEnv(); err != nil {
		return "", ClientTargets{}, err
	}
	targets := loadClientTargets()
	if err := validation.Struct(targets); err != nil {
		return "", ClientTargets{}, fmt.Errorf("invalid client configuration: %w", err)
	}
	return models.ParseDeploymentMode(os.Getenv("NODE_ENV")), targets, nil
}

func loadClientTargets() ClientTargets {
	return ClientTargets{
		Development: strings.TrimRight(getEnv("DEV_API_BASE_URL", DefaultDevAPIBaseURL), "/"),
		Production:  strings.TrimRight(getEnv("API_BASE_URL", ""), "/"),
	}
}

// loadDotEnv applies .env without overriding variables already set in the process.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// lookupInt is the strict variant of getEnvInt: a set but malformed value is an error.
func lookupInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return intValue, nil
}

func lookupInt64(key string, defaultValue int64) (int64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return intValue, nil
}

func lookupDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 30s, got %q", key, value)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
