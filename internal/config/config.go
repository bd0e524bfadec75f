package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	AuthService AuthServiceConfig
	Realtime    RealtimeConfig
	Retry       RetryConfig
	Cache       CacheConfig
	Notify      NotifyConfig
	RateLimit   RateLimitConfig
	Monitor     MonitorConfig
	Logging     LoggingConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	FrontendURL     string
	Environment     string
	AllowedOrigins  []string
}

// IsProduction reports whether the service runs in production mode
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	QueryTimeout    time.Duration
	// For SQLite
	Path string
}

// AuthServiceConfig points at the platform auth service
type AuthServiceConfig struct {
	URL              string
	ServiceName      string
	ServiceKey       string
	VerifyTimeout    time.Duration
	LoginTimeout     time.Duration
	CacheTTL         time.Duration
	BreakerThreshold int
	BreakerTimeout   time.Duration
}

// RealtimeConfig contains WebSocket push configuration
type RealtimeConfig struct {
	JobStatsInterval time.Duration
	VerifyTokens     bool
}

// RetryConfig controls the retry wrapper used for flaky reads
type RetryConfig struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// CacheConfig controls the in-process response caches
type CacheConfig struct {
	Enabled    bool
	Size       int
	HealthTTL  time.Duration
	MetricsTTL time.Duration
	StatsTTL   time.Duration
}

// NotifyConfig configures mirroring of critical alerts to NATS
type NotifyConfig struct {
	NATSURL string
	Subject string
}

// Enabled reports whether a NATS server is configured
func (n NotifyConfig) Enabled() bool {
	return n.NATSURL != ""
}

// RateLimitConfig contains per-IP rate limit configuration
type RateLimitConfig struct {
	Enabled       bool
	AdminRequests int
	AuthRequests  int
	Window        time.Duration
}

// MonitorConfig controls the stuck job monitor
type MonitorConfig struct {
	StuckJobSchedule  string
	StuckJobThreshold time.Duration
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string
	Format     string // json or console
	OutputPath string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("PORT", getEnvAsInt("SERVER_PORT", 3007)),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
			Environment:     getEnv("NODE_ENV", getEnv("ENVIRONMENT", "development")),
			AllowedOrigins:  getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "futureguide"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_POOL_MAX", 20),
			MaxIdleConns:    getEnvAsInt("DB_POOL_MIN", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_POOL_IDLE", 10*time.Second),
			QueryTimeout:    getEnvAsDuration("DB_QUERY_TIMEOUT", 30*time.Second),
			Path:            getEnv("DB_PATH", "./admin.db"),
		},
		AuthService: AuthServiceConfig{
			URL:              getEnv("AUTH_SERVICE_URL", "http://localhost:3001"),
			ServiceName:      getEnv("SERVICE_NAME", "admin-service"),
			ServiceKey:       getEnv("INTERNAL_SERVICE_KEY", ""),
			VerifyTimeout:    getEnvAsDuration("AUTH_VERIFY_TIMEOUT", 5*time.Second),
			LoginTimeout:     getEnvAsDuration("AUTH_LOGIN_TIMEOUT", 10*time.Second),
			CacheTTL:         getEnvAsDuration("AUTH_CACHE_TTL", 60*time.Second),
			BreakerThreshold: getEnvAsInt("AUTH_BREAKER_THRESHOLD", 5),
			BreakerTimeout:   getEnvAsDuration("AUTH_BREAKER_TIMEOUT", 30*time.Second),
		},
		Realtime: RealtimeConfig{
			JobStatsInterval: time.Duration(getEnvAsInt("JOB_STATS_INTERVAL_MS", 5000)) * time.Millisecond,
			VerifyTokens:     getEnvAsBool("WS_VERIFY_TOKENS", true),
		},
		Retry: RetryConfig{
			Attempts:  getEnvAsInt("RETRY_ATTEMPTS", 3),
			BaseDelay: getEnvAsDuration("RETRY_BASE_DELAY", 200*time.Millisecond),
			MaxDelay:  getEnvAsDuration("RETRY_MAX_DELAY", 5*time.Second),
		},
		Cache: CacheConfig{
			Enabled:    getEnvAsBool("CACHE_ENABLED", true),
			Size:       getEnvAsInt("CACHE_SIZE", 256),
			HealthTTL:  getEnvAsDuration("CACHE_HEALTH_TTL", 10*time.Second),
			MetricsTTL: getEnvAsDuration("CACHE_METRICS_TTL", 30*time.Second),
			StatsTTL:   getEnvAsDuration("CACHE_STATS_TTL", 60*time.Second),
		},
		Notify: NotifyConfig{
			NATSURL: getEnv("NATS_URL", ""),
			Subject: getEnv("NATS_ALERT_SUBJECT", "admin.alerts.critical"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", true),
			AdminRequests: getEnvAsInt("RATE_LIMIT_ADMIN_MAX", 100),
			AuthRequests:  getEnvAsInt("RATE_LIMIT_AUTH_MAX", 10),
			Window:        getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		Monitor: MonitorConfig{
			StuckJobSchedule:  getEnv("STUCK_JOB_SCHEDULE", "@every 1m"),
			StuckJobThreshold: getEnvAsDuration("STUCK_JOB_THRESHOLD", 30*time.Minute),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case "postgres", "pgx", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.AuthService.URL == "" {
		return fmt.Errorf("AUTH_SERVICE_URL must be set")
	}

	if c.Server.IsProduction() && c.AuthService.ServiceKey == "" {
		return fmt.Errorf("INTERNAL_SERVICE_KEY must be set in production")
	}

	if c.Realtime.JobStatsInterval < 100*time.Millisecond {
		return fmt.Errorf("JOB_STATS_INTERVAL_MS must be at least 100")
	}

	if c.Retry.Attempts < 1 {
		return fmt.Errorf("RETRY_ATTEMPTS must be at least 1")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
