package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string

	// CSRF token service
	CSRFSecret   string
	CSRFTokenTTL time.Duration

	// Security middleware
	AllowedOrigins          []string
	RateLimitWindow         time.Duration
	RateLimitMaxRequests    int
	MaxPayloadBytes         int64
	SecurityAlertWebhookURL string

	// Shared rate-limit counter store (optional; in-memory when unset)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Email dispatch
	EmailProvider     string // "sendgrid", "ses" or "stub"
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	SESFromName       string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	// Notification outbox (at-least-once delivery; fire-and-forget when off)
	NotifyOutboxEnabled  bool
	NotifyOutboxInterval time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:3000"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		CSRFSecret:   getEnv("CSRF_SECRET", ""),
		CSRFTokenTTL: getEnvAsDuration("CSRF_TOKEN_TTL", time.Hour),

		AllowedOrigins:          getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "https://localhost:3000"}),
		RateLimitWindow:         getEnvAsDuration("RATE_LIMIT_WINDOW", 60*time.Second),
		RateLimitMaxRequests:    getEnvAsInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 10),
		MaxPayloadBytes:         int64(getEnvAsInt("MAX_PAYLOAD_BYTES", 10*1024)),
		SecurityAlertWebhookURL: getEnv("SECURITY_ALERT_WEBHOOK_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "noreply@alltechbr.solutions"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "AllTech Digital"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "AllTech Digital"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		NotifyOutboxEnabled:  getEnvAsBool("NOTIFY_OUTBOX_ENABLED", false),
		NotifyOutboxInterval: getEnvAsDuration("NOTIFY_OUTBOX_INTERVAL", 5*time.Second),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that everything required for the configured environment is
// present. In production the process must not start with missing secrets.
func (c *Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}

	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.CSRFSecret == "" {
		missing = append(missing, "CSRF_SECRET")
	}
	switch c.EmailProvider {
	case "sendgrid":
		if c.SendGridAPIKey == "" {
			missing = append(missing, "SENDGRID_API_KEY")
		}
		if c.SendGridFromEmail == "" {
			missing = append(missing, "SENDGRID_FROM_EMAIL")
		}
	case "ses":
		if c.SESFromEmail == "" {
			missing = append(missing, "SES_FROM_EMAIL")
		}
	case "stub":
		// allowed everywhere but production
		return fmt.Errorf("config: EMAIL_PROVIDER=stub is not allowed in production")
	default:
		return fmt.Errorf("config: unknown EMAIL_PROVIDER %q", c.EmailProvider)
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated environment variable, trimming blanks.
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
