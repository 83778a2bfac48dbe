package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-notifyd/internal/pkg/validate"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string `validate:"required,numeric"`
	AppEnv  string `validate:"required"`

	LogLevel string `validate:"oneof=trace debug info warn error fatal panic disabled"`
	LogFile  string

	SweepInterval        time.Duration `validate:"gt=0"`
	DefaultTimeoutNormal time.Duration `validate:"gt=0"`
	DefaultTimeoutLow    time.Duration `validate:"gt=0"`
	EventBufferSize      int           `validate:"min=1"`

	AllowedOrigins []string // CORS allowed origins

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string        // auth is disabled when empty
	JWTExpiry         time.Duration `validate:"gt=0"`

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	SNSTopicARN     string  // forwarder is disabled when empty
	SNSPublishRate  float64 `validate:"gt=0"`
	SNSPublishBurst int     `validate:"min=1"`

	JournalEnabled   bool
	JournalTable     string        `validate:"required_if=JournalEnabled true"`
	JournalRetention time.Duration `validate:"gt=0"`
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:              getEnv("APP_PORT", "3000"),
		AppEnv:               getEnv("APP_ENV", "development"),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:              getEnv("LOG_FILE", ""),
		SweepInterval:        getEnvDuration("SWEEP_INTERVAL", time.Second),
		DefaultTimeoutNormal: getEnvDuration("DEFAULT_TIMEOUT_NORMAL", 120*time.Second),
		DefaultTimeoutLow:    getEnvDuration("DEFAULT_TIMEOUT_LOW", 60*time.Second),
		EventBufferSize:      getEnvInt("EVENT_BUFFER_SIZE", 256),
		AllowedOrigins:       strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		JWTPrivateKeyPath:    getEnv("JWT_PRIVATE_KEY_PATH", ""),
		JWTPublicKeyPath:     getEnv("JWT_PUBLIC_KEY_PATH", ""),
		JWTExpiry:            getEnvDuration("JWT_EXPIRY", 30*24*time.Hour),
		AWSRegion:            getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL:       getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:         getEnv("AWS_SECRET_ACCESS_KEY", ""),
		SNSTopicARN:          getEnv("SNS_TOPIC_ARN", ""),
		SNSPublishRate:       getEnvFloat("SNS_PUBLISH_RATE", 10),
		SNSPublishBurst:      getEnvInt("SNS_PUBLISH_BURST", 20),
		JournalEnabled:       getEnvBool("JOURNAL_ENABLED", false),
		JournalTable:         getEnv("DYNAMO_TABLE_JOURNAL", "notification_journal"),
		JournalRetention:     getEnvDuration("JOURNAL_RETENTION", 7*24*time.Hour),
	}
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// AuthEnabled reports whether bearer tokens are required on the RPC surface.
func (c *Config) AuthEnabled() bool { return c.JWTPublicKeyPath != "" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
