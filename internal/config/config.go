package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Bot Framework credential pair. Leave empty for local runs against
	// the Emulator (inbound auth is then skipped).
	AppID       string
	AppPassword string

	// Azure CLU (intent classifier)
	CLUEndpoint       string
	CLUKey            string
	CLUProjectName    string
	CLUDeploymentName string
	CLUTimeout        time.Duration

	// Notification e-mail (SMTP)
	EmailFromAddress string
	EmailToAddress   string
	EmailPassword    string
	EmailSMTPServer  string
	EmailSMTPPort    int

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience. MaxRetries applies to the outbound channel connector only;
	// the core never retries the classifier or the notifier.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Turn state store: how long an idle conversation's state is kept.
	StateTTL time.Duration

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
// Env names follow the original bot deployment (MicrosoftAppId, EMAIL_*).
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 3979),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AppID:       getEnv("MicrosoftAppId", ""),
		AppPassword: getEnv("MicrosoftAppPassword", ""),

		CLUEndpoint:       getEnv("CLU_ENDPOINT", ""),
		CLUKey:            getEnv("CLU_KEY", ""),
		CLUProjectName:    getEnv("CLU_PROJECT_NAME", ""),
		CLUDeploymentName: getEnv("CLU_DEPLOYMENT_NAME", ""),
		CLUTimeout:        getEnvDuration("CLU_TIMEOUT", 5*time.Second),

		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailToAddress:   getEnv("EMAIL_TO_ADDRESS", ""),
		EmailPassword:    getEnv("EMAIL_PASSWORD", ""),
		EmailSMTPServer:  getEnv("EMAIL_SMTP_SERVER", "smtp.gmail.com"),
		EmailSMTPPort:    getEnvInt("EMAIL_SMTP_PORT", 587),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 0),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		StateTTL: getEnvDuration("STATE_TTL", 24*time.Hour),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

// ClassifierConfigured reports whether the CLU gateway can be used.
// All three routing parameters must be present; the key may legitimately be
// empty for keyless local mocks.
func (c *Config) ClassifierConfigured() bool {
	return c.CLUEndpoint != "" && c.CLUProjectName != "" && c.CLUDeploymentName != ""
}

// MailerConfigured reports whether the notification sink can be used.
func (c *Config) MailerConfigured() bool {
	return c.EmailFromAddress != "" && c.EmailToAddress != "" && c.EmailPassword != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
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
