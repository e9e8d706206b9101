package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	RedisURL string

	KafkaBrokers      []string
	PaymentEventTopic string

	StripeSecretKey  string
	StripeWebhookKey string

	// CallbackSecret signs outbound channel callbacks. CallbackURLs maps a
	// channel name to its configured endpoint, read from
	// <CHANNEL>_CALLBACK_URL environment variables at lookup time.
	CallbackSecret string

	// EncryptionKey is the deployment passphrase for provider secret
	// encryption.
	EncryptionKey string

	// SandboxMode suppresses real callback delivery and enables the
	// webhook simulator.
	SandboxMode bool
}

func Load() (*Config, error) {
	// .env is optional; system environment wins.
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Environment:       getEnv("APP_ENV", "development"),
		PostgresUser:      os.Getenv("POSTGRES_USER"),
		PostgresPassword:  os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:        os.Getenv("POSTGRES_DB"),
		PostgresHost:      getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:      getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:   getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone:  getEnv("POSTGRES_TIMEZONE", "UTC"),
		RedisURL:          os.Getenv("REDIS_URL"),
		PaymentEventTopic: getEnv("PAYMENT_EVENT_TOPIC", "payment-events"),
		StripeSecretKey:   os.Getenv("STRIPE_API_KEY"),
		StripeWebhookKey:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		CallbackSecret:    os.Getenv("CALLBACK_SECRET"),
		EncryptionKey:     os.Getenv("ENCRYPTION_KEY"),
		SandboxMode:       isTruthy(os.Getenv("SANDBOX_MODE")),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" {
		return nil, fmt.Errorf("missing required postgres environment variables")
	}
	if cfg.CallbackSecret == "" {
		return nil, fmt.Errorf("CALLBACK_SECRET is required")
	}
	if cfg.EncryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}

	return cfg, nil
}

// CallbackURL returns the configured callback endpoint for a channel, or ""
// when the channel has none.
func (c *Config) CallbackURL(channel string) string {
	envKey := strings.ToUpper(channel) + "_CALLBACK_URL"
	return os.Getenv(envKey)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func isTruthy(val string) bool {
	return val == "true" || val == "1"
}
