package config

import (
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Env      string
	Port     string
	LogLevel string

	MPAccessToken   string
	MPWebhookURL    string
	MPWebhookSecret string
	MPBaseURL       string

	ReconcileInterval   time.Duration
	ReconcileStuckAfter time.Duration
}

func Load() *Config {
	return &Config{
		Env:      getEnv("PAYFLOW_ENV", "development"),
		Port:     getEnv("PAYFLOW_PORT", "8080"),
		LogLevel: getEnv("PAYFLOW_LOG_LEVEL", "info"),

		MPAccessToken:   os.Getenv("MP_ACCESS_TOKEN"),
		MPWebhookURL:    os.Getenv("MP_WEBHOOK_URL"),
		MPWebhookSecret: os.Getenv("MP_WEBHOOK_SECRET"),
		MPBaseURL:       os.Getenv("MP_BASE_URL"),

		ReconcileInterval:   getDuration("PAYFLOW_RECONCILE_INTERVAL", 1*time.Minute),
		ReconcileStuckAfter: getDuration("PAYFLOW_RECONCILE_STUCK_AFTER", 5*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
