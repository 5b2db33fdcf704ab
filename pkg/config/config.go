// Package config loads service configuration from environment variables.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig
	Archive       ArchiveConfig
	Relay         RelayConfig
	Ingest        IngestConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	DownloadTimeout time.Duration
}

type ArchiveConfig struct {
	Root string
}

type RelayConfig struct {
	UploadURL string
	Timeout   time.Duration
}

// IngestConfig drives the message-dump batch ingester: only messages from
// Sender whose body starts with URLPrefix are treated as receipt links.
type IngestConfig struct {
	MessagesPath string
	Sender       string
	URLPrefix    string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			DownloadTimeout: getEnvAsDuration("DOWNLOAD_TIMEOUT", 10*time.Second),
		},
		Archive: ArchiveConfig{
			Root: getEnv("ARCHIVE_ROOT", "./archive"),
		},
		Relay: RelayConfig{
			UploadURL: getEnv("RELAY_UPLOAD_URL", ""),
			Timeout:   getEnvAsDuration("RELAY_TIMEOUT", 10*time.Second),
		},
		Ingest: IngestConfig{
			MessagesPath: getEnv("INGEST_MESSAGES_PATH", "messages.txt"),
			Sender:       getEnv("INGEST_SENDER", "AL-Eatimad"),
			URLPrefix:    getEnv("INGEST_URL_PREFIX", "http://188.34.164.0/openpdf/report"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	if cfg.Relay.UploadURL == "" {
		return nil, errors.New("RELAY_UPLOAD_URL is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
