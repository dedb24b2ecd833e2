package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string
	CORSOrigins string
	TablePrefix string
	RedisURL    string
	// Blob storage (external document uploads)
	BlobBucket   string
	BlobRegion   string
	BlobEndpoint string // optional, for MinIO-style deployments
	// AutosaveDelay is the debounce quiet period before a staged rich-text
	// edit is persisted.
	AutosaveDelay time.Duration
	// Debug enables verbose logging
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   env,
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		JWKSURL:       getEnv("JWKS_URL", ""),
		CORSOrigins:   getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:   getTablePrefix(),
		RedisURL:      getEnv("REDIS_URL", ""),
		BlobBucket:    getEnv("BLOB_BUCKET", ""),
		BlobRegion:    getEnv("BLOB_REGION", "us-east-1"),
		BlobEndpoint:  getEnv("BLOB_ENDPOINT", ""),
		AutosaveDelay: getDuration("AUTOSAVE_DELAY_MS", DefaultAutosaveDelay),
		Debug:         getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix. Empty (the default) means the
// schema is owned by this binary's migrations; a prefix points at externally
// managed tables on a shared cluster.
func getTablePrefix() string {
	return os.Getenv("TABLE_PREFIX")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
