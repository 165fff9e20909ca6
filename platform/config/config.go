// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides the reference database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// GeocoderConfig provides settings for the address parser and geocoder.
type GeocoderConfig interface {
	// GetSuffixesPath returns an optional CSV overriding the embedded street-type table.
	GetSuffixesPath() string
	GetMatchThreshold() int
	GetDefaultCity() string
}

// CacheConfig provides settings for the geocode result cache.
type CacheConfig interface {
	GetRedisURL() string
	GetGeocodeCacheTTL() time.Duration
	GetGeocodeMissTTL() time.Duration
	IsCacheEnabled() bool
}

// SchedulerConfig provides settings for the asynq batch queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// StorageConfig provides settings for MinIO S3-compatible storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketBatches() string
	IsMinIOEnabled() bool
}

// BatchConfig provides throughput settings for batch geocoding.
type BatchConfig interface {
	GetBatchConcurrency() int
	GetBatchRatePerSecond() float64
	GetBatchProgressEvery() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                string
	HTTPAddr           string
	DatabaseURL        string
	CORSAllowAll       bool
	CORSOrigins        []string
	SuffixesPath       string
	MatchThreshold     int
	DefaultCity        string
	RedisURL           string
	RedisTLSInsecure   bool
	GeocodeCacheTTL    time.Duration
	GeocodeMissTTL     time.Duration
	AsynqQueueName     string
	AsynqConcurrency   int
	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	MinIOMaxFileSize   int64
	MinioBucketBatches string
	BatchConcurrency   int
	BatchRatePerSecond float64
	BatchProgressEvery int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// GeocoderConfig implementation
func (c *Config) GetSuffixesPath() string { return c.SuffixesPath }
func (c *Config) GetMatchThreshold() int  { return c.MatchThreshold }
func (c *Config) GetDefaultCity() string  { return c.DefaultCity }

// CacheConfig implementation
func (c *Config) GetRedisURL() string               { return c.RedisURL }
func (c *Config) GetGeocodeCacheTTL() time.Duration { return c.GeocodeCacheTTL }
func (c *Config) GetGeocodeMissTTL() time.Duration  { return c.GeocodeMissTTL }
func (c *Config) IsCacheEnabled() bool {
	return c.RedisURL != "" && c.GeocodeCacheTTL > 0
}

// SchedulerConfig implementation
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// StorageConfig implementation
func (c *Config) GetMinIOEndpoint() string      { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string     { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string     { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool          { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64    { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketBatches() string { return c.MinioBucketBatches }
func (c *Config) IsMinIOEnabled() bool          { return c.MinIOEndpoint != "" }

// BatchConfig implementation
func (c *Config) GetBatchConcurrency() int        { return c.BatchConcurrency }
func (c *Config) GetBatchRatePerSecond() float64 { return c.BatchRatePerSecond }
func (c *Config) GetBatchProgressEvery() int      { return c.BatchProgressEvery }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		CORSAllowAll:       corsAllowAll,
		CORSOrigins:        corsOrigins,
		SuffixesPath:       getEnv("GEOCODER_SUFFIXES_PATH", ""),
		MatchThreshold:     mustInt(getEnv("GEOCODER_MATCH_THRESHOLD", "20")),
		DefaultCity:        getEnv("GEOCODER_DEFAULT_CITY", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		RedisTLSInsecure:   strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		GeocodeCacheTTL:    mustDuration(getEnv("GEOCODE_CACHE_TTL", "24h")),
		GeocodeMissTTL:     mustDuration(getEnv("GEOCODE_MISS_TTL", "15m")),
		AsynqQueueName:     getEnv("ASYNQ_QUEUE", "geocode"),
		AsynqConcurrency:   mustInt(getEnv("ASYNQ_CONCURRENCY", "2")),
		MinIOEndpoint:      getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:        strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:   int64(mustInt(getEnv("MINIO_MAX_FILE_SIZE", "104857600"))),
		MinioBucketBatches: getEnv("MINIO_BUCKET_BATCHES", "geocode-batches"),
		BatchConcurrency:   mustInt(getEnv("BATCH_CONCURRENCY", "8")),
		BatchRatePerSecond: mustFloat(getEnv("BATCH_RATE_PER_SECOND", "500")),
		BatchProgressEvery: mustInt(getEnv("BATCH_PROGRESS_EVERY", "1000")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.MatchThreshold < 0 {
		return nil, fmt.Errorf("GEOCODER_MATCH_THRESHOLD must not be negative")
	}
	if cfg.MinIOEndpoint != "" && (cfg.MinIOAccessKey == "" || cfg.MinIOSecretKey == "") {
		return nil, fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
