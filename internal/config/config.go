package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	AutoMigrate        bool
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// StorageConfig selects the physical byte store used by the content store.
type StorageConfig struct {
	// Backend is either "minio" or "local".
	Backend   string
	LocalRoot string
}

// ContentStoreConfig describes how the analysis service reaches the content store.
type ContentStoreConfig struct {
	URL        string
	TimeoutSec int
}

// Timeout returns the request timeout for calls to the content store.
func (c ContentStoreConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// AnalysisCacheConfig controls the in-process cache in front of the analysis catalog.
type AnalysisCacheConfig struct {
	Enabled bool
	TTLSec  int
	MaxMB   int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost              string
	Port                 string
	LogLevel             string
	TimeZone             string
	FingerprintAlgorithm string
	MaxUploadMB          int
	Database             DatabaseConfig
	MinIO                MinIOConfig
	Storage              StorageConfig
	ContentStore         ContentStoreConfig
	AnalysisCache        AnalysisCacheConfig
}

// Location resolves TimeZone, falling back to UTC when it is empty or unknown.
func (c *AppConfig) Location() *time.Location {
	if c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MaxUploadBytes is MaxUploadMB expressed in bytes.
func (c *AppConfig) MaxUploadBytes() int {
	return c.MaxUploadMB * 1024 * 1024
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:              getEnv("APP_HOST", "localhost:8080"),
		Port:                 getEnv("PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		TimeZone:             getEnv("TZ_LOCATION", "UTC"),
		FingerprintAlgorithm: getEnv("FINGERPRINT_ALGORITHM", "md5"),
		MaxUploadMB:          getEnvInt("MAX_UPLOAD_MB", 10),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			AutoMigrate:        getEnvBool("DB_AUTO_MIGRATE", true),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Storage: StorageConfig{
			Backend:   getEnv("STORAGE_BACKEND", "minio"),
			LocalRoot: getEnv("STORAGE_LOCAL_ROOT", "storage"),
		},
		ContentStore: ContentStoreConfig{
			URL:        getEnv("CONTENT_STORE_URL", "http://localhost:8080"),
			TimeoutSec: getEnvInt("CONTENT_STORE_TIMEOUT_SEC", 10),
		},
		AnalysisCache: AnalysisCacheConfig{
			Enabled: getEnvBool("ANALYSIS_CACHE_ENABLED", true),
			TTLSec:  getEnvInt("ANALYSIS_CACHE_TTL_SEC", 600),
			MaxMB:   getEnvInt("ANALYSIS_CACHE_MAX_MB", 64),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
