// Package config loads service settings from the environment and .env files.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"daritana-compliance/storage"

	"github.com/joho/godotenv"
)

// RepositoryType selects the check/report persistence backend
type RepositoryType string

const (
	RepositoryMemory   RepositoryType = "memory"
	RepositoryPostgres RepositoryType = "postgres"
	RepositorySQLite   RepositoryType = "sqlite"
)

// Config holds the server configuration
type Config struct {
	Port           string
	Env            string
	RepositoryType RepositoryType
	DatabaseURL    string
	SQLitePath     string
	ClauseFile     string
	Storage        storage.StorageConfig
	GeminiAPIKey   string
	GeminiModel    string
	SummaryTimeout time.Duration
}

// IsDevelopment reports whether the server runs in development mode
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// SummariesEnabled reports whether report narratives are configured
func (c Config) SummariesEnabled() bool {
	return c.GeminiAPIKey != ""
}

// LoadDotEnv loads .env from the working directory, falling back to the
// project root when run from cmd/<binary>/. It reports whether a file was found.
func LoadDotEnv() bool {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			return false
		}
	}
	return true
}

// Load reads the configuration from the process environment
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("APP_ENV", "production"),
		RepositoryType: RepositoryType(strings.ToLower(getEnv("REPOSITORY_TYPE", string(RepositoryMemory)))),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SQLitePath:     getEnv("SQLITE_PATH", "./data/compliance.db"),
		ClauseFile:     os.Getenv("CLAUSE_FILE"),
		Storage: storage.StorageConfig{
			Type:         storage.StorageType(strings.ToLower(getEnv("STORAGE_TYPE", string(storage.StorageTypeLocal)))),
			LocalPath:    getEnv("STORAGE_LOCAL_PATH", "./storage/reports"),
			S3Bucket:     os.Getenv("AWS_S3_BUCKET"),
			S3Region:     getEnv("AWS_REGION", "ap-southeast-1"),
			S3Prefix:     os.Getenv("AWS_S3_PREFIX"),
			AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
	}

	timeout, err := time.ParseDuration(getEnv("REPORT_SUMMARY_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_SUMMARY_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid REPORT_SUMMARY_TIMEOUT: must be positive")
	}
	cfg.SummaryTimeout = timeout

	switch cfg.RepositoryType {
	case RepositoryMemory, RepositorySQLite:
	case RepositoryPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for postgres repository")
		}
	default:
		return nil, fmt.Errorf("unknown REPOSITORY_TYPE: %s", cfg.RepositoryType)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
