// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/adarsh-anand15/quantum-learning/internal/modules/settings"
)

// Config holds application configuration loaded from the environment.
// A subset of fields can later be overridden from the settings database
// via UpdateFromSettings.
type Config struct {
	Host              string   // Listen host ("" = all interfaces)
	Port              int      // HTTP listen port
	DataDir           string   // Base directory for databases and artifacts (always absolute)
	PresetsDir        string   // Directory shadowing the embedded preset catalog
	BackupDir         string   // Directory for local backup archives
	LogLevel          string   // zerolog level name
	LogPretty         bool     // Console writer instead of JSON logs
	FDWorkers         int      // Worker goroutines for finite-difference gradients
	MaxConcurrentRuns int      // Optimization slots in the work processor
	MaxRunSeconds     int      // Wall-clock limit per run (0 = no limit)
	RetentionDays     int      // Days to keep finished runs (0 = keep forever)
	BackupEnabled     bool     // Nightly local backup job
	CORSOrigins       []string // Allowed CORS origins
	R2                R2Config
}

// R2Config holds Cloudflare R2 backup upload configuration.
// Credentials stay in the environment; only the enabled flag and
// retention are runtime settings.
type R2Config struct {
	Enabled         bool
	Endpoint        string // https://<account-id>.r2.cloudflarestorage.com
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		Host:              getEnv("HOST", ""),
		Port:              getEnvAsInt("PORT", 8090),
		DataDir:           absDataDir,
		PresetsDir:        getEnv("PRESETS_DIR", filepath.Join(absDataDir, "presets")),
		BackupDir:         getEnv("BACKUP_DIR", filepath.Join(absDataDir, "backups")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getEnvAsBool("LOG_PRETTY", false),
		FDWorkers:         getEnvAsInt("FD_WORKERS", runtime.NumCPU()),
		MaxConcurrentRuns: getEnvAsInt("MAX_CONCURRENT_RUNS", 1),
		MaxRunSeconds:     getEnvAsInt("MAX_RUN_SECONDS", 3600),
		RetentionDays:     getEnvAsInt("RETENTION_DAYS", 90),
		BackupEnabled:     getEnvAsBool("BACKUP_ENABLED", true),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
		R2: R2Config{
			Enabled:         getEnvAsBool("R2_ENABLED", false),
			Endpoint:        getEnv("R2_ENDPOINT", ""),
			Bucket:          getEnv("R2_BUCKET", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// UpdateFromSettings overrides configuration from the settings database.
// Called after the runs database is initialized; stored settings take
// precedence over environment values.
func (c *Config) UpdateFromSettings(repo *settings.Repository) error {
	retention, err := repo.GetInt("retention_days", c.RetentionDays)
	if err != nil {
		return fmt.Errorf("failed to read retention_days from settings: %w", err)
	}
	c.RetentionDays = retention

	slots, err := repo.GetInt("max_concurrent_runs", c.MaxConcurrentRuns)
	if err != nil {
		return fmt.Errorf("failed to read max_concurrent_runs from settings: %w", err)
	}
	if slots >= 1 {
		c.MaxConcurrentRuns = slots
	}

	runSeconds, err := repo.GetInt("max_run_seconds", c.MaxRunSeconds)
	if err != nil {
		return fmt.Errorf("failed to read max_run_seconds from settings: %w", err)
	}
	if runSeconds >= 0 {
		c.MaxRunSeconds = runSeconds
	}

	backupEnabled, err := repo.GetBool("backup_enabled", c.BackupEnabled)
	if err != nil {
		return fmt.Errorf("failed to read backup_enabled from settings: %w", err)
	}
	c.BackupEnabled = backupEnabled

	return nil
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.FDWorkers < 1 {
		return fmt.Errorf("FD_WORKERS must be at least 1, got %d", c.FDWorkers)
	}
	if c.MaxConcurrentRuns < 1 {
		return fmt.Errorf("MAX_CONCURRENT_RUNS must be at least 1, got %d", c.MaxConcurrentRuns)
	}
	if c.MaxRunSeconds < 0 {
		return fmt.Errorf("MAX_RUN_SECONDS must not be negative, got %d", c.MaxRunSeconds)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("RETENTION_DAYS must not be negative, got %d", c.RetentionDays)
	}
	if c.R2.Enabled {
		if c.R2.Endpoint == "" || c.R2.Bucket == "" || c.R2.AccessKeyID == "" || c.R2.SecretAccessKey == "" {
			return fmt.Errorf("R2_ENDPOINT, R2_BUCKET, R2_ACCESS_KEY_ID, and R2_SECRET_ACCESS_KEY are required when R2_ENABLED is set")
		}
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MaxRunTimeout returns MaxRunSeconds as a duration (0 = no limit).
func (c *Config) MaxRunTimeout() time.Duration {
	return time.Duration(c.MaxRunSeconds) * time.Second
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
