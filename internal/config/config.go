package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// CSV export
	ExportDir string

	// Source backend selection
	SourceBackend string

	// Google Drive source
	GoogleDriveFolder        string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
	SheetsRange              string

	// Local folder source
	LocalFolderPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	SyncCron        string
	SyncOnStart     bool
	SyncParallelism int

	// HTTP tuning
	AnalysisCacheTTL time.Duration
	RateLimitRPS     float64
	RateLimitBurst   int
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/anggaran.db"),
		ExportDir:    getEnv("EXPORT_DIR", "./data/exports"),

		SourceBackend: getEnv("SOURCE_BACKEND", "memory"),

		GoogleDriveFolder:        getEnv("GOOGLE_DRIVE_FOLDER", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),
		SheetsRange:              getEnv("SHEETS_RANGE", "A:Z"),

		LocalFolderPath: getEnv("LOCAL_FOLDER_PATH", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "anggaran"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_requests"),

		SyncCron:        getEnv("SYNC_CRON", "0 6 * * *"),
		SyncOnStart:     getEnvBool("SYNC_ON_START", false),
		SyncParallelism: getEnvInt("SYNC_PARALLELISM", 4),

		AnalysisCacheTTL: getEnvDuration("ANALYSIS_CACHE_TTL", 15*time.Minute),
		RateLimitRPS:     getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 30),
	}

	return cfg
}

func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %q: must be a number between 1 and 65535", c.Port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLITE_DB_PATH is required")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create database directory %s: %v", dir, err))
		}
	}

	if c.ExportDir != "" {
		if err := os.MkdirAll(c.ExportDir, 0o755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create export directory %s: %v", c.ExportDir, err))
		}
	}

	switch c.SourceBackend {
	case "memory":
	case "folder":
		if c.LocalFolderPath == "" {
			errors = append(errors, "LOCAL_FOLDER_PATH is required for the folder backend")
		} else if info, err := os.Stat(c.LocalFolderPath); err != nil || !info.IsDir() {
			errors = append(errors, fmt.Sprintf("local folder %s does not exist or is not a directory", c.LocalFolderPath))
		}
	case "drive":
		errors = append(errors, c.validateDrive()...)
	default:
		errors = append(errors, fmt.Sprintf("invalid source backend %q: must be one of memory, folder, drive", c.SourceBackend))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL %q: %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme %q: must be amqp or amqps", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP_EXCHANGE must be set when AMQP_URL is configured")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP_QUEUE must be set when AMQP_URL is configured")
		}
	}

	if c.SyncCron != "" {
		if _, err := cron.ParseStandard(c.SyncCron); err != nil {
			errors = append(errors, fmt.Sprintf("invalid sync schedule %q: %v", c.SyncCron, err))
		}
	}

	if c.SyncParallelism < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync parallelism %d: must be at least 1", c.SyncParallelism))
	} else if c.SyncParallelism > 32 {
		errors = append(errors, fmt.Sprintf("invalid sync parallelism %d: must be at most 32", c.SyncParallelism))
	}

	if c.AnalysisCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid analysis cache TTL %s: must be at least 1 second", c.AnalysisCacheTTL))
	} else if c.AnalysisCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid analysis cache TTL %s: must be at most 24 hours", c.AnalysisCacheTTL))
	}

	if c.RateLimitRPS <= 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %g: requests per second must be positive", c.RateLimitRPS))
	}
	if c.RateLimitBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit burst %d: must be at least 1", c.RateLimitBurst))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// validateDrive checks the Drive folder and whichever credential route is
// configured. No credentials at all is legal: the Drive client falls back
// to Application Default Credentials.
func (c *Config) validateDrive() []string {
	var errors []string

	if c.GoogleDriveFolder == "" {
		errors = append(errors, "GOOGLE_DRIVE_FOLDER is required for the drive backend")
	}

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); err != nil {
			errors = append(errors, fmt.Sprintf("service account file %s does not exist", c.GoogleServiceAccountFile))
		}
	}

	if (c.GoogleOAuthClientFile == "") != (c.GoogleOAuthTokenFile == "") {
		errors = append(errors, "GOOGLE_OAUTH_CLIENT_FILE and GOOGLE_OAUTH_TOKEN_FILE must be set together")
	} else if c.GoogleOAuthClientFile != "" {
		if _, err := os.Stat(c.GoogleOAuthClientFile); err != nil {
			errors = append(errors, fmt.Sprintf("OAuth client file %s does not exist", c.GoogleOAuthClientFile))
		}
		if _, err := os.Stat(c.GoogleOAuthTokenFile); err != nil {
			errors = append(errors, fmt.Sprintf("OAuth token file %s does not exist", c.GoogleOAuthTokenFile))
		}
	}

	return errors
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
