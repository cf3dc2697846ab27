// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Storage backend names.
const (
	StorageBackendLocal = "local"
	StorageBackendS3    = "s3"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Data    DataConfig
	Server  ServerConfig
	Auth    AuthConfig
	Storage StorageConfig
	Ingest  IngestConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk data storage configuration.
type DataConfig struct {
	// BasePath is the root for the database, the search index, and log backups.
	BasePath string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name         string
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for session tokens (32 bytes)
	SessionTokenKey []byte
	// SessionDuration is the lifetime of an admin session token.
	SessionDuration time.Duration
	// Admin credentials. The password is hashed on startup; only the
	// hash is kept in memory after LoadConfig returns.
	AdminUsername string
	AdminPassword string
	// Login throttle, keyed by client IP.
	LoginRPS   float64
	LoginBurst int
}

// StorageConfig holds audio file storage configuration.
type StorageConfig struct {
	// Backend selects the storage adapter: "local" or "s3".
	Backend string
	// LocalPath is the root directory for the local backend.
	LocalPath string
	// KeyPrefix namespaces all object keys (default: "audio").
	KeyPrefix string

	// S3 settings, used when Backend is "s3".
	S3Bucket    string
	S3Region    string
	S3Endpoint  string // Optional, for S3-compatible stores
	S3AccessKey string
	S3SecretKey string
	// PresignTTL is how long generated streaming URLs stay valid.
	PresignTTL time.Duration
}

// IngestConfig holds audio ingestion validation configuration.
type IngestConfig struct {
	// MaxFileSize is the upload ceiling in bytes (default: 100 MiB).
	MaxFileSize int64
	// MinDuration/MaxDuration bound accepted track lengths.
	MinDuration time.Duration
	MaxDuration time.Duration
	// FFprobePath overrides auto-detection of ffprobe location (default: auto-detect)
	FFprobePath string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for data storage")
	serverName := flag.String("server-name", "", "Name for the server")

	// Auth flags
	sessionDuration := flag.String("session-duration", "", "Admin session lifetime (e.g., 24h)")
	adminUsername := flag.String("admin-username", "", "Admin login username")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Storage flags
	storageBackend := flag.String("storage-backend", "", "Storage backend: local or s3 (default: local)")
	storagePath := flag.String("storage-path", "", "Root directory for local audio storage")
	s3Bucket := flag.String("s3-bucket", "", "S3 bucket for audio storage")
	s3Region := flag.String("s3-region", "", "S3 region (default: us-east-1)")
	s3Endpoint := flag.String("s3-endpoint", "", "Custom S3 endpoint for compatible stores")

	// Ingest flags
	maxFileSize := flag.String("max-file-size", "", "Maximum upload size in bytes (default: 104857600)")
	ffprobePath := flag.String("ffprobe-path", "", "Path to ffprobe binary (default: auto-detect)")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},

		Server: ServerConfig{
			Name: getConfigValue(*serverName, "SERVER_NAME", "VOJ Server"),
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},

		Auth: AuthConfig{
			SessionTokenKey: nil, // Will be set by auth.LoadOrGenerateKey in main
			AdminUsername:   getConfigValue(*adminUsername, "ADMIN_USERNAME", "admin"),
			AdminPassword:   getConfigValue("", "ADMIN_PASSWORD", ""),
			LoginRPS:        getFloatConfigValue("", "LOGIN_RPS", 0.5),
			LoginBurst:      getIntConfigValue("", "LOGIN_BURST", 5),
		},

		Storage: StorageConfig{
			Backend:     getConfigValue(*storageBackend, "STORAGE_BACKEND", StorageBackendLocal),
			LocalPath:   getConfigValue(*storagePath, "STORAGE_PATH", ""),
			KeyPrefix:   getConfigValue("", "STORAGE_KEY_PREFIX", "audio"),
			S3Bucket:    getConfigValue(*s3Bucket, "S3_BUCKET", ""),
			S3Region:    getConfigValue(*s3Region, "S3_REGION", "us-east-1"),
			S3Endpoint:  getConfigValue(*s3Endpoint, "S3_ENDPOINT", ""),
			S3AccessKey: getConfigValue("", "S3_ACCESS_KEY", ""),
			S3SecretKey: getConfigValue("", "S3_SECRET_KEY", ""),
		},

		Ingest: IngestConfig{
			MaxFileSize: getInt64ConfigValue(*maxFileSize, "INGEST_MAX_FILE_SIZE", 100*1024*1024),
			FFprobePath: getConfigValue(*ffprobePath, "FFPROBE_PATH", ""),
		},
	}

	// Parse auth durations.
	sessionDurationStr := getConfigValue(*sessionDuration, "SESSION_DURATION", "24h")
	sessionDur, err := time.ParseDuration(sessionDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid session duration %q: %w", sessionDurationStr, err)
	}
	cfg.Auth.SessionDuration = sessionDur

	// Parse server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Server.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	// Parse ingest durations.
	minDurationStr := getConfigValue("", "INGEST_MIN_DURATION", "10s")
	minDuration, err := time.ParseDuration(minDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid minimum duration %q: %w", minDurationStr, err)
	}
	cfg.Ingest.MinDuration = minDuration

	maxDurationStr := getConfigValue("", "INGEST_MAX_DURATION", "4h")
	maxDuration, err := time.ParseDuration(maxDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid maximum duration %q: %w", maxDurationStr, err)
	}
	cfg.Ingest.MaxDuration = maxDuration

	// Parse storage presign TTL.
	presignTTLStr := getConfigValue("", "STORAGE_PRESIGN_TTL", "1h")
	presignTTL, err := time.ParseDuration(presignTTLStr)
	if err != nil {
		return nil, fmt.Errorf("invalid presign TTL %q: %w", presignTTLStr, err)
	}
	cfg.Storage.PresignTTL = presignTTL

	// Expand and validate data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	// Expand local storage path (defaults to {data}/audio).
	if err := cfg.expandStoragePath(); err != nil {
		return nil, fmt.Errorf("invalid storage path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	switch c.Storage.Backend {
	case StorageBackendLocal:
		if c.Storage.LocalPath == "" {
			return errors.New("storage path cannot be empty for local backend")
		}
	case StorageBackendS3:
		if c.Storage.S3Bucket == "" {
			return errors.New("S3_BUCKET is required for s3 backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be local or s3)", c.Storage.Backend)
	}

	if c.Ingest.MaxFileSize <= 0 {
		return errors.New("max file size must be positive")
	}
	if c.Ingest.MinDuration <= 0 || c.Ingest.MaxDuration <= c.Ingest.MinDuration {
		return errors.New("duration bounds must satisfy 0 < min < max")
	}

	// Auth key is set by auth.LoadOrGenerateKey in main.
	// ADMIN_PASSWORD is validated in main so tests can load config without it.

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "VOJ", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandStoragePath expands ~ and makes the path absolute.
// Defaults to {data}/audio if not specified. S3 backends ignore it.
func (c *Config) expandStoragePath() error {
	if c.Storage.Backend != StorageBackendLocal {
		return nil
	}

	defaultPath := filepath.Join(c.Data.BasePath, "audio")

	expanded, err := expandPath(c.Storage.LocalPath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.LocalPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getInt64ConfigValue returns an int64 from flag, env var, or default.
func getInt64ConfigValue(flagValue, envKey string, defaultValue int64) int64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int64
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
