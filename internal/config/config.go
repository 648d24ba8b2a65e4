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

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Data   DataConfig
	Server ServerConfig
	GenAI  GenAIConfig
	Enrich EnrichConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds persistent data storage configuration.
type DataConfig struct {
	// BasePath is the root directory for the database, uploaded documents,
	// and the search index (default: ~/Libris/data).
	BasePath string
	// UploadPath is the directory for uploaded book documents (default: {data}/uploads).
	UploadPath string
	// SearchIndexPath is the directory for the full-text index (default: {data}/index.bleve).
	SearchIndexPath string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name         string
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// GenAIConfig holds text-generation backend configuration.
type GenAIConfig struct {
	// Provider selects the backend implementation (default: mock).
	// Valid values: mock, openai, ollama.
	Provider string
	// APIKey authenticates against hosted providers. Required for openai.
	APIKey string
	// BaseURL overrides the provider endpoint (default: provider-specific).
	BaseURL string
	// Model names the generation model (default: provider-specific).
	Model string
	// RequestTimeout bounds a single backend call (default: 30s).
	RequestTimeout time.Duration
	// RequestsPerSecond throttles outbound backend calls (default: 2).
	RequestsPerSecond float64
	// Burst is the rate limiter burst size (default: 4).
	Burst int
}

// EnrichConfig holds enrichment pipeline configuration.
type EnrichConfig struct {
	// MaxConcurrent is the maximum simultaneous backend calls (default: 2).
	MaxConcurrent int
	// MaxAttempts bounds retries per job before it is marked failed (default: 3).
	MaxAttempts int
	// QueueSize is the capacity of the pending job queue (default: 128).
	QueueSize int
	// InitialBackoff is the first retry delay; later delays grow exponentially (default: 500ms).
	InitialBackoff time.Duration
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for data storage")
	uploadPath := flag.String("upload-path", "", "Path for uploaded book documents")
	searchIndexPath := flag.String("search-index-path", "", "Path for the full-text search index")
	serverName := flag.String("server-name", "", "Name for the server")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Generation backend flags
	genaiProvider := flag.String("genai-provider", "", "Text-generation backend (mock, openai, ollama)")
	genaiAPIKey := flag.String("genai-api-key", "", "API key for hosted generation backends")
	genaiBaseURL := flag.String("genai-base-url", "", "Override generation backend endpoint")
	genaiModel := flag.String("genai-model", "", "Generation model name")
	genaiTimeout := flag.String("genai-timeout", "", "Per-call backend timeout (default: 30s)")

	// Enrichment flags
	enrichMaxConcurrent := flag.String("enrich-max-concurrent", "", "Max concurrent enrichment jobs (default: 2)")
	enrichMaxAttempts := flag.String("enrich-max-attempts", "", "Max attempts per enrichment job (default: 3)")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath:        getConfigValue(*dataPath, "DATA_PATH", ""),
			UploadPath:      getConfigValue(*uploadPath, "UPLOAD_PATH", ""),
			SearchIndexPath: getConfigValue(*searchIndexPath, "SEARCH_INDEX_PATH", ""),
		},
		Server: ServerConfig{
			Name: getConfigValue(*serverName, "SERVER_NAME", "Libris Server"),
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		GenAI: GenAIConfig{
			Provider:          getConfigValue(*genaiProvider, "GENAI_PROVIDER", "mock"),
			APIKey:            getConfigValue(*genaiAPIKey, "GENAI_API_KEY", ""),
			BaseURL:           getConfigValue(*genaiBaseURL, "GENAI_BASE_URL", ""),
			Model:             getConfigValue(*genaiModel, "GENAI_MODEL", ""),
			RequestsPerSecond: getFloatConfigValue("", "GENAI_REQUESTS_PER_SECOND", 2),
			Burst:             getIntConfigValue("", "GENAI_BURST", 4),
		},
		Enrich: EnrichConfig{
			MaxConcurrent: getIntConfigValue(*enrichMaxConcurrent, "ENRICH_MAX_CONCURRENT", 2),
			MaxAttempts:   getIntConfigValue(*enrichMaxAttempts, "ENRICH_MAX_ATTEMPTS", 3),
			QueueSize:     getIntConfigValue("", "ENRICH_QUEUE_SIZE", 128),
		},
	}

	// Parse durations.
	var err error
	if cfg.Server.ReadTimeout, err = parseDurationValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDurationValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = parseDurationValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.GenAI.RequestTimeout, err = parseDurationValue(*genaiTimeout, "GENAI_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.Enrich.InitialBackoff, err = parseDurationValue("", "ENRICH_INITIAL_BACKOFF", "500ms"); err != nil {
		return nil, err
	}

	// Expand and validate data paths.
	if err := cfg.expandDataPaths(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

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

	validProviders := map[string]bool{
		"mock":   true,
		"openai": true,
		"ollama": true,
	}
	if !validProviders[c.GenAI.Provider] {
		return fmt.Errorf("invalid genai provider: %s (must be mock, openai, or ollama)", c.GenAI.Provider)
	}
	if c.GenAI.Provider == "openai" && c.GenAI.APIKey == "" {
		return errors.New("GENAI_API_KEY is required when the openai provider is selected")
	}

	if c.Enrich.MaxConcurrent < 1 {
		return fmt.Errorf("enrich max concurrent must be >= 1, got %d", c.Enrich.MaxConcurrent)
	}
	if c.Enrich.MaxAttempts < 1 {
		return fmt.Errorf("enrich max attempts must be >= 1, got %d", c.Enrich.MaxAttempts)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPaths expands ~ and makes all data paths absolute.
// UploadPath defaults to {data}/uploads and SearchIndexPath to {data}/index.bleve.
func (c *Config) expandDataPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	base, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, "Libris", "data"))
	if err != nil {
		return err
	}
	c.Data.BasePath = base

	uploads, err := expandPath(c.Data.UploadPath, filepath.Join(base, "uploads"))
	if err != nil {
		return err
	}
	c.Data.UploadPath = uploads

	index, err := expandPath(c.Data.SearchIndexPath, filepath.Join(base, "index.bleve"))
	if err != nil {
		return err
	}
	c.Data.SearchIndexPath = index

	return nil
}

// parseDurationValue resolves a duration with flag/env/default precedence.
func parseDurationValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	str := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(strings.ReplaceAll(envKey, "_", " ")), str, err)
	}
	return d, nil
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
