// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names accepted by the configuration.
const (
	HistoryBackendMemory = "memory"
	HistoryBackendBadger = "badger"
	HistoryBackendSQLite = "sqlite"

	RetrieverBackendBleve    = "bleve"
	RetrieverBackendPgvector = "pgvector"

	AuthProviderOIDC   = "oidc"
	AuthProviderPaseto = "paseto"
)

const firebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Server    ServerConfig
	History   HistoryConfig
	Recommend RecommendConfig
	Retriever RetrieverConfig
	Catalog   CatalogConfig
	Postgres  PostgresConfig
	OpenAI    OpenAIConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk storage configuration.
type DataConfig struct {
	BasePath string // badger, sqlite, bleve and key files live under here
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

// HistoryConfig configures the bounded view history.
type HistoryConfig struct {
	Backend  string // memory, badger or sqlite
	Capacity int
}

// RecommendConfig configures the recommendation engine.
type RecommendConfig struct {
	Seeds            []string
	TopGenres        int
	DefaultLimit     int
	MaxLimit         int
	RetrieverTimeout time.Duration
}

// RetrieverConfig configures candidate retrieval.
type RetrieverConfig struct {
	Backend         string // bleve or pgvector
	BookCandidates  int     // candidates considered by fuzzy title lookup
	FuzzyCutoff     float64 // minimum similarity for a title match
	BreakerFailures uint32  // consecutive failures before the breaker opens
	BreakerTimeout  time.Duration
}

// CatalogConfig configures catalog ingestion.
type CatalogConfig struct {
	CSVPath string
	Watch   bool
}

// PostgresConfig configures the pgvector store.
type PostgresConfig struct {
	DSN   string
	Table string
}

// OpenAIConfig configures the embedding client.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

// AuthConfig configures identity token verification.
type AuthConfig struct {
	Provider          string // oidc or paseto
	FirebaseProjectID string
	Issuer            string
	ClientID          string
	JWKSURL           string
	TokenDuration     time.Duration // lifetime of locally issued identity tokens
}

// RateLimitConfig configures inbound rate limiting.
type RateLimitConfig struct {
	LoginRPS   float64
	LoginBurst int
}

// LoadConfig loads configuration using the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("pagewise", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for on-disk data")
	serverPort := fs.String("port", "", "Server port (default: 5000)")
	historyBackend := fs.String("history-backend", "", "History backend (memory, badger, sqlite)")
	retrieverBackend := fs.String("retriever-backend", "", "Candidate retriever (bleve, pgvector)")
	catalogCSV := fs.String("catalog-csv", "", "Catalog CSV to ingest and watch")
	authProvider := fs.String("auth-provider", "", "Identity provider (oidc, paseto)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Existing environment variables win over the .env file.
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load env file %q: %w", *envFile, err)
	}

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
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "5000"),
			AllowedOrigins: getListConfigValue("", "CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		History: HistoryConfig{
			Backend:  strings.ToLower(getConfigValue(*historyBackend, "HISTORY_BACKEND", HistoryBackendBadger)),
			Capacity: getIntConfigValue("", "HISTORY_CAPACITY", 5),
		},
		Recommend: RecommendConfig{
			Seeds:        getListConfigValue("", "RECOMMEND_SEEDS", nil),
			TopGenres:    getIntConfigValue("", "RECOMMEND_TOP_GENRES", 3),
			DefaultLimit: getIntConfigValue("", "RECOMMEND_DEFAULT_LIMIT", 5),
			MaxLimit:     getIntConfigValue("", "RECOMMEND_MAX_LIMIT", 50),
		},
		Retriever: RetrieverConfig{
			Backend:         strings.ToLower(getConfigValue(*retrieverBackend, "RETRIEVER_BACKEND", RetrieverBackendBleve)),
			BookCandidates:  getIntConfigValue("", "BOOK_LOOKUP_CANDIDATES", 5),
			FuzzyCutoff:     getFloatConfigValue("", "FUZZY_CUTOFF", 0.6),
			BreakerFailures: uint32(max(getIntConfigValue("", "BREAKER_MAX_FAILURES", 5), 1)), //nolint:gosec // clamped to >= 1
		},
		Catalog: CatalogConfig{
			CSVPath: getConfigValue(*catalogCSV, "CATALOG_CSV", ""),
			Watch:   getBoolConfigValue("", "CATALOG_WATCH", false),
		},
		Postgres: PostgresConfig{
			DSN:   getConfigValue("", "POSTGRES_DSN", ""),
			Table: getConfigValue("", "VECTOR_TABLE", "books"),
		},
		OpenAI: OpenAIConfig{
			APIKey:     getConfigValue("", "OPENAI_API_KEY", ""),
			BaseURL:    getConfigValue("", "OPENAI_BASE_URL", ""),
			Model:      getConfigValue("", "EMBEDDING_MODEL", "text-embedding-3-small"),
			Dimensions: getIntConfigValue("", "EMBEDDING_DIMENSIONS", 1536),
		},
		Auth: AuthConfig{
			Provider:          strings.ToLower(getConfigValue(*authProvider, "AUTH_PROVIDER", AuthProviderPaseto)),
			FirebaseProjectID: getConfigValue("", "FIREBASE_PROJECT_ID", ""),
			Issuer:            getConfigValue("", "OIDC_ISSUER", ""),
			ClientID:          getConfigValue("", "OIDC_CLIENT_ID", ""),
			JWKSURL:           getConfigValue("", "OIDC_JWKS_URL", ""),
		},
		RateLimit: RateLimitConfig{
			LoginRPS:   getFloatConfigValue("", "LOGIN_RATE_LIMIT", 1),
			LoginBurst: getIntConfigValue("", "LOGIN_RATE_BURST", 10),
		},
	}

	durations := []struct {
		envKey string
		def    string
		dest   *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{"RETRIEVER_TIMEOUT", "5s", &cfg.Recommend.RetrieverTimeout},
		{"BREAKER_OPEN_TIMEOUT", "30s", &cfg.Retriever.BreakerTimeout},
		{"IDENTITY_TOKEN_DURATION", "1h", &cfg.Auth.TokenDuration},
	}
	for _, d := range durations {
		value, err := getDurationConfigValue("", d.envKey, d.def)
		if err != nil {
			return nil, err
		}
		*d.dest = value
	}

	cfg.applyFirebaseDefaults()

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.History.Backend {
	case HistoryBackendMemory, HistoryBackendBadger, HistoryBackendSQLite:
	default:
		return fmt.Errorf("invalid history backend: %q (must be memory, badger, or sqlite)", c.History.Backend)
	}
	if c.History.Capacity < 1 {
		return errors.New("HISTORY_CAPACITY must be at least 1")
	}

	if c.Recommend.TopGenres < 1 {
		return errors.New("RECOMMEND_TOP_GENRES must be at least 1")
	}
	if c.Recommend.DefaultLimit < 1 || c.Recommend.MaxLimit < c.Recommend.DefaultLimit {
		return fmt.Errorf("invalid recommendation limits: default %d, max %d", c.Recommend.DefaultLimit, c.Recommend.MaxLimit)
	}
	if c.Recommend.RetrieverTimeout <= 0 {
		return errors.New("RETRIEVER_TIMEOUT must be positive")
	}

	switch c.Retriever.Backend {
	case RetrieverBackendBleve:
	case RetrieverBackendPgvector:
		if c.Postgres.DSN == "" {
			return errors.New("POSTGRES_DSN is required for the pgvector retriever")
		}
		if c.OpenAI.APIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the pgvector retriever")
		}
	default:
		return fmt.Errorf("invalid retriever backend: %q (must be bleve or pgvector)", c.Retriever.Backend)
	}
	if c.Retriever.FuzzyCutoff <= 0 || c.Retriever.FuzzyCutoff > 1 {
		return fmt.Errorf("FUZZY_CUTOFF must be in (0, 1], got %v", c.Retriever.FuzzyCutoff)
	}
	if c.Retriever.BookCandidates < 1 {
		return errors.New("BOOK_LOOKUP_CANDIDATES must be at least 1")
	}

	switch c.Auth.Provider {
	case AuthProviderPaseto:
	case AuthProviderOIDC:
		if c.Auth.Issuer == "" || c.Auth.ClientID == "" || c.Auth.JWKSURL == "" {
			return errors.New("OIDC_ISSUER, OIDC_CLIENT_ID and OIDC_JWKS_URL (or FIREBASE_PROJECT_ID) are required for the oidc provider")
		}
	default:
		return fmt.Errorf("invalid auth provider: %q (must be oidc or paseto)", c.Auth.Provider)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	return nil
}

// applyFirebaseDefaults fills OIDC settings from a Firebase project ID when
// they were not given explicitly.
func (c *Config) applyFirebaseDefaults() {
	project := c.Auth.FirebaseProjectID
	if project == "" {
		return
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "https://securetoken.google.com/" + project
	}
	if c.Auth.ClientID == "" {
		c.Auth.ClientID = project
	}
	if c.Auth.JWKSURL == "" {
		c.Auth.JWKSURL = firebaseJWKSURL
	}
}

func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	c.Data.BasePath, err = expandPath(c.Data.BasePath, filepath.Join(homeDir, ".pagewise"))
	if err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}

	if c.Catalog.CSVPath != "" {
		c.Catalog.CSVPath, err = expandPath(c.Catalog.CSVPath, "")
		if err != nil {
			return fmt.Errorf("invalid catalog path: %w", err)
		}
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
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

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1" and "yes" (case-insensitive) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue falls back to the default on unparsable input.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strings.TrimSpace(strValue), 64)
	if err != nil {
		return defaultValue
	}
	return result
}

func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return d, nil
}

// getListConfigValue splits a comma-separated value, dropping blanks.
func getListConfigValue(flagValue, envKey string, defaultValue []string) []string {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var out []string
	for part := range strings.SplitSeq(strValue, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
