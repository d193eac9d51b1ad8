// Package config provides configuration loading and defaults for the catalog
// administration tools.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ResourceFilter holds allowlist and denylist slug patterns for a resource category.
type ResourceFilter struct {
	Allowlist []string `yaml:"allowlist"`
	Denylist  []string `yaml:"denylist"`
}

// SafetyConfig groups slug filters guarding catalog mutations.
type SafetyConfig struct {
	Products   ResourceFilter `yaml:"products"`
	Attributes ResourceFilter `yaml:"attributes"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	LogPath string `yaml:"log_path"`
}

// ServerConfig holds network and authentication settings for the MCP server.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// GraphQLConfig holds connection details for the catalog backend GraphQL API.
type GraphQLConfig struct {
	URL string `yaml:"url"`
	// Email and Password are exchanged for a bearer token via tokenCreate.
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	// Token is a pre-issued bearer token. When set, no login is performed.
	Token string `yaml:"token"`
	// Timeout is the HTTP request timeout in seconds.
	Timeout  int    `yaml:"timeout"`
	Channel  string `yaml:"channel"`
	PageSize int    `yaml:"page_size"`
}

// MediaConfig tunes the media attachment routine.
type MediaConfig struct {
	Concurrency int `yaml:"concurrency"`
	// DownloadTimeout is the image download timeout in seconds.
	DownloadTimeout int `yaml:"download_timeout"`
}

// LogConfig selects the zap logger flavour and level.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Config is the top-level configuration structure.
type Config struct {
	GraphQL  GraphQLConfig `yaml:"graphql"`
	Server   ServerConfig  `yaml:"server"`
	Safety   SafetyConfig  `yaml:"safety"`
	Audit    AuditConfig   `yaml:"audit"`
	Media    MediaConfig   `yaml:"media"`
	Log      LogConfig     `yaml:"log"`
	PlanPath string        `yaml:"plan_path"`
}

// LoadConfig reads and parses a YAML configuration file from the given path.
// On error, nil is returned for the config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a new Config populated with default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		GraphQL: GraphQLConfig{
			URL:      "http://localhost:8000/graphql/",
			Timeout:  30,
			Channel:  "default-channel",
			PageSize: 100,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Audit: AuditConfig{
			Enabled: false,
			LogPath: "catalog-audit.log",
		},
		Media: MediaConfig{
			Concurrency:     1,
			DownloadTimeout: 60,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// MergeDefaults fills zero-valued fields of cfg from DefaultConfig.
func MergeDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.GraphQL.URL == "" {
		cfg.GraphQL.URL = def.GraphQL.URL
	}
	if cfg.GraphQL.Timeout <= 0 {
		cfg.GraphQL.Timeout = def.GraphQL.Timeout
	}
	if cfg.GraphQL.Channel == "" {
		cfg.GraphQL.Channel = def.GraphQL.Channel
	}
	if cfg.GraphQL.PageSize <= 0 {
		cfg.GraphQL.PageSize = def.GraphQL.PageSize
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Audit.LogPath == "" {
		cfg.Audit.LogPath = def.Audit.LogPath
	}
	if cfg.Media.Concurrency <= 0 {
		cfg.Media.Concurrency = def.Media.Concurrency
	}
	if cfg.Media.DownloadTimeout <= 0 {
		cfg.Media.DownloadTimeout = def.Media.DownloadTimeout
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}

// LoadDotEnv loads environment files in order. Files that do not exist are
// skipped; variables already present in the environment are never replaced.
// With no arguments it tries .env.local and then .env.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env.local", ".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Recognized variables:
//   - CATALOG_GRAPHQL_URL overrides cfg.GraphQL.URL
//   - CATALOG_ADMIN_EMAIL overrides cfg.GraphQL.Email
//   - CATALOG_ADMIN_PASSWORD overrides cfg.GraphQL.Password
//   - CATALOG_GRAPHQL_TOKEN overrides cfg.GraphQL.Token
//   - CATALOG_CHANNEL overrides cfg.GraphQL.Channel
//   - CATALOG_PAGE_SIZE overrides cfg.GraphQL.PageSize (ignored when not a positive int)
//   - CATALOG_MCP_AUTH_TOKEN overrides cfg.Server.AuthToken
//   - CATALOG_PLAN_PATH overrides cfg.PlanPath
//   - CATALOG_LOG_LEVEL overrides cfg.Log.Level
func ApplyEnvOverrides(cfg *Config) {
	overrides := []struct {
		key    string
		target *string
	}{
		{"CATALOG_GRAPHQL_URL", &cfg.GraphQL.URL},
		{"CATALOG_ADMIN_EMAIL", &cfg.GraphQL.Email},
		{"CATALOG_ADMIN_PASSWORD", &cfg.GraphQL.Password},
		{"CATALOG_GRAPHQL_TOKEN", &cfg.GraphQL.Token},
		{"CATALOG_CHANNEL", &cfg.GraphQL.Channel},
		{"CATALOG_MCP_AUTH_TOKEN", &cfg.Server.AuthToken},
		{"CATALOG_PLAN_PATH", &cfg.PlanPath},
		{"CATALOG_LOG_LEVEL", &cfg.Log.Level},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.target = v
		}
	}

	if v := os.Getenv("CATALOG_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.GraphQL.PageSize = n
		}
	}
}

// Validate reports whether cfg carries enough information to reach the
// backend: a URL and either a static token or an email/password pair.
func (c *Config) Validate() error {
	if c.GraphQL.URL == "" {
		return errors.New("config: graphql.url is required")
	}
	if c.GraphQL.Token != "" {
		return nil
	}
	if c.GraphQL.Email == "" || c.GraphQL.Password == "" {
		return errors.New("config: graphql.token or graphql.email and graphql.password are required")
	}
	return nil
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated).
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}

	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}

	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded cryptographically
// random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
