package config

import (
	"encoding/hex"
	"os"
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// ApplyEnvOverrides
// ---------------------------------------------------------------------------

// catalogEnvKeys lists every variable ApplyEnvOverrides reads.
var catalogEnvKeys = []string{
	"CATALOG_GRAPHQL_URL",
	"CATALOG_ADMIN_EMAIL",
	"CATALOG_ADMIN_PASSWORD",
	"CATALOG_GRAPHQL_TOKEN",
	"CATALOG_CHANNEL",
	"CATALOG_PAGE_SIZE",
	"CATALOG_MCP_AUTH_TOKEN",
	"CATALOG_PLAN_PATH",
	"CATALOG_LOG_LEVEL",
}

// clearCatalogEnv unsets every catalog variable for the duration of the test.
func clearCatalogEnv(t *testing.T) {
	t.Helper()
	for _, k := range catalogEnvKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func Test_ApplyEnvOverrides_Cases(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		initial  Config
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name: "credentials come from the environment",
			env: map[string]string{
				"CATALOG_ADMIN_EMAIL":    "ops@example.com",
				"CATALOG_ADMIN_PASSWORD": "s3cret",
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.GraphQL.Email != "ops@example.com" {
					t.Errorf("Email = %q", cfg.GraphQL.Email)
				}
				if cfg.GraphQL.Password != "s3cret" {
					t.Errorf("Password = %q", cfg.GraphQL.Password)
				}
			},
		},
		{
			name:    "url env overrides file value",
			env:     map[string]string{"CATALOG_GRAPHQL_URL": "https://new/graphql/"},
			initial: Config{GraphQL: GraphQLConfig{URL: "http://old/graphql/"}},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.GraphQL.URL != "https://new/graphql/" {
					t.Errorf("URL = %q", cfg.GraphQL.URL)
				}
			},
		},
		{
			name:    "empty env does not override existing values",
			env:     map[string]string{"CATALOG_GRAPHQL_TOKEN": ""},
			initial: Config{GraphQL: GraphQLConfig{Token: "existing"}},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.GraphQL.Token != "existing" {
					t.Errorf("Token = %q, want existing", cfg.GraphQL.Token)
				}
			},
		},
		{
			name: "server, plan, channel and log overrides",
			env: map[string]string{
				"CATALOG_MCP_AUTH_TOKEN": "mcp-token",
				"CATALOG_PLAN_PATH":      "/plans/prod.yaml",
				"CATALOG_CHANNEL":        "storefront",
				"CATALOG_LOG_LEVEL":      "debug",
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.Server.AuthToken != "mcp-token" {
					t.Errorf("AuthToken = %q", cfg.Server.AuthToken)
				}
				if cfg.PlanPath != "/plans/prod.yaml" {
					t.Errorf("PlanPath = %q", cfg.PlanPath)
				}
				if cfg.GraphQL.Channel != "storefront" {
					t.Errorf("Channel = %q", cfg.GraphQL.Channel)
				}
				if cfg.Log.Level != "debug" {
					t.Errorf("Log.Level = %q", cfg.Log.Level)
				}
			},
		},
		{
			name:    "valid page size is applied",
			env:     map[string]string{"CATALOG_PAGE_SIZE": "25"},
			initial: Config{GraphQL: GraphQLConfig{PageSize: 100}},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.GraphQL.PageSize != 25 {
					t.Errorf("PageSize = %d, want 25", cfg.GraphQL.PageSize)
				}
			},
		},
		{
			name:    "invalid page size is ignored",
			env:     map[string]string{"CATALOG_PAGE_SIZE": "lots"},
			initial: Config{GraphQL: GraphQLConfig{PageSize: 100}},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.GraphQL.PageSize != 100 {
					t.Errorf("PageSize = %d, want 100", cfg.GraphQL.PageSize)
				}
			},
		},
		{
			name:    "other fields unchanged",
			env:     map[string]string{"CATALOG_ADMIN_EMAIL": "x@y.z"},
			initial: Config{Server: ServerConfig{Port: 9090}, Media: MediaConfig{Concurrency: 3}},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.Server.Port != 9090 {
					t.Errorf("Port = %d, want 9090", cfg.Server.Port)
				}
				if cfg.Media.Concurrency != 3 {
					t.Errorf("Media.Concurrency = %d, want 3", cfg.Media.Concurrency)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearCatalogEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			ApplyEnvOverrides(&cfg)
			tt.validate(t, &cfg)
		})
	}
}

// ---------------------------------------------------------------------------
// EnsureAuthToken
// ---------------------------------------------------------------------------

func Test_EnsureAuthToken_Cases(t *testing.T) {
	t.Run("token already set returns existing token unchanged", func(t *testing.T) {
		cfg := &Config{
			Server: ServerConfig{
				AuthToken: "pre-set",
			},
		}

		token, err := EnsureAuthToken(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "pre-set" {
			t.Errorf("returned token = %q, want %q", token, "pre-set")
		}
		if cfg.Server.AuthToken != "pre-set" {
			t.Errorf("cfg.Server.AuthToken = %q, want %q", cfg.Server.AuthToken, "pre-set")
		}
	})

	t.Run("empty token generates and sets new token", func(t *testing.T) {
		cfg := &Config{
			Server: ServerConfig{
				AuthToken: "",
			},
		}

		token, err := EnsureAuthToken(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token == "" {
			t.Fatal("returned token is empty, expected a generated value")
		}
		if cfg.Server.AuthToken != token {
			t.Errorf("cfg.Server.AuthToken = %q, want %q (returned token)", cfg.Server.AuthToken, token)
		}
	})

	t.Run("generated token is 32 characters", func(t *testing.T) {
		cfg := &Config{
			Server: ServerConfig{
				AuthToken: "",
			},
		}

		token, err := EnsureAuthToken(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(token) != 32 {
			t.Errorf("len(token) = %d, want 32", len(token))
		}
	})

	t.Run("generated token is valid hex", func(t *testing.T) {
		cfg := &Config{
			Server: ServerConfig{
				AuthToken: "",
			},
		}

		token, err := EnsureAuthToken(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		decoded, err := hex.DecodeString(token)
		if err != nil {
			t.Fatalf("token %q is not valid hex: %v", token, err)
		}
		if len(decoded) != 16 {
			t.Errorf("decoded length = %d, want 16 bytes", len(decoded))
		}
	})

	t.Run("two calls produce different tokens", func(t *testing.T) {
		cfg1 := &Config{Server: ServerConfig{AuthToken: ""}}
		cfg2 := &Config{Server: ServerConfig{AuthToken: ""}}

		token1, err := EnsureAuthToken(cfg1)
		if err != nil {
			t.Fatalf("first call error: %v", err)
		}

		token2, err := EnsureAuthToken(cfg2)
		if err != nil {
			t.Fatalf("second call error: %v", err)
		}

		if token1 == token2 {
			t.Errorf("two generated tokens are identical: %q", token1)
		}
	})
}

// ---------------------------------------------------------------------------
// GenerateRandomToken
// ---------------------------------------------------------------------------

func Test_GenerateRandomToken_Cases(t *testing.T) {
	t.Run("returns 32 character string", func(t *testing.T) {
		token, err := GenerateRandomToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(token) != 32 {
			t.Errorf("len(token) = %d, want 32", len(token))
		}
	})

	t.Run("output is valid hex encoding 16 bytes", func(t *testing.T) {
		token, err := GenerateRandomToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		decoded, err := hex.DecodeString(token)
		if err != nil {
			t.Fatalf("token %q is not valid hex: %v", token, err)
		}
		if len(decoded) != 16 {
			t.Errorf("decoded byte length = %d, want 16", len(decoded))
		}
	})

	t.Run("two calls return different values", func(t *testing.T) {
		token1, err := GenerateRandomToken()
		if err != nil {
			t.Fatalf("first call error: %v", err)
		}

		token2, err := GenerateRandomToken()
		if err != nil {
			t.Fatalf("second call error: %v", err)
		}

		if token1 == token2 {
			t.Errorf("two generated tokens are identical: %q", token1)
		}
	})

	t.Run("concurrent calls all succeed with unique tokens", func(t *testing.T) {
		const goroutines = 100

		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			tokens = make(map[string]struct{}, goroutines)
			errs   []error
		)

		wg.Add(goroutines)
		for i := 0; i < goroutines; i++ {
			go func() {
				defer wg.Done()
				token, err := GenerateRandomToken()
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return
				}
				tokens[token] = struct{}{}
			}()
		}
		wg.Wait()

		if len(errs) > 0 {
			t.Fatalf("got %d errors in concurrent calls; first: %v", len(errs), errs[0])
		}

		if len(tokens) != goroutines {
			t.Errorf("expected %d unique tokens, got %d (collisions detected)", goroutines, len(tokens))
		}
	})
}
