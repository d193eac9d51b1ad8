package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testdataDir returns the absolute path to the testdata/config directory.
func testdataDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs(filepath.Join("..", "..", "testdata", "config"))
	if err != nil {
		t.Fatalf("failed to resolve testdata dir: %v", err)
	}
	return dir
}

// writeTempFile creates a temporary file with the given content and returns its path.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file %s: %v", path, err)
	}
	return path
}

func Test_LoadConfig_Cases(t *testing.T) {
	tests := []struct {
		name        string
		setupPath   func(t *testing.T) string
		wantErr     bool
		errContains string
		validate    func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid config loads all fields",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return filepath.Join(testdataDir(t), "valid.yaml")
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg == nil {
					t.Fatal("expected non-nil config")
				}
				if cfg.GraphQL.URL != "https://catalog.example.com/graphql/" {
					t.Errorf("GraphQL.URL = %q", cfg.GraphQL.URL)
				}
				if cfg.GraphQL.Email != "ops@example.com" || cfg.GraphQL.Password != "from-file" {
					t.Errorf("GraphQL credentials = %q/%q", cfg.GraphQL.Email, cfg.GraphQL.Password)
				}
				if cfg.GraphQL.Timeout != 45 {
					t.Errorf("GraphQL.Timeout = %d, want 45", cfg.GraphQL.Timeout)
				}
				if cfg.GraphQL.Channel != "storefront" {
					t.Errorf("GraphQL.Channel = %q, want storefront", cfg.GraphQL.Channel)
				}
				if cfg.GraphQL.PageSize != 50 {
					t.Errorf("GraphQL.PageSize = %d, want 50", cfg.GraphQL.PageSize)
				}
				if cfg.Server.Port != 9090 {
					t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
				}
				if cfg.Server.AuthToken != "test-secret-token" {
					t.Errorf("Server.AuthToken = %q, want %q", cfg.Server.AuthToken, "test-secret-token")
				}
				wantAllow := []string{"franchise-*", "palm-royale"}
				if len(cfg.Safety.Products.Allowlist) != len(wantAllow) {
					t.Errorf("Safety.Products.Allowlist = %v, want %v", cfg.Safety.Products.Allowlist, wantAllow)
				} else {
					for i, v := range wantAllow {
						if cfg.Safety.Products.Allowlist[i] != v {
							t.Errorf("Safety.Products.Allowlist[%d] = %q, want %q", i, cfg.Safety.Products.Allowlist[i], v)
						}
					}
				}
				if len(cfg.Safety.Attributes.Denylist) != 1 || cfg.Safety.Attributes.Denylist[0] != "legacy-*" {
					t.Errorf("Safety.Attributes.Denylist = %v, want [legacy-*]", cfg.Safety.Attributes.Denylist)
				}
				if !cfg.Audit.Enabled || cfg.Audit.LogPath != "/var/log/catalog-audit.log" {
					t.Errorf("Audit = %+v", cfg.Audit)
				}
				if cfg.Media.Concurrency != 4 || cfg.Media.DownloadTimeout != 20 {
					t.Errorf("Media = %+v", cfg.Media)
				}
				if cfg.Log.Level != "debug" || !cfg.Log.Development {
					t.Errorf("Log = %+v", cfg.Log)
				}
				if cfg.PlanPath != "/etc/catalog/plan.yaml" {
					t.Errorf("PlanPath = %q", cfg.PlanPath)
				}
			},
		},
		{
			name: "missing file returns error",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return "/nonexistent/path/config.yaml"
			},
			wantErr:     true,
			errContains: "no such file",
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg != nil {
					t.Error("expected nil config for missing file")
				}
			},
		},
		{
			name: "invalid YAML returns unmarshal error",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return filepath.Join(testdataDir(t), "invalid.yaml")
			},
			wantErr:     true,
			errContains: "unmarshal",
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg != nil {
					t.Error("expected nil config for invalid YAML")
				}
			},
		},
		{
			name: "empty file returns config with zero values",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return writeTempFile(t, "empty.yaml", "")
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg == nil {
					t.Fatal("expected non-nil config for empty file")
				}
				if cfg.GraphQL.URL != "" {
					t.Errorf("GraphQL.URL = %q, want empty for empty file", cfg.GraphQL.URL)
				}
				if cfg.Audit.Enabled {
					t.Error("Audit.Enabled = true, want false for empty file")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setupPath(t)
			cfg, err := LoadConfig(path)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errContains != "" && !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tt.errContains)) {
					t.Errorf("error = %q, want it to contain %q", err.Error(), tt.errContains)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func Test_DefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.GraphQL.URL != "http://localhost:8000/graphql/" {
		t.Errorf("GraphQL.URL = %q", cfg.GraphQL.URL)
	}
	if cfg.GraphQL.Timeout != 30 {
		t.Errorf("GraphQL.Timeout = %d, want 30", cfg.GraphQL.Timeout)
	}
	if cfg.GraphQL.Channel != "default-channel" {
		t.Errorf("GraphQL.Channel = %q, want default-channel", cfg.GraphQL.Channel)
	}
	if cfg.GraphQL.PageSize != 100 {
		t.Errorf("GraphQL.PageSize = %d, want 100", cfg.GraphQL.PageSize)
	}
	if cfg.GraphQL.Email != "" || cfg.GraphQL.Password != "" || cfg.GraphQL.Token != "" {
		t.Error("default config must not carry credentials")
	}
	if cfg.Media.Concurrency != 1 {
		t.Errorf("Media.Concurrency = %d, want 1", cfg.Media.Concurrency)
	}
}

func Test_DefaultConfig_DistinctInstances(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	a.GraphQL.URL = "changed"
	if b.GraphQL.URL == "changed" {
		t.Error("DefaultConfig returned shared instance")
	}
}

func Test_MergeDefaults_FillsZeroValues(t *testing.T) {
	cfg := &Config{
		GraphQL: GraphQLConfig{URL: "https://custom/graphql/", PageSize: 25},
	}
	MergeDefaults(cfg)

	if cfg.GraphQL.URL != "https://custom/graphql/" {
		t.Errorf("GraphQL.URL = %q, want custom value preserved", cfg.GraphQL.URL)
	}
	if cfg.GraphQL.PageSize != 25 {
		t.Errorf("GraphQL.PageSize = %d, want 25", cfg.GraphQL.PageSize)
	}
	if cfg.GraphQL.Timeout != 30 {
		t.Errorf("GraphQL.Timeout = %d, want default 30", cfg.GraphQL.Timeout)
	}
	if cfg.GraphQL.Channel != "default-channel" {
		t.Errorf("GraphQL.Channel = %q, want default", cfg.GraphQL.Channel)
	}
	if cfg.Media.Concurrency != 1 {
		t.Errorf("Media.Concurrency = %d, want 1", cfg.Media.Concurrency)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func Test_Validate_Cases(t *testing.T) {
	tests := []struct {
		name    string
		cfg     GraphQLConfig
		wantErr string
	}{
		{
			name:    "missing URL",
			cfg:     GraphQLConfig{Token: "t"},
			wantErr: "graphql.url",
		},
		{
			name: "static token only",
			cfg:  GraphQLConfig{URL: "http://x", Token: "t"},
		},
		{
			name: "email and password",
			cfg:  GraphQLConfig{URL: "http://x", Email: "a@b.c", Password: "p"},
		},
		{
			name:    "email without password",
			cfg:     GraphQLConfig{URL: "http://x", Email: "a@b.c"},
			wantErr: "password",
		},
		{
			name:    "no credentials",
			cfg:     GraphQLConfig{URL: "http://x"},
			wantErr: "token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{GraphQL: tt.cfg}
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func Test_LoadDotEnv_Cases(t *testing.T) {
	t.Run("missing files are skipped", func(t *testing.T) {
		if err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("variables are loaded", func(t *testing.T) {
		t.Setenv("CATALOG_DOTENV_PROBE", "")
		os.Unsetenv("CATALOG_DOTENV_PROBE")

		path := writeTempFile(t, ".env", "CATALOG_DOTENV_PROBE=loaded\n")
		if err := LoadDotEnv(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := os.Getenv("CATALOG_DOTENV_PROBE"); got != "loaded" {
			t.Errorf("CATALOG_DOTENV_PROBE = %q, want loaded", got)
		}
	})

	t.Run("existing environment wins", func(t *testing.T) {
		t.Setenv("CATALOG_DOTENV_PROBE", "from-env")

		path := writeTempFile(t, ".env", "CATALOG_DOTENV_PROBE=from-file\n")
		if err := LoadDotEnv(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := os.Getenv("CATALOG_DOTENV_PROBE"); got != "from-env" {
			t.Errorf("CATALOG_DOTENV_PROBE = %q, want from-env", got)
		}
	})
}
