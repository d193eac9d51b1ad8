// Package main is the entry point for the catalog MCP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jamesprial/catalog-admin/internal/catalog"
	"github.com/jamesprial/catalog-admin/internal/config"
	"github.com/jamesprial/catalog-admin/internal/graphql"
	"github.com/jamesprial/catalog-admin/internal/logging"
	"github.com/jamesprial/catalog-admin/internal/mcpserver"
	"github.com/jamesprial/catalog-admin/internal/media"
	"github.com/jamesprial/catalog-admin/internal/migrations"
	"github.com/jamesprial/catalog-admin/internal/safety"
)

const defaultConfigPath = "/config/config.yaml"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
	cfg, cfgErr := loadConfig()
	config.ApplyEnvOverrides(cfg)

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	if cfgErr != nil {
		logger.Warn("using default config", zap.Error(cfgErr))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		logger.Warn("could not generate auth token, running without authentication", zap.Error(err))
	} else if tokenBefore == "" {
		logger.Info("generated auth token (set CATALOG_MCP_AUTH_TOKEN to persist)", zap.String("token", token))
	}

	// Open audit log writer if enabled.
	var auditLogger *safety.AuditLogger
	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			logger.Warn("audit logging disabled", zap.String("path", cfg.Audit.LogPath), zap.Error(err))
		} else {
			auditLogger = safety.NewAuditLogger(f)
			defer f.Close()
		}
	}
	filter := safety.FilterFromConfig(cfg.Safety.Products)
	attrFilter := safety.FilterFromConfig(cfg.Safety.Attributes)

	client, err := graphql.NewHTTPClient(cfg.GraphQL, graphql.WithLogger(logger))
	if err != nil {
		logger.Fatal("graphql client", zap.Error(err))
	}
	repo := catalog.NewGraphQLRepository(client, logger)
	attacher := media.NewAttacher(repo, cfg.Media,
		media.WithChannel(cfg.GraphQL.Channel),
		media.WithFilter(filter),
		media.WithAudit(auditLogger),
		media.WithLogger(logger),
	)

	deps := mcpserver.Deps{
		Client:          client,
		Repo:            repo,
		Media:           attacher,
		Channel:         cfg.GraphQL.Channel,
		PageSize:        cfg.GraphQL.PageSize,
		Filter:          filter,
		AttributeFilter: attrFilter,
		Audit:           auditLogger,
		Logger:          logger,
		AuthToken:       cfg.Server.AuthToken,
	}
	if plan, err := migrations.LoadPlan(cfg.PlanPath); err != nil {
		logger.Warn("migration tools disabled", zap.Error(err))
	} else {
		deps.Runner = &migrations.Runner{Plan: plan, Env: &migrations.Env{
			Repo:     repo,
			Media:    attacher,
			Channel:  cfg.GraphQL.Channel,
			PageSize: cfg.GraphQL.PageSize,
			Filter:   filter,
			Audit:    auditLogger,
			Logger:   logger,

			AttributeFilter: attrFilter,
		}}
	}

	handler, err := mcpserver.NewHandler(deps)
	if err != nil {
		logger.Fatal("build handler", zap.Error(err))
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("catalog-mcp listening", zap.String("addr", addr), zap.String("backend", cfg.GraphQL.URL))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// loadConfig reads the file named by CATALOG_CONFIG_PATH, or the default
// path. When the file cannot be read the defaults are returned with the
// error.
func loadConfig() (*config.Config, error) {
	path := os.Getenv("CATALOG_CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return config.DefaultConfig(), fmt.Errorf("load %q: %w", path, err)
	}
	config.MergeDefaults(cfg)
	return cfg, nil
}
