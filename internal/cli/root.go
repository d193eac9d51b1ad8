// Package cli implements the catalogctl command tree.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jamesprial/catalog-admin/internal/catalog"
	"github.com/jamesprial/catalog-admin/internal/config"
	"github.com/jamesprial/catalog-admin/internal/graphql"
	"github.com/jamesprial/catalog-admin/internal/logging"
	"github.com/jamesprial/catalog-admin/internal/media"
	"github.com/jamesprial/catalog-admin/internal/migrations"
	"github.com/jamesprial/catalog-admin/internal/safety"
)

const defaultConfigPath = "config.yaml"

// Options customise the command tree.
type Options struct {
	// Logger replaces the logger built from configuration.
	Logger *zap.Logger
}

type globalFlags struct {
	configPath string
	planPath   string
	channel    string
	logLevel   string
}

// app holds everything a subcommand needs once configuration is loaded.
type app struct {
	opts   Options
	flags  globalFlags
	cfg    *config.Config
	logger *zap.Logger
	client *graphql.HTTPClient
	repo   catalog.Repository
	filter *safety.Filter
	attrs  *safety.Filter
	audit  *safety.AuditLogger
	closer io.Closer
}

// Execute runs catalogctl with args and releases the audit log afterwards.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, opts Options) error {
	a := &app{opts: opts}
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.close())
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Administer and migrate the product catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", os.Getenv("CATALOG_CONFIG_PATH"), "Config file (default: ./config.yaml when present)")
	pf.StringVar(&a.flags.planPath, "plan", "", "Migration plan file (default: embedded plan)")
	pf.StringVar(&a.flags.channel, "channel", "", "Channel slug (default: graphql.channel)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newLoginCmd(a),
		newMigrateCmd(a),
		newProductsCmd(a),
		newAttributesCmd(a),
		newRepairCmd(a),
		newMediaCmd(a),
	)
	return root
}

// loadConfig resolves the config file, dotenv files, environment and flags,
// in increasing precedence.
func (a *app) loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	path := a.flags.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}
	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		config.MergeDefaults(loaded)
		cfg = loaded
	}
	config.ApplyEnvOverrides(cfg)

	if a.flags.planPath != "" {
		cfg.PlanPath = a.flags.planPath
	}
	if a.flags.channel != "" {
		cfg.GraphQL.Channel = a.flags.channel
	}
	if a.flags.logLevel != "" {
		cfg.Log.Level = a.flags.logLevel
	}
	return cfg, cfg.Validate()
}

func (a *app) setup() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = a.opts.Logger
	if a.logger == nil {
		if a.logger, err = logging.New(cfg.Log); err != nil {
			return err
		}
	}

	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open audit log %q: %w", cfg.Audit.LogPath, err)
		}
		a.audit = safety.NewAuditLogger(f)
		a.closer = f
	}
	a.filter = safety.FilterFromConfig(cfg.Safety.Products)
	a.attrs = safety.FilterFromConfig(cfg.Safety.Attributes)

	a.client, err = graphql.NewHTTPClient(cfg.GraphQL, graphql.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.repo = catalog.NewGraphQLRepository(a.client, a.logger)
	return nil
}

func (a *app) close() error {
	if a.logger != nil && a.opts.Logger == nil {
		// Sync fails on terminals; nothing useful can be done about it.
		_ = a.logger.Sync()
	}
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

func (a *app) attacher() *media.Attacher {
	return media.NewAttacher(a.repo, a.cfg.Media,
		media.WithChannel(a.cfg.GraphQL.Channel),
		media.WithFilter(a.filter),
		media.WithAudit(a.audit),
		media.WithLogger(a.logger),
	)
}

func (a *app) env() *migrations.Env {
	return &migrations.Env{
		Repo:     a.repo,
		Media:    a.attacher(),
		Channel:  a.cfg.GraphQL.Channel,
		PageSize: a.cfg.GraphQL.PageSize,
		Filter:   a.filter,
		Audit:    a.audit,
		Logger:   a.logger,

		AttributeFilter: a.attrs,
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
