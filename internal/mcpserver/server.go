// Package mcpserver assembles the catalog MCP tools behind a chi router.
package mcpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/jamesprial/catalog-admin/internal/auth"
	"github.com/jamesprial/catalog-admin/internal/catalog"
	"github.com/jamesprial/catalog-admin/internal/graphql"
	"github.com/jamesprial/catalog-admin/internal/logging"
	"github.com/jamesprial/catalog-admin/internal/media"
	"github.com/jamesprial/catalog-admin/internal/migrations"
	"github.com/jamesprial/catalog-admin/internal/repair"
	"github.com/jamesprial/catalog-admin/internal/safety"
	"github.com/jamesprial/catalog-admin/internal/tools"
)

const (
	// Name is the MCP server name reported on initialize.
	Name    = "catalog-mcp"
	Version = "1.0.0"
)

// Deps are the components exposed as tools.
type Deps struct {
	Client   graphql.Client
	Repo     catalog.Repository
	Media    *media.Attacher
	Runner   *migrations.Runner
	Channel  string
	PageSize int
	Filter   *safety.Filter
	Audit    *safety.AuditLogger
	// AttributeFilter guards attribute value deletions by repair.
	AttributeFilter *safety.Filter

	Logger    *zap.Logger
	AuthToken string
}

// Registrations returns every tool with its own confirmation tracker per
// tool family.
func Registrations(d Deps) []tools.Registration {
	graphqlConfirm := safety.NewConfirmationTracker(graphql.DestructiveTools)
	repairConfirm := safety.NewConfirmationTracker(repair.DestructiveTools)
	migrationConfirm := safety.NewConfirmationTracker(migrations.DestructiveTools)

	var regs []tools.Registration
	regs = append(regs, catalog.CatalogTools(d.Repo, d.Channel, d.Audit)...)
	regs = append(regs, graphql.GraphQLTools(d.Client, graphqlConfirm, d.Audit)...)
	regs = append(regs, repair.Tools(d.Repo, repair.Options{
		PageSize:        d.PageSize,
		Filter:          d.Filter,
		AttributeFilter: d.AttributeFilter,
		Audit:           d.Audit,
		Logger:          d.Logger,
	}, repairConfirm)...)
	if d.Media != nil {
		regs = append(regs, media.Tools(d.Media, d.Audit)...)
	}
	if d.Runner != nil {
		regs = append(regs, migrations.Tools(d.Runner, migrationConfirm)...)
	}
	return regs
}

// NewHandler returns the HTTP handler: /healthz is public, /mcp requires the
// bearer token.
func NewHandler(d Deps) (http.Handler, error) {
	logger := logging.OrNop(d.Logger)

	regs := Registrations(d)
	mcpServer := server.NewMCPServer(Name, Version, server.WithToolCapabilities(false))
	if err := tools.RegisterAll(mcpServer, regs); err != nil {
		return nil, err
	}
	logger.Info("registered tools", zap.Int("count", len(regs)), zap.Strings("tools", tools.Names(regs)))
	streamable := server.NewStreamableHTTPServer(mcpServer)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.NewAuthMiddleware(d.AuthToken))
		r.Handle("/mcp", streamable)
	})
	return r, nil
}

// requestLogger logs one line per request at debug level.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
