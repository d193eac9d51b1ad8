package catalogtest

import (
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/jamesprial/catalog-admin/internal/config"
	catalogql "github.com/jamesprial/catalog-admin/internal/graphql"
)

// Start serves a new backend over HTTP for the duration of the test and
// returns it with a client pointed at it. When opts.RequireAuth is set the
// client logs in with opts.Email and opts.Password.
func Start(t testing.TB, opts Options) (*Backend, *catalogql.HTTPClient) {
	t.Helper()
	b := New(opts)
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	cfg := config.GraphQLConfig{URL: srv.URL, Timeout: 10}
	if opts.RequireAuth {
		cfg.Email = opts.Email
		cfg.Password = opts.Password
	}
	client, err := catalogql.NewHTTPClient(cfg, catalogql.WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("catalogtest: new client: %v", err)
	}
	return b, client
}
