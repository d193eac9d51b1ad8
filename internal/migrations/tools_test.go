package migrations

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jamesprial/catalog-admin/internal/catalogtest"
	"github.com/jamesprial/catalog-admin/internal/safety"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newCallToolRequest(t *testing.T, args map[string]any) mcp.CallToolRequest {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func extractResultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("result is nil")
	}
	if len(result.Content) == 0 {
		t.Fatal("result has no content entries")
	}
	tc, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("first content entry is not TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

var tokenRe = regexp.MustCompile(`confirmation_token="([0-9a-f]+)"`)

func extractToken(t *testing.T, text string) string {
	t.Helper()
	m := tokenRe.FindStringSubmatch(text)
	if len(m) != 2 {
		t.Fatalf("no confirmation token in %q", text)
	}
	return m[1]
}

func newTools(t *testing.T) (*catalogtest.Backend, map[string]func(args map[string]any) string, *bytes.Buffer) {
	t.Helper()
	b, env := newEnv(t)
	var audit bytes.Buffer
	env.Audit = safety.NewAuditLogger(&audit)
	runner := &Runner{Env: env, Plan: defaultPlan(t)}
	confirm := safety.NewConfirmationTracker(DestructiveTools)

	call := map[string]func(args map[string]any) string{}
	for _, reg := range Tools(runner, confirm) {
		reg := reg
		call[reg.Tool.Name] = func(args map[string]any) string {
			result, err := reg.Handler(context.Background(), newCallToolRequest(t, args))
			if err != nil {
				t.Fatalf("%s returned error: %v", reg.Tool.Name, err)
			}
			return extractResultText(t, result)
		}
	}
	return b, call, &audit
}

// ---------------------------------------------------------------------------
// migration_list / migration_run
// ---------------------------------------------------------------------------

func Test_MigrationList(t *testing.T) {
	_, call, _ := newTools(t)

	text := call[toolList](nil)
	for _, m := range Registry() {
		if !strings.Contains(text, `"name": "`+m.Name+`"`) {
			t.Errorf("list is missing %s", m.Name)
		}
	}
	if !strings.Contains(text, `"read_only": true`) {
		t.Errorf("list has no read-only entries: %s", text)
	}
}

func Test_MigrationRun_Cases(t *testing.T) {
	tests := []struct {
		name       string
		args       map[string]any
		wantSubstr string
	}{
		{name: "names required", args: map[string]any{}, wantSubstr: "error: names is required"},
		{name: "unknown migration", args: map[string]any{"names": "amenities, bogus"}, wantSubstr: `error: unknown migration "bogus"`},
		{name: "read-only runs without confirmation", args: map[string]any{"names": "list-products"}, wantSubstr: `"migration": "list-products"`},
		{name: "mutating migration asks first", args: map[string]any{"names": "construction-data"}, wantSubstr: "Confirmation required for migration_run"},
		{name: "bad token asks again", args: map[string]any{"names": "construction-data", "confirmation_token": "deadbeef"}, wantSubstr: "Confirmation required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, call, _ := newTools(t)
			text := call[toolRun](tt.args)
			if !strings.Contains(text, tt.wantSubstr) {
				t.Errorf("result = %q, want it to contain %q", text, tt.wantSubstr)
			}
			if n := b.MutationCount(); n != 0 {
				t.Errorf("mutations = %d, want 0", n)
			}
		})
	}
}

func Test_MigrationRun_Confirmed(t *testing.T) {
	b, call, audit := newTools(t)
	b.SeedProduct(catalogtest.ProductSeed{Name: "Palm Royale", Slug: "palm-royale"})

	prompt := call[toolRun](map[string]any{"names": "construction-data"})
	token := extractToken(t, prompt)

	text := call[toolRun](map[string]any{"names": "construction-data", "confirmation_token": token})
	if !strings.Contains(text, `"updated": 1`) {
		t.Errorf("result = %q", text)
	}
	if _, ok := b.ProductMetadata("palm-royale", "construction_asset"); !ok {
		t.Error("metadata not written")
	}
	for _, want := range []string{`"operation":"migration_run"`, `"operation":"updateMetadata"`, "ok: 1 migration(s)"} {
		if !strings.Contains(audit.String(), want) {
			t.Errorf("audit missing %s: %s", want, audit.String())
		}
	}

	// Tokens are single use.
	if text := call[toolRun](map[string]any{"names": "construction-data", "confirmation_token": token}); !strings.Contains(text, "Confirmation required") {
		t.Errorf("reused token accepted: %q", text)
	}
}

func Test_MigrationRun_ReportsFailure(t *testing.T) {
	_, call, _ := newTools(t)

	prompt := call[toolRun](map[string]any{"names": "franchises"})
	text := call[toolRun](map[string]any{"names": "franchises", "confirmation_token": extractToken(t, prompt)})
	if !strings.Contains(text, `"error": "franchises: category \"real-estate\" not found"`) {
		t.Errorf("result = %q", text)
	}
}
