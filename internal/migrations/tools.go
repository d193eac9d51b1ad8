package migrations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jamesprial/catalog-admin/internal/safety"
	"github.com/jamesprial/catalog-admin/internal/tools"
)

const (
	toolList = "migration_list"
	toolRun  = "migration_run"
)

// DestructiveTools lists the tools of this package that need confirmation.
var DestructiveTools = []string{toolRun}

// Tools returns the migration MCP tools.
func Tools(runner *Runner, confirm *safety.ConfirmationTracker) []tools.Registration {
	return []tools.Registration{
		toolMigrationList(runner.Env.Audit),
		toolMigrationRun(runner, confirm),
	}
}

type migrationInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ReadOnly    bool   `json:"read_only"`
}

func toolMigrationList(audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolList,
		mcp.WithDescription("List the catalog migrations in the order they are meant to be applied."),
	)

	handler := func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		registry := Registry()
		out := make([]migrationInfo, 0, len(registry))
		for _, m := range registry {
			out = append(out, migrationInfo{Name: m.Name, Description: m.Description, ReadOnly: m.ReadOnly})
		}
		tools.LogAudit(audit, toolList, "", nil, "ok", start)
		return tools.JSONResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// splitNames parses a comma-separated migration list.
func splitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func toolMigrationRun(runner *Runner, confirm *safety.ConfirmationTracker) tools.Registration {
	tool := mcp.NewTool(toolRun,
		mcp.WithDescription("Run catalog migrations in the given order, stopping at the first failure. "+
			"Migrations that change the catalog require confirmation."),
		mcp.WithString("names", mcp.Required(), mcp.Description("Comma-separated migration names, see migration_list")),
		mcp.WithString(tools.ConfirmationTokenParam, mcp.Description("Token from a previous confirmation prompt")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		audit := runner.Env.Audit
		names := splitNames(req.GetString("names", ""))
		resource := strings.Join(names, ",")
		params := map[string]any{"names": names}

		if len(names) == 0 {
			tools.LogAudit(audit, toolRun, resource, params, "error: names is required", start)
			return tools.ErrorResult("names is required"), nil
		}
		readOnly := true
		for _, n := range names {
			m, ok := Lookup(n)
			if !ok {
				tools.LogAudit(audit, toolRun, resource, params, "error: unknown migration "+n, start)
				return tools.ErrorResult(fmt.Sprintf("unknown migration %q", n)), nil
			}
			readOnly = readOnly && m.ReadOnly
		}

		if !readOnly {
			desc := fmt.Sprintf("This applies %d migration(s) to the catalog: %s.", len(names), resource)
			if prompt := tools.RequireConfirmation(confirm, req, toolRun, resource, desc); prompt != nil {
				tools.LogAudit(audit, toolRun, resource, params, "confirmation requested", start)
				return prompt, nil
			}
		}

		results, err := runner.Run(ctx, names...)
		if err != nil {
			tools.LogAudit(audit, toolRun, resource, params, "error: "+err.Error(), start)
			return tools.JSONResult(struct {
				Error   string    `json:"error"`
				Results []*Result `json:"results"`
			}{Error: err.Error(), Results: results}), nil
		}

		tools.LogAudit(audit, toolRun, resource, params, fmt.Sprintf("ok: %d migration(s)", len(results)), start)
		return tools.JSONResult(results), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
