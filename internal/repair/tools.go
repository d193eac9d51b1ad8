package repair

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/jamesprial/catalog-admin/internal/catalog"
	"github.com/jamesprial/catalog-admin/internal/logging"
	"github.com/jamesprial/catalog-admin/internal/safety"
	"github.com/jamesprial/catalog-admin/internal/tools"
)

// ToolName is the repair tool name.
const ToolName = "repair_attribute_values"

// DestructiveTools lists the tools of this package that need confirmation.
var DestructiveTools = []string{ToolName}

// Tools returns the repair MCP tools. defaults supplies the channel, page
// size, filter and audit logger; per-call arguments override page settings.
func Tools(repo catalog.Repository, defaults Options, confirm *safety.ConfirmationTracker) []tools.Registration {
	return []tools.Registration{toolRepair(repo, defaults, confirm)}
}

func toolRepair(repo catalog.Repository, defaults Options, confirm *safety.ConfirmationTracker) tools.Registration {
	tool := mcp.NewTool(ToolName,
		mcp.WithDescription("Rewrite products that reference bad attribute values and delete the bad values once unreferenced. "+
			"Deletion only happens after a complete scan and a verification rescan. Requires confirmation unless dry_run is set."),
		mcp.WithString("attribute", mcp.Required(), mcp.Description("Attribute slug or id")),
		mcp.WithString("replace", mcp.Required(), mcp.Description("Comma-separated BAD=CORRECT pairs; BAD1|BAD2=CORRECT shares a target; CORRECT may be name:<value name>")),
		mcp.WithNumber("page_size", mcp.Description("Products per page (default: configured page size)")),
		mcp.WithNumber("max_pages", mcp.Description("Stop scanning after this many pages; 0 scans everything")),
		mcp.WithBoolean("dry_run", mcp.Description("Report matches without changing anything")),
		mcp.WithBoolean("overwrite_values", mcp.Description("Replace the whole value list instead of keeping unrelated values")),
		mcp.WithString(tools.ConfirmationTokenParam, mcp.Description("Token from a previous confirmation prompt")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		attribute := req.GetString("attribute", "")
		replace := req.GetString("replace", "")
		opts := defaults
		opts.PageSize = req.GetInt("page_size", defaults.PageSize)
		opts.MaxPages = req.GetInt("max_pages", defaults.MaxPages)
		opts.DryRun = req.GetBool("dry_run", false)
		params := map[string]any{
			"replace":   replace,
			"page_size": opts.PageSize,
			"max_pages": opts.MaxPages,
			"dry_run":   opts.DryRun,
		}

		if attribute == "" {
			tools.LogAudit(opts.Audit, ToolName, attribute, params, "error: attribute is required", start)
			return tools.ErrorResult("attribute is required"), nil
		}
		rules, err := ParseReplacements(replace)
		if err != nil {
			tools.LogAudit(opts.Audit, ToolName, attribute, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		if !opts.DryRun {
			desc := fmt.Sprintf("This rewrites every product holding %d bad value(s) of %q and then deletes those values.", countBad(rules), attribute)
			if prompt := tools.RequireConfirmation(confirm, req, ToolName, attribute, desc); prompt != nil {
				tools.LogAudit(opts.Audit, ToolName, attribute, params, "confirmation requested", start)
				return prompt, nil
			}
		}

		plan := Plan{
			Attribute:       attribute,
			Rules:           rules,
			OverwriteValues: req.GetBool("overwrite_values", false),
		}
		report, err := Run(ctx, repo, plan, opts)
		if err != nil {
			logging.OrNop(opts.Logger).Warn("repair failed", zap.String("attribute", attribute), zap.Error(err))
			tools.LogAudit(opts.Audit, ToolName, attribute, params, "error: "+err.Error(), start)
			return tools.JSONResult(struct {
				Error  string  `json:"error"`
				Kind   string  `json:"kind,omitempty"`
				Report *Report `json:"report"`
			}{Error: err.Error(), Kind: errorKind(err), Report: report}), nil
		}

		tools.LogAudit(opts.Audit, ToolName, attribute, params,
			fmt.Sprintf("ok: %d updated, %d deleted", len(report.Updated), len(report.Deleted)), start)
		return tools.JSONResult(report), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func countBad(rules []Rule) int {
	n := 0
	for _, r := range rules {
		n += len(r.Bad)
	}
	return n
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrIncompleteScan):
		return "incomplete_scan"
	case errors.Is(err, ErrDanglingReferences):
		return "dangling_references"
	}
	return ""
}
