package media

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jamesprial/catalog-admin/internal/safety"
	"github.com/jamesprial/catalog-admin/internal/tools"
)

// Tools returns the media MCP tools.
func Tools(a *Attacher, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{toolAttach(a, audit)}
}

func toolAttach(a *Attacher, audit *safety.AuditLogger) tools.Registration {
	const toolName = "media_attach"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Download an image and attach it to a product. Products that already have media are skipped."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Product slug")),
		mcp.WithString("url", mcp.Required(), mcp.Description("Image URL")),
		mcp.WithString("alt", mcp.Description("Alt text (default: \"Image for <slug>\")")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		target := Target{
			Slug: req.GetString("slug", ""),
			URL:  req.GetString("url", ""),
			Alt:  req.GetString("alt", ""),
		}
		params := map[string]any{"url": target.URL}

		if target.Slug == "" || target.URL == "" {
			tools.LogAudit(audit, toolName, target.Slug, params, "error: slug and url are required", start)
			return tools.ErrorResult("slug and url are required"), nil
		}

		report, err := a.Attach(ctx, []Target{target})
		if err != nil {
			tools.LogAudit(audit, toolName, target.Slug, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		res := report.Results[0]
		tools.LogAudit(audit, toolName, target.Slug, params, fmt.Sprintf("ok: %s", res.Status), start)
		return tools.JSONResult(res), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
