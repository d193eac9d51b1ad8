package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jamesprial/catalog-admin/internal/safety"
	"github.com/jamesprial/catalog-admin/internal/tools"
)

// CatalogTools returns the read-only catalog inspection tools.
func CatalogTools(repo Repository, defaultChannel string, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolProductGet(repo, defaultChannel, audit),
		toolProductsList(repo, defaultChannel, audit),
		toolAttributeGet(repo, audit),
	}
}

func toolProductGet(repo ProductRepository, defaultChannel string, audit *safety.AuditLogger) tools.Registration {
	const toolName = "catalog_product_get"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Get a product by slug with its attributes, metadata, media and variants."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Product slug")),
		mcp.WithString("channel", mcp.Description("Channel slug (default: configured channel)")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		slug := req.GetString("slug", "")
		channel := req.GetString("channel", defaultChannel)
		params := map[string]any{"channel": channel}

		if slug == "" {
			tools.LogAudit(audit, toolName, slug, params, "error: slug is required", start)
			return tools.ErrorResult("slug is required"), nil
		}

		p, err := repo.ProductBySlug(ctx, slug, channel)
		if err != nil {
			tools.LogAudit(audit, toolName, slug, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}
		if p == nil {
			tools.LogAudit(audit, toolName, slug, params, "ok: not found", start)
			return mcp.NewToolResultText(fmt.Sprintf("Product %q not found.", slug)), nil
		}

		tools.LogAudit(audit, toolName, slug, params, "ok", start)
		return tools.JSONResult(p), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolProductsList(repo ProductRepository, defaultChannel string, audit *safety.AuditLogger) tools.Registration {
	const toolName = "catalog_products_list"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("List one page of products. Pass the returned end_cursor as 'after' to continue."),
		mcp.WithNumber("first", mcp.Description("Page size (default: 100)")),
		mcp.WithString("after", mcp.Description("Cursor of the previous page")),
		mcp.WithString("search", mcp.Description("Full-text product search")),
		mcp.WithString("channel", mcp.Description("Channel slug (default: configured channel)")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		page := PageRequest{
			First:   req.GetInt("first", defaultPageSize),
			After:   req.GetString("after", ""),
			Search:  req.GetString("search", ""),
			Channel: req.GetString("channel", defaultChannel),
		}
		params := map[string]any{"first": page.First, "after": page.After, "search": page.Search, "channel": page.Channel}

		res, err := repo.ProductsPage(ctx, page)
		if err != nil {
			tools.LogAudit(audit, toolName, "", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		type summary struct {
			ID       string `json:"id"`
			Slug     string `json:"slug"`
			Name     string `json:"name"`
			Category string `json:"category,omitempty"`
			Type     string `json:"product_type,omitempty"`
		}
		out := struct {
			Products    []summary `json:"products"`
			HasNextPage bool      `json:"has_next_page"`
			EndCursor   string    `json:"end_cursor,omitempty"`
		}{Products: make([]summary, 0, len(res.Products)), HasNextPage: res.HasNextPage, EndCursor: res.EndCursor}
		for _, p := range res.Products {
			s := summary{ID: p.ID, Slug: p.Slug, Name: p.Name}
			if p.Category != nil {
				s.Category = p.Category.Slug
			}
			if p.ProductType != nil {
				s.Type = p.ProductType.Name
			}
			out.Products = append(out.Products, s)
		}

		tools.LogAudit(audit, toolName, "", params, fmt.Sprintf("ok: %d products", len(out.Products)), start)
		return tools.JSONResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolAttributeGet(repo AttributeRepository, audit *safety.AuditLogger) tools.Registration {
	const toolName = "catalog_attribute_get"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Get an attribute and all of its choice values by slug, or search attributes by name."),
		mcp.WithString("slug", mcp.Description("Attribute slug")),
		mcp.WithString("search", mcp.Description("Name search, used when slug is empty")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		slug := req.GetString("slug", "")
		search := req.GetString("search", "")
		params := map[string]any{"search": search}

		switch {
		case slug != "":
			a, err := repo.AttributeBySlug(ctx, slug)
			if err != nil {
				tools.LogAudit(audit, toolName, slug, params, "error: "+err.Error(), start)
				return tools.ErrorResult(err.Error()), nil
			}
			if a == nil {
				tools.LogAudit(audit, toolName, slug, params, "ok: not found", start)
				return mcp.NewToolResultText(fmt.Sprintf("Attribute %q not found.", slug)), nil
			}
			tools.LogAudit(audit, toolName, slug, params, "ok", start)
			return tools.JSONResult(a), nil
		case search != "":
			attrs, err := repo.SearchAttributes(ctx, search, defaultPageSize)
			if err != nil {
				tools.LogAudit(audit, toolName, "", params, "error: "+err.Error(), start)
				return tools.ErrorResult(err.Error()), nil
			}
			tools.LogAudit(audit, toolName, "", params, fmt.Sprintf("ok: %d attributes", len(attrs)), start)
			return tools.JSONResult(attrs), nil
		default:
			tools.LogAudit(audit, toolName, "", params, "error: slug or search is required", start)
			return tools.ErrorResult("slug or search is required"), nil
		}
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
