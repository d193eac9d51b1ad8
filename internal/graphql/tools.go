package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jamesprial/catalog-admin/internal/safety"
	"github.com/jamesprial/catalog-admin/internal/tools"
)

const toolNameGraphQLQuery = "graphql_query"

// DestructiveTools lists tools in this package that require confirmation.
// graphql_query only prompts when the document is a mutation.
var DestructiveTools = []string{toolNameGraphQLQuery}

// GraphQLTools returns the graphql_query escape hatch for operations the
// catalog tools do not cover.
func GraphQLTools(client Client, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolGraphQLQuery(client, confirm, audit),
	}
}

func toolGraphQLQuery(client Client, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameGraphQLQuery,
		mcp.WithDescription("Execute a raw GraphQL document against the catalog backend. Mutations require confirmation."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The GraphQL query or mutation document."),
		),
		mcp.WithString("variables",
			mcp.Description("Optional JSON object of variables."),
		),
		mcp.WithString(tools.ConfirmationTokenParam,
			mcp.Description("Confirmation token returned by a prior call to this tool"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		query := req.GetString("query", "")
		variablesStr := req.GetString("variables", "")
		params := map[string]any{
			"query":     query,
			"variables": variablesStr,
		}

		if strings.TrimSpace(query) == "" {
			return tools.ErrorResult("query is required"), nil
		}

		var parsedVars map[string]any
		if variablesStr != "" {
			if err := json.Unmarshal([]byte(variablesStr), &parsedVars); err != nil {
				errMsg := fmt.Sprintf("parse variables JSON: %v", err)
				tools.LogAudit(audit, toolNameGraphQLQuery, "", params, "error: "+errMsg, start)
				return tools.ErrorResult(errMsg), nil
			}
		}

		if isMutation(query) {
			if prompt := tools.RequireConfirmation(confirm, req, toolNameGraphQLQuery, "mutation",
				"This sends a raw mutation to the catalog backend."); prompt != nil {
				return prompt, nil
			}
		}

		data, err := client.Execute(ctx, query, parsedVars)
		if err != nil {
			var respErr *ResponseError
			if errors.As(err, &respErr) && len(respErr.Data) > 0 && string(respErr.Data) != "null" {
				tools.LogAudit(audit, toolNameGraphQLQuery, "", params, "partial: "+err.Error(), start)
				return tools.JSONResult(map[string]any{
					"data":   respErr.Data,
					"errors": respErr.Errors,
				}), nil
			}
			tools.LogAudit(audit, toolNameGraphQLQuery, "", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		var parsed any
		if err := json.Unmarshal(data, &parsed); err != nil {
			tools.LogAudit(audit, toolNameGraphQLQuery, "", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolNameGraphQLQuery, "", params, "ok", start)
		return tools.JSONResult(parsed), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// isMutation reports whether doc defines a mutation operation anywhere.
// A document that does not parse is treated as a mutation so it cannot
// slip past confirmation.
func isMutation(doc string) bool {
	if strings.TrimSpace(doc) == "" {
		return false
	}
	parsed, err := parser.Parse(parser.ParseParams{Source: doc})
	if err != nil {
		return true
	}
	for _, def := range parsed.Definitions {
		if op, ok := def.(*ast.OperationDefinition); ok && op.Operation == ast.OperationTypeMutation {
			return true
		}
	}
	return false
}
