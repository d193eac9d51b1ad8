// Package tools provides shared helper utilities for MCP tool handlers.
package tools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jamesprial/catalog-admin/internal/safety"
)

// ConfirmationTokenParam is the argument name destructive tools accept.
const ConfirmationTokenParam = "confirmation_token"

// JSONResult marshals v to indented JSON and returns an mcp.CallToolResult.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error marshaling result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// ErrorResult returns an mcp.CallToolResult that describes an error condition.
func ErrorResult(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultText(fmt.Sprintf("error: %s", msg))
}

// LogAudit records a tool invocation. target is the slug or name the tool
// acted on and may be empty. A nil logger is ignored.
func LogAudit(audit *safety.AuditLogger, toolName, target string, params map[string]any, result string, start time.Time) {
	if audit == nil {
		return
	}
	_ = audit.Log(safety.AuditEntry{
		Timestamp: start,
		Operation: toolName,
		Target:    target,
		Params:    params,
		Result:    result,
		Duration:  time.Since(start),
	})
}

// ConfirmPrompt issues a confirmation request and returns the prompt result.
func ConfirmPrompt(confirm *safety.ConfirmationTracker, toolName, resource, description string) *mcp.CallToolResult {
	token := confirm.RequestConfirmation(toolName, resource, description)
	return mcp.NewToolResultText(fmt.Sprintf(
		"Confirmation required for %s on %q.\n\n%s\n\nTo proceed, call %s again with %s=%q.",
		toolName, resource, description, toolName, ConfirmationTokenParam, token,
	))
}

// RequireConfirmation returns a prompt result when toolName is destructive
// and req carries no valid token for resource. A nil return means the caller
// may proceed.
func RequireConfirmation(confirm *safety.ConfirmationTracker, req mcp.CallToolRequest, toolName, resource, description string) *mcp.CallToolResult {
	if confirm == nil || !confirm.NeedsConfirmation(toolName) {
		return nil
	}
	token := req.GetString(ConfirmationTokenParam, "")
	if confirm.Confirm(token, toolName, resource) {
		return nil
	}
	return ConfirmPrompt(confirm, toolName, resource, description)
}
