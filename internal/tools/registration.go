// Package tools holds the pieces every catalog tool family shares: the
// registration type, result helpers and the confirmation prompt.
package tools

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Registration pairs an MCP tool definition with its handler function.
type Registration struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}

// Names returns the sorted tool names of regs.
func Names(regs []Registration) []string {
	names := make([]string, 0, len(regs))
	for _, r := range regs {
		names = append(names, r.Tool.Name)
	}
	sort.Strings(names)
	return names
}

// RegisterAll adds regs to s. Tool names must be unique across families;
// on a repeated name nothing is added.
func RegisterAll(s *server.MCPServer, regs []Registration) error {
	seen := make(map[string]struct{}, len(regs))
	for _, r := range regs {
		if r.Tool.Name == "" {
			return errors.New("tool registration without a name")
		}
		if _, dup := seen[r.Tool.Name]; dup {
			return fmt.Errorf("tool %q registered twice", r.Tool.Name)
		}
		seen[r.Tool.Name] = struct{}{}
	}
	for _, r := range regs {
		s.AddTool(r.Tool, r.Handler)
	}
	return nil
}
