package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates an MCP server exposing shtym's transformation as a
// tool and the loaded profiles as a resource.
func NewMCPServer(deps Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"shtym",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("shtym — rewrites captured command output through named transformation profiles."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("transform_output",
			mcp.WithDescription("Rewrite captured command output through a shtym profile. Degrades to pass-through when the profile or its backend is unavailable."),
			mcp.WithString("command", mcp.Description("The command line whose output is being transformed"), mcp.Required()),
			mcp.WithString("stdout", mcp.Description("Captured standard output"), mcp.Required()),
			mcp.WithString("stderr", mcp.Description("Captured standard error")),
			mcp.WithString("profile", mcp.Description("Profile name; empty selects the default chain")),
		),
		mcpTransform(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"shtym://profiles",
			"Transformation Profiles",
			mcp.WithResourceDescription("Loaded output-transformation profiles as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfiles(deps),
	)

	return s
}

func mcpTransform(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		commandLine, err := req.RequireString("command")
		if err != nil {
			return mcpError("command is required"), nil
		}
		stdout, err := req.RequireString("stdout")
		if err != nil {
			return mcpError("stdout is required"), nil
		}
		stderr := req.GetString("stderr", "")
		profileName := req.GetString("profile", "")

		res, err := deps.Resolver.Resolve(ctx, profileName)
		if err != nil {
			return mcpError(fmt.Sprintf("resolving transformer: %v", err)), nil
		}

		output, err := res.Transformer.Transform(ctx, strings.Fields(commandLine), stdout, stderr)
		if err != nil {
			return mcpError(fmt.Sprintf("transform failed: %v", err)), nil
		}
		return mcpText(output), nil
	}
}

func mcpResourceProfiles(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		names := deps.Profiles.Names()
		infos := make([]profileInfo, 0, len(names))
		for _, name := range names {
			p, err := deps.Profiles.Get(name)
			if err != nil {
				continue
			}
			infos = append(infos, profileInfo{
				Name:          p.Name,
				Kind:          string(p.Kind),
				SchemaVersion: p.SchemaVersion,
				ModelName:     p.ModelName,
				ServerURL:     p.ServerURL,
			})
		}

		b, err := json.Marshal(infos)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profiles: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
