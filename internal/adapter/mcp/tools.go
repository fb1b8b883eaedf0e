package mcp

import (
	"context"
	"encoding/json"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.setStatusTool(),
		s.getStatusTool(),
	)
}

func (s *Server) setStatusTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("set_status",
		mcplib.WithDescription("Set a human-readable status line on the dashboard. "+
			"Use this to tell observers what you are currently working on."),
		mcplib.WithString("status",
			mcplib.Required(),
			mcplib.Description("A short description of what you are doing, e.g. 'Reviewing auth module'"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleSetStatus,
	}
}

func (s *Server) getStatusTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_status",
		mcplib.WithDescription("Get the dashboard's current view of the agent: status, turn count, active tool and status line"),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleGetStatus,
	}
}

func (s *Server) handleSetStatus(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Announcer == nil {
		return mcplib.NewToolResultError("announcer not configured"), nil
	}
	args := req.GetArguments()
	status, _ := args["status"].(string)
	if strings.TrimSpace(status) == "" {
		return mcplib.NewToolResultError("status is required"), nil
	}

	s.deps.Announcer.Announce(ctx, status)
	return mcplib.NewToolResultText("Dashboard status updated: " + status), nil
}

func (s *Server) handleGetStatus(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.State == nil {
		return mcplib.NewToolResultError("state reader not configured"), nil
	}

	snap := s.deps.State.Snapshot()
	summary := map[string]any{
		"status":       snap.Status,
		"turn_count":   snap.TurnCount,
		"active_tool":  snap.ActiveTool,
		"status_line":  snap.CustomStatus,
		"session_open": snap.SessionStartedAt != nil,
	}
	if s.deps.Observers != nil {
		summary["observers"] = s.deps.Observers()
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal status", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}
