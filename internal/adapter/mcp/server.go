// Package mcp exposes dashboard status tools to the agent over the
// Model Context Protocol, so the agent itself can announce what it is
// working on.
package mcp

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/agentpulse/agentpulse/internal/domain/dashboard"
)

// StateReader yields the current state snapshot.
type StateReader interface {
	Snapshot() *dashboard.AgentState
}

// Announcer sets the dashboard's free-form status line.
type Announcer interface {
	Announce(ctx context.Context, status string)
}

// ServerConfig holds MCP server configuration.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
	APIKey  string // optional bearer token; empty disables auth
}

// ServerDeps holds the server's service dependencies.
type ServerDeps struct {
	State     StateReader
	Announcer Announcer
	Observers func() int // connected observer count, optional
}

// Server serves the status tools over streamable HTTP.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer
	httpSrv   *http.Server
}

// NewServer creates the MCP server and registers its tools.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server, mainly for tests.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Start begins serving on the configured address.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	handler := AuthMiddleware(s.cfg.APIKey, mcpserver.NewStreamableHTTPServer(s.mcpServer))
	s.httpSrv = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("mcp server failed", "error", err)
		}
	}()

	slog.Info("mcp server listening", "addr", ln.Addr().String())
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
