package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/docsmithlabs/docsmith/internal/service"
)

const (
	// ServerName is the MCP server name
	ServerName = "docsmith"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	service *service.Service
}

// NewServer creates a new MCP server instance over an assembled pipeline
func NewServer(svc *service.Service) (*Server, error) {
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:     mcpServer,
		service: svc,
	}

	s.registerTools()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.service.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(prepareSourceTool(), s.handlePrepareSource)
	s.mcp.AddTool(summarizeSourceTool(), s.handleSummarizeSource)
	s.mcp.AddTool(getSessionTool(), s.handleGetSession)
	s.mcp.AddTool(cleanupSessionTool(), s.handleCleanupSession)
}
