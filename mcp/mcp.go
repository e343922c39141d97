package mcp

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ServerName    = "kkstudio-mcp"
	ServerVersion = "1.0.0"
)

type Server interface {
	Run(ctx context.Context) error
}

type MCPServer struct {
	Server *server.MCPServer
}

func NewMCPServer() *MCPServer {
	return &MCPServer{Server: server.NewMCPServer(ServerName, ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)}
}

func (s *MCPServer) AddTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.Server.AddTool(tool, handler)
}

// Run serves MCP over stdin/stdout until ctx is done or stdin closes.
// Stdout carries the protocol, so nothing else may write to it.
func (s *MCPServer) Run(ctx context.Context) error {
	stdio := server.NewStdioServer(s.Server)
	stdio.SetErrorLogger(log.New(os.Stderr, "mcp: ", log.LstdFlags))

	slog.Info("Started stdio MCP server", "name", ServerName, "version", ServerVersion)
	defer func() {
		slog.Info("Shut down stdio MCP server")
	}()
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
