package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mbocsi/kkstudio-mcp/client"
	"github.com/mbocsi/kkstudio-mcp/config"
	"github.com/mbocsi/kkstudio-mcp/logging"
	"github.com/mbocsi/kkstudio-mcp/mcp"
)

type App struct {
	Client    *client.Client
	MCPServer mcp.Server
}

func NewApp(c *client.Client, mcpServer mcp.Server) *App {
	return &App{Client: c, MCPServer: mcpServer}
}

// Start serves MCP until ctx is done or the host closes stdin, then closes
// the studio connection.
func (a *App) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- a.MCPServer.Run(ctx) }()

	var err error
	select {
	case <-ctx.Done():
		slog.Info("Shutting down MCP server and studio client")
	case err = <-errCh:
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			err = nil
		}
		slog.Info("MCP server stopped", "error", err)
	}

	if cerr := a.Client.Close(); cerr != nil {
		slog.Warn("Failed to close studio client", "error", cerr)
	}
	return err
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, logCloser, err := logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	studio := client.NewClient(cfg.URL)
	studio.SetLogger(logger)
	studio.SetDefaultTimeout(cfg.Timeout)

	mcpServer := mcp.NewMCPServer()
	tools := mcp.NewTools(studio)
	tools.ScreenshotTimeout = cfg.ScreenshotTimeout
	tools.Register(mcpServer)

	slog.Info("Starting kkstudio-mcp", "peer", cfg.URL, "timeout", cfg.Timeout, "screenshot_timeout", cfg.ScreenshotTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp(studio, mcpServer)
	if err := app.Start(ctx); err != nil {
		slog.Error("MCP server failed", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
}
