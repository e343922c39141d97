package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mbocsi/kkstudio-mcp/client"
	"github.com/mbocsi/kkstudio-mcp/proto"
)

// DefaultScreenshotTimeout bounds a screenshot exchange; rendering on the
// peer takes far longer than any other command.
const DefaultScreenshotTimeout = 30 * time.Second

// Tools turns MCP tool calls into studio commands. Every handler reports
// failures as an error result; none returns a Go error to the MCP server.
type Tools struct {
	client client.Requester

	// Timeout applies to every command except screenshots. Zero selects the
	// client default.
	Timeout           time.Duration
	ScreenshotTimeout time.Duration
}

func NewTools(c client.Requester) *Tools {
	return &Tools{client: c, ScreenshotTimeout: DefaultScreenshotTimeout}
}

// RegisterTools registers the full tool set backed by c with default
// timeouts.
func RegisterTools(s *MCPServer, c client.Requester) *Tools {
	t := NewTools(c)
	t.Register(s)
	return t
}

func (t *Tools) Register(s *MCPServer) {
	t.registerStudioTools(s)
	t.registerHierarchyTools(s)
	t.registerCameraTools(s)
	t.registerCatalogTools(s)
	t.registerScreenshotTools(s)
}

// do runs one exchange and returns a rendered failure, or nil when the peer
// answered with success.
func (t *Tools) do(ctx context.Context, action string, cmd proto.Command, out proto.Reply, timeout time.Duration) *mcp.CallToolResult {
	if timeout <= 0 {
		timeout = t.Timeout
	}
	if err := t.client.Send(ctx, cmd, client.Into(out), timeout); err != nil {
		slog.Warn("Tool exchange failed", "command", cmd.CommandType(), "action", action, "code", client.CodeOf(err), "error", err)
		return failure(action, err)
	}
	if status := out.Status(); !status.IsSuccess() {
		return failure(action, status.MessageOr("Unknown error"))
	}
	return nil
}

func failure(action string, reason any) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("❌ Failed to %s: %v", action, reason))
}

func success(format string, a ...any) *mcp.CallToolResult {
	return mcp.NewToolResultText(fmt.Sprintf(format, a...))
}
