package integration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mbocsi/kkstudio-mcp/client"
	"github.com/mbocsi/kkstudio-mcp/mcp"
)

func getRandomPort(t *testing.T) int {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to get port: %v", err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}

// newQuietClient creates a studio client whose exchange logs are discarded.
func newQuietClient(t *testing.T, addr string) *client.Client {
	c := client.NewClient(addr)
	c.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { c.Close() })
	return c
}

// newBridge wires an MCP server to a studio client the way main does.
func newBridge(c client.Requester) *mcp.MCPServer {
	s := mcp.NewMCPServer()
	mcp.RegisterTools(s, c)
	return s
}

type toolContent struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

type toolResult struct {
	Content []toolContent `json:"content"`
	IsError bool          `json:"isError"`
}

func (r toolResult) text() string {
	var parts []string
	for _, c := range r.Content {
		if c.Type == "text" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func (r toolResult) image() *toolContent {
	for i, c := range r.Content {
		if c.Type == "image" {
			return &r.Content[i]
		}
	}
	return nil
}

var requestID atomic.Int64

// callTool sends a tools/call request through the MCP server's JSON-RPC
// entry point and decodes the tool result.
func callTool(t *testing.T, s *mcp.MCPServer, name string, args map[string]any) toolResult {
	t.Helper()

	req, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      requestID.Add(1),
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	if err != nil {
		t.Fatalf("Failed to encode request: %v", err)
	}

	data, err := json.Marshal(s.Server.HandleMessage(context.Background(), req))
	if err != nil {
		t.Fatalf("Failed to encode response: %v", err)
	}

	var envelope struct {
		Result *toolResult `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("Failed to decode response %s: %v", data, err)
	}
	if envelope.Result == nil {
		t.Fatalf("Expected a tool result for %s, got %s", name, data)
	}
	return *envelope.Result
}
