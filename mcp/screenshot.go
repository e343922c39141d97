package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mbocsi/kkstudio-mcp/proto"
)

func (t *Tools) registerScreenshotTools(s *MCPServer) {
	s.AddTool(mcp.NewTool("screenshot",
		mcp.WithDescription("Capture the current Studio view as a PNG image"),
		mcp.WithNumber("width", mcp.Description("Image width in pixels (default: 854)"), mcp.Min(1)),
		mcp.WithNumber("height", mcp.Description("Image height in pixels (default: 480)"), mcp.Min(1)),
		mcp.WithBoolean("transparency", mcp.Description("Include alpha channel for transparency (default: false)")),
		mcp.WithBoolean("mark", mcp.Description("Include capture mark overlay (default: true)")),
	), t.handleScreenshot)
}

func (t *Tools) handleScreenshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "take screenshot"
	a := argsOf(request)

	cmd := proto.NewScreenshot()
	var err error
	if cmd.Width, err = a.optInt("width"); err != nil {
		return failure(action, err), nil
	}
	if cmd.Height, err = a.optInt("height"); err != nil {
		return failure(action, err), nil
	}
	if err := positive("width", cmd.Width); err != nil {
		return failure(action, err), nil
	}
	if err := positive("height", cmd.Height); err != nil {
		return failure(action, err), nil
	}
	if cmd.Transparency, err = a.optBool("transparency"); err != nil {
		return failure(action, err), nil
	}
	if cmd.Mark, err = a.optBool("mark"); err != nil {
		return failure(action, err), nil
	}

	var resp proto.ScreenshotResponse
	if res := t.do(ctx, action, cmd, &resp, t.ScreenshotTimeout); res != nil {
		return res, nil
	}
	if resp.Data == nil || resp.Data.Image == "" {
		return success("✅ Screenshot taken successfully! %s", resp.Message), nil
	}

	data := resp.Data
	format := strings.ToLower(data.Format)
	if format == "" {
		format = "png"
	}
	return mcp.NewToolResultImage(screenshotSummary(data, format), data.Image, "image/"+format), nil
}

func positive(name string, v *int) error {
	if v != nil && *v <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, *v)
	}
	return nil
}

func screenshotSummary(d *proto.ScreenshotData, format string) string {
	size := d.Size
	if size < 0 {
		size = 0
	}

	var b strings.Builder
	b.WriteString("📸 Screenshot captured successfully!\n")
	fmt.Fprintf(&b, "   📏 Size: %d x %d pixels\n", d.Width, d.Height)
	fmt.Fprintf(&b, "   📁 Format: %s\n", strings.ToUpper(format))
	fmt.Fprintf(&b, "   💾 File Size: %s\n", humanize.IBytes(uint64(size)))
	fmt.Fprintf(&b, "   🌈 Transparency: %s\n", yesNo(d.Transparency))
	fmt.Fprintf(&b, "   🖼️ Base64 Image Data: %d characters", len(d.Image))
	return b.String()
}
