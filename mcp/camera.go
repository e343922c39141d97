package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mbocsi/kkstudio-mcp/proto"
)

// defaultFov is reported when the peer leaves the field of view out.
const defaultFov = 35.0

func (t *Tools) registerCameraTools(s *MCPServer) {
	numberItem := map[string]any{"type": "number"}

	s.AddTool(mcp.NewTool("camera_setview",
		mcp.WithDescription("Set the camera position, rotation, and field of view"),
		mcp.WithArray("position", mcp.Description("Camera position [X, Y, Z] (optional)"), mcp.Items(numberItem)),
		mcp.WithArray("rotation", mcp.Description("Camera rotation [pitch, yaw, roll] in degrees (optional)"), mcp.Items(numberItem)),
		mcp.WithNumber("fov", mcp.Description("Field of view in degrees (optional)"), mcp.Min(1), mcp.Max(179)),
	), t.handleCameraSetView)

	s.AddTool(mcp.NewTool("camera_switch",
		mcp.WithDescription("Switch the viewport to a specific camera object"),
		mcp.WithNumber("cameraId", mcp.Required(), mcp.Description("ID of the camera object to switch to")),
	), t.handleCameraSwitch)

	s.AddTool(mcp.NewTool("camera_free",
		mcp.WithDescription("Return to free camera mode (default)"),
	), t.handleCameraFree)

	s.AddTool(mcp.NewTool("camera_getview",
		mcp.WithDescription("Retrieve current camera information"),
	), t.handleCameraGetView)
}

func (t *Tools) handleCameraSetView(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "set camera view"
	a := argsOf(request)

	cmd := proto.NewCamera(proto.CameraSetView)
	var err error
	if cmd.Pos, err = a.vector("position", proto.Vec3Len); err != nil {
		return failure(action, err), nil
	}
	if cmd.Rot, err = a.vector("rotation", proto.Vec3Len); err != nil {
		return failure(action, err), nil
	}
	if cmd.Fov, err = a.optFloat("fov"); err != nil {
		return failure(action, err), nil
	}
	if err := proto.ValidateRange("fov", cmd.Fov, 1, 179); err != nil {
		return failure(action, err), nil
	}

	var resp proto.Response
	if res := t.do(ctx, action, cmd, &resp, 0); res != nil {
		return res, nil
	}
	return success("✅ Camera view updated successfully! %s", resp.Message), nil
}

func (t *Tools) handleCameraSwitch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "switch camera"

	cameraID, err := argsOf(request).integer("cameraId")
	if err != nil {
		return failure(action, err), nil
	}
	cmd := proto.NewCamera(proto.CameraSwitch)
	cmd.CameraID = &cameraID

	var resp proto.Response
	if res := t.do(ctx, action, cmd, &resp, 0); res != nil {
		return res, nil
	}
	return success("✅ Switched to camera successfully! %s", resp.Message), nil
}

func (t *Tools) handleCameraFree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp proto.Response
	if res := t.do(ctx, "switch to free camera", proto.NewCamera(proto.CameraFree), &resp, 0); res != nil {
		return res, nil
	}
	return success("✅ Switched to free camera mode! %s", resp.Message), nil
}

func (t *Tools) handleCameraGetView(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp proto.CameraViewResponse
	if res := t.do(ctx, "get camera view", proto.NewCamera(proto.CameraGetView), &resp, 0); res != nil {
		return res, nil
	}
	return mcp.NewToolResultText(formatCameraView(&resp)), nil
}

func formatCameraView(v *proto.CameraViewResponse) string {
	fov := defaultFov
	if v.Fov != nil {
		fov = *v.Fov
	}
	mode := v.Mode
	if mode == "" {
		mode = "unknown"
	}

	var b strings.Builder
	b.WriteString("📹 Current Camera Information:\n")
	fmt.Fprintf(&b, "   🎯 Position: %s\n", formatVec3(v.Pos))
	fmt.Fprintf(&b, "   🔄 Rotation: %s\n", formatVec3(v.Rot))
	fmt.Fprintf(&b, "   🔍 Field of View: %.1f°\n", fov)
	fmt.Fprintf(&b, "   📷 Mode: %s\n", mode)
	if v.ActiveCameraID != nil {
		fmt.Fprintf(&b, "   🎬 Active Camera ID: %d", *v.ActiveCameraID)
	} else {
		b.WriteString("   🎬 Active Camera: Free Camera")
	}
	return b.String()
}
