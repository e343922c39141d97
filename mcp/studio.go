package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mbocsi/kkstudio-mcp/client"
	"github.com/mbocsi/kkstudio-mcp/proto"
)

// Light types accepted by add_light.
const (
	LightDirectional = 0
	LightPoint       = 1
	LightSpot        = 2
)

func (t *Tools) registerStudioTools(s *MCPServer) {
	s.AddTool(mcp.NewTool("ping",
		mcp.WithDescription("Test connection to KKStudioSocket WebSocket server"),
		mcp.WithString("message",
			mcp.Description("Message to send with ping"),
			mcp.DefaultString("test"),
		),
	), t.handlePing)

	s.AddTool(mcp.NewTool("tree",
		mcp.WithDescription("Get the hierarchical structure of objects in the scene"),
		mcp.WithNumber("depth",
			mcp.Description("Maximum depth to retrieve (default: 1)"),
			mcp.DefaultNumber(1),
		),
		mcp.WithNumber("objectId",
			mcp.Description("Specific object ID to get subtree from (optional). If not specified, retrieves all root objects in the scene"),
		),
	), t.handleTree)

	s.AddTool(mcp.NewTool("delete",
		mcp.WithDescription("Delete an object from the scene"),
		mcp.WithNumber("objectId",
			mcp.Required(),
			mcp.Description("ID of the object to delete"),
		),
	), t.handleDelete)

	t.registerAddTools(s)
	t.registerUpdateTools(s)
}

func (t *Tools) registerAddTools(s *MCPServer) {
	parent := mcp.WithNumber("parentId",
		mcp.Description("ID of the object to parent the new object to (optional)"),
	)

	s.AddTool(mcp.NewTool("add_item",
		mcp.WithDescription("Add an item to the scene"),
		mcp.WithNumber("group", mcp.Required(), mcp.Description("Item group ID")),
		mcp.WithNumber("category", mcp.Required(), mcp.Description("Item category ID")),
		mcp.WithNumber("itemId", mcp.Required(), mcp.Description("Item ID within the category")),
		parent,
	), t.handleAddItem)

	s.AddTool(mcp.NewTool("add_light",
		mcp.WithDescription("Add a light to the scene"),
		mcp.WithNumber("lightId",
			mcp.Required(),
			mcp.Description("Light type ID (0=Directional, 1=Point, 2=Spot)"),
			mcp.Min(LightDirectional),
			mcp.Max(LightSpot),
		),
		parent,
	), t.handleAddLight)

	s.AddTool(mcp.NewTool("add_character",
		mcp.WithDescription("Add a character to the scene from a character card file"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the character card PNG, absolute or relative to the game's UserData/chara folder"),
		),
		mcp.WithString("sex",
			mcp.Required(),
			mcp.Description("Character sex"),
			mcp.Enum("female", "male"),
		),
		parent,
	), t.handleAddCharacter)

	s.AddTool(mcp.NewTool("add_folder",
		mcp.WithDescription("Add an empty folder object to group other objects"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Folder name")),
		parent,
	), t.handleAddFolder)

	s.AddTool(mcp.NewTool("add_camera",
		mcp.WithDescription("Add a camera object to the scene"),
		mcp.WithString("name", mcp.Description("Camera name (optional)")),
		parent,
	), t.handleAddCamera)
}

func (t *Tools) registerUpdateTools(s *MCPServer) {
	numberItem := map[string]any{"type": "number"}

	s.AddTool(mcp.NewTool("update_transform",
		mcp.WithDescription("Update position, rotation, or scale of an object"),
		mcp.WithNumber("objectId", mcp.Required(), mcp.Description("Object ID to update")),
		mcp.WithArray("position", mcp.Description("Position [X, Y, Z] (optional)"), mcp.Items(numberItem)),
		mcp.WithArray("rotation", mcp.Description("Rotation [X, Y, Z] in degrees (optional)"), mcp.Items(numberItem)),
		mcp.WithArray("scale", mcp.Description("Scale [X, Y, Z] (optional)"), mcp.Items(numberItem)),
	), t.handleUpdateTransform)

	s.AddTool(mcp.NewTool("update_color",
		mcp.WithDescription("Update the color of an item or light"),
		mcp.WithNumber("objectId", mcp.Required(), mcp.Description("Object ID to update")),
		mcp.WithArray("color",
			mcp.Required(),
			mcp.Description("Color [R, G, B, A] with components from 0 to 1"),
			mcp.Items(numberItem),
		),
		mcp.WithNumber("colorIndex", mcp.Description("Color slot of the item (optional, default 0)")),
		mcp.WithNumber("alpha", mcp.Description("Overall alpha from 0 to 1 (optional)"), mcp.Min(0), mcp.Max(1)),
	), t.handleUpdateColor)

	s.AddTool(mcp.NewTool("update_visibility",
		mcp.WithDescription("Show or hide an object"),
		mcp.WithNumber("objectId", mcp.Required(), mcp.Description("Object ID to update")),
		mcp.WithBoolean("visible", mcp.Required(), mcp.Description("Whether the object is visible")),
	), t.handleUpdateVisibility)

	s.AddTool(mcp.NewTool("update_light",
		mcp.WithDescription("Update light properties"),
		mcp.WithNumber("objectId", mcp.Required(), mcp.Description("Light object ID to update")),
		mcp.WithArray("color", mcp.Description("Light color [R, G, B, A] (optional)"), mcp.Items(numberItem)),
		mcp.WithNumber("intensity", mcp.Description("Intensity from 0.1 to 2.0 (optional)"), mcp.Min(0.1), mcp.Max(2)),
		mcp.WithNumber("range", mcp.Description("Range, point 0.1-100 or spot 0.5-100 (optional)"), mcp.Min(0.1), mcp.Max(100)),
		mcp.WithNumber("spotAngle", mcp.Description("Spot angle from 1 to 179 degrees (optional)"), mcp.Min(1), mcp.Max(179)),
		mcp.WithBoolean("enable", mcp.Description("Turn the light on or off (optional)")),
	), t.handleUpdateLight)
}

func (t *Tools) handlePing(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message := request.GetString("message", "test")

	var resp proto.PongResponse
	if err := t.client.Send(ctx, proto.NewPing(message, time.Now()), client.Into(&resp), t.Timeout); err != nil {
		return mcp.NewToolResultError("❌ Ping failed: " + err.Error()), nil
	}
	if resp.Type != proto.TypePong {
		return mcp.NewToolResultError("❌ Ping failed. Unexpected response: " + resp.Type), nil
	}
	return success("✅ Ping successful! Server responded with: %s", resp.Message), nil
}

func (t *Tools) handleTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "get scene tree"
	a := argsOf(request)

	depth := 1
	if a.has("depth") {
		d, err := a.integer("depth")
		if err != nil {
			return failure(action, err), nil
		}
		depth = d
	}
	id, err := a.optInt("objectId")
	if err != nil {
		return failure(action, err), nil
	}

	var resp proto.TreeResponse
	if err := t.client.Send(ctx, proto.NewTree(&depth, id), client.Into(&resp), t.Timeout); err != nil {
		return failure(action, err), nil
	}
	if resp.IsError() {
		return failure(action, resp.MessageOr("Unknown error")), nil
	}
	if len(resp.Data) == 0 {
		return mcp.NewToolResultText("📭 Scene is empty - no objects found"), nil
	}
	return mcp.NewToolResultText("🌲 Scene Tree:\n" + formatTree(resp.Data, 0)), nil
}

func (t *Tools) handleDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "delete object"
	id, err := argsOf(request).integer("objectId")
	if err != nil {
		return failure(action, err), nil
	}

	var resp proto.Response
	if res := t.do(ctx, action, proto.NewDelete(id), &resp, 0); res != nil {
		return res, nil
	}
	return success("✅ Object deleted successfully! %s", resp.Message), nil
}

func (t *Tools) handleAddItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "add item"
	a := argsOf(request)

	cmd := proto.NewAdd(proto.AddItem)
	var err error
	if cmd.Group, err = requiredInt(a, "group"); err != nil {
		return failure(action, err), nil
	}
	if cmd.Category, err = requiredInt(a, "category"); err != nil {
		return failure(action, err), nil
	}
	if cmd.ItemID, err = requiredInt(a, "itemId"); err != nil {
		return failure(action, err), nil
	}
	return t.add(ctx, action, "Item", a, cmd), nil
}

func (t *Tools) handleAddLight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "add light"
	a := argsOf(request)

	lightID, err := a.integer("lightId")
	if err != nil {
		return failure(action, err), nil
	}
	if lightID < LightDirectional || lightID > LightSpot {
		return failure(action, "lightId must be 0 (Directional), 1 (Point) or 2 (Spot)"), nil
	}

	cmd := proto.NewAdd(proto.AddLight)
	cmd.LightID = &lightID
	return t.add(ctx, action, "Light", a, cmd), nil
}

func (t *Tools) handleAddCharacter(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "add character"
	a := argsOf(request)

	path, err := a.str("path")
	if err != nil {
		return failure(action, err), nil
	}
	sex, err := a.str("sex")
	if err != nil {
		return failure(action, err), nil
	}
	if sex != "female" && sex != "male" {
		return failure(action, "sex must be \"female\" or \"male\""), nil
	}

	cmd := proto.NewAdd(proto.AddCharacter)
	cmd.Path = &path
	cmd.Sex = &sex
	return t.add(ctx, action, "Character", a, cmd), nil
}

func (t *Tools) handleAddFolder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "add folder"
	a := argsOf(request)

	name, err := a.str("name")
	if err != nil {
		return failure(action, err), nil
	}

	cmd := proto.NewAdd(proto.AddFolder)
	cmd.Name = &name
	return t.add(ctx, action, "Folder", a, cmd), nil
}

func (t *Tools) handleAddCamera(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "add camera"
	a := argsOf(request)

	cmd := proto.NewAdd(proto.AddCamera)
	var err error
	if cmd.Name, err = a.optStr("name"); err != nil {
		return failure(action, err), nil
	}
	return t.add(ctx, action, "Camera", a, cmd), nil
}

// add fills in the optional parent and sends an add command.
func (t *Tools) add(ctx context.Context, action, label string, a args, cmd proto.AddCommand) *mcp.CallToolResult {
	var err error
	if cmd.ParentID, err = a.optInt("parentId"); err != nil {
		return failure(action, err)
	}

	var resp proto.AddResponse
	if res := t.do(ctx, action, cmd, &resp, 0); res != nil {
		return res
	}
	return success("✅ %s added successfully! Object ID: %d. %s", label, resp.ObjectID, resp.Message)
}

func (t *Tools) handleUpdateTransform(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "update transform"
	a := argsOf(request)

	id, err := a.integer("objectId")
	if err != nil {
		return failure(action, err), nil
	}
	cmd := proto.NewUpdate(proto.UpdateTransform, id)
	if cmd.Pos, err = a.vector("position", proto.Vec3Len); err != nil {
		return failure(action, err), nil
	}
	if cmd.Rot, err = a.vector("rotation", proto.Vec3Len); err != nil {
		return failure(action, err), nil
	}
	if cmd.Scale, err = a.vector("scale", proto.Vec3Len); err != nil {
		return failure(action, err), nil
	}
	if cmd.Pos == nil && cmd.Rot == nil && cmd.Scale == nil {
		return failure(action, errors.New("at least one of position, rotation or scale is required")), nil
	}

	var resp proto.Response
	if res := t.do(ctx, action, cmd, &resp, 0); res != nil {
		return res, nil
	}
	return success("✅ Transform updated successfully! %s", resp.Message), nil
}

func (t *Tools) handleUpdateColor(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "update color"
	a := argsOf(request)

	id, err := a.integer("objectId")
	if err != nil {
		return failure(action, err), nil
	}
	cmd := proto.NewUpdate(proto.UpdateColor, id)
	if !a.has("color") {
		return failure(action, errors.New("color is required")), nil
	}
	if cmd.Color, err = a.vector("color", proto.ColorLen); err != nil {
		return failure(action, err), nil
	}
	if cmd.ColorIndex, err = a.optInt("colorIndex"); err != nil {
		return failure(action, err), nil
	}
	if cmd.Alpha, err = a.optFloat("alpha"); err != nil {
		return failure(action, err), nil
	}
	if err := proto.ValidateRange("alpha", cmd.Alpha, 0, 1); err != nil {
		return failure(action, err), nil
	}

	var resp proto.Response
	if res := t.do(ctx, action, cmd, &resp, 0); res != nil {
		return res, nil
	}
	return success("✅ Color updated successfully! %s", resp.Message), nil
}

func (t *Tools) handleUpdateVisibility(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "update visibility"
	a := argsOf(request)

	id, err := a.integer("objectId")
	if err != nil {
		return failure(action, err), nil
	}
	visible, err := a.boolean("visible")
	if err != nil {
		return failure(action, err), nil
	}

	cmd := proto.NewUpdate(proto.UpdateVisibility, id)
	cmd.Visible = &visible

	var resp proto.Response
	if res := t.do(ctx, action, cmd, &resp, 0); res != nil {
		return res, nil
	}
	state := "hidden"
	if visible {
		state = "visible"
	}
	return success("✅ Object %d is now %s! %s", id, state, resp.Message), nil
}

func (t *Tools) handleUpdateLight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "update light"
	a := argsOf(request)

	id, err := a.integer("objectId")
	if err != nil {
		return failure(action, err), nil
	}
	cmd := proto.NewUpdate(proto.UpdateLight, id)
	if cmd.Color, err = a.vector("color", proto.ColorLen); err != nil {
		return failure(action, err), nil
	}
	if cmd.Intensity, err = a.optFloat("intensity"); err != nil {
		return failure(action, err), nil
	}
	if cmd.Range, err = a.optFloat("range"); err != nil {
		return failure(action, err), nil
	}
	if cmd.SpotAngle, err = a.optFloat("spotAngle"); err != nil {
		return failure(action, err), nil
	}
	if cmd.Enable, err = a.optBool("enable"); err != nil {
		return failure(action, err), nil
	}

	for _, check := range []error{
		proto.ValidateRange("intensity", cmd.Intensity, 0.1, 2),
		proto.ValidateRange("range", cmd.Range, 0.1, 100),
		proto.ValidateRange("spotAngle", cmd.SpotAngle, 1, 179),
	} {
		if check != nil {
			return failure(action, check), nil
		}
	}
	if cmd.Color == nil && cmd.Intensity == nil && cmd.Range == nil && cmd.SpotAngle == nil && cmd.Enable == nil {
		return failure(action, errors.New("nothing to update")), nil
	}

	var resp proto.Response
	if res := t.do(ctx, action, cmd, &resp, 0); res != nil {
		return res, nil
	}
	return success("✅ Light updated successfully! %s", resp.Message), nil
}

func requiredInt(a args, name string) (*int, error) {
	n, err := a.integer(name)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
