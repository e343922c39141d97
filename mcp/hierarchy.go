package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mbocsi/kkstudio-mcp/proto"
)

func (t *Tools) registerHierarchyTools(s *MCPServer) {
	s.AddTool(mcp.NewTool("hierarchy_attach",
		mcp.WithDescription("Parent an object to another object in the scene hierarchy"),
		mcp.WithNumber("childId", mcp.Required(), mcp.Description("ID of the child object to attach")),
		mcp.WithNumber("parentId", mcp.Required(), mcp.Description("ID of the parent object")),
	), t.handleHierarchyAttach)

	s.AddTool(mcp.NewTool("hierarchy_detach",
		mcp.WithDescription("Detach an object from its parent in the scene hierarchy (make it a root object)"),
		mcp.WithNumber("childId", mcp.Required(), mcp.Description("ID of the child object to detach from its parent")),
	), t.handleHierarchyDetach)
}

func (t *Tools) handleHierarchyAttach(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "attach object"
	a := argsOf(request)

	childID, err := a.integer("childId")
	if err != nil {
		return failure(action, err), nil
	}
	parentID, err := a.integer("parentId")
	if err != nil {
		return failure(action, err), nil
	}
	if childID == parentID {
		return failure(action, "an object cannot be its own parent"), nil
	}

	var resp proto.Response
	if res := t.do(ctx, action, proto.NewAttach(childID, parentID), &resp, 0); res != nil {
		return res, nil
	}
	return success("✅ Hierarchy updated successfully! Child %d attached to parent %d. %s", childID, parentID, resp.Message), nil
}

func (t *Tools) handleHierarchyDetach(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "detach object"

	childID, err := argsOf(request).integer("childId")
	if err != nil {
		return failure(action, err), nil
	}

	var resp proto.Response
	if res := t.do(ctx, action, proto.NewDetach(childID), &resp, 0); res != nil {
		return res, nil
	}
	return success("✅ Hierarchy updated successfully! Object %d detached from parent. %s", childID, resp.Message), nil
}
