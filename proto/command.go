package proto

import (
	"encoding/json"
	"time"
)

// Command types understood by the studio peer.
const (
	TypePing       = "ping"
	TypeTree       = "tree"
	TypeAdd        = "add"
	TypeUpdate     = "update"
	TypeHierarchy  = "hierarchy"
	TypeDelete     = "delete"
	TypeCamera     = "camera"
	TypeItem       = "item"
	TypeScreenshot = "screenshot"
)

// Sub-commands for the multi-purpose command types.
const (
	AddItem      = "item"
	AddLight     = "light"
	AddCharacter = "character"
	AddFolder    = "folder"
	AddCamera    = "camera"

	UpdateTransform  = "transform"
	UpdateColor      = "color"
	UpdateVisibility = "visibility"
	UpdateLight      = "light"

	HierarchyAttach = "attach"
	HierarchyDetach = "detach"

	CameraSetView = "setview"
	CameraSwitch  = "switch"
	CameraFree    = "free"
	CameraGetView = "getview"

	ItemListGroups   = "list-groups"
	ItemListGroup    = "list-group"
	ItemListCategory = "list-category"
	ItemCatalog      = "catalog"
)

// Command is a tagged request sent to the studio peer. Implementations are
// plain structs whose optional fields are pointers or slices tagged
// omitempty, so unset values never reach the wire.
type Command interface {
	CommandType() string
}

type PingCommand struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

func (c PingCommand) CommandType() string { return c.Type }

type TreeCommand struct {
	Type  string `json:"type"`
	Depth *int   `json:"depth,omitempty"` // nil means unlimited
	ID    *int   `json:"id,omitempty"`    // nil means all root objects
}

func (c TreeCommand) CommandType() string { return c.Type }

type AddCommand struct {
	Type     string  `json:"type"`
	Command  string  `json:"command"`
	Group    *int    `json:"group,omitempty"`
	Category *int    `json:"category,omitempty"`
	ItemID   *int    `json:"itemId,omitempty"`
	LightID  *int    `json:"lightId,omitempty"`
	ParentID *int    `json:"parentId,omitempty"`
	Path     *string `json:"path,omitempty"`
	Sex      *string `json:"sex,omitempty"`
	Name     *string `json:"name,omitempty"`
}

func (c AddCommand) CommandType() string { return c.Type }

type UpdateCommand struct {
	Type       string    `json:"type"`
	Command    string    `json:"command"`
	ID         int       `json:"id"`
	Pos        []float64 `json:"pos,omitempty"`
	Rot        []float64 `json:"rot,omitempty"`
	Scale      []float64 `json:"scale,omitempty"`
	Color      []float64 `json:"color,omitempty"`
	ColorIndex *int      `json:"colorIndex,omitempty"`
	Alpha      *float64  `json:"alpha,omitempty"`
	Visible    *bool     `json:"visible,omitempty"`
	Intensity  *float64  `json:"intensity,omitempty"` // 0.1-2.0
	Range      *float64  `json:"range,omitempty"`     // point 0.1-100, spot 0.5-100
	SpotAngle  *float64  `json:"spotAngle,omitempty"` // 1-179 degrees
	Enable     *bool     `json:"enable,omitempty"`
}

func (c UpdateCommand) CommandType() string { return c.Type }

type HierarchyCommand struct {
	Type     string `json:"type"`
	Command  string `json:"command"`
	ChildID  int    `json:"childId"`
	ParentID *int   `json:"parentId,omitempty"` // attach only
}

func (c HierarchyCommand) CommandType() string { return c.Type }

type DeleteCommand struct {
	Type string `json:"type"`
	ID   int    `json:"id"`
}

func (c DeleteCommand) CommandType() string { return c.Type }

type CameraCommand struct {
	Type     string    `json:"type"`
	Command  string    `json:"command"`
	Pos      []float64 `json:"pos,omitempty"`
	Rot      []float64 `json:"rot,omitempty"`
	Fov      *float64  `json:"fov,omitempty"`
	CameraID *int      `json:"cameraId,omitempty"`
}

func (c CameraCommand) CommandType() string { return c.Type }

type ItemCommand struct {
	Type       string `json:"type"`
	Command    string `json:"command"`
	GroupID    *int   `json:"groupId,omitempty"`
	CategoryID *int   `json:"categoryId,omitempty"`
}

func (c ItemCommand) CommandType() string { return c.Type }

type ScreenshotCommand struct {
	Type         string `json:"type"`
	Width        *int   `json:"width,omitempty"`        // peer default 854
	Height       *int   `json:"height,omitempty"`       // peer default 480
	Transparency *bool  `json:"transparency,omitempty"` // peer default false
	Mark         *bool  `json:"mark,omitempty"`         // peer default true
}

func (c ScreenshotCommand) CommandType() string { return c.Type }

// Marshal renders a command in its wire form: declared field names in
// declaration order, indented.
func Marshal(cmd Command) ([]byte, error) {
	return json.MarshalIndent(cmd, "", "  ")
}

func NewPing(message string, at time.Time) PingCommand {
	return PingCommand{Type: TypePing, Message: message, Timestamp: at.UnixMilli()}
}

func NewTree(depth, id *int) TreeCommand {
	return TreeCommand{Type: TypeTree, Depth: depth, ID: id}
}

func NewAdd(command string) AddCommand {
	return AddCommand{Type: TypeAdd, Command: command}
}

func NewUpdate(command string, id int) UpdateCommand {
	return UpdateCommand{Type: TypeUpdate, Command: command, ID: id}
}

func NewAttach(childID, parentID int) HierarchyCommand {
	return HierarchyCommand{Type: TypeHierarchy, Command: HierarchyAttach, ChildID: childID, ParentID: &parentID}
}

func NewDetach(childID int) HierarchyCommand {
	return HierarchyCommand{Type: TypeHierarchy, Command: HierarchyDetach, ChildID: childID}
}

func NewDelete(id int) DeleteCommand {
	return DeleteCommand{Type: TypeDelete, ID: id}
}

func NewCamera(command string) CameraCommand {
	return CameraCommand{Type: TypeCamera, Command: command}
}

func NewItem(command string) ItemCommand {
	return ItemCommand{Type: TypeItem, Command: command}
}

func NewScreenshot() ScreenshotCommand {
	return ScreenshotCommand{Type: TypeScreenshot}
}
