package proto

import "errors"

// Response types sent back by the studio peer.
const (
	TypeSuccess = "success"
	TypeError   = "error"
	TypePong    = "pong"
)

// Response is the part shared by every reply: the type tag and a
// human-readable message.
type Response struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// Reply is implemented by every response shape through the embedded Response.
type Reply interface {
	Status() Response
	Validate() error
}

func (r Response) Status() Response { return r }

func (r Response) IsSuccess() bool { return r.Type == TypeSuccess }

func (r Response) IsError() bool { return r.Type == TypeError }

// MessageOr returns the message, or fallback when the peer sent none.
func (r Response) MessageOr(fallback string) string {
	if r.Message == "" {
		return fallback
	}
	return r.Message
}

func (r Response) Validate() error {
	if r.Type == "" {
		return errors.New("response is missing the type field")
	}
	return nil
}

type PongResponse struct {
	Response
	Timestamp int64 `json:"timestamp,omitempty"`
}

type AddResponse struct {
	Response
	ObjectID int `json:"objectId"`
}

type TreeResponse struct {
	Response
	Data []TreeNode `json:"data"`
}

type TreeNode struct {
	Name       string     `json:"name"`
	ObjectInfo ObjectInfo `json:"objectInfo"`
	Children   []TreeNode `json:"children"`
}

type ObjectInfo struct {
	ID         int         `json:"id"`
	Type       string      `json:"type"`
	Transform  *Transform  `json:"transform,omitempty"`
	ItemDetail *ItemDetail `json:"itemDetail,omitempty"` // items only
}

type Transform struct {
	Pos   []float64 `json:"pos"`
	Rot   []float64 `json:"rot"`
	Scale []float64 `json:"scale"`
}

type ItemDetail struct {
	Group    int `json:"group"`
	Category int `json:"category"`
	ItemID   int `json:"itemId"`
}

type CameraViewResponse struct {
	Response
	Pos            []float64 `json:"pos,omitempty"`
	Rot            []float64 `json:"rot,omitempty"`
	Fov            *float64  `json:"fov,omitempty"`
	Mode           string    `json:"mode,omitempty"`
	ActiveCameraID *int      `json:"activeCameraId,omitempty"` // nil while in free camera
}

// ItemResponse carries the echo fields common to every item catalog reply.
type ItemResponse struct {
	Response
	Command    string `json:"command,omitempty"`
	GroupID    *int   `json:"groupId,omitempty"`
	CategoryID *int   `json:"categoryId,omitempty"`
}

type ItemGroupsResponse struct {
	ItemResponse
	Data []ItemGroup `json:"data"`
}

type ItemGroup struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	CategoryCount int    `json:"categoryCount"`
}

type ItemGroupDetailResponse struct {
	ItemResponse
	Data *ItemGroupDetail `json:"data"`
}

type ItemGroupDetail struct {
	ID         int            `json:"id"`
	Name       string         `json:"name"`
	Categories []ItemCategory `json:"categories"`
}

type ItemCategory struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ItemCount int    `json:"itemCount"`
}

type ItemCategoryDetailResponse struct {
	ItemResponse
	Data *ItemCategoryDetail `json:"data"`
}

type ItemCategoryDetail struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	GroupID int    `json:"groupId"`
	Items   []Item `json:"items"`
}

type Item struct {
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	Properties *ItemProperties `json:"properties,omitempty"`
}

type ItemProperties struct {
	IsAnime      bool   `json:"isAnime"`
	IsScale      bool   `json:"isScale"`
	HasColor     bool   `json:"hasColor"`
	ColorSlots   int    `json:"colorSlots"`
	HasPattern   bool   `json:"hasPattern"`
	PatternSlots int    `json:"patternSlots"`
	IsEmission   bool   `json:"isEmission"`
	IsGlass      bool   `json:"isGlass"`
	Bones        int    `json:"bones"`
	ChildRoot    string `json:"childRoot"`
}

type ItemCatalogResponse struct {
	ItemResponse
	Data []CatalogGroup `json:"data"`
}

type CatalogGroup struct {
	ID         int               `json:"id"`
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	Categories []CatalogCategory `json:"categories"`
}

type CatalogCategory struct {
	ID    int           `json:"id"`
	Name  string        `json:"name"`
	Type  string        `json:"type"`
	Items []CatalogItem `json:"items"`
}

type CatalogItem struct {
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	GroupID    int             `json:"groupId"`
	CategoryID int             `json:"categoryId"`
	Properties ItemProperties  `json:"properties"`
	File       CatalogItemFile `json:"file"`
}

type CatalogItemFile struct {
	Name        string `json:"name"`
	AssetBundle string `json:"assetBundle"`
	Manifest    string `json:"manifest"`
}

type ScreenshotResponse struct {
	Response
	Data *ScreenshotData `json:"data,omitempty"`
}

type ScreenshotData struct {
	Image        string `json:"image"` // base64
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Format       string `json:"format"`
	Transparency bool   `json:"transparency"`
	Size         int    `json:"size"` // bytes
}
