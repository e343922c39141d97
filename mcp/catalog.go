package mcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mbocsi/kkstudio-mcp/proto"
)

func (t *Tools) registerCatalogTools(s *MCPServer) {
	s.AddTool(mcp.NewTool("item_list_groups",
		mcp.WithDescription("Get a list of all item groups"),
	), t.handleItemListGroups)

	s.AddTool(mcp.NewTool("item_list_group",
		mcp.WithDescription("Get categories within a specific group"),
		mcp.WithNumber("groupId", mcp.Required(), mcp.Description("Item group ID")),
	), t.handleItemListGroup)

	s.AddTool(mcp.NewTool("item_list_category",
		mcp.WithDescription("Get all items within a specific category"),
		mcp.WithNumber("groupId", mcp.Required(), mcp.Description("Item group ID")),
		mcp.WithNumber("categoryId", mcp.Required(), mcp.Description("Item category ID")),
	), t.handleItemListCategory)

	s.AddTool(mcp.NewTool("item_catalog",
		mcp.WithDescription("Get the item catalog, optionally narrowed to one group or one category"),
		mcp.WithNumber("groupId", mcp.Description("Item group ID (optional)")),
		mcp.WithNumber("categoryId", mcp.Description("Item category ID within the group (optional, requires groupId)")),
	), t.handleItemCatalog)
}

func (t *Tools) handleItemListGroups(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp proto.ItemGroupsResponse
	if res := t.do(ctx, "get item groups", proto.NewItem(proto.ItemListGroups), &resp, 0); res != nil {
		return res, nil
	}
	if len(resp.Data) == 0 {
		return mcp.NewToolResultText("📭 No item groups found"), nil
	}

	rows := make([][]string, 0, len(resp.Data))
	for _, g := range resp.Data {
		rows = append(rows, []string{strconv.Itoa(g.ID), g.Name, strconv.Itoa(g.CategoryCount)})
	}
	out := renderTable([]string{"Group", "Name", "Categories"}, rows, []text.Align{text.AlignRight, text.AlignLeft, text.AlignRight})
	return mcp.NewToolResultText("📦 Available Item Groups:\n" + out), nil
}

func (t *Tools) handleItemListGroup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "get item categories"

	groupID, err := argsOf(request).integer("groupId")
	if err != nil {
		return failure(action, err), nil
	}
	cmd := proto.NewItem(proto.ItemListGroup)
	cmd.GroupID = &groupID

	var resp proto.ItemGroupDetailResponse
	if res := t.do(ctx, action, cmd, &resp, 0); res != nil {
		return res, nil
	}
	if resp.Data == nil || len(resp.Data.Categories) == 0 {
		return success("📭 No categories found in group %d", groupID), nil
	}

	rows := make([][]string, 0, len(resp.Data.Categories))
	for _, c := range resp.Data.Categories {
		rows = append(rows, []string{strconv.Itoa(c.ID), c.Name, strconv.Itoa(c.ItemCount)})
	}
	out := renderTable([]string{"Category", "Name", "Items"}, rows, []text.Align{text.AlignRight, text.AlignLeft, text.AlignRight})
	return success("📁 Categories in Group %d (%s):\n%s", groupID, resp.Data.Name, out), nil
}

func (t *Tools) handleItemListCategory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "get category items"
	a := argsOf(request)

	groupID, err := a.integer("groupId")
	if err != nil {
		return failure(action, err), nil
	}
	categoryID, err := a.integer("categoryId")
	if err != nil {
		return failure(action, err), nil
	}
	cmd := proto.NewItem(proto.ItemListCategory)
	cmd.GroupID = &groupID
	cmd.CategoryID = &categoryID

	var resp proto.ItemCategoryDetailResponse
	if res := t.do(ctx, action, cmd, &resp, 0); res != nil {
		return res, nil
	}
	if resp.Data == nil || len(resp.Data.Items) == 0 {
		return success("📭 No items found in category %d of group %d", categoryID, groupID), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔧 Items in Group %d, Category %d (%s):\n", groupID, categoryID, resp.Data.Name)
	for _, item := range resp.Data.Items {
		fmt.Fprintf(&b, "   🎯 Item %d: %s\n", item.ID, item.Name)
		if p := item.Properties; p != nil {
			fmt.Fprintf(&b, "      • Colors: %d, Patterns: %d\n", p.ColorSlots, p.PatternSlots)
			fmt.Fprintf(&b, "      • Scale: %t, Anime: %t\n", p.IsScale, p.IsAnime)
			fmt.Fprintf(&b, "      • Glass: %t, Emission: %t\n", p.IsGlass, p.IsEmission)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (t *Tools) handleItemCatalog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const action = "get item catalog"
	a := argsOf(request)

	cmd := proto.NewItem(proto.ItemCatalog)
	var err error
	if cmd.GroupID, err = a.optInt("groupId"); err != nil {
		return failure(action, err), nil
	}
	if cmd.CategoryID, err = a.optInt("categoryId"); err != nil {
		return failure(action, err), nil
	}
	if cmd.CategoryID != nil && cmd.GroupID == nil {
		return failure(action, "categoryId requires groupId"), nil
	}

	var resp proto.ItemCatalogResponse
	if res := t.do(ctx, action, cmd, &resp, 0); res != nil {
		return res, nil
	}

	var rows [][]string
	for _, g := range resp.Data {
		for _, c := range g.Categories {
			for _, item := range c.Items {
				p := item.Properties
				rows = append(rows, []string{
					fmt.Sprintf("%d %s", g.ID, g.Name),
					fmt.Sprintf("%d %s", c.ID, c.Name),
					strconv.Itoa(item.ID),
					item.Name,
					strconv.Itoa(p.ColorSlots),
					strconv.Itoa(p.PatternSlots),
					itemFlags(p),
				})
			}
		}
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("📭 No items found in the catalog"), nil
	}

	out := renderTable(
		[]string{"Group", "Category", "Item", "Name", "Colors", "Patterns", "Flags"},
		rows,
		[]text.Align{text.AlignLeft, text.AlignLeft, text.AlignRight, text.AlignLeft, text.AlignRight, text.AlignRight, text.AlignLeft},
	)
	return success("📚 Item Catalog (%d items):\n%s", len(rows), out), nil
}

func itemFlags(p proto.ItemProperties) string {
	var flags []string
	if p.IsAnime {
		flags = append(flags, "anime")
	}
	if p.IsScale {
		flags = append(flags, "scale")
	}
	if p.IsGlass {
		flags = append(flags, "glass")
	}
	if p.IsEmission {
		flags = append(flags, "emission")
	}
	return strings.Join(flags, ",")
}

func renderTable(headers []string, rows [][]string, aligns []text.Align) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) {
			align = aligns[i]
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
