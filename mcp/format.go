package mcp

import (
	"fmt"
	"strings"

	"github.com/mbocsi/kkstudio-mcp/proto"
)

func formatTree(nodes []proto.TreeNode, indent int) string {
	var b strings.Builder
	writeTree(&b, nodes, indent)
	return b.String()
}

func writeTree(b *strings.Builder, nodes []proto.TreeNode, indent int) {
	pad := strings.Repeat(" ", indent*2)

	for _, node := range nodes {
		info := node.ObjectInfo
		fmt.Fprintf(b, "%s📦 %s (ID: %d, Type: %s)\n", pad, node.Name, info.ID, info.Type)

		if tr := info.Transform; tr != nil {
			fmt.Fprintf(b, "%s   🎯 Position: %s\n", pad, formatVec3(tr.Pos))
			fmt.Fprintf(b, "%s   🔄 Rotation: %s\n", pad, formatVec3(tr.Rot))
			fmt.Fprintf(b, "%s   📏 Scale: %s\n", pad, formatVec3(tr.Scale))
		}
		if d := info.ItemDetail; d != nil {
			fmt.Fprintf(b, "%s   📋 Item Detail: Group=%d, Category=%d, ItemId=%d\n", pad, d.Group, d.Category, d.ItemID)
		}
		if len(node.Children) > 0 {
			fmt.Fprintf(b, "%s   📁 Children (%d):\n", pad, len(node.Children))
			writeTree(b, node.Children, indent+2)
		}
	}
}

// formatVec3 renders a vector as "(x, y, z)" with two decimals. Missing
// components print as zero.
func formatVec3(v []float64) string {
	var c [3]float64
	copy(c[:], v)
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", c[0], c[1], c[2])
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
