package debugui

import (
	"fmt"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenegraph/ecs"
	"github.com/plus3/scenegraph/scene"
)

// treeRow is one visible line of the scene tree window
type treeRow struct {
	node  *scene.SceneNode
	depth int
	match bool
}

func NewSceneTreeComponent(maxRows int) SceneTreeComponent {
	return SceneTreeComponent{maxRows: maxRows}
}

// Selected returns the selected node entity, or Root when nothing is selected
func (st *SceneTreeComponent) Selected() ecs.Entity { return st.selected }

func (st *SceneTreeComponent) Select(e ecs.Entity) { st.selected = e }

func (st *SceneTreeComponent) SetFilter(filter string) {
	st.filterText = filter
	st.currentPage = 0
}

func nodeLabel(n *scene.SceneNode) string {
	if name := n.Name(); name != "" {
		return name
	}
	return n.Entity().String()
}

func (st *SceneTreeComponent) matches(n *scene.SceneNode) bool {
	if st.filterText == "" {
		return true
	}
	filter := strings.ToLower(st.filterText)
	return strings.Contains(strings.ToLower(n.Name()), filter) ||
		strings.Contains(n.Entity().String(), filter)
}

// rows flattens the tree below root in pre-order. With a filter set only
// matching nodes and their ancestors are listed.
func (st *SceneTreeComponent) rows(root *scene.SceneNode) []treeRow {
	var out []treeRow
	var visit func(n *scene.SceneNode, depth int) bool
	visit = func(n *scene.SceneNode, depth int) bool {
		at := len(out)
		match := st.matches(n)
		out = append(out, treeRow{node: n, depth: depth, match: match})

		keep := match
		for _, child := range n.Children() {
			if visit(child, depth+1) {
				keep = true
			}
		}
		if !keep {
			out = out[:at]
		}
		return keep
	}
	for _, child := range root.Children() {
		visit(child, 0)
	}
	return out
}

// clampPage keeps the current page within the row count and returns the
// visible slice bounds.
func (st *SceneTreeComponent) clampPage(total int) (int, int, int) {
	if st.maxRows <= 0 {
		return 0, total, 1
	}
	pages := max((total+st.maxRows-1)/st.maxRows, 1)
	st.currentPage = min(max(st.currentPage, 0), pages-1)
	start := st.currentPage * st.maxRows
	return start, min(start+st.maxRows, total), pages
}

func (st *SceneTreeComponent) Render(nodes *scene.NodeSystem) {
	if !imgui.BeginV("Scene Tree", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	filter := st.filterText
	imgui.InputTextWithHint("##filter", "Filter by name...", &filter, imgui.InputTextFlagsNone, nil)
	if filter != st.filterText {
		st.SetFilter(filter)
	}
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		st.SetFilter("")
	}

	rows := st.rows(nodes.RootNode())
	start, end, pages := st.clampPage(len(rows))

	disabled := imgui.NewVec4(0.5, 0.5, 0.5, 1.0)
	for _, row := range rows[start:end] {
		e := row.node.Entity()
		label := fmt.Sprintf("%s%s##%d", strings.Repeat("    ", row.depth), nodeLabel(row.node), uint64(e))

		dimmed := !row.match || !row.node.EffectivelyEnabled()
		if dimmed {
			imgui.PushStyleColorVec4(imgui.ColText, disabled)
		}
		if imgui.SelectableBoolV(label, st.selected == e, imgui.SelectableFlagsNone, imgui.NewVec2(0, 0)) {
			st.selected = e
		}
		if dimmed {
			imgui.PopStyleColor()
		}
	}

	if pages > 1 {
		imgui.Text(fmt.Sprintf("Page %d / %d (%d nodes)", st.currentPage+1, pages, len(rows)))
		imgui.SameLine()
		if imgui.Button("Prev") {
			st.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") {
			st.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d nodes", len(rows)))
	}

	imgui.End()
}
