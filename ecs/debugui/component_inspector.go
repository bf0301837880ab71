package debugui

import (
	"fmt"
	"reflect"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenegraph/ecs"
	"github.com/plus3/scenegraph/scene"
)

func NewNodeInspectorComponent() NodeInspectorComponent {
	return NodeInspectorComponent{}
}

// Render shows the node state and every component of e. Edits are written
// back through World.WriteComponent so change detection sees them.
func (ci *NodeInspectorComponent) Render(world *ecs.World, nodes *scene.NodeSystem, e ecs.Entity) {
	if !imgui.BeginV("Node Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	if e == ecs.Root || !world.Alive(e) {
		imgui.Text("No node selected")
		imgui.End()
		return
	}

	imgui.Text(fmt.Sprintf("Entity: %s", e))
	if node := nodes.GetNode(e); node != nil {
		imgui.Text(fmt.Sprintf("Path: %s", node.Path()))
		enabled := node.Enabled()
		if imgui.Checkbox("Enabled", &enabled) {
			node.SetEnabled(enabled)
		}
		imgui.SameLine()
		imgui.Text(fmt.Sprintf("(effective: %t)", node.EffectivelyEnabled()))
		imgui.Text(fmt.Sprintf("World position: %v", node.WorldMatrix().Col(3).Vec3()))
		if bounds, ok := nodes.WorldBounds(node); ok {
			imgui.Text(fmt.Sprintf("Bounds: %v - %v", bounds.Min, bounds.Max))
		}
	}
	imgui.Checkbox("Show matrices", &ci.showMatrices)
	imgui.Separator()

	for _, typ := range world.ComponentTypes(e) {
		if imgui.TreeNodeStr(typ.String()) {
			ci.editComponent(world, e, typ)
			imgui.TreePop()
		}
	}

	imgui.End()
}

// editComponent renders a copy of the component and writes it back only when
// a widget changed it.
func (ci *NodeInspectorComponent) editComponent(world *ecs.World, e ecs.Entity, typ reflect.Type) {
	current := world.Component(e, typ)
	if current == nil {
		return
	}
	edit := reflect.New(typ).Elem()
	edit.Set(reflect.ValueOf(current).Elem())

	changed := false
	if typ.Kind() == reflect.Struct {
		for _, field := range globalReflectionCache.GetFields(typ) {
			if ci.renderField(field, edit.Field(field.Index), typ.Name()) {
				changed = true
			}
		}
	} else {
		changed = ci.renderValue(typ.Name(), typ.Name(), edit)
	}

	if changed {
		if dst := world.WriteComponent(e, typ); dst != nil {
			reflect.ValueOf(dst).Elem().Set(edit)
		}
	}
}

func (ci *NodeInspectorComponent) renderField(field FieldInfo, val reflect.Value, scope string) bool {
	id := scope + "." + field.Name
	switch {
	case field.IsEntity:
		imgui.Text(fmt.Sprintf("%s: %s", field.Name, ecs.Entity(val.Uint())))
		return false
	case field.IsMatrix:
		if !ci.showMatrices {
			imgui.Text(fmt.Sprintf("%s: [matrix]", field.Name))
			return false
		}
		imgui.Text(field.Name + ":")
		for row := 0; row < 4; row++ {
			imgui.Text(fmt.Sprintf("  % 8.3f % 8.3f % 8.3f % 8.3f",
				val.Index(row).Float(), val.Index(row+4).Float(), val.Index(row+8).Float(), val.Index(row+12).Float()))
		}
		return false
	case field.IsVector:
		return ci.renderVector(field.Name, id, val)
	}
	return ci.renderValue(field.Name, id, val)
}

func (ci *NodeInspectorComponent) renderVector(name, id string, val reflect.Value) bool {
	imgui.Text(name + ":")
	changed := false
	for i := 0; i < val.Len(); i++ {
		imgui.SameLine()
		imgui.SetNextItemWidth(70)
		v := float32(val.Index(i).Float())
		if imgui.InputFloat(fmt.Sprintf("##%s.%d", id, i), &v) {
			val.Index(i).SetFloat(float64(v))
			changed = true
		}
	}
	return changed
}

func (ci *NodeInspectorComponent) renderValue(name, id string, val reflect.Value) bool {
	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := int32(val.Int())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt("##"+id, &v) {
			val.SetInt(int64(v))
			return true
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if val.Type() == entityType {
			imgui.Text(fmt.Sprintf("%s: %s", name, ecs.Entity(val.Uint())))
			return false
		}
		v := int32(val.Uint())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt("##"+id, &v) && v >= 0 {
			val.SetUint(uint64(v))
			return true
		}

	case reflect.Float32, reflect.Float64:
		v := float32(val.Float())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat("##"+id, &v) {
			val.SetFloat(float64(v))
			return true
		}

	case reflect.Bool:
		v := val.Bool()
		if imgui.Checkbox(name+"##"+id, &v) {
			val.SetBool(v)
			return true
		}

	case reflect.String:
		v := val.String()
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(200)
		if imgui.InputTextWithHint("##"+id, "", &v, imgui.InputTextFlagsNone, nil) {
			val.SetString(v)
			return true
		}

	case reflect.Struct:
		changed := false
		if imgui.TreeNodeStr(name + "##" + id) {
			for _, nf := range globalReflectionCache.GetFields(val.Type()) {
				if ci.renderField(nf, val.Field(nf.Index), id) {
					changed = true
				}
			}
			imgui.TreePop()
		}
		return changed

	case reflect.Slice:
		changed := false
		if imgui.TreeNodeStr(fmt.Sprintf("%s [%d items]##%s", name, val.Len(), id)) {
			for i := 0; i < val.Len(); i++ {
				label := fmt.Sprintf("[%d]", i)
				elem := val.Index(i)
				if isFloatArray(elem.Type()) && elem.Len() <= 4 {
					if ci.renderVector(label, fmt.Sprintf("%s.%d", id, i), elem) {
						changed = true
					}
					continue
				}
				if ci.renderValue(label, fmt.Sprintf("%s.%d", id, i), elem) {
					changed = true
				}
			}
			imgui.TreePop()
		}
		return changed

	case reflect.Map:
		imgui.Text(fmt.Sprintf("%s: map[%d items]", name, val.Len()))

	default:
		imgui.Text(fmt.Sprintf("%s: %v", name, val.Interface()))
	}
	return false
}
