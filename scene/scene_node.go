package scene

import (
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenegraph/ecs"
)

// lastState is what NodeSystem observed for a node the last time it was
// visited by a transform update.
type lastState struct {
	parent                ecs.Entity
	localMatrixGeneration uint64
	enabled               bool
}

// SceneNode is a handle to a node entity. All data except the children list
// and the last observed state lives in component tables.
type SceneNode struct {
	system   *NodeSystem
	entity   ecs.Entity
	children []*SceneNode

	last          lastState
	parentChanged bool
	attached      bool
	removed       bool
}

func newSceneNode(system *NodeSystem, e ecs.Entity) *SceneNode {
	return &SceneNode{system: system, entity: e}
}

func (n *SceneNode) Entity() ecs.Entity { return n.entity }

func (n *SceneNode) IsRoot() bool { return n.entity == ecs.Root }

// Alive reports whether the node's entity still exists
func (n *SceneNode) Alive() bool {
	return !n.removed && n.system.world.Alive(n.entity)
}

func (n *SceneNode) Name() string {
	if name := n.system.names.Read(n.entity); name != nil {
		return name.Name
	}
	return ""
}

func (n *SceneNode) SetName(name string) {
	if comp := n.system.names.Write(n.entity); comp != nil {
		comp.Name = name
		return
	}
	n.system.names.Create(n.entity, NameComponent{Name: name})
}

// Enabled returns the node's own flag. The root is always enabled.
func (n *SceneNode) Enabled() bool {
	if comp := n.system.nodes.Read(n.entity); comp != nil {
		return comp.Enabled
	}
	return n.IsRoot()
}

func (n *SceneNode) EffectivelyEnabled() bool {
	if comp := n.system.nodes.Read(n.entity); comp != nil {
		return comp.EffectivelyEnabled
	}
	return n.IsRoot()
}

func (n *SceneNode) SetEnabled(enabled bool) {
	n.system.SetEnabled(n.entity, enabled)
}

func (n *SceneNode) transform() TransformComponent {
	if t := n.system.transforms.Read(n.entity); t != nil {
		return *t
	}
	return DefaultTransform()
}

func (n *SceneNode) writeTransform(fn func(t *TransformComponent)) {
	if t := n.system.transforms.Write(n.entity); t != nil {
		fn(t)
		return
	}
	t := DefaultTransform()
	fn(&t)
	n.system.transforms.Create(n.entity, t)
}

func (n *SceneNode) Position() mgl32.Vec3 { return n.transform().Position }
func (n *SceneNode) Rotation() mgl32.Quat { return n.transform().Rotation }
func (n *SceneNode) Scale() mgl32.Vec3    { return n.transform().Scale }

func (n *SceneNode) SetPosition(p mgl32.Vec3) {
	n.writeTransform(func(t *TransformComponent) { t.Position = p })
}

func (n *SceneNode) SetRotation(q mgl32.Quat) {
	n.writeTransform(func(t *TransformComponent) { t.Rotation = q })
}

func (n *SceneNode) SetScale(s mgl32.Vec3) {
	n.writeTransform(func(t *TransformComponent) { t.Scale = s })
}

// WorldMatrix returns the last world matrix computed by NodeSystem
func (n *SceneNode) WorldMatrix() mgl32.Mat4 {
	if w := n.system.worlds.Read(n.entity); w != nil {
		return w.Matrix
	}
	return mgl32.Ident4()
}

// parentEntity returns the live parent link, falling back to the cached one
func (n *SceneNode) parentEntity() ecs.Entity {
	if comp := n.system.nodes.Read(n.entity); comp != nil {
		return comp.Parent
	}
	return n.last.parent
}

// Parent returns the parent node, or nil for the root and for nodes whose
// parent is not part of the tree.
func (n *SceneNode) Parent() *SceneNode {
	if n.IsRoot() {
		return nil
	}
	n.system.cache.Refresh()
	if !n.attached {
		return nil
	}
	return n.system.cache.node(n.last.parent)
}

// Children returns a snapshot of the node's children
func (n *SceneNode) Children() []*SceneNode {
	n.system.cache.Refresh()
	return slices.Clone(n.children)
}

func (n *SceneNode) ChildCount() int {
	n.system.cache.Refresh()
	return len(n.children)
}

// GetChild returns the first direct child with the given name
func (n *SceneNode) GetChild(name string) *SceneNode {
	n.system.cache.Refresh()
	for _, child := range n.children {
		if child.Name() == name {
			return child
		}
	}
	return nil
}

// SetParent moves n under parent, appending it to parent's children. It
// returns false when the move would create a cycle or n is not a node.
func (n *SceneNode) SetParent(parent *SceneNode) bool {
	return n.system.insertChild(parent, n, -1)
}

func (n *SceneNode) AddChild(child *SceneNode) bool {
	return n.system.insertChild(n, child, -1)
}

// InsertChild moves child under n at index. An out of range index appends.
func (n *SceneNode) InsertChild(index int, child *SceneNode) bool {
	return n.system.insertChild(n, child, index)
}

// RemoveChild detaches child from n and reparents it to the root. Children
// of the root stay where they are and false is returned.
func (n *SceneNode) RemoveChild(child *SceneNode) bool {
	if n.IsRoot() {
		return false
	}
	n.system.cache.Refresh()
	if child == nil || !child.attached || child.last.parent != n.entity {
		return false
	}
	return n.system.insertChild(n.system.RootNode(), child, -1)
}

// RemoveChildren reparents every child of n to the root
func (n *SceneNode) RemoveChildren() {
	if n.IsRoot() {
		return
	}
	for _, child := range n.Children() {
		n.RemoveChild(child)
	}
}

// popChildNoRefresh detaches and returns the last child without refreshing
// the cache, or nil when there are no children.
func (n *SceneNode) popChildNoRefresh() *SceneNode {
	if len(n.children) == 0 {
		return nil
	}
	child := n.children[len(n.children)-1]
	n.children = n.children[:len(n.children)-1]
	child.attached = false
	return child
}

func (n *SceneNode) removeChild(child *SceneNode) int {
	idx := slices.Index(n.children, child)
	if idx >= 0 {
		n.children = slices.Delete(n.children, idx, idx+1)
	}
	return idx
}

// IsAncestorOf reports whether n appears on other's parent chain
func (n *SceneNode) IsAncestorOf(other *SceneNode) bool {
	if other == nil || n == other {
		return false
	}
	if n.IsRoot() {
		return true
	}
	nodes := n.system.nodes
	e := other.parentEntity()
	for steps := nodes.Len(); steps >= 0; steps-- {
		if e == n.entity {
			return true
		}
		if e == ecs.Root {
			return false
		}
		comp := nodes.Read(e)
		if comp == nil {
			return false
		}
		e = comp.Parent
	}
	return false
}

// Path returns the slash separated names from the root to n
func (n *SceneNode) Path() string {
	var names []string
	steps := n.system.nodes.Len()
	for node := n; node != nil && !node.IsRoot() && steps >= 0; node = node.Parent() {
		names = append(names, node.Name())
		steps--
	}
	slices.Reverse(names)
	return "/" + strings.Join(names, "/")
}

// LookupNodeByPath resolves a slash separated name path relative to n. A
// leading slash resolves from the root.
func (n *SceneNode) LookupNodeByPath(path string) *SceneNode {
	node := n
	if strings.HasPrefix(path, "/") {
		node = n.system.RootNode()
	}
	for _, name := range strings.Split(path, "/") {
		if name == "" {
			continue
		}
		if node = node.GetChild(name); node == nil {
			return nil
		}
	}
	return node
}

// LookupNodeByName returns the first descendant of n, in pre-order, with the
// given name.
func (n *SceneNode) LookupNodeByName(name string) *SceneNode {
	var found *SceneNode
	n.walk(Recursive, func(node *SceneNode) bool {
		if node.Name() == name {
			found = node
			return false
		}
		return true
	})
	return found
}

// TraversalType selects how far a lookup descends below the start node
type TraversalType int

const (
	// SingleLevel visits direct children only
	SingleLevel TraversalType = iota
	// Recursive visits every descendant in pre-order
	Recursive
)

// walk visits the descendants of n in pre-order until visit returns false
func (n *SceneNode) walk(traversal TraversalType, visit func(*SceneNode) bool) {
	n.system.cache.Refresh()
	if traversal == SingleLevel {
		for _, child := range n.children {
			if !visit(child) {
				return
			}
		}
		return
	}

	stack := make([]*SceneNode, 0, len(n.children))
	for i := len(n.children) - 1; i >= 0; i-- {
		stack = append(stack, n.children[i])
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(top) {
			return
		}
		for i := len(top.children) - 1; i >= 0; i-- {
			stack = append(stack, top.children[i])
		}
	}
}

// LookupNodeByComponent returns the first descendant of n carrying a T
func LookupNodeByComponent[T any](n *SceneNode, traversal TraversalType) *SceneNode {
	table := ecs.Table[T](n.system.world)
	var found *SceneNode
	n.walk(traversal, func(node *SceneNode) bool {
		if table.Has(node.entity) {
			found = node
			return false
		}
		return true
	})
	return found
}

// LookupNodesByComponent returns every descendant of n carrying a T
func LookupNodesByComponent[T any](n *SceneNode, traversal TraversalType) []*SceneNode {
	table := ecs.Table[T](n.system.world)
	var found []*SceneNode
	n.walk(traversal, func(node *SceneNode) bool {
		if table.Has(node.entity) {
			found = append(found, node)
		}
		return true
	})
	return found
}
