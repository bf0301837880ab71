package scene

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenegraph/ecs"
	"go.uber.org/zap"
)

type nodeRow struct {
	ecs.Entity
	*NodeComponent
	Local    *LocalMatrixComponent         `ecs:"optional"`
	World    *WorldMatrixComponent         `ecs:"optional"`
	Previous *PreviousWorldMatrixComponent `ecs:"optional"`
}

const warnParentWorld = "parent-world"

type pendingTransform struct {
	node          *SceneNode
	parentMatrix  mgl32.Mat4
	parentEnabled bool
}

// NodeSystem propagates local matrices down the scene hierarchy into world
// matrices and maintains the effectively enabled flags.
type NodeSystem struct {
	world *ecs.World
	log   *zap.Logger
	warn  *warnOnce

	nodes      *ecs.ComponentTable[NodeComponent]
	transforms *ecs.ComponentTable[TransformComponent]
	locals     *ecs.ComponentTable[LocalMatrixComponent]
	worlds     *ecs.ComponentTable[WorldMatrixComponent]
	previous   *ecs.ComponentTable[PreviousWorldMatrixComponent]
	names      *ecs.ComponentTable[NameComponent]

	rows      ecs.Query[nodeRow]
	cache     *NodeCache
	listeners []SceneNodeListener

	localGeneration uint64
	nodeGeneration  uint64
	worldGeneration uint64
	primed          bool

	missingPrevious []ecs.Entity
	changed         []*SceneNode
	search          []*SceneNode
	pending         []pendingTransform
	destroying      []*SceneNode
}

// NewNodeSystem creates a NodeSystem over world. The scene components must
// be registered with RegisterComponents.
func NewNodeSystem(world *ecs.World, log *zap.Logger) *NodeSystem {
	log = orNop(log)
	s := &NodeSystem{
		world:      world,
		log:        log,
		warn:       newWarnOnce(log),
		nodes:      ecs.Table[NodeComponent](world),
		transforms: ecs.Table[TransformComponent](world),
		locals:     ecs.Table[LocalMatrixComponent](world),
		worlds:     ecs.Table[WorldMatrixComponent](world),
		previous:   ecs.Table[PreviousWorldMatrixComponent](world),
		names:      ecs.Table[NameComponent](world),
	}
	s.rows.Init(world)
	s.cache = newNodeCache(s)
	return s
}

// Cache returns the tree mirror
func (s *NodeSystem) Cache() *NodeCache { return s.cache }

// Update runs one propagation pass and reports whether any node was
// recomputed.
func (s *NodeSystem) Update(frame *ecs.UpdateFrame) bool {
	s.rows.Execute()
	s.snapshotPrevious()

	localGeneration := s.locals.Generation()
	nodeGeneration := s.nodes.Generation()
	if s.primed && localGeneration == s.localGeneration && nodeGeneration == s.nodeGeneration {
		s.createMissingPrevious()
		return false
	}

	s.cache.Refresh()

	enabledChanged := false
	changed := s.collectChangedNodes()
	for _, n := range changed {
		matrix, enabled := s.parentState(n)
		if s.updateTransformations(n, matrix, enabled) {
			enabledChanged = true
		}
	}
	if enabledChanged {
		// Enabled flags are written through read handles, and a disabled node
		// keeps its world matrix. Consumers keyed on world matrices still need
		// to see the frame as changed.
		s.worlds.Touch()
	}

	s.localGeneration = localGeneration
	s.nodeGeneration = nodeGeneration
	s.primed = true

	s.createMissingPrevious()
	clear(changed)
	return len(changed) > 0
}

// snapshotPrevious copies World to Previous when any world matrix changed
// since the last frame and records rows that lack a Previous component.
func (s *NodeSystem) snapshotPrevious() {
	worldGeneration := s.worlds.Generation()
	copyWorld := !s.primed || worldGeneration != s.worldGeneration
	s.worldGeneration = worldGeneration

	s.missingPrevious = s.missingPrevious[:0]
	copied := false
	for e, row := range s.rows.Iter() {
		if row.Previous == nil {
			s.missingPrevious = append(s.missingPrevious, e)
			continue
		}
		if copyWorld && row.World != nil {
			row.Previous.Matrix = row.World.Matrix
			copied = true
		}
	}
	if copied {
		s.previous.Touch()
	}
}

func (s *NodeSystem) createMissingPrevious() {
	for _, e := range s.missingPrevious {
		if s.previous.Has(e) {
			continue
		}
		if w := s.worlds.Read(e); w != nil {
			s.previous.Create(e, PreviousWorldMatrixComponent{Matrix: w.Matrix})
		}
	}
	s.missingPrevious = s.missingPrevious[:0]
}

// collectChangedNodes walks the tree from the root and returns the topmost
// dirty nodes. The subtree below a dirty node is not searched further since
// it is recomputed as a whole.
func (s *NodeSystem) collectChangedNodes() []*SceneNode {
	changed := s.changed[:0]
	root := s.RootNode()
	stack := s.search[:0]
	for i := len(root.children) - 1; i >= 0; i-- {
		stack = append(stack, root.children[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.dirty(n) {
			changed = append(changed, n)
			continue
		}
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
	s.search = stack[:0]
	s.changed = changed
	return changed
}

func (s *NodeSystem) dirty(n *SceneNode) bool {
	comp := s.nodes.Read(n.entity)
	if comp == nil {
		return false
	}
	return n.parentChanged ||
		comp.Parent != n.last.parent ||
		comp.Enabled != n.last.enabled ||
		s.locals.InstanceGeneration(n.entity) != n.last.localMatrixGeneration
}

// parentState resolves the world matrix and effective flag a changed node
// inherits. Nodes directly under the root, or whose parent is not a node,
// inherit identity and enabled.
func (s *NodeSystem) parentState(n *SceneNode) (mgl32.Mat4, bool) {
	parent := n.parentEntity()
	if parent == ecs.Root {
		return mgl32.Ident4(), true
	}
	row, ok := s.rows.Get(parent)
	if !ok {
		return mgl32.Ident4(), true
	}
	enabled := s.nodes.Read(parent).EffectivelyEnabled
	if w := s.worlds.Read(row.Entity); w != nil {
		s.warn.Clear(warnParentWorld, parent)
		return w.Matrix, enabled
	}
	if enabled {
		s.warn.Warn(warnParentWorld, parent, "parent node has no world matrix, using identity",
			zap.Stringer("child", n.entity))
	}
	return mgl32.Ident4(), enabled
}

// updateTransformations recomputes start and its subtree in pre-order. A
// node's children are only visited while it is effectively enabled or its
// effective flag just changed, so a newly disabled subtree is walked once to
// propagate the flag and then pruned. It reports whether any node's enabled
// state changed.
func (s *NodeSystem) updateTransformations(start *SceneNode, parentMatrix mgl32.Mat4, parentEnabled bool) bool {
	anyEnabledChanged := false
	stack := append(s.pending[:0], pendingTransform{start, parentMatrix, parentEnabled})
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := top.node

		comp := s.nodes.Read(n.entity)
		if comp == nil {
			continue
		}
		enabled := top.parentEnabled && comp.Enabled
		enabledChanged := enabled != comp.EffectivelyEnabled
		if enabledChanged {
			comp.EffectivelyEnabled = enabled
		}
		if enabledChanged || comp.Enabled != n.last.enabled {
			anyEnabledChanged = true
		}

		matrix := top.parentMatrix
		if enabled {
			if local := s.locals.Read(n.entity); local != nil {
				matrix = top.parentMatrix.Mul4(local.Matrix)
				s.writeWorld(n.entity, matrix)
			}
		} else if w := s.worlds.Read(n.entity); w != nil {
			matrix = w.Matrix
		}

		n.last = lastState{
			parent:                comp.Parent,
			localMatrixGeneration: s.locals.InstanceGeneration(n.entity),
			enabled:               comp.Enabled,
		}
		n.parentChanged = false

		if enabled || enabledChanged {
			for i := len(n.children) - 1; i >= 0; i-- {
				stack = append(stack, pendingTransform{n.children[i], matrix, enabled})
			}
		}
	}
	s.pending = stack[:0]
	return anyEnabledChanged
}

func (s *NodeSystem) writeWorld(e ecs.Entity, m mgl32.Mat4) {
	if w := s.worlds.Write(e); w != nil {
		w.Matrix = m
		return
	}
	s.worlds.Create(e, WorldMatrixComponent{Matrix: m})
}

// RootNode returns the permanent root. A cache without a root is corrupt.
func (s *NodeSystem) RootNode() *SceneNode {
	root := s.cache.node(ecs.Root)
	if root == nil {
		panic("scene: node cache lost the root node")
	}
	return root
}

// GetNode returns the node for e, or nil when e is not a live node
func (s *NodeSystem) GetNode(e ecs.Entity) *SceneNode {
	s.cache.Refresh()
	return s.cache.node(e)
}

// CreateNode creates a node entity under the root with an identity
// transform.
func (s *NodeSystem) CreateNode() *SceneNode {
	s.cache.Refresh()

	e := s.world.CreateEntity()
	s.transforms.Create(e, DefaultTransform())
	s.locals.Create(e, LocalMatrixComponent{Matrix: mgl32.Ident4()})
	s.worlds.Create(e, WorldMatrixComponent{Matrix: mgl32.Ident4()})
	s.nodes.Create(e, NodeComponent{Parent: ecs.Root, Enabled: true, EffectivelyEnabled: true})

	n := s.cache.add(e, ecs.Root)
	s.cache.internalNodeUpdate(1)
	return n
}

// CloneNode copies node, and its subtree when recursive, as a new sibling of
// node. Entity references between cloned entities are redirected to the
// clones; references to anything outside the cloned set are kept. It
// returns nil for the root and for dead nodes.
func (s *NodeSystem) CloneNode(node *SceneNode, recursive bool) *SceneNode {
	if node == nil || node.IsRoot() {
		return nil
	}
	s.cache.Refresh()
	if !node.Alive() {
		return nil
	}

	sources := []*SceneNode{node}
	if recursive {
		node.walk(Recursive, func(n *SceneNode) bool {
			sources = append(sources, n)
			return true
		})
	}

	mapping := make(map[ecs.Entity]ecs.Entity, len(sources))
	for _, src := range sources {
		if dst, ok := s.world.CloneEntity(src.entity); ok {
			mapping[src.entity] = dst
		}
	}
	for _, dst := range mapping {
		s.world.RemapEntityReferences(dst, mapping)
	}

	// Sources are in pre-order, so every parent is cached before its children
	for _, src := range sources {
		dst, ok := mapping[src.entity]
		if !ok {
			continue
		}
		if comp := s.nodes.Read(dst); comp != nil {
			s.cache.add(dst, comp.Parent)
		}
	}
	return s.cache.node(mapping[node.entity])
}

// DestroyNode destroys node and its whole subtree, leaves first. Destroying
// the root is a no-op.
func (s *NodeSystem) DestroyNode(node *SceneNode) {
	if node == nil || node.IsRoot() {
		return
	}
	s.cache.Refresh()
	if node.removed {
		return
	}

	var parent *SceneNode
	index := -1
	if node.attached {
		parent = s.cache.node(node.last.parent)
		if parent != nil {
			index = slices.Index(parent.children, node)
		}
	}

	stack := append(s.destroying[:0], node)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if child := top.popChildNoRefresh(); child != nil {
			stack = append(stack, child)
			continue
		}
		stack = stack[:len(stack)-1]
		s.warn.Forget(top.entity)
		s.world.DestroyEntity(top.entity)
	}
	clear(stack[:cap(stack)])
	s.destroying = stack[:0]

	if parent != nil && index >= 0 {
		parent.removeChild(node)
		node.attached = false
		s.notify(parent, ChildRemoved, node, index)
	}
}

// SetEnabled changes e's own enabled flag and cascades the effective flag
// through the cached subtree. When other NodeComponent changes are pending
// the cascade is skipped and the next Update reconciles the subtree.
func (s *NodeSystem) SetEnabled(e ecs.Entity, enabled bool) {
	comp := s.nodes.Read(e)
	if comp == nil || comp.Enabled == enabled {
		return
	}
	s.nodes.Write(e).Enabled = enabled

	n := s.cache.node(e)
	if n == nil || !s.cache.internalNodeUpdate(0) {
		return
	}
	if enabled {
		s.cache.enableTree(n)
	} else {
		s.cache.disableTree(n)
	}
}

// insertChild moves child under parent at index. Moving a node under itself
// or under one of its descendants is refused.
func (s *NodeSystem) insertChild(parent, child *SceneNode, index int) bool {
	if parent == nil || child == nil || child.IsRoot() || parent == child {
		return false
	}
	s.cache.Refresh()
	if child.removed || parent.removed || child.IsAncestorOf(parent) {
		return false
	}
	comp := s.nodes.Read(child.entity)
	if comp == nil {
		return false
	}

	oldParent := s.cache.node(child.last.parent)
	if !child.attached {
		oldParent = nil
	}
	if comp.Parent != parent.entity {
		s.nodes.Write(child.entity).Parent = parent.entity
	}

	from, to := s.cache.move(child, parent, index)
	s.cache.internalNodeUpdate(0)

	if oldParent != nil && from >= 0 {
		s.notify(oldParent, ChildRemoved, child, from)
	}
	s.notify(parent, ChildAdded, child, to)
	return true
}

func (s *NodeSystem) AddListener(l SceneNodeListener) {
	s.listeners = append(s.listeners, l)
}

func (s *NodeSystem) RemoveListener(l SceneNodeListener) {
	if idx := slices.Index(s.listeners, l); idx >= 0 {
		s.listeners = slices.Delete(s.listeners, idx, idx+1)
	}
}

func (s *NodeSystem) notify(parent *SceneNode, change ChangeType, child *SceneNode, index int) {
	for _, l := range s.listeners {
		l.OnChildChanged(parent, change, child, index)
	}
}

// WorldBounds returns the world space bounds of node for picking. Skinned
// nodes use their combined joint bounds; other nodes transform the static
// mesh bounds by their world matrix.
func (s *NodeSystem) WorldBounds(node *SceneNode) (Aabb, bool) {
	if joints := ecs.Table[JointMatricesComponent](s.world).Read(node.entity); joints != nil {
		bounds := joints.Bounds()
		return bounds, !bounds.Empty()
	}
	rm := ecs.Table[RenderMeshComponent](s.world).Read(node.entity)
	if rm == nil {
		return EmptyAabb(), false
	}
	mesh := ecs.Table[MeshComponent](s.world).Read(rm.Mesh)
	if mesh == nil || mesh.Bounds.Empty() {
		return EmptyAabb(), false
	}
	return mesh.Bounds.Transform(node.WorldMatrix()), true
}
