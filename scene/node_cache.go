package scene

import (
	"slices"

	"github.com/kamstrup/intmap"
	"github.com/plus3/scenegraph/ecs"
)

// NodeCache mirrors the NodeComponent parent links as a tree of SceneNodes.
//
// The mirror is refreshed lazily: mutations made directly on the
// NodeComponent table become visible on the next Refresh. Refresh is O(1)
// while neither the NodeComponent table nor the entity store has changed.
type NodeCache struct {
	system *NodeSystem
	world  *ecs.World
	nodes  *ecs.ComponentTable[NodeComponent]

	// entities is sorted ascending and parallel to entries
	entities []ecs.Entity
	entries  []*SceneNode
	lookUp   *intmap.Map[ecs.Entity, *SceneNode]

	nodeGeneration   uint64
	entityGeneration uint64
	synced           bool

	scratchEntities []ecs.Entity
	scratchEntries  []*SceneNode
	cascade         []*SceneNode

	// refreshes counts full refreshes; visited counts enable cascade steps
	refreshes int
	visited   int
}

func newNodeCache(system *NodeSystem) *NodeCache {
	c := &NodeCache{
		system: system,
		world:  system.world,
		nodes:  system.nodes,
		lookUp: intmap.New[ecs.Entity, *SceneNode](256),
	}
	root := newSceneNode(system, ecs.Root)
	c.entities = append(c.entities, ecs.Root)
	c.entries = append(c.entries, root)
	c.lookUp.Put(ecs.Root, root)
	return c
}

// Len returns the number of cached nodes, including the root
func (c *NodeCache) Len() int {
	return len(c.entries)
}

func (c *NodeCache) node(e ecs.Entity) *SceneNode {
	n, _ := c.lookUp.Get(e)
	return n
}

// Refresh synchronizes the tree with the NodeComponent table
func (c *NodeCache) Refresh() {
	nodeGeneration := c.nodes.Generation()
	entityGeneration := c.world.Entities().Generation()
	if c.synced && nodeGeneration == c.nodeGeneration && entityGeneration == c.entityGeneration {
		return
	}
	c.refreshes++

	current := append(c.scratchEntities[:0], ecs.Root)
	for e := range c.nodes.Iter() {
		if e != ecs.Root && c.world.Alive(e) {
			current = append(current, e)
		}
	}
	slices.Sort(current)

	// Set difference against the previous entity list. Disappeared nodes are
	// dropped, new nodes created and persisted nodes checked for a new parent.
	entries := c.scratchEntries[:0]
	i, j := 0, 0
	for i < len(c.entities) || j < len(current) {
		switch {
		case j == len(current) || (i < len(c.entities) && c.entities[i] < current[j]):
			c.remove(c.entries[i])
			i++
		case i == len(c.entities) || current[j] < c.entities[i]:
			n := newSceneNode(c.system, current[j])
			if comp := c.nodes.Read(n.entity); comp != nil {
				n.last.parent = comp.Parent
			}
			n.parentChanged = true
			c.lookUp.Put(n.entity, n)
			entries = append(entries, n)
			j++
		default:
			n := c.entries[i]
			if comp := c.nodes.Read(n.entity); comp != nil && comp.Parent != n.last.parent {
				c.detach(n)
				n.last.parent = comp.Parent
				n.parentChanged = true
			}
			entries = append(entries, n)
			i++
			j++
		}
	}

	c.scratchEntities, c.entities = c.entities[:0], current
	c.scratchEntries, c.entries = c.entries[:0], entries

	// Attach every node whose parent is known. This covers new nodes,
	// reparented nodes and nodes whose parent appeared after they did.
	for _, n := range c.entries {
		if n.entity == ecs.Root || n.attached {
			continue
		}
		if parent := c.node(n.last.parent); parent != nil {
			c.attach(parent, n, -1)
		}
	}

	c.nodeGeneration = nodeGeneration
	c.entityGeneration = entityGeneration
	c.synced = true
}

// internalNodeUpdate marks the cache as current after a mutation the caller
// has already mirrored into the tree. It only advances when the NodeComponent
// table moved by exactly one step and the entity store by entitySteps;
// otherwise something else changed too and the next Refresh must run.
func (c *NodeCache) internalNodeUpdate(entitySteps uint64) bool {
	nodeGeneration := c.nodes.Generation()
	entityGeneration := c.world.Entities().Generation()
	if !c.synced || nodeGeneration != c.nodeGeneration+1 || entityGeneration != c.entityGeneration+entitySteps {
		return false
	}
	c.nodeGeneration = nodeGeneration
	c.entityGeneration = entityGeneration
	return true
}

// add inserts a node for e under parent without a full Refresh
func (c *NodeCache) add(e, parent ecs.Entity) *SceneNode {
	if n := c.node(e); n != nil {
		return n
	}
	n := newSceneNode(c.system, e)
	n.last.parent = parent
	n.parentChanged = true

	idx, _ := slices.BinarySearch(c.entities, e)
	c.entities = slices.Insert(c.entities, idx, e)
	c.entries = slices.Insert(c.entries, idx, n)
	c.lookUp.Put(e, n)

	if p := c.node(parent); p != nil {
		c.attach(p, n, -1)
	}
	return n
}

func (c *NodeCache) remove(n *SceneNode) {
	c.detach(n)
	if comp := c.nodes.Read(n.entity); comp != nil && comp.Parent != n.last.parent {
		if p := c.node(comp.Parent); p != nil {
			p.removeChild(n)
		}
	}
	for _, child := range n.children {
		child.attached = false
	}
	n.children = nil
	n.removed = true
	c.lookUp.Del(n.entity)
}

// attach inserts n into parent's children at index, or appends when index is
// out of range.
func (c *NodeCache) attach(parent, n *SceneNode, index int) int {
	if index < 0 || index > len(parent.children) {
		index = len(parent.children)
	}
	parent.children = slices.Insert(parent.children, index, n)
	n.attached = true
	return index
}

// detach removes n from its cached parent's children. It returns n's former
// index, or -1 when n was not attached.
func (c *NodeCache) detach(n *SceneNode) int {
	if !n.attached {
		return -1
	}
	n.attached = false
	if parent := c.node(n.last.parent); parent != nil {
		return parent.removeChild(n)
	}
	return -1
}

// move reparents n in the tree and records the change for dirty detection
func (c *NodeCache) move(n, parent *SceneNode, index int) (int, int) {
	from := c.detach(n)
	n.last.parent = parent.entity
	n.parentChanged = true
	return from, c.attach(parent, n, index)
}

// disableTree clears EffectivelyEnabled on n and every descendant that is
// still effectively enabled. Subtrees that are already disabled are skipped.
func (c *NodeCache) disableTree(n *SceneNode) {
	stack := append(c.cascade[:0], n)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c.visited++

		comp := c.nodes.Read(top.entity)
		if comp == nil || !comp.EffectivelyEnabled {
			continue
		}
		comp.EffectivelyEnabled = false
		stack = append(stack, top.children...)
	}
	c.cascade = stack[:0]
}

// enableTree sets EffectivelyEnabled on n and its descendants, stopping at
// any node whose own Enabled flag is false.
func (c *NodeCache) enableTree(n *SceneNode) {
	if !c.effectivelyEnabled(n.parentEntity()) {
		return
	}
	stack := append(c.cascade[:0], n)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c.visited++

		comp := c.nodes.Read(top.entity)
		if comp == nil || !comp.Enabled || comp.EffectivelyEnabled {
			continue
		}
		comp.EffectivelyEnabled = true
		stack = append(stack, top.children...)
	}
	c.cascade = stack[:0]
}

func (c *NodeCache) effectivelyEnabled(e ecs.Entity) bool {
	if e == ecs.Root {
		return true
	}
	comp := c.nodes.Read(e)
	return comp == nil || comp.EffectivelyEnabled
}
