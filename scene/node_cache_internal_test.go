package scene

import (
	"testing"

	"github.com/plus3/scenegraph/ecs"
	"go.uber.org/zap"
)

func newInternalSystem(t *testing.T) (*ecs.World, *NodeSystem) {
	t.Helper()
	registry := ecs.NewComponentRegistry()
	RegisterComponents(registry)
	world := ecs.NewWorld(registry)
	return world, NewNodeSystem(world, zap.NewNop())
}

func TestRefreshIsIdempotent(t *testing.T) {
	_, s := newInternalSystem(t)
	a := s.CreateNode()
	s.CreateNode().SetParent(a)

	s.cache.Refresh()
	before := s.cache.refreshes
	s.cache.Refresh()
	s.cache.Refresh()
	if s.cache.refreshes != before {
		t.Errorf("expected no full refresh, got %d", s.cache.refreshes-before)
	}
	if len(a.children) != 1 {
		t.Errorf("expected 1 child, got %d", len(a.children))
	}
}

func TestCreateNodeSkipsRefresh(t *testing.T) {
	_, s := newInternalSystem(t)
	s.cache.Refresh()
	before := s.cache.refreshes

	parent := s.CreateNode()
	child := s.CreateNode()
	child.SetParent(parent)
	s.cache.Refresh()

	if s.cache.refreshes != before {
		t.Errorf("expected mutations through the node API to keep the cache current")
	}
	if got := s.cache.node(child.entity); got != child {
		t.Errorf("child not cached")
	}
}

func TestDirectWriteForcesRefresh(t *testing.T) {
	world, s := newInternalSystem(t)
	a := s.CreateNode()
	b := s.CreateNode()
	s.cache.Refresh()
	before := s.cache.refreshes

	ecs.Table[NodeComponent](world).Write(b.entity).Parent = a.entity
	s.cache.Refresh()

	if s.cache.refreshes != before+1 {
		t.Errorf("expected one full refresh, got %d", s.cache.refreshes-before)
	}
	if !b.parentChanged {
		t.Errorf("expected reparent to be flagged for dirty detection")
	}
}

func TestDisableCascadePrunesDisabledSubtrees(t *testing.T) {
	// a -> b -> c -> d, b disabled beforehand
	_, s := newInternalSystem(t)
	a := s.CreateNode()
	b := s.CreateNode()
	c := s.CreateNode()
	d := s.CreateNode()
	b.SetParent(a)
	c.SetParent(b)
	d.SetParent(c)
	e := s.CreateNode()
	e.SetParent(a)

	s.SetEnabled(b.entity, false)

	s.cache.visited = 0
	s.SetEnabled(a.entity, false)
	// a, its enabled child e, and b which is already off
	if s.cache.visited != 3 {
		t.Errorf("expected 3 visits, got %d", s.cache.visited)
	}
	for _, n := range []*SceneNode{a, b, c, d, e} {
		if n.EffectivelyEnabled() {
			t.Errorf("node %s still effectively enabled", n.entity)
		}
	}

	s.cache.visited = 0
	s.SetEnabled(a.entity, true)
	// a, e and b which stops the walk
	if s.cache.visited != 3 {
		t.Errorf("expected 3 visits, got %d", s.cache.visited)
	}
	if c.EffectivelyEnabled() || d.EffectivelyEnabled() {
		t.Errorf("descendants of a disabled node must stay disabled")
	}
}

func TestRootNodePanicsWithoutRoot(t *testing.T) {
	_, s := newInternalSystem(t)
	s.cache.lookUp.Del(ecs.Root)

	defer func() {
		if recover() == nil {
			t.Errorf("expected panic")
		}
	}()
	s.RootNode()
}
