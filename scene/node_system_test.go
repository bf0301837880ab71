package scene_test

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenegraph/ecs"
	"github.com/plus3/scenegraph/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeSystemEndToEnd(t *testing.T) {
	s := newTestScene(t)
	a := s.node("a", s.nodes.RootNode(), mgl32.Vec3{1, 0, 0})
	b := s.node("b", a, mgl32.Vec3{0, 1, 0})

	assert.True(t, s.update())
	assert.True(t, translation(b.WorldMatrix()).ApproxEqual(mgl32.Vec3{1, 1, 0}))
	before := b.WorldMatrix()

	a.SetEnabled(false)
	s.update()

	assert.False(t, a.EffectivelyEnabled())
	assert.False(t, b.EffectivelyEnabled())
	assert.True(t, b.Enabled())
	assert.Equal(t, before, b.WorldMatrix(), "disabled nodes keep their last world matrix")

	// Moving a disabled subtree does not touch world matrices
	a.SetPosition(mgl32.Vec3{5, 0, 0})
	s.update()
	assert.Equal(t, before, b.WorldMatrix())

	a.SetEnabled(true)
	s.update()
	assert.True(t, b.EffectivelyEnabled())
	assert.True(t, translation(b.WorldMatrix()).ApproxEqual(mgl32.Vec3{5, 1, 0}))
}

func TestNodeSystemFastExit(t *testing.T) {
	s := newTestScene(t)
	s.node("a", nil, mgl32.Vec3{1, 2, 3})

	assert.True(t, s.update())
	assert.False(t, s.update())
	assert.False(t, s.update())
}

func TestNodeSystemWorldIsParentTimesLocal(t *testing.T) {
	s := newTestScene(t)
	root := s.nodes.RootNode()

	// Four levels, three children each, with rotation and scale mixed in
	var all []*scene.SceneNode
	level := []*scene.SceneNode{root}
	for depth := 0; depth < 4; depth++ {
		var next []*scene.SceneNode
		for _, parent := range level {
			for i := 0; i < 3; i++ {
				n := s.node("n", parent, mgl32.Vec3{float32(i), float32(depth), 1})
				n.SetRotation(mgl32.QuatRotate(float32(i+depth)*0.3, mgl32.Vec3{0, 1, 0}))
				n.SetScale(mgl32.Vec3{1, 1.5, 1})
				next = append(next, n)
				all = append(all, n)
			}
		}
		level = next
	}

	check := func() {
		t.Helper()
		for _, n := range all {
			parent := n.Parent()
			require.NotNil(t, parent)
			want := s.local(n)
			if !parent.IsRoot() {
				want = parent.WorldMatrix().Mul4(want)
			}
			assert.True(t, n.WorldMatrix().ApproxEqualThreshold(want, 1e-4), "node %s", n.Entity())
		}
	}

	s.update()
	check()

	// Change nodes at different depths over several frames
	for frame := 0; frame < 5; frame++ {
		n := all[(frame*7)%len(all)]
		n.SetPosition(n.Position().Add(mgl32.Vec3{0.5, 0, -0.25}))
		s.update()
		check()
	}

	// Reparent a subtree and check again
	all[1].SetParent(all[len(all)-1])
	s.update()
	check()
}

func TestNodeSystemReenableRespectsLocalOverride(t *testing.T) {
	s := newTestScene(t)
	a := s.node("a", nil, mgl32.Vec3{})
	b := s.node("b", a, mgl32.Vec3{})
	c := s.node("c", b, mgl32.Vec3{})
	s.update()

	b.SetEnabled(false)
	s.update()
	a.SetEnabled(false)
	s.update()
	a.SetEnabled(true)
	s.update()

	assert.True(t, a.EffectivelyEnabled())
	assert.False(t, b.EffectivelyEnabled())
	assert.False(t, c.EffectivelyEnabled())

	b.SetEnabled(true)
	s.update()
	assert.True(t, b.EffectivelyEnabled())
	assert.True(t, c.EffectivelyEnabled())
}

func TestNodeSystemCascadeWithPendingChanges(t *testing.T) {
	s := newTestScene(t)
	a := s.node("a", nil, mgl32.Vec3{})
	b := s.node("b", a, mgl32.Vec3{})
	other := s.node("other", nil, mgl32.Vec3{})
	s.update()

	// An unrelated NodeComponent write leaves the cache more than one step
	// behind, so the cascade is skipped until the next update
	ecs.Table[scene.NodeComponent](s.world).Write(other.Entity())
	a.SetEnabled(false)

	assert.False(t, a.Enabled())
	assert.True(t, b.EffectivelyEnabled())

	s.update()
	assert.False(t, a.EffectivelyEnabled())
	assert.False(t, b.EffectivelyEnabled())
}

func TestNodeSystemCascadeIsImmediate(t *testing.T) {
	s := newTestScene(t)
	a := s.node("a", nil, mgl32.Vec3{})
	b := s.node("b", a, mgl32.Vec3{})
	s.update()

	a.SetEnabled(false)
	assert.False(t, b.EffectivelyEnabled())
	a.SetEnabled(true)
	assert.True(t, b.EffectivelyEnabled())
}

func TestNodeSystemPreviousWorldMatrix(t *testing.T) {
	s := newTestScene(t)
	a := s.node("a", nil, mgl32.Vec3{1, 0, 0})

	s.update()
	first := a.WorldMatrix()
	prev, ok := s.previous(a)
	require.True(t, ok)
	assert.Equal(t, first, prev, "previous starts at the first computed world matrix")

	a.SetPosition(mgl32.Vec3{2, 0, 0})
	s.update()
	second := a.WorldMatrix()
	prev, _ = s.previous(a)
	assert.Equal(t, first, prev)
	assert.NotEqual(t, first, second)

	s.update()
	prev, _ = s.previous(a)
	assert.Equal(t, second, prev)

	s.update()
	prev, _ = s.previous(a)
	assert.Equal(t, second, prev)
}

func TestNodeSystemReparent(t *testing.T) {
	s := newTestScene(t)
	oldParent := s.node("old", nil, mgl32.Vec3{})
	newParent := s.node("new", nil, mgl32.Vec3{10, 0, 0})
	child := s.node("child", oldParent, mgl32.Vec3{1, 0, 0})
	s.update()

	t.Run("through the node API", func(t *testing.T) {
		require.True(t, child.SetParent(newParent))
		assert.Equal(t, []string{"child"}, names(newParent.Children()))
		assert.Empty(t, oldParent.Children())
		assert.Same(t, newParent, child.Parent())

		s.update()
		assert.True(t, translation(child.WorldMatrix()).ApproxEqual(mgl32.Vec3{11, 0, 0}))
	})

	t.Run("through the component table", func(t *testing.T) {
		ecs.Table[scene.NodeComponent](s.world).Write(child.Entity()).Parent = oldParent.Entity()
		s.nodes.Cache().Refresh()

		assert.Equal(t, []string{"child"}, names(oldParent.Children()))
		assert.Empty(t, newParent.Children())

		s.update()
		assert.True(t, translation(child.WorldMatrix()).ApproxEqual(mgl32.Vec3{1, 0, 0}))
	})
}

func TestNodeSystemParentCreatedAfterChild(t *testing.T) {
	s := newTestScene(t)
	nodes := ecs.Table[scene.NodeComponent](s.world)

	parent := s.world.CreateEntity()
	child := s.world.CreateEntity()
	nodes.Create(child, scene.NodeComponent{Parent: parent, Enabled: true, EffectivelyEnabled: true})

	childNode := s.nodes.GetNode(child)
	require.NotNil(t, childNode)
	assert.Nil(t, childNode.Parent())

	nodes.Create(parent, scene.NodeComponent{Parent: ecs.Root, Enabled: true, EffectivelyEnabled: true})
	parentNode := s.nodes.GetNode(parent)
	require.NotNil(t, parentNode)
	assert.Same(t, parentNode, childNode.Parent())
	assert.Equal(t, []*scene.SceneNode{childNode}, parentNode.Children())
}

func TestNodeSystemInsertChild(t *testing.T) {
	s := newTestScene(t)
	parent := s.node("parent", nil, mgl32.Vec3{})
	s.node("a", parent, mgl32.Vec3{})
	s.node("c", parent, mgl32.Vec3{})
	b := s.node("b", nil, mgl32.Vec3{})

	require.True(t, parent.InsertChild(1, b))
	assert.Equal(t, []string{"a", "b", "c"}, names(parent.Children()))

	// Reordering within the same parent
	require.True(t, parent.InsertChild(0, b))
	assert.Equal(t, []string{"b", "a", "c"}, names(parent.Children()))

	// Out of range appends
	require.True(t, parent.InsertChild(99, b))
	assert.Equal(t, []string{"a", "c", "b"}, names(parent.Children()))
	assert.Same(t, b, parent.GetChild("b"))
}

func TestNodeSystemCycleGuard(t *testing.T) {
	s := newTestScene(t)
	a := s.node("a", nil, mgl32.Vec3{})
	b := s.node("b", a, mgl32.Vec3{})
	c := s.node("c", b, mgl32.Vec3{})

	assert.False(t, c.AddChild(a))
	assert.False(t, b.AddChild(b))
	assert.False(t, a.SetParent(c))
	assert.False(t, s.nodes.RootNode().SetParent(a))
	assert.Same(t, s.nodes.RootNode(), a.Parent())
	assert.Equal(t, "/a/b/c", c.Path())
}

func TestNodeSystemRemoveChild(t *testing.T) {
	s := newTestScene(t)
	root := s.nodes.RootNode()
	parent := s.node("parent", nil, mgl32.Vec3{})
	a := s.node("a", parent, mgl32.Vec3{})
	s.node("b", parent, mgl32.Vec3{})
	stranger := s.node("stranger", nil, mgl32.Vec3{})

	assert.False(t, parent.RemoveChild(stranger))

	require.True(t, parent.RemoveChild(a))
	assert.Same(t, root, a.Parent(), "removed children move to the root")
	assert.Equal(t, []string{"b"}, names(parent.Children()))

	parent.RemoveChildren()
	assert.Empty(t, parent.Children())
	assert.Equal(t, []string{"parent", "stranger", "a", "b"}, names(root.Children()))
}

func TestNodeSystemRootRemoveChildren(t *testing.T) {
	s := newTestScene(t)
	root := s.nodes.RootNode()
	a := s.node("a", nil, mgl32.Vec3{})
	s.node("b", nil, mgl32.Vec3{})

	listener := &recordingListener{}
	s.nodes.AddListener(listener)

	assert.False(t, root.RemoveChild(a))

	done := make(chan struct{})
	go func() {
		root.RemoveChildren()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RemoveChildren on the root did not return")
	}

	assert.Equal(t, []string{"a", "b"}, names(root.Children()))
	assert.Empty(t, listener.events)
}

func TestNodeSystemPathWithParentCycle(t *testing.T) {
	s := newTestScene(t)
	a := s.node("a", nil, mgl32.Vec3{})
	b := s.node("b", a, mgl32.Vec3{})
	assert.Equal(t, "/a/b", b.Path())

	// A direct table write links a back under its own child
	ecs.Table[scene.NodeComponent](s.world).Write(a.Entity()).Parent = b.Entity()

	done := make(chan string, 1)
	go func() { done <- b.Path() }()
	select {
	case path := <-done:
		assert.NotEmpty(t, path)
	case <-time.After(2 * time.Second):
		t.Fatal("Path did not return on a parent cycle")
	}
}

func TestNodeSystemListeners(t *testing.T) {
	s := newTestScene(t)
	parent := s.node("parent", nil, mgl32.Vec3{})
	a := s.node("a", nil, mgl32.Vec3{})
	b := s.node("b", nil, mgl32.Vec3{})

	listener := &recordingListener{}
	s.nodes.AddListener(listener)

	parent.AddChild(a)
	parent.InsertChild(0, b)
	parent.RemoveChild(a)
	s.nodes.DestroyNode(b)

	assert.Equal(t, []childEvent{
		{"", scene.ChildRemoved, "a", 1},
		{"parent", scene.ChildAdded, "a", 0},
		{"", scene.ChildRemoved, "b", 1},
		{"parent", scene.ChildAdded, "b", 0},
		{"parent", scene.ChildRemoved, "a", 1},
		{"", scene.ChildAdded, "a", 1},
		{"parent", scene.ChildRemoved, "b", 0},
	}, listener.events)

	s.nodes.RemoveListener(listener)
	parent.AddChild(a)
	assert.Len(t, listener.events, 7)
}

func TestNodeSystemDestroyNode(t *testing.T) {
	s := newTestScene(t)
	a := s.node("a", nil, mgl32.Vec3{})
	b := s.node("b", a, mgl32.Vec3{})
	c := s.node("c", b, mgl32.Vec3{})
	d := s.node("d", a, mgl32.Vec3{})
	keep := s.node("keep", nil, mgl32.Vec3{})
	s.update()

	s.nodes.DestroyNode(a)

	for _, n := range []*scene.SceneNode{a, b, c, d} {
		assert.False(t, s.world.Alive(n.Entity()))
		assert.Nil(t, s.nodes.GetNode(n.Entity()))
	}
	assert.Equal(t, []string{"keep"}, names(s.nodes.RootNode().Children()))
	assert.Same(t, keep, s.nodes.GetNode(keep.Entity()))
	assert.Equal(t, 2, s.nodes.Cache().Len())

	// Root survives
	s.nodes.DestroyNode(s.nodes.RootNode())
	assert.NotNil(t, s.nodes.RootNode())
	assert.NotPanics(t, func() { s.update() })
}

func TestNodeSystemDestroyedEntityOutsideAPI(t *testing.T) {
	s := newTestScene(t)
	a := s.node("a", nil, mgl32.Vec3{})
	b := s.node("b", a, mgl32.Vec3{})
	s.update()

	s.world.DestroyEntity(a.Entity())
	assert.Nil(t, s.nodes.GetNode(a.Entity()))
	assert.Nil(t, b.Parent(), "orphans are detached from the tree")
	assert.Empty(t, s.nodes.RootNode().Children())
	assert.NotPanics(t, func() { s.update() })
}

func TestNodeSystemCloneNode(t *testing.T) {
	s := newTestScene(t)
	external := s.node("external", nil, mgl32.Vec3{})
	a := s.node("a", nil, mgl32.Vec3{1, 0, 0})
	b := s.node("b", a, mgl32.Vec3{0, 1, 0})
	c := s.node("c", b, mgl32.Vec3{0, 0, 1})

	skin := s.world.CreateEntity()
	ecs.Table[scene.SkinIbmComponent](s.world).Create(skin, scene.SkinIbmComponent{
		Matrices: []mgl32.Mat4{mgl32.Ident4(), mgl32.Ident4(), mgl32.Ident4()},
	})
	require.NoError(t, s.skins.CreateInstance(skin, []ecs.Entity{b.Entity(), c.Entity(), external.Entity()}, a.Entity(), b.Entity()))
	s.update()

	clone := s.nodes.CloneNode(a, true)
	require.NotNil(t, clone)
	assert.NotEqual(t, a.Entity(), clone.Entity())
	assert.Equal(t, "a", clone.Name())
	assert.Same(t, s.nodes.RootNode(), clone.Parent(), "the clone is a sibling of the source")

	cloneB := clone.GetChild("b")
	require.NotNil(t, cloneB)
	cloneC := cloneB.GetChild("c")
	require.NotNil(t, cloneC)
	assert.NotEqual(t, b.Entity(), cloneB.Entity())
	assert.NotEqual(t, c.Entity(), cloneC.Entity())

	joints := ecs.Table[scene.SkinJointsComponent](s.world)
	assert.Equal(t, []ecs.Entity{cloneB.Entity(), cloneC.Entity(), external.Entity()}, joints.Read(clone.Entity()).Joints)
	assert.Equal(t, []ecs.Entity{b.Entity(), c.Entity(), external.Entity()}, joints.Read(a.Entity()).Joints)

	skinComp := ecs.Table[scene.SkinComponent](s.world).Read(clone.Entity())
	assert.Equal(t, clone.Entity(), skinComp.SkinRoot)
	assert.Equal(t, cloneB.Entity(), skinComp.Skeleton)
	assert.Equal(t, skin, skinComp.Skin)

	// Clones are independent nodes
	clone.SetPosition(mgl32.Vec3{-1, 0, 0})
	s.update()
	assert.True(t, translation(cloneC.WorldMatrix()).ApproxEqual(mgl32.Vec3{-1, 1, 1}))
	assert.True(t, translation(c.WorldMatrix()).ApproxEqual(mgl32.Vec3{1, 1, 1}))
}

func TestNodeSystemCloneNodeShallow(t *testing.T) {
	s := newTestScene(t)
	parent := s.node("parent", nil, mgl32.Vec3{})
	a := s.node("a", parent, mgl32.Vec3{})
	s.node("b", a, mgl32.Vec3{})

	clone := s.nodes.CloneNode(a, false)
	require.NotNil(t, clone)
	assert.Empty(t, clone.Children())
	assert.Same(t, parent, clone.Parent())
	assert.Equal(t, []string{"a", "a"}, names(parent.Children()))

	assert.Nil(t, s.nodes.CloneNode(s.nodes.RootNode(), true))
}

func TestNodeSystemLookups(t *testing.T) {
	s := newTestScene(t)
	world := s.node("world", nil, mgl32.Vec3{})
	house := s.node("house", world, mgl32.Vec3{})
	door := s.node("door", house, mgl32.Vec3{})
	tree := s.node("tree", world, mgl32.Vec3{})

	mesh := s.world.CreateEntity()
	renderMeshes := ecs.Table[scene.RenderMeshComponent](s.world)
	renderMeshes.Create(door.Entity(), scene.RenderMeshComponent{Mesh: mesh})
	renderMeshes.Create(tree.Entity(), scene.RenderMeshComponent{Mesh: mesh})

	assert.Equal(t, "/world/house/door", door.Path())
	assert.Equal(t, "/", s.nodes.RootNode().Path())

	assert.Same(t, door, world.LookupNodeByPath("house/door"))
	assert.Same(t, door, tree.LookupNodeByPath("/world/house/door"))
	assert.Nil(t, world.LookupNodeByPath("house/window"))

	assert.Same(t, door, s.nodes.RootNode().LookupNodeByName("door"))
	assert.Nil(t, house.LookupNodeByName("tree"))

	assert.Same(t, tree, scene.LookupNodeByComponent[scene.RenderMeshComponent](world, scene.SingleLevel))
	assert.Same(t, door, scene.LookupNodeByComponent[scene.RenderMeshComponent](world, scene.Recursive))
	assert.Equal(t, []*scene.SceneNode{door, tree},
		scene.LookupNodesByComponent[scene.RenderMeshComponent](world, scene.Recursive))
	assert.Nil(t, scene.LookupNodeByComponent[scene.SkinComponent](world, scene.Recursive))
}

func TestNodeSystemWorldBounds(t *testing.T) {
	s := newTestScene(t)
	n := s.node("n", nil, mgl32.Vec3{10, 0, 0})

	_, ok := s.nodes.WorldBounds(n)
	assert.False(t, ok)

	mesh := s.world.CreateEntity()
	ecs.Table[scene.MeshComponent](s.world).Create(mesh, scene.MeshComponent{
		Bounds: scene.Aabb{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}},
	})
	ecs.Table[scene.RenderMeshComponent](s.world).Create(n.Entity(), scene.RenderMeshComponent{Mesh: mesh})
	s.update()

	bounds, ok := s.nodes.WorldBounds(n)
	require.True(t, ok)
	assert.True(t, bounds.Min.ApproxEqual(mgl32.Vec3{9, -1, -1}))
	assert.True(t, bounds.Max.ApproxEqual(mgl32.Vec3{11, 1, 1}))
}
