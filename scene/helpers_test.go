package scene_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenegraph/ecs"
	"github.com/plus3/scenegraph/scene"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type testScene struct {
	world  *ecs.World
	nodes  *scene.NodeSystem
	locals *scene.LocalMatrixSystem
	skins  *scene.SkinningSystem
	frame  *ecs.UpdateFrame
}

func newTestScene(t testing.TB) *testScene {
	return newTestSceneWithLogger(zaptest.NewLogger(t))
}

func newTestSceneWithLogger(log *zap.Logger) *testScene {
	registry := ecs.NewComponentRegistry()
	scene.RegisterComponents(registry)
	world := ecs.NewWorld(registry)
	return &testScene{
		world:  world,
		nodes:  scene.NewNodeSystem(world, log),
		locals: scene.NewLocalMatrixSystem(world),
		skins:  scene.NewSkinningSystem(world, log),
		frame:  &ecs.UpdateFrame{World: world},
	}
}

// update runs one frame in the usual system order and reports whether the
// node system recomputed anything
func (s *testScene) update() bool {
	s.locals.Update(s.frame)
	changed := s.nodes.Update(s.frame)
	s.skins.Update(s.frame)
	return changed
}

func (s *testScene) node(name string, parent *scene.SceneNode, position mgl32.Vec3) *scene.SceneNode {
	n := s.nodes.CreateNode()
	n.SetName(name)
	n.SetPosition(position)
	if parent != nil {
		parent.AddChild(n)
	}
	return n
}

func (s *testScene) local(n *scene.SceneNode) mgl32.Mat4 {
	return ecs.Table[scene.LocalMatrixComponent](s.world).Read(n.Entity()).Matrix
}

func (s *testScene) previous(n *scene.SceneNode) (mgl32.Mat4, bool) {
	prev := ecs.Table[scene.PreviousWorldMatrixComponent](s.world).Read(n.Entity())
	if prev == nil {
		return mgl32.Mat4{}, false
	}
	return prev.Matrix, true
}

func translation(m mgl32.Mat4) mgl32.Vec3 {
	return m.Col(3).Vec3()
}

func names(nodes []*scene.SceneNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
}

type childEvent struct {
	parent string
	change scene.ChangeType
	child  string
	index  int
}

type recordingListener struct {
	events []childEvent
}

func (l *recordingListener) OnChildChanged(parent *scene.SceneNode, change scene.ChangeType, child *scene.SceneNode, index int) {
	l.events = append(l.events, childEvent{parent.Name(), change, child.Name(), index})
}
