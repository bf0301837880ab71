package debugui_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenegraph/ecs"
	"github.com/plus3/scenegraph/ecs/debugui"
	"github.com/plus3/scenegraph/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorld() *ecs.World {
	registry := ecs.NewComponentRegistry()
	scene.RegisterComponents(registry)
	debugui.RegisterDebugUIComponents(registry)
	return ecs.NewWorld(registry)
}

func TestImguiSystemDefersRenders(t *testing.T) {
	world := newWorld()
	items := ecs.Table[debugui.ImguiItem](world)

	var order []string
	items.Create(world.CreateEntity(), debugui.ImguiItem{Render: func() { order = append(order, "a") }})
	items.Create(world.CreateEntity(), debugui.ImguiItem{})
	items.Create(world.CreateEntity(), debugui.ImguiItem{Render: func() { order = append(order, "b") }})

	system := &debugui.ImguiSystem{
		CaptureState: func() debugui.ImguiInputState {
			return debugui.ImguiInputState{WantCaptureMouse: true}
		},
	}
	scheduler := ecs.NewScheduler(world)
	scheduler.Register(system)

	scheduler.Once(time.Millisecond)
	assert.ElementsMatch(t, []string{"a", "b"}, order)
	assert.True(t, system.Input.WantCaptureMouse)
	assert.False(t, system.Input.WantCaptureKeyboard)

	scheduler.Once(time.Millisecond)
	assert.Len(t, order, 4)
}

func TestPerformanceStatsAverage(t *testing.T) {
	stats := debugui.NewPerformanceStatsComponent(4)
	assert.Zero(t, stats.AverageFrameTime())

	stats.Record(10 * time.Millisecond)
	stats.Record(20 * time.Millisecond)
	assert.InDelta(t, 15, stats.AverageFrameTime(), 1e-4)

	for i := 0; i < 4; i++ {
		stats.Record(5 * time.Millisecond)
	}
	assert.InDelta(t, 5, stats.AverageFrameTime(), 1e-4, "old samples are overwritten")

	empty := debugui.NewPerformanceStatsComponent(0)
	empty.Record(time.Millisecond)
	assert.Zero(t, empty.AverageFrameTime())
}

func TestReflectionCache(t *testing.T) {
	cache := debugui.NewReflectionCache()
	fields := cache.GetFields(reflect.TypeFor[scene.TransformComponent]())
	require.Len(t, fields, 3)
	assert.Equal(t, "Position", fields[0].Name)
	assert.True(t, fields[0].IsVector)
	assert.False(t, fields[1].IsVector, "quaternions are structs")

	matrix := cache.GetFields(reflect.TypeFor[scene.WorldMatrixComponent]())
	require.Len(t, matrix, 1)
	assert.True(t, matrix[0].IsMatrix)

	node := cache.GetFields(reflect.TypeFor[scene.NodeComponent]())
	require.NotEmpty(t, node)
	assert.Equal(t, "Parent", node[0].Name)
	assert.True(t, node[0].IsEntity)

	assert.Empty(t, cache.GetFields(reflect.TypeFor[mgl32.Vec3]()))
}

func TestSpawnDebugUI(t *testing.T) {
	world := newWorld()
	nodes := scene.NewNodeSystem(world, nil)
	scheduler := ecs.NewScheduler(world)

	inspector := debugui.SpawnDebugUI(world, nodes, scheduler)
	assert.Equal(t, ecs.Root, inspector.Selected())
	assert.True(t, ecs.Table[debugui.ImguiItem](world).Has(inspector.Entity))
	assert.True(t, ecs.Table[debugui.SceneTreeComponent](world).Has(inspector.Entity))

	node := nodes.CreateNode()
	ecs.Table[debugui.SceneTreeComponent](world).Write(inspector.Entity).Select(node.Entity())
	assert.Equal(t, node.Entity(), inspector.Selected())
}
