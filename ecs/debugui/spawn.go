package debugui

import (
	"github.com/plus3/scenegraph/ecs"
	"github.com/plus3/scenegraph/scene"
)

// Inspector bundles the scene inspector windows. Their state lives in
// components on a single entity.
type Inspector struct {
	Entity    ecs.Entity
	world     *ecs.World
	nodes     *scene.NodeSystem
	scheduler *ecs.Scheduler
	timer     *FrameTimer
}

// SpawnDebugUI creates the inspector entity and the ImguiItem that renders
// it. The world must have the debugui components registered.
func SpawnDebugUI(world *ecs.World, nodes *scene.NodeSystem, scheduler *ecs.Scheduler) *Inspector {
	in := &Inspector{
		Entity:    world.CreateEntity(),
		world:     world,
		nodes:     nodes,
		scheduler: scheduler,
		timer:     NewFrameTimer(),
	}
	ecs.Table[SceneTreeComponent](world).Create(in.Entity, NewSceneTreeComponent(200))
	ecs.Table[NodeInspectorComponent](world).Create(in.Entity, NewNodeInspectorComponent())
	ecs.Table[PerformanceStatsComponent](world).Create(in.Entity, NewPerformanceStatsComponent(120))
	ecs.Table[ImguiItem](world).Create(in.Entity, ImguiItem{Render: in.render})
	return in
}

// Selected returns the entity picked in the scene tree, or Root
func (in *Inspector) Selected() ecs.Entity {
	if tree := ecs.Table[SceneTreeComponent](in.world).Read(in.Entity); tree != nil {
		return tree.Selected()
	}
	return ecs.Root
}

func (in *Inspector) render() {
	if perf := ecs.Table[PerformanceStatsComponent](in.world).Read(in.Entity); perf != nil {
		perf.Record(in.timer.GetDeltaTime())
		perf.Render(in.world, in.scheduler)
	}

	tree := ecs.Table[SceneTreeComponent](in.world).Read(in.Entity)
	if tree == nil {
		return
	}
	tree.Render(in.nodes)

	if inspector := ecs.Table[NodeInspectorComponent](in.world).Read(in.Entity); inspector != nil {
		inspector.Render(in.world, in.nodes, tree.Selected())
	}
}
