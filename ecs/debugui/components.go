package debugui

import (
	"github.com/plus3/scenegraph/ecs"
)

type SceneTreeComponent struct {
	selected    ecs.Entity
	filterText  string
	maxRows     int
	currentPage int
}

type NodeInspectorComponent struct {
	showMatrices bool
}

type PerformanceStatsComponent struct {
	historyFrames int
	frameHistory  []float32
	frameIndex    int
	samples       int
}

func RegisterDebugUIComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[ImguiItem](registry)
	ecs.RegisterComponent[SceneTreeComponent](registry)
	ecs.RegisterComponent[NodeInspectorComponent](registry)
	ecs.RegisterComponent[PerformanceStatsComponent](registry)
}
