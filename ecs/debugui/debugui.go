// Package debugui provides Dear ImGui inspector windows for scene graph
// applications. Windows are ECS components rendered through ImguiItem
// entities; ImguiSystem queues every item's render function each frame.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenegraph/ecs"
)

// ImguiItem is a component that holds a Dear ImGui render function.
// Attach this to entities that should render ImGui widgets each frame.
type ImguiItem struct {
	Render func()
}

// ImguiInputState tracks whether Dear ImGui is consuming mouse or keyboard
// input. Game input handlers should ignore events ImGui captured.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiSystem defers every ImguiItem render function to the end of the frame
// and records the current input capture state.
type ImguiSystem struct {
	Items ecs.Query[struct{ *ImguiItem }]
	Input ImguiInputState

	// CaptureState reports imgui's input capture. It defaults to the current
	// imgui IO and is replaceable where no imgui context exists.
	CaptureState func() ImguiInputState
}

func currentCaptureState() ImguiInputState {
	io := imgui.CurrentIO()
	return ImguiInputState{
		WantCaptureMouse:    io.WantCaptureMouse(),
		WantCaptureKeyboard: io.WantCaptureKeyboard(),
	}
}

func (i *ImguiSystem) Update(frame *ecs.UpdateFrame) bool {
	capture := i.CaptureState
	if capture == nil {
		capture = currentCaptureState
	}
	i.Input = capture()

	for item := range i.Items.Values() {
		if item.Render != nil {
			frame.Commands.Defer(item.Render)
		}
	}
	return false
}
