package ecs

import "time"

// UpdateFrame carries the per-frame arguments handed to every system.
type UpdateFrame struct {
	FrameRenderingQueued bool
	Time                 time.Duration
	DeltaTime            time.Duration
	Commands             *Commands
	World                *World
}

func newUpdateFrame(world *World, commands *Commands) *UpdateFrame {
	return &UpdateFrame{
		Commands: commands,
		World:    world,
	}
}
