package ecs_test

import "github.com/plus3/scenegraph/ecs"

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type Temperature float64

type Inventory struct {
	Items []string
}

type Stats struct {
	Attributes map[string]int
}

type Follow struct {
	Target ecs.Entity
}

type Squad struct {
	Leader  ecs.Entity
	Members []ecs.Entity
	Slots   [2]ecs.Entity
}

type Link struct {
	Next struct {
		Target ecs.Entity
	}
}

func newTestRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Name](registry)
	ecs.RegisterComponent[Health](registry)
	ecs.RegisterComponent[Temperature](registry)
	ecs.RegisterComponent[Inventory](registry)
	ecs.RegisterComponent[Stats](registry)
	ecs.RegisterComponent[Follow](registry)
	ecs.RegisterComponent[Squad](registry)
	ecs.RegisterComponent[Link](registry)
	return registry
}

func newTestWorld() *ecs.World {
	return ecs.NewWorld(newTestRegistry())
}
