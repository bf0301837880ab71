package ecs_test

import (
	"testing"

	"github.com/plus3/scenegraph/ecs"
)

func BenchmarkTableCreate(b *testing.B) {
	world := newTestWorld()
	positions := ecs.Table[Position](world)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		positions.Create(world.CreateEntity(), Position{X: float32(i)})
	}
}

func BenchmarkTableWrite(b *testing.B) {
	world := newTestWorld()
	positions := ecs.Table[Position](world)
	entities := make([]ecs.Entity, 1000)
	for i := range entities {
		entities[i] = world.CreateEntity()
		positions.Create(entities[i], Position{})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		positions.Write(entities[i%len(entities)]).X++
	}
}

func BenchmarkQueryExecute(b *testing.B) {
	world := newTestWorld()
	positions := ecs.Table[Position](world)
	velocities := ecs.Table[Velocity](world)
	for i := 0; i < 10000; i++ {
		e := world.CreateEntity()
		positions.Create(e, Position{})
		if i%2 == 0 {
			velocities.Create(e, Velocity{DX: 1})
		}
	}

	query := ecs.NewQuery[struct {
		*Position
		*Velocity
	}](world)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		query.Execute()
		for row := range query.Values() {
			row.Position.X += row.Velocity.DX
		}
	}
}

func BenchmarkCloneEntity(b *testing.B) {
	world := newTestWorld()
	src := world.CreateEntity()
	ecs.Table[Position](world).Create(src, Position{X: 1})
	ecs.Table[Inventory](world).Create(src, Inventory{Items: []string{"a", "b", "c"}})
	ecs.Table[Squad](world).Create(src, Squad{Members: make([]ecs.Entity, 8)})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dst, _ := world.CloneEntity(src)
		world.DestroyEntity(dst)
	}
}
