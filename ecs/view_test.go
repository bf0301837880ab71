package ecs_test

import (
	"testing"

	"github.com/plus3/scenegraph/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView(t *testing.T) {
	world := newTestWorld()
	e := world.CreateEntity()
	ecs.Table[Position](world).Create(e, Position{X: 1, Y: 2})
	ecs.Table[Temperature](world).Create(e, Temperature(32))

	view := ecs.NewView[struct {
		*Position
		*Temperature
	}](world)

	item := view.Get(e)
	require.NotNil(t, item)
	assert.Equal(t, Temperature(32), *item.Temperature)
	assert.Equal(t, float32(1), item.Position.X)
	assert.Equal(t, float32(2), item.Position.Y)
}

func TestViewMissingRequired(t *testing.T) {
	world := newTestWorld()
	e := world.CreateEntity()
	ecs.Table[Position](world).Create(e, Position{})

	view := ecs.NewView[struct {
		*Position
		*Velocity
	}](world)

	assert.Nil(t, view.Get(e))
}

func TestViewOptionalAndEntityFields(t *testing.T) {
	world := newTestWorld()
	positions := ecs.Table[Position](world)
	velocities := ecs.Table[Velocity](world)

	moving := world.CreateEntity()
	positions.Create(moving, Position{X: 1})
	velocities.Create(moving, Velocity{DX: 2})

	still := world.CreateEntity()
	positions.Create(still, Position{X: 3})

	view := ecs.NewView[struct {
		ecs.Entity
		*Position
		Velocity *Velocity `ecs:"optional"`
	}](world)

	item := view.Get(moving)
	require.NotNil(t, item)
	assert.Equal(t, moving, item.Entity)
	require.NotNil(t, item.Velocity)
	assert.Equal(t, float32(2), item.Velocity.DX)

	item = view.Get(still)
	require.NotNil(t, item)
	assert.Equal(t, still, item.Entity)
	assert.Nil(t, item.Velocity)

	count := 0
	for e, row := range view.Iter() {
		assert.Equal(t, e, row.Entity)
		count++
	}
	assert.Equal(t, 2, count)
}

func TestViewMutationThroughRow(t *testing.T) {
	world := newTestWorld()
	positions := ecs.Table[Position](world)
	e := world.CreateEntity()
	positions.Create(e, Position{X: 1})

	view := ecs.NewView[struct{ *Position }](world)
	for row := range view.Values() {
		row.Position.X = 99
	}
	assert.Equal(t, float32(99), positions.Read(e).X)
}

func TestViewIteratesSmallestRequiredTable(t *testing.T) {
	world := newTestWorld()
	positions := ecs.Table[Position](world)
	names := ecs.Table[Name](world)

	for i := 0; i < 50; i++ {
		positions.Create(world.CreateEntity(), Position{})
	}
	named := world.CreateEntity()
	positions.Create(named, Position{})
	names.Create(named, Name{Value: "only"})

	view := ecs.NewView[struct {
		*Position
		*Name
	}](world)

	var found []ecs.Entity
	for e := range view.Iter() {
		found = append(found, e)
	}
	assert.Equal(t, []ecs.Entity{named}, found)
}

func TestViewInvalidDefinitions(t *testing.T) {
	world := newTestWorld()

	assert.Panics(t, func() {
		ecs.NewView[int](world)
	})
	assert.Panics(t, func() {
		ecs.NewView[struct{ Position Position }](world)
	})
	assert.Panics(t, func() {
		ecs.NewView[struct {
			Position *Position `ecs:"maybe"`
		}](world)
	})
	assert.Panics(t, func() {
		ecs.NewView[struct {
			Position *Position `ecs:"optional"`
		}](world)
	})
}
