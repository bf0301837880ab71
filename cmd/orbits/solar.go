package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenegraph/ecs"
	"github.com/plus3/scenegraph/internal/config"
	"github.com/plus3/scenegraph/scene"
)

// OrbitComponent spins a pivot node around the Z axis
type OrbitComponent struct {
	Speed float32 // radians per second
	Angle float32
}

// BodyComponent marks a node that is drawn as a disc
type BodyComponent struct {
	Radius float32
	Color  color.RGBA
}

func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[OrbitComponent](registry)
	ecs.RegisterComponent[BodyComponent](registry)
}

// OrbitSystem advances every pivot and writes its rotation. It runs before
// the local matrix system.
type OrbitSystem struct {
	Pivots ecs.Query[struct {
		ecs.Entity
		*OrbitComponent
	}]
	transforms *ecs.ComponentTable[scene.TransformComponent]
}

func NewOrbitSystem(world *ecs.World) *OrbitSystem {
	return &OrbitSystem{transforms: ecs.Table[scene.TransformComponent](world)}
}

func (s *OrbitSystem) Update(frame *ecs.UpdateFrame) bool {
	dt := float32(frame.DeltaTime.Seconds())
	changed := false
	for row := range s.Pivots.Values() {
		row.Angle = float32(math.Mod(float64(row.Angle+row.Speed*dt), 2*math.Pi))
		if t := s.transforms.Write(row.Entity); t != nil {
			t.Rotation = mgl32.QuatRotate(row.Angle, mgl32.Vec3{0, 0, 1})
			changed = true
		}
	}
	return changed
}

type solarSystem struct {
	sun     *scene.SceneNode
	planets []*scene.SceneNode
	moons   []*scene.SceneNode
}

var palette = []color.RGBA{
	{0x4f, 0x9d, 0xde, 0xff},
	{0xd9, 0x6c, 0x3b, 0xff},
	{0x7b, 0xc4, 0x6a, 0xff},
	{0xc7, 0x8c, 0xd9, 0xff},
	{0xe0, 0xc2, 0x5a, 0xff},
}

// buildSolarSystem creates a sun with cfg.Planets planets, each carrying
// cfg.Moons moons. Every orbiting body hangs off its own pivot node so the
// pivot's rotation carries the body and its moons around the parent.
func buildSolarSystem(world *ecs.World, nodes *scene.NodeSystem, cfg config.OrbitsConfig) *solarSystem {
	orbits := ecs.Table[OrbitComponent](world)
	bodies := ecs.Table[BodyComponent](world)

	body := func(name string, parent *scene.SceneNode, distance, radius, speed float32, c color.RGBA) *scene.SceneNode {
		pivot := nodes.CreateNode()
		pivot.SetName(name + "-orbit")
		parent.AddChild(pivot)
		orbits.Create(pivot.Entity(), OrbitComponent{Speed: speed})

		n := nodes.CreateNode()
		n.SetName(name)
		n.SetPosition(mgl32.Vec3{distance, 0, 0})
		pivot.AddChild(n)
		bodies.Create(n.Entity(), BodyComponent{Radius: radius, Color: c})
		return n
	}

	s := &solarSystem{sun: nodes.CreateNode()}
	s.sun.SetName("sun")
	bodies.Create(s.sun.Entity(), BodyComponent{Radius: 32, Color: color.RGBA{0xff, 0xd2, 0x3f, 0xff}})

	for i := 0; i < cfg.Planets; i++ {
		distance := float32(80 + i*55)
		speed := 1.2 / float32(i+1)
		planet := body(fmt.Sprintf("planet-%d", i), s.sun, distance, float32(8+i%3*3), speed, palette[i%len(palette)])
		s.planets = append(s.planets, planet)

		for j := 0; j < cfg.Moons; j++ {
			moon := body(fmt.Sprintf("planet-%d-moon-%d", i, j), planet, float32(16+j*8), 3, 3/float32(j+1), color.RGBA{0xcc, 0xcc, 0xcc, 0xff})
			s.moons = append(s.moons, moon)
		}
	}
	return s
}
