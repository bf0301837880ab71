package main

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/plus3/scenegraph/animation"
	"github.com/plus3/scenegraph/ecs"
	"github.com/plus3/scenegraph/ecs/debugui"
	debugui_ebiten "github.com/plus3/scenegraph/ecs/debugui/ebiten"
	"github.com/plus3/scenegraph/scene"
	"github.com/tanema/gween/ease"
)

var planetKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
	ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

// Game implements ebiten.Game on top of the scene systems
type Game struct {
	world     *ecs.World
	scheduler *ecs.Scheduler
	nodes     *scene.NodeSystem
	tweens    *animation.TweenSystem
	solar     *solarSystem
	imgui     *debugui.ImguiSystem
	backend   *debugui_ebiten.ImguiBackend

	bodies *ecs.ComponentTable[BodyComponent]
	paused bool
	width  int
	height int
}

func (g *Game) wantsMouse() bool {
	return g.imgui != nil && g.imgui.Input.WantCaptureMouse
}

func (g *Game) wantsKeyboard() bool {
	return g.imgui != nil && g.imgui.Input.WantCaptureKeyboard
}

func (g *Game) handleInput() {
	if !g.wantsKeyboard() {
		if inpututil.IsKeyJustPressed(ebiten.KeyP) {
			g.paused = !g.paused
		}
		for i, planet := range g.solar.planets {
			if i < len(planetKeys) && inpututil.IsKeyJustPressed(planetKeys[i]) {
				planet.SetEnabled(!planet.Enabled())
			}
		}
	}
	if !g.wantsMouse() && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if picked := g.pick(float32(x), float32(y)); picked != nil {
			g.pulse(picked)
		}
	}
}

// pulse grows a body and shrinks it back
func (g *Game) pulse(n *scene.SceneNode) {
	g.tweens.ScaleTo(n, mgl32.Vec3{1.6, 1.6, 1.6}, 150*time.Millisecond, ease.OutQuad)
}

func (g *Game) step() {
	dt := time.Second / time.Duration(ebiten.TPS())
	if g.paused {
		dt = 0
	}
	g.scheduler.Once(dt)
	g.settlePulses()
}

// settlePulses sends every fully grown body back to its normal size
func (g *Game) settlePulses() {
	for e := range g.bodies.Iter() {
		n := g.nodes.GetNode(e)
		if n == nil || ecs.Table[animation.TweenComponent](g.world).Has(e) {
			continue
		}
		if s := n.Scale(); s.X() > 1 {
			g.tweens.ScaleTo(n, mgl32.Vec3{1, 1, 1}, 300*time.Millisecond, ease.InOutQuad)
		}
	}
}

func (g *Game) Update() error {
	g.handleInput()
	if g.backend != nil {
		g.backend.Frame(g.step)
		return nil
	}
	g.step()
	return nil
}

func (g *Game) center() mgl32.Vec3 {
	return mgl32.Vec3{float32(g.width) / 2, float32(g.height) / 2, 0}
}

// screenPosition maps a world matrix to screen space and returns the uniform
// scale it applies.
func (g *Game) screenPosition(world mgl32.Mat4) (mgl32.Vec3, float32) {
	return world.Col(3).Vec3().Add(g.center()), world.Col(0).Vec3().Len()
}

func (g *Game) pick(x, y float32) *scene.SceneNode {
	var picked *scene.SceneNode
	for e, body := range g.bodies.Iter() {
		n := g.nodes.GetNode(e)
		if n == nil || !n.EffectivelyEnabled() {
			continue
		}
		p, scale := g.screenPosition(n.WorldMatrix())
		r := body.Radius * scale
		if dx, dy := p.X()-x, p.Y()-y; dx*dx+dy*dy <= r*r {
			picked = n
		}
	}
	return picked
}

func (g *Game) Draw(screen *ebiten.Image) {
	for e, body := range g.bodies.Iter() {
		n := g.nodes.GetNode(e)
		if n == nil || !n.EffectivelyEnabled() {
			continue
		}
		p, scale := g.screenPosition(n.WorldMatrix())
		vector.DrawFilledCircle(screen, p.X(), p.Y(), body.Radius*scale, body.Color, true)
	}

	status := "running"
	if g.paused {
		status = "paused"
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf("TPS %.0f  %s\n[P] pause  [1-9] toggle planet  [click] pulse",
		ebiten.ActualTPS(), status))

	if g.backend != nil {
		g.backend.Overlay(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	if g.backend != nil {
		g.backend.Layout(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}
