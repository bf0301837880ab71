package main

import (
	"math/rand"
	"time"

	"github.com/plus3/scenegraph/animation"
	"github.com/plus3/scenegraph/ecs"
	"github.com/plus3/scenegraph/internal/config"
	"github.com/plus3/scenegraph/scene"
	"github.com/tanema/gween/ease"
)

type churnCounts struct {
	Moves            int64
	Tweens           int64
	Reparents        int64
	RefusedReparents int64
	Toggles          int64
	Clones           int64
	Destroys         int64
}

// churnSystem mutates the forest at random every frame. It runs first so the
// scene systems see its writes in the same frame.
type churnSystem struct {
	cfg    config.StressConfig
	rng    *rand.Rand
	forest *forest
	nodes  *scene.NodeSystem
	tweens *animation.TweenSystem
	counts churnCounts
}

func newChurnSystem(cfg config.StressConfig, rng *rand.Rand, f *forest, nodes *scene.NodeSystem, tweens *animation.TweenSystem) *churnSystem {
	return &churnSystem{cfg: cfg, rng: rng, forest: f, nodes: nodes, tweens: tweens}
}

func (c *churnSystem) roll(rate float64) bool {
	return rate > 0 && c.rng.Float64() < rate
}

func (c *churnSystem) Update(frame *ecs.UpdateFrame) bool {
	changed := false

	if c.roll(c.cfg.MoveRate) {
		if n := c.forest.pick(c.rng); n != nil {
			if c.rng.Intn(4) == 0 {
				c.tweens.MoveTo(n, randomVec3(c.rng, 10), 500*time.Millisecond, ease.InOutQuad)
				c.counts.Tweens++
			} else {
				n.SetPosition(randomVec3(c.rng, 10))
				c.counts.Moves++
			}
			changed = true
		}
	}

	if c.roll(c.cfg.ReparentRate) {
		child, parent := c.forest.pick(c.rng), c.forest.pick(c.rng)
		if child != nil && parent != nil {
			if parent.AddChild(child) {
				c.counts.Reparents++
				changed = true
			} else {
				c.counts.RefusedReparents++
			}
		}
	}

	if c.roll(c.cfg.ToggleRate) {
		if n := c.forest.pick(c.rng); n != nil {
			n.SetEnabled(!n.Enabled())
			c.counts.Toggles++
			changed = true
		}
	}

	if c.roll(c.cfg.CloneRate) {
		if n := c.forest.pick(c.rng); n != nil {
			if clone := c.nodes.CloneNode(n, n.ChildCount() < 8); clone != nil {
				c.forest.add(clone)
				c.counts.Clones++
				changed = true
			}
		}
	}

	if c.roll(c.cfg.DestroyRate) {
		if n := c.forest.pick(c.rng); n != nil && n.ChildCount() < 8 {
			frame.Commands.Defer(func() { c.nodes.DestroyNode(n) })
			c.counts.Destroys++
			changed = true
		}
	}

	return changed
}
