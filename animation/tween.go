package animation

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Vec3Tween animates a vector one axis at a time. The zero value is
// inactive.
type Vec3Tween struct {
	axes   [3]gween.Tween
	active bool
}

func NewVec3Tween(from, to mgl32.Vec3, duration time.Duration, fn ease.TweenFunc) Vec3Tween {
	d := float32(duration.Seconds())
	var t Vec3Tween
	for i := range t.axes {
		t.axes[i] = *gween.New(from[i], to[i], d, fn)
	}
	t.active = true
	return t
}

func (t *Vec3Tween) Active() bool { return t.active }

// Update advances the tween by dt seconds and returns the current value and
// whether the tween has finished.
func (t *Vec3Tween) Update(dt float32) (mgl32.Vec3, bool) {
	var v mgl32.Vec3
	done := true
	for i := range t.axes {
		value, finished := t.axes[i].Update(dt)
		v[i] = value
		done = done && finished
	}
	if done {
		t.active = false
	}
	return v, done
}

// QuatTween slerps between two rotations driven by an eased 0..1 progress
type QuatTween struct {
	from, to mgl32.Quat
	progress gween.Tween
	active   bool
}

func NewQuatTween(from, to mgl32.Quat, duration time.Duration, fn ease.TweenFunc) QuatTween {
	return QuatTween{
		from:     from,
		to:       to,
		progress: *gween.New(0, 1, float32(duration.Seconds()), fn),
		active:   true,
	}
}

func (t *QuatTween) Active() bool { return t.active }

func (t *QuatTween) Update(dt float32) (mgl32.Quat, bool) {
	amount, done := t.progress.Update(dt)
	if done {
		t.active = false
		return t.to, true
	}
	return mgl32.QuatSlerp(t.from, t.to, amount), false
}

// TweenComponent drives a node's TransformComponent. Each channel is
// optional; the component is removed once every active channel finished.
type TweenComponent struct {
	Position Vec3Tween
	Rotation QuatTween
	Scale    Vec3Tween
}

// Active reports whether any channel is still running
func (c *TweenComponent) Active() bool {
	return c.Position.Active() || c.Rotation.Active() || c.Scale.Active()
}
