package animation

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenegraph/ecs"
	"github.com/plus3/scenegraph/scene"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"
)

// RegisterComponents registers the animation component types
func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[TweenComponent](registry)
}

// TweenSystem advances every TweenComponent and writes the result to the
// node's TransformComponent. Run it before scene.LocalMatrixSystem.
type TweenSystem struct {
	log        *zap.Logger
	tweens     *ecs.ComponentTable[TweenComponent]
	transforms *ecs.ComponentTable[scene.TransformComponent]
	finished   []ecs.Entity
}

func NewTweenSystem(world *ecs.World, log *zap.Logger) *TweenSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &TweenSystem{
		log:        log,
		tweens:     ecs.Table[TweenComponent](world),
		transforms: ecs.Table[scene.TransformComponent](world),
	}
}

func (s *TweenSystem) tween(e ecs.Entity) *TweenComponent {
	if c := s.tweens.Write(e); c != nil {
		return c
	}
	return s.tweens.Create(e, TweenComponent{})
}

func (s *TweenSystem) current(e ecs.Entity) scene.TransformComponent {
	if t := s.transforms.Read(e); t != nil {
		return *t
	}
	return scene.DefaultTransform()
}

// MoveTo animates node's position to target, replacing any running position
// tween.
func (s *TweenSystem) MoveTo(node *scene.SceneNode, target mgl32.Vec3, duration time.Duration, fn ease.TweenFunc) {
	e := node.Entity()
	s.tween(e).Position = NewVec3Tween(s.current(e).Position, target, duration, fn)
}

// RotateTo animates node's rotation to target
func (s *TweenSystem) RotateTo(node *scene.SceneNode, target mgl32.Quat, duration time.Duration, fn ease.TweenFunc) {
	e := node.Entity()
	s.tween(e).Rotation = NewQuatTween(s.current(e).Rotation, target, duration, fn)
}

// ScaleTo animates node's scale to target
func (s *TweenSystem) ScaleTo(node *scene.SceneNode, target mgl32.Vec3, duration time.Duration, fn ease.TweenFunc) {
	e := node.Entity()
	s.tween(e).Scale = NewVec3Tween(s.current(e).Scale, target, duration, fn)
}

// Stop cancels every tween on node, leaving the transform where it is
func (s *TweenSystem) Stop(node *scene.SceneNode) bool {
	return s.tweens.Destroy(node.Entity())
}

func (s *TweenSystem) Update(frame *ecs.UpdateFrame) bool {
	if s.tweens.Len() == 0 {
		return false
	}
	dt := float32(frame.DeltaTime.Seconds())

	changed := false
	s.finished = s.finished[:0]
	for e, tw := range s.tweens.Iter() {
		t := s.transforms.Write(e)
		if t == nil {
			s.log.Debug("dropping tween on entity without transform", zap.Stringer("entity", e))
			s.finished = append(s.finished, e)
			continue
		}
		if tw.Position.Active() {
			t.Position, _ = tw.Position.Update(dt)
		}
		if tw.Rotation.Active() {
			t.Rotation, _ = tw.Rotation.Update(dt)
		}
		if tw.Scale.Active() {
			t.Scale, _ = tw.Scale.Update(dt)
		}
		changed = true
		if !tw.Active() {
			s.finished = append(s.finished, e)
		}
	}

	for _, e := range s.finished {
		if frame.Commands == nil {
			s.tweens.Destroy(e)
			continue
		}
		frame.Commands.Defer(func() {
			// A new tween may have been started on e later this frame
			if tw := s.tweens.Read(e); tw != nil && !tw.Active() {
				s.tweens.Destroy(e)
			}
		})
	}
	return changed
}
