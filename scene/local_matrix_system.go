package scene

import (
	"github.com/kamstrup/intmap"
	"github.com/plus3/scenegraph/ecs"
)

// LocalMatrixSystem composes LocalMatrixComponent from TransformComponent
// for every transform written since the last frame. It must run before
// NodeSystem.
type LocalMatrixSystem struct {
	transforms *ecs.ComponentTable[TransformComponent]
	locals     *ecs.ComponentTable[LocalMatrixComponent]

	generation uint64
	primed     bool
	// seen holds the transform instance generation last composed per entity
	seen *intmap.Map[ecs.Entity, uint64]
}

func NewLocalMatrixSystem(world *ecs.World) *LocalMatrixSystem {
	return &LocalMatrixSystem{
		transforms: ecs.Table[TransformComponent](world),
		locals:     ecs.Table[LocalMatrixComponent](world),
		seen:       intmap.New[ecs.Entity, uint64](256),
	}
}

func (s *LocalMatrixSystem) Update(frame *ecs.UpdateFrame) bool {
	generation := s.transforms.Generation()
	if s.primed && generation == s.generation {
		return false
	}
	s.generation = generation
	s.primed = true

	changed := false
	for e, t := range s.transforms.Iter() {
		instance := s.transforms.InstanceGeneration(e)
		if last, ok := s.seen.Get(e); ok && last == instance {
			continue
		}
		s.seen.Put(e, instance)

		m := t.Matrix()
		if local := s.locals.Write(e); local != nil {
			local.Matrix = m
		} else {
			s.locals.Create(e, LocalMatrixComponent{Matrix: m})
		}
		changed = true
	}

	if s.seen.Len() > 2*s.transforms.Len()+64 {
		s.prune()
	}
	return changed
}

// prune drops entries for entities that no longer carry a transform
func (s *LocalMatrixSystem) prune() {
	var stale []ecs.Entity
	s.seen.ForEach(func(e ecs.Entity, _ uint64) bool {
		if !s.transforms.Has(e) {
			stale = append(stale, e)
		}
		return true
	})
	for _, e := range stale {
		s.seen.Del(e)
	}
}
