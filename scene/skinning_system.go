package scene

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenegraph/ecs"
	"go.uber.org/zap"
)

var (
	ErrNotAlive      = errors.New("entity is not alive")
	ErrMissingSkin   = errors.New("skin resource has no inverse bind matrices")
	ErrJointMismatch = errors.New("joint count does not match inverse bind matrix count")
	ErrNotSkinned    = errors.New("entity has no skin instance")
)

// warning kinds
const (
	warnMissingSkin     = "missing-skin"
	warnJointCount      = "joint-count"
	warnMissingMatrices = "missing-joint-matrices"
)

// SkinningSystem computes joint matrices and joint bounds for every skin
// instance. It must run after NodeSystem.
type SkinningSystem struct {
	world *ecs.World
	log   *zap.Logger
	warn  *warnOnce

	skins    *ecs.ComponentTable[SkinComponent]
	joints   *ecs.ComponentTable[SkinJointsComponent]
	ibms     *ecs.ComponentTable[SkinIbmComponent]
	matrices *ecs.ComponentTable[JointMatricesComponent]
	previous *ecs.ComponentTable[PreviousJointMatricesComponent]
	worlds   *ecs.ComponentTable[WorldMatrixComponent]
	nodes    *ecs.ComponentTable[NodeComponent]
	meshes   *ecs.ComponentTable[RenderMeshComponent]
	bounds   *ecs.ComponentTable[MeshComponent]

	jointGeneration uint64
	inputs          skinInputs
	primed          bool

	missingPrevious []ecs.Entity
}

func NewSkinningSystem(world *ecs.World, log *zap.Logger) *SkinningSystem {
	log = orNop(log)
	return &SkinningSystem{
		world:    world,
		log:      log,
		warn:     newWarnOnce(log),
		skins:    ecs.Table[SkinComponent](world),
		joints:   ecs.Table[SkinJointsComponent](world),
		ibms:     ecs.Table[SkinIbmComponent](world),
		matrices: ecs.Table[JointMatricesComponent](world),
		previous: ecs.Table[PreviousJointMatricesComponent](world),
		worlds:   ecs.Table[WorldMatrixComponent](world),
		nodes:    ecs.Table[NodeComponent](world),
		meshes:   ecs.Table[RenderMeshComponent](world),
		bounds:   ecs.Table[MeshComponent](world),
	}
}

// CreateInstance turns entity into a skin instance of skin driven by joints.
// The instance is its own skin root.
func (s *SkinningSystem) CreateInstance(skin ecs.Entity, joints []ecs.Entity, entity, skeleton ecs.Entity) error {
	if !s.world.Alive(entity) || entity == ecs.Root {
		return fmt.Errorf("create skin instance %s: %w", entity, ErrNotAlive)
	}
	ibm := s.ibms.Read(skin)
	if ibm == nil {
		return fmt.Errorf("create skin instance %s: skin %s: %w", entity, skin, ErrMissingSkin)
	}
	if len(ibm.Matrices) != len(joints) {
		return fmt.Errorf("create skin instance %s: %d joints, %d matrices: %w",
			entity, len(joints), len(ibm.Matrices), ErrJointMismatch)
	}

	s.skins.Create(entity, SkinComponent{Skin: skin, SkinRoot: entity, Skeleton: skeleton})
	s.joints.Create(entity, SkinJointsComponent{Joints: slices.Clone(joints)})

	empty := EmptyAabb()
	s.matrices.Create(entity, JointMatricesComponent{
		Matrices:     identities(len(joints)),
		AabbMin:      empty.Min,
		AabbMax:      empty.Max,
		JointAabbMin: fill(len(joints), empty.Min),
		JointAabbMax: fill(len(joints), empty.Max),
	})
	s.previous.Create(entity, PreviousJointMatricesComponent{Matrices: identities(len(joints))})
	return nil
}

// DestroyInstance removes the skin instance components from entity
func (s *SkinningSystem) DestroyInstance(entity ecs.Entity) error {
	if !s.skins.Destroy(entity) {
		return fmt.Errorf("destroy skin instance %s: %w", entity, ErrNotSkinned)
	}
	s.joints.Destroy(entity)
	s.matrices.Destroy(entity)
	s.previous.Destroy(entity)
	s.warn.Forget(entity)
	return nil
}

// skinInputs are the table generations joint matrices depend on
type skinInputs struct {
	worlds, skins, joints, ibms uint64
}

func (s *SkinningSystem) currentInputs() skinInputs {
	return skinInputs{
		worlds: s.worlds.Generation(),
		skins:  s.skins.Generation(),
		joints: s.joints.Generation(),
		ibms:   s.ibms.Generation(),
	}
}

// Update recomputes joint matrices when a world matrix or any skin instance
// data changed and reports whether it did.
func (s *SkinningSystem) Update(frame *ecs.UpdateFrame) bool {
	s.snapshotPrevious()

	inputs := s.currentInputs()
	if s.primed && inputs == s.inputs {
		s.createMissingPrevious()
		return false
	}
	s.inputs = inputs
	s.primed = true

	updated := false
	for e, skin := range s.skins.Iter() {
		if s.updateInstance(e, skin) {
			updated = true
		}
	}
	s.createMissingPrevious()
	return updated
}

func (s *SkinningSystem) snapshotPrevious() {
	jointGeneration := s.matrices.Generation()
	if s.primed && jointGeneration == s.jointGeneration {
		return
	}
	s.jointGeneration = jointGeneration

	s.missingPrevious = s.missingPrevious[:0]
	for e, current := range s.matrices.Iter() {
		prev := s.previous.Read(e)
		if prev == nil {
			s.missingPrevious = append(s.missingPrevious, e)
			continue
		}
		prev.Matrices = append(prev.Matrices[:0], current.Matrices...)
	}
	s.previous.Touch()
}

func (s *SkinningSystem) createMissingPrevious() {
	for _, e := range s.missingPrevious {
		if s.previous.Has(e) {
			continue
		}
		if current := s.matrices.Read(e); current != nil {
			s.previous.Create(e, PreviousJointMatricesComponent{Matrices: slices.Clone(current.Matrices)})
		}
	}
	s.missingPrevious = s.missingPrevious[:0]
}

// skinRootState returns the skin root's world matrix and effective flag. A
// root without a world matrix disables the instance.
func (s *SkinningSystem) skinRootState(root ecs.Entity) (mgl32.Mat4, bool) {
	w := s.worlds.Read(root)
	if w == nil {
		return mgl32.Ident4(), false
	}
	if node := s.nodes.Read(root); node != nil {
		return w.Matrix, node.EffectivelyEnabled
	}
	return w.Matrix, true
}

func (s *SkinningSystem) updateInstance(e ecs.Entity, skin *SkinComponent) bool {
	ibm := s.ibms.Read(skin.Skin)
	if ibm == nil {
		s.warn.Warn(warnMissingSkin, e, "skin resource missing, skipping instance",
			zap.Stringer("skin", skin.Skin))
		return false
	}
	s.warn.Clear(warnMissingSkin, e)

	joints := s.joints.Read(e)
	if joints == nil || len(joints.Joints) != len(ibm.Matrices) {
		count := 0
		if joints != nil {
			count = len(joints.Joints)
		}
		s.warn.Warn(warnJointCount, e, "joint count does not match inverse bind matrices, skipping instance",
			zap.Int("joints", count), zap.Int("matrices", len(ibm.Matrices)))
		return false
	}
	s.warn.Clear(warnJointCount, e)

	out := s.matrices.Write(e)
	if out == nil {
		s.warn.Warn(warnMissingMatrices, e, "skin instance has no joint matrices, skipping instance")
		return false
	}
	s.warn.Clear(warnMissingMatrices, e)

	skinWorld, enabled := s.skinRootState(skin.SkinRoot)
	skinWorldInverse := skinWorld.Inv()

	n := len(joints.Joints)
	out.Matrices = resize(out.Matrices, n)
	for i, joint := range joints.Joints {
		if !enabled {
			out.Matrices[i] = mgl32.Ident4()
			continue
		}
		jointWorld := mgl32.Ident4()
		if w := s.worlds.Read(joint); w != nil {
			jointWorld = w.Matrix
		}
		out.Matrices[i] = skinWorldInverse.Mul4(jointWorld).Mul4(ibm.Matrices[i])
	}

	s.updateBounds(e, out, skinWorld)
	return true
}

// updateBounds recomputes per joint and combined bounds from the mesh's joint
// local bounds. Joints without skinned vertices, and joints whose bound
// collapses to a point, do not contribute.
func (s *SkinningSystem) updateBounds(e ecs.Entity, out *JointMatricesComponent, skinWorld mgl32.Mat4) {
	rm := s.meshes.Read(e)
	if rm == nil {
		return
	}
	mesh := s.bounds.Read(rm.Mesh)
	if mesh == nil {
		return
	}

	n := len(out.Matrices)
	empty := EmptyAabb()
	combined := empty
	out.JointAabbMin = resize(out.JointAabbMin, n)
	out.JointAabbMax = resize(out.JointAabbMax, n)
	for i := 0; i < n; i++ {
		out.JointAabbMin[i], out.JointAabbMax[i] = empty.Min, empty.Max
		if i >= len(mesh.JointBounds) || mesh.JointBounds[i].Empty() {
			continue
		}
		local := mesh.JointBounds[i]
		min, max := WorldAabb(skinWorld.Mul4(out.Matrices[i]), local.Min, local.Max)
		if degenerate(min, max) {
			continue
		}
		out.JointAabbMin[i], out.JointAabbMax[i] = min, max
		combined = combined.Union(Aabb{Min: min, Max: max})
	}
	out.AabbMin, out.AabbMax = combined.Min, combined.Max
}

func identities(n int) []mgl32.Mat4 {
	return fill(n, mgl32.Ident4())
}

func fill[T any](n int, v T) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func resize[T any](s []T, n int) []T {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]T, n)
}
