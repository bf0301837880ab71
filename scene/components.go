package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/scenegraph/ecs"
)

// NodeComponent places an entity in the scene hierarchy. EffectivelyEnabled
// is derived state maintained by NodeSystem: Enabled AND every ancestor's
// Enabled.
type NodeComponent struct {
	Parent             ecs.Entity
	Enabled            bool
	EffectivelyEnabled bool
}

// TransformComponent is a node's local transform in parent space
type TransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// DefaultTransform returns the identity transform
func DefaultTransform() TransformComponent {
	return TransformComponent{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Matrix composes translation * rotation * scale
func (t TransformComponent) Matrix() mgl32.Mat4 {
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
	return translate.Mul4(t.Rotation.Normalize().Mat4()).Mul4(scale)
}

// LocalMatrixComponent holds the composed TransformComponent. Its instance
// generation is the "local transform changed" signal.
type LocalMatrixComponent struct {
	Matrix mgl32.Mat4
}

// WorldMatrixComponent is written by NodeSystem only
type WorldMatrixComponent struct {
	Matrix mgl32.Mat4
}

// PreviousWorldMatrixComponent holds last frame's WorldMatrixComponent
type PreviousWorldMatrixComponent struct {
	Matrix mgl32.Mat4
}

type NameComponent struct {
	Name string
}

// SkinComponent marks a skin instance. Skin is the resource entity holding
// the inverse bind matrices; SkinRoot is the node whose world matrix joint
// matrices are expressed relative to.
type SkinComponent struct {
	Skin     ecs.Entity
	SkinRoot ecs.Entity
	Skeleton ecs.Entity
}

// SkinJointsComponent lists the joint nodes of a skin instance in inverse
// bind matrix order.
type SkinJointsComponent struct {
	Joints []ecs.Entity
}

// SkinIbmComponent lives on a skin resource entity
type SkinIbmComponent struct {
	Matrices []mgl32.Mat4
}

// JointMatricesComponent is the per-instance skinning output
type JointMatricesComponent struct {
	Matrices     []mgl32.Mat4
	AabbMin      mgl32.Vec3
	AabbMax      mgl32.Vec3
	JointAabbMin []mgl32.Vec3
	JointAabbMax []mgl32.Vec3
}

// Bounds returns the combined joint bounds. The result is empty when no
// joint contributed.
func (j *JointMatricesComponent) Bounds() Aabb {
	return Aabb{Min: j.AabbMin, Max: j.AabbMax}
}

// PreviousJointMatricesComponent trails JointMatricesComponent by one frame
type PreviousJointMatricesComponent struct {
	Matrices []mgl32.Mat4
}

// RenderMeshComponent attaches a mesh resource entity to a node
type RenderMeshComponent struct {
	Mesh ecs.Entity
}

// MeshComponent lives on a mesh resource entity. JointBounds holds one
// joint-local bound per skin joint; an empty Aabb marks a joint with no
// skinned vertices.
type MeshComponent struct {
	Bounds      Aabb
	JointBounds []Aabb
}

// Aabb is an axis aligned bounding box. Min greater than Max on any axis
// means the box is empty.
type Aabb struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyAabb returns the (+MaxFloat32, -MaxFloat32) accumulator start value
func EmptyAabb() Aabb {
	const m = math.MaxFloat32
	return Aabb{
		Min: mgl32.Vec3{m, m, m},
		Max: mgl32.Vec3{-m, -m, -m},
	}
}

func (a Aabb) Empty() bool {
	return a.Min.X() > a.Max.X() || a.Min.Y() > a.Max.Y() || a.Min.Z() > a.Max.Z()
}

// Union grows a to contain b. Empty boxes are ignored.
func (a Aabb) Union(b Aabb) Aabb {
	if b.Empty() {
		return a
	}
	for i := 0; i < 3; i++ {
		a.Min[i] = min(a.Min[i], b.Min[i])
		a.Max[i] = max(a.Max[i], b.Max[i])
	}
	return a
}

// RegisterComponents registers every scene component type
func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[NodeComponent](registry)
	ecs.RegisterComponent[TransformComponent](registry)
	ecs.RegisterComponent[LocalMatrixComponent](registry)
	ecs.RegisterComponent[WorldMatrixComponent](registry)
	ecs.RegisterComponent[PreviousWorldMatrixComponent](registry)
	ecs.RegisterComponent[NameComponent](registry)
	ecs.RegisterComponent[SkinComponent](registry)
	ecs.RegisterComponent[SkinJointsComponent](registry)
	ecs.RegisterComponent[SkinIbmComponent](registry)
	ecs.RegisterComponent[JointMatricesComponent](registry)
	ecs.RegisterComponent[PreviousJointMatricesComponent](registry)
	ecs.RegisterComponent[RenderMeshComponent](registry)
	ecs.RegisterComponent[MeshComponent](registry)
}
