package scene

import "github.com/go-gl/mathgl/mgl32"

// degenerateExtent is the squared extent below which a transformed bound is
// treated as having no volume
const degenerateExtent = 1e-12

// WorldAabb transforms the box (min, max) by m and returns the axis aligned
// box enclosing the result.
func WorldAabb(m mgl32.Mat4, min, max mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	center := min.Add(max).Mul(0.5)
	extent := max.Sub(min).Mul(0.5)

	worldCenter := m.Mul4x1(center.Vec4(1)).Vec3()
	var worldExtent mgl32.Vec3
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			worldExtent[row] += abs(m.At(row, col)) * extent[col]
		}
	}
	return worldCenter.Sub(worldExtent), worldCenter.Add(worldExtent)
}

// Transform returns a transformed by m. Empty boxes stay empty.
func (a Aabb) Transform(m mgl32.Mat4) Aabb {
	if a.Empty() {
		return a
	}
	min, max := WorldAabb(m, a.Min, a.Max)
	return Aabb{Min: min, Max: max}
}

func degenerate(min, max mgl32.Vec3) bool {
	d := max.Sub(min)
	return d.Dot(d) < degenerateExtent
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
