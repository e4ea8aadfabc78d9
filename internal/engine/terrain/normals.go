package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ComputeNormals fills m.Normals with angle-weighted smooth normals: every
// triangle contributes its face normal to each of its three vertices,
// weighted by the interior angle at that vertex, and the accumulated sums
// are normalized.
//
// Triangles are visited in extended-grid row order, not index-buffer order.
// Two chunks adjacent along an edge therefore accumulate the contributions
// of the triangles incident to a shared boundary vertex in the same world
// order, from the same shared height samples, which makes their boundary
// normals bit-identical.
func (b *Builder) ComputeNormals(m *MeshBuildResult) {
	acc := make([]mgl32.Vec3, len(m.Positions))

	for gz := -1; gz <= m.cells; gz++ {
		for gx := -1; gx <= m.cells; gx++ {
			a := m.idAt(gx, gz)
			bb := m.idAt(gx+1, gz)
			c := m.idAt(gx, gz+1)
			d := m.idAt(gx+1, gz+1)
			accumulateTriangle(acc, m.Positions, a, c, bb)
			accumulateTriangle(acc, m.Positions, bb, c, d)
		}
	}

	m.Normals = make([]mgl32.Vec3, len(m.Positions))
	for i, v := range acc {
		if l := v.Len(); l > 1e-12 {
			m.Normals[i] = v.Mul(1 / l)
		} else {
			m.Normals[i] = mgl32.Vec3{0, 1, 0}
		}
	}
}

// accumulateTriangle adds the triangle's angle-weighted face normal to the
// accumulators of its three vertices.
func accumulateTriangle(acc []mgl32.Vec3, pos []mgl32.Vec3, i0, i1, i2 uint32) {
	p0, p1, p2 := pos[i0], pos[i1], pos[i2]

	face := p1.Sub(p0).Cross(p2.Sub(p0))
	l := face.Len()
	if l <= 1e-12 {
		return
	}
	face = face.Mul(1 / l)

	acc[i0] = acc[i0].Add(face.Mul(interiorAngle(p0, p1, p2)))
	acc[i1] = acc[i1].Add(face.Mul(interiorAngle(p1, p2, p0)))
	acc[i2] = acc[i2].Add(face.Mul(interiorAngle(p2, p0, p1)))
}

// interiorAngle returns the angle at apex between the edges to a and b.
func interiorAngle(apex, a, b mgl32.Vec3) float32 {
	e1 := a.Sub(apex)
	e2 := b.Sub(apex)
	l1 := e1.Len()
	l2 := e2.Len()
	if l1 <= 1e-12 || l2 <= 1e-12 {
		return 0
	}
	cos := e1.Dot(e2) / (l1 * l2)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return float32(math.Acos(float64(cos)))
}
