package terrain

import (
	"github.com/go-gl/mathgl/mgl32"
)

// BuildSkirt emits the vertical curtain hanging from a chunk's border loop.
// Each border edge becomes one quad reaching depth units straight down, so
// LOD seams between neighboring chunks of different resolution never show a
// visible crack. Skirt vertices reuse the border normals, keeping the
// curtain lit like the terrain edge it extends.
func BuildSkirt(border BorderStrip, depth float32) *Mesh {
	n := len(border.Positions)
	if n < 2 {
		panic("terrain: skirt needs at least two border vertices")
	}

	mesh := &Mesh{
		Positions: make([]mgl32.Vec3, 2*n),
		UVs:       make([]mgl32.Vec2, 2*n),
		Normals:   make([]mgl32.Vec3, 2*n),
		Indices:   make([]uint32, 0, 6*n),
	}

	// Top ring first, matching the border loop, then the dropped ring.
	for i, p := range border.Positions {
		u := float32(i) / float32(n)
		mesh.Positions[i] = p
		mesh.UVs[i] = mgl32.Vec2{u, 0}
		mesh.Normals[i] = border.Normals[i]

		mesh.Positions[n+i] = mgl32.Vec3{p.X(), p.Y() - depth, p.Z()}
		mesh.UVs[n+i] = mgl32.Vec2{u, 1}
		mesh.Normals[n+i] = border.Normals[i]
	}

	// The border loop is counter-clockwise from above, so this winding
	// faces the quads outward.
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		ti := uint32(i)
		tj := uint32(j)
		bi := uint32(n + i)
		bj := uint32(n + j)
		mesh.Indices = append(mesh.Indices,
			ti, tj, bi,
			tj, bj, bi,
		)
	}

	return mesh
}
