// Package terrain builds chunk meshes from shared height data. A chunk mesh
// is a regular grid at one LOD stride, extended with a scaffold ring sourced
// from neighboring chunks so boundary normals come out seam-correct, then
// trimmed back to the chunk footprint before hand-off to rendering.
package terrain

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MeshBuildResult holds the intermediate geometry for one chunk at one LOD,
// including scaffold vertices and triangles. TrueVertexCount and
// TrueIndexCount are the footprint-only sizes used when trimming.
type MeshBuildResult struct {
	Positions []mgl32.Vec3
	UVs       []mgl32.Vec2
	Normals   []mgl32.Vec3
	Indices   []uint32

	TrueVertexCount int
	TrueIndexCount  int

	// cells is the number of footprint quads per edge at this stride.
	cells int
	step  float32

	// vertexID maps extended-grid positions (gx, gz in [-1, cells+1]) to
	// vertex indices; footprint vertices occupy [0, TrueVertexCount).
	vertexID []uint32
	gridW    int
}

// Mesh is finalized, footprint-only geometry ready for the render backend.
type Mesh struct {
	Positions []mgl32.Vec3
	UVs       []mgl32.Vec2
	Normals   []mgl32.Vec3
	Indices   []uint32
}

// BorderStrip is the closed loop of border vertices and normals of a
// finalized chunk mesh, counter-clockwise seen from above, starting at the
// chunk-local origin. It feeds skirt construction and is retained per LOD
// for cross-chunk normal blending.
type BorderStrip struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
}

func (m *MeshBuildResult) idAt(gx, gz int) uint32 {
	return m.vertexID[(gz+1)*m.gridW+(gx+1)]
}
