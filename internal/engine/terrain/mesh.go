package terrain

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Builder constructs chunk meshes at arbitrary LOD strides from a chunk's
// 3x3 neighborhood of height buffers. A Builder is immutable and safe for
// concurrent use from worker tasks.
type Builder struct {
	chunkSize float32
	spacing   float32
	cells     int // base-spacing cells per chunk edge
	margin    int
}

// NewBuilder creates a mesh builder for chunks of the given edge length.
// spacing is the height-buffer sample spacing (the densest LOD stride);
// chunkSize must be an exact multiple of it.
func NewBuilder(chunkSize, spacing float32, margin int) *Builder {
	cells := int(chunkSize / spacing)
	if float32(cells)*spacing != chunkSize {
		panic(fmt.Sprintf("terrain: chunk size %g is not a multiple of sample spacing %g", chunkSize, spacing))
	}
	if margin < 1 {
		panic(fmt.Sprintf("terrain: margin must be at least 1 sample, got %d", margin))
	}
	return &Builder{
		chunkSize: chunkSize,
		spacing:   spacing,
		cells:     cells,
		margin:    margin,
	}
}

// CellsPerEdge returns the number of base-spacing cells per chunk edge.
func (b *Builder) CellsPerEdge() int { return b.cells }

// Margin returns the height-buffer border margin in samples.
func (b *Builder) Margin() int { return b.margin }

// SamplesPerRow returns the row length of one chunk height buffer.
func (b *Builder) SamplesPerRow() int { return b.cells + 1 + 2*b.margin }

// BuildMesh lays out the vertex grid for one LOD stride, including the
// scaffold ring one cell beyond the footprint on every side. Footprint
// vertices and triangles come first in the buffers so trimming is a
// truncation; scaffold geometry follows. Positions are in local chunk space
// (0..chunkSize on X/Z), UVs span the footprint.
func (b *Builder) BuildMesh(nb *Neighborhood, stride float32) *MeshBuildResult {
	baseStep := int(stride / b.spacing)
	if float32(baseStep)*b.spacing != stride || baseStep < 1 {
		panic(fmt.Sprintf("terrain: stride %g is not a multiple of sample spacing %g", stride, b.spacing))
	}
	cells := b.cells / baseStep
	if cells*baseStep != b.cells {
		panic(fmt.Sprintf("terrain: chunk size %g is not a multiple of stride %g", b.chunkSize, stride))
	}

	vr := cells + 1 // footprint vertices per row
	gridW := cells + 3
	m := &MeshBuildResult{
		Positions:       make([]mgl32.Vec3, 0, gridW*gridW),
		UVs:             make([]mgl32.Vec2, 0, gridW*gridW),
		Indices:         make([]uint32, 0, (cells+2)*(cells+2)*6),
		TrueVertexCount: vr * vr,
		TrueIndexCount:  cells * cells * 6,
		cells:           cells,
		step:            stride,
		vertexID:        make([]uint32, gridW*gridW),
		gridW:           gridW,
	}

	emit := func(gx, gz int) {
		h := nb.HeightAt(gx*baseStep, gz*baseStep)
		m.vertexID[(gz+1)*gridW+(gx+1)] = uint32(len(m.Positions))
		m.Positions = append(m.Positions, mgl32.Vec3{
			float32(gx) * stride,
			h,
			float32(gz) * stride,
		})
		m.UVs = append(m.UVs, mgl32.Vec2{
			float32(gx) / float32(cells),
			float32(gz) / float32(cells),
		})
	}

	// Footprint vertices first, row-major.
	for gz := 0; gz <= cells; gz++ {
		for gx := 0; gx <= cells; gx++ {
			emit(gx, gz)
		}
	}
	// Scaffold ring.
	for gx := -1; gx <= cells+1; gx++ {
		emit(gx, -1)
		emit(gx, cells+1)
	}
	for gz := 0; gz <= cells; gz++ {
		emit(-1, gz)
		emit(cells+1, gz)
	}

	// Footprint triangles first so trimming can truncate the index buffer.
	for gz := 0; gz < cells; gz++ {
		for gx := 0; gx < cells; gx++ {
			m.appendQuad(gx, gz)
		}
	}
	// Scaffold triangles span the chunk boundary; they exist only to make
	// boundary normals seam-correct and are discarded by Finalize.
	for gx := -1; gx <= cells; gx++ {
		m.appendQuad(gx, -1)
		m.appendQuad(gx, cells)
	}
	for gz := 0; gz < cells; gz++ {
		m.appendQuad(-1, gz)
		m.appendQuad(cells, gz)
	}

	return m
}

// appendQuad emits the two triangles of cell (gx, gz) with the fixed
// diagonal split and counter-clockwise winding seen from above.
func (m *MeshBuildResult) appendQuad(gx, gz int) {
	a := m.idAt(gx, gz)
	b := m.idAt(gx+1, gz)
	c := m.idAt(gx, gz+1)
	d := m.idAt(gx+1, gz+1)
	m.Indices = append(m.Indices,
		a, c, b,
		b, c, d,
	)
}

// Finalize trims scaffold geometry, leaving footprint-only buffers, and
// extracts the border loop for skirt construction. BuildMesh and
// ComputeNormals must have run for this result.
func (b *Builder) Finalize(m *MeshBuildResult) (*Mesh, BorderStrip) {
	if m.Normals == nil {
		panic("terrain: Finalize called before ComputeNormals")
	}

	mesh := &Mesh{
		Positions: m.Positions[:m.TrueVertexCount],
		UVs:       m.UVs[:m.TrueVertexCount],
		Normals:   m.Normals[:m.TrueVertexCount],
		Indices:   m.Indices[:m.TrueIndexCount],
	}

	return mesh, extractBorder(m)
}

// extractBorder walks the footprint perimeter counter-clockwise from the
// local origin: south edge east-bound, east edge north-bound, north edge
// west-bound, west edge south-bound.
func extractBorder(m *MeshBuildResult) BorderStrip {
	cells := m.cells
	loop := make([]uint32, 0, 4*cells)
	for gx := 0; gx < cells; gx++ {
		loop = append(loop, m.idAt(gx, 0))
	}
	for gz := 0; gz < cells; gz++ {
		loop = append(loop, m.idAt(cells, gz))
	}
	for gx := cells; gx > 0; gx-- {
		loop = append(loop, m.idAt(gx, cells))
	}
	for gz := cells; gz > 0; gz-- {
		loop = append(loop, m.idAt(0, gz))
	}

	border := BorderStrip{
		Positions: make([]mgl32.Vec3, len(loop)),
		Normals:   make([]mgl32.Vec3, len(loop)),
	}
	for i, id := range loop {
		border.Positions[i] = m.Positions[id]
		border.Normals[i] = m.Normals[id]
	}
	return border
}
