package terrain

import (
	"math"
	"testing"
)

const (
	testCells   = 8
	testMargin  = 1
	testSpacing = float32(1)
	testChunk   = float32(testCells) * testSpacing
)

// testHeight is a smooth, asymmetric height function standing in for the
// generator; identical world coordinates always produce identical floats.
func testHeight(x, z float32) float32 {
	fx := float64(x)
	fz := float64(z)
	return float32(3*math.Sin(fx*0.11) + 2*math.Cos(fz*0.07) + math.Sin((fx+fz)*0.05))
}

// buffersFor builds the 3x3 neighborhood height buffers of chunk (cx, cz).
func buffersFor(cx, cz int) [9][]float32 {
	rowLen := testCells + 1 + 2*testMargin
	var out [9][]float32
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			originX := float32(cx+dx)*testChunk - float32(testMargin)*testSpacing
			originZ := float32(cz+dz)*testChunk - float32(testMargin)*testSpacing
			buf := make([]float32, rowLen*rowLen)
			for iz := 0; iz < rowLen; iz++ {
				for ix := 0; ix < rowLen; ix++ {
					buf[iz*rowLen+ix] = testHeight(originX+float32(ix)*testSpacing, originZ+float32(iz)*testSpacing)
				}
			}
			out[(dz+1)*3+(dx+1)] = buf
		}
	}
	return out
}

func buildChunk(t *testing.T, cx, cz int, stride float32) (*Builder, *MeshBuildResult) {
	t.Helper()
	b := NewBuilder(testChunk, testSpacing, testMargin)
	nb := NewNeighborhood(buffersFor(cx, cz), testCells, testMargin)
	m := b.BuildMesh(nb, stride)
	b.ComputeNormals(m)
	return b, m
}

func TestBuildMeshCounts(t *testing.T) {
	tests := []struct {
		name   string
		stride float32
		cells  int
	}{
		{"full density", 1, testCells},
		{"half density", 2, testCells / 2},
		{"single quad", testChunk, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, m := buildChunk(t, 0, 0, tt.stride)

			vr := tt.cells + 1
			wantTrue := vr * vr
			wantAll := (tt.cells + 3) * (tt.cells + 3)
			if m.TrueVertexCount != wantTrue {
				t.Errorf("TrueVertexCount = %d, want %d", m.TrueVertexCount, wantTrue)
			}
			if len(m.Positions) != wantAll {
				t.Errorf("total vertices = %d, want %d (footprint + scaffold ring)", len(m.Positions), wantAll)
			}
			if m.TrueIndexCount != tt.cells*tt.cells*6 {
				t.Errorf("TrueIndexCount = %d, want %d", m.TrueIndexCount, tt.cells*tt.cells*6)
			}
			if len(m.Indices) != (tt.cells+2)*(tt.cells+2)*6 {
				t.Errorf("total indices = %d, want %d", len(m.Indices), (tt.cells+2)*(tt.cells+2)*6)
			}
			if len(m.Normals) != len(m.Positions) {
				t.Errorf("normals length %d != vertex count %d", len(m.Normals), len(m.Positions))
			}
		})
	}
}

func TestFootprintVerticesFirst(t *testing.T) {
	_, m := buildChunk(t, 0, 0, 1)

	for i := 0; i < m.TrueVertexCount; i++ {
		p := m.Positions[i]
		if p.X() < 0 || p.X() > testChunk || p.Z() < 0 || p.Z() > testChunk {
			t.Fatalf("footprint vertex %d at (%g, %g) outside chunk footprint", i, p.X(), p.Z())
		}
	}
	// Footprint triangles must reference footprint vertices only.
	for i := 0; i < m.TrueIndexCount; i++ {
		if int(m.Indices[i]) >= m.TrueVertexCount {
			t.Fatalf("footprint triangle index %d references scaffold vertex %d", i, m.Indices[i])
		}
	}
}

func TestMeshHeightsMatchSource(t *testing.T) {
	_, m := buildChunk(t, 2, -1, 2)

	originX := float32(2) * testChunk
	originZ := float32(-1) * testChunk
	for i := 0; i < m.TrueVertexCount; i++ {
		p := m.Positions[i]
		want := testHeight(originX+p.X(), originZ+p.Z())
		if p.Y() != want {
			t.Fatalf("vertex %d height %g, want %g", i, p.Y(), want)
		}
	}
}

func TestWindingConsistent(t *testing.T) {
	_, m := buildChunk(t, 0, 0, 1)

	// Every triangle of a height-field grid must face up.
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a := m.Positions[m.Indices[i]]
		b := m.Positions[m.Indices[i+1]]
		c := m.Positions[m.Indices[i+2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Y() <= 0 {
			t.Fatalf("triangle %d has downward or degenerate normal %v", i/3, n)
		}
	}
}

func TestBorderNormalsBitIdenticalAcrossChunks(t *testing.T) {
	for _, stride := range []float32{1, 2, 4} {
		_, west := buildChunk(t, 0, 0, stride)
		_, east := buildChunk(t, 1, 0, stride)

		cells := int(testChunk / stride)
		for gz := 0; gz <= cells; gz++ {
			nw := west.Normals[west.idAt(cells, gz)]
			ne := east.Normals[east.idAt(0, gz)]
			if nw != ne {
				t.Fatalf("stride %g: boundary normal at gz=%d differs: west %v east %v", stride, gz, nw, ne)
			}
		}
	}
}

func TestBorderNormalsBitIdenticalNorthSouth(t *testing.T) {
	_, south := buildChunk(t, -3, 5, 2)
	_, north := buildChunk(t, -3, 6, 2)

	cells := int(testChunk / 2)
	for gx := 0; gx <= cells; gx++ {
		ns := south.Normals[south.idAt(gx, cells)]
		nn := north.Normals[north.idAt(gx, 0)]
		if ns != nn {
			t.Fatalf("boundary normal at gx=%d differs: south %v north %v", gx, ns, nn)
		}
	}
}

func TestFinalizeTrims(t *testing.T) {
	b, m := buildChunk(t, 0, 0, 2)
	mesh, border := b.Finalize(m)

	if len(mesh.Positions) != m.TrueVertexCount {
		t.Errorf("finalized vertices = %d, want %d", len(mesh.Positions), m.TrueVertexCount)
	}
	if len(mesh.Indices) != m.TrueIndexCount {
		t.Errorf("finalized indices = %d, want %d", len(mesh.Indices), m.TrueIndexCount)
	}
	if len(mesh.Normals) != len(mesh.Positions) || len(mesh.UVs) != len(mesh.Positions) {
		t.Error("finalized attribute lengths do not match vertex count")
	}
	for _, idx := range mesh.Indices {
		if int(idx) >= len(mesh.Positions) {
			t.Fatalf("finalized index %d out of range", idx)
		}
	}

	cells := int(testChunk / 2)
	if len(border.Positions) != 4*cells {
		t.Errorf("border loop length = %d, want %d", len(border.Positions), 4*cells)
	}
	// The loop starts at the local origin and runs counter-clockwise.
	if p := border.Positions[0]; p.X() != 0 || p.Z() != 0 {
		t.Errorf("border loop starts at (%g, %g), want origin", p.X(), p.Z())
	}
	if p := border.Positions[1]; p.X() != 2 || p.Z() != 0 {
		t.Errorf("second border vertex at (%g, %g), want (2, 0)", p.X(), p.Z())
	}
}

func TestFinalizeBeforeNormalsPanics(t *testing.T) {
	b := NewBuilder(testChunk, testSpacing, testMargin)
	nb := NewNeighborhood(buffersFor(0, 0), testCells, testMargin)
	m := b.BuildMesh(nb, 1)

	defer func() {
		if recover() == nil {
			t.Error("expected panic when finalizing before ComputeNormals")
		}
	}()
	b.Finalize(m)
}

func TestBuildSkirt(t *testing.T) {
	b, m := buildChunk(t, 0, 0, 2)
	_, border := b.Finalize(m)

	const depth = 5
	skirt := BuildSkirt(border, depth)

	n := len(border.Positions)
	if len(skirt.Positions) != 2*n {
		t.Fatalf("skirt vertices = %d, want %d", len(skirt.Positions), 2*n)
	}
	if len(skirt.Indices) != 6*n {
		t.Errorf("skirt indices = %d, want %d", len(skirt.Indices), 6*n)
	}
	for i := 0; i < n; i++ {
		top := skirt.Positions[i]
		bottom := skirt.Positions[n+i]
		if top != border.Positions[i] {
			t.Fatalf("skirt top vertex %d does not match border vertex", i)
		}
		if bottom.Y() != top.Y()-depth || bottom.X() != top.X() || bottom.Z() != top.Z() {
			t.Fatalf("skirt bottom vertex %d at %v, want straight drop from %v", i, bottom, top)
		}
		if skirt.Normals[i] != border.Normals[i] || skirt.Normals[n+i] != border.Normals[i] {
			t.Fatalf("skirt normals at %d do not copy border normal", i)
		}
	}
}

func TestNeighborhoodRejectsWrongBufferSize(t *testing.T) {
	buffers := buffersFor(0, 0)
	buffers[SlotE] = buffers[SlotE][:3]

	defer func() {
		if recover() == nil {
			t.Error("expected panic for truncated neighbor buffer")
		}
	}()
	NewNeighborhood(buffers, testCells, testMargin)
}

func TestBuilderRejectsMisalignedStride(t *testing.T) {
	b := NewBuilder(testChunk, testSpacing, testMargin)
	nb := NewNeighborhood(buffersFor(0, 0), testCells, testMargin)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for stride not dividing chunk size")
		}
	}()
	b.BuildMesh(nb, 3)
}

func TestNormalsAreUnitLength(t *testing.T) {
	_, m := buildChunk(t, 0, 0, 1)

	for i, n := range m.Normals {
		if d := math.Abs(float64(n.Len()) - 1); d > 1e-5 {
			t.Fatalf("normal %d has length %g", i, n.Len())
		}
	}
}

var sinkMesh *MeshBuildResult

func BenchmarkBuildAndShade(b *testing.B) {
	builder := NewBuilder(testChunk, testSpacing, testMargin)
	nb := NewNeighborhood(buffersFor(0, 0), testCells, testMargin)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := builder.BuildMesh(nb, 1)
		builder.ComputeNormals(m)
		sinkMesh = m
	}
}
