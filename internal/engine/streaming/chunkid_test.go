package streaming

import (
	"testing"
)

func TestChunkIDRoundTrip(t *testing.T) {
	l := NewLayout(64, 1024)

	// Chunk-aligned coordinates must survive the id round trip exactly.
	for z := float32(-1024); z < 1024; z += 64 {
		for x := float32(-1024); x < 1024; x += 64 {
			id := l.IDOf(x, z)
			ox, oz := l.OriginOf(id)
			if ox != x || oz != z {
				t.Fatalf("OriginOf(IDOf(%g, %g)) = (%g, %g)", x, z, ox, oz)
			}
		}
	}
}

func TestChunkIDBijective(t *testing.T) {
	l := NewLayout(64, 1024)

	seen := make(map[ChunkID]bool)
	for gz := 0; gz < l.ChunksPerRow; gz++ {
		for gx := 0; gx < l.ChunksPerRow; gx++ {
			id := l.idOfGrid(gx, gz)
			if id < 0 || int(id) >= l.ChunksPerRow*l.ChunksPerRow {
				t.Fatalf("id %d for grid (%d, %d) outside [0, %d)", id, gx, gz, l.ChunksPerRow*l.ChunksPerRow)
			}
			if seen[id] {
				t.Fatalf("duplicate id %d for grid (%d, %d)", id, gx, gz)
			}
			seen[id] = true

			bx, bz := l.GridOf(id)
			if bx != gx || bz != gz {
				t.Fatalf("GridOf(%d) = (%d, %d), want (%d, %d)", id, bx, bz, gx, gz)
			}
		}
	}
}

func TestIDOfInteriorPoints(t *testing.T) {
	l := NewLayout(64, 1024)

	// Any point inside a chunk maps to that chunk's id.
	base := l.IDOf(0, 0)
	for _, p := range [][2]float32{{0.5, 0.5}, {63.9, 0.1}, {31, 63.5}} {
		if got := l.IDOf(p[0], p[1]); got != base {
			t.Errorf("IDOf(%g, %g) = %d, want %d", p[0], p[1], got, base)
		}
	}
	if l.IDOf(-0.01, 0) == base {
		t.Error("point left of the chunk boundary mapped to the same chunk")
	}
}

func TestShift(t *testing.T) {
	l := NewLayout(64, 1024)

	id := l.IDOf(0, 0)
	east := l.Shift(id, 1, 0)
	ox, oz := l.OriginOf(east)
	if ox != 64 || oz != 0 {
		t.Errorf("east neighbor origin = (%g, %g), want (64, 0)", ox, oz)
	}
	if l.Shift(east, -1, 0) != id {
		t.Error("shifting back did not return the original id")
	}
}

func TestShiftOffGridPanics(t *testing.T) {
	l := NewLayout(64, 256)
	corner := l.IDOf(-256, -256)

	defer func() {
		if recover() == nil {
			t.Error("expected panic when shifting off the world grid")
		}
	}()
	l.Shift(corner, -1, 0)
}

func TestCenterOf(t *testing.T) {
	l := NewLayout(64, 1024)

	c := l.CenterOf(l.IDOf(0, 0))
	if c.X() != 32 || c.Y() != 0 || c.Z() != 32 {
		t.Errorf("center = %v, want (32, 0, 32)", c)
	}
}
