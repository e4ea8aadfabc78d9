package streaming

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ChunkID identifies one terrain chunk. IDs are derived from 2D grid
// coordinates as gx + gz*ChunksPerRow and are bijective within
// [0, ChunksPerRow^2).
type ChunkID int

// Layout maps between world coordinates, grid coordinates, and chunk ids
// for a square world spanning [-HalfExtent, HalfExtent] on both axes.
type Layout struct {
	ChunkSize    float32
	HalfExtent   float32
	ChunksPerRow int
}

// NewLayout builds the layout for the given chunk edge length and symmetric
// world bound.
func NewLayout(chunkSize, maxCoordinate float32) Layout {
	if chunkSize <= 0 || maxCoordinate <= chunkSize {
		panic(fmt.Sprintf("streaming: invalid layout: chunk size %g, world bound %g", chunkSize, maxCoordinate))
	}
	return Layout{
		ChunkSize:    chunkSize,
		HalfExtent:   maxCoordinate,
		ChunksPerRow: int(2 * maxCoordinate / chunkSize),
	}
}

// IDOf returns the id of the chunk containing (x, z).
func (l Layout) IDOf(x, z float32) ChunkID {
	return l.idOfGrid(l.gridCoord(x), l.gridCoord(z))
}

// IDOfClamped is IDOf with positions outside the world snapped onto the
// nearest edge chunk instead of panicking.
func (l Layout) IDOfClamped(x, z float32) ChunkID {
	return l.idOfGrid(l.clampGrid(l.gridCoord(x)), l.clampGrid(l.gridCoord(z)))
}

// gridCoord returns the unclamped grid column or row containing the world
// coordinate v.
func (l Layout) gridCoord(v float32) int {
	return int(math.Floor(float64((v + l.HalfExtent) / l.ChunkSize)))
}

func (l Layout) clampGrid(g int) int {
	if g < 0 {
		return 0
	}
	if g >= l.ChunksPerRow {
		return l.ChunksPerRow - 1
	}
	return g
}

func (l Layout) idOfGrid(gx, gz int) ChunkID {
	if gx < 0 || gx >= l.ChunksPerRow || gz < 0 || gz >= l.ChunksPerRow {
		panic(fmt.Sprintf("streaming: grid coordinate (%d, %d) outside world of %d chunks per row", gx, gz, l.ChunksPerRow))
	}
	return ChunkID(gx + gz*l.ChunksPerRow)
}

// GridOf returns the grid coordinates encoded in id.
func (l Layout) GridOf(id ChunkID) (gx, gz int) {
	if id < 0 || int(id) >= l.ChunksPerRow*l.ChunksPerRow {
		panic(fmt.Sprintf("streaming: chunk id %d outside world of %d chunks", id, l.ChunksPerRow*l.ChunksPerRow))
	}
	return int(id) % l.ChunksPerRow, int(id) / l.ChunksPerRow
}

// OriginOf returns the world position of the chunk's minimum corner.
func (l Layout) OriginOf(id ChunkID) (x, z float32) {
	gx, gz := l.GridOf(id)
	return float32(gx)*l.ChunkSize - l.HalfExtent, float32(gz)*l.ChunkSize - l.HalfExtent
}

// CenterOf returns the world-space center of the chunk footprint at height 0.
func (l Layout) CenterOf(id ChunkID) mgl32.Vec3 {
	x, z := l.OriginOf(id)
	half := l.ChunkSize / 2
	return mgl32.Vec3{x + half, 0, z + half}
}

// Shift returns the id of the chunk offset (dx, dz) grid steps from id.
// Walking off the world grid is a precondition violation; the streaming
// radius must stay inside the world bound.
func (l Layout) Shift(id ChunkID, dx, dz int) ChunkID {
	gx, gz := l.GridOf(id)
	return l.idOfGrid(gx+dx, gz+dz)
}
