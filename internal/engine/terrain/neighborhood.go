package terrain

import "fmt"

// Neighbor slot indices for the 3x3 chunk neighborhood, row-major from the
// south-west corner: slot = (dz+1)*3 + (dx+1).
const (
	SlotSW = iota
	SlotS
	SlotSE
	SlotW
	SlotCenter
	SlotE
	SlotNW
	SlotN
	SlotNE
)

// Neighborhood provides height lookup across a chunk and its 8 neighbors in
// the center chunk's base-sample index space. Sample slices are write-once
// height buffers; overlapping samples carry identical values in every buffer
// because the generator is deterministic, so lookups are seam-exact no
// matter which buffer serves them.
type Neighborhood struct {
	samples [9][]float32

	// n is the number of base-spacing cells per chunk edge; each buffer
	// holds (n+1+2*margin)^2 samples, margin extra rings on every side.
	n      int
	margin int
	rowLen int
}

// NewNeighborhood wraps the 9 height buffers of a chunk. buffers[SlotCenter]
// is the chunk's own buffer; the rest follow the slot layout above.
func NewNeighborhood(buffers [9][]float32, cellsPerEdge, margin int) *Neighborhood {
	rowLen := cellsPerEdge + 1 + 2*margin
	for slot, b := range buffers {
		if len(b) != rowLen*rowLen {
			panic(fmt.Sprintf("terrain: neighbor buffer %d has %d samples, want %d", slot, len(b), rowLen*rowLen))
		}
	}
	return &Neighborhood{
		samples: buffers,
		n:       cellsPerEdge,
		margin:  margin,
		rowLen:  rowLen,
	}
}

// HeightAt returns the height at base-sample index (ix, iz) relative to the
// center chunk's origin. Indices within the center buffer (margin included)
// resolve locally; anything further resolves through the owning neighbor.
// Valid range is [-n, 2n] on both axes.
func (nb *Neighborhood) HeightAt(ix, iz int) float32 {
	if ix >= -nb.margin && ix <= nb.n+nb.margin && iz >= -nb.margin && iz <= nb.n+nb.margin {
		return nb.read(SlotCenter, ix, iz)
	}

	dx, lx := nb.split(ix)
	dz, lz := nb.split(iz)
	slot := (dz+1)*3 + (dx + 1)
	return nb.read(slot, lx, lz)
}

// split maps a base-sample index to a neighbor offset and a local index
// inside that neighbor.
func (nb *Neighborhood) split(i int) (d, local int) {
	switch {
	case i < 0:
		if i < -nb.n {
			panic(fmt.Sprintf("terrain: sample index %d beyond adjacent chunk (n=%d)", i, nb.n))
		}
		return -1, i + nb.n
	case i > nb.n:
		if i > 2*nb.n {
			panic(fmt.Sprintf("terrain: sample index %d beyond adjacent chunk (n=%d)", i, nb.n))
		}
		return 1, i - nb.n
	default:
		return 0, i
	}
}

func (nb *Neighborhood) read(slot, lx, lz int) float32 {
	return nb.samples[slot][(lz+nb.margin)*nb.rowLen+(lx+nb.margin)]
}
