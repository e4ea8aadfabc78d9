package streaming

import "fmt"

// lodHysteresis widens each LOD distance band by this fraction before a
// chunk is allowed to leave it, so a viewer hovering at a threshold does
// not flicker between two LODs.
const lodHysteresis = 0.05

// LodSelector maps viewer distance to a discrete LOD index.
type LodSelector struct {
	// distSq holds squared switch distances, ascending.
	distSq []float32
}

// NewLodSelector builds a selector from the per-LOD switch distances.
func NewLodSelector(distances []float32) *LodSelector {
	if len(distances) == 0 {
		panic("streaming: LOD distance table is empty")
	}
	distSq := make([]float32, len(distances))
	for i, d := range distances {
		if d <= 0 {
			panic(fmt.Sprintf("streaming: LOD distance %d must be positive, got %g", i, d))
		}
		if i > 0 && d <= distances[i-1] {
			panic(fmt.Sprintf("streaming: LOD distances must be ascending at index %d", i))
		}
		distSq[i] = d * d
	}
	return &LodSelector{distSq: distSq}
}

// Count returns the number of LOD levels.
func (s *LodSelector) Count() int { return len(s.distSq) }

// Select returns the LOD index for a squared viewer-to-chunk-center
// distance, or -1 when the chunk is beyond the last threshold and should
// be invisible. current is the chunk's present index (-1 for none); while
// the distance stays within the current band widened by the hysteresis
// margin, current wins.
func (s *LodSelector) Select(distSq float32, current int) int {
	base := -1
	for i, d := range s.distSq {
		if distSq < d {
			base = i
			break
		}
	}
	if base == current || current < -1 || current >= len(s.distSq) {
		return base
	}

	// Hysteresis: keep the current band while still inside its widened
	// bounds. Band i spans [distSq[i-1], distSq[i]); band -1 is
	// everything past the last threshold.
	const lo = 1 - lodHysteresis
	const hi = 1 + lodHysteresis
	if current == -1 {
		if distSq >= s.distSq[len(s.distSq)-1]*lo {
			return -1
		}
		return base
	}
	lower := float32(0)
	if current > 0 {
		lower = s.distSq[current-1] * lo
	}
	upper := s.distSq[current] * hi
	if distSq >= lower && distSq < upper {
		return current
	}
	return base
}
