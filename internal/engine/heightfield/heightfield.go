// Package heightfield provides the deterministic, seed-parameterized terrain
// height function. A Generator is pure and safe for concurrent use; sampling
// has no mutable state, so batch fills parallelize freely.
package heightfield

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// Noise layer tuning. The blend below is the terrain shape policy: a broad
// continental base, rolling hills, and fine surface detail.
const (
	baseWavelength   = 340.0
	baseAmplitude    = 42.0
	hillWavelength   = 71.0
	hillAmplitude    = 11.0
	detailWavelength = 13.0
	detailAmplitude  = 1.6

	// phaseRange bounds the random phase offsets derived from the seed.
	phaseRange = 65536.0
)

// Generator samples terrain height at arbitrary world coordinates.
type Generator struct {
	seed     int64
	phaseX   float64
	phaseZ   float64
	maxCoord float64
}

// New derives a Generator from a seed string. The string is hashed once;
// the hashed seed then drives a local RNG whose draw order (phaseX first,
// then phaseZ) is part of the format: identical seeds always yield
// identical terrain.
func New(seed string, maxCoordinate float32) *Generator {
	h := HashSeed(seed)
	rng := rand.New(rand.NewSource(h))
	phaseX := rng.Float64() * phaseRange
	phaseZ := rng.Float64() * phaseRange

	return &Generator{
		seed:     h,
		phaseX:   phaseX,
		phaseZ:   phaseZ,
		maxCoord: float64(maxCoordinate),
	}
}

// HashSeed maps an arbitrary seed string to an integer seed (FNV-1a).
func HashSeed(seed string) int64 {
	h := fnv.New64a()
	h.Write([]byte(seed))
	return int64(h.Sum64())
}

// MaxCoordinate returns the symmetric coordinate bound.
func (g *Generator) MaxCoordinate() float32 {
	return float32(g.maxCoord)
}

// Sample returns the terrain height at (x, z). Coordinates outside
// [-MaxCoordinate, MaxCoordinate] are a precondition violation.
func (g *Generator) Sample(x, z float32) float32 {
	fx := float64(x)
	fz := float64(z)
	if fx < -g.maxCoord || fx > g.maxCoord || fz < -g.maxCoord || fz > g.maxCoord {
		panic(fmt.Sprintf("heightfield: coordinate (%g, %g) outside world bound %g", x, z, g.maxCoord))
	}

	// The two phase offsets decorrelate the layers: the base layer is
	// shifted one way, the hill layer the opposite way.
	bx := (fx + g.phaseX) / baseWavelength
	bz := (fz + g.phaseZ) / baseWavelength
	base := octaveNoise2D(bx, bz, g.seed, 4, 0.5, 2.0)

	hx := (fx - g.phaseZ) / hillWavelength
	hz := (fz - g.phaseX) / hillWavelength
	hills := octaveNoise2D(hx, hz, g.seed+7919, 3, 0.5, 2.0)

	detail := valueNoise2D(fx/detailWavelength, fz/detailWavelength, g.seed+104729)

	// Map each layer from [0,1] to [-1,1] before scaling so sea level
	// sits near zero.
	h := (base*2 - 1) * baseAmplitude
	h += (hills*2 - 1) * hillAmplitude
	h += (detail*2 - 1) * detailAmplitude
	return float32(h)
}

// FillGrid samples a row-major grid of width*depth heights starting at
// (originX, originZ) with the given spacing between samples. dst must hold
// width*depth values. Safe to call concurrently with any other sampling.
func (g *Generator) FillGrid(dst []float32, originX, originZ, spacing float32, width, depth int) {
	if len(dst) != width*depth {
		panic(fmt.Sprintf("heightfield: grid buffer has %d entries, want %d", len(dst), width*depth))
	}
	for iz := 0; iz < depth; iz++ {
		z := originZ + float32(iz)*spacing
		row := dst[iz*width:]
		for ix := 0; ix < width; ix++ {
			row[ix] = g.Sample(originX+float32(ix)*spacing, z)
		}
	}
}
