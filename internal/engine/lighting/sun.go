// Package lighting provides lighting utilities for 3D rendering.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Sun is a single directional light.
type Sun struct {
	Direction mgl32.Vec3 // Normalized, pointing towards the sun
	Color     mgl32.Vec3 // RGB color (0-1 range)
	Ambient   float32    // Ambient term added to the diffuse contribution
}

// NewSun builds a sun from sky angles with a warm default color.
func NewSun(longitude, latitude float32) Sun {
	return Sun{
		Direction: SunDirection(longitude, latitude),
		Color:     mgl32.Vec3{1.0, 0.96, 0.88},
		Ambient:   0.28,
	}
}

// SunDirection converts longitude/latitude sky angles to a light direction.
// Longitude is rotation around the Y axis (0-360), latitude is elevation
// from the horizon (0-90). Returns a normalized vector pointing towards
// the sun.
func SunDirection(longitude, latitude float32) mgl32.Vec3 {
	lonRad := float64(longitude) * math.Pi / 180.0
	latRad := float64(latitude) * math.Pi / 180.0

	// Spherical to Cartesian; longitude around Y, latitude up from horizon.
	x := float32(math.Cos(latRad) * math.Sin(lonRad))
	y := float32(math.Sin(latRad))
	z := float32(math.Cos(latRad) * math.Cos(lonRad))

	return mgl32.Vec3{x, y, z}
}
