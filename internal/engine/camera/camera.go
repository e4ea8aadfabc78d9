// Package camera provides camera implementations for 3D rendering.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// FlyCamera is a free-flying first-person camera.
type FlyCamera struct {
	Position mgl32.Vec3

	// Orientation (radians)
	Yaw   float32 // Rotation around Y, 0 looks down -Z
	Pitch float32 // Elevation, positive looks up

	// Constraints
	MinPitch float32
	MaxPitch float32

	// Sensitivity
	MoveSpeed       float32 // Units per second
	SprintFactor    float32 // Speed multiplier while sprinting
	LookSensitivity float32 // Radians per mouse pixel
}

// NewFlyCamera creates a fly camera with default settings.
func NewFlyCamera() *FlyCamera {
	return &FlyCamera{
		Position:        mgl32.Vec3{0, 80, 0},
		Yaw:             0,
		Pitch:           -0.35,
		MinPitch:        -1.55,
		MaxPitch:        1.55,
		MoveSpeed:       60.0,
		SprintFactor:    4.0,
		LookSensitivity: 0.0025,
	}
}

// Forward returns the view direction.
func (c *FlyCamera) Forward() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	return mgl32.Vec3{
		-cp * float32(math.Sin(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
		-cp * float32(math.Cos(float64(c.Yaw))),
	}
}

// Right returns the horizontal right direction.
func (c *FlyCamera) Right() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Yaw))),
		0,
		-float32(math.Sin(float64(c.Yaw))),
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *FlyCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Forward()), mgl32.Vec3{0, 1, 0})
}

// HandleLook updates orientation from a mouse delta.
func (c *FlyCamera) HandleLook(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.LookSensitivity
	c.Pitch -= deltaY * c.LookSensitivity

	// Clamp pitch
	if c.Pitch < c.MinPitch {
		c.Pitch = c.MinPitch
	}
	if c.Pitch > c.MaxPitch {
		c.Pitch = c.MaxPitch
	}
}

// HandleMovement moves the camera along its axes. forward, right and up are
// typically -1, 0 or 1 from key state; dt is the frame time in seconds.
func (c *FlyCamera) HandleMovement(forward, right, up float32, sprint bool, dt float32) {
	speed := c.MoveSpeed * dt
	if sprint {
		speed *= c.SprintFactor
	}

	move := c.Forward().Mul(forward).
		Add(c.Right().Mul(right)).
		Add(mgl32.Vec3{0, up, 0})
	if move.Len() > 0 {
		c.Position = c.Position.Add(move.Normalize().Mul(speed))
	}
}
