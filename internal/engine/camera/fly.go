package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// FlyCamera is a free-look camera driven by the preview tools.
type FlyCamera struct {
	Position r3.Vec
	Yaw      float64 // degrees
	Pitch    float64 // degrees, positive looks down

	FOV  float64
	Near float64
	Far  float64

	// Constraints
	MinPitch float64
	MaxPitch float64

	// Sensitivity
	DragSensitivity float64 // degrees per pixel
	MoveSpeed       float64 // blocks per second
}

// NewFlyCamera creates a fly camera with default settings.
func NewFlyCamera() *FlyCamera {
	return &FlyCamera{
		Position:        r3.Vec{X: 0, Y: 80, Z: -40},
		Yaw:             0,
		Pitch:           30,
		FOV:             70,
		Near:            0.05,
		Far:             512,
		MinPitch:        -89,
		MaxPitch:        89,
		DragSensitivity: 0.2,
		MoveSpeed:       20,
	}
}

// Snapshot freezes the camera into a State for one frame.
func (c *FlyCamera) Snapshot(aspect float64) State {
	return State{
		Position: c.Position,
		Yaw:      c.Yaw,
		Pitch:    c.Pitch,
		FOV:      c.FOV,
		Near:     c.Near,
		Far:      c.Far,
		Aspect:   aspect,
	}
}

// HandleDrag updates yaw and pitch from a mouse drag delta in pixels.
func (c *FlyCamera) HandleDrag(deltaX, deltaY float64) {
	c.Yaw = math.Mod(c.Yaw+deltaX*c.DragSensitivity, 360)
	c.Pitch += deltaY * c.DragSensitivity

	// Clamp pitch
	if c.Pitch < c.MinPitch {
		c.Pitch = c.MinPitch
	}
	if c.Pitch > c.MaxPitch {
		c.Pitch = c.MaxPitch
	}
}

// HandleMovement moves the camera relative to its heading.
// forward, right and up are axis inputs in [-1, 1]; dt is in seconds.
func (c *FlyCamera) HandleMovement(forward, right, up, dt float64) {
	b := State{Yaw: c.Yaw}.Basis()
	step := c.MoveSpeed * dt

	// Horizontal movement ignores pitch so W does not dive into the ground.
	c.Position = r3.Add(c.Position, r3.Scale(forward*step, b.Forward))
	c.Position = r3.Add(c.Position, r3.Scale(right*step, b.Right))
	c.Position.Y += up * step
}

// LookAt points the camera at a world position.
func (c *FlyCamera) LookAt(target r3.Vec) {
	d := r3.Sub(target, c.Position)
	horiz := math.Hypot(d.X, d.Z)
	if horiz == 0 && d.Y == 0 {
		return
	}
	c.Yaw = math.Atan2(-d.X, d.Z) * 180 / math.Pi
	c.Pitch = math.Atan2(-d.Y, horiz) * 180 / math.Pi
}
