package viewer

import (
	"math"

	"github.com/philipparndt/facelabel/pkg/geometry"
)

const nearPlane = 0.01

// Camera orbits a target point at a distance
type Camera struct {
	Position  geometry.Vector3
	Target    geometry.Vector3
	Up        geometry.Vector3
	FOV       float64 // Field of view in radians
	Distance  float64
	RotationX float64 // Rotation around X axis (vertical)
	RotationY float64 // Rotation around Y axis (horizontal)

	home float64
}

// NewCamera creates a camera looking down -Z at the center of a bounding box
func NewCamera(bbox geometry.BoundingBox) *Camera {
	c := &Camera{
		Up:  geometry.NewVector3(0, 1, 0),
		FOV: math.Pi / 4,
	}
	c.Fit(bbox)
	return c
}

// Fit targets the center of bbox from a distance that shows all of it
func (c *Camera) Fit(bbox geometry.BoundingBox) {
	size := bbox.Size()
	distance := math.Max(size.X, math.Max(size.Y, size.Z)) * 2.0
	if distance <= 0 || bbox.IsEmpty() {
		distance = 1
	}
	c.Target = geometry.Vector3{}
	if !bbox.IsEmpty() {
		c.Target = bbox.Center()
	}
	c.Distance = distance
	c.home = distance
	c.RotationX, c.RotationY = 0, 0
	c.UpdatePosition()
}

// UpdatePosition places the camera on its orbit from the rotation angles
func (c *Camera) UpdatePosition() {
	x := c.Distance * math.Cos(c.RotationX) * math.Sin(c.RotationY)
	y := c.Distance * math.Sin(c.RotationX)
	z := c.Distance * math.Cos(c.RotationX) * math.Cos(c.RotationY)

	c.Position = c.Target.Add(geometry.NewVector3(x, y, z))
}

// Rotate rotates the camera by the given angles
func (c *Camera) Rotate(deltaX, deltaY float64) {
	c.RotationX += deltaX
	c.RotationY += deltaY

	// Clamp X rotation to prevent gimbal lock
	maxAngle := math.Pi/2 - 0.1
	c.RotationX = math.Max(-maxAngle, math.Min(maxAngle, c.RotationX))

	c.UpdatePosition()
}

// Zoom scales the camera distance by 1+delta
func (c *Camera) Zoom(delta float64) {
	c.Distance *= (1.0 + delta)
	if c.Distance < 0.1 {
		c.Distance = 0.1
	}
	c.UpdatePosition()
}

// Reset returns to the initial front view
func (c *Camera) Reset() {
	c.RotationX, c.RotationY = 0, 0
	if c.home > 0 {
		c.Distance = c.home
	}
	c.UpdatePosition()
}

// basis returns the camera's forward, right and up unit vectors
func (c *Camera) basis() (forward, right, up geometry.Vector3) {
	forward = c.Target.Sub(c.Position).Normalize()
	right = forward.Cross(c.Up).Normalize()
	up = right.Cross(forward).Normalize()
	return forward, right, up
}

// ViewDirection returns the unit vector from the camera to its target
func (c *Camera) ViewDirection() geometry.Vector3 {
	forward, _, _ := c.basis()
	return forward
}

// Project maps a point to screen coordinates and its depth along the view
// direction. Points behind the near plane have depth <= nearPlane.
func (c *Camera) Project(point geometry.Vector3, width, height float64) (float64, float64, float64) {
	forward, right, up := c.basis()

	relative := point.Sub(c.Position)
	x := relative.Dot(right)
	y := relative.Dot(up)
	z := relative.Dot(forward)
	if z <= nearPlane {
		return 0, 0, z
	}

	aspect := width / height
	fovScale := math.Tan(c.FOV / 2)

	screenX := (x/(z*fovScale*aspect))*(width/2) + (width / 2)
	screenY := (-y/(z*fovScale))*(height/2) + (height / 2)

	return screenX, screenY, z
}
