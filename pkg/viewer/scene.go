// Package viewer renders shapes with a small software rasterizer. Each
// frame carries a face buffer next to the image, so picking is a lookup of
// the face drawn under the cursor.
package viewer

import (
	"image/color"
	"math"
	"sync"

	"github.com/philipparndt/facelabel/pkg/geometry"
	"github.com/philipparndt/facelabel/pkg/kernel"
)

var (
	// BaseColor is the shaded color of faces without overlay
	BaseColor = color.NRGBA{R: 204, G: 204, B: 204, A: 255}
	// EdgeColor draws the boundaries between faces
	EdgeColor = color.NRGBA{A: 255}
	// Background fills pixels without geometry
	Background = color.NRGBA{R: 176, G: 216, B: 240, A: 255}
)

// Mode selects how faces are drawn
type Mode int

const (
	// Shaded fills faces with lit colors
	Shaded Mode = iota
	// Wireframe draws face boundaries only. Overlays stay filled and
	// picking still works on the hidden faces.
	Wireframe
)

func (m Mode) String() string {
	if m == Wireframe {
		return "wireframe"
	}
	return "shaded"
}

type segment struct {
	a, b geometry.Vector3
}

// Scene is a shape, a camera and per-face overlay colors
type Scene struct {
	mu       sync.Mutex
	shape    *kernel.Shape
	camera   *Camera
	overlays map[*kernel.Face]color.NRGBA
	edges    []segment
	mode     Mode
	last     *Frame
}

// NewScene creates a scene framing the whole shape
func NewScene(shape *kernel.Shape) *Scene {
	return &Scene{
		shape:    shape,
		camera:   NewCamera(shape.BoundingBox()),
		overlays: make(map[*kernel.Face]color.NRGBA),
		edges:    faceBoundaries(shape),
	}
}

// Shape returns the displayed shape
func (s *Scene) Shape() *kernel.Shape {
	return s.shape
}

// Rotate orbits the camera
func (s *Scene) Rotate(dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera.Rotate(dx, dy)
}

// Zoom changes the camera distance by a relative amount
func (s *Scene) Zoom(delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera.Zoom(delta)
}

// ResetView returns the camera to the front view
func (s *Scene) ResetView() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera.Reset()
}

// SetMode switches between shaded and wireframe drawing
func (s *Scene) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

// Mode returns the drawing mode
func (s *Scene) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetOverlays replaces the overlay colors
func (s *Scene) SetOverlays(overlays map[*kernel.Face]color.NRGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlays = make(map[*kernel.Face]color.NRGBA, len(overlays))
	for f, c := range overlays {
		s.overlays[f] = c
	}
}

// Render draws the scene into a new frame of the given pixel size
func (s *Scene) Render(width, height int) *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	frame := newFrame(width, height, rgba(Background))
	w, h := float64(width), float64(height)
	view := s.camera.ViewDirection()

	for i, face := range s.shape.Faces() {
		base, overlay := s.overlays[face]
		if !overlay {
			base = BaseColor
		}
		for _, t := range face.Triangles {
			x1, y1, z1 := s.camera.Project(t.V1, w, h)
			x2, y2, z2 := s.camera.Project(t.V2, w, h)
			x3, y3, z3 := s.camera.Project(t.V3, w, h)
			if z1 <= nearPlane || z2 <= nearPlane || z3 <= nearPlane {
				continue // behind the camera
			}
			col := shade(base, t.CalculateNormal(), view)
			if s.mode == Wireframe && !overlay {
				col = rgba(Background)
			}
			frame.fillTriangle(x1, y1, z1, x2, y2, z2, x3, y3, z3, col, int32(i))
		}
	}

	bias := s.camera.Distance * 1e-3
	if s.mode == Wireframe {
		// hidden edges stay visible
		bias = math.Inf(1)
	}
	for _, e := range s.edges {
		x1, y1, z1 := s.camera.Project(e.a, w, h)
		x2, y2, z2 := s.camera.Project(e.b, w, h)
		if z1 <= nearPlane || z2 <= nearPlane {
			continue
		}
		frame.drawLine(int(math.Round(x1)), int(math.Round(y1)), z1,
			int(math.Round(x2)), int(math.Round(y2)), z2, rgba(EdgeColor), bias)
	}

	s.last = frame
	return frame
}

// Pick returns the face under pixel (x, y) of the last rendered frame
func (s *Scene) Pick(x, y int) (*kernel.Face, bool) {
	s.mu.Lock()
	frame := s.last
	s.mu.Unlock()
	if frame == nil {
		return nil, false
	}
	idx, ok := frame.FaceAt(x, y)
	if !ok {
		return nil, false
	}
	return s.shape.Face(idx)
}

// shade applies simple headlight diffuse lighting
func shade(c color.NRGBA, normal, view geometry.Vector3) color.RGBA {
	intensity := 0.35 + 0.65*math.Abs(normal.Dot(view))
	return color.RGBA{
		R: uint8(float64(c.R) * intensity),
		G: uint8(float64(c.G) * intensity),
		B: uint8(float64(c.B) * intensity),
		A: 255,
	}
}

func rgba(c color.NRGBA) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// faceBoundaries returns the triangle edges that separate two faces or lie
// on an open border.
func faceBoundaries(shape *kernel.Shape) []segment {
	type edgeKey struct{ a, b geometry.Vector3 }
	less := func(a, b geometry.Vector3) bool {
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	}

	owners := make(map[edgeKey][]int)
	var order []edgeKey
	for i, face := range shape.Faces() {
		for _, t := range face.Triangles {
			v := t.Vertices()
			for j := 0; j < 3; j++ {
				a, b := v[j], v[(j+1)%3]
				if less(b, a) {
					a, b = b, a
				}
				k := edgeKey{a, b}
				if _, seen := owners[k]; !seen {
					order = append(order, k)
				}
				owners[k] = append(owners[k], i)
			}
		}
	}

	var segments []segment
	for _, k := range order {
		faces := owners[k]
		boundary := len(faces) == 1
		for _, f := range faces[1:] {
			if f != faces[0] {
				boundary = true
			}
		}
		if boundary {
			segments = append(segments, segment{k.a, k.b})
		}
	}
	return segments
}
