// Package kernel is a small tessellated solid-modeling kernel. A Shape is a
// list of faces, each a connected patch of triangles with one surface type.
// Faces come from segmenting STL meshes or from tessellated STEP files, and
// shapes can be transferred back to STEP with per-face entity names.
package kernel

import (
	"github.com/philipparndt/facelabel/pkg/geometry"
)

// SurfaceType classifies the underlying surface of a face
type SurfaceType int

const (
	SurfaceFreeform SurfaceType = iota
	SurfacePlane
	SurfaceCylinder
)

func (s SurfaceType) String() string {
	switch s {
	case SurfacePlane:
		return "plane"
	case SurfaceCylinder:
		return "cylinder"
	default:
		return "freeform"
	}
}

// Face is one bounded surface patch of a shape
type Face struct {
	Triangles []geometry.Triangle

	// Name is the entity name read from a STEP file, empty otherwise
	Name string

	Surface SurfaceType
	// Normal is the plane normal for planar faces
	Normal geometry.Vector3
	// Axis, Center and Radius describe cylindrical faces
	Axis   geometry.Vector3
	Center geometry.Vector3
	Radius float64
}

// Area returns the total triangle area
func (f *Face) Area() float64 {
	area := 0.0
	for _, t := range f.Triangles {
		area += t.Area()
	}
	return area
}

// BoundingBox returns the bounds of the face's triangles
func (f *Face) BoundingBox() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for _, t := range f.Triangles {
		bbox.ExtendTriangle(t)
	}
	return bbox
}

// Centroid returns the area-weighted center of the face
func (f *Face) Centroid() geometry.Vector3 {
	var sum geometry.Vector3
	total := 0.0
	for _, t := range f.Triangles {
		a := t.Area()
		sum = sum.Add(t.Center().Mul(a))
		total += a
	}
	if total == 0 {
		if len(f.Triangles) == 0 {
			return sum
		}
		return f.Triangles[0].Center()
	}
	return sum.Mul(1 / total)
}

// Points returns the distinct vertices of the face in first-seen order
func (f *Face) Points() []geometry.Vector3 {
	seen := make(map[geometry.Vector3]bool)
	var points []geometry.Vector3
	for _, t := range f.Triangles {
		for _, v := range t.Vertices() {
			if !seen[v] {
				seen[v] = true
				points = append(points, v)
			}
		}
	}
	return points
}

// Shape is a tessellated solid made of faces
type Shape struct {
	Name   string
	Source string
	faces  []*Face
}

// NewShape creates a shape from faces. The slice order is the shape's
// fixed face enumeration order.
func NewShape(name string, faces []*Face) *Shape {
	return &Shape{Name: name, faces: faces}
}

// Faces enumerates the faces in a fixed order. Repeated calls on an
// unmodified shape return the same faces in the same order.
func (s *Shape) Faces() []*Face {
	faces := make([]*Face, len(s.faces))
	copy(faces, s.faces)
	return faces
}

// FaceCount returns the number of faces
func (s *Shape) FaceCount() int {
	return len(s.faces)
}

// Face returns the face at ordinal i
func (s *Shape) Face(i int) (*Face, bool) {
	if i < 0 || i >= len(s.faces) {
		return nil, false
	}
	return s.faces[i], true
}

// IndexOf returns the ordinal of a face of this shape
func (s *Shape) IndexOf(face *Face) (int, bool) {
	for i, f := range s.faces {
		if f == face {
			return i, true
		}
	}
	return -1, false
}

// Triangles returns all triangles of all faces
func (s *Shape) Triangles() []geometry.Triangle {
	var triangles []geometry.Triangle
	for _, f := range s.faces {
		triangles = append(triangles, f.Triangles...)
	}
	return triangles
}

// TriangleCount returns the number of triangles in the shape
func (s *Shape) TriangleCount() int {
	n := 0
	for _, f := range s.faces {
		n += len(f.Triangles)
	}
	return n
}

// BoundingBox returns the bounds of the whole shape
func (s *Shape) BoundingBox() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for _, f := range s.faces {
		for _, t := range f.Triangles {
			bbox.ExtendTriangle(t)
		}
	}
	return bbox
}

// SurfaceArea returns the total area of all faces
func (s *Shape) SurfaceArea() float64 {
	area := 0.0
	for _, f := range s.faces {
		area += f.Area()
	}
	return area
}
