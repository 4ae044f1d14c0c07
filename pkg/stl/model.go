// Package stl reads and writes STL triangle meshes.
package stl

import (
	"github.com/philipparndt/facelabel/pkg/geometry"
)

// Model is a triangle soup as stored in an STL file
type Model struct {
	Name      string
	Triangles []geometry.Triangle
}

// NewModel creates an empty model
func NewModel(name string) *Model {
	return &Model{
		Name:      name,
		Triangles: make([]geometry.Triangle, 0),
	}
}

// AddTriangle appends a triangle
func (m *Model) AddTriangle(triangle geometry.Triangle) {
	m.Triangles = append(m.Triangles, triangle)
}

// TriangleCount returns the number of triangles in the model
func (m *Model) TriangleCount() int {
	return len(m.Triangles)
}

// DropDegenerate removes triangles whose area is at most minArea and
// returns how many were removed. Exporters emit such slivers where edges
// collapse; they carry no surface and no usable normal.
func (m *Model) DropDegenerate(minArea float64) int {
	kept := m.Triangles[:0]
	for _, t := range m.Triangles {
		if t.Area() > minArea {
			kept = append(kept, t)
		}
	}
	dropped := len(m.Triangles) - len(kept)
	m.Triangles = kept
	return dropped
}
