// Package testutil builds small meshes for tests.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/philipparndt/facelabel/pkg/geometry"
	"github.com/philipparndt/facelabel/pkg/stl"
)

func tri(a, b, c geometry.Vector3) geometry.Triangle {
	t := geometry.NewTriangle(geometry.Vector3{}, a, b, c)
	t.Normal = t.CalculateNormal()
	return t
}

func quad(m *stl.Model, a, b, c, d geometry.Vector3) {
	m.AddTriangle(tri(a, b, c))
	m.AddTriangle(tri(a, c, d))
}

// Box returns an axis-aligned box with one corner at the origin. Its six
// sides are emitted in the order -Z, +Z, -Y, +Y, -X, +X, two triangles each.
func Box(w, d, h float64) *stl.Model {
	m := stl.NewModel("box")
	v := func(x, y, z float64) geometry.Vector3 { return geometry.NewVector3(x, y, z) }

	quad(m, v(0, 0, 0), v(0, d, 0), v(w, d, 0), v(w, 0, 0)) // bottom
	quad(m, v(0, 0, h), v(w, 0, h), v(w, d, h), v(0, d, h)) // top
	quad(m, v(0, 0, 0), v(w, 0, 0), v(w, 0, h), v(0, 0, h)) // front
	quad(m, v(0, d, 0), v(0, d, h), v(w, d, h), v(w, d, 0)) // back
	quad(m, v(0, 0, 0), v(0, 0, h), v(0, d, h), v(0, d, 0)) // left
	quad(m, v(w, 0, 0), v(w, d, 0), v(w, d, h), v(w, 0, h)) // right
	return m
}

// Cylinder returns a closed cylinder along +Z centered on the origin. The
// mesh is emitted as side, bottom cap, top cap.
func Cylinder(radius, height float64, segments int) *stl.Model {
	m := stl.NewModel("cylinder")
	ring := func(i int, z float64) geometry.Vector3 {
		a := 2 * math.Pi * float64(i%segments) / float64(segments)
		return geometry.NewVector3(radius*math.Cos(a), radius*math.Sin(a), z)
	}

	for i := 0; i < segments; i++ {
		quad(m, ring(i, 0), ring(i+1, 0), ring(i+1, height), ring(i, height))
	}
	bottom := geometry.NewVector3(0, 0, 0)
	for i := 0; i < segments; i++ {
		m.AddTriangle(tri(bottom, ring(i+1, 0), ring(i, 0)))
	}
	top := geometry.NewVector3(0, 0, height)
	for i := 0; i < segments; i++ {
		m.AddTriangle(tri(top, ring(i, height), ring(i+1, height)))
	}
	return m
}

// WriteSTL stores a model as ASCII STL in a temp dir and returns the path
func WriteSTL(t testing.TB, model *stl.Model, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := stl.WriteASCII(f, model); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
