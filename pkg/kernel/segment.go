package kernel

import (
	"math"
	"sort"

	"github.com/philipparndt/facelabel/pkg/geometry"
	"github.com/philipparndt/facelabel/pkg/stl"
)

// Options controls mesh segmentation
type Options struct {
	// FeatureAngle in degrees. Adjacent triangles whose normals differ by
	// less than this belong to the same face.
	FeatureAngle float64
	// WeldTolerance is the grid size used to merge coincident vertices
	WeldTolerance float64
}

// DefaultOptions returns the segmentation defaults
func DefaultOptions() Options {
	return Options{
		FeatureAngle:  20,
		WeldTolerance: 1e-6,
	}
}

type vertexKey = [3]int64

type edgeKey struct {
	a, b vertexKey
}

func makeEdge(a, b vertexKey) edgeKey {
	if less(b, a) {
		a, b = b, a
	}
	return edgeKey{a: a, b: b}
}

func less(a, b vertexKey) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Segment splits a triangle soup into faces. Vertices are welded on a grid
// of opts.WeldTolerance, then faces grow across every shared edge whose
// dihedral angle stays below opts.FeatureAngle.
//
// Faces are ordered by their lowest triangle index and keep their triangles
// in input order, so the same mesh always yields the same enumeration.
func Segment(triangles []geometry.Triangle, opts Options) []*Face {
	if opts.FeatureAngle <= 0 {
		opts.FeatureAngle = DefaultOptions().FeatureAngle
	}
	if opts.WeldTolerance <= 0 {
		opts.WeldTolerance = DefaultOptions().WeldTolerance
	}
	limit := opts.FeatureAngle * math.Pi / 180

	normals := make([]geometry.Vector3, len(triangles))
	edges := make(map[edgeKey][]int)
	for i, t := range triangles {
		normals[i] = t.FacetNormal()
		v := t.Vertices()
		k := [3]vertexKey{
			v[0].Quantize(opts.WeldTolerance),
			v[1].Quantize(opts.WeldTolerance),
			v[2].Quantize(opts.WeldTolerance),
		}
		for j := 0; j < 3; j++ {
			a, b := k[j], k[(j+1)%3]
			if a == b {
				continue // collapsed edge of a degenerate triangle
			}
			e := makeEdge(a, b)
			edges[e] = append(edges[e], i)
		}
	}

	// Adjacency across smooth edges
	neighbors := make([][]int, len(triangles))
	for _, tris := range edges {
		for x := 0; x < len(tris); x++ {
			for y := x + 1; y < len(tris); y++ {
				a, b := tris[x], tris[y]
				if a == b {
					continue
				}
				if normals[a].Angle(normals[b]) < limit {
					neighbors[a] = append(neighbors[a], b)
					neighbors[b] = append(neighbors[b], a)
				}
			}
		}
	}

	assigned := make([]bool, len(triangles))
	var faces []*Face
	for seed := range triangles {
		if assigned[seed] {
			continue
		}
		members := []int{seed}
		assigned[seed] = true
		queue := []int{seed}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, n := range neighbors[cur] {
				if !assigned[n] {
					assigned[n] = true
					members = append(members, n)
					queue = append(queue, n)
				}
			}
		}
		sort.Ints(members)

		face := &Face{Triangles: make([]geometry.Triangle, len(members))}
		for i, idx := range members {
			face.Triangles[i] = triangles[idx]
		}
		classify(face)
		faces = append(faces, face)
	}
	return faces
}

// FromModel segments an STL model into a shape
func FromModel(model *stl.Model, opts Options) *Shape {
	return NewShape(model.Name, Segment(model.Triangles, opts))
}
