package kernel

import (
	"math"

	"github.com/philipparndt/facelabel/pkg/geometry"
)

const (
	// planeTolerance is the largest normal deviation (radians) of a planar face
	planeTolerance = 1e-3
	// axisTolerance bounds |n·axis| for triangle normals of a cylinder
	axisTolerance = 0.02
	// radialTolerance bounds the circle fit deviation relative to the radius
	radialTolerance = 1e-3
)

// classify sets the surface type and its parameters on a face
func classify(f *Face) {
	f.Surface = SurfaceFreeform
	f.Normal = geometry.Vector3{}
	f.Axis = geometry.Vector3{}
	f.Center = geometry.Vector3{}
	f.Radius = 0

	normals := make([]geometry.Vector3, 0, len(f.Triangles))
	var mean geometry.Vector3
	for _, t := range f.Triangles {
		n := t.CalculateNormal()
		if n.IsZero() {
			continue
		}
		normals = append(normals, n)
		mean = mean.Add(n.Mul(t.Area()))
	}
	if len(normals) == 0 {
		return
	}

	if isPlanar(normals, mean) {
		f.Surface = SurfacePlane
		f.Normal = mean.Normalize()
		return
	}

	axis, ok := cylinderAxis(normals)
	if !ok {
		return
	}
	points := f.Points()
	fit, err := geometry.FitCircle(points, axis)
	if err != nil || fit.Radius == 0 || fit.StdDev > radialTolerance*fit.Radius {
		return
	}
	f.Surface = SurfaceCylinder
	f.Axis = axis
	f.Center = fit.Center
	f.Radius = fit.Radius
}

func isPlanar(normals []geometry.Vector3, mean geometry.Vector3) bool {
	if mean.IsZero() {
		return false
	}
	for _, n := range normals {
		if n.Angle(mean) > planeTolerance {
			return false
		}
	}
	return true
}

// cylinderAxis derives the axis from the normal pair with the largest cross
// product and checks that every normal is perpendicular to it.
func cylinderAxis(normals []geometry.Vector3) (geometry.Vector3, bool) {
	first := normals[0].Normalize()
	other, best := -1, 0.0
	for i, n := range normals[1:] {
		if s := first.Cross(n.Normalize()).Length(); s > best {
			best, other = s, i+1
		}
	}
	if other < 0 || best < planeTolerance {
		return geometry.Vector3{}, false
	}

	axis := first.Cross(normals[other]).Normalize()
	for _, n := range normals {
		if math.Abs(n.Dot(axis)) > axisTolerance {
			return geometry.Vector3{}, false
		}
	}
	// Canonical direction so the same cylinder always reports the same axis
	if axis.Z < 0 || (axis.Z == 0 && (axis.Y < 0 || (axis.Y == 0 && axis.X < 0))) {
		axis = axis.Mul(-1)
	}
	return axis, true
}
