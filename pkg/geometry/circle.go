package geometry

import (
	"fmt"
	"math"
)

// CircleFit represents the result of fitting a circle to points
type CircleFit struct {
	Center Vector3 // Circle center in 3D
	Radius float64 // Circle radius
	Normal Vector3 // Normal vector of the plane containing the circle
	StdDev float64 // Standard deviation of fit (quality measure)
}

// PlaneBasis returns two unit vectors spanning the plane perpendicular to n
func PlaneBasis(n Vector3) (Vector3, Vector3) {
	n = n.Normalize()
	helper := NewVector3(1, 0, 0)
	if math.Abs(n.X) > 0.9 {
		helper = NewVector3(0, 1, 0)
	}
	u := n.Cross(helper).Normalize()
	v := n.Cross(u).Normalize()
	return u, v
}

// FitCircle fits a circle to points after projecting them onto the plane
// perpendicular to normal. For a cylinder, pass the cylinder axis as the
// normal and the points collapse onto its cross-section.
//
// The circle goes through three well-spread points (the first point, the
// point farthest from it, and the point enclosing the largest triangle with
// those two) using the determinant formula:
//
//	D  = 2(x₁(y₂-y₃) + x₂(y₃-y₁) + x₃(y₁-y₂))
//	cx = ((x₁²+y₁²)(y₂-y₃) + (x₂²+y₂²)(y₃-y₁) + (x₃²+y₃²)(y₁-y₂)) / D
//	cy = ((x₁²+y₁²)(x₃-x₂) + (x₂²+y₂²)(x₁-x₃) + (x₃²+y₃²)(x₂-x₁)) / D
//
// StdDev measures how far all points deviate from that circle.
func FitCircle(points []Vector3, normal Vector3) (*CircleFit, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("need at least 3 points to fit a circle")
	}
	if normal.IsZero() {
		return nil, fmt.Errorf("plane normal must not be zero")
	}

	n := normal.Normalize()
	u, v := PlaneBasis(n)

	// Project to 2D plane coordinates
	points2D := make([][2]float64, len(points))
	meanHeight := 0.0
	for i, p := range points {
		points2D[i] = [2]float64{p.Dot(u), p.Dot(v)}
		meanHeight += p.Dot(n)
	}
	meanHeight /= float64(len(points))

	// Pick three well-spread points
	i1 := 0
	i2 := farthestFrom(points2D, points2D[i1])
	i3 := largestTriangle(points2D, points2D[i1], points2D[i2])

	x1, y1 := points2D[i1][0], points2D[i1][1]
	x2, y2 := points2D[i2][0], points2D[i2][1]
	x3, y3 := points2D[i3][0], points2D[i3][1]

	D := 2.0 * (x1*(y2-y3) + x2*(y3-y1) + x3*(y1-y2))
	if math.Abs(D) < 1e-10 {
		return nil, fmt.Errorf("points are collinear")
	}

	x1sq := x1*x1 + y1*y1
	x2sq := x2*x2 + y2*y2
	x3sq := x3*x3 + y3*y3

	cx := (x1sq*(y2-y3) + x2sq*(y3-y1) + x3sq*(y1-y2)) / D
	cy := (x1sq*(x3-x2) + x2sq*(x1-x3) + x3sq*(x2-x1)) / D

	radius := math.Hypot(x1-cx, y1-cy)

	// Fit quality over all points
	var sumError float64
	for _, p := range points2D {
		dist := math.Hypot(p[0]-cx, p[1]-cy)
		sumError += (dist - radius) * (dist - radius)
	}
	stdDev := math.Sqrt(sumError / float64(len(points2D)))

	center := u.Mul(cx).Add(v.Mul(cy)).Add(n.Mul(meanHeight))

	return &CircleFit{
		Center: center,
		Radius: radius,
		Normal: n,
		StdDev: stdDev,
	}, nil
}

func farthestFrom(points [][2]float64, from [2]float64) int {
	best, bestDist := 0, -1.0
	for i, p := range points {
		d := math.Hypot(p[0]-from[0], p[1]-from[1])
		if d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func largestTriangle(points [][2]float64, a, b [2]float64) int {
	best, bestArea := 0, -1.0
	for i, p := range points {
		area := math.Abs((b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0]))
		if area > bestArea {
			best, bestArea = i, area
		}
	}
	return best
}
