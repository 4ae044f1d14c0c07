// Package analysis summarizes shapes for reports.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/philipparndt/facelabel/pkg/geometry"
	"github.com/philipparndt/facelabel/pkg/kernel"
)

// FaceInfo describes one face of a shape
type FaceInfo struct {
	Index     int
	Surface   kernel.SurfaceType
	Area      float64
	Triangles int
	Centroid  geometry.Vector3
	// Direction is the plane normal or cylinder axis
	Direction geometry.Vector3
	Radius    float64
	Name      string
}

// Summary contains measurements of a shape
type Summary struct {
	BoundingBox   geometry.BoundingBox
	Dimensions    geometry.Vector3
	SurfaceArea   float64
	TriangleCount int
	FaceCount     int
	BySurface     map[kernel.SurfaceType]int
	Named         int
	MinEdgeLength float64
	MaxEdgeLength float64
	AvgEdgeLength float64
	Faces         []FaceInfo
}

// AnalyzeShape performs the analysis of a shape and its faces
func AnalyzeShape(shape *kernel.Shape) *Summary {
	result := &Summary{
		BoundingBox:   shape.BoundingBox(),
		SurfaceArea:   shape.SurfaceArea(),
		TriangleCount: shape.TriangleCount(),
		FaceCount:     shape.FaceCount(),
		BySurface:     make(map[kernel.SurfaceType]int),
	}
	result.Dimensions = result.BoundingBox.Size()

	for i, face := range shape.Faces() {
		info := FaceInfo{
			Index:     i,
			Surface:   face.Surface,
			Area:      face.Area(),
			Triangles: len(face.Triangles),
			Centroid:  face.Centroid(),
			Name:      face.Name,
		}
		switch face.Surface {
		case kernel.SurfacePlane:
			info.Direction = face.Normal
		case kernel.SurfaceCylinder:
			info.Direction = face.Axis
			info.Radius = face.Radius
		}
		result.Faces = append(result.Faces, info)
		result.BySurface[face.Surface]++
		if face.Name != "" {
			result.Named++
		}
	}

	minLength := math.MaxFloat64
	maxLength := 0.0
	totalLength := 0.0
	edges := 0
	for _, triangle := range shape.Triangles() {
		for _, length := range triangle.EdgeLengths() {
			totalLength += length
			edges++
			if length < minLength {
				minLength = length
			}
			if length > maxLength {
				maxLength = length
			}
		}
	}
	if edges > 0 {
		result.MinEdgeLength = minLength
		result.MaxEdgeLength = maxLength
		result.AvgEdgeLength = totalLength / float64(edges)
	}

	return result
}

// LargestFaces returns the N faces with the largest area
func LargestFaces(result *Summary, count int) []FaceInfo {
	faces := make([]FaceInfo, len(result.Faces))
	copy(faces, result.Faces)

	sort.SliceStable(faces, func(i, j int) bool {
		return faces[i].Area > faces[j].Area
	})

	if count > len(faces) {
		count = len(faces)
	}
	return faces[:count]
}

// FormatMeasurement formats a measurement with appropriate units
func FormatMeasurement(value float64, unit string) string {
	if unit == "" {
		unit = "units"
	}
	return fmt.Sprintf("%.6f %s", value, unit)
}

// FormatVector formats a 3D vector
func FormatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}
