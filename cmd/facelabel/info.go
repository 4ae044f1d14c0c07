package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/philipparndt/facelabel/pkg/analysis"
	"github.com/philipparndt/facelabel/pkg/kernel"
)

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Display general information about a model",
	Long:  "Show dimensions, face and triangle counts, surface types and edge statistics of an STL, STEP or OpenSCAD file.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]

	shape, err := importer().Import(cmd.Context(), filename)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", filename, err)
	}

	result := analysis.AnalyzeShape(shape)
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Model Information")
	fmt.Fprintln(out, "=================")
	if shape.Name != "" {
		fmt.Fprintf(out, "Name: %s\n", shape.Name)
	}
	fmt.Fprintf(out, "File: %s\n\n", filename)

	fmt.Fprintln(out, "Model Statistics:")
	fmt.Fprintf(out, "  Faces: %d\n", result.FaceCount)
	fmt.Fprintf(out, "    Planes: %d\n", result.BySurface[kernel.SurfacePlane])
	fmt.Fprintf(out, "    Cylinders: %d\n", result.BySurface[kernel.SurfaceCylinder])
	fmt.Fprintf(out, "    Freeform: %d\n", result.BySurface[kernel.SurfaceFreeform])
	fmt.Fprintf(out, "  Labeled faces: %d\n", result.Named)
	fmt.Fprintf(out, "  Triangles: %d\n", result.TriangleCount)
	fmt.Fprintf(out, "  Surface Area: %.6f square units\n\n", result.SurfaceArea)

	fmt.Fprintln(out, "Bounding Box:")
	fmt.Fprintf(out, "  Min: %s\n", analysis.FormatVector(result.BoundingBox.Min))
	fmt.Fprintf(out, "  Max: %s\n", analysis.FormatVector(result.BoundingBox.Max))
	fmt.Fprintf(out, "  Center: %s\n\n", analysis.FormatVector(result.BoundingBox.Center()))

	fmt.Fprintln(out, "Dimensions:")
	fmt.Fprintf(out, "  Width (X): %s\n", analysis.FormatMeasurement(result.Dimensions.X, ""))
	fmt.Fprintf(out, "  Depth (Y): %s\n", analysis.FormatMeasurement(result.Dimensions.Y, ""))
	fmt.Fprintf(out, "  Height (Z): %s\n", analysis.FormatMeasurement(result.Dimensions.Z, ""))
	fmt.Fprintf(out, "  Diagonal: %s\n", analysis.FormatMeasurement(result.BoundingBox.Diagonal(), ""))
	fmt.Fprintf(out, "  Box volume: %s\n\n", analysis.FormatMeasurement(result.BoundingBox.Volume(), "cubic units"))

	fmt.Fprintln(out, "Edge Lengths:")
	fmt.Fprintf(out, "  Minimum: %.6f units\n", result.MinEdgeLength)
	fmt.Fprintf(out, "  Maximum: %.6f units\n", result.MaxEdgeLength)
	fmt.Fprintf(out, "  Average: %.6f units\n", result.AvgEdgeLength)

	if largest := analysis.LargestFaces(result, 3); len(largest) > 0 {
		fmt.Fprintln(out, "\nLargest Faces:")
		for _, f := range largest {
			fmt.Fprintf(out, "  #%d %s: %.6f square units\n", f.Index, f.Surface, f.Area)
		}
	}
	return nil
}
