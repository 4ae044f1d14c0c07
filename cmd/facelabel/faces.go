package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/philipparndt/facelabel/internal/filter"
	"github.com/philipparndt/facelabel/pkg/analysis"
	"github.com/philipparndt/facelabel/pkg/kernel"
)

var facesWhere string

var facesCmd = &cobra.Command{
	Use:   "faces [file]",
	Short: "List the faces of a model",
	Long: `List every face with its identity, surface type, area, direction and label.
Labels are read from the face names of STEP files.

--where filters faces with an expression over the fields
index, surface, area, radius, triangles, label, labeled, nx, ny, nz, cx, cy, cz:

  facelabel faces part.stl --where 'surface == "cylinder" && radius < 3'`,
	Args: cobra.ExactArgs(1),
	RunE: runFaces,
}

func init() {
	facesCmd.Flags().StringVarP(&facesWhere, "where", "w", "", "only list faces matching the expression")
	rootCmd.AddCommand(facesCmd)
}

func runFaces(cmd *cobra.Command, args []string) error {
	ws, err := newWorkspace(nil)
	if err != nil {
		return err
	}
	doc, err := ws.Import(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", args[0], err)
	}

	ordinals := make([]int, doc.Shape().FaceCount())
	for i := range ordinals {
		ordinals[i] = i
	}
	if facesWhere != "" {
		f, err := filter.Compile(facesWhere)
		if err != nil {
			return err
		}
		if ordinals, err = doc.Match(f); err != nil {
			return err
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "IDENTITY", "SURFACE", "AREA", "DIRECTION", "RADIUS", "LABEL")
	for _, i := range ordinals {
		id, face, _ := doc.Resolver().At(i)
		dir := face.Normal
		radius := "-"
		if face.Surface == kernel.SurfaceCylinder {
			dir = face.Axis
			radius = fmt.Sprintf("%.4f", face.Radius)
		}
		direction := "-"
		if face.Surface != kernel.SurfaceFreeform {
			direction = analysis.FormatVector(dir)
		}
		label := "-"
		if l, ok := doc.LabelOf(face); ok {
			label = l.String()
		}
		t.Row(fmt.Sprint(i), id.String(), face.Surface.String(), fmt.Sprintf("%.4f", face.Area()), direction, radius, label)
	}

	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d faces\n", len(ordinals), doc.Shape().FaceCount())
	return nil
}
