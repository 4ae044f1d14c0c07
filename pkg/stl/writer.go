package stl

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/philipparndt/facelabel/pkg/geometry"
)

// WriteASCII writes the model in ASCII STL format
func WriteASCII(w io.Writer, model *Model) error {
	bw := bufio.NewWriter(w)

	name := model.Name
	if name == "" {
		name = "model"
	}
	fmt.Fprintf(bw, "solid %s\n", name)
	for _, t := range model.Triangles {
		fmt.Fprintf(bw, "  facet normal %s\n", formatVector(t.Normal))
		fmt.Fprintln(bw, "    outer loop")
		for _, v := range t.Vertices() {
			fmt.Fprintf(bw, "      vertex %s\n", formatVector(v))
		}
		fmt.Fprintln(bw, "    endloop")
		fmt.Fprintln(bw, "  endfacet")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)

	return bw.Flush()
}

func formatVector(v geometry.Vector3) string {
	return strconv.FormatFloat(v.X, 'g', -1, 64) + " " +
		strconv.FormatFloat(v.Y, 'g', -1, 64) + " " +
		strconv.FormatFloat(v.Z, 'g', -1, 64)
}
