// Package filter selects faces with boolean expressions such as
//
//	surface == "cylinder" && radius < 3
//	surface == "plane" && abs(nz) > 0.99
package filter

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/philipparndt/facelabel/pkg/kernel"
)

// Env is the data an expression sees for one face
type Env struct {
	Index     int     `expr:"index"`
	Surface   string  `expr:"surface"`
	Area      float64 `expr:"area"`
	Radius    float64 `expr:"radius"`
	Triangles int     `expr:"triangles"`
	Label     string  `expr:"label"`
	Labeled   bool    `expr:"labeled"`

	// Plane normal, or cylinder axis
	Nx float64 `expr:"nx"`
	Ny float64 `expr:"ny"`
	Nz float64 `expr:"nz"`

	// Area-weighted centroid
	Cx float64 `expr:"cx"`
	Cy float64 `expr:"cy"`
	Cz float64 `expr:"cz"`
}

// NewEnv describes a face at ordinal index with its current label
func NewEnv(index int, face *kernel.Face, label string) Env {
	dir := face.Normal
	if face.Surface == kernel.SurfaceCylinder {
		dir = face.Axis
	}
	c := face.Centroid()
	return Env{
		Index:     index,
		Surface:   face.Surface.String(),
		Area:      face.Area(),
		Radius:    face.Radius,
		Triangles: len(face.Triangles),
		Label:     label,
		Labeled:   label != "",
		Nx:        dir.X,
		Ny:        dir.Y,
		Nz:        dir.Z,
		Cx:        c.X,
		Cy:        c.Y,
		Cz:        c.Z,
	}
}

// Filter is a compiled face predicate
type Filter struct {
	expression string
	program    *vm.Program
}

// Compile type-checks expression against Env
func Compile(expression string) (*Filter, error) {
	if expression == "" {
		return nil, fmt.Errorf("filter expression must not be empty")
	}
	program, err := expr.Compile(expression, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expression, err)
	}
	return &Filter{expression: expression, program: program}, nil
}

// Match evaluates the filter for one face
func (f *Filter) Match(env Env) (bool, error) {
	out, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("filter %q: %w", f.expression, err)
	}
	return out.(bool), nil
}

// String returns the source expression
func (f *Filter) String() string {
	return f.expression
}

// Labeler resolves the current label of a face, if any
type Labeler func(face *kernel.Face) string

// Apply returns the ordinals of the shape's faces that match
func (f *Filter) Apply(shape *kernel.Shape, labelOf Labeler) ([]int, error) {
	var matches []int
	for i, face := range shape.Faces() {
		label := ""
		if labelOf != nil {
			label = labelOf(face)
		}
		ok, err := f.Match(NewEnv(i, face, label))
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, i)
		}
	}
	return matches, nil
}
