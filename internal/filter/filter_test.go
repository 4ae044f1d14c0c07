package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/facelabel/internal/testutil"
	"github.com/philipparndt/facelabel/pkg/kernel"
)

func cylinder() *kernel.Shape {
	return kernel.FromModel(testutil.Cylinder(2, 10, 32), kernel.DefaultOptions())
}

func TestApply(t *testing.T) {
	shape := cylinder()
	tests := []struct {
		expression string
		want       []int
	}{
		{`surface == "cylinder"`, []int{0}},
		{`surface == "cylinder" && radius < 3`, []int{0}},
		{`surface == "cylinder" && radius > 3`, nil},
		{`surface == "plane" && nz > 0.99`, []int{2}},
		{`surface == "plane" && abs(nz) > 0.99`, []int{1, 2}},
		{`index >= 1`, []int{1, 2}},
		{`cz > 9`, []int{2}},
	}
	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			f, err := Compile(tt.expression)
			require.NoError(t, err)
			got, err := f.Apply(shape, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLabels(t *testing.T) {
	shape := cylinder()
	side, _ := shape.Face(0)
	labelOf := func(f *kernel.Face) string {
		if f == side {
			return "Hole"
		}
		return ""
	}

	f, err := Compile(`!labeled`)
	require.NoError(t, err)
	got, err := f.Apply(shape, labelOf)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)

	f, err = Compile(`label == "Hole"`)
	require.NoError(t, err)
	got, err = f.Apply(shape, labelOf)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)
}

func TestCompileErrors(t *testing.T) {
	for _, expression := range []string{"", `area +`, `area`, `unknown > 1`} {
		_, err := Compile(expression)
		assert.Error(t, err, "expression %q", expression)
	}
}
