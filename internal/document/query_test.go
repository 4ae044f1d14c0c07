package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/facelabel/internal/filter"
	"github.com/philipparndt/facelabel/internal/labels"
)

func TestSelectWhere(t *testing.T) {
	e := newEnv(t)
	doc, err := e.ws.Import(e.ctx, e.cylPath)
	require.NoError(t, err)

	f, err := filter.Compile(`surface == "cylinder"`)
	require.NoError(t, err)
	n, err := doc.SelectWhere(f)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, doc.Selected(), 1)
	assert.Equal(t, 0, doc.Selected()[0].ID.Ordinal)

	require.NoError(t, doc.AssignLabel("Hole"))

	labeled, err := filter.Compile(`label == "Hole"`)
	require.NoError(t, err)
	matches, err := doc.Match(labeled)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, matches)

	label, ok := doc.LabelOf(e.face(doc, 0))
	require.True(t, ok)
	assert.Equal(t, labels.Hole, label)
}

func TestSelectWhereNoMatch(t *testing.T) {
	e := newEnv(t)
	doc, err := e.ws.Import(e.ctx, e.boxPath)
	require.NoError(t, err)

	f, err := filter.Compile(`radius > 100`)
	require.NoError(t, err)
	n, err := doc.SelectWhere(f)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, doc.Selected())
	assert.Contains(t, e.lastStatus().Text, "No face matches")
}

func TestDefaultExportPath(t *testing.T) {
	assert.Equal(t, "/tmp/part_labeled.step", DefaultExportPath("/tmp/part.stl"))
	assert.Equal(t, "part_labeled.step", DefaultExportPath("part.step"))
}
