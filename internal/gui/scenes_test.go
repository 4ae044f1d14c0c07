package gui

import (
	"context"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/facelabel/internal/document"
	"github.com/philipparndt/facelabel/internal/input"
	"github.com/philipparndt/facelabel/internal/labels"
	"github.com/philipparndt/facelabel/internal/status"
	"github.com/philipparndt/facelabel/internal/testutil"
	"github.com/philipparndt/facelabel/pkg/kernel"
	"github.com/philipparndt/facelabel/pkg/viewer"
)

func TestScenesFollowVisuals(t *testing.T) {
	scenes := NewScenes()
	var changed []*kernel.Shape
	scenes.OnChange(func(shape *kernel.Shape) { changed = append(changed, shape) })

	ws := document.NewWorkspace(document.Options{NewHighlighter: scenes.Highlighter})
	doc, err := ws.Import(context.Background(), testutil.WriteSTL(t, testutil.Box(10, 10, 10), "box.stl"))
	require.NoError(t, err)

	scene, ok := scenes.Scene(doc.Shape())
	require.True(t, ok)

	frame := scene.Render(200, 200)
	before := frame.Image.RGBAAt(100, 100)

	// the top face is under the center pixel
	require.NoError(t, doc.SelectOrdinal(1))
	require.NotEmpty(t, changed)
	assert.Same(t, doc.Shape(), changed[0])

	selected := scene.Render(200, 200).Image.RGBAAt(100, 100)
	assert.NotEqual(t, before, selected)
	assert.Zero(t, selected.B, "selection is yellow")

	require.NoError(t, doc.AssignLabel(string(labels.Hole)))
	labeled := scene.Render(200, 200).Image.RGBAAt(100, 100)
	assert.NotEqual(t, selected, labeled)

	require.NoError(t, ws.Close(doc.ID))
	assert.Equal(t, before, scene.Render(200, 200).Image.RGBAAt(100, 100), "closing removes every overlay")

	scenes.Forget(nil)
	_, ok = scenes.Scene(doc.Shape())
	assert.False(t, ok)
}

func TestModifiers(t *testing.T) {
	assert.True(t, modifiers(fyne.KeyModifierControl).Has(input.ModCtrl))
	assert.True(t, modifiers(fyne.KeyModifierShift|fyne.KeyModifierAlt).Has(input.ModShift|input.ModAlt))
	assert.False(t, modifiers(fyne.KeyModifierShift).Has(input.ModCtrl))
}

func TestDocumentTitlesAreUnique(t *testing.T) {
	dir := t.TempDir()
	stlPath := testutil.WriteSTL(t, testutil.Box(1, 1, 1), "part.stl")
	w := kernel.NewStepWriter()
	require.NoError(t, w.Transfer(kernel.FromModel(testutil.Box(2, 2, 2), kernel.DefaultOptions())))
	stepPath := filepath.Join(dir, "part.step")
	require.NoError(t, w.Write(stepPath))

	ws := document.NewWorkspace(document.Options{})
	first, err := ws.Import(context.Background(), stlPath)
	require.NoError(t, err)
	second, err := ws.Import(context.Background(), stepPath)
	require.NoError(t, err)
	require.Equal(t, first.Name, second.Name)

	assert.NotEqual(t, documentTitle(first), documentTitle(second))
	found, ok := documentByTitle(ws.Documents(), documentTitle(second))
	require.True(t, ok)
	assert.Same(t, second, found)
	found, ok = documentByTitle(ws.Documents(), documentTitle(first))
	require.True(t, ok)
	assert.Same(t, first, found)

	_, ok = documentByTitle(ws.Documents(), "part")
	assert.False(t, ok)
}

func TestSetDisplayModeReportsSwitch(t *testing.T) {
	log := status.NewLog(nil)
	scene := viewer.NewScene(kernel.FromModel(testutil.Box(1, 1, 1), kernel.DefaultOptions()))

	assert.Equal(t, viewer.Wireframe, setDisplayMode(log, scene, viewer.Wireframe))
	assert.Equal(t, viewer.Wireframe, scene.Mode())
	last, ok := log.Last()
	require.True(t, ok)
	assert.Equal(t, "Wireframe mode activated.", last.Text)

	assert.Equal(t, viewer.Shaded, setDisplayMode(log, scene, viewer.Shaded))
	assert.Equal(t, viewer.Shaded, scene.Mode())
	last, _ = log.Last()
	assert.Equal(t, "Shaded mode activated.", last.Text)

	// no model loaded
	setDisplayMode(log, nil, viewer.Wireframe)
	assert.Len(t, log.Entries(), 3)
}
