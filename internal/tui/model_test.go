package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/facelabel/internal/document"
	"github.com/philipparndt/facelabel/internal/labels"
	"github.com/philipparndt/facelabel/internal/testutil"
	"github.com/philipparndt/facelabel/pkg/kernel"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func newSession(t *testing.T, files ...string) (Model, *document.Workspace) {
	t.Helper()
	ws := document.NewWorkspace(document.Options{})
	for _, f := range files {
		_, err := ws.Import(context.Background(), f)
		require.NoError(t, err)
	}
	m, unsubscribe := New(Options{Workspace: ws})
	t.Cleanup(unsubscribe)
	m, _ = press(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, ws
}

func face(doc *document.Document, i int) *kernel.Face {
	f, _ := doc.Shape().Face(i)
	return f
}

func TestSelectAndDeselect(t *testing.T) {
	m, ws := newSession(t, testutil.WriteSTL(t, testutil.Box(1, 1, 1), "box.stl"))
	doc, _ := ws.Active()

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.True(t, doc.IsSelected(face(doc, 0)))

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Len(t, doc.Selected(), 2)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.False(t, doc.IsSelected(face(doc, 1)))
	assert.True(t, doc.IsSelected(face(doc, 0)))

	_, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, doc.Selected())
}

func TestLabelChooser(t *testing.T) {
	m, ws := newSession(t, testutil.WriteSTL(t, testutil.Box(1, 1, 1), "box.stl"))
	doc, _ := ws.Active()

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, runes("l"))
	assert.Equal(t, modeLabel, m.mode)
	assert.Contains(t, m.View(), "Hole")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, modeBrowse, m.mode)

	label, ok := doc.LabelOf(face(doc, 0))
	require.True(t, ok)
	assert.Equal(t, labels.Slot, label)
	assert.Empty(t, doc.Selected())
	assert.Contains(t, m.View(), "Slot")
}

func TestLabelChooserCancel(t *testing.T) {
	m, ws := newSession(t, testutil.WriteSTL(t, testutil.Box(1, 1, 1), "box.stl"))
	doc, _ := ws.Active()

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, runes("l"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, modeBrowse, m.mode)
	assert.Empty(t, doc.Labels())
	assert.Len(t, doc.Selected(), 1, "cancel keeps the selection")
}

func TestToggleAndResetLabels(t *testing.T) {
	m, ws := newSession(t, testutil.WriteSTL(t, testutil.Box(1, 1, 1), "box.stl"))
	doc, _ := ws.Active()

	m, _ = press(t, m, runes("t"))
	assert.True(t, doc.IsSelected(face(doc, 0)))
	m, _ = press(t, m, runes("t"))
	assert.False(t, doc.IsSelected(face(doc, 0)))

	m, _ = press(t, m, runes("t"), runes("l"), tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, doc.Labels(), 1)

	_, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Empty(t, doc.Labels())
}

func TestExportPrompt(t *testing.T) {
	m, ws := newSession(t, testutil.WriteSTL(t, testutil.Box(1, 1, 1), "box.stl"))
	doc, _ := ws.Active()
	require.NoError(t, doc.SelectOrdinal(0))
	require.NoError(t, doc.AssignLabel("Pocket"))

	m, _ = press(t, m, runes("e"))
	require.Equal(t, modeExport, m.mode)
	assert.True(t, strings.HasSuffix(m.prompt.Value(), "box_labeled.step"))

	dest := filepath.Join(t.TempDir(), "out.step")
	m.prompt.SetValue(dest)
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	done, ok := cmd().(exportDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)
	assert.Equal(t, 1, done.Result.Annotated)
	assert.Equal(t, dest, done.Result.Path)
	ws.Wait()
}

func TestSelectWherePrompt(t *testing.T) {
	m, ws := newSession(t, testutil.WriteSTL(t, testutil.Cylinder(2, 4, 24), "cyl.stl"))
	doc, _ := ws.Active()

	m, _ = press(t, m, runes("/"))
	require.Equal(t, modeWhere, m.mode)
	m.prompt.SetValue(`surface == "plane"`)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, modeBrowse, m.mode)
	assert.Len(t, doc.Selected(), 2)
}

func TestTabSwitchesDocument(t *testing.T) {
	box := testutil.WriteSTL(t, testutil.Box(1, 1, 1), "box.stl")
	cyl := testutil.WriteSTL(t, testutil.Cylinder(1, 1, 12), "cyl.stl")
	m, ws := newSession(t, box, cyl)

	active, _ := ws.Active()
	require.Equal(t, "cyl", active.Name)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.Len(t, active.Selected(), 1)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	next, _ := ws.Active()
	assert.Equal(t, "box", next.Name)
	assert.Empty(t, active.Selected(), "switching clears the outgoing selection")
	assert.Contains(t, m.View(), "box.stl")
}

func TestNoDocument(t *testing.T) {
	m, ws := newSession(t)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, runes("l"), runes("e"))
	assert.Equal(t, modeBrowse, m.mode)
	assert.Contains(t, m.View(), "no model loaded")

	last, ok := ws.Status().Last()
	require.True(t, ok)
	assert.Contains(t, last.Text, "no active document")
}
