package document

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/philipparndt/facelabel/internal/labels"
	"github.com/philipparndt/facelabel/internal/reconcile"
	"github.com/philipparndt/facelabel/internal/status"
	"github.com/philipparndt/facelabel/internal/testutil"
	"github.com/philipparndt/facelabel/internal/visual"
	"github.com/philipparndt/facelabel/pkg/geometry"
	"github.com/philipparndt/facelabel/pkg/kernel"
	"github.com/philipparndt/facelabel/pkg/step"
	"github.com/philipparndt/facelabel/pkg/stl"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type env struct {
	ws         *Workspace
	recorders  map[*kernel.Shape]*visual.Recorder
	boxPath    string
	cylPath    string
	ctx        context.Context
	lastStatus func() status.Entry
	// onLoad runs whenever a shape finished loading
	onLoad func()
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		recorders: make(map[*kernel.Shape]*visual.Recorder),
		boxPath:   testutil.WriteSTL(t, testutil.Box(10, 10, 10), "box.stl"),
		cylPath:   testutil.WriteSTL(t, testutil.Cylinder(2, 5, 32), "cyl.stl"),
		ctx:       context.Background(),
	}
	e.ws = NewWorkspace(Options{
		NewHighlighter: func(shape *kernel.Shape) visual.Highlighter {
			r := visual.NewRecorder()
			e.recorders[shape] = r
			if e.onLoad != nil {
				e.onLoad()
			}
			return r
		},
	})
	e.lastStatus = func() status.Entry {
		last, _ := e.ws.Status().Last()
		return last
	}
	return e
}

func (e *env) face(doc *Document, i int) *kernel.Face {
	f, _ := doc.Shape().Face(i)
	return f
}

func TestImportActivates(t *testing.T) {
	e := newEnv(t)
	doc, err := e.ws.Import(e.ctx, e.boxPath)
	require.NoError(t, err)

	active, ok := e.ws.Active()
	require.True(t, ok)
	assert.Same(t, doc, active)
	assert.Equal(t, "box", doc.Name)
	assert.Empty(t, doc.Selected())
	assert.Empty(t, doc.Labels())
}

func TestImportFailureCreatesNothing(t *testing.T) {
	e := newEnv(t)
	_, err := e.ws.Import(e.ctx, filepath.Join(t.TempDir(), "missing.stl"))
	require.Error(t, err)

	assert.Empty(t, e.ws.Documents())
	_, ok := e.ws.Active()
	assert.False(t, ok)
	assert.Equal(t, status.Error, e.lastStatus().Level)

	_, err = e.ws.Import(e.ctx, "model.obj")
	assert.ErrorIs(t, err, kernel.ErrUnsupportedFormat)
}

func TestOperationsWithoutDocument(t *testing.T) {
	e := newEnv(t)
	assert.ErrorIs(t, e.ws.Select(&kernel.Face{}), ErrNoDocument)
	assert.ErrorIs(t, e.ws.Deselect(&kernel.Face{}), ErrNoDocument)
	assert.ErrorIs(t, e.ws.Clear(), ErrNoDocument)
	assert.ErrorIs(t, e.ws.AssignLabel("Hole"), ErrNoDocument)
	_, err := e.ws.Export(e.ctx, "out.step")
	assert.ErrorIs(t, err, ErrNoDocument)
	_, err = e.ws.ExportAsync(e.ctx, "out.step")
	assert.ErrorIs(t, err, ErrNoDocument)
	assert.Equal(t, status.Warn, e.lastStatus().Level)
}

func TestSelectForeignFace(t *testing.T) {
	e := newEnv(t)
	_, err := e.ws.Import(e.ctx, e.boxPath)
	require.NoError(t, err)
	assert.ErrorIs(t, e.ws.Select(&kernel.Face{}), ErrForeignFace)
}

func TestDocumentSwitchClearsSelectionKeepsLabels(t *testing.T) {
	e := newEnv(t)
	box, err := e.ws.Import(e.ctx, e.boxPath)
	require.NoError(t, err)

	require.NoError(t, e.ws.Select(e.face(box, 0)))
	require.NoError(t, e.ws.AssignLabel("Hole"))
	require.NoError(t, e.ws.Select(e.face(box, 1)))
	require.Len(t, box.Selected(), 1)

	cyl, err := e.ws.Import(e.ctx, e.cylPath)
	require.NoError(t, err)
	active, _ := e.ws.Active()
	assert.Same(t, cyl, active)

	assert.Empty(t, box.Selected(), "outgoing selection is cleared")
	label, ok := box.LabelOf(e.face(box, 0))
	require.True(t, ok, "outgoing labels survive")
	assert.Equal(t, labels.Hole, label)

	rec := e.recorders[box.Shape()]
	assert.Equal(t, 1, rec.Count(), "only the label visual remains")

	require.NoError(t, e.ws.Activate(box.ID))
	assert.Empty(t, cyl.Selected())
	assert.Len(t, box.Labels(), 1)
}

func TestExportAndReimportRestoresLabels(t *testing.T) {
	e := newEnv(t)
	box, err := e.ws.Import(e.ctx, e.boxPath)
	require.NoError(t, err)

	require.NoError(t, box.SelectOrdinal(0))
	require.NoError(t, box.SelectOrdinal(2))
	require.NoError(t, e.ws.AssignLabel("Pocket"))
	require.NoError(t, box.SelectOrdinal(5))
	require.NoError(t, e.ws.AssignLabel("wall"))

	out := filepath.Join(t.TempDir(), "box.step")
	result, err := e.ws.Export(e.ctx, out)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Annotated)
	assert.Empty(t, result.Unmatched)

	again, err := e.ws.Import(e.ctx, out)
	require.NoError(t, err)
	entries := again.Labels()
	require.Len(t, entries, 3)
	assert.Equal(t, labels.Pocket, entries[0].Label)
	assert.Equal(t, labels.Pocket, entries[1].Label)
	assert.Equal(t, labels.Wall, entries[2].Label)
	assert.Equal(t, box.Labels(), entries, "identities match across the round trip")
}

func TestExportAsync(t *testing.T) {
	e := newEnv(t)
	box, err := e.ws.Import(e.ctx, e.boxPath)
	require.NoError(t, err)
	require.NoError(t, box.SelectOrdinal(1))
	require.NoError(t, box.AssignLabel("Slot"))

	out := filepath.Join(t.TempDir(), "async.step")
	ch, err := e.ws.ExportAsync(e.ctx, out)
	require.NoError(t, err)

	outcome := <-ch
	require.NoError(t, outcome.Err)
	assert.Equal(t, box.ID, outcome.Document)
	assert.Equal(t, 1, outcome.Result.Annotated)
	_, open := <-ch
	assert.False(t, open)
	e.ws.Wait()

	_, err = os.Stat(out)
	assert.NoError(t, err)
}

type blockingWriter struct {
	*kernel.StepWriter
	release chan struct{}
}

func (w blockingWriter) Write(path string) error {
	<-w.release
	return w.StepWriter.Write(path)
}

func TestConcurrentExportIsRejected(t *testing.T) {
	release := make(chan struct{})
	exporter := reconcile.NewExporter(nil)
	exporter.NewWriter = func() reconcile.Writer {
		return blockingWriter{StepWriter: kernel.NewStepWriter(), release: release}
	}
	ws := NewWorkspace(Options{Exporter: exporter})
	box, err := ws.Import(context.Background(), testutil.WriteSTL(t, testutil.Box(1, 1, 1), "b.stl"))
	require.NoError(t, err)

	dir := t.TempDir()
	first, err := ws.ExportAsync(context.Background(), filepath.Join(dir, "a.step"))
	require.NoError(t, err)

	_, err = ws.ExportAsync(context.Background(), filepath.Join(dir, "b.step"))
	assert.ErrorIs(t, err, ErrBusy)
	_, err = box.Export(context.Background(), exporter, filepath.Join(dir, "c.step"))
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	outcome := <-first
	require.NoError(t, outcome.Err)
	ws.Wait()

	assert.False(t, box.Busy())
	require.NoError(t, box.SelectOrdinal(0))
}

func TestMutationWhileExportingIsRejected(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	exporter := reconcile.NewExporter(nil)
	exporter.NewWriter = func() reconcile.Writer {
		close(started)
		return blockingWriter{StepWriter: kernel.NewStepWriter(), release: release}
	}
	ws := NewWorkspace(Options{Exporter: exporter})
	box, err := ws.Import(context.Background(), testutil.WriteSTL(t, testutil.Box(1, 1, 1), "b.stl"))
	require.NoError(t, err)

	ch, err := ws.ExportAsync(context.Background(), filepath.Join(t.TempDir(), "a.step"))
	require.NoError(t, err)
	<-started

	assert.ErrorIs(t, box.SelectOrdinal(0), ErrBusy)
	assert.ErrorIs(t, ws.AssignLabel("Hole"), ErrBusy)

	close(release)
	<-ch
	ws.Wait()
}

func TestExportWriteFailureIsReported(t *testing.T) {
	e := newEnv(t)
	_, err := e.ws.Import(e.ctx, e.boxPath)
	require.NoError(t, err)

	_, err = e.ws.Export(e.ctx, filepath.Join(t.TempDir(), "no", "such", "dir.step"))
	assert.ErrorIs(t, err, reconcile.ErrWrite)
	assert.Equal(t, status.Error, e.lastStatus().Level)

	_, err = e.ws.Export(e.ctx, "")
	assert.ErrorIs(t, err, reconcile.ErrInvalidPath)
}

func TestCloseAndReset(t *testing.T) {
	e := newEnv(t)
	box, err := e.ws.Import(e.ctx, e.boxPath)
	require.NoError(t, err)
	cyl, err := e.ws.Import(e.ctx, e.cylPath)
	require.NoError(t, err)

	require.NoError(t, cyl.SelectOrdinal(0))
	require.NoError(t, cyl.AssignLabel("Hole"))
	require.NoError(t, cyl.SelectOrdinal(1))

	require.NoError(t, e.ws.Close(cyl.ID))
	assert.Zero(t, e.recorders[cyl.Shape()].Count(), "closing removes all visuals")
	active, ok := e.ws.Active()
	require.True(t, ok)
	assert.Same(t, box, active)
	assert.ErrorIs(t, e.ws.Close(cyl.ID), ErrUnknownDocument)

	require.NoError(t, box.SelectOrdinal(0))
	require.NoError(t, box.AssignLabel("Stock"))
	require.NoError(t, e.ws.Reset())
	assert.Empty(t, e.ws.Documents())
	assert.Empty(t, box.Labels())
	assert.Zero(t, e.recorders[box.Shape()].Count())
}

func TestReloadCarriesLabels(t *testing.T) {
	e := newEnv(t)
	model := testutil.Box(10, 10, 10)
	path := testutil.WriteSTL(t, model, "part.stl")

	doc, err := e.ws.Import(e.ctx, path)
	require.NoError(t, err)
	require.NoError(t, doc.SelectOrdinal(0)) // bottom, unchanged by the edit
	require.NoError(t, doc.SelectOrdinal(1)) // top, moved by the edit
	require.NoError(t, doc.AssignLabel("Pocket"))

	// Raise the top of the box
	edited := stl.NewModel("part")
	for _, tri := range model.Triangles {
		vs := tri.Vertices()
		for i := range vs {
			if vs[i].Z == 10 {
				vs[i].Z = 12
			}
		}
		edited.AddTriangle(geometry.NewTriangle(tri.Normal, vs[0], vs[1], vs[2]))
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, stl.WriteASCII(f, edited))
	require.NoError(t, f.Close())

	report, err := e.ws.Reload(e.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Carried)
	require.Len(t, report.Dropped, 1)
	assert.Equal(t, 1, report.Dropped[0].ID.Ordinal)

	fresh, ok := e.ws.Document(doc.ID)
	require.True(t, ok)
	assert.NotSame(t, doc, fresh)
	label, ok := fresh.LabelOf(e.face(fresh, 0))
	require.True(t, ok)
	assert.Equal(t, labels.Pocket, label)
	assert.Zero(t, e.recorders[doc.Shape()].Count(), "old visuals are removed")
}

func TestReloadRejectsMutationWhileLoading(t *testing.T) {
	e := newEnv(t)
	doc, err := e.ws.Import(e.ctx, e.boxPath)
	require.NoError(t, err)
	require.NoError(t, doc.SelectOrdinal(0))
	require.NoError(t, doc.AssignLabel("Hole"))

	var during []error
	e.onLoad = func() {
		assert.True(t, doc.Busy())
		during = append(during, doc.SelectOrdinal(2), doc.AssignLabel("Slot"))
		_, err := doc.Export(e.ctx, reconcile.NewExporter(nil), filepath.Join(t.TempDir(), "x.step"))
		during = append(during, err)
	}
	report, err := e.ws.Reload(e.ctx, doc.ID)
	require.NoError(t, err)
	e.onLoad = nil

	require.Len(t, during, 3)
	for _, err := range during {
		assert.ErrorIs(t, err, ErrBusy)
	}
	assert.Equal(t, 1, report.Carried)
	assert.Empty(t, report.Dropped)

	fresh, ok := e.ws.Document(doc.ID)
	require.True(t, ok)
	entries := fresh.Labels()
	require.Len(t, entries, 1)
	assert.Equal(t, labels.Hole, entries[0].Label)

	// the replaced document refuses further changes
	assert.ErrorIs(t, doc.SelectOrdinal(2), ErrUnknownDocument)
	require.NoError(t, fresh.SelectOrdinal(2))
}

func TestFailedReloadReleasesDocument(t *testing.T) {
	e := newEnv(t)
	path := testutil.WriteSTL(t, testutil.Box(1, 1, 1), "gone.stl")
	doc, err := e.ws.Import(e.ctx, path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	_, err = e.ws.Reload(e.ctx, doc.ID)
	require.Error(t, err)
	assert.False(t, doc.Busy())
	require.NoError(t, doc.SelectOrdinal(0))
	current, ok := e.ws.Document(doc.ID)
	require.True(t, ok)
	assert.Same(t, doc, current)
}

func TestReadStepNamesOutsideVocabularyAreIgnored(t *testing.T) {
	e := newEnv(t)
	shape := kernel.FromModel(testutil.Box(1, 1, 1), kernel.DefaultOptions())
	w := kernel.NewStepWriter()
	require.NoError(t, w.Transfer(shape))
	f0, _ := shape.Face(0)
	f1, _ := shape.Face(1)
	require.NoError(t, w.SetName(f0, "Optical"))
	require.NoError(t, w.SetName(f1, "Chamfer"))
	path := filepath.Join(t.TempDir(), "named.step")
	require.NoError(t, w.Write(path))

	doc, err := e.ws.Import(e.ctx, path)
	require.NoError(t, err)
	entries := doc.Labels()
	require.Len(t, entries, 1)
	assert.Equal(t, labels.Chamfer, entries[0].Label)

	// sanity: the file carries both names
	file, err := step.ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, file.ByType("TRIANGULATED_FACE"), 6)
}
