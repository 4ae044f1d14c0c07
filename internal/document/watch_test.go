package document

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/philipparndt/facelabel/internal/testutil"
	"github.com/philipparndt/facelabel/pkg/stl"
	"github.com/philipparndt/facelabel/pkg/watcher"
)

func TestSourcesOfOpenSCADModel(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.scad")
	lib := filepath.Join(dir, "lib.scad")
	require.NoError(t, os.WriteFile(main, []byte("include <lib.scad>\nthing();\n"), 0o644))
	require.NoError(t, os.WriteFile(lib, []byte("module thing() { cube(1); }\n"), 0o644))

	doc := &Document{Path: main}
	files, err := doc.Sources()
	require.NoError(t, err)
	assert.Equal(t, []string{main, lib}, files)

	doc = &Document{Path: "part.stl"}
	files, err = doc.Sources()
	require.NoError(t, err)
	assert.Equal(t, []string{"part.stl"}, files)
}

func TestWatchReloadsOnChange(t *testing.T) {
	e := newEnv(t)
	path := testutil.WriteSTL(t, testutil.Box(10, 10, 10), "watched.stl")
	doc, err := e.ws.Import(e.ctx, path)
	require.NoError(t, err)
	require.NoError(t, doc.SelectOrdinal(0))
	require.NoError(t, doc.AssignLabel("Stock"))

	fw, err := watcher.NewFileWatcher(100*time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, err)
	fw.Start()

	type outcome struct {
		report *ReloadReport
		err    error
	}
	done := make(chan outcome, 1)
	require.NoError(t, e.ws.Watch(fw, doc.ID, func(id ID, report *ReloadReport, err error) {
		select {
		case done <- outcome{report, err}:
		default:
		}
	}))

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, stl.WriteASCII(f, testutil.Box(10, 10, 10)))
	require.NoError(t, f.Close())

	select {
	case got := <-done:
		require.NoError(t, got.err)
		assert.Equal(t, 1, got.report.Carried)
		assert.Empty(t, got.report.Dropped)
	case <-time.After(5 * time.Second):
		t.Fatal("document was not reloaded")
	}
	require.NoError(t, fw.Close())
}
