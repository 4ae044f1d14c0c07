// Package gui is the desktop frontend: a face viewer per model, a label
// picker and the status log.
package gui

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/philipparndt/facelabel/internal/document"
	"github.com/philipparndt/facelabel/internal/input"
	"github.com/philipparndt/facelabel/internal/labels"
	"github.com/philipparndt/facelabel/internal/status"
	"github.com/philipparndt/facelabel/pkg/analysis"
	"github.com/philipparndt/facelabel/pkg/kernel"
	"github.com/philipparndt/facelabel/pkg/viewer"
	"github.com/philipparndt/facelabel/pkg/watcher"
)

// Options configures the desktop session
type Options struct {
	// Workspace must be created with Scenes.Highlighter as NewHighlighter
	Workspace      *document.Workspace
	Scenes         *Scenes
	ClickThreshold time.Duration
	Watcher        *watcher.FileWatcher
	Logger         *zap.Logger
}

// App is the desktop window
type App struct {
	opts   Options
	ws     *document.Workspace
	ctrl   *input.Controller
	logger *zap.Logger

	window    fyne.Window
	view      *viewer.FaceView
	documents *widget.Select
	wireframe *widget.Check
	mode      viewer.Mode
	info      *widget.Label
	statusLog *widget.List
	entries   []status.Entry
}

// Run opens the window with the documents already in the workspace and
// blocks until it is closed
func Run(opts Options) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	a := app.New()
	w := a.NewWindow("facelabel")

	g := &App{
		opts:   opts,
		ws:     opts.Workspace,
		ctrl:   input.NewController(opts.Workspace, opts.ClickThreshold),
		logger: opts.Logger,
		window: w,
	}
	g.setupMainUI()

	unsubscribe := g.ws.Status().Subscribe(func(status.Entry) {
		fyne.Do(g.refreshStatus)
	})
	defer unsubscribe()
	opts.Scenes.OnChange(func(*kernel.Shape) {
		fyne.Do(g.view.Refresh)
	})

	for _, doc := range g.ws.Documents() {
		g.watch(doc)
	}
	g.refresh()

	w.Resize(fyne.NewSize(1200, 800))
	w.ShowAndRun()
	g.ws.Wait()
}

func (g *App) setupMainUI() {
	g.view = viewer.NewFaceView()
	g.view.OnPress = g.ctrl.OnPress
	g.view.OnRelease = func(at time.Time, face *kernel.Face, mods fyne.KeyModifier) {
		action, err := g.ctrl.OnRelease(at, face, modifiers(mods))
		if err != nil {
			g.logger.Debug("pick failed", zap.Stringer("action", action), zap.Error(err))
		}
	}

	g.documents = widget.NewSelect(nil, func(title string) {
		doc, ok := documentByTitle(g.ws.Documents(), title)
		if !ok {
			return
		}
		if err := g.ws.Activate(doc.ID); err != nil {
			g.logger.Debug("activate failed", zap.Error(err))
		}
		g.refresh()
	})
	g.documents.PlaceHolder = "No model loaded"

	g.info = widget.NewLabel("")
	g.info.Wrapping = fyne.TextWrapWord

	g.statusLog = widget.NewList(
		func() int { return len(g.entries) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(g.entries[i].String())
		},
	)

	g.wireframe = widget.NewCheck("Wireframe", func(on bool) {
		mode := viewer.Shaded
		if on {
			mode = viewer.Wireframe
		}
		g.mode = setDisplayMode(g.ws.Status(), g.view.Scene(), mode)
		g.view.Refresh()
	})

	instructions := widget.NewLabel(
		"Click a face to select it\n" +
			"Ctrl+click to deselect\n" +
			"Esc clears the selection\n" +
			"W toggles wireframe\n" +
			"Drag to rotate, scroll to zoom",
	)

	panel := container.NewVBox(
		widget.NewLabel("Model:"),
		g.documents,
		widget.NewSeparator(),
		g.info,
		widget.NewSeparator(),
		widget.NewButton("Open...", g.showOpenDialog),
		widget.NewButton("Label selection...", g.showLabelDialog),
		widget.NewButton("Clear selection", func() { _, _ = g.ctrl.OnEscape() }),
		widget.NewButton("Reset labels", g.confirmResetLabels),
		g.wireframe,
		widget.NewButton("Reset view", func() {
			if scene := g.view.Scene(); scene != nil {
				scene.ResetView()
				g.view.Refresh()
			}
		}),
		widget.NewButton("Export STEP...", g.showExportDialog),
		widget.NewButton("Close model", g.closeActive),
		widget.NewSeparator(),
		instructions,
	)
	panelScroll := container.NewVScroll(panel)
	panelScroll.SetMinSize(fyne.NewSize(280, 0))

	statusScroll := container.NewStack(g.statusLog)
	split := container.NewVSplit(g.view, statusScroll)
	split.Offset = 0.8

	g.window.SetContent(container.NewBorder(nil, nil, nil, panelScroll, split))
	g.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyEscape:
			_, _ = g.ctrl.OnEscape()
		case fyne.KeyW:
			g.wireframe.SetChecked(!g.wireframe.Checked)
		}
	})
}

// refresh syncs the widgets with the workspace. Call on the UI goroutine.
func (g *App) refresh() {
	docs := g.ws.Documents()
	titles := make([]string, 0, len(docs))
	shapes := make([]*kernel.Shape, 0, len(docs))
	for _, d := range docs {
		titles = append(titles, documentTitle(d))
		shapes = append(shapes, d.Shape())
	}
	g.documents.Options = titles
	// reloads and closes leave scenes of shapes that are gone
	g.opts.Scenes.Forget(shapes)

	active, ok := g.ws.Active()
	if !ok {
		g.documents.ClearSelected()
		g.view.SetScene(nil)
		g.info.SetText("")
		g.refreshStatus()
		return
	}
	if title := documentTitle(active); g.documents.Selected != title {
		g.documents.SetSelected(title)
	}
	g.documents.Refresh()

	if scene, ok := g.opts.Scenes.Scene(active.Shape()); ok {
		scene.SetMode(g.mode)
		g.view.SetScene(scene)
	}
	g.info.SetText(describe(active))
	g.refreshStatus()
}

func (g *App) refreshStatus() {
	g.entries = g.ws.Status().Entries()
	g.statusLog.Refresh()
	if n := len(g.entries); n > 0 {
		g.statusLog.ScrollToBottom()
	}
}

// setDisplayMode switches the scene drawing and reports the new mode
func setDisplayMode(sink status.Sink, scene *viewer.Scene, mode viewer.Mode) viewer.Mode {
	if scene != nil {
		scene.SetMode(mode)
	}
	if mode == viewer.Wireframe {
		sink.Infof("Wireframe mode activated.")
	} else {
		sink.Infof("Shaded mode activated.")
	}
	return mode
}

// documentTitle names a document in the selector. Files sharing a base
// name stay apart by id and extension.
func documentTitle(doc *document.Document) string {
	return fmt.Sprintf("%d: %s", doc.ID, filepath.Base(doc.Path))
}

func documentByTitle(docs []*document.Document, title string) (*document.Document, bool) {
	for _, doc := range docs {
		if documentTitle(doc) == title {
			return doc, true
		}
	}
	return nil, false
}

func describe(doc *document.Document) string {
	result := analysis.AnalyzeShape(doc.Shape())
	return fmt.Sprintf(
		"File: %s\nFaces: %d (%d plane, %d cylinder, %d freeform)\nTriangles: %d\nSurface Area: %.2f\n\nDimensions:\n  X: %.2f\n  Y: %.2f\n  Z: %.2f\n\nLabeled: %d",
		filepath.Base(doc.Path),
		result.FaceCount,
		result.BySurface[kernel.SurfacePlane],
		result.BySurface[kernel.SurfaceCylinder],
		result.BySurface[kernel.SurfaceFreeform],
		result.TriangleCount,
		result.SurfaceArea,
		result.Dimensions.X,
		result.Dimensions.Y,
		result.Dimensions.Z,
		len(doc.Labels()),
	)
}

func (g *App) showOpenDialog() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, g.window)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		go func() {
			doc, err := g.ws.Import(context.Background(), path)
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(fmt.Errorf("failed to load %s: %w", filepath.Base(path), err), g.window)
					return
				}
				g.watch(doc)
				g.refresh()
			})
		}()
	}, g.window)
}

func (g *App) showLabelDialog() {
	vocabulary := labels.Vocabulary()
	choice := ""
	list := widget.NewList(
		func() int { return len(vocabulary) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(vocabulary[i].String())
		},
	)
	list.OnSelected = func(i widget.ListItemID) {
		choice = vocabulary[i].String()
	}
	content := container.NewStack(list)
	content.Resize(fyne.NewSize(240, 320))

	d := dialog.NewCustomConfirm("Label selection", "Apply", "Cancel", content, func(ok bool) {
		if !ok {
			choice = ""
		}
		// an empty choice cancels and leaves the selection alone
		if err := g.ws.AssignLabel(choice); err != nil {
			g.logger.Debug("label failed", zap.Error(err))
		}
		g.refresh()
	}, g.window)
	d.Resize(fyne.NewSize(300, 420))
	d.Show()
}

func (g *App) showExportDialog() {
	active, ok := g.ws.Active()
	if !ok {
		_, _ = g.ws.Export(context.Background(), "")
		return
	}

	save := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, g.window)
			return
		}
		if writer == nil {
			g.ws.Status().Infof("Export cancelled")
			return
		}
		path := writer.URI().Path()
		writer.Close()

		out, err := g.ws.ExportAsync(context.Background(), path)
		if err != nil {
			return
		}
		go func() {
			outcome := <-out
			fyne.Do(func() {
				if outcome.Err != nil {
					dialog.ShowError(outcome.Err, g.window)
					return
				}
				if n := len(outcome.Result.Unmatched); n > 0 {
					dialog.ShowInformation("Export finished",
						fmt.Sprintf("%d label(s) could not be matched, see the status log", n), g.window)
				}
			})
		}()
	}, g.window)
	save.SetFileName(filepath.Base(document.DefaultExportPath(active.Path)))
	save.Show()
}

func (g *App) confirmResetLabels() {
	active, ok := g.ws.Active()
	if !ok {
		return
	}
	dialog.ShowConfirm("Reset labels", fmt.Sprintf("Remove all labels of %s?", active.Name), func(ok bool) {
		if !ok {
			return
		}
		if err := active.ResetLabels(); err != nil {
			g.logger.Debug("reset labels failed", zap.Error(err))
		}
		g.refresh()
	}, g.window)
}

func (g *App) closeActive() {
	active, ok := g.ws.Active()
	if !ok {
		return
	}
	if g.opts.Watcher != nil {
		if files, err := active.Sources(); err == nil {
			g.opts.Watcher.Unwatch(files)
		}
	}
	if err := g.ws.Close(active.ID); err != nil {
		g.logger.Debug("close failed", zap.Error(err))
	}
	g.refresh()
}

func (g *App) watch(doc *document.Document) {
	if g.opts.Watcher == nil {
		return
	}
	err := g.ws.Watch(g.opts.Watcher, doc.ID, func(document.ID, *document.ReloadReport, error) {
		fyne.Do(g.refresh)
	})
	if err != nil {
		g.ws.Status().Warnf("Cannot watch %s: %v", doc.Name, err)
	}
}

// modifiers maps toolkit modifier keys to the input controller's
func modifiers(m fyne.KeyModifier) input.Modifiers {
	var mods input.Modifiers
	if m&fyne.KeyModifierShift != 0 {
		mods |= input.ModShift
	}
	if m&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0 {
		mods |= input.ModCtrl
	}
	if m&fyne.KeyModifierAlt != 0 {
		mods |= input.ModAlt
	}
	return mods
}
