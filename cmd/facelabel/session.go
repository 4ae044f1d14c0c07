package main

import (
	"context"
	"fmt"
	"io"

	"github.com/philipparndt/facelabel/internal/config"
	"github.com/philipparndt/facelabel/internal/document"
	"github.com/philipparndt/facelabel/internal/reconcile"
	"github.com/philipparndt/facelabel/internal/status"
	"github.com/philipparndt/facelabel/internal/visual"
	"github.com/philipparndt/facelabel/pkg/kernel"
)

func importer() *kernel.Importer {
	return kernel.NewImporter(kernel.Options{
		FeatureAngle:  cfg.Mesh.FeatureAngle,
		WeldTolerance: cfg.Mesh.WeldTolerance,
	}, logger)
}

// newWorkspace builds a workspace from the configuration. highlighter may
// be nil for headless sessions.
func newWorkspace(highlighter func(*kernel.Shape) visual.Highlighter) (*document.Workspace, error) {
	rgb, err := config.ParseColor(cfg.Display.SelectionColor)
	if err != nil {
		return nil, err
	}
	return document.NewWorkspace(document.Options{
		Importer:       importer(),
		Exporter:       reconcile.NewExporter(logger),
		NewHighlighter: highlighter,
		SelectionColor: visual.Color{R: rgb[0], G: rgb[1], B: rgb[2]},
		Status:         status.NewLog(logger),
		Logger:         logger,
	}), nil
}

// openAll imports every file. The first failure stops the import.
func openAll(ctx context.Context, ws *document.Workspace, files []string) error {
	for _, f := range files {
		if _, err := ws.Import(ctx, f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// printStatus writes status lines to w as they are appended
func printStatus(ws *document.Workspace, w io.Writer) func() {
	return ws.Status().Subscribe(func(e status.Entry) {
		fmt.Fprintf(w, "[%s] %s\n", e.Level, e.Text)
	})
}
