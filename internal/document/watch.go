package document

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/philipparndt/facelabel/pkg/kernel"
	"github.com/philipparndt/facelabel/pkg/openscad"
	"github.com/philipparndt/facelabel/pkg/watcher"
)

// Sources returns the files the document is built from. OpenSCAD models
// include every used or included file.
func (d *Document) Sources() ([]string, error) {
	if kernel.DetectFormat(d.Path) != kernel.FormatSCAD {
		return []string{d.Path}, nil
	}
	r := openscad.NewRenderer(filepath.Dir(d.Path), nil)
	deps, err := r.ResolveDependencies(d.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve dependencies of %s: %w", d.Path, err)
	}
	return deps, nil
}

// ReloadFunc receives the outcome of a reload triggered by a file change
type ReloadFunc func(id ID, report *ReloadReport, err error)

// Watch reloads a document whenever one of its sources changes. notify
// runs on the watcher's goroutine and may be nil.
func (w *Workspace) Watch(fw *watcher.FileWatcher, id ID, notify ReloadFunc) error {
	doc, ok := w.Document(id)
	if !ok {
		return fmt.Errorf("watch %d: %w", id, ErrUnknownDocument)
	}
	files, err := doc.Sources()
	if err != nil {
		return err
	}

	return fw.Watch(files, func(changed string) {
		w.opts.Logger.Info("source changed", zap.String("file", changed), zap.Int("document", int(id)))
		report, err := w.Reload(context.Background(), id)
		if notify != nil {
			notify(id, report, err)
		}
	})
}
