package document

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/philipparndt/facelabel/internal/labels"
	"github.com/philipparndt/facelabel/internal/reconcile"
	"github.com/philipparndt/facelabel/internal/status"
	"github.com/philipparndt/facelabel/internal/visual"
	"github.com/philipparndt/facelabel/pkg/kernel"
)

// Options configures a workspace
type Options struct {
	Importer *kernel.Importer
	Exporter *reconcile.Exporter
	// NewHighlighter returns the visual target for a newly loaded shape
	NewHighlighter func(shape *kernel.Shape) visual.Highlighter
	SelectionColor visual.Color
	Status         *status.Log
	Logger         *zap.Logger
}

// ExportOutcome is delivered once an asynchronous export finishes
type ExportOutcome struct {
	Document ID
	Result   *reconcile.Result
	Err      error
}

// ReloadReport lists what happened to the labels of a reloaded document
type ReloadReport struct {
	Carried int
	Dropped []labels.Entry
}

// Workspace holds the open documents and tracks the active one
type Workspace struct {
	opts Options
	log  *status.Log

	mu     sync.Mutex
	docs   map[ID]*Document
	order  []ID
	active ID
	nextID ID

	exports sync.WaitGroup
}

// NewWorkspace creates an empty workspace. Missing options get defaults.
func NewWorkspace(opts Options) *Workspace {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Status == nil {
		opts.Status = status.NewLog(opts.Logger)
	}
	if opts.Importer == nil {
		opts.Importer = kernel.NewImporter(kernel.DefaultOptions(), opts.Logger)
	}
	if opts.Exporter == nil {
		opts.Exporter = reconcile.NewExporter(opts.Logger)
	}
	if opts.NewHighlighter == nil {
		opts.NewHighlighter = func(*kernel.Shape) visual.Highlighter { return visual.NewRecorder() }
	}
	if opts.SelectionColor == (visual.Color{}) {
		opts.SelectionColor = visual.Yellow
	}
	return &Workspace{
		opts:   opts,
		log:    opts.Status,
		docs:   make(map[ID]*Document),
		nextID: 1,
	}
}

// Status returns the status log
func (w *Workspace) Status() *status.Log {
	return w.log
}

// Import loads a model into a new document and activates it. On failure
// no document is created and the error is also reported on the status log.
func (w *Workspace) Import(ctx context.Context, path string) (*Document, error) {
	doc, err := w.load(ctx, path)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	doc.ID = w.nextID
	w.nextID++
	w.docs[doc.ID] = doc
	w.order = append(w.order, doc.ID)
	w.mu.Unlock()

	w.log.Infof("Loaded %s: %d faces", doc.Name, doc.shape.FaceCount())
	if n := doc.restoreNames(); n > 0 {
		w.log.Infof("Restored %d label(s) from %s", n, doc.Name)
	}
	if err := w.Activate(doc.ID); err != nil {
		return doc, err
	}
	return doc, nil
}

func (w *Workspace) load(ctx context.Context, path string) (*Document, error) {
	shape, err := w.opts.Importer.Import(ctx, path)
	if err != nil {
		w.log.Errorf("Cannot load %s: %v", path, err)
		return nil, err
	}
	h := w.opts.NewHighlighter(shape)
	return newDocument(0, shape, h, w.opts.SelectionColor, w.log), nil
}

// Activate makes a document active. The outgoing document loses its
// selection; its labels are kept.
func (w *Workspace) Activate(id ID) error {
	w.mu.Lock()
	next, ok := w.docs[id]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("activate %d: %w", id, ErrUnknownDocument)
	}
	if w.active == id {
		w.mu.Unlock()
		return nil
	}
	prev := w.docs[w.active]
	w.active = id
	w.mu.Unlock()

	var err error
	if prev != nil {
		err = prev.deactivate()
	}
	w.log.Infof("Switched to %s", next.Name)
	return err
}

// Active returns the active document
func (w *Workspace) Active() (*Document, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, ok := w.docs[w.active]
	return doc, ok
}

// Document returns an open document by id
func (w *Workspace) Document(id ID) (*Document, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, ok := w.docs[id]
	return doc, ok
}

// Documents returns the open documents in load order
func (w *Workspace) Documents() []*Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	docs := make([]*Document, 0, len(w.order))
	for _, id := range w.order {
		docs = append(docs, w.docs[id])
	}
	return docs
}

// Close removes a document and its visuals. Closing the active document
// activates the most recently loaded remaining one.
func (w *Workspace) Close(id ID) error {
	w.mu.Lock()
	doc, ok := w.docs[id]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("close %d: %w", id, ErrUnknownDocument)
	}
	delete(w.docs, id)
	for i, other := range w.order {
		if other == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	var next *Document
	if w.active == id {
		w.active = 0
		if len(w.order) > 0 {
			w.active = w.order[len(w.order)-1]
			next = w.docs[w.active]
		}
	}
	w.mu.Unlock()

	err := doc.close()
	w.log.Infof("Closed %s", doc.Name)
	if next != nil {
		w.log.Infof("Switched to %s", next.Name)
	}
	return err
}

// Reset closes every document and discards all labels
func (w *Workspace) Reset() error {
	w.mu.Lock()
	docs := make([]*Document, 0, len(w.order))
	for _, id := range w.order {
		docs = append(docs, w.docs[id])
	}
	w.docs = make(map[ID]*Document)
	w.order = nil
	w.active = 0
	w.mu.Unlock()

	var errs []error
	for _, doc := range docs {
		doc.mu.Lock()
		doc.closed = true
		errs = append(errs, doc.selection.Clear(), doc.registry.Reset())
		doc.mu.Unlock()
	}
	w.log.Infof("Workspace reset")
	return errors.Join(errs...)
}

func (w *Workspace) requireActive(op string) (*Document, error) {
	doc, ok := w.Active()
	if !ok {
		w.log.Warnf("Cannot %s: no active document", op)
		w.opts.Logger.Warn("operation without active document", zap.String("op", op))
		return nil, ErrNoDocument
	}
	return doc, nil
}

// Select selects a face of the active document
func (w *Workspace) Select(face *kernel.Face) error {
	doc, err := w.requireActive("select")
	if err != nil {
		return err
	}
	return doc.Select(face)
}

// Deselect deselects a face of the active document
func (w *Workspace) Deselect(face *kernel.Face) error {
	doc, err := w.requireActive("deselect")
	if err != nil {
		return err
	}
	return doc.Deselect(face)
}

// Clear empties the selection of the active document
func (w *Workspace) Clear() error {
	doc, err := w.requireActive("clear selection")
	if err != nil {
		return err
	}
	return doc.Clear()
}

// AssignLabel labels the selection of the active document
func (w *Workspace) AssignLabel(choice string) error {
	doc, err := w.requireActive("label")
	if err != nil {
		return err
	}
	return doc.AssignLabel(choice)
}

// Export writes the active document synchronously
func (w *Workspace) Export(ctx context.Context, destination string) (*reconcile.Result, error) {
	doc, err := w.requireActive("export")
	if err != nil {
		return nil, err
	}
	return doc.Export(ctx, w.opts.Exporter, destination)
}

// ExportAsync writes the active document on a separate goroutine. The
// returned channel receives exactly one outcome and is then closed. A
// second export of the same document while one runs fails with ErrBusy.
func (w *Workspace) ExportAsync(ctx context.Context, destination string) (<-chan ExportOutcome, error) {
	doc, err := w.requireActive("export")
	if err != nil {
		return nil, err
	}
	if !doc.busy.TryAcquire(1) {
		w.log.Warnf("%s is busy", doc.Name)
		return nil, ErrBusy
	}

	out := make(chan ExportOutcome, 1)
	w.exports.Add(1)
	go func() {
		defer w.exports.Done()
		defer close(out)
		defer doc.busy.Release(1)

		result, err := doc.export(ctx, w.opts.Exporter, destination)
		out <- ExportOutcome{Document: doc.ID, Result: result, Err: err}
	}()
	return out, nil
}

// Wait blocks until every asynchronous export has finished
func (w *Workspace) Wait() {
	w.exports.Wait()
}

// Reload imports the document's source again and carries each label to
// the face with the same fingerprint. Labels whose face changed are
// dropped and reported.
func (w *Workspace) Reload(ctx context.Context, id ID) (*ReloadReport, error) {
	old, ok := w.Document(id)
	if !ok {
		return nil, fmt.Errorf("reload %d: %w", id, ErrUnknownDocument)
	}
	entries, err := old.beginReload()
	if err != nil {
		w.log.Warnf("Not reloading %s while it is busy", old.Name)
		return nil, err
	}
	defer old.endReload()

	fresh, err := w.load(ctx, old.Path)
	if err != nil {
		return nil, err
	}
	fresh.ID = id

	report := &ReloadReport{}
	fresh.mu.Lock()
	for _, entry := range entries {
		newID, found := fresh.resolver.ByFingerprint(entry.ID.Fingerprint)
		if !found {
			report.Dropped = append(report.Dropped, entry)
			continue
		}
		face, _ := fresh.resolver.Face(newID)
		if err := fresh.registry.Set(newID, face, entry.Label); err != nil {
			report.Dropped = append(report.Dropped, entry)
			continue
		}
		report.Carried++
	}
	fresh.mu.Unlock()

	w.mu.Lock()
	if _, still := w.docs[id]; !still {
		w.mu.Unlock()
		_ = fresh.close()
		return nil, fmt.Errorf("reload %d: %w", id, ErrUnknownDocument)
	}
	w.docs[id] = fresh
	w.mu.Unlock()

	closeErr := old.close()
	w.log.Infof("Reloaded %s: %d faces, %d label(s) kept", fresh.Name, fresh.shape.FaceCount(), report.Carried)
	if n := len(report.Dropped); n > 0 {
		w.log.Warnf("%d label(s) dropped because their faces changed", n)
		for _, e := range report.Dropped {
			w.log.Warnf("  %s (%s)", e.ID, e.Label)
		}
	}
	return report, closeErr
}
