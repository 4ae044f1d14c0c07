// Package document owns the per-model session state: the loaded shape, its
// face identities, the selection and the label registry. Workspace tracks
// the open documents and which one is active.
package document

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/philipparndt/facelabel/internal/faceid"
	"github.com/philipparndt/facelabel/internal/labels"
	"github.com/philipparndt/facelabel/internal/reconcile"
	"github.com/philipparndt/facelabel/internal/selection"
	"github.com/philipparndt/facelabel/internal/status"
	"github.com/philipparndt/facelabel/internal/visual"
	"github.com/philipparndt/facelabel/pkg/kernel"
)

var (
	// ErrNoDocument is returned when no document is active
	ErrNoDocument = errors.New("no active document")
	// ErrBusy is returned while an export is running on the document
	ErrBusy = errors.New("document is busy")
	// ErrForeignFace is returned for faces of another shape
	ErrForeignFace = errors.New("face does not belong to the document")
	// ErrUnknownDocument is returned for ids that are not open
	ErrUnknownDocument = errors.New("unknown document")
)

// ID identifies an open document
type ID int

// Document is one loaded model
type Document struct {
	ID   ID
	Path string
	Name string

	shape    *kernel.Shape
	resolver *faceid.Resolver
	sink     status.Sink

	mu        sync.Mutex
	selection *selection.Set
	registry  *labels.Registry
	exporting bool
	reloading bool
	closed    bool

	// held for the duration of an export
	busy *semaphore.Weighted
}

func newDocument(id ID, shape *kernel.Shape, h visual.Highlighter, selColor visual.Color, sink status.Sink) *Document {
	reg := labels.NewRegistry(h, sink)
	sel := selection.New(h, selColor, sink)
	sel.SetNamer(reg)
	return &Document{
		ID:        id,
		Path:      shape.Source,
		Name:      shape.Name,
		shape:     shape,
		resolver:  faceid.NewResolver(shape),
		sink:      sink,
		selection: sel,
		registry:  reg,
		busy:      semaphore.NewWeighted(1),
	}
}

// Shape returns the loaded shape
func (d *Document) Shape() *kernel.Shape {
	return d.shape
}

// Resolver returns the face identity resolver
func (d *Document) Resolver() *faceid.Resolver {
	return d.resolver
}

// guard serializes a mutation and rejects it while an export or reload
// runs, or once the document was closed.
func (d *Document) guard(fn func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.closed:
		d.sink.Warnf("%s is no longer open", d.Name)
		return ErrUnknownDocument
	case d.exporting:
		d.sink.Warnf("%s is busy exporting", d.Name)
		return ErrBusy
	case d.reloading:
		d.sink.Warnf("%s is reloading", d.Name)
		return ErrBusy
	}
	return fn()
}

// Busy reports whether an export or reload is running
func (d *Document) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.exporting || d.reloading
}

// beginReload freezes the document and returns its labels. The export
// semaphore stays held until endReload.
func (d *Document) beginReload() ([]labels.Entry, error) {
	if !d.busy.TryAcquire(1) {
		return nil, ErrBusy
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.busy.Release(1)
		return nil, ErrUnknownDocument
	}
	d.reloading = true
	return d.registry.Entries(), nil
}

func (d *Document) endReload() {
	d.mu.Lock()
	d.reloading = false
	d.mu.Unlock()
	d.busy.Release(1)
}

func (d *Document) identify(face *kernel.Face) (faceid.Identity, error) {
	if _, ok := d.shape.IndexOf(face); !ok {
		return faceid.Identity{}, ErrForeignFace
	}
	return d.resolver.IdentityOf(face), nil
}

// Select adds a face to the selection
func (d *Document) Select(face *kernel.Face) error {
	return d.guard(func() error {
		id, err := d.identify(face)
		if err != nil {
			return err
		}
		return d.selection.Select(id, face)
	})
}

// SelectOrdinal selects the face at position i of the enumeration
func (d *Document) SelectOrdinal(i int) error {
	face, ok := d.shape.Face(i)
	if !ok {
		return fmt.Errorf("face %d: %w", i, ErrForeignFace)
	}
	return d.Select(face)
}

// Deselect removes a face from the selection
func (d *Document) Deselect(face *kernel.Face) error {
	return d.guard(func() error {
		id, err := d.identify(face)
		if err != nil {
			return err
		}
		return d.selection.Deselect(id)
	})
}

// Toggle flips the selection state of a face
func (d *Document) Toggle(face *kernel.Face) error {
	return d.guard(func() error {
		id, err := d.identify(face)
		if err != nil {
			return err
		}
		return d.selection.Toggle(id, face)
	})
}

// Clear empties the selection
func (d *Document) Clear() error {
	return d.guard(d.selection.Clear)
}

// AssignLabel labels the selected faces. An empty choice cancels.
func (d *Document) AssignLabel(choice string) error {
	return d.guard(func() error {
		return d.registry.Assign(d.selection, choice)
	})
}

// Unlabel removes the label of a face
func (d *Document) Unlabel(face *kernel.Face) error {
	return d.guard(func() error {
		id, err := d.identify(face)
		if err != nil {
			return err
		}
		return d.registry.Remove(id)
	})
}

// ResetLabels removes every label of the document
func (d *Document) ResetLabels() error {
	return d.guard(func() error {
		if err := d.registry.Reset(); err != nil {
			return err
		}
		d.sink.Infof("Labels of %s reset", d.Name)
		return nil
	})
}

// IsSelected reports whether a face is selected
func (d *Document) IsSelected(face *kernel.Face) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selection.Contains(d.resolver.IdentityOf(face))
}

// Selected returns the selected faces in selection order
func (d *Document) Selected() []selection.Item {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selection.Items()
}

// LabelOf returns the label of a face
func (d *Document) LabelOf(face *kernel.Face) (labels.Label, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry.LabelOf(d.resolver.IdentityOf(face))
}

// Labels returns all labels ordered by face ordinal
func (d *Document) Labels() []labels.Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry.Entries()
}

// Export writes the shape with its labels to destination
func (d *Document) Export(ctx context.Context, e *reconcile.Exporter, destination string) (*reconcile.Result, error) {
	if !d.busy.TryAcquire(1) {
		d.sink.Warnf("%s is busy", d.Name)
		return nil, ErrBusy
	}
	defer d.busy.Release(1)
	return d.export(ctx, e, destination)
}

// export runs with the busy semaphore held
func (d *Document) export(ctx context.Context, e *reconcile.Exporter, destination string) (*reconcile.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if destination == "" {
		d.sink.Warnf("Export cancelled: no destination")
		return nil, reconcile.ErrInvalidPath
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.sink.Warnf("%s is no longer open", d.Name)
		return nil, ErrUnknownDocument
	}
	d.exporting = true
	working := d.registry.Snapshot()
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.exporting = false
		d.mu.Unlock()
	}()

	result, err := e.Export(d.shape, working, destination)
	if err != nil {
		d.sink.Errorf("Export of %s failed: %v", d.Name, err)
		return result, err
	}

	d.sink.Infof("Exported %s to %s: %d labeled face(s)", d.Name, destination, result.Annotated)
	if n := len(result.Unmatched); n > 0 {
		d.sink.Warnf("%d label(s) could not be matched to a face:", n)
		for _, u := range result.Unmatched {
			d.sink.Warnf("  %s", u)
		}
	}
	return result, nil
}

// restoreNames moves vocabulary face names of an imported STEP file into
// the registry and returns how many were restored.
func (d *Document) restoreNames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	restored := 0
	for i, face := range d.shape.Faces() {
		if face.Name == "" {
			continue
		}
		label, ok := labels.Parse(face.Name)
		if !ok {
			continue
		}
		if err := d.registry.Set(faceid.Compute(i, face), face, label); err == nil {
			restored++
		}
	}
	return restored
}

// deactivate clears the transient selection
func (d *Document) deactivate() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selection.Clear()
}

// close removes every visual of the document
func (d *Document) close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return errors.Join(d.selection.Clear(), d.registry.HideAll())
}
