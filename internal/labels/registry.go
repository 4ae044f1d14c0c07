package labels

import (
	"errors"
	"fmt"
	"sort"

	"github.com/philipparndt/facelabel/internal/faceid"
	"github.com/philipparndt/facelabel/internal/selection"
	"github.com/philipparndt/facelabel/internal/status"
	"github.com/philipparndt/facelabel/internal/visual"
	"github.com/philipparndt/facelabel/pkg/kernel"
)

// ErrUnknownLabel is returned for labels outside the vocabulary
var ErrUnknownLabel = errors.New("unknown label")

// Entry is one labeled face
type Entry struct {
	ID    faceid.Identity
	Label Label
}

// Registry maps face identities of one document to labels and keeps a
// label-colored visual on each labeled face.
type Registry struct {
	highlighter visual.Highlighter
	sink        status.Sink

	labels  map[faceid.Identity]Label
	faces   map[faceid.Identity]*kernel.Face
	visuals map[faceid.Identity]visual.Handle
}

// NewRegistry creates an empty registry
func NewRegistry(h visual.Highlighter, sink status.Sink) *Registry {
	return &Registry{
		highlighter: h,
		sink:        sink,
		labels:      make(map[faceid.Identity]Label),
		faces:       make(map[faceid.Identity]*kernel.Face),
		visuals:     make(map[faceid.Identity]visual.Handle),
	}
}

// Assign labels every selected face and then clears the selection. An
// empty choice is a cancellation and changes nothing. Labels outside the
// vocabulary are rejected with ErrUnknownLabel.
func (r *Registry) Assign(sel *selection.Set, choice string) error {
	if choice == "" {
		r.sink.Infof("Labeling cancelled")
		return nil
	}
	label, ok := Parse(choice)
	if !ok {
		r.sink.Warnf("Unknown label %q", choice)
		return fmt.Errorf("%q: %w", choice, ErrUnknownLabel)
	}
	if sel.Len() == 0 {
		r.sink.Warnf("No faces selected")
		return nil
	}

	var errs []error
	labeled := 0
	for _, item := range sel.Items() {
		if err := r.Set(item.ID, item.Face, label); err != nil {
			errs = append(errs, err)
			continue
		}
		labeled++
	}
	r.sink.Infof("Labeled %d face(s) as %s", labeled, label)

	if err := sel.Clear(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Set labels one face, replacing any previous label and its visual
func (r *Registry) Set(id faceid.Identity, face *kernel.Face, label Label) error {
	if !label.Valid() {
		return fmt.Errorf("%q: %w", label, ErrUnknownLabel)
	}
	if old, ok := r.visuals[id]; ok {
		if err := r.highlighter.Remove(old); err != nil {
			return fmt.Errorf("relabel %s: %w", id, err)
		}
		delete(r.visuals, id)
	}
	h, err := r.highlighter.Highlight(face, label.Color())
	if err != nil {
		// The face keeps its label even if it cannot be shown
		r.sink.Errorf("Cannot show label of face %s: %v", id, err)
	} else {
		r.visuals[id] = h
	}
	r.labels[id] = label
	r.faces[id] = face
	return nil
}

// LabelOf returns the label of a face
func (r *Registry) LabelOf(id faceid.Identity) (Label, bool) {
	l, ok := r.labels[id]
	return l, ok
}

// NameOf implements selection.Namer
func (r *Registry) NameOf(id faceid.Identity) (string, bool) {
	l, ok := r.labels[id]
	return string(l), ok
}

// Remove unlabels a face
func (r *Registry) Remove(id faceid.Identity) error {
	if _, ok := r.labels[id]; !ok {
		return nil
	}
	if h, ok := r.visuals[id]; ok {
		if err := r.highlighter.Remove(h); err != nil {
			return fmt.Errorf("unlabel %s: %w", id, err)
		}
	}
	label := r.labels[id]
	delete(r.labels, id)
	delete(r.faces, id)
	delete(r.visuals, id)
	r.sink.Infof("Removed label %s from face %s", label, id)
	return nil
}

// Snapshot returns a working copy of the labels
func (r *Registry) Snapshot() map[faceid.Identity]Label {
	snapshot := make(map[faceid.Identity]Label, len(r.labels))
	for id, l := range r.labels {
		snapshot[id] = l
	}
	return snapshot
}

// Entries returns the labels ordered by face ordinal
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, len(r.labels))
	for id, l := range r.labels {
		entries = append(entries, Entry{ID: id, Label: l})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ID.Ordinal != entries[j].ID.Ordinal {
			return entries[i].ID.Ordinal < entries[j].ID.Ordinal
		}
		return entries[i].ID.Fingerprint.String() < entries[j].ID.Fingerprint.String()
	})
	return entries
}

// Len returns the number of labeled faces
func (r *Registry) Len() int {
	return len(r.labels)
}

// Counts returns the number of faces per label
func (r *Registry) Counts() map[Label]int {
	counts := make(map[Label]int)
	for _, l := range r.labels {
		counts[l]++
	}
	return counts
}

// Reset removes every label and label visual. A label whose visual cannot
// be removed is kept.
func (r *Registry) Reset() error {
	var errs []error
	for id := range r.labels {
		if h, ok := r.visuals[id]; ok {
			if err := r.highlighter.Remove(h); err != nil {
				errs = append(errs, fmt.Errorf("reset %s: %w", id, err))
				continue
			}
		}
		delete(r.labels, id)
		delete(r.faces, id)
		delete(r.visuals, id)
	}
	if len(errs) > 0 {
		r.sink.Errorf("Labels partially reset, %d face(s) still labeled", len(r.labels))
	}
	return errors.Join(errs...)
}

// HideAll removes the label visuals but keeps the labels
func (r *Registry) HideAll() error {
	var errs []error
	for id, h := range r.visuals {
		if err := r.highlighter.Remove(h); err != nil {
			errs = append(errs, fmt.Errorf("hide %s: %w", id, err))
			continue
		}
		delete(r.visuals, id)
	}
	return errors.Join(errs...)
}
