// Package selection tracks the faces currently picked in a document. Every
// selected face has exactly one highlight on display and vice versa.
package selection

import (
	"errors"
	"fmt"

	"github.com/philipparndt/facelabel/internal/faceid"
	"github.com/philipparndt/facelabel/internal/status"
	"github.com/philipparndt/facelabel/internal/visual"
	"github.com/philipparndt/facelabel/pkg/kernel"
)

// Namer resolves the label of a face for status messages
type Namer interface {
	NameOf(id faceid.Identity) (string, bool)
}

// Item is one selected face
type Item struct {
	ID   faceid.Identity
	Face *kernel.Face
}

// Set is the selection of one document
type Set struct {
	highlighter visual.Highlighter
	color       visual.Color
	sink        status.Sink
	namer       Namer

	faces   map[faceid.Identity]*kernel.Face
	visuals map[faceid.Identity]visual.Handle
	order   []faceid.Identity
}

// New creates an empty selection drawing highlights in color
func New(h visual.Highlighter, color visual.Color, sink status.Sink) *Set {
	return &Set{
		highlighter: h,
		color:       color,
		sink:        sink,
		faces:       make(map[faceid.Identity]*kernel.Face),
		visuals:     make(map[faceid.Identity]visual.Handle),
	}
}

// SetNamer attaches the label lookup used in status messages
func (s *Set) SetNamer(n Namer) {
	s.namer = n
}

func (s *Set) describe(id faceid.Identity) string {
	if s.namer != nil {
		if name, ok := s.namer.NameOf(id); ok {
			return fmt.Sprintf("%s [%s]", id, name)
		}
	}
	return id.String()
}

// Select highlights a face and records it. Selecting a face twice is a
// no-op. When the highlight cannot be shown nothing is recorded.
func (s *Set) Select(id faceid.Identity, face *kernel.Face) error {
	if _, ok := s.faces[id]; ok {
		return nil
	}
	h, err := s.highlighter.Highlight(face, s.color)
	if err != nil {
		s.sink.Errorf("Cannot highlight face %s: %v", id, err)
		return fmt.Errorf("select %s: %w", id, err)
	}
	s.faces[id] = face
	s.visuals[id] = h
	s.order = append(s.order, id)
	s.sink.Infof("Selected face %s", s.describe(id))
	return nil
}

// Deselect removes a face from the selection. Deselecting a face that is not
// selected is a no-op. When the highlight cannot be removed the face stays
// selected.
func (s *Set) Deselect(id faceid.Identity) error {
	h, ok := s.visuals[id]
	if !ok {
		return nil
	}
	if err := s.highlighter.Remove(h); err != nil {
		s.sink.Errorf("Cannot remove highlight of face %s: %v", id, err)
		return fmt.Errorf("deselect %s: %w", id, err)
	}
	s.forget(id)
	s.sink.Infof("Deselected face %s", s.describe(id))
	return nil
}

// Toggle selects an unselected face and deselects a selected one
func (s *Set) Toggle(id faceid.Identity, face *kernel.Face) error {
	if s.Contains(id) {
		return s.Deselect(id)
	}
	return s.Select(id, face)
}

// Clear removes every face. Faces whose highlight cannot be removed stay
// selected and their errors are returned joined.
func (s *Set) Clear() error {
	var errs []error
	for _, id := range append([]faceid.Identity(nil), s.order...) {
		if err := s.highlighter.Remove(s.visuals[id]); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", id, err))
			continue
		}
		s.forget(id)
	}
	if len(errs) > 0 {
		s.sink.Errorf("Selection partially cleared, %d face(s) still selected", len(s.order))
		return errors.Join(errs...)
	}
	s.sink.Infof("Selection cleared")
	return nil
}

func (s *Set) forget(id faceid.Identity) {
	delete(s.faces, id)
	delete(s.visuals, id)
	for i, other := range s.order {
		if other == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Contains reports whether a face is selected
func (s *Set) Contains(id faceid.Identity) bool {
	_, ok := s.faces[id]
	return ok
}

// Len returns the number of selected faces
func (s *Set) Len() int {
	return len(s.order)
}

// Items returns the selected faces in selection order
func (s *Set) Items() []Item {
	items := make([]Item, len(s.order))
	for i, id := range s.order {
		items[i] = Item{ID: id, Face: s.faces[id]}
	}
	return items
}

// Identities returns the selected identities in selection order
func (s *Set) Identities() []faceid.Identity {
	return append([]faceid.Identity(nil), s.order...)
}
