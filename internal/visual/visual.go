// Package visual defines how face highlights are shown. Frontends provide a
// Highlighter; Recorder is the in-memory one used headless and in tests.
package visual

import (
	"errors"
	"fmt"
	"image/color"
	"sort"
	"sync"

	"github.com/philipparndt/facelabel/pkg/kernel"
)

// ErrUnknownHandle is returned when removing a visual that is not displayed
var ErrUnknownHandle = errors.New("unknown visual handle")

// Color is an opaque RGB color
type Color struct {
	R, G, B uint8
}

// RGB builds a color from unit floats
func RGB(r, g, b float64) Color {
	clamp := func(v float64) uint8 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint8(v*255 + 0.5)
	}
	return Color{R: clamp(r), G: clamp(g), B: clamp(b)}
}

// Hex returns the #RRGGBB form
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// RGBA converts to an image color
func (c Color) RGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}
}

// Yellow is the default selection color
var Yellow = Color{R: 0xFF, G: 0xFF}

// Handle identifies one displayed visual
type Handle int

// Highlighter displays colored overlays on faces
type Highlighter interface {
	Highlight(face *kernel.Face, c Color) (Handle, error)
	Remove(h Handle) error
}

// Visual is one displayed overlay
type Visual struct {
	Handle Handle
	Face   *kernel.Face
	Color  Color
}

// Recorder keeps displayed visuals in memory. Later visuals draw on top of
// earlier ones on the same face.
type Recorder struct {
	mu      sync.Mutex
	next    Handle
	visuals map[Handle]Visual

	// FailHighlight and FailRemove make the next calls fail when set
	FailHighlight error
	FailRemove    error

	onChange func()
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{visuals: make(map[Handle]Visual)}
}

// OnChange registers a callback run after every change
func (r *Recorder) OnChange(fn func()) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Highlight implements Highlighter
func (r *Recorder) Highlight(face *kernel.Face, c Color) (Handle, error) {
	r.mu.Lock()
	if r.FailHighlight != nil {
		err := r.FailHighlight
		r.mu.Unlock()
		return 0, err
	}
	r.next++
	h := r.next
	r.visuals[h] = Visual{Handle: h, Face: face, Color: c}
	fn := r.onChange
	r.mu.Unlock()

	if fn != nil {
		fn()
	}
	return h, nil
}

// Remove implements Highlighter
func (r *Recorder) Remove(h Handle) error {
	r.mu.Lock()
	if r.FailRemove != nil {
		err := r.FailRemove
		r.mu.Unlock()
		return err
	}
	if _, ok := r.visuals[h]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("remove %d: %w", h, ErrUnknownHandle)
	}
	delete(r.visuals, h)
	fn := r.onChange
	r.mu.Unlock()

	if fn != nil {
		fn()
	}
	return nil
}

// Visible returns displayed visuals in drawing order
func (r *Recorder) Visible() []Visual {
	r.mu.Lock()
	defer r.mu.Unlock()
	visuals := make([]Visual, 0, len(r.visuals))
	for _, v := range r.visuals {
		visuals = append(visuals, v)
	}
	sort.Slice(visuals, func(i, j int) bool { return visuals[i].Handle < visuals[j].Handle })
	return visuals
}

// Count returns the number of displayed visuals
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visuals)
}

// ColorOf returns the topmost color shown on face
func (r *Recorder) ColorOf(face *kernel.Face) (Color, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var (
		best  Handle
		top   Color
		found bool
	)
	for h, v := range r.visuals {
		if v.Face == face && h > best {
			best, top, found = h, v.Color, true
		}
	}
	return top, found
}

// Colors returns the topmost color per face
func (r *Recorder) Colors() map[*kernel.Face]Color {
	result := make(map[*kernel.Face]Color)
	for _, v := range r.Visible() {
		result[v.Face] = v.Color
	}
	return result
}

// Clear removes every visual
func (r *Recorder) Clear() {
	r.mu.Lock()
	r.visuals = make(map[Handle]Visual)
	fn := r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}
