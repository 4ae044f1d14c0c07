package gui

import (
	"image/color"
	"sync"

	"github.com/philipparndt/facelabel/internal/visual"
	"github.com/philipparndt/facelabel/pkg/kernel"
	"github.com/philipparndt/facelabel/pkg/viewer"
)

// Scenes keeps one viewer scene per loaded shape and mirrors the shape's
// visuals into the scene's overlay colors
type Scenes struct {
	mu       sync.Mutex
	scenes   map[*kernel.Shape]*viewer.Scene
	onChange func(*kernel.Shape)
}

// NewScenes creates an empty scene registry
func NewScenes() *Scenes {
	return &Scenes{scenes: make(map[*kernel.Shape]*viewer.Scene)}
}

// OnChange registers a callback run after the overlays of a shape changed.
// It runs on the goroutine that changed the visuals.
func (s *Scenes) OnChange(fn func(shape *kernel.Shape)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Highlighter creates the scene of a new shape and returns the visual
// target feeding it
func (s *Scenes) Highlighter(shape *kernel.Shape) visual.Highlighter {
	scene := viewer.NewScene(shape)
	rec := visual.NewRecorder()
	rec.OnChange(func() {
		overlays := make(map[*kernel.Face]color.NRGBA)
		for face, c := range rec.Colors() {
			overlays[face] = c.RGBA()
		}
		scene.SetOverlays(overlays)

		s.mu.Lock()
		fn := s.onChange
		s.mu.Unlock()
		if fn != nil {
			fn(shape)
		}
	})

	s.mu.Lock()
	s.scenes[shape] = scene
	s.mu.Unlock()
	return rec
}

// Scene returns the scene of a shape
func (s *Scenes) Scene(shape *kernel.Shape) (*viewer.Scene, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	scene, ok := s.scenes[shape]
	return scene, ok
}

// Forget drops scenes whose shapes are no longer open
func (s *Scenes) Forget(keep []*kernel.Shape) {
	open := make(map[*kernel.Shape]bool, len(keep))
	for _, shape := range keep {
		open[shape] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for shape := range s.scenes {
		if !open[shape] {
			delete(s.scenes, shape)
		}
	}
}
