package viewer

import (
	"image"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/philipparndt/facelabel/pkg/kernel"
)

// FaceView shows a scene and reports mouse press/release with the face under
// the cursor. Dragging orbits, scrolling zooms.
type FaceView struct {
	widget.BaseWidget

	mu     sync.Mutex
	scene  *Scene
	raster *canvas.Raster
	pixelW int
	pixelH int

	// OnPress is called when a mouse button goes down on the view
	OnPress func(at time.Time)
	// OnRelease is called with the picked face, nil for background
	OnRelease func(at time.Time, face *kernel.Face, mods fyne.KeyModifier)
}

var (
	_ desktop.Mouseable = (*FaceView)(nil)
	_ fyne.Draggable    = (*FaceView)(nil)
	_ fyne.Scrollable   = (*FaceView)(nil)
)

// NewFaceView creates an empty view; call SetScene to display a shape
func NewFaceView() *FaceView {
	v := &FaceView{}
	v.raster = canvas.NewRaster(v.draw)
	v.ExtendBaseWidget(v)
	return v
}

// SetScene replaces the displayed scene; nil shows the background only
func (v *FaceView) SetScene(scene *Scene) {
	v.mu.Lock()
	v.scene = scene
	v.mu.Unlock()
	v.Refresh()
}

// Scene returns the displayed scene
func (v *FaceView) Scene() *Scene {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scene
}

func (v *FaceView) draw(w, h int) image.Image {
	v.mu.Lock()
	scene := v.scene
	v.pixelW, v.pixelH = w, h
	v.mu.Unlock()

	if scene == nil {
		return newFrame(w, h, rgba(Background)).Image
	}
	return scene.Render(w, h).Image
}

// pick maps a position in device independent units to the frame's pixels
func (v *FaceView) pick(pos fyne.Position) *kernel.Face {
	v.mu.Lock()
	scene := v.scene
	pw, ph := v.pixelW, v.pixelH
	v.mu.Unlock()

	size := v.Size()
	if scene == nil || size.Width <= 0 || size.Height <= 0 {
		return nil
	}
	x := int(pos.X * float32(pw) / size.Width)
	y := int(pos.Y * float32(ph) / size.Height)
	face, ok := scene.Pick(x, y)
	if !ok {
		return nil
	}
	return face
}

// MouseDown implements desktop.Mouseable
func (v *FaceView) MouseDown(*desktop.MouseEvent) {
	if v.OnPress != nil {
		v.OnPress(time.Now())
	}
}

// MouseUp implements desktop.Mouseable
func (v *FaceView) MouseUp(event *desktop.MouseEvent) {
	if v.OnRelease == nil {
		return
	}
	v.OnRelease(time.Now(), v.pick(event.Position), event.Modifier)
}

// Dragged handles mouse drag events for rotation
func (v *FaceView) Dragged(event *fyne.DragEvent) {
	scene := v.Scene()
	if scene == nil {
		return
	}
	scene.Rotate(float64(-event.Dragged.DY)*0.01, float64(event.Dragged.DX)*0.01)
	v.Refresh()
}

// DragEnd implements fyne.Draggable
func (v *FaceView) DragEnd() {}

// Scrolled handles scroll events for zooming
func (v *FaceView) Scrolled(event *fyne.ScrollEvent) {
	scene := v.Scene()
	if scene == nil {
		return
	}
	scene.Zoom(-float64(event.Scrolled.DY) * 0.001)
	v.Refresh()
}

// CreateRenderer creates the renderer for the widget
func (v *FaceView) CreateRenderer() fyne.WidgetRenderer {
	return &faceViewRenderer{view: v}
}

type faceViewRenderer struct {
	view *FaceView
}

func (r *faceViewRenderer) Layout(size fyne.Size) {
	r.view.raster.Resize(size)
}

func (r *faceViewRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 400)
}

func (r *faceViewRenderer) Refresh() {
	canvas.Refresh(r.view.raster)
}

func (r *faceViewRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.view.raster}
}

func (r *faceViewRenderer) Destroy() {}
