package viewer

import (
	"image/color"
	"math"
	"testing"

	"github.com/philipparndt/facelabel/internal/testutil"
	"github.com/philipparndt/facelabel/pkg/kernel"
)

func boxScene() *Scene {
	return NewScene(kernel.FromModel(testutil.Box(10, 10, 10), kernel.DefaultOptions()))
}

func TestPickCenterHitsTop(t *testing.T) {
	s := boxScene()
	s.Render(200, 200)

	face, ok := s.Pick(100, 100)
	if !ok {
		t.Fatal("Expected a face at the center")
	}
	top, _ := s.Shape().Face(1)
	if face != top {
		idx, _ := s.Shape().IndexOf(face)
		t.Errorf("Expected the top face, got face %d", idx)
	}

	if _, ok := s.Pick(2, 2); ok {
		t.Error("Expected background in the corner")
	}
	if _, ok := s.Pick(-1, 500); ok {
		t.Error("Expected no face outside the frame")
	}
}

func TestOverlayColor(t *testing.T) {
	s := boxScene()
	top, _ := s.Shape().Face(1)
	s.SetOverlays(map[*kernel.Face]color.NRGBA{top: {R: 255, A: 255}})

	frame := s.Render(200, 200)
	c := frame.Image.RGBAAt(100, 100)
	if c.R < 200 || c.G != 0 || c.B != 0 {
		t.Errorf("Expected red overlay at the center, got %v", c)
	}
}

func TestPickBeforeRender(t *testing.T) {
	if _, ok := boxScene().Pick(0, 0); ok {
		t.Error("Expected no pick before the first frame")
	}
}

func TestFaceBoundaries(t *testing.T) {
	s := boxScene()
	// 12 box edges; quad diagonals are interior
	if len(s.edges) != 12 {
		t.Errorf("Expected 12 boundary edges, got %d", len(s.edges))
	}
}

func TestRotateKeepsTargetInView(t *testing.T) {
	s := boxScene()
	s.Rotate(0.3, 0.5)
	s.Render(100, 100)
	if _, ok := s.Pick(50, 50); !ok {
		t.Error("Expected geometry at the center after rotating")
	}
	s.ResetView()
	s.Zoom(0.5)
	s.Render(100, 100)
	if _, ok := s.Pick(50, 50); !ok {
		t.Error("Expected geometry at the center after zooming out")
	}
}

func TestCameraProjectsTargetToCenter(t *testing.T) {
	s := boxScene()
	c := s.camera
	x, y, z := c.Project(c.Target, 200, 100)
	if x != 100 || y != 50 || z <= 0 {
		t.Errorf("Expected target at the center, got (%f, %f, %f)", x, y, z)
	}

	c.Rotate(0, math.Pi/2)
	c.Zoom(1)
	c.Reset()
	if c.RotationY != 0 || c.Distance != 20 {
		t.Errorf("Expected reset to the fitted view, got rotation %f distance %f", c.RotationY, c.Distance)
	}

	// behind the camera
	if _, _, z := c.Project(c.Position.Add(c.Position.Sub(c.Target)), 200, 100); z > nearPlane {
		t.Errorf("Expected a point behind the camera to be culled, got depth %f", z)
	}
}

func countColor(frame *Frame, want color.NRGBA) int {
	n := 0
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			if frame.Image.RGBAAt(x, y) == rgba(want) {
				n++
			}
		}
	}
	return n
}

func TestWireframeMode(t *testing.T) {
	s := boxScene()
	if s.Mode() != Shaded {
		t.Fatalf("Expected shaded by default, got %s", s.Mode())
	}
	shadedEdges := countColor(s.Render(200, 200), EdgeColor)

	s.SetMode(Wireframe)
	frame := s.Render(200, 200)
	if c := frame.Image.RGBAAt(100, 100); c != rgba(Background) {
		t.Errorf("Expected an unfilled top face, got %v", c)
	}
	if _, ok := s.Pick(100, 100); !ok {
		t.Error("Expected picking to work in wireframe mode")
	}
	if edges := countColor(frame, EdgeColor); edges <= shadedEdges {
		t.Errorf("Expected hidden edges to show, got %d edge pixels (shaded %d)", edges, shadedEdges)
	}

	top, _ := s.Shape().Face(1)
	s.SetOverlays(map[*kernel.Face]color.NRGBA{top: {R: 255, A: 255}})
	if c := s.Render(200, 200).Image.RGBAAt(100, 100); c.R < 200 || c.G != 0 {
		t.Errorf("Expected overlays to stay filled, got %v", c)
	}

	s.SetMode(Shaded)
	if s.Mode().String() != "shaded" || Wireframe.String() != "wireframe" {
		t.Error("Unexpected mode names")
	}
}
