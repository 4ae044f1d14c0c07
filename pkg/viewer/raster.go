package viewer

import (
	"image"
	"image/color"
	"math"
)

// noFace marks pixels without geometry in the face buffer
const noFace = -1

// Frame is one rendered image plus the per-pixel depth and face ordinal
type Frame struct {
	Image  *image.RGBA
	Width  int
	Height int
	depth  []float64
	faces  []int32
}

func newFrame(width, height int, background color.RGBA) *Frame {
	f := &Frame{
		Image:  image.NewRGBA(image.Rect(0, 0, width, height)),
		Width:  width,
		Height: height,
		depth:  make([]float64, width*height),
		faces:  make([]int32, width*height),
	}
	for i := range f.depth {
		f.depth[i] = math.MaxFloat64
		f.faces[i] = noFace
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			f.Image.SetRGBA(x, y, background)
		}
	}
	return f
}

// FaceAt returns the ordinal of the face drawn at pixel (x, y)
func (f *Frame) FaceAt(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0, false
	}
	idx := f.faces[y*f.Width+x]
	if idx == noFace {
		return 0, false
	}
	return int(idx), true
}

// fillTriangle fills a triangle with depth testing and records face in the
// face buffer for every pixel it wins.
func (f *Frame) fillTriangle(x1, y1, z1, x2, y2, z2, x3, y3, z3 float64, col color.RGBA, face int32) {
	vertices := [3][3]float64{
		{x1, y1, z1},
		{x2, y2, z2},
		{x3, y3, z3},
	}

	// Sort vertices by Y coordinate (top to bottom)
	if vertices[0][1] > vertices[1][1] {
		vertices[0], vertices[1] = vertices[1], vertices[0]
	}
	if vertices[1][1] > vertices[2][1] {
		vertices[1], vertices[2] = vertices[2], vertices[1]
	}
	if vertices[0][1] > vertices[1][1] {
		vertices[0], vertices[1] = vertices[1], vertices[0]
	}

	x1, y1, z1 = vertices[0][0], vertices[0][1], vertices[0][2]
	x2, y2, z2 = vertices[1][0], vertices[1][1], vertices[1][2]
	x3, y3, z3 = vertices[2][0], vertices[2][1], vertices[2][2]

	yStart := int(math.Max(0, math.Ceil(y1)))
	yEnd := int(math.Min(float64(f.Height-1), math.Floor(y3)))

	for y := yStart; y <= yEnd; y++ {
		fy := float64(y)

		// Long edge 1-3 and whichever short edge spans this row
		t := 0.0
		if y3 != y1 {
			t = (fy - y1) / (y3 - y1)
		}
		xa, za := x1+t*(x3-x1), z1+t*(z3-z1)

		var xb, zb float64
		if fy < y2 {
			s := 0.0
			if y2 != y1 {
				s = (fy - y1) / (y2 - y1)
			}
			xb, zb = x1+s*(x2-x1), z1+s*(z2-z1)
		} else {
			s := 0.0
			if y3 != y2 {
				s = (fy - y2) / (y3 - y2)
			}
			xb, zb = x2+s*(x3-x2), z2+s*(z3-z2)
		}

		if xa > xb {
			xa, xb = xb, xa
			za, zb = zb, za
		}

		xStart := int(math.Max(0, math.Ceil(xa)))
		xEnd := int(math.Min(float64(f.Width-1), math.Floor(xb)))
		for x := xStart; x <= xEnd; x++ {
			u := 0.0
			if xb != xa {
				u = (float64(x) - xa) / (xb - xa)
			}
			z := za + u*(zb-za)

			// Draw if closer (smaller z)
			idx := y*f.Width + x
			if z < f.depth[idx] {
				f.depth[idx] = z
				f.faces[idx] = face
				f.Image.SetRGBA(x, y, col)
			}
		}
	}
}

// drawLine draws a line using Bresenham's algorithm. Pixels hidden behind
// nearer geometry are skipped; bias pulls the line slightly forward so
// edges of visible faces win against their own face.
func (f *Frame) drawLine(x1, y1 int, z1 float64, x2, y2 int, z2 float64, col color.RGBA, bias float64) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)

	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}

	steps := math.Max(float64(dx), float64(dy))
	step := 0.0
	err := dx - dy

	for {
		if x1 >= 0 && x1 < f.Width && y1 >= 0 && y1 < f.Height {
			t := 0.0
			if steps > 0 {
				t = step / steps
			}
			z := z1 + t*(z2-z1)
			idx := y1*f.Width + x1
			if z-bias <= f.depth[idx] {
				f.Image.SetRGBA(x1, y1, col)
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}
		step++

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
