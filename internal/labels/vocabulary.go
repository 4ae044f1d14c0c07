// Package labels holds the manufacturing-feature vocabulary and the
// per-document registry of face labels.
package labels

import (
	"strings"

	"github.com/philipparndt/facelabel/internal/visual"
)

// Label is a manufacturing-feature tag
type Label string

const (
	Hole     Label = "Hole"
	Slot     Label = "Slot"
	Pocket   Label = "Pocket"
	Passage  Label = "Passage"
	Stock    Label = "Stock"
	Groove   Label = "Groove"
	Step     Label = "Step"
	Chamfer  Label = "Chamfer"
	Fillet   Label = "Fillet"
	Wall     Label = "Wall"
	WallHole Label = "Wall + Hole"
)

// vocabulary lists the labels in menu order. A new label needs an entry
// here and in colors.
var vocabulary = []Label{
	Hole, Slot, Pocket, Passage, Stock, Groove, Step, Chamfer, Fillet, Wall, WallHole,
}

var colors = map[Label]visual.Color{
	Hole:     visual.RGB(1.0, 0.0, 0.0),
	Slot:     visual.RGB(0.0, 1.0, 0.0),
	Pocket:   visual.RGB(0.0, 0.0, 1.0),
	Passage:  visual.RGB(1.0, 0.0, 1.0),
	Stock:    visual.RGB(0.0, 1.0, 1.0),
	Groove:   visual.RGB(1.0, 0.5, 0.0),
	Step:     visual.RGB(0.6, 0.2, 0.8),
	Chamfer:  visual.RGB(0.3, 0.7, 0.5),
	Fillet:   visual.RGB(0.7, 0.3, 0.3),
	Wall:     visual.RGB(0.3, 0.3, 0.7),
	WallHole: visual.RGB(0.4, 0.6, 0.2),
}

// FallbackColor is used for labels missing from the color table
var FallbackColor = visual.RGB(0.5, 0.5, 0.5)

// Vocabulary returns all labels in menu order
func Vocabulary() []Label {
	return append([]Label(nil), vocabulary...)
}

// Parse returns the vocabulary label matching s, ignoring case and
// surrounding whitespace.
func Parse(s string) (Label, bool) {
	s = strings.TrimSpace(s)
	for _, l := range vocabulary {
		if strings.EqualFold(string(l), s) {
			return l, true
		}
	}
	return "", false
}

// Valid reports whether l belongs to the vocabulary
func (l Label) Valid() bool {
	for _, v := range vocabulary {
		if v == l {
			return true
		}
	}
	return false
}

// Color returns the display color of l
func (l Label) Color() visual.Color {
	if c, ok := colors[l]; ok {
		return c
	}
	return FallbackColor
}

func (l Label) String() string {
	return string(l)
}
