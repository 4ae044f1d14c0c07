// Package input turns raw pointer events into selection commands. A short
// press/release pair is a click on the face under the cursor; a long one is
// a camera gesture and leaves the selection alone.
package input

import (
	"sync"
	"time"

	"github.com/philipparndt/facelabel/pkg/kernel"
)

// DefaultClickThreshold separates clicks from drags
const DefaultClickThreshold = 250 * time.Millisecond

// Modifiers held during a release
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
)

// Has reports whether m contains all of other
func (m Modifiers) Has(other Modifiers) bool {
	return m&other == other
}

// Target receives the commands produced by the controller
type Target interface {
	Select(face *kernel.Face) error
	Deselect(face *kernel.Face) error
	Clear() error
}

// Action describes what a release did
type Action int

const (
	ActionNone Action = iota
	ActionSelect
	ActionDeselect
	ActionClear
	ActionDrag
)

func (a Action) String() string {
	switch a {
	case ActionSelect:
		return "select"
	case ActionDeselect:
		return "deselect"
	case ActionClear:
		return "clear"
	case ActionDrag:
		return "drag"
	default:
		return "none"
	}
}

// Controller is independent of any windowing toolkit
type Controller struct {
	mu        sync.Mutex
	target    Target
	threshold time.Duration
	pressedAt time.Time
	pressed   bool
}

// NewController creates a controller. A non-positive threshold uses
// DefaultClickThreshold.
func NewController(target Target, threshold time.Duration) *Controller {
	if threshold <= 0 {
		threshold = DefaultClickThreshold
	}
	return &Controller{target: target, threshold: threshold}
}

// Threshold returns the click/drag boundary
func (c *Controller) Threshold() time.Duration {
	return c.threshold
}

// OnPress records the press time
func (c *Controller) OnPress(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pressedAt = t
	c.pressed = true
}

// OnRelease finishes a gesture. picked is the face under the cursor, nil
// for background. Holding ctrl deselects instead of selecting.
func (c *Controller) OnRelease(t time.Time, picked *kernel.Face, mods Modifiers) (Action, error) {
	c.mu.Lock()
	if !c.pressed {
		c.mu.Unlock()
		return ActionNone, nil
	}
	held := t.Sub(c.pressedAt)
	c.pressed = false
	c.mu.Unlock()

	if held >= c.threshold {
		return ActionDrag, nil
	}
	if picked == nil {
		return ActionNone, nil
	}
	if mods.Has(ModCtrl) {
		return ActionDeselect, c.target.Deselect(picked)
	}
	return ActionSelect, c.target.Select(picked)
}

// OnEscape clears the selection and cancels a pending press
func (c *Controller) OnEscape() (Action, error) {
	c.mu.Lock()
	c.pressed = false
	c.mu.Unlock()
	return ActionClear, c.target.Clear()
}
