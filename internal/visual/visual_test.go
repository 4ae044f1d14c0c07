package visual

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/facelabel/pkg/kernel"
)

func TestRecorderLayers(t *testing.T) {
	r := NewRecorder()
	changes := 0
	r.OnChange(func() { changes++ })

	face := &kernel.Face{}
	h1, err := r.Highlight(face, Yellow)
	require.NoError(t, err)
	h2, err := r.Highlight(face, RGB(1, 0, 0))
	require.NoError(t, err)

	c, ok := r.ColorOf(face)
	require.True(t, ok)
	assert.Equal(t, "#FF0000", c.Hex())

	require.NoError(t, r.Remove(h2))
	c, _ = r.ColorOf(face)
	assert.Equal(t, Yellow, c)

	require.NoError(t, r.Remove(h1))
	_, ok = r.ColorOf(face)
	assert.False(t, ok)
	assert.Equal(t, 4, changes)

	assert.ErrorIs(t, r.Remove(h1), ErrUnknownHandle)
}

func TestRecorderFailures(t *testing.T) {
	r := NewRecorder()
	boom := errors.New("boom")

	r.FailHighlight = boom
	_, err := r.Highlight(&kernel.Face{}, Yellow)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, r.Count())

	r.FailHighlight = nil
	h, err := r.Highlight(&kernel.Face{}, Yellow)
	require.NoError(t, err)
	r.FailRemove = boom
	assert.ErrorIs(t, r.Remove(h), boom)
	assert.Equal(t, 1, r.Count())
}

func TestRGB(t *testing.T) {
	assert.Equal(t, Color{R: 255, G: 128, B: 0}, RGB(1, 0.5, 0))
	assert.Equal(t, Color{}, RGB(-1, 0, 0))
}
