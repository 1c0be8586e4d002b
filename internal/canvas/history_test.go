package canvas

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	black = color.RGBA{A: 255}
)

func seg(x0, y0, x1, y1 int, c color.RGBA) Segment {
	return Segment{Start: image.Pt(x0, y0), End: image.Pt(x1, y1), Color: c, Thickness: 5}
}

func TestHistory_PushPop(t *testing.T) {
	var h History
	a := seg(0, 0, 10, 10, red)
	b := seg(10, 10, 20, 20, green)

	h.Push(a)
	h.Push(b)
	require.Equal(t, []Segment{a, b}, h.Segments())

	got, ok := h.Pop()
	require.True(t, ok)
	assert.Equal(t, b, got)
	assert.Equal(t, []Segment{a}, h.Segments())
	assert.Equal(t, []Segment{b}, h.RedoStack())
}

func TestHistory_PopEmpty(t *testing.T) {
	var h History

	_, ok := h.Pop()
	assert.False(t, ok)
	assert.Zero(t, h.Len())
	assert.Zero(t, h.RedoLen())
}

func TestHistory_UnpopInvertsPop(t *testing.T) {
	var h History
	segs := []Segment{seg(0, 0, 1, 1, red), seg(1, 1, 2, 2, red), seg(2, 2, 3, 3, green)}
	for _, s := range segs {
		h.Push(s)
	}

	h.Pop()
	h.Pop()
	assert.Equal(t, segs[:1], h.Segments())
	assert.Equal(t, []Segment{segs[2], segs[1]}, h.RedoStack())

	h.Unpop()
	h.Unpop()
	assert.Equal(t, segs, h.Segments())
	assert.Empty(t, h.RedoStack())

	_, ok := h.Unpop()
	assert.False(t, ok)
}

func TestHistory_PushClearsRedo(t *testing.T) {
	var h History
	h.Push(seg(0, 0, 1, 1, red))
	h.Pop()
	require.Equal(t, 1, h.RedoLen())

	h.Push(seg(5, 5, 6, 6, green))
	assert.Zero(t, h.RedoLen())

	_, ok := h.Unpop()
	assert.False(t, ok, "redo after a new segment must be a no-op")
}

func TestHistory_ResetAndDiscard(t *testing.T) {
	var h History
	h.Push(seg(0, 0, 1, 1, red))
	h.Push(seg(1, 1, 2, 2, red))
	h.Pop()

	h.DiscardRedo()
	assert.Equal(t, 1, h.Len())
	assert.Zero(t, h.RedoLen())

	h.Pop()
	h.Reset()
	assert.Zero(t, h.Len())
	assert.Zero(t, h.RedoLen())
}

func TestHistory_CopiesAreDetached(t *testing.T) {
	var h History
	h.Push(seg(0, 0, 1, 1, red))

	out := h.Segments()
	out[0].Thickness = 99

	assert.Equal(t, 5, h.Segments()[0].Thickness)
}
