// Package canvas owns the drawing raster and the stroke history it is built from.
package canvas

import (
	"image"
	"image/color"
)

// Segment is one straight line drawn between two consecutive fingertip
// samples. Segments are immutable once recorded.
type Segment struct {
	Start     image.Point `json:"start"`
	End       image.Point `json:"end"`
	Color     color.RGBA  `json:"color"`
	Thickness int         `json:"thickness"`
}

// History is the ordered log of committed segments plus the stack of
// segments removed by undo. Recording a new segment empties the redo stack.
type History struct {
	segments []Segment
	redo     []Segment
}

// Push appends s and discards any redo entries.
func (h *History) Push(s Segment) {
	h.segments = append(h.segments, s)
	h.redo = h.redo[:0]
}

// Pop removes the newest segment and moves it onto the redo stack.
func (h *History) Pop() (Segment, bool) {
	n := len(h.segments)
	if n == 0 {
		return Segment{}, false
	}
	s := h.segments[n-1]
	h.segments = h.segments[:n-1]
	h.redo = append(h.redo, s)
	return s, true
}

// Unpop moves the most recently undone segment back into the history.
func (h *History) Unpop() (Segment, bool) {
	n := len(h.redo)
	if n == 0 {
		return Segment{}, false
	}
	s := h.redo[n-1]
	h.redo = h.redo[:n-1]
	h.segments = append(h.segments, s)
	return s, true
}

// DiscardRedo empties the redo stack.
func (h *History) DiscardRedo() {
	h.redo = h.redo[:0]
}

// Reset empties both the history and the redo stack.
func (h *History) Reset() {
	h.segments = h.segments[:0]
	h.redo = h.redo[:0]
}

// Len returns the number of committed segments.
func (h *History) Len() int { return len(h.segments) }

// RedoLen returns the number of undone segments available to redo.
func (h *History) RedoLen() int { return len(h.redo) }

// Segments returns a copy of the committed segments, oldest first.
func (h *History) Segments() []Segment {
	return append([]Segment(nil), h.segments...)
}

// RedoStack returns a copy of the redo stack, most recently undone last.
func (h *History) RedoStack() []Segment {
	return append([]Segment(nil), h.redo...)
}
