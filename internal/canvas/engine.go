package canvas

import (
	"errors"
	"image"
	"image/color"
	"os"

	"gocv.io/x/gocv"
)

// Engine owns the canvas raster and the History it is drawn from.
//
// Outside of the window between Load and the next Undo, the raster is
// always exactly Rasterize(History). Engine is not safe for concurrent use;
// readers on other goroutines should work from Snapshot.
type Engine struct {
	width   int
	height  int
	raster  gocv.Mat
	history History
	store   RasterStore

	anchor  image.Point
	drawing bool
	// loaded is set while the raster holds pixels that History cannot
	// reproduce.
	loaded bool
}

// NewEngine creates a blank canvas of the given size. A nil store uses FileStore.
func NewEngine(width, height int, store RasterStore) *Engine {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if store == nil {
		store = FileStore{}
	}
	return &Engine{
		width:  width,
		height: height,
		raster: Blank(width, height),
		store:  store,
	}
}

// Size returns the canvas dimensions.
func (e *Engine) Size() (width, height int) {
	return e.width, e.height
}

// BeginOrContinue extends the current stroke to p and clears the redo
// stack. The first sample of a stroke only anchors the position; each later
// sample commits a segment from the anchor to p and draws it. It reports
// whether a segment was committed.
func (e *Engine) BeginOrContinue(p image.Point, c color.RGBA, thickness int) bool {
	if !e.drawing {
		e.history.DiscardRedo()
		e.anchor = p
		e.drawing = true
		return false
	}

	s := Segment{Start: e.anchor, End: p, Color: c, Thickness: thickness}
	e.history.Push(s)
	drawSegment(&e.raster, s)
	e.anchor = p
	return true
}

// EndStroke forgets the anchor so the next sample starts a new stroke.
func (e *Engine) EndStroke() {
	e.drawing = false
	e.anchor = image.Point{}
}

// Drawing reports whether a stroke is in progress.
func (e *Engine) Drawing() bool {
	return e.drawing
}

// Anchor returns the last sampled point of the current stroke.
func (e *Engine) Anchor() (image.Point, bool) {
	return e.anchor, e.drawing
}

// Undo removes the newest segment and rebuilds the raster from the
// remaining History. It returns false when History is empty.
func (e *Engine) Undo() bool {
	if _, ok := e.history.Pop(); !ok {
		return false
	}
	e.replay()
	return true
}

// Redo restores the most recently undone segment. It returns false when
// there is nothing to redo.
func (e *Engine) Redo() bool {
	s, ok := e.history.Unpop()
	if !ok {
		return false
	}
	drawSegment(&e.raster, s)
	return true
}

// DiscardRedo drops the redo stack without touching the raster.
func (e *Engine) DiscardRedo() {
	e.history.DiscardRedo()
}

// Clear blanks the raster and empties History and the redo stack.
func (e *Engine) Clear() {
	e.history.Reset()
	e.EndStroke()
	e.swap(Blank(e.width, e.height))
	e.loaded = false
}

// Save writes the raster to path, replacing any earlier save.
func (e *Engine) Save(path string) error {
	return e.store.Write(path, e.raster)
}

// Load replaces the raster with the image stored at path, resized to the
// canvas when needed. History is not reconstructed. A missing file is not
// an error: Load returns false and the canvas stays as it was.
func (e *Engine) Load(path string) (bool, error) {
	m, err := e.store.Read(path)
	if err != nil {
		m.Close()
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer m.Close()

	e.history.Reset()
	e.EndStroke()
	e.swap(fit(m, e.width, e.height))
	e.loaded = true
	return true, nil
}

// Loaded reports whether the raster holds loaded pixels that History does
// not describe.
func (e *Engine) Loaded() bool {
	return e.loaded
}

// Raster returns the live raster. It must not be modified or retained.
func (e *Engine) Raster() *gocv.Mat {
	return &e.raster
}

// Snapshot returns a copy of the raster owned by the caller.
func (e *Engine) Snapshot() gocv.Mat {
	return e.raster.Clone()
}

// History returns a copy of the committed segments, oldest first.
func (e *Engine) History() []Segment {
	return e.history.Segments()
}

// RedoStack returns a copy of the undone segments, most recent last.
func (e *Engine) RedoStack() []Segment {
	return e.history.RedoStack()
}

// Close releases the raster.
func (e *Engine) Close() error {
	return e.raster.Close()
}

// replay rebuilds the raster from History. The new raster is fully drawn
// before it replaces the old one.
func (e *Engine) replay() {
	e.swap(Rasterize(e.width, e.height, e.history.segments))
	e.loaded = false
}

func (e *Engine) swap(m gocv.Mat) {
	old := e.raster
	e.raster = m
	old.Close()
}
