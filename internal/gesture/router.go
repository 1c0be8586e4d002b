package gesture

import (
	"image"

	"github.com/ayusman/airmarker/internal/detector"
)

// Kind identifies what a frame's gesture means for the drawing session.
type Kind string

const (
	// KindIdle means nothing to do; any active stroke ends.
	KindIdle Kind = "idle"
	// KindSelect means index and middle fingers are up: choose from the toolbar.
	KindSelect Kind = "select"
	// KindDraw means only the index finger is up: extend the stroke.
	KindDraw Kind = "draw"
	// KindUndo means all five fingers are up.
	KindUndo Kind = "undo"
)

// Event is the Router's decision for one frame.
type Event struct {
	Kind Kind
	// Swatch is the toolbar region hit in select mode, or -1.
	Swatch int
	// Point is the index fingertip in pixels (zero when no hand).
	Point image.Point
	// Middle is the middle fingertip in pixels.
	Middle  image.Point
	Fingers Fingers
	// Hand is false when no landmarks were available.
	Hand bool
}

// Router maps finger states and fingertip positions to Events. It carries
// the edge state for the undo gesture, so one Router serves one session.
type Router struct {
	toolbar Toolbar
	// repeatUndo fires undo on every frame the gesture is held instead of
	// only when it starts.
	repeatUndo bool
	undoHeld   bool
}

// NewRouter creates a Router over the given toolbar.
func NewRouter(toolbar Toolbar, repeatUndo bool) *Router {
	return &Router{
		toolbar:    toolbar,
		repeatUndo: repeatUndo,
	}
}

// Toolbar returns the toolbar layout the router hit-tests against.
func (r *Router) Toolbar() Toolbar {
	return r.toolbar
}

// Route classifies the landmarks and decides the frame's Event.
func (r *Router) Route(lms []detector.Landmark) Event {
	fingers := Classify(lms)
	if len(lms) < detector.NumLandmarks {
		r.undoHeld = false
		return Event{Kind: KindIdle, Swatch: -1}
	}
	return r.Decide(fingers, lms[detector.IndexTip].Point(), lms[detector.MiddleTip].Point())
}

// Decide maps a finger vector and the index/middle fingertip positions to
// an Event. The all-five gesture takes precedence over selection.
func (r *Router) Decide(fingers Fingers, index, middle image.Point) Event {
	ev := Event{
		Kind:    KindIdle,
		Swatch:  -1,
		Point:   index,
		Middle:  middle,
		Fingers: fingers,
		Hand:    true,
	}

	if fingers.AllUp() {
		if !r.undoHeld || r.repeatUndo {
			ev.Kind = KindUndo
		}
		r.undoHeld = true
		return ev
	}
	r.undoHeld = false

	switch {
	case fingers[Index] && fingers[Middle]:
		ev.Kind = KindSelect
		ev.Swatch = r.toolbar.Hit(index)
	case fingers[Index] && !fingers[Middle]:
		ev.Kind = KindDraw
	}
	return ev
}
