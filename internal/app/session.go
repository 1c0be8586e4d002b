package app

import (
	"fmt"
	"image/color"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/airmarker/internal/canvas"
	"github.com/ayusman/airmarker/internal/capture"
	"github.com/ayusman/airmarker/internal/compositor"
	"github.com/ayusman/airmarker/internal/detector"
	"github.com/ayusman/airmarker/internal/gesture"
	"github.com/ayusman/airmarker/internal/toolbar"
	"github.com/ayusman/airmarker/internal/voice"
)

// CursorRadius is the radius of the fingertip marker drawn in draw mode.
const CursorRadius = 10

// SessionConfig holds the drawing parameters of a session.
type SessionConfig struct {
	Width      int
	Height     int
	Thickness  int
	Threshold  int
	SavePath   string
	UndoRepeat bool
	Toolbar    gesture.Toolbar
}

// DefaultSessionConfig returns the stock 1280x720 session.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Width:     canvas.DefaultWidth,
		Height:    canvas.DefaultHeight,
		Thickness: 15,
		Threshold: compositor.DefaultThreshold,
		SavePath:  "saved_drawing.png",
		Toolbar:   gesture.DefaultToolbar(),
	}
}

// DrawingSession is the state the frame loop threads through every frame:
// the canvas engine, the active color and header, and the gesture router.
// It is owned by one goroutine.
type DrawingSession struct {
	config   SessionConfig
	engine   *canvas.Engine
	router   *gesture.Router
	detector detector.Detector
	headers  *toolbar.Headers
	comp     *compositor.Compositor
	output   gocv.Mat

	color  color.RGBA
	swatch int
	// revision increases whenever the raster changes.
	revision uint64
}

// NewDrawingSession creates a session drawing with the first swatch. headers
// may be nil, in which case no header band is drawn. rasters is passed to
// the canvas engine; nil stores image files.
func NewDrawingSession(config SessionConfig, det detector.Detector, headers *toolbar.Headers, rasters canvas.RasterStore) *DrawingSession {
	def := DefaultSessionConfig()
	if config.Width <= 0 || config.Height <= 0 {
		config.Width, config.Height = def.Width, def.Height
	}
	if config.Thickness <= 0 {
		config.Thickness = def.Thickness
	}
	if config.SavePath == "" {
		config.SavePath = def.SavePath
	}
	if len(config.Toolbar.Swatches) == 0 {
		config.Toolbar = def.Toolbar
	}

	s := &DrawingSession{
		config:   config,
		engine:   canvas.NewEngine(config.Width, config.Height, rasters),
		router:   gesture.NewRouter(config.Toolbar, config.UndoRepeat),
		detector: det,
		headers:  headers,
		comp:     compositor.New(config.Threshold),
		output:   gocv.NewMat(),
	}
	s.Select(0)
	return s
}

// Step processes one camera frame in place: mirror, detect, route, apply
// the gesture, overlay the header and composite the canvas. The detector
// sees the camera image only; the header covers the toolbar band after
// routing so a fingertip over a swatch stays visible to it. The composited
// result is available from Output until the next Step.
func (s *DrawingSession) Step(frame *gocv.Mat) (gesture.Event, error) {
	capture.Mirror(frame)
	compositor.Fit(frame, s.config.Width, s.config.Height)

	ev := s.route(frame)
	s.apply(ev)

	if s.headers != nil {
		s.headers.Overlay(frame, s.swatch)
	}
	if ev.Kind == gesture.KindDraw {
		gocv.Circle(frame, ev.Point, CursorRadius, s.color, -1)
	}

	if err := s.comp.Composite(*frame, *s.engine.Raster(), &s.output); err != nil {
		return ev, fmt.Errorf("composite: %w", err)
	}
	return ev, nil
}

// route interprets the first detected hand. A detector failure counts as
// no hand for this frame.
func (s *DrawingSession) route(frame *gocv.Mat) gesture.Event {
	hands, err := s.detector.Detect(frame)
	if err != nil {
		log.Warn().Err(err).Msg("hand detection failed")
		hands = nil
	}

	var lms []detector.Landmark
	if len(hands) > 0 {
		lms = hands[0].Pixels(frame.Cols(), frame.Rows())
	}
	return s.router.Route(lms)
}

func (s *DrawingSession) apply(ev gesture.Event) {
	switch ev.Kind {
	case gesture.KindSelect:
		s.engine.EndStroke()
		s.engine.DiscardRedo()
		if ev.Swatch >= 0 && ev.Swatch != s.swatch {
			s.Select(ev.Swatch)
		}

	case gesture.KindDraw:
		if s.engine.BeginOrContinue(ev.Point, s.color, s.config.Thickness) {
			s.revision++
		}

	case gesture.KindUndo:
		s.engine.EndStroke()
		if s.engine.Undo() {
			s.revision++
			log.Debug().Int("segments", len(s.engine.History())).Msg("undo gesture")
		}

	default:
		s.engine.EndStroke()
	}
}

// Select makes toolbar swatch i the active color and header. It reports
// false for an unknown index.
func (s *DrawingSession) Select(i int) bool {
	sw, ok := s.config.Toolbar.Swatch(i)
	if !ok {
		return false
	}
	s.swatch = i
	s.color = sw.Color
	log.Debug().Int("swatch", i).Str("name", sw.Name).Msg("swatch selected")
	return true
}

// Execute applies a discrete command to the canvas. CommandExit and
// CommandNone do nothing here; ending the loop is the caller's job.
func (s *DrawingSession) Execute(cmd voice.Command) error {
	switch cmd {
	case voice.CommandClear:
		s.engine.Clear()
		s.revision++
	case voice.CommandUndo:
		s.engine.EndStroke()
		if s.engine.Undo() {
			s.revision++
		}
	case voice.CommandRedo:
		s.engine.EndStroke()
		if s.engine.Redo() {
			s.revision++
		}
	case voice.CommandSave:
		if err := s.engine.Save(s.config.SavePath); err != nil {
			return fmt.Errorf("save %s: %w", s.config.SavePath, err)
		}
	}
	return nil
}

// LoadSaved replaces the canvas with the previous save, if there is one.
func (s *DrawingSession) LoadSaved() (bool, error) {
	ok, err := s.engine.Load(s.config.SavePath)
	if ok {
		s.revision++
	}
	return ok, err
}

// Engine returns the canvas engine.
func (s *DrawingSession) Engine() *canvas.Engine {
	return s.engine
}

// Config returns the effective session configuration.
func (s *DrawingSession) Config() SessionConfig {
	return s.config
}

// Output returns the last composited frame. It must not be retained across Steps.
func (s *DrawingSession) Output() gocv.Mat {
	return s.output
}

// Color returns the active drawing color.
func (s *DrawingSession) Color() color.RGBA {
	return s.color
}

// Swatch returns the index of the active toolbar swatch.
func (s *DrawingSession) Swatch() int {
	return s.swatch
}

// Revision returns a counter that changes whenever the raster does.
func (s *DrawingSession) Revision() uint64 {
	return s.revision
}

// Close releases the raster, the compositor buffers and the header images.
func (s *DrawingSession) Close() {
	s.output.Close()
	s.comp.Close()
	s.engine.Close()
	if s.headers != nil {
		s.headers.Close()
	}
}
