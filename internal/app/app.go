// Package app runs the AirMarker frame loop: camera frames in, gestures and
// voice commands applied to the drawing session, composited frames out.
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/airmarker/internal/canvas"
	"github.com/ayusman/airmarker/internal/capture"
	"github.com/ayusman/airmarker/internal/detector"
	"github.com/ayusman/airmarker/internal/gesture"
	"github.com/ayusman/airmarker/internal/server"
	"github.com/ayusman/airmarker/internal/store"
	"github.com/ayusman/airmarker/internal/toolbar"
	"github.com/ayusman/airmarker/internal/voice"
)

// Keyboard surface.
const (
	KeyVoice  = 'v'
	KeyRedo   = 'r'
	KeyEscape = 27
)

const (
	// canvasInterval throttles canvas PNG publishing to the viewer.
	canvasInterval = 500 * time.Millisecond
	// speakTimeout bounds one feedback utterance.
	speakTimeout = 10 * time.Second
)

// ErrMissingCamera is returned by New when no frame source is configured.
var ErrMissingCamera = errors.New("no camera configured")

// Display shows composited frames and reports key presses. *gocv.Window
// satisfies it.
type Display interface {
	IMShow(img gocv.Mat)
	// WaitKey returns the pressed key code, or -1.
	WaitKey(delay int) int
	Close() error
}

// Config holds the collaborators of the App. Camera and Detector are
// required; every other field is optional.
type Config struct {
	Session  SessionConfig
	Camera   capture.Camera
	Detector detector.Detector
	Headers  *toolbar.Headers
	Rasters  canvas.RasterStore
	Display  Display

	Recognizer    voice.Recognizer
	Speaker       voice.Speaker
	ListenTimeout time.Duration
	Feedback      bool

	Store *store.Store
	Hub   *server.Hub
	// Commands carries commands from other surfaces such as the tray menu.
	Commands <-chan voice.Command
	// OnSwatch is called after the active swatch changes.
	OnSwatch func(gesture.Swatch)
}

// App drives a DrawingSession from the camera until exit.
type App struct {
	config   Config
	session  *DrawingSession
	listener *voice.Listener

	ctx      context.Context
	cancel   context.CancelFunc
	speaking sync.WaitGroup

	swatch    int
	canvasRev uint64
	canvasAt  time.Time
	closeOnce sync.Once
}

// New creates an App. The session is built immediately; the camera is not
// opened until Run.
func New(config Config) (*App, error) {
	if config.Camera == nil {
		return nil, ErrMissingCamera
	}
	if config.Detector == nil {
		return nil, errors.New("no hand detector configured")
	}
	if config.ListenTimeout <= 0 {
		config.ListenTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		config:  config,
		session: NewDrawingSession(config.Session, config.Detector, config.Headers, config.Rasters),
		ctx:     ctx,
		cancel:  cancel,
	}
	if config.Recognizer != nil {
		a.listener = voice.NewListener(config.Recognizer, config.ListenTimeout)
	}
	a.swatch = a.session.Swatch()
	return a, nil
}

// Session returns the drawing session.
func (a *App) Session() *DrawingSession {
	return a.session
}

// Run opens the camera and processes frames until an exit command, ESC,
// the end of a finite frame source, or ctx cancellation. A camera that
// cannot be opened is a fatal error.
func (a *App) Run(ctx context.Context) error {
	if err := a.config.Camera.Open(); err != nil {
		return fmt.Errorf("camera unavailable: %w", err)
	}
	defer func() {
		if err := a.config.Camera.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing camera")
		}
	}()

	a.restore()
	defer a.persistSettings()

	log.Info().Msg("drawing loop started")
	defer log.Info().Msg("drawing loop stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}

		stop, err := a.tick()
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// tick processes one frame and the inputs that arrived with it. It reports
// whether the loop should stop.
func (a *App) tick() (bool, error) {
	frame, err := a.config.Camera.ReadFrame()
	if err != nil {
		switch {
		case errors.Is(err, capture.ErrNoMoreFrames):
			return true, nil
		case errors.Is(err, capture.ErrCameraNotOpen):
			return true, err
		}
		log.Warn().Err(err).Msg("frame read failed")
		return false, nil
	}

	ev, err := a.session.Step(frame)
	frame.Close()
	if err != nil {
		log.Warn().Err(err).Msg("frame step failed")
		return false, nil
	}
	log.Debug().Str("kind", string(ev.Kind)).Str("fingers", ev.Fingers.String()).Msg("frame routed")

	a.notifySwatch()
	a.publish(ev)

	if d := a.config.Display; d != nil {
		d.IMShow(a.session.Output())
		if a.handleKey(d.WaitKey(1)) {
			return true, nil
		}
	}

	if a.pollVoice() {
		return true, nil
	}
	return a.drainCommands(), nil
}

// handleKey applies a key press and reports whether it requests exit.
func (a *App) handleKey(key int) bool {
	switch key {
	case KeyEscape:
		log.Info().Msg("escape pressed")
		return true
	case KeyVoice, 'V':
		if a.listener == nil {
			log.Warn().Msg("voice commands are not configured")
			return false
		}
		if err := a.listener.Trigger(); err != nil {
			log.Debug().Err(err).Msg("voice listen not started")
		}
	case KeyRedo, 'R':
		return a.execute(voice.CommandRedo)
	}
	return false
}

// pollVoice applies a finished listen, if any.
func (a *App) pollVoice() bool {
	if a.listener == nil {
		return false
	}
	r, ok := a.listener.Poll()
	if !ok {
		return false
	}
	return a.handleResult(r)
}

// handleResult executes the command named by a listen result. Sensing
// failures and unknown phrases are logged and otherwise ignored.
func (a *App) handleResult(r voice.Result) bool {
	if r.Err != nil {
		log.Warn().Err(r.Err).Msg("no voice command")
		return false
	}

	cmd, ok := voice.ParseCommand(r.Phrase)
	a.recordCommand(r.Phrase, cmd, ok)
	if !ok {
		log.Info().Str("phrase", r.Phrase).Msg("unrecognized phrase ignored")
		return false
	}

	if cmd == voice.CommandExit {
		log.Info().Str("phrase", r.Phrase).Msg("exit requested by voice")
		return true
	}
	stop := a.execute(cmd)
	a.speak(voice.Feedback(r.Phrase))
	return stop
}

// drainCommands executes every queued command from other surfaces.
func (a *App) drainCommands() bool {
	for {
		select {
		case cmd, ok := <-a.config.Commands:
			if !ok {
				a.config.Commands = nil
				return false
			}
			if a.execute(cmd) {
				return true
			}
		default:
			return false
		}
	}
}

// execute runs cmd against the session and reports whether it is exit.
func (a *App) execute(cmd voice.Command) bool {
	if cmd == voice.CommandExit {
		log.Info().Msg("exit requested")
		return true
	}

	if err := a.session.Execute(cmd); err != nil {
		log.Error().Err(err).Str("command", cmd.String()).Msg("command failed")
		return false
	}
	if cmd == voice.CommandSave {
		a.journal()
	}

	log.Info().Str("command", cmd.String()).Int("segments", len(a.session.Engine().History())).Msg("command executed")
	return false
}

// journal records the save and the History behind it so it can be
// exported later.
func (a *App) journal() {
	if a.config.Store == nil {
		return
	}

	cfg := a.session.Config()
	sv := &store.Save{Path: cfg.SavePath, Width: cfg.Width, Height: cfg.Height}
	if err := a.config.Store.Saves().Create(sv, journalSegments(a.session.Engine().History())); err != nil {
		log.Error().Err(err).Msg("failed to journal save")
		return
	}
	log.Info().Str("id", sv.ID).Int("segments", sv.Segments).Msg("save journaled")
}

func journalSegments(segs []canvas.Segment) []store.Segment {
	out := make([]store.Segment, len(segs))
	for i, s := range segs {
		out[i] = store.Segment{Start: s.Start, End: s.End, Color: s.Color, Thickness: s.Thickness}
	}
	return out
}

func (a *App) recordCommand(phrase string, cmd voice.Command, matched bool) {
	if a.config.Store == nil {
		return
	}
	entry := &store.CommandEntry{Phrase: phrase, Matched: matched}
	if matched {
		entry.Command = cmd.String()
	}
	if err := a.config.Store.Commands().Record(entry); err != nil {
		log.Error().Err(err).Msg("failed to record voice command")
	}
}

// speak plays feedback in the background; failures are only logged.
func (a *App) speak(text string) {
	if !a.config.Feedback || a.config.Speaker == nil {
		return
	}

	a.speaking.Add(1)
	go func() {
		defer a.speaking.Done()
		ctx, cancel := context.WithTimeout(a.ctx, speakTimeout)
		defer cancel()
		if err := a.config.Speaker.Speak(ctx, text); err != nil {
			log.Warn().Err(err).Msg("voice feedback failed")
		}
	}()
}

func (a *App) notifySwatch() {
	i := a.session.Swatch()
	if i == a.swatch {
		return
	}
	a.swatch = i
	if a.config.OnSwatch == nil {
		return
	}
	if sw, ok := a.session.Config().Toolbar.Swatch(i); ok {
		a.config.OnSwatch(sw)
	}
}

// publish hands snapshots of this frame to the viewer hub.
func (a *App) publish(ev gesture.Event) {
	hub := a.config.Hub
	if hub == nil {
		return
	}

	if ev.Kind != gesture.KindIdle {
		hub.PublishEvent(server.Event{
			Kind:      string(ev.Kind),
			Swatch:    a.session.Swatch(),
			X:         ev.Point.X,
			Y:         ev.Point.Y,
			Fingers:   ev.Fingers.String(),
			Timestamp: time.Now().UnixMilli(),
		})
	}

	if hub.Viewers() > 0 {
		jpeg, err := canvas.EncodeJPEG(a.session.Output())
		if err != nil {
			log.Warn().Err(err).Msg("frame encode failed")
		} else {
			hub.PublishFrame(jpeg)
		}
	}

	rev := a.session.Revision()
	if !a.canvasAt.IsZero() && (rev == a.canvasRev || time.Since(a.canvasAt) < canvasInterval) {
		return
	}
	png, err := canvas.EncodePNG(*a.session.Engine().Raster())
	if err != nil {
		log.Warn().Err(err).Msg("canvas encode failed")
		return
	}
	hub.PublishCanvas(png)
	a.canvasRev = rev
	a.canvasAt = time.Now()
}

// restore loads the previous drawing and the last active swatch.
func (a *App) restore() {
	loaded, err := a.session.LoadSaved()
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("could not load previous drawing, starting blank")
	case loaded:
		log.Info().Str("path", a.session.Config().SavePath).Msg("previous drawing loaded")
	}

	if a.config.Store == nil {
		return
	}
	value, err := a.config.Store.Settings().Get(store.SettingSwatch)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Msg("could not read saved swatch")
		}
		return
	}
	i, err := strconv.Atoi(value)
	if err != nil || !a.session.Select(i) {
		log.Warn().Str("value", value).Msg("ignoring invalid saved swatch")
		return
	}
	a.notifySwatch()
}

func (a *App) persistSettings() {
	if a.config.Store == nil {
		return
	}
	if err := a.config.Store.Settings().Set(store.SettingSwatch, strconv.Itoa(a.session.Swatch())); err != nil {
		log.Error().Err(err).Msg("failed to save swatch")
	}
}

// Close abandons any in-flight listen, waits for feedback playback and
// releases the session, detector and display.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.listener != nil {
			a.listener.Close()
		}
		a.cancel()
		a.speaking.Wait()

		a.session.Close()
		if err := a.config.Detector.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing detector")
		}
		if a.config.Display != nil {
			if err := a.config.Display.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing display")
			}
		}
	})
}
