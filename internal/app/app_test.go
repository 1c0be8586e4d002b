package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/airmarker/internal/capture"
	"github.com/ayusman/airmarker/internal/detector"
	"github.com/ayusman/airmarker/internal/gesture"
	"github.com/ayusman/airmarker/internal/server"
	"github.com/ayusman/airmarker/internal/store"
	"github.com/ayusman/airmarker/internal/voice"
)

type failingCamera struct{}

func (failingCamera) Open() error                   { return capture.ErrCameraNotOpen }
func (failingCamera) Close() error                  { return nil }
func (failingCamera) ReadFrame() (*gocv.Mat, error) { return nil, capture.ErrCameraNotOpen }
func (failingCamera) IsOpen() bool                  { return false }

type recordingSpeaker struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (s *recordingSpeaker) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return s.err
}

func (s *recordingSpeaker) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

type fixedRecognizer struct {
	phrase string
	err    error
}

func (r fixedRecognizer) Listen(ctx context.Context) (string, error) {
	return r.phrase, r.err
}

// scriptedDisplay returns one queued key per WaitKey call, then -1.
type scriptedDisplay struct {
	mu     sync.Mutex
	keys   []int
	shown  int
	closed bool
}

func (d *scriptedDisplay) IMShow(img gocv.Mat) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown++
}

func (d *scriptedDisplay) WaitKey(delay int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.keys) == 0 {
		return -1
	}
	k := d.keys[0]
	d.keys = d.keys[1:]
	return k
}

func (d *scriptedDisplay) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "airmarker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// cameraFrames returns a non-looping mock camera with n black frames.
func cameraFrames(t *testing.T, n int) *capture.MockCamera {
	t.Helper()
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		frames[i] = blankFrame(t)
	}
	return capture.NewMockCamera(frames, false)
}

func newTestApp(t *testing.T, cfg Config, seq ...[]detector.HandLandmarks) (*App, *countingRasters) {
	t.Helper()
	if cfg.Camera == nil {
		cfg.Camera = cameraFrames(t, len(seq))
	}
	if cfg.Detector == nil {
		det := detector.NewMockDetector()
		det.SetSequence(seq)
		cfg.Detector = det
	}
	rasters := &countingRasters{}
	if cfg.Rasters == nil {
		cfg.Rasters = rasters
	}
	if cfg.Session.SavePath == "" {
		cfg.Session = DefaultSessionConfig()
	}

	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, rasters
}

// ticks runs n loop iterations without going through Run.
func ticks(t *testing.T, a *App, n int) {
	t.Helper()
	if !a.config.Camera.IsOpen() {
		require.NoError(t, a.config.Camera.Open())
	}
	for i := 0; i < n; i++ {
		stop, err := a.tick()
		require.NoError(t, err)
		require.False(t, stop)
	}
}

func TestNew_RequiresCameraAndDetector(t *testing.T) {
	_, err := New(Config{Detector: detector.NewMockDetector()})
	assert.ErrorIs(t, err, ErrMissingCamera)

	_, err = New(Config{Camera: capture.NewMockCamera(nil, false)})
	assert.Error(t, err)
}

func TestApp_RunCameraUnavailable(t *testing.T) {
	skipShort(t)

	a, _ := newTestApp(t, Config{Camera: failingCamera{}})
	err := a.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, capture.ErrCameraNotOpen)
}

func TestApp_RunDrawsUntilFramesEnd(t *testing.T) {
	skipShort(t)

	display := &scriptedDisplay{}
	a, _ := newTestApp(t, Config{Display: display},
		pointingAt(600, 300), pointingAt(650, 300), pointingAt(700, 320), fist(),
	)

	require.NoError(t, a.Run(context.Background()))
	assert.Len(t, a.Session().Engine().History(), 2)
	assert.Equal(t, 4, display.shown)
}

func TestApp_RunStopsOnEscape(t *testing.T) {
	skipShort(t)

	display := &scriptedDisplay{keys: []int{-1, KeyEscape}}
	a, _ := newTestApp(t, Config{Camera: capture.NewMockCamera([]*gocv.Mat{blankFrame(t)}, true), Display: display})

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, 2, display.shown)
}

func TestApp_RunStopsOnContextCancel(t *testing.T) {
	skipShort(t)

	cam := capture.NewMockCamera([]*gocv.Mat{blankFrame(t)}, true)
	a, _ := newTestApp(t, Config{Camera: cam})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return cam.Reads() > 3 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, cam.IsOpen())
}

func TestApp_SaveDrawingVoiceCommand(t *testing.T) {
	skipShort(t)

	st := newTestStore(t)
	speaker := &recordingSpeaker{}
	a, rasters := newTestApp(t, Config{Store: st, Speaker: speaker, Feedback: true},
		pointingAt(600, 300), pointingAt(650, 300), pointingAt(700, 320),
	)
	ticks(t, a, 3)
	before := a.Session().Engine().History()

	stop := a.handleResult(voice.Result{Phrase: "save drawing"})
	assert.False(t, stop)

	assert.Equal(t, []string{"saved_drawing.png"}, rasters.Writes(), "raster persisted exactly once")
	assert.Equal(t, before, a.Session().Engine().History())

	sv, err := st.Saves().Latest()
	require.NoError(t, err)
	assert.Equal(t, 2, sv.Segments)
	assert.Equal(t, "saved_drawing.png", sv.Path)

	segs, err := st.Saves().Segments(sv.ID)
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, before[0].Start, segs[0].Start)
	assert.Equal(t, before[1].End, segs[1].End)

	require.Eventually(t, func() bool { return len(speaker.Texts()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Command executed: save drawing", speaker.Texts()[0])
}

func TestApp_UnrecognizedPhrase(t *testing.T) {
	skipShort(t)

	st := newTestStore(t)
	speaker := &recordingSpeaker{}
	a, rasters := newTestApp(t, Config{Store: st, Speaker: speaker, Feedback: true},
		pointingAt(600, 300), pointingAt(650, 300),
	)
	ticks(t, a, 2)
	history := a.Session().Engine().History()
	rev := a.Session().Revision()

	assert.False(t, a.handleResult(voice.Result{Phrase: "foo bar"}))

	assert.Equal(t, history, a.Session().Engine().History())
	assert.Empty(t, a.Session().Engine().RedoStack())
	assert.Equal(t, rev, a.Session().Revision())
	assert.Empty(t, rasters.Writes())

	entries, err := st.Commands().Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "foo bar", entries[0].Phrase)
	assert.False(t, entries[0].Matched)

	a.Close()
	assert.Empty(t, speaker.Texts())
}

func TestApp_VoiceCommands(t *testing.T) {
	skipShort(t)

	st := newTestStore(t)
	a, _ := newTestApp(t, Config{Store: st},
		pointingAt(600, 300), pointingAt(650, 300), pointingAt(700, 300),
	)
	ticks(t, a, 3)

	assert.False(t, a.handleResult(voice.Result{Phrase: "undo"}))
	assert.Len(t, a.Session().Engine().History(), 1)

	assert.False(t, a.handleResult(voice.Result{Phrase: "clear canvas"}))
	assert.Empty(t, a.Session().Engine().History())
	assert.Empty(t, a.Session().Engine().RedoStack())

	assert.True(t, a.handleResult(voice.Result{Phrase: "exit"}))

	entries, err := st.Commands().Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "exit", entries[0].Command)
	assert.True(t, entries[0].Matched)
}

func TestApp_SensingFailuresAreIgnored(t *testing.T) {
	skipShort(t)

	st := newTestStore(t)
	a, _ := newTestApp(t, Config{Store: st})

	for _, err := range []error{voice.ErrNotUnderstood, voice.ErrServiceUnavailable, voice.ErrListenTimeout} {
		assert.False(t, a.handleResult(voice.Result{Err: err}))
	}

	entries, err := st.Commands().Recent(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestApp_FeedbackFailureIsNotFatal(t *testing.T) {
	skipShort(t)

	speaker := &recordingSpeaker{err: errors.New("no audio device")}
	a, _ := newTestApp(t, Config{Speaker: speaker, Feedback: true})

	assert.False(t, a.handleResult(voice.Result{Phrase: "undo"}))
	a.Close()
	assert.Equal(t, []string{"Command executed: undo"}, speaker.Texts())
}

func TestApp_VoiceKeyTriggersListener(t *testing.T) {
	skipShort(t)

	a, _ := newTestApp(t, Config{Recognizer: fixedRecognizer{phrase: "  Undo "}},
		pointingAt(600, 300), pointingAt(650, 300),
	)
	ticks(t, a, 2)
	require.Len(t, a.Session().Engine().History(), 1)

	assert.False(t, a.handleKey(KeyVoice))
	require.Eventually(t, func() bool {
		a.pollVoice()
		return len(a.Session().Engine().History()) == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, a.Session().Engine().RedoStack(), 1)
}

func TestApp_Keys(t *testing.T) {
	skipShort(t)

	a, _ := newTestApp(t, Config{}, pointingAt(600, 300), pointingAt(650, 300))
	ticks(t, a, 2)
	require.NoError(t, a.Session().Execute(voice.CommandUndo))

	assert.False(t, a.handleKey(KeyRedo))
	assert.Len(t, a.Session().Engine().History(), 1)

	assert.False(t, a.handleKey(-1))
	assert.False(t, a.handleKey(KeyVoice), "voice key without a recognizer is ignored")
	assert.True(t, a.handleKey(KeyEscape))
}

func TestApp_DrainCommands(t *testing.T) {
	skipShort(t)

	commands := make(chan voice.Command, 4)
	a, _ := newTestApp(t, Config{Commands: commands},
		pointingAt(600, 300), pointingAt(650, 300), pointingAt(700, 300),
	)
	ticks(t, a, 3)

	commands <- voice.CommandUndo
	commands <- voice.CommandUndo
	commands <- voice.CommandRedo
	assert.False(t, a.drainCommands())
	assert.Len(t, a.Session().Engine().History(), 1)

	commands <- voice.CommandExit
	commands <- voice.CommandClear
	assert.True(t, a.drainCommands())
	assert.Len(t, a.Session().Engine().History(), 1, "commands after exit are not applied")

	close(commands)
	assert.False(t, a.drainCommands())
}

func TestApp_SwatchPersistsAcrossRuns(t *testing.T) {
	skipShort(t)

	st := newTestStore(t)
	var selected []string
	a, _ := newTestApp(t, Config{
		Store:    st,
		OnSwatch: func(sw gesture.Swatch) { selected = append(selected, sw.Name) },
	}, selectingAt(510, 60))
	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, []string{"green"}, selected)

	value, err := st.Settings().Get(store.SettingSwatch)
	require.NoError(t, err)
	assert.Equal(t, "1", value)

	b, _ := newTestApp(t, Config{Store: st}, fist())
	require.NoError(t, b.Run(context.Background()))
	assert.Equal(t, 1, b.Session().Swatch())
}

func TestApp_PublishesToHub(t *testing.T) {
	skipShort(t)

	hub := server.NewHub()
	events := hub.Subscribe()
	a, _ := newTestApp(t, Config{Hub: hub}, pointingAt(600, 300), fist())

	require.NoError(t, a.Run(context.Background()))

	require.NotEmpty(t, hub.Canvas(), "canvas published on first frame")
	select {
	case ev := <-events:
		assert.Equal(t, "draw", ev.Kind)
		assert.Equal(t, 600, ev.X)
		assert.Equal(t, 300, ev.Y)
	default:
		t.Fatal("expected a draw event")
	}
	select {
	case ev := <-events:
		t.Fatalf("idle frames are not published, got %+v", ev)
	default:
	}

	_, seq := hub.Frame()
	assert.Zero(t, seq, "frames are not encoded without stream viewers")
}

func TestApp_RestoresPreviousDrawing(t *testing.T) {
	skipShort(t)

	dir := t.TempDir()
	cfg := DefaultSessionConfig()
	cfg.SavePath = filepath.Join(dir, "saved_drawing.png")

	first, err := New(Config{
		Session:  cfg,
		Camera:   cameraFrames(t, 2),
		Detector: sequenceDetector(pointingAt(400, 400), pointingAt(600, 400)),
	})
	require.NoError(t, err)
	require.NoError(t, first.Run(context.Background()))
	require.NoError(t, first.Session().Execute(voice.CommandSave))
	first.Close()

	second, err := New(Config{
		Session:  cfg,
		Camera:   cameraFrames(t, 1),
		Detector: sequenceDetector(fist()),
	})
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.Run(context.Background()))

	assert.True(t, second.Session().Engine().Loaded())
	assert.Empty(t, second.Session().Engine().History(), "loaded drawings carry no history")
	assert.NotZero(t, gocv.CountNonZero(grayOf(t, *second.Session().Engine().Raster())))
}

func sequenceDetector(seq ...[]detector.HandLandmarks) *detector.MockDetector {
	det := detector.NewMockDetector()
	det.SetSequence(seq)
	return det
}
