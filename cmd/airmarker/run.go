package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/airmarker/internal/app"
	"github.com/ayusman/airmarker/internal/capture"
	"github.com/ayusman/airmarker/internal/config"
	"github.com/ayusman/airmarker/internal/detector"
	"github.com/ayusman/airmarker/internal/gesture"
	"github.com/ayusman/airmarker/internal/plugin"
	"github.com/ayusman/airmarker/internal/server"
	"github.com/ayusman/airmarker/internal/store"
	"github.com/ayusman/airmarker/internal/toolbar"
	"github.com/ayusman/airmarker/internal/tray"
	"github.com/ayusman/airmarker/internal/voice"
)

const (
	windowName = "Air Marker"
	// transcribeGrace is added to the speech start timeout to leave room for
	// transcription once speech has been captured.
	transcribeGrace = 10 * time.Second
)

// runDrawing wires the configured collaborators and runs the frame loop
// until exit.
func runDrawing(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var hub *server.Hub
	if cfg.Server.Enabled {
		hub = server.NewHub()
		go serve(ctx, cfg.Server, st, hub)
	}

	var tr *tray.Tray
	if cfg.Tray.Enabled {
		tr = tray.New(8)
	}

	loop := func() error {
		// OpenCV windows must be driven from a single OS thread.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		a, err := app.New(newAppConfig(cfg, st, hub, tr, gocv.NewWindow(windowName)))
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Run(ctx)
	}

	if tr == nil {
		return loop()
	}

	// The tray owns the main thread; the frame loop runs beside it.
	errCh := make(chan error, 1)
	go func() {
		errCh <- loop()
		tr.Quit()
	}()
	tr.Run()
	return <-errCh
}

func newAppConfig(cfg config.Config, st *store.Store, hub *server.Hub, tr *tray.Tray, display app.Display) app.Config {
	layout := gesture.DefaultToolbar()
	layout.Height = cfg.Toolbar.Height

	ac := app.Config{
		Session: app.SessionConfig{
			Width:      cfg.Camera.Width,
			Height:     cfg.Camera.Height,
			Thickness:  cfg.Canvas.Thickness,
			Threshold:  cfg.Canvas.Threshold,
			SavePath:   cfg.Canvas.SavePath,
			UndoRepeat: cfg.Gesture.UndoRepeat,
			Toolbar:    layout,
		},
		Camera: capture.NewCamera(capture.Config{
			DeviceID: cfg.Camera.ID,
			Width:    cfg.Camera.Width,
			Height:   cfg.Camera.Height,
		}),
		Detector:      newDetector(cfg.Gesture),
		Headers:       toolbar.Load(cfg.Toolbar.Dir, cfg.Camera.Width, cfg.Toolbar.Height),
		Display:       display,
		ListenTimeout: cfg.Voice.Timeout + transcribeGrace,
		Feedback:      cfg.Voice.Feedback,
		Store:         st,
		Hub:           hub,
	}

	if svc, p := newSpeech(cfg.Voice); svc != nil {
		if p.Supports("listen") {
			ac.Recognizer = svc
		}
		if p.Supports("speak") {
			ac.Speaker = svc
		}
	}

	if tr != nil {
		ac.Commands = tr.Commands()
		ac.OnSwatch = func(sw gesture.Swatch) { tr.SetColor(sw.Name) }
	}
	return ac
}

// newDetector starts MediaPipe hand tracking. Without it the loop still
// runs, showing the camera and accepting voice and tray commands.
func newDetector(cfg config.GestureConfig) detector.Detector {
	dc := detector.DefaultConfig()
	dc.ScriptPath = cfg.Script
	if cfg.Confidence > 0 {
		dc.MinConfidence = cfg.Confidence
	}

	d, err := detector.NewMediaPipeDetector(dc)
	if err != nil {
		log.Warn().Err(err).
			Str("hint", "install scripts/requirements.txt and place scripts/hand_service.py next to the binary, or set gesture.script").
			Msg("hand tracking unavailable: gestures are disabled, no hand will ever be detected")
		return detector.NewMockDetector()
	}
	log.Info().Msg("using MediaPipe hand detection")
	return d
}

// newSpeech discovers the speech plugin. It returns nil when voice commands
// are unavailable.
func newSpeech(cfg config.VoiceConfig) (*voice.Service, *plugin.Plugin) {
	mgr := plugin.NewManager(cfg.PluginDir)
	if err := mgr.Discover(); err != nil {
		log.Warn().Err(err).Str("dir", cfg.PluginDir).Msg("plugin discovery failed, voice commands disabled")
		return nil, nil
	}

	log.Debug().Str("dir", mgr.PluginDir()).Int("plugins", len(mgr.List())).Msg("plugins discovered")

	p, err := mgr.Get(cfg.Plugin)
	if errors.Is(err, plugin.ErrPluginNotFound) {
		p, err = mgr.FindByAction("listen")
	}
	if err != nil {
		log.Warn().Err(err).Str("plugin", cfg.Plugin).Msg("speech plugin not found, voice commands disabled")
		return nil, nil
	}

	svc, err := voice.NewService(p, plugin.NewExecutor(cfg.Timeout+transcribeGrace), voice.ServiceConfig{
		Transcriber:   cfg.Transcriber,
		ListenTimeout: cfg.Timeout,
		Voice:         cfg.Voice,
	})
	if err != nil {
		log.Warn().Err(err).Msg("speech plugin unusable, voice commands disabled")
		return nil, nil
	}
	log.Info().Str("plugin", p.Manifest.Name).Msg("voice commands enabled")
	return svc, p
}

// serve runs the HTTP viewer until ctx is done. Viewer failures are logged;
// drawing continues without it.
func serve(ctx context.Context, cfg config.ServerConfig, st *store.Store, hub *server.Hub) {
	srv := server.New(server.Config{
		StaticDir: findWebDir(),
		Store:     st,
		Hub:       hub,
	})

	if cfg.MDNS {
		if port, err := addrPort(cfg.Addr); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Addr).Msg("cannot advertise viewer")
		} else if adv, err := server.Advertise(port); err != nil {
			log.Warn().Err(err).Msg("mDNS advertisement failed")
		} else {
			defer adv.Shutdown()
			log.Info().Int("port", port).Str("service", server.ServiceType).Msg("viewer advertised")
		}
	}

	if err := srv.ListenAndServe(ctx, cfg.Addr); err != nil {
		log.Error().Err(err).Msg("viewer stopped")
	}
}

func addrPort(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(p)
	if err != nil || port <= 0 {
		return 0, errors.New("no port in address")
	}
	return port, nil
}

// findWebDir searches for the viewer's static files in "web", "../web" and
// ~/.airmarker/web. It returns "" when none exists.
func findWebDir() string {
	for _, p := range []string{"web", "../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(home, ".airmarker", "web")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}
