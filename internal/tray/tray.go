// Package tray provides a system tray menu that issues drawing commands.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/airmarker/internal/voice"
)

// Tray represents the system tray application. Menu clicks are queued on
// the commands channel and applied by the frame loop.
type Tray struct {
	commands chan voice.Command
	onQuit   func()
	mu       sync.RWMutex

	menuColor *systray.MenuItem
	color     string
}

// New creates a Tray whose command queue holds up to size pending clicks.
func New(size int) *Tray {
	if size <= 0 {
		size = 8
	}
	return &Tray{
		commands: make(chan voice.Command, size),
		color:    "none",
	}
}

// Commands returns the queue of menu commands.
func (t *Tray) Commands() <-chan voice.Command {
	return t.commands
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("AirMarker")
	systray.SetTooltip("AirMarker gesture drawing")

	t.mu.Lock()
	t.menuColor = systray.AddMenuItem("Color: "+t.color, "Active swatch")
	t.menuColor.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	items := []struct {
		item *systray.MenuItem
		cmd  voice.Command
	}{
		{systray.AddMenuItem("Clear", "Clear the canvas"), voice.CommandClear},
		{systray.AddMenuItem("Undo", "Undo the last segment"), voice.CommandUndo},
		{systray.AddMenuItem("Redo", "Redo the last undone segment"), voice.CommandRedo},
		{systray.AddMenuItem("Save", "Save the drawing"), voice.CommandSave},
	}
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit AirMarker")

	for _, it := range items {
		go func(item *systray.MenuItem, cmd voice.Command) {
			for range item.ClickedCh {
				t.dispatch(cmd)
			}
		}(it.item, it.cmd)
	}

	go func() {
		<-menuQuit.ClickedCh
		t.handleQuit()
	}()
}

// dispatch queues cmd without blocking; clicks beyond the queue size are dropped.
func (t *Tray) dispatch(cmd voice.Command) bool {
	select {
	case t.commands <- cmd:
		return true
	default:
		log.Warn().Stringer("command", cmd).Msg("tray command queue full, dropping click")
		return false
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	t.dispatch(voice.CommandExit)
	if callback != nil {
		callback()
	}
}

// SetColor updates the active swatch display in the menu.
func (t *Tray) SetColor(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if name == "" {
		name = "none"
	}
	t.color = name
	if t.menuColor != nil {
		t.menuColor.SetTitle("Color: " + name)
	}
}

// Color returns the last displayed swatch name.
func (t *Tray) Color() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.color
}
