package voice

import (
	"context"
	"errors"
)

var (
	// ErrNotUnderstood means audio was captured but no words were recognized.
	ErrNotUnderstood = errors.New("speech not understood")
	// ErrServiceUnavailable means the recognition backend could not be reached.
	ErrServiceUnavailable = errors.New("speech service unavailable")
	// ErrListenTimeout means no speech started before the listen timeout.
	ErrListenTimeout = errors.New("listen timed out")
	// ErrBusy is returned by Listener.Trigger while a listen is in flight.
	ErrBusy = errors.New("listener busy")
)

// Recognizer blocks until one phrase has been transcribed, the context is
// done, or recognition fails.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

// Speaker synthesizes text to audio.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Feedback returns the spoken confirmation for an executed phrase.
func Feedback(phrase string) string {
	return "Command executed: " + phrase
}
