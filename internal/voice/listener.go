package voice

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Result is the outcome of one listen cycle. Phrase is normalized.
type Result struct {
	Phrase string
	Err    error
}

// Listener runs one recognition at a time off the frame loop and delivers
// each result on a single-slot channel. The loop polls Results without
// blocking and applies the command on its next iteration.
type Listener struct {
	recognizer Recognizer
	timeout    time.Duration
	results    chan Result
	busy       atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewListener creates a Listener whose listens are bounded by timeout.
func NewListener(recognizer Recognizer, timeout time.Duration) *Listener {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener{
		recognizer: recognizer,
		timeout:    timeout,
		results:    make(chan Result, 1),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Trigger starts a listen cycle and returns immediately. It returns ErrBusy
// if a cycle is already running or its result has not been consumed.
func (l *Listener) Trigger() error {
	if !l.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	if l.ctx.Err() != nil {
		l.busy.Store(false)
		return l.ctx.Err()
	}

	l.wg.Add(1)
	go l.listen()
	return nil
}

func (l *Listener) listen() {
	defer l.wg.Done()

	ctx, cancel := context.WithTimeout(l.ctx, l.timeout)
	defer cancel()

	log.Info().Msg("listening for voice command")
	phrase, err := l.recognizer.Listen(ctx)
	if err == nil {
		phrase = Normalize(phrase)
	}
	if l.ctx.Err() != nil {
		// Closed mid-listen; the result is abandoned.
		l.busy.Store(false)
		return
	}

	l.results <- Result{Phrase: phrase, Err: err}
}

// Poll returns a completed result if one is waiting.
func (l *Listener) Poll() (Result, bool) {
	select {
	case r := <-l.results:
		l.busy.Store(false)
		return r, true
	default:
		return Result{}, false
	}
}

// Busy reports whether a listen is running or its result is pending.
func (l *Listener) Busy() bool {
	return l.busy.Load()
}

// Close abandons any in-flight listen and waits for it to return.
func (l *Listener) Close() {
	l.cancel()
	l.wg.Wait()
}
