package server

import (
	"context"
	"sync"
)

// Event is a routed gesture event as sent to /api/events clients.
type Event struct {
	Kind      string `json:"kind"`
	Swatch    int    `json:"swatch"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Fingers   string `json:"fingers"`
	Timestamp int64  `json:"timestamp"`
}

// Hub holds the latest snapshots published by the frame loop. Handlers only
// read from it; the loop is the single writer.
type Hub struct {
	mu       sync.Mutex
	frame    []byte
	frameSeq uint64
	canvas   []byte
	changed  chan struct{}
	viewers  int

	subs map[chan Event]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		changed: make(chan struct{}),
		subs:    make(map[chan Event]struct{}),
	}
}

// PublishFrame stores the latest composited frame as JPEG bytes and wakes
// stream clients. The Hub keeps jpeg; callers must not modify it afterwards.
func (h *Hub) PublishFrame(jpeg []byte) {
	h.mu.Lock()
	h.frame = jpeg
	h.frameSeq++
	close(h.changed)
	h.changed = make(chan struct{})
	h.mu.Unlock()
}

// Frame returns the latest frame and its sequence number.
func (h *Hub) Frame() ([]byte, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame, h.frameSeq
}

// NextFrame blocks until a frame newer than seq is published or ctx is done.
func (h *Hub) NextFrame(ctx context.Context, seq uint64) ([]byte, uint64, error) {
	for {
		h.mu.Lock()
		if h.frameSeq > seq {
			frame, n := h.frame, h.frameSeq
			h.mu.Unlock()
			return frame, n, nil
		}
		changed := h.changed
		h.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return nil, seq, ctx.Err()
		}
	}
}

// Viewers returns the number of connected stream clients. The frame loop
// skips JPEG encoding while it is zero.
func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewers
}

func (h *Hub) addViewer(delta int) {
	h.mu.Lock()
	h.viewers += delta
	h.mu.Unlock()
}

// PublishCanvas stores the latest canvas raster as PNG bytes.
func (h *Hub) PublishCanvas(png []byte) {
	h.mu.Lock()
	h.canvas = png
	h.mu.Unlock()
}

// Canvas returns the latest canvas PNG, or nil before the first publish.
func (h *Hub) Canvas() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.canvas
}

// Subscribe registers an event listener. Slow subscribers miss events
// rather than stall the frame loop.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, 32)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Subscribers returns the number of event listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// PublishEvent fans e out to all subscribers without blocking.
func (h *Hub) PublishEvent(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
