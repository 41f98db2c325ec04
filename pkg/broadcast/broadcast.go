package broadcast

import (
	"context"
	"sync"
)

// Hub fans messages of type T out to any number of subscribers without
// blocking the publisher. Slow consumers lose messages rather than stalling
// the flow that produced them. All methods are safe for concurrent use.
type Hub[T any] struct {
	subs       map[int]chan T
	nextID     int
	bufferSize int
	closed     bool
	mu         sync.Mutex
}

// NewHub creates a hub whose subscriber channels buffer up to bufferSize
// messages. A minimum of 1 is enforced so sends never block.
func NewHub[T any](bufferSize int) *Hub[T] {
	return &Hub[T]{
		subs:       make(map[int]chan T),
		bufferSize: max(bufferSize, 1),
	}
}

// Subscribe registers a new subscriber and returns its receive channel plus
// an unsubscribe function. The subscription is also removed when ctx is
// cancelled. After the hub closes, the returned channel is already closed.
func (h *Hub[T]) Subscribe(ctx context.Context) (<-chan T, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan T, h.bufferSize)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	cancel := func() { h.unsubscribe(id) }
	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	return ch, cancel
}

// Publish delivers msg to every subscriber whose buffer has room. Messages
// to full buffers are dropped; publishing never blocks.
func (h *Hub[T]) Publish(msg T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	for _, ch := range h.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Close shuts the hub down and closes all subscriber channels. Close is
// idempotent; Publish after Close is a no-op.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}

func (h *Hub[T]) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, exists := h.subs[id]; exists {
		close(ch)
		delete(h.subs, id)
	}
}
