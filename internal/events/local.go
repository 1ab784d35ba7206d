package events

import (
	"context"
	"sync"

	"github.com/maumercado/anticaptcha-go/internal/logger"
)

// LocalBus is an in-process Publisher used when Redis is not configured.
// Events only reach subscribers of the same process.
type LocalBus struct {
	mu     sync.RWMutex
	subs   map[chan *Event]struct{}
	done   chan struct{}
	closed bool
}

// NewLocalBus creates an empty bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{
		subs: make(map[chan *Event]struct{}),
		done: make(chan struct{}),
	}
}

// Publish delivers the event to every subscriber without blocking.
func (b *LocalBus) Publish(_ context.Context, event *Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			logger.Warn().
				Str("event_type", string(event.Type)).
				Msg("event channel full, dropping event")
		}
	}
	return nil
}

// SubscribeAll returns a channel receiving every published event until ctx
// is done or the bus is closed.
func (b *LocalBus) SubscribeAll(ctx context.Context) (<-chan *Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	ch := make(chan *Event, subscriberBuffer)
	b.subs[ch] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
			b.unsubscribe(ch)
		case <-b.done:
		}
	}()

	return ch, nil
}

func (b *LocalBus) unsubscribe(ch chan *Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Close closes every subscriber channel. Further publishes fail with ErrClosed.
func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)

	for ch := range b.subs {
		close(ch)
		delete(b.subs, ch)
	}
	return nil
}
