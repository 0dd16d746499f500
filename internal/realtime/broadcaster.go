package realtime

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/snakesladders-backend/internal/entity"
)

const subscriberBuffer = 64

// Broadcaster fans session events out to connection subscribers.
// A subscriber that falls behind loses events instead of stalling the table.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan entity.Event]struct{}
	closed bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[chan entity.Event]struct{}),
	}
}

func (that *Broadcaster) Subscribe() chan entity.Event {
	ch := make(chan entity.Event, subscriberBuffer)

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		close(ch)
		return ch
	}

	that.subs[ch] = struct{}{}

	return ch
}

func (that *Broadcaster) Unsubscribe(ch chan entity.Event) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.subs[ch]; ok {
		delete(that.subs, ch)
		close(ch)
	}
}

func (that *Broadcaster) Publish(_ context.Context, event entity.Event) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for ch := range that.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close - closes every subscriber channel. Later subscribers get a closed channel.
func (that *Broadcaster) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true
	for ch := range that.subs {
		delete(that.subs, ch)
		close(ch)
	}
}

func (that *Broadcaster) Subscribers() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.subs)
}
