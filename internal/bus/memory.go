package bus

import (
	"context"
	"sync"
	"time"
)

// subscriber channel buffer. Deep enough that a slow renderer does not
// stall publishers before the collector catches up.
const memoryBufSize = 128

// retainedCap bounds the replay ring. A subscriber that attaches right
// after a job handle is returned must still observe that job's start
// event, so recent events are replayed to new subscribers.
const retainedCap = 4096

// MemoryBus is an in-process Bus built on per-subscriber buffered
// channels. Delivery to a single subscriber preserves publish order,
// and a bounded ring of recent events is replayed to late subscribers.
type MemoryBus struct {
	mu       sync.Mutex
	subs     []*memorySub
	retained []Event
	closed   bool
}

type memorySub struct {
	prefix string
	ch     chan Event
}

// NewMemory creates an in-process bus.
func NewMemory() *MemoryBus {
	return &MemoryBus{}
}

// Publish fans the event out to every matching subscriber before
// returning. Sends happen under the lock so they cannot race a
// concurrent unsubscribe closing the channel. A job produces a small,
// bounded event stream; a subscriber whose buffer still overflows has
// stopped reading and is skipped.
func (b *MemoryBus) Publish(_ context.Context, tag string, data map[string]any) error {
	ev := Event{Tag: tag, Data: data, Time: time.Now().UTC()}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.retained = append(b.retained, ev)
	if len(b.retained) > retainedCap {
		b.retained = b.retained[len(b.retained)-retainedCap:]
	}
	for _, s := range b.subs {
		if !Matches(s.prefix, tag) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribe registers a prefix subscription. The returned channel is
// closed when ctx is cancelled or the bus closes.
func (b *MemoryBus) Subscribe(ctx context.Context, prefix string) (<-chan Event, error) {
	b.mu.Lock()
	var replay []Event
	for _, ev := range b.retained {
		if Matches(prefix, ev.Tag) {
			replay = append(replay, ev)
		}
	}
	sub := &memorySub{prefix: prefix, ch: make(chan Event, memoryBufSize+len(replay))}
	if b.closed {
		b.mu.Unlock()
		close(sub.ch)
		return sub.ch, nil
	}
	// Replay happens under the lock, before the subscriber is visible
	// to publishers, so replayed events always precede live ones.
	for _, ev := range replay {
		sub.ch <- ev
	}
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(sub)
	}()

	return sub.ch, nil
}

func (b *MemoryBus) remove(target *memorySub) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for i, s := range b.subs {
		if s == target {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(s.ch)
			return
		}
	}
}

// Close shuts the bus down and closes all subscriber channels.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	return nil
}
