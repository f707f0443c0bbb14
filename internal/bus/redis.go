package bus

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

const redisChannelPrefix = "courier:events:"

// RedisBus is a distributed Bus over Redis PUBLISH/PSUBSCRIBE. Events
// are JSON-encoded onto channels namespaced under courier:events:, so
// multiple processes observe the same job lifecycle stream.
type RedisBus struct {
	client *redis.Client

	mu     sync.Mutex
	cancel []context.CancelFunc
	closed bool
}

// NewRedis creates a Redis-backed bus and verifies connectivity.
func NewRedis(ctx context.Context, addr, password string, db int) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &RedisBus{client: client}, nil
}

// Publish JSON-encodes the event and publishes it on the channel named
// after its tag.
func (b *RedisBus) Publish(ctx context.Context, tag string, data map[string]any) error {
	ev := Event{Tag: tag, Data: data}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, redisChannelPrefix+tag, payload).Err()
}

// Subscribe opens a pattern subscription covering every tag under
// prefix. A background goroutine decodes messages onto the returned
// channel until ctx is cancelled or the bus closes.
func (b *RedisBus) Subscribe(ctx context.Context, prefix string) (<-chan Event, error) {
	out := make(chan Event, memoryBufSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(out)
		return out, nil
	}
	subCtx, cancel := context.WithCancel(ctx)
	b.cancel = append(b.cancel, cancel)
	b.mu.Unlock()

	pattern := redisChannelPrefix + prefix + "/*"
	pubsub := b.client.PSubscribe(subCtx, pattern, redisChannelPrefix+prefix)
	// Wait for the subscription to be established so events published
	// after Subscribe returns are guaranteed to be observed.
	if _, err := pubsub.Receive(subCtx); err != nil {
		cancel()
		pubsub.Close()
		close(out)
		return nil, err
	}

	go func() {
		defer pubsub.Close()
		defer close(out)
		msgCh := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				if ev.Tag == "" {
					ev.Tag = strings.TrimPrefix(msg.Channel, redisChannelPrefix)
				}
				select {
				case out <- ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close cancels all subscriptions and releases the client.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	cancels := b.cancel
	b.cancel = nil
	b.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return b.client.Close()
}
