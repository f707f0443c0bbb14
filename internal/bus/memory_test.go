package bus

import (
	"context"
	"testing"
	"time"
)

func recvOne(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("channel closed unexpectedly")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestMemoryBusDeliversToPrefixSubscribers(t *testing.T) {
	b := NewMemory()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, "courier/run/1")
	if err != nil {
		t.Fatal(err)
	}
	other, err := b.Subscribe(ctx, "courier/run/2")
	if err != nil {
		t.Fatal(err)
	}

	if err := b.Publish(ctx, "courier/run/1/new", map[string]any{"fun": "status.ping"}); err != nil {
		t.Fatal(err)
	}

	ev := recvOne(t, ch)
	if ev.Tag != "courier/run/1/new" {
		t.Fatalf("tag = %s", ev.Tag)
	}
	select {
	case ev := <-other:
		t.Fatalf("non-matching subscriber received %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBusReplaysToLateSubscriber(t *testing.T) {
	// A subscriber attaching after publication must still observe the
	// event: this is what lets a caller attach on receipt of a job
	// handle without racing the start event.
	b := NewMemory()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := b.Publish(ctx, "courier/run/9/new", map[string]any{"jid": "9"}); err != nil {
		t.Fatal(err)
	}

	ch, err := b.Subscribe(ctx, "courier/run/9")
	if err != nil {
		t.Fatal(err)
	}
	ev := recvOne(t, ch)
	if ev.Tag != "courier/run/9/new" {
		t.Fatalf("late subscriber missed the start event, got %s", ev.Tag)
	}
}

func TestMemoryBusReplayPrecedesLive(t *testing.T) {
	b := NewMemory()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := b.Publish(ctx, "t/1/new", map[string]any{"seq": 1}); err != nil {
		t.Fatal(err)
	}
	ch, err := b.Subscribe(ctx, "t/1")
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Publish(ctx, "t/1/ret", map[string]any{"seq": 2}); err != nil {
		t.Fatal(err)
	}

	if ev := recvOne(t, ch); ev.Tag != "t/1/new" {
		t.Fatalf("first event = %s, want replayed t/1/new", ev.Tag)
	}
	if ev := recvOne(t, ch); ev.Tag != "t/1/ret" {
		t.Fatalf("second event = %s, want live t/1/ret", ev.Tag)
	}
}

func TestMemoryBusUnsubscribeOnCancel(t *testing.T) {
	b := NewMemory()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Subscribe(ctx, "x")
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return // closed as expected
			}
		case <-deadline:
			t.Fatal("subscriber channel not closed after cancel")
		}
	}
}

func TestMemoryBusClose(t *testing.T) {
	b := NewMemory()
	ctx := context.Background()
	ch, err := b.Subscribe(ctx, "x")
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after bus Close")
	}
	// Publishing on a closed bus is a no-op, not a panic.
	if err := b.Publish(ctx, "x/1", nil); err != nil {
		t.Fatal(err)
	}
}

func TestMatches(t *testing.T) {
	cases := []struct {
		prefix, tag string
		want        bool
	}{
		{"", "anything", true},
		{"a/b", "a/b", true},
		{"a/b", "a/b/c", true},
		{"a/b", "a/bc", false},
		{"a/b", "a", false},
	}
	for _, tc := range cases {
		if got := Matches(tc.prefix, tc.tag); got != tc.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tc.prefix, tc.tag, got, tc.want)
		}
	}
}
