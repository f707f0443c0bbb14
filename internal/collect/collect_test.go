package collect

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/vexlio/courier/internal/bus"
	"github.com/vexlio/courier/internal/output"
)

func newTestCollector() (*Collector, *bus.MemoryBus, *bytes.Buffer) {
	b := bus.NewMemory()
	buf := &bytes.Buffer{}
	p := output.NewPrinter(output.FormatText)
	p.SetWriter(buf)
	return New(b, p), b, buf
}

func TestWaitTerminatesOnResultEvent(t *testing.T) {
	c, b, buf := newTestCollector()
	defer b.Close()
	ctx := context.Background()

	tag := "courier/run/20260829120000000001"
	if err := b.Publish(ctx, tag+"/new", map[string]any{"fun": "test.echo"}); err != nil {
		t.Fatal(err)
	}
	if err := b.Publish(ctx, tag+"/ret", map[string]any{"success": true, "return": "done"}); err != nil {
		t.Fatal(err)
	}

	ev, err := c.Wait(ctx, tag)
	if err != nil {
		t.Fatal(err)
	}
	if ev == nil || ev.Data["return"] != "done" {
		t.Fatalf("terminal event = %v", ev)
	}
	if !strings.Contains(buf.String(), "done") {
		t.Fatalf("result not rendered: %q", buf.String())
	}
}

func TestWaitRendersFailure(t *testing.T) {
	c, b, buf := newTestCollector()
	defer b.Close()
	ctx := context.Background()

	tag := "courier/run/20260829120000000002"
	if err := b.Publish(ctx, tag+"/ret", map[string]any{"success": false, "error": "execution: boom"}); err != nil {
		t.Fatal(err)
	}

	ev, err := c.Wait(ctx, tag)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Data["success"] != false {
		t.Fatalf("event = %v", ev)
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Fatalf("failure not rendered: %q", buf.String())
	}
}

func TestWaitCancellation(t *testing.T) {
	c, b, _ := newTestCollector()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Wait(ctx, "courier/run/never")
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after cancellation")
	}
}
