// Package collect waits on the event bus for a job's events and
// renders them as they arrive. It gives a caller synchronous-style
// waiting on an asynchronous submission: attach with the job's tag,
// stream fragments, stop at the terminal result event.
package collect

import (
	"context"

	"github.com/vexlio/courier/internal/bus"
	"github.com/vexlio/courier/internal/jid"
	"github.com/vexlio/courier/internal/output"
)

// Collector streams a job's events through a printer.
type Collector struct {
	bus     bus.Bus
	printer *output.Printer
}

// New creates a collector.
func New(b bus.Bus, p *output.Printer) *Collector {
	return &Collector{bus: b, printer: p}
}

// Wait subscribes under tag and renders each observed event until the
// job's terminal result event arrives, returning that event. The
// sequence is finite and not restartable; cancelling ctx stops
// listening without touching the underlying job. Returns nil if ctx is
// cancelled before the result shows up.
func (c *Collector) Wait(ctx context.Context, tag string) (*bus.Event, error) {
	events, err := c.bus.Subscribe(ctx, tag)
	if err != nil {
		return nil, err
	}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				// Subscription ended without a terminal event: either the
				// caller cancelled or the bus shut down.
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				return nil, nil
			}
			c.render(&ev)
			if isResult(&ev) {
				return &ev, nil
			}
		}
	}
}

// WaitJID is Wait keyed by job identifier rather than full tag.
func (c *Collector) WaitJID(ctx context.Context, jobID string) (*bus.Event, error) {
	return c.Wait(ctx, jid.RunTag(jobID))
}

func (c *Collector) render(ev *bus.Event) {
	if isResult(ev) {
		if ret, ok := ev.Data["return"]; ok {
			c.printer.Render("", ret)
			return
		}
		if errMsg, ok := ev.Data["error"]; ok {
			if s, ok := errMsg.(string); ok {
				c.printer.RenderError(s)
				return
			}
		}
	}
	c.printer.Render(ev.Tag, ev.Data)
}

func isResult(ev *bus.Event) bool {
	n := len(ev.Tag)
	const suffix = "/" + bus.SuffixRet
	return n > len(suffix) && ev.Tag[n-len(suffix):] == suffix
}
