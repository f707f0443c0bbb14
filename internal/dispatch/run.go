package dispatch

import (
	"context"
	"strings"

	"github.com/vexlio/courier/internal/fault"
	"github.com/vexlio/courier/internal/logging"
)

// RunOpts carries the request-level flags alongside the low state.
type RunOpts struct {
	Low   map[string]any
	Doc   bool // render documentation instead of executing
	Async bool // report the handle and stop instead of collecting returns
	Quiet bool // suppress rendering; values are still returned
}

// Submission is the terminal non-error outcome of an async-flagged
// run: the job was published and no further output follows.
type Submission struct {
	Outcome string `json:"outcome"`
	Tag     string `json:"tag"`
	JID     string `json:"jid"`
	PID     int    `json:"pid"`
}

// Dispatch routes one request: a true "async" key in the low state
// selects the asynchronous path and yields a *JobHandle; otherwise
// the operation runs inline and its value is returned. Failures of
// the reportable family come back as the error with the normalized
// text as the value.
func (c *Client) Dispatch(ctx context.Context, low map[string]any) (any, error) {
	isAsync, _ := low["async"].(bool)
	var (
		ret any
		err error
	)
	if isAsync {
		ret, err = c.RunAsync(ctx, low)
	} else {
		ret, err = c.RunSync(ctx, low)
	}
	if err != nil {
		if ferr, ok := fault.IsFault(err); ok {
			c.printer.RenderError(ferr.Error())
			return ferr.Error(), ferr
		}
		return nil, err
	}
	return ret, nil
}

// Run executes the full request sequence: documentation listing, or
// async submission followed (unless flagged async or quiet) by
// streaming the job's returns until its terminal event. Every failure
// of the reportable family is rendered (unless quiet) and returned:
// the value is the normalized text and the error carries the kind.
// Defects outside the family propagate untouched.
func (c *Client) Run(ctx context.Context, opts RunOpts) (any, error) {
	if opts.Quiet {
		c.printer.SetQuiet(true)
	}

	if opts.Doc {
		return c.runDocs(opts)
	}

	handle, err := c.RunAsync(ctx, opts.Low)
	if err != nil {
		if ferr, ok := fault.IsFault(err); ok {
			c.printer.RenderError(ferr.Error())
			return ferr.Error(), ferr
		}
		return nil, err
	}

	if opts.Async {
		logging.Op().Info("running in async mode; collect results from the event bus or the job cache",
			"tag", handle.Tag, "jid", handle.JID, "pid", handle.PID)
		return &Submission{Outcome: "submitted", Tag: handle.Tag, JID: handle.JID, PID: handle.PID}, nil
	}

	if opts.Quiet {
		return handle, nil
	}

	ev, err := c.collector.Wait(ctx, handle.Tag)
	if err != nil {
		return handle, nil // caller stopped listening; the job keeps running
	}
	if ev == nil {
		return handle, nil
	}
	if errMsg, ok := ev.Data["error"].(string); ok && errMsg != "" {
		msg := strings.TrimPrefix(errMsg, string(fault.KindExecution)+": ")
		return errMsg, fault.New(fault.KindExecution, "%s", msg)
	}
	return ev.Data["return"], nil
}

// runDocs renders the documentation listing for the requested
// function (or everything when no name was given). No binding or
// execution happens on this path.
func (c *Client) runDocs(opts RunOpts) (any, error) {
	prefix := ""
	if f, ok := opts.Low["fun"].(string); ok {
		prefix = f
	}
	docs := c.registry.Docs(prefix)
	if err := c.printer.RenderDocs(docs); err != nil {
		return nil, err
	}
	return docs, nil
}
