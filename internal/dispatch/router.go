package dispatch

import (
	"context"
	"time"

	"github.com/vexlio/courier/internal/bind"
	"github.com/vexlio/courier/internal/bus"
	"github.com/vexlio/courier/internal/call"
	"github.com/vexlio/courier/internal/fault"
	"github.com/vexlio/courier/internal/jid"
	"github.com/vexlio/courier/internal/jobtracker"
	"github.com/vexlio/courier/internal/logging"
	"github.com/vexlio/courier/internal/registry"
	"github.com/vexlio/courier/internal/store"
)

// prepare runs the shared pipeline both execution paths start from:
// normalize the request, authorize the caller when credentials were
// supplied, resolve the operation, and bind the arguments. Binding and
// authorization failures surface here, before any operation code runs.
func (c *Client) prepare(ctx context.Context, low map[string]any) (*call.Call, *registry.Operation, *registry.Invocation, error) {
	cl, err := call.Normalize(low)
	if err != nil {
		return nil, nil, nil, err
	}
	if cl.HasCredentials() {
		if err := c.authz.Authorize(ctx, cl.Credentials, cl.Function); err != nil {
			return nil, nil, nil, err
		}
	}
	op, err := c.registry.Resolve(cl.Function)
	if err != nil {
		return nil, nil, nil, err
	}
	inv, err := bind.Bind(op, cl.Kwargs)
	if err != nil {
		return nil, nil, nil, err
	}
	return cl, op, inv, nil
}

// RunSync executes the operation inline and returns its value. The
// calling goroutine blocks for the full duration of the operation.
// Any returned error belongs to the fault family; panics from
// operation code are defects and propagate.
func (c *Client) RunSync(ctx context.Context, low map[string]any) (any, error) {
	start := time.Now()
	cl, op, inv, err := c.prepare(ctx, low)
	if err != nil {
		c.metrics.RecordDispatch("sync", false, time.Since(start))
		return nil, err
	}

	ret, err := op.Handler(ctx, inv)
	c.metrics.RecordDispatch("sync", err == nil, time.Since(start))
	if err != nil {
		return nil, fault.Execution(cl.Function, err)
	}
	return ret, nil
}

// RunAsync validates, authorizes, and binds the call, then publishes
// the job-started event and hands execution to a background goroutine.
// The returned handle is released only after the start event is
// published, and the operation does not begin running before that, so
// a subscriber attaching on receipt of the handle observes the full
// event sequence. Submission cost is bookkeeping only; RunAsync never
// waits for the operation.
func (c *Client) RunAsync(ctx context.Context, low map[string]any) (*JobHandle, error) {
	start := time.Now()
	cl, op, inv, err := c.prepare(ctx, low)
	if err != nil {
		c.metrics.RecordDispatch("async", false, time.Since(start))
		return nil, err
	}

	jobID := jid.New()
	handle := &JobHandle{Tag: jid.RunTag(jobID), JID: jobID, PID: c.pid}

	rec := &store.JobRecord{
		JID:       jobID,
		Fun:       cl.Function,
		User:      cl.Credentials.Username,
		Kwargs:    cl.Kwargs,
		Status:    store.JobStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := c.cache.SaveStart(ctx, rec); err != nil {
		// The cache is advisory; a failed write must not block submission.
		logging.Op().Warn("job cache save failed", "jid", jobID, "error", err)
	}
	c.tracker.Begin(jobID, cl.Function, handle.Tag, rec.User)

	startData := map[string]any{
		"jid":    jobID,
		"fun":    cl.Function,
		"pid":    c.pid,
		"user":   rec.User,
		"kwargs": cl.Kwargs,
	}
	if err := c.bus.Publish(ctx, jid.RunTag(jobID, bus.SuffixNew), startData); err != nil {
		c.tracker.Finish(jobID)
		c.metrics.RecordDispatch("async", false, time.Since(start))
		return nil, fault.Wrap(fault.KindExecution, err, "publishing start event for %s", cl.Function)
	}
	c.metrics.RecordEvent(bus.SuffixNew)

	go c.execute(jobID, cl.Function, op, inv)

	c.metrics.RecordDispatch("async", true, time.Since(start))
	return handle, nil
}

// execute runs one async job out of band and publishes its terminal
// result event. It deliberately uses a fresh context: the submitting
// caller's context ends at submission, not at job completion.
func (c *Client) execute(jobID, fun string, op *registry.Operation, inv *registry.Invocation) {
	ctx := context.Background()
	c.tracker.SetPhase(jobID, jobtracker.PhaseRunning)
	c.metrics.AsyncJobStarted()
	defer c.metrics.AsyncJobFinished()

	ret, err := op.Handler(ctx, inv)

	data := map[string]any{
		"jid":     jobID,
		"fun":     fun,
		"success": err == nil,
	}
	status := store.JobStatusSucceeded
	errMsg := ""
	if err != nil {
		ferr := fault.Execution(fun, err)
		errMsg = ferr.Error()
		data["error"] = errMsg
		status = store.JobStatusFailed
	} else {
		data["return"] = ret
	}

	if err := c.cache.SaveResult(ctx, jobID, status, ret, errMsg); err != nil && err != store.ErrJobNotFound {
		logging.Op().Warn("job cache result save failed", "jid", jobID, "error", err)
	}
	if err := c.bus.Publish(ctx, jid.RunTag(jobID, bus.SuffixRet), data); err != nil {
		logging.Op().Error("publishing result event failed", "jid", jobID, "error", err)
	} else {
		c.metrics.RecordEvent(bus.SuffixRet)
	}
	c.tracker.Finish(jobID)
	logging.Op().Debug("async job finished", "jid", jobID, "fun", fun, "success", errMsg == "")
}
