// Package runners provides the built-in runner operations shipped
// with the dispatch client: status checks, job introspection backed by
// the tracker and the job cache, and test operations exercising the
// success and failure paths.
package runners

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vexlio/courier/internal/jobtracker"
	"github.com/vexlio/courier/internal/registry"
	"github.com/vexlio/courier/internal/store"
)

var processStart = time.Now()

// Deps are the collaborators the built-in runners read from.
type Deps struct {
	Cache   store.JobCache
	Tracker *jobtracker.Tracker
}

// Register installs the built-in operations into reg.
func Register(reg *registry.Registry, deps Deps) {
	if deps.Cache == nil {
		deps.Cache = store.NullCache{}
	}

	reg.Register(&registry.Operation{
		Name: "status.ping",
		Doc:  "Return true. Used to verify the dispatch path end to end.",
		Handler: func(ctx context.Context, in *registry.Invocation) (any, error) {
			return true, nil
		},
	})

	reg.Register(&registry.Operation{
		Name: "status.time",
		Doc:  "Return the current master time in UTC.",
		Handler: func(ctx context.Context, in *registry.Invocation) (any, error) {
			return time.Now().UTC().Format(time.RFC3339Nano), nil
		},
	})

	reg.Register(&registry.Operation{
		Name: "status.uptime",
		Doc:  "Return seconds since this process started.",
		Handler: func(ctx context.Context, in *registry.Invocation) (any, error) {
			return time.Since(processStart).Seconds(), nil
		},
	})

	reg.Register(&registry.Operation{
		Name:   "test.echo",
		Doc:    "Return the passed value unchanged.",
		Params: []registry.Param{{Name: "value", Required: true}},
		Handler: func(ctx context.Context, in *registry.Invocation) (any, error) {
			return in.Arg(0), nil
		},
	})

	reg.Register(&registry.Operation{
		Name:   "test.sleep",
		Doc:    "Sleep for the given number of seconds, then return true.",
		Params: []registry.Param{{Name: "seconds", Default: int64(1)}},
		Handler: func(ctx context.Context, in *registry.Invocation) (any, error) {
			secs := toFloat(in.Arg(0))
			select {
			case <-time.After(time.Duration(secs * float64(time.Second))):
				return true, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	})

	reg.Register(&registry.Operation{
		Name:   "test.fail",
		Doc:    "Always fail with the given message.",
		Params: []registry.Param{{Name: "message", Default: "something went wrong"}},
		Handler: func(ctx context.Context, in *registry.Invocation) (any, error) {
			return nil, errors.New(fmt.Sprint(in.Arg(0)))
		},
	})

	reg.Register(&registry.Operation{
		Name:         "test.kwargs",
		Doc:          "Return all passed keyword arguments. Accepts anything.",
		AcceptsExtra: true,
		Handler: func(ctx context.Context, in *registry.Invocation) (any, error) {
			return in.Keyword, nil
		},
	})

	reg.Register(&registry.Operation{
		Name: "jobs.active",
		Doc:  "List async jobs currently tracked by this process.",
		Handler: func(ctx context.Context, in *registry.Invocation) (any, error) {
			if deps.Tracker == nil {
				return []*jobtracker.Active{}, nil
			}
			return deps.Tracker.ListActive(), nil
		},
	})

	reg.Register(&registry.Operation{
		Name:   "jobs.list_jobs",
		Doc:    "List cached jobs, newest first.",
		Params: []registry.Param{{Name: "limit", Default: int64(50)}},
		Handler: func(ctx context.Context, in *registry.Invocation) (any, error) {
			limit := int(toFloat(in.Arg(0)))
			return deps.Cache.List(ctx, limit)
		},
	})

	reg.Register(&registry.Operation{
		Name:   "jobs.lookup_jid",
		Doc:    "Return the cached record for one job id.",
		Params: []registry.Param{{Name: "jid", Required: true}},
		Handler: func(ctx context.Context, in *registry.Invocation) (any, error) {
			jid, _ := in.Arg(0).(string)
			return deps.Cache.Get(ctx, jid)
		},
	})

	reg.Register(&registry.Operation{
		Name:   "doc.runner",
		Doc:    "List documentation for registered runner operations.",
		Params: []registry.Param{{Name: "prefix", Default: ""}},
		Handler: func(ctx context.Context, in *registry.Invocation) (any, error) {
			prefix, _ := in.Arg(0).(string)
			return reg.Docs(prefix), nil
		},
	})
}

// toFloat widens any numeric argument; CLI coercion may deliver int64
// or float64, JSON decoding delivers float64.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}
