// Package dispatch is the execution router: it accepts a loosely
// shaped invocation request, normalizes and binds it, authorizes the
// caller, and executes the target operation either inline
// (synchronous) or as a published job (asynchronous).
package dispatch

import (
	"os"
	"time"

	"github.com/vexlio/courier/internal/auth"
	"github.com/vexlio/courier/internal/bus"
	"github.com/vexlio/courier/internal/collect"
	"github.com/vexlio/courier/internal/jobtracker"
	"github.com/vexlio/courier/internal/metrics"
	"github.com/vexlio/courier/internal/output"
	"github.com/vexlio/courier/internal/registry"
	"github.com/vexlio/courier/internal/store"
)

// JobHandle identifies one asynchronous execution. The tag is unique
// for the lifetime of the process, so event subscribers can filter on
// it unambiguously.
type JobHandle struct {
	Tag string `json:"tag"`
	JID string `json:"jid"`
	PID int    `json:"pid"`
}

// Deps are the collaborators a Client is built from. Registry and Bus
// are required; everything else gets a working default.
type Deps struct {
	Registry   *registry.Registry
	Bus        bus.Bus
	Authorizer auth.Authorizer
	Cache      store.JobCache
	Tracker    *jobtracker.Tracker
	Printer    *output.Printer
	Metrics    *metrics.Metrics
}

// Client dispatches named operations. It holds no per-call state:
// one Client is safe for concurrent dispatches.
type Client struct {
	registry  *registry.Registry
	bus       bus.Bus
	authz     auth.Authorizer
	cache     store.JobCache
	tracker   *jobtracker.Tracker
	printer   *output.Printer
	metrics   *metrics.Metrics
	collector *collect.Collector
	pid       int
}

// New builds a dispatch client.
func New(deps Deps) *Client {
	if deps.Registry == nil {
		panic("dispatch: Registry is required")
	}
	if deps.Bus == nil {
		deps.Bus = bus.NewMemory()
	}
	if deps.Authorizer == nil {
		deps.Authorizer = auth.AllowAll{}
	}
	if deps.Cache == nil {
		deps.Cache = store.NullCache{}
	}
	if deps.Tracker == nil {
		deps.Tracker = jobtracker.New(30 * time.Minute)
	}
	if deps.Printer == nil {
		deps.Printer = output.NewPrinter(output.FormatText)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New("courier", nil)
	}
	return &Client{
		registry:  deps.Registry,
		bus:       deps.Bus,
		authz:     deps.Authorizer,
		cache:     deps.Cache,
		tracker:   deps.Tracker,
		printer:   deps.Printer,
		metrics:   deps.Metrics,
		collector: collect.New(deps.Bus, deps.Printer),
		pid:       os.Getpid(),
	}
}

// Registry exposes the operation registry (read-only use).
func (c *Client) Registry() *registry.Registry { return c.registry }

// Collector returns the result collector bound to this client's bus
// and printer.
func (c *Client) Collector() *collect.Collector { return c.collector }

// Tracker returns the active-job tracker.
func (c *Client) Tracker() *jobtracker.Tracker { return c.tracker }

// Cache returns the job cache.
func (c *Client) Cache() store.JobCache { return c.cache }
