// Package bus is the event transport for job lifecycle events. A
// publisher fires tagged events; subscribers receive every event whose
// tag matches their prefix. Two implementations are provided: an
// in-process channel bus for single-instance use and a Redis pub/sub
// bus for sharing events across processes.
package bus

import (
	"context"
	"time"
)

// Event is one tagged message on the bus.
type Event struct {
	Tag  string         `json:"tag"`
	Data map[string]any `json:"data"`
	Time time.Time      `json:"time"`
}

// Suffixes of the two job lifecycle events.
const (
	SuffixNew = "new" // job_started: published before the operation runs
	SuffixRet = "ret" // job_result: terminal outcome for the job
)

// Bus publishes and subscribes tagged events.
type Bus interface {
	// Publish delivers an event to every current subscriber whose
	// prefix matches tag. Publish returns only after the event is
	// queued for all of them, so a subscriber attached before Publish
	// cannot miss it.
	Publish(ctx context.Context, tag string, data map[string]any) error

	// Subscribe returns a channel of events whose tag equals prefix or
	// begins with prefix+"/". The channel closes when ctx is cancelled
	// or the bus shuts down.
	Subscribe(ctx context.Context, prefix string) (<-chan Event, error)

	// Close shuts the bus down and closes all subscriber channels.
	Close() error
}

// Matches reports whether tag falls under prefix.
func Matches(prefix, tag string) bool {
	if prefix == "" || prefix == tag {
		return true
	}
	return len(tag) > len(prefix) && tag[:len(prefix)] == prefix && tag[len(prefix)] == '/'
}
