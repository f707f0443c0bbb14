// Package jid generates job identifiers and event tags. A jid is a
// UTC timestamp with microsecond precision; a process-scoped monotonic
// guard ensures two jids generated back to back never collide, so tags
// derived from them are unique for the lifetime of the process.
package jid

import (
	"strings"
	"sync"
	"time"
)

const layout = "20060102150405.000000"

// TagPrefix namespaces every event tag published by this client class.
const TagPrefix = "courier/run"

var (
	mu   sync.Mutex
	last string
)

// New returns a fresh job identifier. If the clock has not advanced
// past the previously issued jid (or moved backwards), the timestamp
// is bumped by one microsecond so the sequence stays strictly
// increasing.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	now := time.Now().UTC()
	j := format(now)
	if last != "" && j <= last {
		t, _ := time.Parse(layout, insertDot(last))
		j = format(t.Add(time.Microsecond))
	}
	last = j
	return j
}

func format(t time.Time) string {
	return strings.Replace(t.Format(layout), ".", "", 1)
}

func insertDot(j string) string {
	// jids are 20 digits: 14 for the seconds, 6 for microseconds.
	return j[:14] + "." + j[14:]
}

// Tag joins parts into an event tag under no namespace.
func Tag(parts ...string) string {
	return strings.Join(parts, "/")
}

// RunTag builds the tag for one job event, e.g.
// courier/run/20260829121500123456/new.
func RunTag(jid string, suffix ...string) string {
	parts := append([]string{TagPrefix, jid}, suffix...)
	return strings.Join(parts, "/")
}
