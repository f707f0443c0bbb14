// Package store persists job records so async results can be examined
// after the fact (the job cache). Backends: Redis, Postgres, and a
// no-op cache for callers that only care about live events.
package store

import (
	"context"
	"errors"
	"time"
)

// Job status values.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// ErrJobNotFound is returned when a jid has no cached record.
var ErrJobNotFound = errors.New("job not found")

// DefaultJobTTL bounds how long finished job records are retained by
// backends that support expiry.
const DefaultJobTTL = 24 * time.Hour

// JobRecord is one cached job: the submitted call plus its outcome.
type JobRecord struct {
	JID         string         `json:"jid"`
	Fun         string         `json:"fun"`
	User        string         `json:"user,omitempty"`
	Kwargs      map[string]any `json:"kwargs,omitempty"`
	Status      JobStatus      `json:"status"`
	Return      any            `json:"return,omitempty"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// JobCache records job starts and results, keyed by jid.
type JobCache interface {
	// SaveStart records a job entering the running state.
	SaveStart(ctx context.Context, rec *JobRecord) error

	// SaveResult records the terminal outcome for a jid.
	SaveResult(ctx context.Context, jid string, status JobStatus, ret any, errMsg string) error

	// Get returns the record for a jid, or ErrJobNotFound.
	Get(ctx context.Context, jid string) (*JobRecord, error)

	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]*JobRecord, error)

	Close() error
}

// NullCache discards everything. Lookups always miss.
type NullCache struct{}

func (NullCache) SaveStart(context.Context, *JobRecord) error { return nil }

func (NullCache) SaveResult(context.Context, string, JobStatus, any, string) error { return nil }

func (NullCache) Get(context.Context, string) (*JobRecord, error) { return nil, ErrJobNotFound }

func (NullCache) List(context.Context, int) ([]*JobRecord, error) { return nil, nil }

func (NullCache) Close() error { return nil }
