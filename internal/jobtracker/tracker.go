// Package jobtracker keeps in-memory state for async jobs currently
// running in this process. It is lightweight bookkeeping alongside the
// persistent job cache: the `jobs.active` runner reads it, and stale
// entries age out on a TTL.
package jobtracker

import (
	"sync"
	"time"
)

// Phase values for an active job.
const (
	PhaseQueued   = "queued"
	PhaseRunning  = "running"
	PhaseFinished = "finished"
)

// Active describes one async job owned by this process.
type Active struct {
	JID         string    `json:"jid"`
	Fun         string    `json:"fun"`
	Tag         string    `json:"tag"`
	User        string    `json:"user,omitempty"`
	Phase       string    `json:"phase"`
	StartedAt   time.Time `json:"started_at"`
	HeartbeatAt time.Time `json:"heartbeat_at"`
}

// Tracker maintains the active-job table.
type Tracker struct {
	mu      sync.RWMutex
	active  map[string]*Active
	ttl     time.Duration
	maxSize int
	stop    chan struct{}
	once    sync.Once
}

// New creates a tracker whose finished entries expire after ttl.
func New(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	t := &Tracker{
		active:  make(map[string]*Active),
		ttl:     ttl,
		maxSize: 10000,
		stop:    make(chan struct{}),
	}
	go t.cleanupLoop()
	return t
}

// Begin registers a job as queued.
func (t *Tracker) Begin(jid, fun, tag, user string) {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.maxSize > 0 && len(t.active) >= t.maxSize {
		return
	}
	t.active[jid] = &Active{
		JID:         jid,
		Fun:         fun,
		Tag:         tag,
		User:        user,
		Phase:       PhaseQueued,
		StartedAt:   now,
		HeartbeatAt: now,
	}
}

// SetPhase moves a job to a new phase and refreshes its heartbeat.
func (t *Tracker) SetPhase(jid, phase string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.active[jid]; ok {
		a.Phase = phase
		a.HeartbeatAt = time.Now()
	}
}

// Finish marks a job finished; it remains visible until the TTL sweep.
func (t *Tracker) Finish(jid string) {
	t.SetPhase(jid, PhaseFinished)
}

// Get returns a copy of one entry, or nil if untracked.
func (t *Tracker) Get(jid string) *Active {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.active[jid]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

// ListActive returns copies of all tracked entries.
func (t *Tracker) ListActive() []*Active {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Active, 0, len(t.active))
	for _, a := range t.active {
		cp := *a
		out = append(out, &cp)
	}
	return out
}

// Stop terminates the cleanup goroutine.
func (t *Tracker) Stop() {
	t.once.Do(func() { close(t.stop) })
}

func (t *Tracker) cleanupLoop() {
	ticker := time.NewTicker(t.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			now := time.Now()
			for jid, a := range t.active {
				if now.Sub(a.HeartbeatAt) > t.ttl {
					delete(t.active, jid)
				}
			}
			t.mu.Unlock()
		}
	}
}
