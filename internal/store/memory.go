package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryCache keeps job records in process memory. It is the default
// backend and the one used by tests.
type MemoryCache struct {
	mu   sync.RWMutex
	jobs map[string]*JobRecord
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{jobs: make(map[string]*JobRecord)}
}

func (c *MemoryCache) SaveStart(_ context.Context, rec *JobRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *rec
	c.jobs[rec.JID] = &cp
	return nil
}

func (c *MemoryCache) SaveResult(_ context.Context, jid string, status JobStatus, ret any, errMsg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.jobs[jid]
	if !ok {
		return ErrJobNotFound
	}
	now := time.Now().UTC()
	rec.Status = status
	rec.Return = ret
	rec.Error = errMsg
	rec.CompletedAt = &now
	return nil
}

func (c *MemoryCache) Get(_ context.Context, jid string) (*JobRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.jobs[jid]
	if !ok {
		return nil, ErrJobNotFound
	}
	cp := *rec
	return &cp, nil
}

func (c *MemoryCache) List(_ context.Context, limit int) ([]*JobRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	records := make([]*JobRecord, 0, len(c.jobs))
	for _, rec := range c.jobs {
		cp := *rec
		records = append(records, &cp)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].JID > records[j].JID
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (c *MemoryCache) Close() error { return nil }
