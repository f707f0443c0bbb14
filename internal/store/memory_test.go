package store

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	rec := &JobRecord{
		JID:       "20260829120000000001",
		Fun:       "test.echo",
		User:      "opsbot",
		Kwargs:    map[string]any{"value": "hi"},
		Status:    JobStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := c.SaveStart(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := c.Get(ctx, rec.JID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != JobStatusRunning || got.Fun != "test.echo" {
		t.Fatalf("record = %+v", got)
	}

	if err := c.SaveResult(ctx, rec.JID, JobStatusSucceeded, "hi", ""); err != nil {
		t.Fatal(err)
	}
	got, err = c.Get(ctx, rec.JID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != JobStatusSucceeded || got.Return != "hi" || got.CompletedAt == nil {
		t.Fatalf("record after result = %+v", got)
	}
}

func TestMemoryCacheGetMiss(t *testing.T) {
	c := NewMemoryCache()
	if _, err := c.Get(context.Background(), "nope"); err != ErrJobNotFound {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
	if err := c.SaveResult(context.Background(), "nope", JobStatusFailed, nil, "x"); err != ErrJobNotFound {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
}

func TestMemoryCacheListNewestFirst(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	for _, jid := range []string{"20260829120000000001", "20260829120000000003", "20260829120000000002"} {
		if err := c.SaveStart(ctx, &JobRecord{JID: jid, Fun: "f", Status: JobStatusRunning, StartedAt: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}

	records, err := c.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d", len(records))
	}
	if records[0].JID != "20260829120000000003" || records[1].JID != "20260829120000000002" {
		t.Fatalf("order = %s, %s", records[0].JID, records[1].JID)
	}
}

func TestMemoryCacheCopiesRecords(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	rec := &JobRecord{JID: "j1", Fun: "f", Status: JobStatusRunning, StartedAt: time.Now()}
	if err := c.SaveStart(ctx, rec); err != nil {
		t.Fatal(err)
	}
	rec.Fun = "mutated"

	got, err := c.Get(ctx, "j1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Fun != "f" {
		t.Fatal("cache must store a copy, not the caller's pointer")
	}
}
