package jobtracker

import (
	"testing"
	"time"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := New(time.Minute)
	defer tr.Stop()

	tr.Begin("j1", "test.sleep", "courier/run/j1", "opsbot")

	got := tr.Get("j1")
	if got == nil || got.Phase != PhaseQueued || got.Fun != "test.sleep" {
		t.Fatalf("entry = %+v", got)
	}

	tr.SetPhase("j1", PhaseRunning)
	if tr.Get("j1").Phase != PhaseRunning {
		t.Fatal("phase not updated")
	}

	tr.Finish("j1")
	if tr.Get("j1").Phase != PhaseFinished {
		t.Fatal("finish not recorded")
	}
}

func TestTrackerGetReturnsCopy(t *testing.T) {
	tr := New(time.Minute)
	defer tr.Stop()

	tr.Begin("j1", "f", "t", "")
	tr.Get("j1").Phase = "mangled"
	if tr.Get("j1").Phase != PhaseQueued {
		t.Fatal("Get must return a copy")
	}
}

func TestTrackerListActive(t *testing.T) {
	tr := New(time.Minute)
	defer tr.Stop()

	tr.Begin("j1", "a", "t1", "")
	tr.Begin("j2", "b", "t2", "")
	if got := tr.ListActive(); len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
}

func TestTrackerUnknownJID(t *testing.T) {
	tr := New(time.Minute)
	defer tr.Stop()

	if tr.Get("missing") != nil {
		t.Fatal("unknown jid should return nil")
	}
	tr.SetPhase("missing", PhaseRunning) // must not panic
}
