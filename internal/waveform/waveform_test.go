package waveform

import (
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"
)

// captureComputer records every batch it receives.
type captureComputer struct {
	mu      sync.Mutex
	batches []map[string][]string
}

func (c *captureComputer) compute(batch map[string][]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, batch)
}

func (c *captureComputer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.batches)
}

func TestBatcher_FlushCoalescesPerFile(t *testing.T) {
	var cc captureComputer
	b := NewBatcher(cc.compute, slog.Default())

	b.Invalidate("file_1", "clip_a")
	b.Invalidate("file_1", "clip_b", "clip_a") // duplicate clip_a merges away
	b.Invalidate("file_2", "clip_c")
	b.Flush()

	if cc.count() != 1 {
		t.Fatalf("compute calls = %d, want 1", cc.count())
	}
	batch := cc.batches[0]
	if len(batch) != 2 {
		t.Fatalf("batch files = %d, want 2", len(batch))
	}
	got := append([]string(nil), batch["file_1"]...)
	sort.Strings(got)
	if len(got) != 2 || got[0] != "clip_a" || got[1] != "clip_b" {
		t.Errorf("file_1 clips = %v, want [clip_a clip_b]", got)
	}
	if len(batch["file_2"]) != 1 || batch["file_2"][0] != "clip_c" {
		t.Errorf("file_2 clips = %v, want [clip_c]", batch["file_2"])
	}
}

func TestBatcher_FlushWithNothingPendingIsNoOp(t *testing.T) {
	var cc captureComputer
	b := NewBatcher(cc.compute, slog.Default())

	b.Flush()
	b.Invalidate("file_1", "clip_a")
	b.Flush()
	b.Flush()

	if cc.count() != 1 {
		t.Errorf("compute calls = %d, want 1", cc.count())
	}
}

func TestBatcher_IgnoresEmptyInput(t *testing.T) {
	var cc captureComputer
	b := NewBatcher(cc.compute, slog.Default())

	b.Invalidate("", "clip_a")
	b.Invalidate("file_1")
	b.Flush()

	if cc.count() != 0 {
		t.Errorf("compute calls = %d, want 0", cc.count())
	}
}

func TestBatcher_DebounceFiresOnce(t *testing.T) {
	var cc captureComputer
	b := NewBatcher(cc.compute, slog.Default())
	b.debounce = 10 * time.Millisecond

	b.Invalidate("file_1", "clip_a")
	b.Invalidate("file_1", "clip_b")

	deadline := time.Now().Add(time.Second)
	for cc.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if cc.count() != 1 {
		t.Fatalf("compute calls = %d, want 1 coalesced debounce flush", cc.count())
	}
	if got := cc.batches[0]["file_1"]; len(got) != 2 {
		t.Errorf("flushed clips = %v, want both", got)
	}
}
