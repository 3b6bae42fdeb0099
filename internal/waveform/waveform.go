// Package waveform batches audio-waveform invalidations. Edits that touch
// many clips of the same source (retime, repeat, slice, volume) report
// each clip individually; the batcher coalesces them per file and flushes
// one compute call per batch after a short debounce window.
package waveform

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultDebounce coalesces bursts of invalidations from one batch edit.
const DefaultDebounce = 150 * time.Millisecond

// Computer regenerates waveforms for the given file -> clip-ids mapping.
type Computer func(batch map[string][]string)

// Batcher accumulates per-file clip sets and flushes them as one compute
// call. Safe for concurrent use.
type Batcher struct {
	compute  Computer
	debounce time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	pending map[string]map[string]struct{} // fileID -> clip set
	timer   *time.Timer
}

func NewBatcher(compute Computer, log *slog.Logger) *Batcher {
	return &Batcher{
		compute:  compute,
		debounce: DefaultDebounce,
		log:      log,
		pending:  make(map[string]map[string]struct{}),
	}
}

// Invalidate queues the clips of one source file for waveform recompute.
func (b *Batcher) Invalidate(fileID string, clipIDs ...string) {
	if fileID == "" || len(clipIDs) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.pending[fileID]
	if !ok {
		set = make(map[string]struct{})
		b.pending[fileID] = set
	}
	for _, id := range clipIDs {
		set[id] = struct{}{}
	}

	if b.timer == nil {
		b.timer = time.AfterFunc(b.debounce, b.flush)
	} else {
		b.timer.Reset(b.debounce)
	}
}

// Flush forces an immediate compute of everything pending, bypassing the
// debounce window. Used on session teardown.
func (b *Batcher) Flush() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()
	b.flush()
}

func (b *Batcher) flush() {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.timer = nil
		b.mu.Unlock()
		return
	}
	batch := make(map[string][]string, len(b.pending))
	for fileID, set := range b.pending {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		batch[fileID] = ids
	}
	b.pending = make(map[string]map[string]struct{})
	b.timer = nil
	b.mu.Unlock()

	b.log.Debug("flushing waveform batch", "files", len(batch))
	b.compute(batch)
}
