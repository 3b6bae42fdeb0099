// Package update defines the persistence/update-manager contract the
// timeline engines mutate through. All mutations performed between
// BeginTransaction and EndTransaction are recorded as one user-visible
// undo step; nested begin/end pairs group into the outermost transaction.
package update

import (
	"strings"

	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/typeid"
)

// ChangeSet is a bitset of top-level document buckets that changed.
// Listeners use it to decide whether a redraw or recompute is needed.
type ChangeSet uint8

const (
	ChangedClips ChangeSet = 1 << iota
	ChangedEffects
	ChangedDuration
	ChangedMarkers
	ChangedLayers
)

func (cs ChangeSet) Has(bucket ChangeSet) bool { return cs&bucket != 0 }

func (cs ChangeSet) String() string {
	var parts []string
	if cs.Has(ChangedClips) {
		parts = append(parts, "clips")
	}
	if cs.Has(ChangedEffects) {
		parts = append(parts, "effects")
	}
	if cs.Has(ChangedDuration) {
		parts = append(parts, "duration")
	}
	if cs.Has(ChangedMarkers) {
		parts = append(parts, "markers")
	}
	if cs.Has(ChangedLayers) {
		parts = append(parts, "layers")
	}
	return strings.Join(parts, ",")
}

// Manager is the narrow contract the core calls to persist edits.
// basicOnly selects the cheap path used during continuous drags; the
// full-field path runs once per gesture on commit.
type Manager interface {
	BeginTransaction() string
	EndTransaction()

	UpdateClip(c *document.Clip, basicOnly bool, txnID string) error
	UpdateTransition(t *document.Transition, basicOnly bool, txnID string) error
	DeleteClip(id, txnID string) error
	DeleteTransition(id, txnID string) error
	UpdateMarker(m *document.Marker, txnID string) error
	ExtendDuration(seconds float64, txnID string) error
}

// txnState implements nested transaction grouping. Begin at depth zero
// mints a new id; nested begins reuse it; only the outermost End closes.
type txnState struct {
	depth int
	id    string
}

func (s *txnState) begin() string {
	if s.depth == 0 {
		s.id = typeid.NewTxnID()
	}
	s.depth++
	return s.id
}

// end returns true when the outermost transaction closed.
func (s *txnState) end() bool {
	if s.depth == 0 {
		return false
	}
	s.depth--
	if s.depth == 0 {
		s.id = ""
		return true
	}
	return false
}

// Notifier broadcasts "changed" notifications to registered listeners.
// Listener callbacks run synchronously on the calling goroutine, which is
// the single event goroutine of the owning session.
type Notifier struct {
	listeners []func(ChangeSet)
}

func (n *Notifier) Subscribe(fn func(ChangeSet)) {
	n.listeners = append(n.listeners, fn)
}

func (n *Notifier) Publish(cs ChangeSet) {
	if cs == 0 {
		return
	}
	for _, fn := range n.listeners {
		fn(cs)
	}
}
