package update

import (
	"testing"

	"github.com/cutline/cutline/backend-go/internal/document"
)

func TestRecorder_NestedTransactionsGroup(t *testing.T) {
	rec := &Recorder{}

	outer := rec.BeginTransaction()
	if outer == "" {
		t.Fatal("outermost begin should mint a txn id")
	}
	inner := rec.BeginTransaction()
	if inner != outer {
		t.Errorf("nested begin minted %q, want the outer id %q", inner, outer)
	}

	rec.UpdateClip(&document.Clip{ID: "clip_a"}, true, inner)
	rec.EndTransaction()
	if len(rec.ClosedTxns) != 0 {
		t.Fatal("inner end must not close the transaction")
	}
	rec.EndTransaction()

	if len(rec.ClosedTxns) != 1 || rec.ClosedTxns[0] != outer {
		t.Errorf("closed txns = %v, want [%q]", rec.ClosedTxns, outer)
	}
	if rec.BeginCount != 2 || rec.EndCount != 2 {
		t.Errorf("begin/end counts = %d/%d, want 2/2", rec.BeginCount, rec.EndCount)
	}

	// A new outermost transaction gets a fresh id.
	next := rec.BeginTransaction()
	if next == outer {
		t.Error("second transaction reused the first id")
	}
	rec.EndTransaction()
}

func TestRecorder_UnbalancedEndIsHarmless(t *testing.T) {
	rec := &Recorder{}
	rec.EndTransaction()
	if len(rec.ClosedTxns) != 0 {
		t.Errorf("closed txns = %v, want none", rec.ClosedTxns)
	}
}

func TestRecorder_CallsOf(t *testing.T) {
	rec := &Recorder{}
	txn := rec.BeginTransaction()
	rec.UpdateClip(&document.Clip{ID: "clip_a"}, false, txn)
	rec.DeleteClip("clip_b", txn)
	rec.UpdateMarker(&document.Marker{ID: "mark_a"}, txn)
	rec.ExtendDuration(42, txn)
	rec.EndTransaction()

	if got := rec.CallsOf("clip"); len(got) != 1 || got[0].ID != "clip_a" {
		t.Errorf("CallsOf(clip) = %v, want one clip_a call", got)
	}
	if got := rec.CallsOf("delete_clip"); len(got) != 1 || got[0].ID != "clip_b" {
		t.Errorf("CallsOf(delete_clip) = %v, want one clip_b call", got)
	}
	if got := rec.CallsOf("duration"); len(got) != 1 || got[0].Seconds != 42 {
		t.Errorf("CallsOf(duration) = %v, want one 42s call", got)
	}
	if got := rec.CallsOf("transition"); got != nil {
		t.Errorf("CallsOf(transition) = %v, want none", got)
	}
}

func TestChangeSet(t *testing.T) {
	tests := []struct {
		cs   ChangeSet
		want string
	}{
		{0, ""},
		{ChangedClips, "clips"},
		{ChangedClips | ChangedDuration, "clips,duration"},
		{ChangedEffects | ChangedMarkers | ChangedLayers, "effects,markers,layers"},
	}
	for _, tt := range tests {
		if got := tt.cs.String(); got != tt.want {
			t.Errorf("ChangeSet(%b).String() = %q, want %q", tt.cs, got, tt.want)
		}
	}

	cs := ChangedClips | ChangedDuration
	if !cs.Has(ChangedClips) || !cs.Has(ChangedDuration) {
		t.Error("Has should report both set buckets")
	}
	if cs.Has(ChangedMarkers) {
		t.Error("Has reported an unset bucket")
	}
}

func TestNotifier(t *testing.T) {
	var n Notifier
	var got []ChangeSet
	n.Subscribe(func(cs ChangeSet) { got = append(got, cs) })
	n.Subscribe(func(cs ChangeSet) { got = append(got, cs) })

	n.Publish(ChangedClips)
	n.Publish(0) // empty sets are dropped

	if len(got) != 2 {
		t.Fatalf("deliveries = %d, want 2 (one per listener, empty set skipped)", len(got))
	}
	for _, cs := range got {
		if cs != ChangedClips {
			t.Errorf("delivered %v, want ChangedClips", cs)
		}
	}
}
