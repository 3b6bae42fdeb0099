package snap

import (
	"testing"

	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/editor"
	"github.com/cutline/cutline/backend-go/internal/geometry"
)

func TestEngine_Delta(t *testing.T) {
	cands := []Candidate{{X: 100, Kind: CandidateItemEdge, ID: "other"}}

	tests := []struct {
		name     string
		proposed float64
		edges    []float64
		want     float64
	}{
		{"snaps inside tolerance", 95, []float64{0}, 100},
		{"exactly at tolerance", 90, []float64{0}, 100},
		{"just outside tolerance", 89, []float64{0}, 89},
		{"no edges passes through", 95, nil, 95},
		{"nearest edge wins", 95, []float64{0, 3}, 97},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine()
			if got := e.Delta(tt.proposed, tt.edges, cands); got != tt.want {
				t.Errorf("Delta(%v) = %v, want %v", tt.proposed, got, tt.want)
			}
		})
	}
}

func TestEngine_DeltaHysteresis(t *testing.T) {
	e := NewEngine()
	cands := []Candidate{
		{X: 100, Kind: CandidateItemEdge, ID: "a"},
		{X: 105, Kind: CandidateMarker, ID: "b"},
	}
	edges := []float64{0}

	// First move locks onto 100 (closest).
	if got := e.Delta(95, edges, cands); got != 100 {
		t.Fatalf("first Delta = %v, want 100", got)
	}
	// 105 is now closer, but the lock holds while 100 stays in range.
	if got := e.Delta(104, edges, cands); got != 100 {
		t.Errorf("locked Delta = %v, want 100 (hysteresis)", got)
	}
	// After Reset the closer candidate wins.
	e.Reset()
	if got := e.Delta(104, edges, cands); got != 105 {
		t.Errorf("post-reset Delta = %v, want 105", got)
	}
}

func TestEngine_DeltaLockReleasesOutOfRange(t *testing.T) {
	e := NewEngine()
	cands := []Candidate{
		{X: 100, Kind: CandidateItemEdge, ID: "a"},
		{X: 200, Kind: CandidateItemEdge, ID: "b"},
	}
	edges := []float64{0}

	if got := e.Delta(95, edges, cands); got != 100 {
		t.Fatalf("first Delta = %v, want 100", got)
	}
	// The locked candidate fell out of range; the new one takes over.
	if got := e.Delta(195, edges, cands); got != 200 {
		t.Errorf("Delta after leaving range = %v, want 200", got)
	}
}

func TestCollect(t *testing.T) {
	doc := document.NewDoc(document.Project{
		FPS:      document.Fraction{Num: 30, Den: 1},
		Duration: 300,
	})
	doc.Tracks["track_1"] = &document.Track{ID: "track_1", Number: 1}
	doc.Clips["clip_a"] = &document.Clip{ID: "clip_a", Layer: 1, Position: 2, Start: 0, End: 4}
	doc.Markers["mark_a"] = &document.Marker{ID: "mark_a", Position: 5}
	ctx := editor.NewContext(doc, nil)
	vp := geometry.DefaultViewport(1280, 720) // 50 px/s

	got := Collect(ctx, vp, 1.5, CollectOptions{})

	wantX := map[float64]CandidateKind{
		100:   CandidateItemEdge, // clip left
		300:   CandidateItemEdge, // clip right
		250:   CandidateMarker,
		75:    CandidatePlayhead,
		15000: CandidateTimelineEnd,
	}
	if len(got) != len(wantX) {
		t.Fatalf("got %d candidates, want %d: %+v", len(got), len(wantX), got)
	}
	for _, c := range got {
		kind, ok := wantX[c.X]
		if !ok {
			t.Errorf("unexpected candidate at x=%v", c.X)
			continue
		}
		if c.Kind != kind {
			t.Errorf("candidate at x=%v has kind %v, want %v", c.X, c.Kind, kind)
		}
	}
}

func TestCollect_ExcludesDraggedItems(t *testing.T) {
	doc := document.NewDoc(document.Project{
		FPS:      document.Fraction{Num: 30, Den: 1},
		Duration: 300,
	})
	doc.Clips["clip_a"] = &document.Clip{ID: "clip_a", Layer: 1, Position: 2, Start: 0, End: 4}
	ctx := editor.NewContext(doc, nil)
	vp := geometry.DefaultViewport(1280, 720)

	got := Collect(ctx, vp, 0, CollectOptions{Exclude: map[string]bool{"clip_a": true}})
	for _, c := range got {
		if c.Kind == CandidateItemEdge {
			t.Errorf("excluded item still produced edge candidate: %+v", c)
		}
	}
}

func TestCollect_KeyframeCandidates(t *testing.T) {
	doc := document.NewDoc(document.Project{
		FPS:      document.Fraction{Num: 30, Den: 1},
		Duration: 300,
	})
	doc.Clips["clip_a"] = &document.Clip{
		ID: "clip_a", Layer: 1, Position: 2, Start: 0, End: 4,
		Properties: map[string]*document.Property{
			document.PropAlpha: document.CurveProperty(document.NewLinearCurve(1, 0, 61, 1)),
		},
	}
	ctx := editor.NewContext(doc, nil)
	vp := geometry.DefaultViewport(1280, 720)

	got := Collect(ctx, vp, 0, CollectOptions{
		Keyframes:       true,
		KeyframeOwnerID: "clip_a",
		KeyframeSkip: func(property string, frame float64) bool {
			return frame == 1 // the dragged point itself
		},
	})

	var keyframes, bounds int
	for _, c := range got {
		switch c.Kind {
		case CandidateKeyframe:
			keyframes++
			// Frame 61 on a clip at 2s is 4s -> world x 200.
			if c.X != 200 {
				t.Errorf("keyframe candidate at x=%v, want 200", c.X)
			}
		case CandidateClipBound:
			bounds++
		}
	}
	if keyframes != 1 {
		t.Errorf("keyframe candidates = %d, want 1 (dragged point skipped)", keyframes)
	}
	if bounds != 2 {
		t.Errorf("clip bound candidates = %d, want 2", bounds)
	}
}
