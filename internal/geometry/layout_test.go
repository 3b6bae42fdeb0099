package geometry

import (
	"testing"

	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/editor"
)

// testDoc builds two tracks (2 on top, 1 below), one clip on track 1 at
// 2s..6s, and one transition on track 1 at 7s..8s.
func testDoc() *document.Doc {
	doc := document.NewDoc(document.Project{
		ID:       "proj_test",
		FPS:      document.Fraction{Num: 30, Den: 1},
		Duration: 300,
	})
	doc.Tracks["track_1"] = &document.Track{ID: "track_1", Number: 1, Label: "Track 1"}
	doc.Tracks["track_2"] = &document.Track{ID: "track_2", Number: 2, Label: "Track 2"}
	doc.Clips["clip_a"] = &document.Clip{
		ID: "clip_a", Layer: 1, Position: 2, Start: 0, End: 4,
		Properties: map[string]*document.Property{
			document.PropAlpha: document.CurveProperty(document.NewLinearCurve(1, 0, 121, 1)),
		},
	}
	doc.Transitions["tran_a"] = &document.Transition{
		ID: "tran_a", Layer: 1, Position: 7, Start: 0, End: 1,
		Properties: map[string]*document.Property{},
	}
	return doc
}

func testEngine() (*Engine, *editor.Context) {
	doc := testDoc()
	ctx := editor.NewContext(doc, nil)
	// 1280x720, 50 px/s, panel 160 wide, ruler 32 tall, track stride 64.
	return NewEngine(DefaultViewport(1280, 720)), ctx
}

func TestEngine_Layout(t *testing.T) {
	e, ctx := testEngine()
	l := e.Ensure(ctx)

	// Track 2 renders on top, track 1 below it.
	if r := l.TrackRects["track_2"]; r.Y != 32 {
		t.Errorf("track 2 top = %v, want 32", r.Y)
	}
	if r := l.TrackRects["track_1"]; r.Y != 96 {
		t.Errorf("track 1 top = %v, want 96", r.Y)
	}

	clip := l.ClipRects["clip_a"]
	want := Rect{X: 260, Y: 96, W: 200, H: 62}
	if clip != want {
		t.Errorf("clip rect = %+v, want %+v", clip, want)
	}

	tran := l.TransitionRects["tran_a"]
	if tran.X != 510 || tran.W != 50 || tran.H != 31 {
		t.Errorf("transition rect = %+v, want X=510 W=50 H=31", tran)
	}

	if l.EndHandleX != 300*50 {
		t.Errorf("end handle = %v, want 15000", l.EndHandleX)
	}
}

func TestEngine_DirtyRecompute(t *testing.T) {
	e, ctx := testEngine()
	e.Ensure(ctx)

	ctx.Doc.Clips["clip_a"].Position = 3

	// Without MarkDirty the cached rect survives.
	if r := e.Ensure(ctx).ClipRects["clip_a"]; r.X != 260 {
		t.Fatalf("rect recomputed without MarkDirty: X = %v", r.X)
	}
	e.MarkDirty()
	if r := e.Ensure(ctx).ClipRects["clip_a"]; r.X != 310 {
		t.Errorf("rect after MarkDirty = %v, want X=310", r.X)
	}
}

func TestEngine_Hit(t *testing.T) {
	e, ctx := testEngine()

	tests := []struct {
		name     string
		x, y     float64
		wantKind HitKind
		wantID   string
		wantEdge Edge
	}{
		{"clip body", 300, 100, HitClip, "clip_a", EdgeNone},
		{"clip left edge", 262, 100, HitClip, "clip_a", EdgeLeft},
		{"clip right edge", 458, 100, HitClip, "clip_a", EdgeRight},
		{"transition body", 530, 100, HitTransition, "tran_a", EdgeNone},
		{"ruler", 200, 10, HitRuler, "", EdgeNone},
		{"track name", 10, 100, HitTrackName, "track_1", EdgeNone},
		{"track toolbar button", 140, 40, HitTrackButton, "track_2", EdgeNone},
		{"empty track is background", 700, 40, HitBackground, "track_2", EdgeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Hit(ctx, tt.x, tt.y)
			if got.Kind != tt.wantKind {
				t.Fatalf("Hit(%v,%v).Kind = %v, want %v", tt.x, tt.y, got.Kind, tt.wantKind)
			}
			if tt.wantID != "" && got.ID != tt.wantID {
				t.Errorf("ID = %v, want %v", got.ID, tt.wantID)
			}
			if got.Edge != tt.wantEdge {
				t.Errorf("Edge = %v, want %v", got.Edge, tt.wantEdge)
			}
		})
	}
}

func TestEngine_HitTimelineResizeHandle(t *testing.T) {
	e, ctx := testEngine()
	ctx.Doc.Project.Duration = 10 // handle at world x 500, view x 660
	e.MarkDirty()

	if got := e.Hit(ctx, 660, 10); got.Kind != HitTimelineResize {
		t.Errorf("Hit at end handle = %v, want %v", got.Kind, HitTimelineResize)
	}
	if got := e.Hit(ctx, 680, 10); got.Kind != HitRuler {
		t.Errorf("Hit past end handle = %v, want %v", got.Kind, HitRuler)
	}
}

func TestEngine_HitMarkerOnRuler(t *testing.T) {
	e, ctx := testEngine()
	ctx.Doc.Markers["mark_a"] = &document.Marker{ID: "mark_a", Position: 5}
	e.MarkDirty()

	// Marker sits at view x 410 (±6), just under the ruler line.
	got := e.Hit(ctx, 408, 20)
	if got.Kind != HitRuler || got.ID != "mark_a" {
		t.Errorf("Hit = %+v, want ruler hit carrying marker id", got)
	}
}

func TestEngine_KeyframeMarksFollowSelection(t *testing.T) {
	e, ctx := testEngine()

	if l := e.Ensure(ctx); len(l.KeyframeMarks) != 0 {
		t.Fatalf("marks with empty selection = %d, want 0", len(l.KeyframeMarks))
	}

	ctx.Selection.Add(editor.Ref{ID: "clip_a", Kind: document.KindClip}, false)
	e.MarkDirty()
	l := e.Ensure(ctx)
	if len(l.KeyframeMarks) != 2 {
		t.Fatalf("marks = %d, want 2", len(l.KeyframeMarks))
	}
	// Frame 121 on a clip at 2s is 2 + 4 = 6s -> world x 300.
	var found bool
	for _, m := range l.KeyframeMarks {
		if m.Frame == 121 && m.WorldX == 300 {
			found = true
		}
	}
	if !found {
		t.Errorf("no mark at frame 121 / world x 300: %+v", l.KeyframeMarks)
	}
}

func TestEngine_ScrollClampsAtZero(t *testing.T) {
	e, _ := testEngine()
	e.Scroll(-100, -100)
	vp := e.Viewport()
	if vp.ScrollX != 0 || vp.ScrollY != 0 {
		t.Errorf("scroll = (%v,%v), want (0,0)", vp.ScrollX, vp.ScrollY)
	}
}

func TestViewport_Projections(t *testing.T) {
	vp := DefaultViewport(1280, 720)
	vp.ScrollX = 40

	if got := vp.PixelsPerSecond(); got != 50 {
		t.Fatalf("pps = %v, want 50", got)
	}
	if got := vp.WorldXToView(140); got != 260 {
		t.Errorf("WorldXToView(140) = %v, want 260", got)
	}
	if got := vp.ViewXToWorld(260); got != 140 {
		t.Errorf("ViewXToWorld(260) = %v, want 140", got)
	}
	if got := vp.ViewXToTime(260); got != 2.8 {
		t.Errorf("ViewXToTime(260) = %v, want 2.8", got)
	}
}
