package keyframe

import (
	"testing"

	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/editor"
)

// moveTestCtx builds a 30fps doc with one 10s clip (valid frames 1..301)
// holding an alpha curve at frames 1, 151, 301 and an effect curve.
func moveTestCtx() *editor.Context {
	doc := document.NewDoc(document.Project{
		FPS:      document.Fraction{Num: 30, Den: 1},
		Duration: 300,
	})
	alpha := &document.Curve{Points: []document.Point{
		{Co: document.Coordinate{X: 1, Y: 0}, Interpolation: document.InterpLinear},
		{Co: document.Coordinate{X: 151, Y: 1}, Interpolation: document.InterpLinear},
		{Co: document.Coordinate{X: 301, Y: 0}, Interpolation: document.InterpLinear},
	}}
	doc.Clips["clip_a"] = &document.Clip{
		ID: "clip_a", Layer: 1, Position: 0, Start: 0, End: 10,
		Properties: map[string]*document.Property{
			document.PropAlpha: document.CurveProperty(alpha),
		},
		Effects: []*document.Effect{{
			ID: "fx_blur",
			Properties: map[string]*document.Property{
				"radius": document.CurveProperty(document.NewLinearCurve(1, 0, 61, 4)),
			},
		}},
	}
	return editor.NewContext(doc, nil)
}

func TestCurveFor(t *testing.T) {
	ctx := moveTestCtx()

	if c := CurveFor(ctx, PointRef{OwnerID: "clip_a", Property: document.PropAlpha}); c == nil || c.Len() != 3 {
		t.Errorf("clip curve = %v, want 3 points", c)
	}
	if c := CurveFor(ctx, PointRef{OwnerID: "clip_a", EffectID: "fx_blur", Property: "radius"}); c == nil || c.Len() != 2 {
		t.Errorf("effect curve = %v, want 2 points", c)
	}
	if c := CurveFor(ctx, PointRef{OwnerID: "clip_a", Property: "missing"}); c != nil {
		t.Errorf("missing property = %v, want nil", c)
	}
}

func TestClampDelta(t *testing.T) {
	ctx := moveTestCtx()

	tests := []struct {
		name  string
		refs  []PointRef
		delta float64
		want  float64
	}{
		{
			"unconstrained",
			[]PointRef{{OwnerID: "clip_a", Property: document.PropAlpha, Frame: 151}},
			20, 20,
		},
		{
			"clamped at last frame",
			[]PointRef{{OwnerID: "clip_a", Property: document.PropAlpha, Frame: 295}},
			20, 6,
		},
		{
			"clamped at frame one",
			[]PointRef{{OwnerID: "clip_a", Property: document.PropAlpha, Frame: 5}},
			-20, -4,
		},
		{
			"most restrictive lane wins",
			[]PointRef{
				{OwnerID: "clip_a", Property: document.PropAlpha, Frame: 151},
				{OwnerID: "clip_a", Property: document.PropAlpha, Frame: 295},
			},
			20, 6,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampDelta(ctx, tt.refs, tt.delta); got != tt.want {
				t.Errorf("ClampDelta(%v) = %v, want %v", tt.delta, got, tt.want)
			}
		})
	}
}

func TestMovePoints(t *testing.T) {
	ctx := moveTestCtx()
	refs := []PointRef{{OwnerID: "clip_a", Property: document.PropAlpha, Frame: 151}}

	applied, moved := MovePoints(ctx, refs, 30)
	if applied != 30 {
		t.Fatalf("applied = %v, want 30", applied)
	}
	if moved[0].Frame != 181 {
		t.Errorf("moved ref frame = %v, want 181", moved[0].Frame)
	}

	c := CurveFor(ctx, refs[0])
	if _, ok := c.PointAt(181); !ok {
		t.Error("no point at frame 181 after move")
	}
	if _, ok := c.PointAt(151); ok {
		t.Error("point still at frame 151 after move")
	}
	if !c.Monotonic() {
		t.Error("curve not monotonic after move")
	}
}

func TestMovePoints_LandingReplacesStationary(t *testing.T) {
	ctx := moveTestCtx()
	// Move the frame-1 point (value 0) onto frame 151 (value 1).
	refs := []PointRef{{OwnerID: "clip_a", Property: document.PropAlpha, Frame: 1}}

	applied, _ := MovePoints(ctx, refs, 150)
	if applied != 150 {
		t.Fatalf("applied = %v, want 150", applied)
	}

	c := CurveFor(ctx, refs[0])
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2 (landed-on point replaced)", c.Len())
	}
	p, _ := c.PointAt(151)
	if p == nil || p.Co.Y != 0 {
		t.Errorf("point at 151 = %+v, want the moved point's value 0", p)
	}
}

func TestMovePoints_GroupMovesInLockstep(t *testing.T) {
	ctx := moveTestCtx()
	refs := []PointRef{
		{OwnerID: "clip_a", Property: document.PropAlpha, Frame: 1},
		{OwnerID: "clip_a", Property: document.PropAlpha, Frame: 151},
	}

	applied, moved := MovePoints(ctx, refs, 10)
	if applied != 10 {
		t.Fatalf("applied = %v, want 10", applied)
	}
	c := CurveFor(ctx, refs[0])
	if c.Len() != 3 {
		t.Fatalf("len = %d, want 3 (group never collapses onto itself)", c.Len())
	}
	for i, want := range []float64{11, 161} {
		if moved[i].Frame != want {
			t.Errorf("moved[%d].Frame = %v, want %v", i, moved[i].Frame, want)
		}
	}
}
