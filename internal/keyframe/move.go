package keyframe

import (
	"math"

	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/editor"
)

// CurveFor resolves a ref to its curve through the document arena.
func CurveFor(ctx *editor.Context, ref PointRef) *document.Curve {
	if ref.EffectID != "" {
		_, fx, ok := ctx.Doc.FindEffect(ref.EffectID)
		if !ok {
			return nil
		}
		return document.CurveOf(fx.Properties, ref.Property)
	}
	item, ok := ctx.Doc.Item(ref.OwnerID)
	if !ok {
		return nil
	}
	return document.CurveOf(item.PropertyMap(), ref.Property)
}

// validRange returns the inclusive frame range a point on the given owner
// may occupy: [1, last frame of the owner's trimmed span].
func validRange(ctx *editor.Context, ref PointRef) (lo, hi float64) {
	item, ok := ctx.Doc.Item(ref.OwnerID)
	if !ok {
		return 1, math.MaxFloat64
	}
	_, start, end := item.TimeRange()
	hi = math.Round((end-start)*ctx.FPS().Float()) + 1
	return 1, hi
}

// ClampDelta restricts a proposed frame delta so that no referenced point
// leaves its lane's valid range. When points from multiple properties with
// different ranges are dragged together, the most restrictive lane wins.
func ClampDelta(ctx *editor.Context, refs []PointRef, delta float64) float64 {
	for _, ref := range refs {
		lo, hi := validRange(ctx, ref)
		if ref.Frame+delta < lo {
			delta = lo - ref.Frame
		}
		if ref.Frame+delta > hi {
			delta = hi - ref.Frame
		}
	}
	return math.Round(delta)
}

// MovePoints shifts every referenced keyframe by a whole-frame delta,
// after clamping. Dragged points that land on an existing point replace
// it (most-recently-edited wins); dragged points never collapse onto each
// other because they all move by the same delta. Returns the applied
// delta and the updated refs.
func MovePoints(ctx *editor.Context, refs []PointRef, delta float64) (float64, []PointRef) {
	delta = ClampDelta(ctx, refs, delta)
	if delta == 0 || len(refs) == 0 {
		return 0, refs
	}

	// Group refs per curve so each curve is rewritten once.
	type group struct {
		curve  *document.Curve
		frames map[float64]bool
	}
	groups := make(map[string]*group)
	keyOf := func(ref PointRef) string {
		return ref.OwnerID + "\x00" + ref.EffectID + "\x00" + ref.Property
	}

	for _, ref := range refs {
		c := CurveFor(ctx, ref)
		if c == nil {
			continue
		}
		g, ok := groups[keyOf(ref)]
		if !ok {
			g = &group{curve: c, frames: make(map[float64]bool)}
			groups[keyOf(ref)] = g
		}
		g.frames[ref.Frame] = true
	}

	for _, g := range groups {
		moved := make([]document.Point, 0, len(g.frames))
		kept := g.curve.Points[:0]
		for _, pt := range g.curve.Points {
			if g.frames[pt.Co.X] {
				pt.Co.X = math.Round(pt.Co.X + delta)
				moved = append(moved, pt)
			} else {
				kept = append(kept, pt)
			}
		}
		// Moved points go last so Dedupe keeps them over any stationary
		// point they landed on.
		g.curve.Points = append(kept, moved...)
		g.curve.Sort()
		g.curve.Dedupe()
	}

	out := make([]PointRef, len(refs))
	for i, ref := range refs {
		ref.Frame = math.Round(ref.Frame + delta)
		out[i] = ref
	}
	return delta, out
}
