// Package snap resolves drag/resize deltas to nearby candidate edges
// within a pixel tolerance, with hysteresis so two near-equal candidates
// do not flicker.
package snap

import (
	"math"

	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/editor"
	"github.com/cutline/cutline/backend-go/internal/geometry"
)

// DefaultTolerance is the snap radius in pixels.
const DefaultTolerance = 10

// CandidateKind records what a snap candidate came from.
type CandidateKind string

const (
	CandidateItemEdge    CandidateKind = "item-edge"
	CandidateMarker      CandidateKind = "marker"
	CandidatePlayhead    CandidateKind = "playhead"
	CandidateTimelineEnd CandidateKind = "timeline-end"
	CandidateKeyframe    CandidateKind = "keyframe"
	CandidateClipBound   CandidateKind = "clip-bound"
)

// Candidate is one edge a dragged edge may snap to, in world pixels.
type Candidate struct {
	X    float64
	Kind CandidateKind
	ID   string
}

// Engine holds per-gesture snap state. Reset it when a gesture ends.
type Engine struct {
	Tolerance float64

	locked    Candidate
	hasLocked bool
}

func NewEngine() *Engine {
	return &Engine{Tolerance: DefaultTolerance}
}

// Reset drops the hysteresis lock. Call on gesture exit.
func (e *Engine) Reset() { e.hasLocked = false }

// Delta corrects a proposed delta (world pixels) so that the nearest
// dragged edge lands exactly on the nearest candidate within tolerance.
// A previously locked candidate wins while it stays within tolerance.
// With no candidate in range the proposed delta is returned unmodified.
func (e *Engine) Delta(proposed float64, draggedEdges []float64, candidates []Candidate) float64 {
	if len(draggedEdges) == 0 || len(candidates) == 0 {
		return proposed
	}

	type match struct {
		cand Candidate
		dist float64 // signed: candidate - projected edge
	}
	var best *match

	consider := func(c Candidate, edge float64) {
		dist := c.X - (edge + proposed)
		if math.Abs(dist) > e.Tolerance {
			return
		}
		if best == nil || math.Abs(dist) < math.Abs(best.dist) {
			best = &match{cand: c, dist: dist}
		}
	}

	// Hysteresis: if the locked candidate is still in range of any edge,
	// keep it regardless of closer newcomers.
	if e.hasLocked {
		for _, edge := range draggedEdges {
			dist := e.locked.X - (edge + proposed)
			if math.Abs(dist) <= e.Tolerance {
				return proposed + dist
			}
		}
		e.hasLocked = false
	}

	for _, edge := range draggedEdges {
		for _, c := range candidates {
			consider(c, edge)
		}
	}

	if best == nil {
		return proposed
	}
	e.locked = best.cand
	e.hasLocked = true
	return proposed + best.dist
}

// CollectOptions selects which candidate families to gather.
type CollectOptions struct {
	// Exclude removes the dragged set's own edges from candidacy.
	Exclude map[string]bool

	// Keyframes enables keyframe-drag candidates: the world positions of
	// every other keyframe on the given item, plus the item's own clip
	// boundaries.
	Keyframes       bool
	KeyframeOwnerID string
	KeyframeSkip    func(property string, frame float64) bool
}

// Collect gathers the visible candidate edges: every clip/transition edge
// outside the dragged set, markers, the playhead, and the project's total
// duration edge. All positions are world pixels.
func Collect(ctx *editor.Context, vp geometry.Viewport, playhead float64, opts CollectOptions) []Candidate {
	pps := vp.PixelsPerSecond()
	var out []Candidate

	addItem := func(item document.Item) {
		id := item.ItemID()
		if opts.Exclude[id] {
			return
		}
		position, start, end := item.TimeRange()
		out = append(out,
			Candidate{X: position * pps, Kind: CandidateItemEdge, ID: id},
			Candidate{X: (position + (end - start)) * pps, Kind: CandidateItemEdge, ID: id},
		)
	}

	for _, c := range ctx.Doc.Clips {
		addItem(c)
	}
	for _, t := range ctx.Doc.Transitions {
		addItem(t)
	}
	for _, m := range ctx.Doc.Markers {
		out = append(out, Candidate{X: m.Position * pps, Kind: CandidateMarker, ID: m.ID})
	}
	out = append(out,
		Candidate{X: playhead * pps, Kind: CandidatePlayhead},
		Candidate{X: ctx.Doc.Project.Duration * pps, Kind: CandidateTimelineEnd},
	)

	if opts.Keyframes && opts.KeyframeOwnerID != "" {
		out = append(out, keyframeCandidates(ctx, pps, opts)...)
	}
	return out
}

// keyframeCandidates yields the seconds-position of every other keyframe
// on the owner item's properties, plus its clip boundaries.
func keyframeCandidates(ctx *editor.Context, pps float64, opts CollectOptions) []Candidate {
	item, ok := ctx.Doc.Item(opts.KeyframeOwnerID)
	if !ok {
		return nil
	}
	position, start, end := item.TimeRange()
	fps := ctx.FPS()

	out := []Candidate{
		{X: position * pps, Kind: CandidateClipBound, ID: item.ItemID()},
		{X: (position + (end - start)) * pps, Kind: CandidateClipBound, ID: item.ItemID()},
	}
	for name, curve := range document.AnimatedCurves(item.PropertyMap()) {
		for _, p := range curve.Points {
			if opts.KeyframeSkip != nil && opts.KeyframeSkip(name, p.Co.X) {
				continue
			}
			seconds := position + document.SecondsOf(p.Co.X, fps)
			out = append(out, Candidate{X: seconds * pps, Kind: CandidateKeyframe, ID: item.ItemID()})
		}
	}
	return out
}
