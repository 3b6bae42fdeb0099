// Package repeat synthesizes looped or ping-pong repetitions of a clip's
// trimmed span by resampling and repositioning every animation curve the
// clip owns. The pre-repeat state is cached on the clip so a later reset
// restores it exactly, and re-running with different parameters always
// recomputes from that original, never from a previous repeat's output.
package repeat

import (
	"errors"
	"math"
	"strings"

	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/editor"
	"github.com/cutline/cutline/backend-go/internal/update"
)

// Pattern selects how passes connect.
type Pattern string

const (
	Loop     Pattern = "loop"
	PingPong Pattern = "pingpong"
)

var (
	ErrTooFewPasses = errors.New("repeat: passes must be at least 2")
	ErrInvalidRamp  = errors.New("repeat: ramp must be greater than -1")
	ErrInvalidDelay = errors.New("repeat: delay must not be negative")
	ErrNotRepeated  = errors.New("repeat: clip has no repeat to reset")
)

// Apply lays the clip's trimmed span out passes times. direction is the
// initial playback orientation (+1 forward, -1 reverse); ping-pong flips
// it after every pass. ramp compounds per pass: pass k plays at
// speed (1+ramp)^k, so its segment occupies span/|speed| frames.
func Apply(ctx *editor.Context, clip *document.Clip, pattern Pattern, direction int, passes int, delayFrames float64, ramp float64) error {
	if passes < 2 {
		return ErrTooFewPasses
	}
	if ramp <= -1 {
		return ErrInvalidRamp
	}
	if delayFrames < 0 {
		return ErrInvalidDelay
	}
	if direction >= 0 {
		direction = 1
	} else {
		direction = -1
	}

	fps := ctx.FPS()

	// First invocation snapshots the pre-repeat state. Later invocations
	// restore from it before recomputing.
	if clip.RepeatSource == nil {
		src := &document.RepeatSource{
			Start:    clip.Start,
			End:      clip.End,
			Duration: clip.Duration(),
			Curves:   make(map[string]*document.Curve),
		}
		for key, curve := range document.AllCurves(clip) {
			src.Curves[key] = curve.Clone()
		}
		clip.RepeatSource = src
	} else {
		restore(clip)
	}
	src := clip.RepeatSource

	startX := document.FrameOf(src.Start, fps)
	endX := document.FrameOf(src.End, fps)
	span := endX - startX
	if span <= 0 {
		return ErrNotRepeated
	}

	txn := ctx.Updates.BeginTransaction()
	defer ctx.Updates.EndTransaction()

	// The time curve drives playback; other curves resample in lockstep.
	timeOrig := src.Curves[document.PropTime]
	if timeOrig == nil {
		timeOrig = document.NewLinearCurve(startX, startX, endX, endX)
	}

	type segment struct {
		start    float64 // output frame where the pass begins
		length   float64
		reversed bool
		hardCut  bool
	}
	var segs []segment

	cursor := startX
	dir := direction
	for k := 0; k < passes; k++ {
		speed := math.Pow(1+ramp, float64(k))
		scale := 1 / math.Abs(speed)
		segLen := math.Round(span * scale)
		segs = append(segs, segment{
			start:    cursor,
			length:   segLen,
			reversed: dir < 0,
			hardCut:  pattern == Loop && k > 0,
		})
		cursor += segLen
		if delayFrames > 0 && k < passes-1 {
			cursor += delayFrames
		}
		if pattern == PingPong {
			dir = -dir
		}
	}
	totalEndX := cursor

	// Normalize the time curve over the trimmed span, then lay it out
	// segment by segment.
	if timeOrig.MinX() != startX || timeOrig.MaxX() != endX {
		timeOrig = document.NewLinearCurve(startX, timeOrig.ValueAt(startX), endX, timeOrig.ValueAt(endX))
	}
	newTime := &document.Curve{}
	for i, seg := range segs {
		piece := timeOrig.Clone()
		piece.ScaleX(seg.length/span, startX, startX, startX+seg.length)
		if seg.reversed {
			piece.MirrorX(2*startX + seg.length)
		}
		piece.ShiftX(seg.start - startX)
		// A loop pass starts with a hard cut back to the loop start, never
		// a cross-fade. A pass after a delay gap steps the same way, so the
		// gap holds the previous pass's final value. The delay sits between
		// passes only; nothing extends past the last pass.
		if len(piece.Points) > 0 && (seg.hardCut || (delayFrames > 0 && i > 0)) {
			piece.Points[0].Interpolation = document.InterpConstant
		}
		newTime.Points = append(newTime.Points, piece.Points...)
	}
	newTime.Sort()
	newTime.Dedupe()
	clip.Properties[document.PropTime] = document.CurveProperty(newTime)

	// Resample every other animated curve into the same segments so that,
	// for example, a zoom keyframe repeats in lockstep with the content.
	for key, orig := range src.Curves {
		if key == document.PropTime {
			continue
		}
		target := curveByKey(clip, key)
		if target == nil {
			continue
		}
		resampled := &document.Curve{}
		for i, seg := range segs {
			scale := seg.length / span
			piece := orig.Clone()
			piece.ScaleX(scale, startX, startX, startX+seg.length)
			if seg.reversed {
				piece.MirrorX(2*startX + seg.length)
			}
			piece.ShiftX(seg.start - startX)
			if delayFrames > 0 && i > 0 && len(piece.Points) > 0 {
				// Hold the previous pass's final value through the gap.
				piece.Points[0].Interpolation = document.InterpConstant
			}
			resampled.Points = append(resampled.Points, piece.Points...)
		}
		resampled.Sort()
		resampled.Dedupe()
		resampled.EnsureMonotonic()
		target.Points = resampled.Points
	}

	clip.End = src.Start + document.SecondsOf(totalEndX, fps) - document.SecondsOf(startX, fps)
	clip.End = document.RoundToFrame(clip.End, fps)

	ctx.ExtendDuration(clip.Position+clip.Duration(), txn)
	ctx.Updates.UpdateClip(clip, false, txn)
	ctx.Changed(update.ChangedClips)
	return nil
}

// Reset restores the exact pre-repeat trim and curves from the side-cache
// and clears it.
func Reset(ctx *editor.Context, clip *document.Clip) error {
	if clip.RepeatSource == nil {
		return ErrNotRepeated
	}
	txn := ctx.Updates.BeginTransaction()
	defer ctx.Updates.EndTransaction()

	restore(clip)
	clip.RepeatSource = nil

	ctx.Updates.UpdateClip(clip, false, txn)
	ctx.Changed(update.ChangedClips)
	return nil
}

// restore rewinds trim and curves to the cached pre-repeat state. Curves
// the repeat synthesized (present now, absent from the cache) are removed.
func restore(clip *document.Clip) {
	src := clip.RepeatSource
	clip.Start, clip.End = src.Start, src.End

	for key := range document.AllCurves(clip) {
		if _, ok := src.Curves[key]; !ok {
			removeCurveByKey(clip, key)
		}
	}
	for key, cached := range src.Curves {
		if target := curveByKey(clip, key); target != nil {
			target.Points = cached.Clone().Points
		}
	}
}

// curveByKey resolves an AllCurves key ("prop" or "effectID/prop") back to
// the live curve.
func curveByKey(clip *document.Clip, key string) *document.Curve {
	if fxID, prop, ok := strings.Cut(key, "/"); ok {
		for _, fx := range clip.Effects {
			if fx.ID == fxID {
				return document.CurveOf(fx.Properties, prop)
			}
		}
		return nil
	}
	return document.CurveOf(clip.Properties, key)
}

func removeCurveByKey(clip *document.Clip, key string) {
	if fxID, prop, ok := strings.Cut(key, "/"); ok {
		for _, fx := range clip.Effects {
			if fx.ID == fxID {
				delete(fx.Properties, prop)
			}
		}
		return
	}
	delete(clip.Properties, key)
}
