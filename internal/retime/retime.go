// Package retime rescales a clip's trim and every animation curve it owns
// to a new duration, optionally reversing playback direction.
package retime

import (
	"errors"

	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/editor"
	"github.com/cutline/cutline/backend-go/internal/update"
)

// ErrInvalidDuration rejects a retime whose requested duration is not
// positive. The clip is left untouched.
var ErrInvalidDuration = errors.New("retime: requested duration must be positive")

// Direction selects playback orientation after the retime.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

// KeepPosition passed as newPosition leaves the clip where it is.
const KeepPosition = -1

// Retime rescales the clip to end at newEnd seconds (source time). Every
// curve the clip owns, including nested effect curves and the time-remap
// curve, is scaled in frame space anchored at the clip's in-point. Reverse
// additionally mirrors the time curve so the content plays backward with
// the same shape.
func Retime(ctx *editor.Context, clip *document.Clip, newEnd, newPosition float64, direction Direction) error {
	fps := ctx.FPS()
	newEnd = document.RoundToFrame(newEnd, fps)
	if newEnd-clip.Start <= 0 {
		return ErrInvalidDuration
	}

	startX := document.FrameOf(clip.Start, fps)
	oldEndX := document.FrameOf(clip.End, fps)
	newEndX := document.FrameOf(newEnd, fps)
	if oldEndX-startX <= 0 {
		return ErrInvalidDuration
	}
	scale := (newEndX - startX) / (oldEndX - startX)

	txn := ctx.Updates.BeginTransaction()
	defer ctx.Updates.EndTransaction()

	for name, curve := range document.AllCurves(clip) {
		curve.ScaleX(scale, startX, startX, newEndX)
		if direction == Reverse && name == document.PropTime {
			curve.MirrorX(curve.MinX() + curve.MaxX())
		}
		curve.EnsureMonotonic()
	}

	clip.End = newEnd
	if newPosition >= 0 {
		clip.Position = document.RoundToFrame(newPosition, fps)
	}

	ctx.ExtendDuration(clip.Position+clip.Duration(), txn)
	ctx.Updates.UpdateClip(clip, false, txn)
	ctx.Changed(update.ChangedClips)
	return nil
}
