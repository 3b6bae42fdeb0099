// Package cutter splits, trims, and ripple-shifts clips and transitions
// at a point in time. Multi-object slices are one batch: all touched
// objects share one undo transaction and downstream recomputation fires
// once for the whole batch.
package cutter

import (
	"errors"

	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/editor"
	"github.com/cutline/cutline/backend-go/internal/typeid"
	"github.com/cutline/cutline/backend-go/internal/update"
)

// Mode selects which side of the cut survives.
type Mode string

const (
	KeepLeft  Mode = "keep_left"
	KeepRight Mode = "keep_right"
	KeepBoth  Mode = "keep_both"
)

var ErrUnknownMode = errors.New("cutter: unknown slice mode")

// Slice cuts every listed object at atTime. Objects the cut does not fall
// strictly inside, and objects on locked tracks, are skipped silently.
// Returns the clips whose media changed, so the caller can invalidate
// waveforms once for the whole batch.
func Slice(ctx *editor.Context, ids []string, mode Mode, atTime float64, ripple bool) ([]*document.Clip, error) {
	switch mode {
	case KeepLeft, KeepRight, KeepBoth:
	default:
		return nil, ErrUnknownMode
	}

	fps := ctx.FPS()
	rate := fps.Float()
	cut := document.RoundToFrame(atTime, fps)
	if mode == KeepLeft && rate > 0 {
		// The cut point belongs to the right-hand piece.
		cut += 1 / rate
		cut = document.RoundToFrame(cut, fps)
	}

	txn := ctx.Updates.BeginTransaction()
	defer ctx.Updates.EndTransaction()

	var touched []*document.Clip

	for _, id := range ids {
		item, ok := ctx.Doc.Item(id)
		if !ok {
			continue
		}
		if ctx.Doc.TrackLocked(item.TrackNumber()) {
			continue
		}
		position, start, end := item.TimeRange()
		duration := end - start
		if cut <= position || cut >= position+duration {
			continue
		}

		removed := sliceItem(ctx, item, mode, cut, txn)
		if c, isClip := item.(*document.Clip); isClip {
			touched = append(touched, c)
		}

		if ripple && removed > 0 {
			rippleLeft(ctx, item.TrackNumber(), cut, removed, txn)
		}
	}

	ctx.Changed(update.ChangedClips)
	return touched, nil
}

// sliceItem cuts one object and returns the timeline duration removed
// (zero for keep_both).
func sliceItem(ctx *editor.Context, item document.Item, mode Mode, cut float64, txn string) float64 {
	position, start, end := item.TimeRange()
	offset := cut - position // seconds into the piece

	switch mode {
	case KeepLeft:
		item.SetTimeRange(position, start, start+offset)
		rewindow(item)
		persistItem(ctx, item, txn)
		return (end - start) - offset

	case KeepRight:
		item.SetTimeRange(cut, start+offset, end)
		rewindow(item)
		persistItem(ctx, item, txn)
		return offset

	case KeepBoth:
		// The original becomes the left piece; a duplicate with fresh
		// identity becomes the right piece.
		item.SetTimeRange(position, start, start+offset)
		switch v := item.(type) {
		case *document.Clip:
			right := DuplicateClip(v)
			right.Position = cut
			right.Start = v.End
			right.End = end
			ctx.Doc.Clips[right.ID] = right
			rewindow(v)
			rewindow(right)
			ctx.Updates.UpdateClip(v, false, txn)
			ctx.Updates.UpdateClip(right, false, txn)
		case *document.Transition:
			right := duplicateTransition(v)
			right.Position = cut
			right.Start = v.End
			right.End = end
			ctx.Doc.Transitions[right.ID] = right
			ctx.Updates.UpdateTransition(v, false, txn)
			ctx.Updates.UpdateTransition(right, false, txn)
		}
		return 0
	}
	return 0
}

func persistItem(ctx *editor.Context, item document.Item, txn string) {
	switch v := item.(type) {
	case *document.Clip:
		ctx.Updates.UpdateClip(v, false, txn)
	case *document.Transition:
		ctx.Updates.UpdateTransition(v, false, txn)
	}
}

// rewindow clips a clip's per-segment metadata to its new [start, end)
// source window. Transitions carry no segments.
func rewindow(item document.Item) {
	c, ok := item.(*document.Clip)
	if !ok {
		return
	}
	_, start, end := c.TimeRange()
	kept := c.Segments[:0]
	for _, s := range c.Segments {
		if s.End <= start || s.Start >= end {
			continue
		}
		if s.Start < start {
			s.Start = start
		}
		if s.End > end {
			s.End = end
		}
		kept = append(kept, s)
	}
	c.Segments = kept
}

// rippleLeft closes the gap a cut opened: every object on the track at or
// beyond the cut point shifts left by the removed duration.
func rippleLeft(ctx *editor.Context, track int, cut, removed float64, txn string) {
	for _, item := range ctx.Doc.ItemsOnTrack(track) {
		position, start, end := item.TimeRange()
		// keep_right moves the sliced object itself onto the cut point, so
		// position >= cut covers it too.
		if position < cut {
			continue
		}
		item.SetTimeRange(position-removed, start, end)
		persistItem(ctx, item, txn)
	}
}

// DuplicateClip deep-copies a clip under a fresh identity, including its
// effects, which each get a new id of their own.
func DuplicateClip(c *document.Clip) *document.Clip {
	out := &document.Clip{
		ID:       typeid.NewClipID(),
		FileID:   c.FileID,
		Title:    c.Title,
		Layer:    c.Layer,
		Position: c.Position,
		Start:    c.Start,
		End:      c.End,
	}
	out.Properties = make(map[string]*document.Property, len(c.Properties))
	for name, p := range c.Properties {
		out.Properties[name] = p.Clone()
	}
	for _, fx := range c.Effects {
		dup := &document.Effect{
			ID:         typeid.NewEffectID(),
			Type:       fx.Type,
			Properties: make(map[string]*document.Property, len(fx.Properties)),
		}
		for name, p := range fx.Properties {
			dup.Properties[name] = p.Clone()
		}
		out.Effects = append(out.Effects, dup)
	}
	out.Segments = append(out.Segments, c.Segments...)
	return out
}

func duplicateTransition(t *document.Transition) *document.Transition {
	out := &document.Transition{
		ID:       typeid.NewTransitionID(),
		Layer:    t.Layer,
		Position: t.Position,
		Start:    t.Start,
		End:      t.End,
	}
	out.Properties = make(map[string]*document.Property, len(t.Properties))
	for name, p := range t.Properties {
		out.Properties[name] = p.Clone()
	}
	return out
}
