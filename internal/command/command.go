// Package command implements the menu entry points. Each command takes an
// action, a list of object ids, and optional parameters, mutates the
// document, and commits exactly one undo transaction. Objects on locked
// tracks are skipped silently; the rest of the batch still applies.
package command

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cutline/cutline/backend-go/internal/cutter"
	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/editor"
	"github.com/cutline/cutline/backend-go/internal/repeat"
	"github.com/cutline/cutline/backend-go/internal/retime"
	"github.com/cutline/cutline/backend-go/internal/update"
	"github.com/cutline/cutline/backend-go/internal/waveform"
)

// Action names one menu command.
type Action string

const (
	ActionFadeIn     Action = "fade_in"
	ActionFadeOut    Action = "fade_out"
	ActionFadeInOut  Action = "fade_in_out"
	ActionZoomIn     Action = "animate_zoom_in"
	ActionZoomOut    Action = "animate_zoom_out"
	ActionRotateCW   Action = "rotate_90_cw"
	ActionRotateCCW  Action = "rotate_90_ccw"
	ActionRotateFlip Action = "rotate_180"
	ActionCrop       Action = "crop"
	ActionLayoutFill Action = "layout_fill"
	ActionLayoutHalf Action = "layout_half"
	ActionRetime     Action = "retime"
	ActionRepeat     Action = "repeat"
	ActionResetTime  Action = "reset_time"
	ActionVolume     Action = "volume"
	ActionSplitAudio Action = "split_audio"
	ActionAlignLeft  Action = "align_left"
	ActionAlignRight Action = "align_right"
	ActionSlice      Action = "slice"
	ActionCopy       Action = "copy"
	ActionPaste      Action = "paste"
)

var ErrUnknownAction = errors.New("command: unknown action")

// fadeFrames is the default ramp length of a fade, in frames.
const fadeFrames = 30

// Request is one decoded menu command.
type Request struct {
	Action   Action   `json:"action"`
	IDs      []string `json:"ids"`
	Position float64  `json:"position,omitempty"` // slice point / paste point

	// Retime parameters.
	End     float64 `json:"end,omitempty"`
	Reverse bool    `json:"reverse,omitempty"`

	// Repeat parameters.
	Pattern   string  `json:"pattern,omitempty"`
	Direction int     `json:"direction,omitempty"`
	Passes    int     `json:"passes,omitempty"`
	Delay     float64 `json:"delay,omitempty"`
	Ramp      float64 `json:"ramp,omitempty"`

	// Slice parameters.
	Mode   string `json:"mode,omitempty"`
	Ripple bool   `json:"ripple,omitempty"`

	// Crop edges as fractions of the frame.
	Left   float64 `json:"left,omitempty"`
	Right  float64 `json:"right,omitempty"`
	Top    float64 `json:"top,omitempty"`
	Bottom float64 `json:"bottom,omitempty"`

	// Volume level, 0..1.
	Level float64 `json:"level,omitempty"`
}

// Runner executes commands against one editor context.
type Runner struct {
	ctx       *editor.Context
	waves     *waveform.Batcher
	log       *slog.Logger
	clipboard []*document.Clip
}

func NewRunner(ctx *editor.Context, waves *waveform.Batcher, log *slog.Logger) *Runner {
	return &Runner{ctx: ctx, waves: waves, log: log}
}

// Run dispatches one command and commits it as one transaction.
func (r *Runner) Run(req Request) error {
	switch req.Action {
	case ActionFadeIn, ActionFadeOut, ActionFadeInOut:
		return r.fade(req)
	case ActionZoomIn, ActionZoomOut:
		return r.animateZoom(req)
	case ActionRotateCW, ActionRotateCCW, ActionRotateFlip:
		return r.rotate(req)
	case ActionCrop:
		return r.crop(req)
	case ActionLayoutFill, ActionLayoutHalf:
		return r.layout(req)
	case ActionRetime:
		return r.retime(req)
	case ActionRepeat:
		return r.repeat(req)
	case ActionResetTime:
		return r.resetTime(req)
	case ActionVolume:
		return r.volume(req)
	case ActionSplitAudio:
		return r.splitAudio(req)
	case ActionAlignLeft, ActionAlignRight:
		return r.align(req)
	case ActionSlice:
		return r.slice(req)
	case ActionCopy:
		return r.copyObjects(req)
	case ActionPaste:
		return r.paste(req)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
}

// clips resolves ids to unlocked clips.
func (r *Runner) clips(ids []string) []*document.Clip {
	var out []*document.Clip
	for _, id := range ids {
		c, ok := r.ctx.Doc.Clips[id]
		if !ok || r.ctx.Doc.TrackLocked(c.Layer) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// lastFrame is the final frame of a clip's trimmed span.
func (r *Runner) lastFrame(c *document.Clip) float64 {
	return document.FrameOf(c.Duration(), r.ctx.FPS())
}

func (r *Runner) fade(req Request) error {
	txn := r.ctx.Updates.BeginTransaction()
	defer r.ctx.Updates.EndTransaction()

	for _, c := range r.clips(req.IDs) {
		last := r.lastFrame(c)
		ramp := min(fadeFrames, last-1)
		curve := &document.Curve{}
		switch req.Action {
		case ActionFadeIn:
			curve.AddPoint(1, 0, document.InterpBezier)
			curve.AddPoint(1+ramp, 1, document.InterpBezier)
		case ActionFadeOut:
			curve.AddPoint(last-ramp, 1, document.InterpBezier)
			curve.AddPoint(last, 0, document.InterpBezier)
		case ActionFadeInOut:
			curve.AddPoint(1, 0, document.InterpBezier)
			curve.AddPoint(1+ramp, 1, document.InterpBezier)
			curve.AddPoint(last-ramp, 1, document.InterpBezier)
			curve.AddPoint(last, 0, document.InterpBezier)
		}
		curve.EnsureMonotonic()
		c.Properties[document.PropAlpha] = document.CurveProperty(curve)
		r.ctx.Updates.UpdateClip(c, false, txn)
	}
	r.ctx.Changed(update.ChangedClips)
	return nil
}

func (r *Runner) animateZoom(req Request) error {
	txn := r.ctx.Updates.BeginTransaction()
	defer r.ctx.Updates.EndTransaction()

	from, to := 1.0, 1.2
	if req.Action == ActionZoomOut {
		from, to = to, from
	}
	for _, c := range r.clips(req.IDs) {
		last := r.lastFrame(c)
		for _, prop := range []string{document.PropScaleX, document.PropScaleY} {
			curve := document.NewLinearCurve(1, from, last, to)
			curve.Points[0].Interpolation = document.InterpBezier
			curve.Points[1].Interpolation = document.InterpBezier
			c.Properties[prop] = document.CurveProperty(curve)
		}
		r.ctx.Updates.UpdateClip(c, false, txn)
	}
	r.ctx.Changed(update.ChangedClips)
	return nil
}

func (r *Runner) rotate(req Request) error {
	txn := r.ctx.Updates.BeginTransaction()
	defer r.ctx.Updates.EndTransaction()

	var delta float64
	switch req.Action {
	case ActionRotateCW:
		delta = 90
	case ActionRotateCCW:
		delta = -90
	case ActionRotateFlip:
		delta = 180
	}
	for _, c := range r.clips(req.IDs) {
		current := 0.0
		if p, ok := c.Properties[document.PropRotation]; ok && p.Kind == document.PropScalar {
			current = p.Scalar
		}
		c.Properties[document.PropRotation] = document.ScalarProperty(current + delta)
		r.ctx.Updates.UpdateClip(c, false, txn)
	}
	r.ctx.Changed(update.ChangedClips)
	return nil
}

func (r *Runner) crop(req Request) error {
	txn := r.ctx.Updates.BeginTransaction()
	defer r.ctx.Updates.EndTransaction()

	for _, c := range r.clips(req.IDs) {
		c.Properties[document.PropCropLeft] = document.ScalarProperty(req.Left)
		c.Properties[document.PropCropRight] = document.ScalarProperty(req.Right)
		c.Properties[document.PropCropTop] = document.ScalarProperty(req.Top)
		c.Properties[document.PropCropBot] = document.ScalarProperty(req.Bottom)
		r.ctx.Updates.UpdateClip(c, false, txn)
	}
	r.ctx.Changed(update.ChangedClips)
	return nil
}

func (r *Runner) layout(req Request) error {
	txn := r.ctx.Updates.BeginTransaction()
	defer r.ctx.Updates.EndTransaction()

	scale := 1.0
	if req.Action == ActionLayoutHalf {
		scale = 0.5
	}
	for _, c := range r.clips(req.IDs) {
		c.Properties[document.PropScaleX] = document.ScalarProperty(scale)
		c.Properties[document.PropScaleY] = document.ScalarProperty(scale)
		c.Properties[document.PropLocationX] = document.ScalarProperty(0)
		c.Properties[document.PropLocationY] = document.ScalarProperty(0)
		r.ctx.Updates.UpdateClip(c, false, txn)
	}
	r.ctx.Changed(update.ChangedClips)
	return nil
}

func (r *Runner) retime(req Request) error {
	dir := retime.Forward
	if req.Reverse {
		dir = retime.Reverse
	}
	r.ctx.Updates.BeginTransaction()
	defer r.ctx.Updates.EndTransaction()

	for _, c := range r.clips(req.IDs) {
		if err := retime.Retime(r.ctx, c, req.End, retime.KeepPosition, dir); err != nil {
			return err
		}
		r.invalidateWaveform(c)
	}
	return nil
}

func (r *Runner) repeat(req Request) error {
	r.ctx.Updates.BeginTransaction()
	defer r.ctx.Updates.EndTransaction()

	for _, c := range r.clips(req.IDs) {
		if err := repeat.Apply(r.ctx, c, repeat.Pattern(req.Pattern), req.Direction, req.Passes, req.Delay, req.Ramp); err != nil {
			return err
		}
		r.invalidateWaveform(c)
	}
	return nil
}

func (r *Runner) resetTime(req Request) error {
	r.ctx.Updates.BeginTransaction()
	defer r.ctx.Updates.EndTransaction()

	for _, c := range r.clips(req.IDs) {
		if err := repeat.Reset(r.ctx, c); err != nil {
			return err
		}
		r.invalidateWaveform(c)
	}
	return nil
}

func (r *Runner) volume(req Request) error {
	txn := r.ctx.Updates.BeginTransaction()
	defer r.ctx.Updates.EndTransaction()

	for _, c := range r.clips(req.IDs) {
		c.Properties[document.PropVolume] = document.ScalarProperty(req.Level)
		r.ctx.Updates.UpdateClip(c, false, txn)
		r.invalidateWaveform(c)
	}
	r.ctx.Changed(update.ChangedClips)
	return nil
}

// splitAudio duplicates each clip onto the track below, muting video on
// the copy and audio on the original.
func (r *Runner) splitAudio(req Request) error {
	txn := r.ctx.Updates.BeginTransaction()
	defer r.ctx.Updates.EndTransaction()

	for _, c := range r.clips(req.IDs) {
		audio := cutter.DuplicateClip(c)
		audio.Title = c.Title + " (audio)"
		audio.Layer = c.Layer - 1
		if r.ctx.Doc.TrackByNumber(audio.Layer) == nil || r.ctx.Doc.TrackLocked(audio.Layer) {
			continue
		}
		audio.Properties[document.PropAlpha] = document.ScalarProperty(0)
		c.Properties[document.PropVolume] = document.ScalarProperty(0)
		r.ctx.Doc.Clips[audio.ID] = audio
		r.ctx.Updates.UpdateClip(c, false, txn)
		r.ctx.Updates.UpdateClip(audio, false, txn)
		r.invalidateWaveform(audio)
	}
	r.ctx.Changed(update.ChangedClips | update.ChangedLayers)
	return nil
}

// align moves every selected object so its left (or right) edge matches
// the batch's leftmost (or rightmost) edge.
func (r *Runner) align(req Request) error {
	txn := r.ctx.Updates.BeginTransaction()
	defer r.ctx.Updates.EndTransaction()

	var items []document.Item
	for _, id := range req.IDs {
		item, ok := r.ctx.Doc.Item(id)
		if !ok || r.ctx.Doc.TrackLocked(item.TrackNumber()) {
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil
	}

	var edge float64
	for i, item := range items {
		position, start, end := item.TimeRange()
		candidate := position
		if req.Action == ActionAlignRight {
			candidate = position + (end - start)
		}
		if i == 0 ||
			(req.Action == ActionAlignLeft && candidate < edge) ||
			(req.Action == ActionAlignRight && candidate > edge) {
			edge = candidate
		}
	}

	for _, item := range items {
		position, start, end := item.TimeRange()
		if req.Action == ActionAlignLeft {
			position = edge
		} else {
			position = edge - (end - start)
		}
		item.SetTimeRange(position, start, end)
		switch v := item.(type) {
		case *document.Clip:
			r.ctx.Updates.UpdateClip(v, false, txn)
		case *document.Transition:
			r.ctx.Updates.UpdateTransition(v, false, txn)
		}
	}
	r.ctx.Changed(update.ChangedClips)
	return nil
}

func (r *Runner) slice(req Request) error {
	r.ctx.Updates.BeginTransaction()
	defer r.ctx.Updates.EndTransaction()

	touched, err := cutter.Slice(r.ctx, req.IDs, cutter.Mode(req.Mode), req.Position, req.Ripple)
	if err != nil {
		return err
	}
	// One downstream recompute for the whole batch.
	for _, c := range touched {
		r.invalidateWaveform(c)
	}
	return nil
}

func (r *Runner) copyObjects(req Request) error {
	r.clipboard = nil
	for _, id := range req.IDs {
		if c, ok := r.ctx.Doc.Clips[id]; ok {
			r.clipboard = append(r.clipboard, cutter.DuplicateClip(c))
		}
	}
	r.log.Debug("copied clips", "count", len(r.clipboard))
	return nil
}

func (r *Runner) paste(req Request) error {
	if len(r.clipboard) == 0 {
		return nil
	}
	txn := r.ctx.Updates.BeginTransaction()
	defer r.ctx.Updates.EndTransaction()

	// Paste preserves relative offsets, anchored at the requested position.
	anchor := r.clipboard[0].Position
	for _, c := range r.clipboard {
		if c.Position < anchor {
			anchor = c.Position
		}
	}

	var maxEnd float64
	for _, src := range r.clipboard {
		if r.ctx.Doc.TrackLocked(src.Layer) {
			continue
		}
		c := cutter.DuplicateClip(src)
		c.Position = r.ctx.RoundToFrame(req.Position + (src.Position - anchor))
		r.ctx.Doc.Clips[c.ID] = c
		r.ctx.Updates.UpdateClip(c, false, txn)
		if end := c.Position + c.Duration(); end > maxEnd {
			maxEnd = end
		}
	}
	r.ctx.ExtendDuration(maxEnd, txn)
	r.ctx.Changed(update.ChangedClips)
	return nil
}

func (r *Runner) invalidateWaveform(c *document.Clip) {
	if r.waves != nil && c.FileID != "" {
		r.waves.Invalidate(c.FileID, c.ID)
	}
}
