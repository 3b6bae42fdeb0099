// Package keyframe provides the property-lane panel: direct curve editing
// with per-property lanes, multi-point selection, and snap-aware
// repositioning of keyframes.
package keyframe

import (
	"math"
	"sort"

	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/editor"
	"github.com/cutline/cutline/backend-go/internal/geometry"
)

// laneHeight is the vertical stride of one property lane.
const laneHeight = 24

// markHalfPx is the half-width of a rendered panel keyframe diamond.
const markHalfPx = 5

// PointRef identifies one keyframe: the owning object, the property, and
// the frame the point currently sits on.
type PointRef struct {
	OwnerID  string
	EffectID string // non-empty when the curve lives on a nested effect
	Property string
	Frame    float64
}

// Lane is one property row of the panel. An absent or malformed property
// yields an unavailable lane; other lanes keep working.
type Lane struct {
	OwnerID   string
	EffectID  string
	Property  string
	Row       int
	Rect      geometry.Rect
	Available bool
	Marks     []Mark
}

// Mark is one rendered keyframe in a lane, positioned by world x so
// scrolling re-projects without a rebuild.
type Mark struct {
	Ref    PointRef
	WorldX float64
}

// Panel is the keyframe editor region below the tracks. It implements
// geometry.PanelRegion.
type Panel struct {
	ctx    *editor.Context
	geo    *geometry.Engine
	bounds geometry.Rect

	lanes    []Lane
	selected map[PointRef]struct{}
	dirty    bool
}

func NewPanel(ctx *editor.Context, geo *geometry.Engine, bounds geometry.Rect) *Panel {
	p := &Panel{
		ctx:      ctx,
		geo:      geo,
		bounds:   bounds,
		selected: make(map[PointRef]struct{}),
		dirty:    true,
	}
	return p
}

func (p *Panel) Bounds() geometry.Rect { return p.bounds }

func (p *Panel) SetBounds(b geometry.Rect) {
	p.bounds = b
	p.dirty = true
}

func (p *Panel) MarkDirty() { p.dirty = true }

// Lanes rebuilds (if dirty) and returns the current lanes. Lanes follow
// the first selected clip, transition, or effect.
func (p *Panel) Lanes() []Lane {
	if p.dirty {
		p.rebuild()
		p.dirty = false
	}
	return p.lanes
}

func (p *Panel) rebuild() {
	p.lanes = nil

	var owner document.Item
	var effectID string
	var props map[string]*document.Property

	for _, ref := range p.ctx.Selection.Refs() {
		switch ref.Kind {
		case document.KindClip:
			if c, ok := p.ctx.Doc.Clips[ref.ID]; ok {
				owner, props = c, c.Properties
			}
		case document.KindTransition:
			if t, ok := p.ctx.Doc.Transitions[ref.ID]; ok {
				owner, props = t, t.Properties
			}
		case document.KindEffect:
			if c, fx, ok := p.ctx.Doc.FindEffect(ref.ID); ok {
				owner, props, effectID = c, fx.Properties, fx.ID
			}
		}
		if owner != nil {
			break
		}
	}
	if owner == nil {
		return
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	position, _, _ := owner.TimeRange()
	pps := p.geo.Viewport().PixelsPerSecond()
	fps := p.ctx.FPS()

	row := 0
	for _, name := range names {
		prop := props[name]
		lane := Lane{
			OwnerID:  owner.ItemID(),
			EffectID: effectID,
			Property: name,
			Row:      row,
			Rect: geometry.Rect{
				X: p.bounds.X,
				Y: p.bounds.Y + float64(row)*laneHeight,
				W: p.bounds.W,
				H: laneHeight,
			},
		}
		switch {
		case prop == nil:
			lane.Available = false
		case prop.Kind == document.PropKeyframes && prop.Curve != nil:
			lane.Available = true
			for _, pt := range prop.Curve.Points {
				seconds := position + document.SecondsOf(pt.Co.X, fps)
				lane.Marks = append(lane.Marks, Mark{
					Ref: PointRef{
						OwnerID:  owner.ItemID(),
						EffectID: effectID,
						Property: name,
						Frame:    pt.Co.X,
					},
					WorldX: seconds * pps,
				})
			}
		case prop.Kind == document.PropScalar:
			lane.Available = true // scalar lane: no marks until promoted
		default:
			lane.Available = false
		}
		p.lanes = append(p.lanes, lane)
		row++
	}
}

// Hit reports the panel keyframe (or nothing, meaning lane background)
// under a view point.
func (p *Panel) Hit(x, y float64) (geometry.HitResult, bool) {
	vp := p.geo.Viewport()
	for _, lane := range p.Lanes() {
		if !lane.Rect.Contains(x, y) {
			continue
		}
		if !lane.Available {
			return geometry.HitResult{Kind: geometry.HitPanelLane, ID: lane.OwnerID}, true
		}
		for _, m := range lane.Marks {
			mx := vp.WorldXToView(m.WorldX)
			if math.Abs(x-mx) <= markHalfPx {
				return geometry.HitResult{
					Kind:     geometry.HitPanelKeyframe,
					ID:       lane.OwnerID,
					OwnerID:  lane.OwnerID,
					EffectID: lane.EffectID,
					Property: lane.Property,
					Frame:    m.Ref.Frame,
				}, true
			}
		}
		return geometry.HitResult{Kind: geometry.HitPanelLane, ID: lane.OwnerID}, true
	}
	return geometry.HitResult{}, false
}

// --- point selection -----------------------------------------------------

// SelectPoint adds a keyframe to the point selection (replacing it unless
// additive, mirroring ctrl-click / box-select semantics).
func (p *Panel) SelectPoint(ref PointRef, additive bool) {
	if !additive {
		p.selected = make(map[PointRef]struct{})
	}
	p.selected[ref] = struct{}{}
}

// SelectInRect replaces (or extends) the point selection with every mark
// inside a view-space rectangle; used by box-select over panel lanes.
func (p *Panel) SelectInRect(r geometry.Rect, additive bool) {
	if !additive {
		p.selected = make(map[PointRef]struct{})
	}
	vp := p.geo.Viewport()
	for _, lane := range p.Lanes() {
		if !lane.Rect.Intersects(r) {
			continue
		}
		for _, m := range lane.Marks {
			mx := vp.WorldXToView(m.WorldX)
			if mx >= r.X && mx <= r.Right() {
				p.selected[m.Ref] = struct{}{}
			}
		}
	}
}

func (p *Panel) ClearPointSelection() {
	p.selected = make(map[PointRef]struct{})
}

func (p *Panel) PointSelected(ref PointRef) bool {
	_, ok := p.selected[ref]
	return ok
}

// SelectedPoints returns the selected refs, ordered for determinism.
func (p *Panel) SelectedPoints() []PointRef {
	out := make([]PointRef, 0, len(p.selected))
	for ref := range p.selected {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.OwnerID != b.OwnerID {
			return a.OwnerID < b.OwnerID
		}
		if a.Property != b.Property {
			return a.Property < b.Property
		}
		return a.Frame < b.Frame
	})
	return out
}
