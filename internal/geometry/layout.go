package geometry

import (
	"math"
	"sort"

	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/editor"
)

// HitKind identifies what a point landed on, topmost first.
type HitKind string

const (
	HitClip           HitKind = "clip"
	HitTransition     HitKind = "transition"
	HitEffectIcon     HitKind = "effect-icon"
	HitTrackName      HitKind = "track-name"
	HitTrackButton    HitKind = "track-toolbar-button"
	HitKeyframe       HitKind = "keyframe"
	HitPanelKeyframe  HitKind = "panel-keyframe"
	HitPanelLane      HitKind = "panel-lane"
	HitScrollbar      HitKind = "scrollbar-handle"
	HitTimelineResize HitKind = "timeline-resize-handle"
	HitRuler          HitKind = "ruler"
	HitBackground     HitKind = "background"
)

// Edge marks which boundary of an item a press landed near.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeLeft
	EdgeRight
)

// edgePx is how close (in pixels) a press must be to an item boundary to
// count as a resize grip rather than a body press.
const edgePx = 6

// keyframeMarkPx is the half-width of a rendered keyframe diamond.
const keyframeMarkPx = 5

// HitResult describes the topmost object under a point.
type HitResult struct {
	Kind     HitKind
	ID       string
	OwnerID  string // owning clip for effect icons and panel keyframes
	EffectID string // non-empty when the hit curve lives on a nested effect
	Property string // property name for keyframe hits
	Frame    float64
	Edge     Edge
}

// KeyframeMark is one rendered keyframe diamond, positioned in world
// coordinates so scroll only re-projects it.
type KeyframeMark struct {
	OwnerID   string
	OwnerKind document.Kind
	Property  string
	Frame     float64
	WorldX    float64
	Track     int
}

// Scrollbar is the horizontal scrollbar geometry.
type Scrollbar struct {
	Bar    Rect
	Handle Rect
}

// Layout is the computed pixel geometry for the current document and
// viewport. Rect maps are keyed by object id.
type Layout struct {
	TrackRects      map[string]Rect
	ClipRects       map[string]Rect
	TransitionRects map[string]Rect
	MarkerRects     map[string]Rect
	EffectIcons     map[string]Rect // effect id -> icon rect
	KeyframeMarks   []KeyframeMark
	Scrollbar       Scrollbar
	EndHandleX      float64 // world x of the project-length handle
	PlayheadX       float64 // world x of the playhead
}

// PanelRegion is the keyframe panel's geometry, owned by the keyframe
// package and consulted during hit-testing when a panel is open.
type PanelRegion interface {
	Bounds() Rect
	Hit(x, y float64) (HitResult, bool)
}

// Engine computes and caches the layout. Mark it dirty whenever zoom,
// scroll, track count, panel visibility, or any item's position/duration
// changes; Ensure recomputes before the next query so no stale rectangles
// survive for deleted objects.
type Engine struct {
	vp       Viewport
	playhead float64 // seconds
	dirty    bool
	layout   Layout

	// Panel, when non-nil, claims the region below the tracks for the
	// property-lane keyframe editor.
	Panel PanelRegion
}

func NewEngine(vp Viewport) *Engine {
	return &Engine{vp: vp, dirty: true}
}

func (e *Engine) Viewport() Viewport { return e.vp }

func (e *Engine) SetViewport(vp Viewport) {
	e.vp = vp
	e.dirty = true
}

// Scroll adjusts the viewport origin without invalidating world-space
// geometry; only the scrollbar handle is recomputed.
func (e *Engine) Scroll(dx, dy float64) {
	e.vp.ScrollX = math.Max(0, e.vp.ScrollX+dx)
	e.vp.ScrollY = math.Max(0, e.vp.ScrollY+dy)
	e.layout.Scrollbar = e.scrollbarGeometry(e.contentWidth())
}

func (e *Engine) SetZoom(zoom float64) {
	if zoom <= 0 {
		return
	}
	e.vp.Zoom = zoom
	e.dirty = true
}

func (e *Engine) SetPlayhead(seconds float64) {
	e.playhead = math.Max(0, seconds)
	e.layout.PlayheadX = e.vp.TimeToWorldX(e.playhead)
}

func (e *Engine) Playhead() float64 { return e.playhead }

func (e *Engine) MarkDirty() { e.dirty = true }

// Ensure recomputes the layout if dirty. After MarkDirty();Ensure() the
// returned rectangles are consistent with the current document.
func (e *Engine) Ensure(ctx *editor.Context) *Layout {
	if e.dirty {
		e.layout = e.compute(ctx)
		e.dirty = false
	}
	return &e.layout
}

// contentWidth is the world-pixel width of the scrollable body.
func (e *Engine) contentWidth() float64 {
	return e.layout.EndHandleX + e.vp.TickPixels
}

func (e *Engine) compute(ctx *editor.Context) Layout {
	doc := ctx.Doc
	vp := e.vp
	pps := vp.PixelsPerSecond()

	l := Layout{
		TrackRects:      make(map[string]Rect),
		ClipRects:       make(map[string]Rect),
		TransitionRects: make(map[string]Rect),
		MarkerRects:     make(map[string]Rect),
		EffectIcons:     make(map[string]Rect),
		EndHandleX:      vp.TimeToWorldX(doc.Project.Duration),
		PlayheadX:       vp.TimeToWorldX(e.playhead),
	}

	// Tracks stack top-down, highest number on top.
	tracks := make([]*document.Track, 0, len(doc.Tracks))
	for _, t := range doc.Tracks {
		tracks = append(tracks, t)
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Number > tracks[j].Number })

	trackTop := make(map[int]float64, len(tracks))
	y := vp.RulerHeight - vp.ScrollY
	for _, t := range tracks {
		r := Rect{X: vp.BodyOriginX(), Y: y, W: vp.Width - vp.BodyOriginX(), H: vp.TrackHeight}
		l.TrackRects[t.ID] = r
		trackTop[t.Number] = y
		y += vp.TrackStride()
	}

	for _, c := range doc.Clips {
		top, ok := trackTop[c.Layer]
		if !ok {
			continue
		}
		l.ClipRects[c.ID] = Rect{
			X: vp.WorldXToView(c.Position * pps),
			Y: top,
			W: c.Duration() * pps,
			H: vp.TrackHeight,
		}
		// Effect icons stack left-to-right in the clip's top strip.
		for i, fx := range c.Effects {
			l.EffectIcons[fx.ID] = Rect{
				X: l.ClipRects[c.ID].X + 4 + float64(i)*18,
				Y: top + 4,
				W: 16,
				H: 16,
			}
		}
	}

	for _, t := range doc.Transitions {
		top, ok := trackTop[t.Layer]
		if !ok {
			continue
		}
		l.TransitionRects[t.ID] = Rect{
			X: vp.WorldXToView(t.Position * pps),
			Y: top,
			W: t.Duration() * pps,
			H: vp.TrackHeight / 2,
		}
	}

	for _, m := range doc.Markers {
		l.MarkerRects[m.ID] = Rect{
			X: vp.WorldXToView(m.Position*pps) - 6,
			Y: vp.RulerHeight - 14,
			W: 12,
			H: 14,
		}
	}

	l.KeyframeMarks = e.keyframeMarks(ctx, trackTop)
	l.Scrollbar = e.scrollbarGeometry(l.EndHandleX + vp.TickPixels)

	return l
}

// keyframeMarks collects the keyframe diamonds of every selected clip and
// transition, in world coordinates.
func (e *Engine) keyframeMarks(ctx *editor.Context, trackTop map[int]float64) []KeyframeMark {
	var marks []KeyframeMark
	pps := e.vp.PixelsPerSecond()
	fps := ctx.FPS()

	addItem := func(item document.Item) {
		position, _, _ := item.TimeRange()
		if _, ok := trackTop[item.TrackNumber()]; !ok {
			return
		}
		for name, curve := range document.AnimatedCurves(item.PropertyMap()) {
			for _, p := range curve.Points {
				seconds := position + document.SecondsOf(p.Co.X, fps)
				marks = append(marks, KeyframeMark{
					OwnerID:   item.ItemID(),
					OwnerKind: item.ItemKind(),
					Property:  name,
					Frame:     p.Co.X,
					WorldX:    seconds * pps,
					Track:     item.TrackNumber(),
				})
			}
		}
	}

	for _, ref := range ctx.Selection.Refs() {
		switch ref.Kind {
		case document.KindClip:
			if c, ok := ctx.Doc.Clips[ref.ID]; ok {
				addItem(c)
			}
		case document.KindTransition:
			if t, ok := ctx.Doc.Transitions[ref.ID]; ok {
				addItem(t)
			}
		}
	}
	return marks
}

func (e *Engine) scrollbarGeometry(contentWidth float64) Scrollbar {
	vp := e.vp
	bar := Rect{
		X: vp.BodyOriginX(),
		Y: vp.Height - 12,
		W: vp.Width - vp.BodyOriginX(),
		H: 12,
	}
	if contentWidth <= 0 {
		contentWidth = 1
	}
	visible := bar.W / contentWidth
	if visible > 1 {
		visible = 1
	}
	handle := Rect{
		X: bar.X + (vp.ScrollX/contentWidth)*bar.W,
		Y: bar.Y,
		W: math.Max(24, bar.W*visible),
		H: bar.H,
	}
	return Scrollbar{Bar: bar, Handle: handle}
}

// Hit returns the topmost object under a view-space point. The result is
// evaluated once at press time and never re-evaluated mid-gesture.
func (e *Engine) Hit(ctx *editor.Context, x, y float64) HitResult {
	l := e.Ensure(ctx)
	vp := e.vp

	if l.Scrollbar.Handle.Contains(x, y) {
		return HitResult{Kind: HitScrollbar}
	}

	if y < vp.RulerHeight {
		handleX := vp.WorldXToView(l.EndHandleX)
		if math.Abs(x-handleX) <= edgePx {
			return HitResult{Kind: HitTimelineResize}
		}
		for id, r := range l.MarkerRects {
			if r.Contains(x, y) {
				return HitResult{Kind: HitRuler, ID: id}
			}
		}
		return HitResult{Kind: HitRuler}
	}

	if vp.PanelVisible && x < vp.PanelWidth {
		// Toolbar buttons sit on the right edge of each name cell.
		for id, r := range l.TrackRects {
			nameRect := Rect{X: 0, Y: r.Y, W: vp.PanelWidth, H: r.H}
			if nameRect.Contains(x, y) {
				if x > vp.PanelWidth-28 {
					return HitResult{Kind: HitTrackButton, ID: id}
				}
				return HitResult{Kind: HitTrackName, ID: id}
			}
		}
	}

	if e.Panel != nil && e.Panel.Bounds().Contains(x, y) {
		if res, ok := e.Panel.Hit(x, y); ok {
			return res
		}
		return HitResult{Kind: HitPanelLane}
	}

	// Keyframe diamonds float above clip bodies.
	for _, m := range l.KeyframeMarks {
		mx := vp.WorldXToView(m.WorldX)
		var top float64
		if r, ok := l.ClipRects[m.OwnerID]; ok {
			top = r.Bottom() - 2*keyframeMarkPx
		} else if r, ok := l.TransitionRects[m.OwnerID]; ok {
			top = r.Bottom() - 2*keyframeMarkPx
		} else {
			continue
		}
		mark := Rect{X: mx - keyframeMarkPx, Y: top, W: 2 * keyframeMarkPx, H: 2 * keyframeMarkPx}
		if mark.Contains(x, y) {
			return HitResult{
				Kind:     HitKeyframe,
				ID:       m.OwnerID,
				OwnerID:  m.OwnerID,
				Property: m.Property,
				Frame:    m.Frame,
			}
		}
	}

	for id, r := range l.EffectIcons {
		if r.Contains(x, y) {
			return HitResult{Kind: HitEffectIcon, ID: id}
		}
	}

	// Transitions draw above clips on the same track.
	if res, ok := hitItems(l.TransitionRects, HitTransition, x, y); ok {
		return res
	}
	if res, ok := hitItems(l.ClipRects, HitClip, x, y); ok {
		return res
	}

	for id, r := range l.TrackRects {
		if r.Contains(x, y) {
			return HitResult{Kind: HitBackground, ID: id}
		}
	}
	return HitResult{Kind: HitBackground}
}

func hitItems(rects map[string]Rect, kind HitKind, x, y float64) (HitResult, bool) {
	for id, r := range rects {
		if !r.Contains(x, y) {
			continue
		}
		res := HitResult{Kind: kind, ID: id}
		switch {
		case x-r.X <= edgePx:
			res.Edge = EdgeLeft
		case r.Right()-x <= edgePx:
			res.Edge = EdgeRight
		}
		return res, true
	}
	return HitResult{}, false
}
