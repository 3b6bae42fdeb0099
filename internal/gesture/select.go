package gesture

import (
	"math"

	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/editor"
	"github.com/cutline/cutline/backend-go/internal/geometry"
)

// playheadState scrubs the playhead along the ruler. No transaction is
// opened: seeking is not an undoable document edit.
type playheadState struct{}

func (s *playheadState) enter(m *Machine, ev PointerEvent) {
	s.seek(m, ev)
}

func (s *playheadState) move(m *Machine, ev PointerEvent) {
	s.seek(m, ev)
}

func (s *playheadState) exit(m *Machine, ev PointerEvent) {
	s.seek(m, ev)
}

func (s *playheadState) seek(m *Machine, ev PointerEvent) {
	vp := m.geo.Viewport()
	seconds := m.ctx.RoundToFrame(math.Max(0, vp.ViewXToTime(ev.X)))
	m.geo.SetPlayhead(seconds)
}

// boxSelectState rubber-bands a rectangle. Over the timeline body it
// selects intersecting clips and transitions; over the keyframe panel it
// selects panel points instead.
type boxSelectState struct {
	overPanel bool
	rect      geometry.Rect
}

func (s *boxSelectState) enter(m *Machine, ev PointerEvent) {
	s.overPanel = m.hit.Kind == geometry.HitPanelLane
	s.rect = geometry.Rect{X: ev.X, Y: ev.Y}

	// A non-additive press on empty space drops the old selection right
	// away, before the rubber-band starts collecting.
	if !ev.Additive {
		if s.overPanel && m.panel != nil {
			m.panel.ClearPointSelection()
			m.panel.MarkDirty()
		} else {
			m.ctx.Selection.Clear()
		}
		m.geo.MarkDirty()
	}
}

func (s *boxSelectState) move(m *Machine, ev PointerEvent) {
	s.rect = rectBetween(m.pressX, m.pressY, ev.X, ev.Y)
}

func (s *boxSelectState) exit(m *Machine, ev PointerEvent) {
	if !m.moved {
		// A plain click on empty space: the selection was already cleared
		// on enter, nothing to collect.
		return
	}

	s.rect = rectBetween(m.pressX, m.pressY, ev.X, ev.Y)

	if s.overPanel && m.panel != nil {
		m.panel.SelectInRect(s.rect, ev.Additive)
		m.panel.MarkDirty()
		return
	}

	l := m.geo.Ensure(m.ctx)
	for id, r := range l.ClipRects {
		if r.Intersects(s.rect) {
			m.ctx.Selection.Add(editor.Ref{ID: id, Kind: document.KindClip}, true)
		}
	}
	for id, r := range l.TransitionRects {
		if r.Intersects(s.rect) {
			m.ctx.Selection.Add(editor.Ref{ID: id, Kind: document.KindTransition}, true)
		}
	}
	m.geo.MarkDirty()
	if m.panel != nil {
		m.panel.MarkDirty()
	}
}

// Rect exposes the live rubber-band rectangle for rendering.
func (s *boxSelectState) Rect() geometry.Rect { return s.rect }

func rectBetween(x0, y0, x1, y1 float64) geometry.Rect {
	return geometry.Rect{
		X: math.Min(x0, x1),
		Y: math.Min(y0, y1),
		W: math.Abs(x1 - x0),
		H: math.Abs(y1 - y0),
	}
}
