package gesture

import (
	"math"

	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/keyframe"
	"github.com/cutline/cutline/backend-go/internal/snap"
	"github.com/cutline/cutline/backend-go/internal/update"
)

// curveKey identifies one curve across move events.
type curveKey struct {
	owner    string
	effect   string
	property string
}

// keyframeDragState repositions keyframes in time. Dragging a point that
// belongs to the panel's multi-selection moves the whole selection in
// lockstep; otherwise only the pressed point moves.
type keyframeDragState struct {
	refs       []keyframe.PointRef // pre-gesture refs
	pristine   map[curveKey]*document.Curve
	candidates []snap.Candidate
	lastDelta  float64
}

func (s *keyframeDragState) enter(m *Machine, ev PointerEvent) {
	pressed := keyframe.PointRef{
		OwnerID:  m.hit.OwnerID,
		EffectID: m.hit.EffectID,
		Property: m.hit.Property,
		Frame:    m.hit.Frame,
	}

	if m.panel != nil && m.panel.PointSelected(pressed) {
		s.refs = m.panel.SelectedPoints()
	} else {
		if m.panel != nil {
			m.panel.SelectPoint(pressed, ev.Additive)
		}
		s.refs = []keyframe.PointRef{pressed}
	}

	// Clone every affected curve so each move event re-applies the total
	// delta against pristine data instead of compounding dedupes.
	s.pristine = make(map[curveKey]*document.Curve)
	dragged := make(map[string]map[float64]bool)
	for _, ref := range s.refs {
		key := curveKey{ref.OwnerID, ref.EffectID, ref.Property}
		if _, ok := s.pristine[key]; !ok {
			if c := keyframe.CurveFor(m.ctx, ref); c != nil {
				s.pristine[key] = c.Clone()
			}
		}
		if dragged[ref.Property] == nil {
			dragged[ref.Property] = make(map[float64]bool)
		}
		dragged[ref.Property][ref.Frame] = true
	}

	s.candidates = snap.Collect(m.ctx, m.geo.Viewport(), m.geo.Playhead(), snap.CollectOptions{
		Keyframes:       true,
		KeyframeOwnerID: m.hit.OwnerID,
		KeyframeSkip: func(property string, frame float64) bool {
			return dragged[property][frame]
		},
	})
}

func (s *keyframeDragState) move(m *Machine, ev PointerEvent) {
	if len(s.refs) == 0 {
		return
	}
	vp := m.geo.Viewport()
	pps := vp.PixelsPerSecond()
	fps := m.ctx.FPS()

	item, ok := m.ctx.Doc.Item(s.refs[0].OwnerID)
	if !ok {
		return
	}
	position, _, _ := item.TimeRange()

	deltaPx := ev.X - m.pressX
	if !m.ctx.IgnoreSnapping {
		var edges []float64
		for _, ref := range s.refs {
			seconds := position + document.SecondsOf(ref.Frame, fps)
			edges = append(edges, seconds*pps)
		}
		deltaPx = m.snapper.Delta(deltaPx, edges, s.candidates)
	}
	deltaFrames := math.Round(deltaPx / pps * fps.Float())

	s.restore(m)
	applied, _ := keyframe.MovePoints(m.ctx, s.refs, deltaFrames)

	if applied != s.lastDelta {
		// Persist cheaply on every whole-frame boundary crossing.
		txn := m.beginTxn()
		s.persist(m, true, txn)
		s.lastDelta = applied
	}
	m.geo.MarkDirty()
	if m.panel != nil {
		m.panel.MarkDirty()
	}
	m.ctx.Changed(update.ChangedClips)
}

func (s *keyframeDragState) exit(m *Machine, ev PointerEvent) {
	if !m.moved {
		m.selectionClick(ev)
		return
	}
	txn := m.beginTxn()

	// Re-seat the panel selection on the points' final frames.
	if m.panel != nil {
		m.panel.ClearPointSelection()
		for _, ref := range s.refs {
			ref.Frame = math.Round(ref.Frame + s.lastDelta)
			m.panel.SelectPoint(ref, true)
		}
		m.panel.MarkDirty()
	}

	s.persist(m, false, txn)
	m.geo.MarkDirty()
	m.ctx.Changed(update.ChangedClips)
}

// restore rewinds every affected curve to its pre-gesture points.
func (s *keyframeDragState) restore(m *Machine) {
	for key, clone := range s.pristine {
		ref := keyframe.PointRef{OwnerID: key.owner, EffectID: key.effect, Property: key.property}
		if c := keyframe.CurveFor(m.ctx, ref); c != nil {
			c.Points = clone.Clone().Points
		}
	}
}

func (s *keyframeDragState) persist(m *Machine, basicOnly bool, txn string) {
	seen := make(map[string]bool)
	for _, ref := range s.refs {
		if seen[ref.OwnerID] {
			continue
		}
		seen[ref.OwnerID] = true
		if c, ok := m.ctx.Doc.Clips[ref.OwnerID]; ok {
			m.ctx.Updates.UpdateClip(c, basicOnly, txn)
		} else if t, ok := m.ctx.Doc.Transitions[ref.OwnerID]; ok {
			m.ctx.Updates.UpdateTransition(t, basicOnly, txn)
		}
	}
}
