package gesture

import (
	"math"

	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/editor"
	"github.com/cutline/cutline/backend-go/internal/geometry"
	"github.com/cutline/cutline/backend-go/internal/snap"
	"github.com/cutline/cutline/backend-go/internal/update"
)

// resizeState trims one item edge, or (projectEnd) the composition length
// handle on the ruler. Releasing with end <= start deletes the object
// rather than leaving invalid geometry in the document.
type resizeState struct {
	projectEnd bool

	kind       document.Kind
	edge       geometry.Edge
	orig       origin
	origDur    float64 // project duration, for the end handle
	candidates []snap.Candidate
}

func (s *resizeState) enter(m *Machine, ev PointerEvent) {
	if s.projectEnd {
		s.origDur = m.ctx.Doc.Project.Duration
		s.candidates = snap.Collect(m.ctx, m.geo.Viewport(), m.geo.Playhead(), snap.CollectOptions{})
		return
	}

	s.edge = m.hit.Edge
	s.kind = document.KindClip
	if m.hit.Kind == geometry.HitTransition {
		s.kind = document.KindTransition
	}
	item, ok := m.ctx.Doc.Item(m.hit.ID)
	if !ok {
		return
	}
	position, start, end := item.TimeRange()
	s.orig = origin{position: position, start: start, end: end, layer: item.TrackNumber()}
	s.candidates = snap.Collect(m.ctx, m.geo.Viewport(), m.geo.Playhead(), snap.CollectOptions{
		Exclude: map[string]bool{m.hit.ID: true},
	})
}

func (s *resizeState) move(m *Machine, ev PointerEvent) {
	txn := m.beginTxn()
	vp := m.geo.Viewport()
	pps := vp.PixelsPerSecond()
	deltaPx := ev.X - m.pressX

	if s.projectEnd {
		edge := s.origDur * pps
		if !m.ctx.IgnoreSnapping {
			deltaPx = m.snapper.Delta(deltaPx, []float64{edge}, s.candidates)
		}
		dur := m.ctx.RoundToFrame(math.Max(0, s.origDur+deltaPx/pps))
		// The composition never shrinks below its content.
		dur = math.Max(dur, m.ctx.Doc.MaxEndTime())
		m.ctx.Doc.Project.Duration = dur
		m.ctx.Updates.ExtendDuration(dur, txn)
		m.geo.MarkDirty()
		m.ctx.Changed(update.ChangedDuration)
		return
	}

	item, ok := m.ctx.Doc.Item(m.hit.ID)
	if !ok {
		return
	}

	var edgeWorld float64
	if s.edge == geometry.EdgeLeft {
		edgeWorld = s.orig.position * pps
	} else {
		edgeWorld = (s.orig.position + (s.orig.end - s.orig.start)) * pps
	}
	if !m.ctx.IgnoreSnapping {
		deltaPx = m.snapper.Delta(deltaPx, []float64{edgeWorld}, s.candidates)
	}
	deltaSec := m.ctx.RoundToFrame(deltaPx / pps)

	position, start, end := s.orig.position, s.orig.start, s.orig.end
	if s.edge == geometry.EdgeLeft {
		// Trimming the left edge moves both the timeline position and the
		// source in-point together.
		position = math.Max(0, position+deltaSec)
		start += position - s.orig.position
	} else {
		end += deltaSec
	}
	item.SetTimeRange(position, start, end)

	m.ctx.ExtendDuration(position+(end-start), txn)
	s.persist(m, item, true, txn)
	m.geo.MarkDirty()
	m.ctx.Changed(update.ChangedClips)
}

func (s *resizeState) exit(m *Machine, ev PointerEvent) {
	if !m.moved {
		m.selectionClick(ev)
		return
	}
	if s.projectEnd {
		return
	}
	item, ok := m.ctx.Doc.Item(m.hit.ID)
	if !ok {
		return
	}
	txn := m.beginTxn()
	_, start, end := item.TimeRange()
	if end <= start {
		// A zero-or-negative span is not representable; drop the object.
		s.deleteItem(m, txn)
	} else {
		s.persist(m, item, false, txn)
	}
	m.geo.MarkDirty()
	m.ctx.Changed(update.ChangedClips)
}

func (s *resizeState) persist(m *Machine, item document.Item, basicOnly bool, txn string) {
	switch s.kind {
	case document.KindClip:
		m.ctx.Updates.UpdateClip(item.(*document.Clip), basicOnly, txn)
	case document.KindTransition:
		m.ctx.Updates.UpdateTransition(item.(*document.Transition), basicOnly, txn)
	}
}

func (s *resizeState) deleteItem(m *Machine, txn string) {
	id := m.hit.ID
	switch s.kind {
	case document.KindClip:
		delete(m.ctx.Doc.Clips, id)
		m.ctx.Updates.DeleteClip(id, txn)
	case document.KindTransition:
		delete(m.ctx.Doc.Transitions, id)
		m.ctx.Updates.DeleteTransition(id, txn)
	}
	m.ctx.Selection.Remove(editor.Ref{ID: id, Kind: s.kind})
}
