package gesture

import (
	"math"

	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/editor"
	"github.com/cutline/cutline/backend-go/internal/geometry"
	"github.com/cutline/cutline/backend-go/internal/snap"
	"github.com/cutline/cutline/backend-go/internal/update"
)

// origin is the pre-gesture placement of one dragged item.
type origin struct {
	position float64
	start    float64
	end      float64
	layer    int
}

// dragState moves whole items horizontally (time) and vertically (track).
// Items whose track is locked are skipped per object; the rest of the
// selection still moves.
type dragState struct {
	items      map[string]origin // id -> pre-gesture placement
	kinds      map[string]document.Kind
	candidates []snap.Candidate
	trackNums  []int
}

func (s *dragState) enter(m *Machine, ev PointerEvent) {
	kind := document.KindClip
	if m.hit.Kind == geometry.HitTransition {
		kind = document.KindTransition
	}
	ref := editor.Ref{ID: m.hit.ID, Kind: kind}

	// Pressing an unselected item retargets the selection to it.
	if !m.ctx.Selection.Contains(ref) {
		m.ctx.Selection.Add(ref, ev.Additive)
		m.geo.MarkDirty()
	}

	s.items = make(map[string]origin)
	s.kinds = make(map[string]document.Kind)
	exclude := make(map[string]bool)
	for _, sel := range m.ctx.Selection.Refs() {
		item, ok := m.ctx.Doc.Item(sel.ID)
		if !ok {
			continue
		}
		if m.ctx.Doc.TrackLocked(item.TrackNumber()) {
			continue
		}
		position, start, end := item.TimeRange()
		s.items[sel.ID] = origin{position: position, start: start, end: end, layer: item.TrackNumber()}
		s.kinds[sel.ID] = item.ItemKind()
		exclude[sel.ID] = true
	}

	for _, t := range m.ctx.Doc.Tracks {
		s.trackNums = append(s.trackNums, t.Number)
	}

	s.candidates = snap.Collect(m.ctx, m.geo.Viewport(), m.geo.Playhead(), snap.CollectOptions{Exclude: exclude})
}

func (s *dragState) move(m *Machine, ev PointerEvent) {
	if len(s.items) == 0 {
		return
	}
	txn := m.beginTxn()
	vp := m.geo.Viewport()
	pps := vp.PixelsPerSecond()

	deltaPx := ev.X - m.pressX
	if !m.ctx.IgnoreSnapping {
		var edges []float64
		for _, o := range s.items {
			edges = append(edges,
				o.position*pps,
				(o.position+(o.end-o.start))*pps,
			)
		}
		deltaPx = m.snapper.Delta(deltaPx, edges, s.candidates)
	}
	deltaSec := m.ctx.RoundToFrame(deltaPx / pps)

	// Vertical travel maps to whole-track steps.
	layerDelta := int(math.Round((ev.Y - m.pressY) / vp.TrackStride()))

	var maxEnd float64
	for id, o := range s.items {
		item, ok := m.ctx.Doc.Item(id)
		if !ok {
			continue
		}
		newPos := math.Max(0, o.position+deltaSec)

		// Tracks stack top-down, so moving the pointer down lowers the
		// track number.
		layer := s.clampLayer(o.layer - layerDelta)
		if m.ctx.Doc.TrackLocked(layer) {
			layer = item.TrackNumber()
		}

		item.SetTimeRange(newPos, o.start, o.end)
		s.applyLayer(m.ctx, id, layer)
		end := newPos + (o.end - o.start)
		if end > maxEnd {
			maxEnd = end
		}
		s.persist(m.ctx, id, true, txn)
	}

	m.ctx.ExtendDuration(maxEnd, txn)
	m.geo.MarkDirty()
	m.ctx.Changed(update.ChangedClips)
}

func (s *dragState) exit(m *Machine, ev PointerEvent) {
	if !m.moved {
		m.selectionClick(ev)
		return
	}
	if len(s.items) == 0 {
		return
	}
	txn := m.beginTxn()
	for id := range s.items {
		s.persist(m.ctx, id, false, txn)
	}
	m.geo.MarkDirty()
	m.ctx.Changed(update.ChangedClips | update.ChangedLayers)
}

// clampLayer keeps a layer within the document's existing track numbers.
func (s *dragState) clampLayer(layer int) int {
	if len(s.trackNums) == 0 {
		return layer
	}
	lo, hi := s.trackNums[0], s.trackNums[0]
	for _, n := range s.trackNums {
		if n < lo {
			lo = n
		}
		if n > hi {
			hi = n
		}
	}
	if layer < lo {
		return lo
	}
	if layer > hi {
		return hi
	}
	return layer
}

func (s *dragState) applyLayer(ctx *editor.Context, id string, layer int) {
	switch s.kinds[id] {
	case document.KindClip:
		if c, ok := ctx.Doc.Clips[id]; ok {
			c.Layer = layer
		}
	case document.KindTransition:
		if t, ok := ctx.Doc.Transitions[id]; ok {
			t.Layer = layer
		}
	}
}

func (s *dragState) persist(ctx *editor.Context, id string, basicOnly bool, txn string) {
	switch s.kinds[id] {
	case document.KindClip:
		if c, ok := ctx.Doc.Clips[id]; ok {
			ctx.Updates.UpdateClip(c, basicOnly, txn)
		}
	case document.KindTransition:
		if t, ok := ctx.Doc.Transitions[id]; ok {
			ctx.Updates.UpdateTransition(t, basicOnly, txn)
		}
	}
}
