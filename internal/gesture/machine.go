// Package gesture implements the single-active-gesture interaction state
// machine: Idle plus five mutually-exclusive modes driven by pointer
// events. The target state is chosen once, at press time, from the
// hit-test result and never re-evaluated mid-gesture.
package gesture

import (
	"math"

	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/editor"
	"github.com/cutline/cutline/backend-go/internal/geometry"
	"github.com/cutline/cutline/backend-go/internal/keyframe"
	"github.com/cutline/cutline/backend-go/internal/snap"
)

// State is the closed set of gesture modes.
type State string

const (
	StateIdle         State = "idle"
	StateDrag         State = "drag"
	StateResize       State = "resize"
	StatePlayheadSeek State = "playhead-seek"
	StateBoxSelect    State = "box-select"
	StateKeyframeDrag State = "keyframe-drag"
)

// moveThresholdPx is the press-to-move distance below which a gesture is
// reinterpreted as a selection click instead of an edit. This keeps plain
// clicks from writing spurious undo entries.
const moveThresholdPx = 5

// EventType is a pointer event phase.
type EventType int

const (
	Press EventType = iota
	Move
	Release
)

// PointerEvent is one pointer sample in view coordinates.
type PointerEvent struct {
	Type     EventType
	X, Y     float64
	Additive bool // ctrl/shift held
}

// handler is the per-state behavior: setup on enter, live mutation on
// move, teardown (persist, close transaction) on exit.
type handler interface {
	enter(m *Machine, ev PointerEvent)
	move(m *Machine, ev PointerEvent)
	exit(m *Machine, ev PointerEvent)
}

// Machine owns the shared interaction state: exactly one gesture is
// active at a time, enforced by construction.
type Machine struct {
	ctx     *editor.Context
	geo     *geometry.Engine
	snapper *snap.Engine
	panel   *keyframe.Panel

	state   State
	active  handler
	hit     geometry.HitResult
	pressX  float64
	pressY  float64
	lastX   float64
	lastY   float64
	moved   bool
	txnID   string
	inTxn   bool
}

func NewMachine(ctx *editor.Context, geo *geometry.Engine, panel *keyframe.Panel) *Machine {
	return &Machine{
		ctx:     ctx,
		geo:     geo,
		snapper: snap.NewEngine(),
		panel:   panel,
		state:   StateIdle,
	}
}

func (m *Machine) State() State { return m.state }

// Handle feeds one pointer event through the machine. Events arrive in
// order on the session's single event goroutine.
func (m *Machine) Handle(ev PointerEvent) {
	switch ev.Type {
	case Press:
		if m.state != StateIdle {
			return // a gesture is already active
		}
		m.press(ev)
	case Move:
		if m.state == StateIdle {
			return
		}
		if !m.moved {
			dx, dy := ev.X-m.pressX, ev.Y-m.pressY
			if math.Hypot(dx, dy) < moveThresholdPx {
				return
			}
			m.moved = true
		}
		m.lastX, m.lastY = ev.X, ev.Y
		m.active.move(m, ev)
	case Release:
		if m.state == StateIdle {
			return
		}
		m.release(ev)
	}
}

// Teardown force-ends an in-flight gesture when the owning view goes
// away. The last valid state persists; there is no abort-to-original.
func (m *Machine) Teardown() {
	if m.state == StateIdle {
		return
	}
	m.release(PointerEvent{Type: Release, X: m.lastX, Y: m.lastY})
}

// press resolves the transition table: hit kind -> gesture state.
func (m *Machine) press(ev PointerEvent) {
	m.hit = m.geo.Hit(m.ctx, ev.X, ev.Y)
	m.pressX, m.pressY = ev.X, ev.Y
	m.lastX, m.lastY = ev.X, ev.Y
	m.moved = false

	switch m.hit.Kind {
	case geometry.HitClip, geometry.HitTransition:
		// Edge presses on a locked track degrade to a drag gesture, which
		// skips locked items per object and still handles the click.
		if m.hit.Edge != geometry.EdgeNone && !m.lockedHit(m.hit.ID) {
			m.enter(StateResize, &resizeState{}, ev)
		} else {
			m.enter(StateDrag, &dragState{}, ev)
		}
	case geometry.HitTimelineResize:
		m.enter(StateResize, &resizeState{projectEnd: true}, ev)
	case geometry.HitRuler:
		m.enter(StatePlayheadSeek, &playheadState{}, ev)
	case geometry.HitBackground, geometry.HitPanelLane:
		m.enter(StateBoxSelect, &boxSelectState{}, ev)
	case geometry.HitKeyframe, geometry.HitPanelKeyframe:
		// Keyframes of a locked-track owner can be selected, never moved.
		if m.lockedHit(m.hit.OwnerID) {
			m.selectionClick(ev)
			return
		}
		m.enter(StateKeyframeDrag, &keyframeDragState{}, ev)
	case geometry.HitEffectIcon:
		// Effect icons select immediately; no gesture.
		m.ctx.Selection.Add(editor.Ref{ID: m.hit.ID, Kind: document.KindEffect}, ev.Additive)
		m.geo.MarkDirty()
	case geometry.HitTrackName:
		m.ctx.Selection.Add(editor.Ref{ID: m.hit.ID, Kind: document.KindTrack}, ev.Additive)
	}
}

func (m *Machine) enter(state State, h handler, ev PointerEvent) {
	m.state = state
	m.active = h
	h.enter(m, ev)
}

func (m *Machine) release(ev PointerEvent) {
	m.active.exit(m, ev)
	if m.inTxn {
		m.ctx.Updates.EndTransaction()
		m.inTxn = false
		m.txnID = ""
	}
	m.snapper.Reset()
	m.state = StateIdle
	m.active = nil
}

// beginTxn opens the gesture's undo transaction on first real movement.
func (m *Machine) beginTxn() string {
	if !m.inTxn {
		m.txnID = m.ctx.Updates.BeginTransaction()
		m.inTxn = true
	}
	return m.txnID
}

// lockedHit reports whether the hit object sits on a locked track.
func (m *Machine) lockedHit(id string) bool {
	item, ok := m.ctx.Doc.Item(id)
	return ok && m.ctx.Doc.TrackLocked(item.TrackNumber())
}

// deltaSeconds converts the horizontal pointer travel to timeline seconds
// (pre-snap).
func (m *Machine) deltaSeconds(ev PointerEvent) float64 {
	return m.geo.Viewport().WorldXToTime(ev.X - m.pressX)
}

// selectionClick applies click semantics for gestures that never crossed
// the move threshold: select, don't edit.
func (m *Machine) selectionClick(ev PointerEvent) {
	switch m.hit.Kind {
	case geometry.HitClip:
		m.ctx.Selection.Add(editor.Ref{ID: m.hit.ID, Kind: document.KindClip}, ev.Additive)
	case geometry.HitTransition:
		m.ctx.Selection.Add(editor.Ref{ID: m.hit.ID, Kind: document.KindTransition}, ev.Additive)
	case geometry.HitKeyframe, geometry.HitPanelKeyframe:
		if m.panel != nil {
			m.panel.SelectPoint(keyframe.PointRef{
				OwnerID:  m.hit.OwnerID,
				EffectID: m.hit.EffectID,
				Property: m.hit.Property,
				Frame:    m.hit.Frame,
			}, ev.Additive)
		}
	}
	m.geo.MarkDirty()
	if m.panel != nil {
		m.panel.MarkDirty()
	}
}
