package session

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/cutline/cutline/backend-go/internal/command"
	"github.com/cutline/cutline/backend-go/internal/document"
	"github.com/cutline/cutline/backend-go/internal/editor"
	"github.com/cutline/cutline/backend-go/internal/geometry"
	"github.com/cutline/cutline/backend-go/internal/gesture"
	"github.com/cutline/cutline/backend-go/internal/keyframe"
	"github.com/cutline/cutline/backend-go/internal/thumbs"
	"github.com/cutline/cutline/backend-go/internal/update"
	"github.com/cutline/cutline/backend-go/internal/waveform"
)

// event is one client message queued for the room's event goroutine.
type event struct {
	sender *Client
	msg    *Message
}

// Room is one open project. All document mutation, geometry, and gesture
// handling happens on the room's single event goroutine; clients only
// enqueue events and receive broadcasts. That goroutine is the sole writer
// of the document, so the engines need no locks.
type Room struct {
	projectID string

	mu       sync.RWMutex
	clients  map[string]*Client
	presence *PresenceManager
	log      *slog.Logger

	ctx     *editor.Context
	geo     *geometry.Engine
	panel   *keyframe.Panel
	machine *gesture.Machine
	runner  *command.Runner
	thumbs  *thumbs.Provider
	waves   *waveform.Batcher
	flush   func() error

	events chan event
	done   chan struct{}
}

// RoomConfig carries everything a room needs beyond its document.
type RoomConfig struct {
	Updates update.Manager
	Waves   *waveform.Batcher
	Thumbs  *thumbs.Provider
	Flush   func() error // persistence teardown, may be nil
	Log     *slog.Logger
}

func NewRoom(projectID string, doc *document.Doc, cfg RoomConfig) *Room {
	ctx := editor.NewContext(doc, cfg.Updates)
	geo := geometry.NewEngine(geometry.DefaultViewport(1280, 720))

	vp := geo.Viewport()
	panel := keyframe.NewPanel(ctx, geo, geometry.Rect{
		X: vp.BodyOriginX(),
		Y: vp.Height - vp.PanelWidth,
		W: vp.Width - vp.BodyOriginX(),
		H: vp.PanelWidth,
	})
	geo.Panel = panel

	r := &Room{
		projectID: projectID,
		clients:   make(map[string]*Client),
		presence:  NewPresenceManager(),
		log:       cfg.Log,
		ctx:       ctx,
		geo:       geo,
		panel:     panel,
		machine:   gesture.NewMachine(ctx, geo, panel),
		runner:    command.NewRunner(ctx, cfg.Waves, cfg.Log),
		thumbs:    cfg.Thumbs,
		waves:     cfg.Waves,
		flush:     cfg.Flush,
		events:    make(chan event, 512),
		done:      make(chan struct{}),
	}

	ctx.Notifier.Subscribe(func(cs update.ChangeSet) {
		payload, _ := json.Marshal(ChangedPayload{Buckets: cs.String()})
		r.broadcast(&Message{Type: TypeChanged, ProjectID: projectID, Payload: payload}, "")
	})
	ctx.Selection.Subscribe(func(ref editor.Ref, selected, additive bool) {
		payload, _ := json.Marshal(SelectionPayload{
			ID:       ref.ID,
			Kind:     string(ref.Kind),
			Selected: selected,
			Additive: additive,
		})
		r.broadcast(&Message{Type: TypeSelection, ProjectID: projectID, Payload: payload}, "")
	})

	go r.run()
	return r
}

// run is the room's event loop: events apply strictly in arrival order.
func (r *Room) run() {
	for {
		select {
		case ev := <-r.events:
			r.handle(ev)
		case <-r.done:
			r.teardown()
			return
		}
	}
}

// Close tears the room down after its last client leaves.
func (r *Room) Close() {
	close(r.done)
}

func (r *Room) teardown() {
	r.machine.Teardown()
	if r.waves != nil {
		r.waves.Flush()
	}
	if r.flush != nil {
		if err := r.flush(); err != nil {
			r.log.Error("flushing project on teardown", "error", err, "project", r.projectID)
		}
	}
	r.log.Info("room closed", "project", r.projectID)
}

// enqueue hands an event to the room without ever blocking the socket
// reader. A full queue drops the event; pointer streams are lossy by
// nature and commands are client-retryable.
func (r *Room) enqueue(sender *Client, msg *Message) {
	select {
	case r.events <- event{sender: sender, msg: msg}:
	default:
		r.log.Warn("room event queue full, dropping", "project", r.projectID, "type", msg.Type)
	}
}

func (r *Room) handle(ev event) {
	switch ev.msg.Type {
	case TypePointer:
		r.handlePointer(ev)
	case TypeCommand:
		r.handleCommand(ev)
	case TypeViewport:
		r.handleViewport(ev)
	default:
		r.log.Warn("unknown message type", "type", ev.msg.Type, "user", ev.sender.UserID)
	}
}

func (r *Room) handlePointer(ev event) {
	var p PointerPayload
	if err := json.Unmarshal(ev.msg.Payload, &p); err != nil {
		r.log.Warn("invalid pointer payload", "error", err)
		return
	}
	var t gesture.EventType
	switch p.Phase {
	case "press":
		t = gesture.Press
	case "move":
		t = gesture.Move
	case "release":
		t = gesture.Release
	default:
		return
	}
	r.machine.Handle(gesture.PointerEvent{Type: t, X: p.X, Y: p.Y, Additive: p.Additive})
}

func (r *Room) handleCommand(ev event) {
	var req CommandPayload
	if err := json.Unmarshal(ev.msg.Payload, &req); err != nil {
		r.sendError(ev.sender, "invalid command payload")
		return
	}
	if err := r.runner.Run(req); err != nil {
		r.log.Warn("command failed", "action", req.Action, "error", err)
		r.sendError(ev.sender, err.Error())
		return
	}
	r.geo.MarkDirty()
	r.panel.MarkDirty()
}

func (r *Room) handleViewport(ev event) {
	var v ViewportPayload
	if err := json.Unmarshal(ev.msg.Payload, &v); err != nil {
		r.log.Warn("invalid viewport payload", "error", err)
		return
	}
	if v.ScrollDX != 0 || v.ScrollDY != 0 {
		r.geo.Scroll(v.ScrollDX, v.ScrollDY)
	}
	if v.Zoom != nil {
		r.geo.SetZoom(*v.Zoom)
	}
	if v.Width != nil || v.Height != nil {
		vp := r.geo.Viewport()
		if v.Width != nil {
			vp.Width = *v.Width
		}
		if v.Height != nil {
			vp.Height = *v.Height
		}
		r.geo.SetViewport(vp)
	}
	// Any viewport change obsoletes in-flight thumbnail work.
	if r.thumbs != nil {
		r.thumbs.Bump()
	}
	r.panel.MarkDirty()
}

func (r *Room) sendError(c *Client, text string) {
	payload, _ := json.Marshal(ErrorPayload{Message: text})
	c.Send(&Message{Type: TypeError, ProjectID: r.projectID, Payload: payload})
}

func (r *Room) broadcast(msg *Message, excludeClientID string) {
	r.mu.RLock()
	targets := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		if c.ClientID != excludeClientID {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range targets {
		c.Send(msg)
	}
}

func (r *Room) addClient(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ClientID] = c
	return len(r.clients)
}

func (r *Room) removeClient(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c.ClientID)
	return len(r.clients)
}

// docSyncMessage serializes the full document for a joining client.
func (r *Room) docSyncMessage() *Message {
	payload, err := json.Marshal(r.ctx.Doc)
	if err != nil {
		r.log.Error("marshal document", "error", err, "project", r.projectID)
		return nil
	}
	return &Message{Type: TypeDocSync, ProjectID: r.projectID, Payload: payload}
}
