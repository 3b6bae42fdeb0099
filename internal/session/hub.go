package session

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// RoomFactory loads a project's document and builds its room. The hub
// calls it once per project when the first client joins.
type RoomFactory func(projectID string) (*Room, error)

// Hub routes clients to per-project rooms and owns their lifecycle: a
// room is created when its first client joins and torn down (flushing
// pending persistence) when its last client leaves.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // projectID -> room
	factory    RoomFactory
	register   chan *Client
	unregister chan *Client
}

func NewHub(factory RoomFactory) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		factory:    factory,
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Stop closes every room, flushing pending persistence. Called during
// server shutdown.
func (h *Hub) Stop() {
	h.mu.Lock()
	rooms := make([]*Room, 0, len(h.rooms))
	for id, room := range h.rooms {
		rooms = append(rooms, room)
		delete(h.rooms, id)
	}
	h.mu.Unlock()

	for _, room := range rooms {
		room.Close()
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ProjectID]
	if !ok {
		var err error
		room, err = h.factory(client.ProjectID)
		if err != nil {
			h.mu.Unlock()
			slog.Error("opening project room", "error", err, "project", client.ProjectID)
			payload, _ := json.Marshal(ErrorPayload{Message: "project unavailable"})
			client.Send(&Message{Type: TypeError, Payload: payload})
			return
		}
		h.rooms[client.ProjectID] = room
	}
	h.mu.Unlock()

	room.addClient(client)

	// The joining client gets the full document, then presence state.
	if syncMsg := room.docSyncMessage(); syncMsg != nil {
		client.Send(syncMsg)
	}
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	room.broadcast(&Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "project", client.ProjectID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ProjectID]
	if !ok {
		h.mu.Unlock()
		return
	}

	remaining := room.removeClient(client)
	close(client.send)
	room.presence.Remove(client.UserID)

	if remaining == 0 {
		delete(h.rooms, client.ProjectID)
	}
	h.mu.Unlock()

	if remaining == 0 {
		room.Close()
	} else {
		leavePayload, _ := json.Marshal(PresenceLeavePayload{UserID: client.UserID})
		room.broadcast(&Message{
			Type:    TypePresenceLeave,
			UserID:  client.UserID,
			Payload: leavePayload,
		}, "")
	}

	slog.Info("client left", "user", client.UserID, "project", client.ProjectID)
}

// dispatch routes one inbound message: presence is fanned out directly,
// everything else goes through the room's event goroutine.
func (h *Hub) dispatch(sender *Client, msg *Message) {
	h.mu.RLock()
	room, ok := h.rooms[sender.ProjectID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(room, sender, msg)
	case TypePointer, TypeCommand, TypeViewport:
		room.enqueue(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handlePresenceUpdate(room *Room, sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}
	presence.DisplayName = sender.DisplayName

	room.presence.Update(sender.UserID, &presence)

	outPayload, _ := json.Marshal(presence)
	room.broadcast(&Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}, sender.ClientID)
}
