package session

import (
	"encoding/json"

	"github.com/cutline/cutline/backend-go/internal/command"
)

// Message is the wire envelope for everything crossing a session socket.
type Message struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

const (
	// Client -> server.
	TypePointer  = "pointer"
	TypeCommand  = "command"
	TypeViewport = "viewport"

	// Server -> client.
	TypeWelcome   = "welcome"
	TypeDocSync   = "doc.sync"
	TypeChanged   = "changed"
	TypeSelection = "selection"
	TypeError     = "error"

	// Presence.
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
)

// PointerPayload is one pointer sample: press, move, or release, in view
// coordinates.
type PointerPayload struct {
	Phase    string  `json:"phase"` // "press" | "move" | "release"
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Additive bool    `json:"additive,omitempty"`
}

// CommandPayload is one menu command.
type CommandPayload = command.Request

// ViewportPayload adjusts scroll/zoom/size or seeks the playhead.
type ViewportPayload struct {
	ScrollDX float64  `json:"scrollDx,omitempty"`
	ScrollDY float64  `json:"scrollDy,omitempty"`
	Zoom     *float64 `json:"zoom,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
}

// ChangedPayload tells listeners which top-level buckets mutated.
type ChangedPayload struct {
	Buckets string `json:"buckets"` // comma-separated bucket names
}

// SelectionPayload is one selection change.
type SelectionPayload struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Selected bool   `json:"selected"`
	Additive bool   `json:"additive,omitempty"`
}

// PresencePayload carries a collaborator's cursor and selection.
type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
