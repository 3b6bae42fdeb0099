package session

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// PresenceManager tracks where every collaborator is on the timeline:
// cursor position, selected objects, display name. Writes arrive from the
// hub's goroutine while joining clients read a snapshot, hence the lock.
type PresenceManager struct {
	mu     sync.RWMutex
	byUser map[string]*PresencePayload
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{byUser: make(map[string]*PresencePayload)}
}

// Update replaces a user's presence wholesale; clients always send their
// complete state, never a diff.
func (pm *PresenceManager) Update(userID string, p *PresencePayload) {
	pm.mu.Lock()
	pm.byUser[userID] = p
	pm.mu.Unlock()
}

func (pm *PresenceManager) Remove(userID string) {
	pm.mu.Lock()
	delete(pm.byUser, userID)
	pm.mu.Unlock()
}

// Snapshot returns a copy that is safe to marshal outside the lock.
func (pm *PresenceManager) Snapshot() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	out := make(map[string]*PresencePayload, len(pm.byUser))
	for id, p := range pm.byUser {
		out[id] = p
	}
	return out
}

// StateMessage bundles the full presence picture for a joining client.
func (pm *PresenceManager) StateMessage() *Message {
	payload, err := json.Marshal(PresenceStatePayload{Presences: pm.Snapshot()})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{Type: TypePresenceState, Payload: payload}
}
