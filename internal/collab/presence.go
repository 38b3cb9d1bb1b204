package collab

import (
	"encoding/json"
	"log/slog"
)

// PresenceManager tracks what each user in a room is pointing at. It is
// owned by the room goroutine.
type PresenceManager struct {
	presences map[string]*PresencePayload // userID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

func (pm *PresenceManager) Update(userID string, p *PresencePayload) {
	pm.presences[userID] = p
}

func (pm *PresenceManager) Remove(userID string) {
	delete(pm.presences, userID)
}

// ForgetSubpath drops references to a deleted subpath and its points.
func (pm *PresenceManager) ForgetSubpath(subpathID string) {
	for _, p := range pm.presences {
		if p.SubpathID == subpathID {
			p.SubpathID, p.PointID = "", ""
		}
	}
}

// ForgetPoints drops every point reference once point editing ends.
func (pm *PresenceManager) ForgetPoints() {
	for _, p := range pm.presences {
		p.PointID = ""
	}
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	result := make(map[string]*PresencePayload, len(pm.presences))
	for k, v := range pm.presences {
		cp := *v
		result[k] = &cp
	}
	return result
}

func (pm *PresenceManager) StateMessage() *Message {
	all := pm.GetAll()
	payload, err := json.Marshal(PresenceStatePayload{Presences: all})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypePresenceState,
		Payload: payload,
	}
}
