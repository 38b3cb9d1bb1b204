package collab

import (
	"encoding/json"

	"github.com/inamate/inamate/pathedit/internal/document"
	"github.com/inamate/inamate/pathedit/internal/engine"
)

type Message struct {
	Type     string          `json:"type"`
	ShapeID  string          `json:"shapeId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Host scene, client to server
	TypeHostSelect       = "host.select"
	TypeHostModified     = "host.modified"
	TypeHostTransforming = "host.transforming"

	// Editor output, server to clients
	TypeEvent          = "event"
	TypeOverlayAdd     = "overlay.add"
	TypeOverlayUpdate  = "overlay.update"
	TypeOverlayRemove  = "overlay.remove"
	TypeShapePath      = "shape.path"
	TypeShapeTransform = "shape.transform"

	// Operation message types
	TypeOpSubmit = "op.submit"
	TypeOpAck    = "op.ack"
	TypeOpNack   = "op.nack"
)

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	SubpathID   string     `json:"subpathId,omitempty"`
	PointID     string     `json:"pointId,omitempty"`
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

// WelcomePayload brings a new client up to date with the room.
type WelcomePayload struct {
	ClientID  string                 `json:"clientId"`
	SessionID string                 `json:"sessionId"`
	State     string                 `json:"state"`
	Shape     *document.Shape        `json:"shape,omitempty"`
	Panel     engine.PanelState      `json:"panel"`
	Overlays  []OverlayPayload       `json:"overlays"`
	Points    []engine.EditablePoint `json:"points,omitempty"`
}

// HostSelectPayload carries the newly selected shape, or null when the
// selection was cleared.
type HostSelectPayload struct {
	Shape *document.Shape `json:"shape"`
}

type HostModifiedPayload struct {
	Shape document.Shape `json:"shape"`
}

type HostTransformingPayload struct {
	Transform document.Transform `json:"transform"`
}

type EventPayload struct {
	Name string       `json:"name"`
	Data engine.Event `json:"data"`
}

type OverlayPayload struct {
	Ref     engine.OverlayRef `json:"ref"`
	Overlay *engine.Overlay   `json:"overlay,omitempty"`
}

type ShapePathPayload struct {
	Path string `json:"path"`
}

type ShapeTransformPayload struct {
	Transform document.Transform `json:"transform"`
}

// --- Operation Types ---

const (
	OpSubpathHighlight = "subpath.highlight"
	OpSubpathSelect    = "subpath.select"
	OpSubpathClear     = "subpath.clear"
	OpSubpathMove      = "subpath.move"
	OpSubpathDelete    = "subpath.delete"
	OpPointsEnable     = "points.enable"
	OpPointsDisable    = "points.disable"
	OpPointsToggle     = "points.toggle"
	OpPointSelect      = "point.select"
	OpPointMove        = "point.move"
	OpPointDrag        = "point.drag"
	OpPairSync         = "pair.sync"
)

// Operation is one editing request against the room's session.
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	ClientSeq int64  `json:"clientSeq"`

	SubpathID string `json:"subpathId,omitempty"`
	PointID   string `json:"pointId,omitempty"`
	PairID    string `json:"pairId,omitempty"`

	// For point.move (local space) and point.drag (scene space)
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	// For subpath.move
	DX float64 `json:"dx,omitempty"`
	DY float64 `json:"dy,omitempty"`

	// For subpath.highlight and subpath.select
	StrokeWidth float64 `json:"strokeWidth,omitempty"`

	// For pair.sync
	Synchronized *bool `json:"synchronized,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages
type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

func newMessage(typ, shapeID string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, ShapeID: shapeID, Payload: data}, nil
}
