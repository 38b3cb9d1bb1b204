package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inamate/inamate/pathedit/internal/document"
	"github.com/inamate/inamate/pathedit/internal/engine"
	"github.com/inamate/inamate/pathedit/internal/typeid"
)

const persistTimeout = 5 * time.Second

// Loader returns the stored state of a shape, or nil if none is stored.
type Loader func(ctx context.Context, shapeID string) (*document.Shape, error)

// Saver stores a shape whose path was edited in the room.
type Saver func(ctx context.Context, shape document.Shape, authorID string) error

type roomMsgKind int

const (
	roomJoin roomMsgKind = iota
	roomLeave
	roomMessage
	roomFlush
	roomStop
)

type roomMsg struct {
	kind   roomMsgKind
	client *Client
	msg    *Message
	done   chan struct{}
}

// Room is the editing session for one shape. Everything it owns, the
// engine session included, is touched only by its run goroutine; the rest of
// the server talks to it through inbox.
type Room struct {
	id       string
	shapeID  string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager

	canvas  *document.Canvas
	session *engine.Session
	log     *slog.Logger

	loader Loader
	saver  Saver

	inbox    chan roomMsg
	after    <-chan struct{}
	finished chan struct{}

	serverSeq  int64
	lastAuthor string
	warnings   []engine.Warning
}

func NewRoom(shapeID string, opts engine.Options, loader Loader, saver Saver) *Room {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	id := typeid.NewSessionID()
	log = log.With("shape", shapeID, "session", id)
	opts.Logger = log

	r := &Room{
		id:       id,
		shapeID:  shapeID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		canvas:   document.NewCanvas(document.NewEmptyDocument(shapeID, "")),
		log:      log,
		loader:   loader,
		saver:    saver,
		inbox:    make(chan roomMsg, 256),
		finished: make(chan struct{}),
	}
	r.session = engine.NewSession(r.canvas, opts)
	r.canvas.Watch(r.onCanvasChange)
	r.session.Subscribe(r.onEvent)
	return r
}

func (r *Room) run() {
	defer close(r.finished)
	if r.after != nil {
		<-r.after
	}
	r.load()

	for m := range r.inbox {
		switch m.kind {
		case roomJoin:
			r.join(m.client)
		case roomLeave:
			r.leave(m.client)
		case roomMessage:
			r.handleMessage(m.client, m.msg)
		case roomFlush:
			r.save()
			close(m.done)
		case roomStop:
			r.save()
			r.session.Close()
			return
		}
	}
}

// post queues m unless the room has already finished.
func (r *Room) post(m roomMsg) bool {
	select {
	case r.inbox <- m:
		return true
	case <-r.finished:
		return false
	}
}

func (r *Room) load() {
	if r.loader == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	shape, err := r.loader(ctx, r.shapeID)
	if err != nil {
		r.log.Error("load shape", "error", err)
		return
	}
	if shape == nil {
		return
	}
	shape.ID = r.shapeID
	r.canvas.PutShape(*shape)
	r.session.HandleSelectionChanged(r.shapeID)
}

func (r *Room) save() {
	for _, id := range r.canvas.Dirty() {
		shape, ok := r.canvas.Shape(id)
		if !ok {
			continue
		}
		if r.saver == nil {
			r.canvas.MarkClean(id)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		err := r.saver(ctx, shape, r.lastAuthor)
		cancel()
		if err != nil {
			r.log.Error("save shape", "error", err)
			continue
		}
		r.canvas.MarkClean(id)
		r.log.Info("shape saved", "author", r.lastAuthor)
	}
}

func (r *Room) join(c *Client) {
	r.clients[c.ClientID] = c

	welcome := WelcomePayload{
		ClientID:  c.ClientID,
		SessionID: r.id,
		State:     r.session.State().String(),
		Panel:     r.session.PanelState(),
		Overlays:  []OverlayPayload{},
		Points:    r.session.Points(),
	}
	if shape, ok := r.canvas.Shape(r.shapeID); ok {
		welcome.Shape = &shape
	}
	for _, ref := range r.canvas.OverlayRefs() {
		o, _ := r.canvas.Overlay(ref)
		welcome.Overlays = append(welcome.Overlays, OverlayPayload{Ref: ref, Overlay: &o})
	}
	r.sendTo(c, TypeWelcome, welcome)

	if stateMsg := r.presence.StateMessage(); stateMsg != nil {
		c.Send(stateMsg)
	}

	r.broadcastPayload(TypePresenceJoin, PresenceJoinPayload{
		UserID:      c.UserID,
		DisplayName: c.DisplayName,
	}, c.ClientID)

	r.log.Info("client joined", "user", c.UserID)
}

func (r *Room) leave(c *Client) {
	if _, ok := r.clients[c.ClientID]; !ok {
		return
	}
	delete(r.clients, c.ClientID)
	close(c.send)
	r.presence.Remove(c.UserID)

	r.broadcastPayload(TypePresenceLeave, PresenceLeavePayload{UserID: c.UserID}, "")

	r.log.Info("client left", "user", c.UserID)
}

func (r *Room) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		r.handlePresenceUpdate(sender, msg)
	case TypeHostSelect:
		r.handleHostSelect(sender, msg)
	case TypeHostModified:
		r.handleHostModified(sender, msg)
	case TypeHostTransforming:
		r.handleHostTransforming(sender, msg)
	case TypeOpSubmit:
		r.handleOpSubmit(sender, msg)
	default:
		r.log.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		r.sendError(sender, fmt.Errorf("unknown message type: %s", msg.Type))
	}
}

func (r *Room) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		r.log.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName
	r.presence.Update(sender.UserID, &presence)

	outPayload, _ := json.Marshal(presence)
	r.broadcast(&Message{
		Type:    TypePresenceUpdate,
		ShapeID: r.shapeID,
		UserID:  sender.UserID,
		Payload: outPayload,
	}, sender.ClientID)
}

func (r *Room) handleHostSelect(sender *Client, msg *Message) {
	var p HostSelectPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		r.sendError(sender, fmt.Errorf("invalid select payload: %w", err))
		return
	}
	if p.Shape == nil {
		r.session.HandleSelectionChanged("")
		return
	}
	if p.Shape.ID != r.shapeID {
		r.sendError(sender, fmt.Errorf("shape %s does not belong to this room", p.Shape.ID))
		return
	}
	r.canvas.PutShape(*p.Shape)
	r.session.HandleSelectionChanged(r.shapeID)
}

func (r *Room) handleHostModified(sender *Client, msg *Message) {
	var p HostModifiedPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		r.sendError(sender, fmt.Errorf("invalid modified payload: %w", err))
		return
	}
	if p.Shape.ID != r.shapeID {
		r.sendError(sender, fmt.Errorf("shape %s does not belong to this room", p.Shape.ID))
		return
	}
	r.canvas.PutShape(p.Shape)
	r.session.HandleShapeModified(r.shapeID)
}

func (r *Room) handleHostTransforming(sender *Client, msg *Message) {
	var p HostTransformingPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		r.sendError(sender, fmt.Errorf("invalid transforming payload: %w", err))
		return
	}
	if err := r.canvas.SetTransform(r.shapeID, p.Transform); err != nil {
		r.sendError(sender, err)
		return
	}
	r.session.HandleShapeTransforming(r.shapeID)
}

func (r *Room) handleOpSubmit(sender *Client, msg *Message) {
	var p OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		r.sendError(sender, fmt.Errorf("invalid operation payload: %w", err))
		return
	}
	op := p.Operation
	if op.ID == "" {
		op.ID = typeid.NewOpID()
	}

	r.warnings = nil
	err := applyOperation(r.session, op)
	if err == nil && len(r.warnings) > 0 {
		err = errors.New(r.warnings[0].Message)
	}
	if err != nil {
		r.log.Debug("operation rejected", "op", op.Type, "user", sender.UserID, "error", err)
		r.sendTo(sender, TypeOpNack, OperationNackPayload{OperationID: op.ID, Reason: err.Error()})
		return
	}

	r.serverSeq++
	r.lastAuthor = sender.UserID
	r.sendTo(sender, TypeOpAck, OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       r.serverSeq,
		ServerTimestamp: GetServerTimestamp(),
	})
}

// onCanvasChange mirrors the host scene to every client.
func (r *Room) onCanvasChange(ch document.Change) {
	switch ch.Kind {
	case document.ChangeOverlayAdd:
		r.broadcastPayload(TypeOverlayAdd, OverlayPayload{Ref: ch.Ref, Overlay: ch.Overlay}, "")
	case document.ChangeOverlayUpdate:
		r.broadcastPayload(TypeOverlayUpdate, OverlayPayload{Ref: ch.Ref, Overlay: ch.Overlay}, "")
	case document.ChangeOverlayRemove:
		r.broadcastPayload(TypeOverlayRemove, OverlayPayload{Ref: ch.Ref}, "")
	case document.ChangePath:
		r.broadcastPayload(TypeShapePath, ShapePathPayload{Path: ch.Path}, "")
	case document.ChangeTransform:
		r.broadcastPayload(TypeShapeTransform, ShapeTransformPayload{Transform: *ch.Transform}, "")
	}
}

// onEvent forwards engine events to every client.
func (r *Room) onEvent(e engine.Event) {
	switch e := e.(type) {
	case engine.Warning:
		r.warnings = append(r.warnings, e)
	case engine.SubpathDeleted:
		r.presence.ForgetSubpath(e.DeletedSubpath.ID)
	case engine.PointEditingModeChanged:
		if !e.Enabled {
			r.presence.ForgetPoints()
		}
	}
	r.broadcastPayload(TypeEvent, EventPayload{Name: e.EventName(), Data: e}, "")
}

func (r *Room) broadcastPayload(typ string, payload any, excludeClientID string) {
	msg, err := newMessage(typ, r.shapeID, payload)
	if err != nil {
		r.log.Error("marshal message", "type", typ, "error", err)
		return
	}
	r.broadcast(msg, excludeClientID)
}

func (r *Room) broadcast(msg *Message, excludeClientID string) {
	for _, c := range r.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}

func (r *Room) sendTo(c *Client, typ string, payload any) {
	msg, err := newMessage(typ, r.shapeID, payload)
	if err != nil {
		r.log.Error("marshal message", "type", typ, "error", err)
		return
	}
	c.Send(msg)
}

func (r *Room) sendError(c *Client, err error) {
	r.sendTo(c, TypeError, ErrorPayload{Message: err.Error()})
}
