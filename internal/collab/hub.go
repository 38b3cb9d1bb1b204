package collab

import (
	"log/slog"
	"sync"

	"github.com/inamate/inamate/pathedit/internal/engine"
)

// Hub routes clients to the room of the shape they edit. Rooms are created
// on the first join and stopped, after saving, when the last client leaves.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]*Room           // shapeID -> room
	members map[string]int             // shapeID -> connected clients
	closing map[string]<-chan struct{} // shapeID -> finished channel of a stopping room

	register   chan *Client
	unregister chan *Client

	opts   engine.Options
	loader Loader
	saver  Saver
}

func NewHub(opts engine.Options, loader Loader, saver Saver) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		members:    make(map[string]int),
		closing:    make(map[string]<-chan struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		opts:       opts,
		loader:     loader,
		saver:      saver,
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

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ShapeID]
	if !ok {
		room = NewRoom(client.ShapeID, h.opts, h.loader, h.saver)
		// a room for the same shape that is still saving must finish first
		room.after = h.closing[client.ShapeID]
		delete(h.closing, client.ShapeID)
		h.rooms[client.ShapeID] = room
		go room.run()
	}
	h.members[client.ShapeID]++
	h.mu.Unlock()

	client.room = room
	room.post(roomMsg{kind: roomJoin, client: client})
	close(client.joined)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ShapeID]
	if !ok || room != client.room {
		h.mu.Unlock()
		return
	}
	h.members[client.ShapeID]--
	empty := h.members[client.ShapeID] == 0
	if empty {
		delete(h.rooms, client.ShapeID)
		delete(h.members, client.ShapeID)
		h.closing[client.ShapeID] = room.finished
	}
	h.mu.Unlock()

	room.post(roomMsg{kind: roomLeave, client: client})
	if empty {
		room.post(roomMsg{kind: roomStop})
		slog.Info("room closed", "shape", client.ShapeID)
		go h.forget(client.ShapeID, room.finished)
	}
}

// forget drops the closing entry of a room once it has finished, unless a
// newer room for the shape already took it over.
func (h *Hub) forget(shapeID string, finished <-chan struct{}) {
	<-finished
	h.mu.Lock()
	if h.closing[shapeID] == finished {
		delete(h.closing, shapeID)
	}
	h.mu.Unlock()
}

func (h *Hub) closingRooms() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.closing)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	if sender.room == nil {
		slog.Warn("message before join", "user", sender.UserID)
		return
	}
	sender.room.post(roomMsg{kind: roomMessage, client: sender, msg: msg})
}

// Stop saves every room with unsaved edits and waits for rooms that are
// already closing. Rooms keep running afterwards.
func (h *Hub) Stop() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	closing := make([]<-chan struct{}, 0, len(h.closing))
	for _, ch := range h.closing {
		closing = append(closing, ch)
	}
	h.mu.RUnlock()

	for _, r := range rooms {
		done := make(chan struct{})
		if !r.post(roomMsg{kind: roomFlush, done: done}) {
			continue
		}
		select {
		case <-done:
		case <-r.finished:
		}
	}
	for _, ch := range closing {
		<-ch
	}
}

// Rooms returns the number of open rooms.
func (h *Hub) Rooms() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
