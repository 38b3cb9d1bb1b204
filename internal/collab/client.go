package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait   = 10 * time.Second
	pingPeriod  = 30 * time.Second
	maxMsgSize  = 64 * 1024
	sendBacklog = 256
)

var errNotText = errors.New("binary frames are not supported")

// Client is one websocket connection editing a single shape.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	room   *Room
	joined chan struct{}

	// set by the room goroutine once the send queue overflowed
	lagging bool
	// sequence number of the last message read from the connection
	readSeq int64

	UserID      string
	DisplayName string
	ShapeID     string
	ClientID    string
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, shapeID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBacklog),
		joined:      make(chan struct{}),
		UserID:      userID,
		DisplayName: displayName,
		ShapeID:     shapeID,
		ClientID:    clientID,
	}
}

// ReadPump forwards incoming messages to the client's room until the
// connection fails, then unregisters the client.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	select {
	case <-c.joined:
	case <-ctx.Done():
		return
	}

	c.conn.SetReadLimit(maxMsgSize)

	for {
		msg, err := c.read(ctx)
		switch {
		case err == nil:
			c.hub.handleMessage(c, msg)
		case errors.Is(err, errNotText), isDecodeError(err):
			slog.Warn("invalid message", "error", err, "user", c.UserID)
		default:
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				slog.Debug("read error", "error", err, "user", c.UserID)
			}
			return
		}
	}
}

// read returns the next message stamped with the sender's identity.
func (c *Client) read(ctx context.Context) (*Message, error) {
	typ, data, err := c.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	if typ != websocket.MessageText {
		return nil, errNotText
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, decodeError{err}
	}
	c.readSeq++
	msg.Seq = c.readSeq
	msg.UserID = c.UserID
	msg.ClientID = c.ClientID
	msg.ShapeID = c.ShapeID
	return &msg, nil
}

type decodeError struct{ err error }

func (e decodeError) Error() string { return fmt.Sprintf("decode message: %v", e.err) }
func (e decodeError) Unwrap() error { return e.err }

func isDecodeError(err error) bool {
	var de decodeError
	return errors.As(err, &de)
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.write(ctx, data); err != nil {
				slog.Debug("write error", "error", err, "user", c.UserID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// Send queues msg for the write pump. It must only be called from the
// client's room goroutine, which also closes the queue.
// An overflowing queue drops the connection; the client rejoins and gets a
// fresh welcome.
func (c *Client) Send(msg *Message) {
	if c.lagging {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	select {
	case c.send <- data:
	default:
		c.lagging = true
		slog.Warn("client send queue full, disconnecting", "user", c.UserID, "client", c.ClientID)
		if c.conn != nil {
			// the close handshake must not hold up the room
			go c.conn.Close(websocket.StatusPolicyViolation, "send queue full")
		}
	}
}
