package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const (
	// sendBuffer absorbs broadcast bursts: a busy drag emits a changed
	// message per pointer move for every collaborator.
	sendBuffer = 256

	writeTimeout = 10 * time.Second
	keepAlive    = 30 * time.Second

	// readLimit bounds inbound frames; pointer and command payloads are
	// tiny, and a full doc.sync only ever travels server to client.
	readLimit = 256 * 1024
)

// Client is one websocket connection bound to a project room. The read
// side feeds the hub; the write side drains a buffered outbox so a slow
// consumer never stalls the room's event goroutine.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	UserID      string
	DisplayName string
	ProjectID   string
	ClientID    string
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, projectID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		UserID:      userID,
		DisplayName: displayName,
		ProjectID:   projectID,
		ClientID:    clientID,
	}
}

// ReadPump decodes inbound frames and hands them to the hub until the
// peer goes away. Every message is stamped with the connection's own
// identity; clients cannot speak for one another.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(readLimit)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				slog.Debug("session read ended", "error", err, "client", c.ClientID)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("undecodable session message", "error", err, "client", c.ClientID)
			continue
		}
		msg.UserID = c.UserID
		msg.ClientID = c.ClientID
		msg.ProjectID = c.ProjectID

		c.hub.dispatch(c, &msg)
	}
}

// WritePump drains the outbox and keeps the connection alive with pings.
func (c *Client) WritePump(ctx context.Context) {
	keep := time.NewTicker(keepAlive)
	defer func() {
		keep.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.write(ctx, frame); err != nil {
				slog.Debug("session write ended", "error", err, "client", c.ClientID)
				return
			}

		case <-keep.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
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

func (c *Client) write(ctx context.Context, frame []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, frame)
}

// Send queues one message without ever blocking the caller. Broadcasts
// driven by pointer streams are lossy by nature; the next frame
// supersedes a dropped one.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal session message", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("client outbox full, dropping message", "client", c.ClientID, "type", msg.Type)
	}
}
