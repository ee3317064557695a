package hub

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Client-to-server actions.
const (
	ActionPing     = "ping"
	ActionRegister = "register_user_id"
)

// Server-to-client control events.
const (
	EventPong       = "pong"
	EventRegistered = "registered"
	EventError      = "error"
)

// ClientMessage is a frame sent by a connected client.
type ClientMessage struct {
	Action string      `json:"action"`
	UserID json.Number `json:"userId,omitempty"`
}

// socketConn is one websocket endpoint subscribed under the account that
// authenticated the upgrade request.
type socketConn struct {
	id        string
	accountID uint
	hub       *Hub
	ws        *websocket.Conn
	send      Client
}

// ServeWebsocket subscribes ws under accountID and pumps events to it until the
// peer disconnects. It blocks for the lifetime of the connection.
func (h *Hub) ServeWebsocket(ws *websocket.Conn, accountID uint) {
	c := &socketConn{
		id:        uuid.NewString(),
		accountID: accountID,
		hub:       h,
		ws:        ws,
		send:      NewClient(),
	}

	h.Subscribe(accountID, c.send)
	c.log().Info("websocket connected")

	go c.writePump()
	c.readPump()
}

func (c *socketConn) log() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"conn_id":    c.id,
		"account_id": c.accountID,
	})
}

func (c *socketConn) readPump() {
	defer func() {
		c.hub.Unsubscribe(c.accountID, c.send)
		c.log().Info("websocket disconnected")
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log().WithError(err).Warn("websocket read failed")
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *socketConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *socketConn) handleMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.reply(Event{Type: EventError, Payload: map[string]string{"message": "malformed message"}})
		return
	}

	switch msg.Action {
	case ActionPing:
		c.reply(Event{Type: EventPong})
	case ActionRegister:
		c.handleRegister(msg.UserID)
	default:
		c.reply(Event{Type: EventError, Payload: map[string]string{"message": "unknown action"}})
	}
}

// handleRegister keeps compatibility with clients that announce their own id
// after connecting. The subscription is already bound to the token's subject,
// so the announcement is only checked, never trusted.
func (c *socketConn) handleRegister(announced json.Number) {
	id, err := strconv.ParseUint(announced.String(), 10, 64)
	if err != nil || uint(id) != c.accountID {
		c.log().WithField("announced", announced.String()).Warn("websocket: announced user id does not match session")
		c.reply(Event{Type: EventError, Payload: map[string]string{"message": "user id does not match session"}})
		return
	}
	c.reply(Event{Type: EventRegistered, Payload: map[string]uint{"userId": c.accountID}})
}

// reply queues a frame for this connection only. Only the read pump calls it,
// and the read pump is the only goroutine that closes c.send.
func (c *socketConn) reply(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
