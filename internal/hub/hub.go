package hub

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client represents a single connected endpoint of an account.
// The websocket and SSE handlers drain it; the hub closes it on Unsubscribe.
type Client chan []byte

// ClientBuffer is the number of undelivered events a client may queue before
// further events to it are dropped.
const ClientBuffer = 64

// NewClient allocates a client channel with the default buffer.
func NewClient() Client {
	return make(Client, ClientBuffer)
}

// Publisher delivers an event to every endpoint of one account.
type Publisher interface {
	Publish(accountID uint, event Event)
}

// Hub maps account IDs to their currently connected clients.
type Hub struct {
	accounts map[uint]map[Client]bool
	mu       sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		accounts: make(map[uint]map[Client]bool),
	}
}

// Subscribe adds a client under an account.
func (h *Hub) Subscribe(accountID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.accounts[accountID]; !ok {
		h.accounts[accountID] = make(map[Client]bool)
	}
	h.accounts[accountID][client] = true

	logrus.WithFields(logrus.Fields{
		"account_id": accountID,
		"endpoints":  len(h.accounts[accountID]),
	}).Debug("hub: client subscribed")
}

// Unsubscribe removes a client and closes its channel. Calling it twice is a no-op.
func (h *Hub) Unsubscribe(accountID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.accounts[accountID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client)
	if len(clients) == 0 {
		delete(h.accounts, accountID)
	}

	logrus.WithField("account_id", accountID).Debug("hub: client unsubscribed")
}

// Publish sends an event to every client of an account. With no clients the
// event is dropped; a client whose buffer is full misses it.
func (h *Hub) Publish(accountID uint, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.accounts[accountID]
	if !ok {
		return
	}

	messageBytes, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).WithField("event", event.Type).Error("hub: failed to encode event")
		return
	}

	for client := range clients {
		select {
		case client <- messageBytes:
		default:
			logrus.WithFields(logrus.Fields{
				"account_id": accountID,
				"event":      event.Type,
			}).Warn("hub: client buffer full, event dropped")
		}
	}
}

// Online reports whether an account has at least one connected client.
func (h *Hub) Online(accountID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.accounts[accountID]) > 0
}
