// Package chatws is the delivery gateway: it owns the live websocket
// connections, keeps the presence registry in sync, and pushes persisted
// messages to reachable recipients. Pushes are best-effort; durability is the
// ledger's job.
package chatws

import (
	"encoding/json"
	"log"
	"sync"

	websocket "github.com/gofiber/contrib/websocket"

	"github.com/adill-v/HireLinkBack/internal/models"
	"github.com/adill-v/HireLinkBack/internal/presence"
)

const (
	EventNewMessage  = "newMessage"
	EventOnlineUsers = "onlineUsers"
)

// Envelope is the wire format for every pushed event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type Hub struct {
	registry   *presence.Registry
	register   chan *Client
	unregister chan *Client
	push       chan *models.ChatMessage
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

func NewHub(registry *presence.Registry) *Hub {
	return &Hub{
		registry:   registry,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		push:       make(chan *models.ChatMessage, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
		done:   make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			prior := h.registry.Register(client.userID, client)
			if prior == nil {
				h.broadcastPresence()
				continue
			}
			// Second login for the same user evicts the first. Membership is
			// unchanged, so only the replacement needs the current online set.
			if evicted, ok := prior.(*Client); ok {
				evicted.shutdown()
			}
			h.sendPresence(client)
		case client := <-h.unregister:
			removed := h.registry.Unregister(client.userID, client)
			client.shutdown()
			if removed {
				h.broadcastPresence()
			}
		case message := <-h.push:
			h.deliver(message)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Push hands a persisted message to the gateway without blocking the caller.
// If the gateway is saturated the push is dropped; the recipient will see the
// message on their next fetch.
func (h *Hub) Push(message *models.ChatMessage) {
	select {
	case h.push <- message:
	default:
		log.Printf("chat hub push queue full, dropping live delivery for message %d", message.ID)
	}
}

func (h *Hub) deliver(message *models.ChatMessage) {
	conn, ok := h.registry.Lookup(message.ReceiverID)
	if !ok {
		return
	}

	payload, err := encodeEnvelope(EventNewMessage, message)
	if err != nil {
		log.Printf("chat hub encode message: %v", err)
		return
	}

	if !conn.Enqueue(payload) {
		log.Printf("chat hub dropped message %d for slow client %d", message.ID, message.ReceiverID)
	}
}

// sendPresence pushes the current online-user set to a single client.
func (h *Hub) sendPresence(client *Client) {
	payload, err := encodeEnvelope(EventOnlineUsers, h.registry.Snapshot())
	if err != nil {
		log.Printf("chat hub encode presence: %v", err)
		return
	}
	if !client.Enqueue(payload) {
		log.Printf("chat hub dropped presence update for slow client %d", client.userID)
	}
}

// broadcastPresence sends the full online-user set to every connected client
// on each membership change.
func (h *Hub) broadcastPresence() {
	online := h.registry.Snapshot()
	payload, err := encodeEnvelope(EventOnlineUsers, online)
	if err != nil {
		log.Printf("chat hub encode presence: %v", err)
		return
	}

	for _, userID := range online {
		if conn, ok := h.registry.Lookup(userID); ok {
			if !conn.Enqueue(payload) {
				log.Printf("chat hub dropped presence update for slow client %d", userID)
			}
		}
	}
}

func encodeEnvelope(event string, data any) ([]byte, error) {
	return json.Marshal(Envelope{Event: event, Data: data})
}

// Enqueue implements presence.Conn. It never blocks; a full buffer or a
// closed connection rejects the payload.
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) shutdown() {
	c.once.Do(func() {
		close(c.done)
	})
}

// ReadPump drains inbound frames until the peer disconnects. Sends travel
// over HTTP, so inbound traffic is only pings and closes.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}
