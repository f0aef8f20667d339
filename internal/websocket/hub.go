package websocket

import (
	"encoding/json"
	"sync"

	"github.com/carelink/carelink-backend/pkg/logger"
)

// Message is the envelope for every websocket frame we send
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

const (
	MessageVerificationState     = "verification_state"
	MessageVerificationCompleted = "verification_completed"
	MessageReviewNotice          = "review_notice"
)

// Hub tracks connected clients by subject and fans messages out to
// them. One subject may hold several connections (multiple tabs).
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes client lifecycle events. Call it once in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.subjectID] == nil {
				h.clients[client.subjectID] = make(map[*Client]bool)
			}
			h.clients[client.subjectID][client] = true
			h.mu.Unlock()
			logger.Debug("Websocket client connected", map[string]interface{}{
				"subject": client.subjectID,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.subjectID]; ok {
				if _, registered := clients[client]; registered {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.subjectID)
					}
				}
			}
			h.mu.Unlock()
			logger.Debug("Websocket client disconnected", map[string]interface{}{
				"subject": client.subjectID,
			})
		}
	}
}

// SendToSubject delivers a message to every connection of one subject
func (h *Hub) SendToSubject(subjectID string, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to encode websocket message", err, nil)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[subjectID] {
		select {
		case client.send <- data:
		default:
			// Slow consumer, drop the frame rather than block the hub
		}
	}
}

// Broadcast delivers a message to every connected client
func (h *Hub) Broadcast(message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to encode websocket message", err, nil)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.clients {
		for client := range clients {
			select {
			case client.send <- data:
			default:
			}
		}
	}
}

// ConnectionCount reports how many connections a subject holds
func (h *Hub) ConnectionCount(subjectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[subjectID])
}
