// Package chatws fans chat events out to connected clients. Each user has a
// room keyed by user id; joining the room is implicit on connect. Delivery
// is best-effort: a client that cannot keep up is dropped.
package chatws

import (
	"log"

	"github.com/somo-app/SomoAppBack/internal/chat"
	"github.com/somo-app/SomoAppBack/internal/models"
)

// Event is one frame on the chat socket, in both directions. Routing fields
// are not serialized.
type Event struct {
	Type                 string                       `json:"type"`
	ConversationID       string                       `json:"conversation_id,omitempty"`
	ClientID             string                       `json:"client_id,omitempty"`
	Content              string                       `json:"content,omitempty"`
	Timestamp            string                       `json:"timestamp,omitempty"`
	Message              *models.ChatMessage          `json:"message,omitempty"`
	Conversations        []models.ConversationSummary `json:"conversations,omitempty"`
	ActiveConversationID int64                        `json:"active_conversation_id,omitempty"`
	Messages             []models.ChatMessage         `json:"messages,omitempty"`
	Pending              []chat.OutboxEntry           `json:"pending,omitempty"`

	senderKey    string
	recipientKey string
}

const (
	EventMessage       = "message"
	EventSelect        = "select"
	EventHistory       = "history"
	EventConversations = "conversations"
	EventError         = "error"
)

type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Event
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Event, 64),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userKey]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userKey] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userKey]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.userKey)
			}
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast routes an event to the sender's and the recipient's rooms.
func (h *Hub) Broadcast(event *Event) {
	h.broadcast <- event
}

func (h *Hub) deliver(event *Event) {
	if event.senderKey == "" && event.recipientKey == "" {
		log.Printf("chat hub: event %q has no destination", event.Type)
		return
	}
	h.sendToUser(event.senderKey, event)
	if event.recipientKey != "" && event.recipientKey != event.senderKey {
		h.sendToUser(event.recipientKey, event)
	}
}

func (h *Hub) sendToUser(userKey string, event *Event) {
	set, ok := h.clients[userKey]
	if !ok {
		return
	}
	for client := range set {
		select {
		case client.send <- event:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, userKey)
	}
}
