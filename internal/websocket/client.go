package chatws

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	websocket "github.com/gofiber/contrib/websocket"

	"github.com/somo-app/SomoAppBack/internal/chat"
	"github.com/somo-app/SomoAppBack/internal/services"
)

type sender interface {
	SendMessage(
		ctx context.Context,
		actorID int64,
		role string,
		conversationID int64,
		content string,
	) (*services.ChatDelivery, error)
}

// Client is one websocket connection. Its session owns the per-conversation
// caches and outbox; every outbound message event passes through the
// session's merge before being written, which is where duplicate deliveries
// are collapsed and events for unopened conversations are withheld.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	userKey string
	userID  int64
	session *chat.Session
	send    chan *Event
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64, session *chat.Session) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		userKey: strconv.FormatInt(userID, 10),
		userID:  userID,
		session: session,
		send:    make(chan *Event, 32),
	}
}

// Snapshot queues the conversation list and active selection for this
// client, sent right after registration.
func (c *Client) Snapshot() {
	c.queue(&Event{
		Type:                 EventConversations,
		Conversations:        c.session.Conversations(),
		ActiveConversationID: c.session.ActiveConversation(),
		Timestamp:            services.FormatChatTimestamp(time.Now().UTC()),
	})
}

func (c *Client) ReadPump(service sender, role string) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type           string `json:"type"`
			ConversationID string `json:"conversation_id"`
			ClientID       string `json:"client_id"`
			Content        string `json:"content"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			c.writeError("invalid message payload")
			continue
		}

		conversationID, err := strconv.ParseInt(incoming.ConversationID, 10, 64)
		if err != nil || conversationID <= 0 {
			c.writeError("invalid conversation id")
			continue
		}

		switch incoming.Type {
		case EventMessage:
			c.handleSend(service, role, conversationID, incoming.Content, incoming.ClientID)
		case EventSelect:
			c.handleSelect(conversationID)
		default:
			c.writeError("unsupported message type")
		}
	}
}

func (c *Client) handleSend(service sender, role string, conversationID int64, content, clientID string) {
	entry := c.session.TrackOutgoing(conversationID, content, clientID)

	delivery, err := service.SendMessage(context.Background(), c.userID, role, conversationID, content)
	if err != nil {
		c.session.MarkFailed(entry.ClientID)
		c.writeError("failed to send message")
		return
	}

	c.hub.Broadcast(&Event{
		Type:           EventMessage,
		ConversationID: strconv.FormatInt(delivery.Message.ConversationID, 10),
		ClientID:       entry.ClientID,
		Message:        delivery.Message,
		Timestamp:      services.FormatChatTimestamp(delivery.Message.CreatedAt),
		senderKey:      c.userKey,
		recipientKey:   strconv.FormatInt(delivery.RecipientID, 10),
	})
}

func (c *Client) handleSelect(conversationID int64) {
	messages, err := c.session.SelectConversation(context.Background(), conversationID)
	if err != nil {
		c.writeError("failed to load conversation")
		return
	}
	c.queue(&Event{
		Type:           EventHistory,
		ConversationID: strconv.FormatInt(conversationID, 10),
		Messages:       messages,
		Pending:        c.session.Pending(conversationID),
		Timestamp:      services.FormatChatTimestamp(time.Now().UTC()),
	})
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for event := range c.send {
		if event.Type == EventMessage && event.Message != nil {
			if visible := c.session.Ingest(*event.Message, event.ClientID); !visible {
				continue
			}
		}
		encoded, err := json.Marshal(event)
		if err != nil {
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, encoded); err != nil {
			return
		}
	}
}

func (c *Client) writeError(message string) {
	c.queue(&Event{
		Type:      EventError,
		Content:   message,
		Timestamp: services.FormatChatTimestamp(time.Now().UTC()),
	})
}

func (c *Client) queue(event *Event) {
	select {
	case c.send <- event:
	default:
		c.hub.Unregister(c)
	}
}
