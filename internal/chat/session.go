// Package chat reconciles the two message sources a connected client sees:
// the history fetched over REST and the live events fanned out by the hub.
// One Session exists per websocket connection; it owns the per-conversation
// message caches and is the only writer to them.
package chat

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/somo-app/SomoAppBack/internal/models"
)

var ErrUnknownConversation = errors.New("conversation not in session")

// HistoryLoader is the REST side of the merge: the conversation list and
// per-conversation history fetches.
type HistoryLoader interface {
	ListConversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error)
	ListHistory(ctx context.Context, userID, conversationID int64) ([]models.ChatMessage, error)
}

type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "pending"
	OutboxConfirmed OutboxStatus = "confirmed"
	OutboxFailed    OutboxStatus = "failed"
)

// OutboxEntry tracks one outgoing message from send until its live echo
// comes back. ClientID is generated locally; MessageID is filled in once the
// server-confirmed message arrives.
type OutboxEntry struct {
	ClientID       string       `json:"client_id"`
	ConversationID int64        `json:"conversation_id"`
	Content        string       `json:"content"`
	Status         OutboxStatus `json:"status"`
	MessageID      int64        `json:"message_id,omitempty"`
	SentAt         time.Time    `json:"sent_at"`
}

type Session struct {
	mu     sync.Mutex
	userID int64
	loader HistoryLoader

	conversations []models.ConversationSummary
	history       map[int64][]models.ChatMessage
	seen          map[int64]map[int64]struct{}
	fetched       map[int64]struct{}
	activeID      int64
	outbox        map[string]*OutboxEntry
}

func NewSession(userID int64, loader HistoryLoader) *Session {
	return &Session{
		userID:  userID,
		loader:  loader,
		history: make(map[int64][]models.ChatMessage),
		seen:    make(map[int64]map[int64]struct{}),
		fetched: make(map[int64]struct{}),
		outbox:  make(map[string]*OutboxEntry),
	}
}

// Start loads the conversation list once. If contactID is non-zero (the
// "open chat with this tutor" action from a directory card), the
// conversation containing that participant becomes active; otherwise the
// most-recently-updated conversation does. The list is already sorted by
// recency by the loader.
func (s *Session) Start(ctx context.Context, contactID int64) error {
	conversations, err := s.loader.ListConversations(ctx, s.userID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = conversations

	if contactID != 0 {
		for _, c := range conversations {
			if c.HasParticipant(contactID) {
				s.activeID = c.ID
				return nil
			}
		}
	}
	if s.activeID == 0 && len(conversations) > 0 {
		s.activeID = conversations[0].ID
	}
	return nil
}

// Conversations returns a copy of the loaded conversation list.
func (s *Session) Conversations() []models.ConversationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ConversationSummary, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// ActiveConversation reports the conversation currently on display, zero if
// none.
func (s *Session) ActiveConversation() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// SelectConversation marks a conversation active and returns its messages.
// History is fetched at most once per conversation per session; later
// selections serve the cached list merged with any live events since.
func (s *Session) SelectConversation(ctx context.Context, conversationID int64) ([]models.ChatMessage, error) {
	s.mu.Lock()
	if !s.knownLocked(conversationID) {
		s.mu.Unlock()
		return nil, ErrUnknownConversation
	}
	if _, ok := s.fetched[conversationID]; ok {
		s.activeID = conversationID
		msgs := s.messagesLocked(conversationID)
		s.mu.Unlock()
		return msgs, nil
	}
	s.mu.Unlock()

	// Fetch outside the lock; a live event landing first is collapsed by
	// the id check in mergeLocked.
	fetchedMsgs, err := s.loader.ListHistory(ctx, s.userID, conversationID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range fetchedMsgs {
		s.mergeLocked(msg)
	}
	s.fetched[conversationID] = struct{}{}
	s.activeID = conversationID
	return s.messagesLocked(conversationID), nil
}

// Ingest merges a live message event. The merge is idempotent on message id,
// which is what makes the history-fetch/live-event race safe. Events for a
// conversation whose history has not been fetched this session are not made
// visible; they surface when the conversation is opened and its history is
// fetched. Ingest also confirms a matching pending outbox entry. The return
// value reports whether the message is visible to this session.
func (s *Session) Ingest(msg models.ChatMessage, clientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if clientID != "" {
		if entry, ok := s.outbox[clientID]; ok && entry.Status == OutboxPending && msg.SenderID == s.userID {
			entry.Status = OutboxConfirmed
			entry.MessageID = msg.ID
		}
	}

	s.touchConversationLocked(msg)

	if _, ok := s.fetched[msg.ConversationID]; !ok {
		return false
	}
	s.mergeLocked(msg)
	return true
}

// TrackOutgoing registers a pending outbox entry for a message about to be
// sent and returns it. The entry stays pending until the live echo carrying
// its client id arrives, or MarkFailed is called. An empty clientID gets a
// generated one.
func (s *Session) TrackOutgoing(conversationID int64, content string, clientID string) OutboxEntry {
	if clientID == "" {
		clientID = uuid.NewString()
	}
	entry := &OutboxEntry{
		ClientID:       clientID,
		ConversationID: conversationID,
		Content:        content,
		Status:         OutboxPending,
		SentAt:         time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox[entry.ClientID] = entry
	return *entry
}

// MarkFailed flags a pending outbox entry whose transport call failed.
func (s *Session) MarkFailed(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.outbox[clientID]; ok && entry.Status == OutboxPending {
		entry.Status = OutboxFailed
	}
}

// Pending returns the unconfirmed and failed outbox entries for a
// conversation, oldest first.
func (s *Session) Pending(conversationID int64) []OutboxEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]OutboxEntry, 0)
	for _, entry := range s.outbox {
		if entry.ConversationID == conversationID && entry.Status != OutboxConfirmed {
			entries = append(entries, *entry)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SentAt.Before(entries[j].SentAt)
	})
	return entries
}

// Messages returns a copy of the cached message list for a conversation, in
// arrival order.
func (s *Session) Messages(conversationID int64) []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messagesLocked(conversationID)
}

func (s *Session) knownLocked(conversationID int64) bool {
	for _, c := range s.conversations {
		if c.ID == conversationID {
			return true
		}
	}
	return false
}

func (s *Session) mergeLocked(msg models.ChatMessage) {
	ids, ok := s.seen[msg.ConversationID]
	if !ok {
		ids = make(map[int64]struct{})
		s.seen[msg.ConversationID] = ids
	}
	if _, dup := ids[msg.ID]; dup {
		return
	}
	ids[msg.ID] = struct{}{}
	s.history[msg.ConversationID] = append(s.history[msg.ConversationID], msg)
}

func (s *Session) messagesLocked(conversationID int64) []models.ChatMessage {
	cached := s.history[conversationID]
	out := make([]models.ChatMessage, len(cached))
	copy(out, cached)
	return out
}

// touchConversationLocked keeps the summary list's last-message preview and
// recency in step with live traffic, even for conversations whose history is
// not cached yet.
func (s *Session) touchConversationLocked(msg models.ChatMessage) {
	for i := range s.conversations {
		if s.conversations[i].ID != msg.ConversationID {
			continue
		}
		m := msg
		s.conversations[i].LastMessage = &m
		if msg.CreatedAt.After(s.conversations[i].UpdatedAt) {
			s.conversations[i].UpdatedAt = msg.CreatedAt
		}
		return
	}
}
