package models

import "time"

type Conversation struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	TeacherID int64     `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ChatMessage struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationSummary struct {
	Conversation
	LastMessage *ChatMessage `json:"last_message,omitempty"`
	UnreadCount int          `json:"unread_count"`
}

// OtherParticipant returns the conversation member that is not userID.
func (c Conversation) OtherParticipant(userID int64) int64 {
	if userID == c.StudentID {
		return c.TeacherID
	}
	return c.StudentID
}

// HasParticipant reports whether userID is one of the two members.
func (c Conversation) HasParticipant(userID int64) bool {
	return userID == c.StudentID || userID == c.TeacherID
}
