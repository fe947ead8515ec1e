package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/somo-app/SomoAppBack/internal/models"
	"github.com/somo-app/SomoAppBack/internal/repository"
)

type ChatService struct {
	db               *pgxpool.Pool
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
	userRepo         userReader
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// ChatDelivery is the result of a sent message: the persisted message plus
// the participant it should be fanned out to.
type ChatDelivery struct {
	Conversation *models.Conversation
	Message      *models.ChatMessage
	RecipientID  int64
}

func NewChatService(
	db *pgxpool.Pool,
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	userRepo userReader,
) *ChatService {
	return &ChatService{
		db:               db,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
	}
}

func (s *ChatService) ListConversations(
	ctx context.Context,
	actorID int64,
	role string,
) ([]models.ConversationSummary, error) {
	if role != models.RoleStudent && role != models.RoleTeacher {
		return nil, ErrForbidden
	}
	return s.conversationRepo.ListForParticipant(ctx, actorID)
}

// CreateConversation is the "contact this tutor" action: a student opens (or
// reopens) the single conversation with a teacher.
func (s *ChatService) CreateConversation(
	ctx context.Context,
	actorID int64,
	role string,
	teacherID int64,
) (*models.Conversation, error) {
	if role != models.RoleStudent {
		return nil, ErrForbidden
	}
	if teacherID <= 0 || teacherID == actorID {
		return nil, ErrInvalidInput
	}

	teacher, err := s.userRepo.GetByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeacherNotFound
		}
		return nil, err
	}
	if teacher.Role != models.RoleTeacher {
		return nil, ErrInvalidInput
	}

	return s.conversationRepo.CreateOrGet(ctx, actorID, teacherID)
}

// ListMessages pages a conversation's history for the REST surface and
// marks the page read for the caller.
func (s *ChatService) ListMessages(
	ctx context.Context,
	actorID int64,
	role string,
	conversationID int64,
	page int,
	limit int,
) ([]models.ChatMessage, int, error) {
	if role != models.RoleStudent && role != models.RoleTeacher {
		return nil, 0, ErrForbidden
	}
	if conversationID <= 0 || page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}

	if _, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID); err != nil {
		return nil, 0, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	messages, total, err := txMessageRepo.ListByConversation(ctx, conversationID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	if err := txMessageRepo.MarkConversationRead(ctx, conversationID, actorID); err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}

	for i := range messages {
		if messages[i].SenderID != actorID {
			messages[i].IsRead = true
		}
	}
	return messages, total, nil
}

// SendMessage persists a message and bumps the conversation's recency in one
// transaction, then reports who to deliver it to.
func (s *ChatService) SendMessage(
	ctx context.Context,
	actorID int64,
	role string,
	conversationID int64,
	content string,
) (*ChatDelivery, error) {
	if role != models.RoleStudent && role != models.RoleTeacher {
		return nil, ErrForbidden
	}
	if conversationID <= 0 {
		return nil, ErrInvalidInput
	}
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	conversation, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txConversationRepo := repository.NewConversationRepository(tx)

	message, err := txMessageRepo.Create(ctx, conversationID, actorID, trimmed)
	if err != nil {
		return nil, err
	}
	if err := txConversationRepo.Touch(ctx, conversationID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &ChatDelivery{
		Conversation: conversation,
		Message:      message,
		RecipientID:  conversation.OtherParticipant(actorID),
	}, nil
}

// SessionHistory adapts the chat repositories to the loader a chat.Session
// consumes: the conversation list and full ascending histories.
type SessionHistory struct {
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
}

func NewSessionHistory(
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
) *SessionHistory {
	return &SessionHistory{conversationRepo: conversationRepo, messageRepo: messageRepo}
}

func (h *SessionHistory) ListConversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	return h.conversationRepo.ListForParticipant(ctx, userID)
}

func (h *SessionHistory) ListHistory(ctx context.Context, userID, conversationID int64) ([]models.ChatMessage, error) {
	if _, err := h.conversationRepo.GetByIDForParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return h.messageRepo.ListByConversationAsc(ctx, conversationID)
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
