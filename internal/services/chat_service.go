package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adill-v/HireLinkBack/internal/cache"
	"github.com/adill-v/HireLinkBack/internal/models"
	"github.com/adill-v/HireLinkBack/internal/repository"
)

const conversationCacheTTL = 30 * time.Second

type ChatService struct {
	db               *pgxpool.Pool
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
	userRepo         *repository.UserRepository
	storage          StorageService
	cache            cache.Cache
}

// ChatDelivery carries a freshly persisted message together with the routing
// information the delivery gateway needs.
type ChatDelivery struct {
	Conversation *models.Conversation
	Message      *models.ChatMessage
	RecipientID  int64
}

// AttachmentUpload is the optional file part of a send request.
type AttachmentUpload struct {
	File        multipart.File
	Filename    string
	ContentType string
}

func NewChatService(
	db *pgxpool.Pool,
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	userRepo *repository.UserRepository,
	storage StorageService,
	summaryCache cache.Cache,
) *ChatService {
	return &ChatService{
		db:               db,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		storage:          storage,
		cache:            summaryCache,
	}
}

func (s *ChatService) ListConversations(
	ctx context.Context,
	userID int64,
) ([]models.ConversationSummary, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}

	key := conversationCacheKey(userID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			var summaries []models.ConversationSummary
			if err := json.Unmarshal([]byte(cached), &summaries); err == nil {
				return summaries, nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			log.Printf("conversation cache get: %v", err)
		}
	}

	summaries, err := s.conversationRepo.ListForParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(summaries); err == nil {
			if err := s.cache.Set(ctx, key, string(encoded), conversationCacheTTL); err != nil {
				log.Printf("conversation cache set: %v", err)
			}
		}
	}

	return summaries, nil
}

// CreateConversation resolves the unordered pair to exactly one thread,
// creating it on first contact. The bool reports whether this call created
// the thread.
func (s *ChatService) CreateConversation(
	ctx context.Context,
	senderID int64,
	receiverID int64,
) (*models.Conversation, bool, error) {
	if senderID <= 0 || receiverID <= 0 || senderID == receiverID {
		return nil, false, ErrInvalidInput
	}

	if _, err := s.userRepo.GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, ErrUserNotFound
		}
		return nil, false, err
	}

	conversation, created, err := s.conversationRepo.CreateOrGet(ctx, senderID, receiverID)
	if err != nil {
		return nil, false, err
	}

	if created {
		s.invalidateConversations(ctx, senderID, receiverID)
	}

	return conversation, created, nil
}

func (s *ChatService) ListMessages(
	ctx context.Context,
	conversationID int64,
) ([]models.ChatMessage, error) {
	if conversationID <= 0 {
		return nil, ErrInvalidInput
	}

	if _, err := s.conversationRepo.GetByID(ctx, conversationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return s.messageRepo.ListByConversation(ctx, conversationID)
}

// SendMessage validates and persists a message to the receiver, lazily
// resolving the conversation thread on first contact. Live delivery is the
// caller's concern; this method only guarantees the durable write.
func (s *ChatService) SendMessage(
	ctx context.Context,
	senderID int64,
	receiverID int64,
	content string,
	attachment *AttachmentUpload,
) (*ChatDelivery, error) {
	if senderID <= 0 || receiverID <= 0 || senderID == receiverID {
		return nil, ErrInvalidInput
	}
	if err := validateMessageContent(content, attachment != nil); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var attachmentRef, attachmentKind string
	if attachment != nil {
		kind, ok := attachmentKindFor(attachment.ContentType)
		if !ok {
			return nil, ErrInvalidInput
		}
		if s.storage == nil {
			return nil, ErrStorageUnavailable
		}

		objectName := uuid.NewString() + filepath.Ext(attachment.Filename)
		ref, err := s.storage.UploadFile(ctx, attachment.File, objectName, "attachments")
		if err != nil {
			return nil, fmt.Errorf("upload attachment: %w", err)
		}
		attachmentRef = ref
		attachmentKind = kind
	}

	conversation, _, err := s.conversationRepo.CreateOrGet(ctx, senderID, receiverID)
	if err != nil {
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

	message, err := txMessageRepo.Create(
		ctx,
		conversation.ID,
		senderID,
		receiverID,
		sanitizeMessageContent(content),
		attachmentRef,
		attachmentKind,
	)
	if err != nil {
		return nil, err
	}

	if err := txConversationRepo.Touch(ctx, conversation.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.invalidateConversations(ctx, senderID, receiverID)

	return &ChatDelivery{
		Conversation: conversation,
		Message:      message,
		RecipientID:  receiverID,
	}, nil
}

func (s *ChatService) DeleteMessage(ctx context.Context, messageID int64) error {
	if messageID <= 0 {
		return ErrInvalidInput
	}

	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	deleted, err := s.messageRepo.DeleteByID(ctx, messageID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}

	s.invalidateConversations(ctx, message.SenderID, message.ReceiverID)
	return nil
}

// DeleteConversation removes a thread and all of its messages in one
// transaction, so a failure can never leave orphaned messages behind.
func (s *ChatService) DeleteConversation(ctx context.Context, conversationID int64) error {
	if conversationID <= 0 {
		return ErrInvalidInput
	}

	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txConversationRepo := repository.NewConversationRepository(tx)

	if _, err := txMessageRepo.DeleteByConversation(ctx, conversationID); err != nil {
		return err
	}

	deleted, err := txConversationRepo.Delete(ctx, conversationID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.invalidateConversations(ctx, conversation.ParticipantA, conversation.ParticipantB)
	return nil
}

func (s *ChatService) invalidateConversations(ctx context.Context, userIDs ...int64) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		keys = append(keys, conversationCacheKey(userID))
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		log.Printf("conversation cache invalidate: %v", err)
	}
}

func conversationCacheKey(userID int64) string {
	return fmt.Sprintf("conversations:%d", userID)
}
