package repository

import (
	"context"
	"database/sql"

	"github.com/adill-v/HireLinkBack/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(
	ctx context.Context,
	conversationID int64,
	senderID int64,
	receiverID int64,
	content string,
	attachmentRef string,
	attachmentKind string,
) (*models.ChatMessage, error) {
	query := `
		INSERT INTO messages (conversation_id, sender_id, receiver_id, content, attachment_ref, attachment_kind)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
		RETURNING id, conversation_id, sender_id, receiver_id, content,
			COALESCE(attachment_ref, ''), COALESCE(attachment_kind, ''), created_at
	`

	var message models.ChatMessage
	err := r.db.QueryRow(ctx, query,
		conversationID, senderID, receiverID, content, attachmentRef, attachmentKind,
	).Scan(
		&message.ID,
		&message.ConversationID,
		&message.SenderID,
		&message.ReceiverID,
		&message.Content,
		&message.AttachmentRef,
		&message.AttachmentKind,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &message, nil
}

// ListByConversation returns the full message history of a conversation in
// ascending creation order, ties broken by id so interleaved sends still
// yield one consistent order.
func (r *MessageRepository) ListByConversation(
	ctx context.Context,
	conversationID int64,
) ([]models.ChatMessage, error) {
	query := `
		SELECT id, conversation_id, sender_id, receiver_id, content,
			attachment_ref, attachment_kind, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		var message models.ChatMessage
		var attachmentRef sql.NullString
		var attachmentKind sql.NullString
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.SenderID,
			&message.ReceiverID,
			&message.Content,
			&attachmentRef,
			&attachmentKind,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}

		message.AttachmentRef = attachmentRef.String
		message.AttachmentKind = attachmentKind.String
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *MessageRepository) GetByID(ctx context.Context, messageID int64) (*models.ChatMessage, error) {
	query := `
		SELECT id, conversation_id, sender_id, receiver_id, content,
			COALESCE(attachment_ref, ''), COALESCE(attachment_kind, ''), created_at
		FROM messages
		WHERE id = $1
	`

	var message models.ChatMessage
	err := r.db.QueryRow(ctx, query, messageID).Scan(
		&message.ID,
		&message.ConversationID,
		&message.SenderID,
		&message.ReceiverID,
		&message.Content,
		&message.AttachmentRef,
		&message.AttachmentKind,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &message, nil
}

func (r *MessageRepository) DeleteByID(ctx context.Context, messageID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM messages
		WHERE id = $1
	`, messageID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *MessageRepository) DeleteByConversation(ctx context.Context, conversationID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM messages
		WHERE conversation_id = $1
	`, conversationID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
