package repository

import (
	"context"
	"database/sql"

	"github.com/adill-v/HireLinkBack/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// CreateOrGet resolves the unordered pair (userA, userB) to exactly one
// conversation. The pair is canonicalized to (LEAST, GREATEST) so that both
// orderings hit the same unique key, and the upsert makes concurrent first
// contact safe: both callers get the same row back. The returned bool reports
// whether the row was inserted by this call.
func (r *ConversationRepository) CreateOrGet(
	ctx context.Context,
	userA int64,
	userB int64,
) (*models.Conversation, bool, error) {
	// xmax = 0 only holds for a freshly inserted row.
	query := `
		INSERT INTO conversations (participant_low, participant_high)
		VALUES (LEAST($1::bigint, $2::bigint), GREATEST($1::bigint, $2::bigint))
		ON CONFLICT (participant_low, participant_high)
		DO UPDATE SET updated_at = conversations.updated_at
		RETURNING id, participant_low, participant_high, created_at, updated_at, (xmax = 0)
	`

	var conversation models.Conversation
	var created bool
	err := r.db.QueryRow(ctx, query, userA, userB).Scan(
		&conversation.ID,
		&conversation.ParticipantA,
		&conversation.ParticipantB,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
		&created,
	)
	if err != nil {
		return nil, false, err
	}

	return &conversation, created, nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, conversationID int64) (*models.Conversation, error) {
	query := `
		SELECT id, participant_low, participant_high, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, conversationID).Scan(
		&conversation.ID,
		&conversation.ParticipantA,
		&conversation.ParticipantB,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) ListForParticipant(
	ctx context.Context,
	participantID int64,
) ([]models.ConversationSummary, error) {
	query := `
		SELECT
			c.id,
			c.participant_low,
			c.participant_high,
			c.created_at,
			c.updated_at,
			u.id,
			u.display_name,
			COALESCE(u.avatar_url, ''),
			u.created_at,
			lm.id,
			lm.conversation_id,
			lm.sender_id,
			lm.receiver_id,
			lm.content,
			lm.attachment_ref,
			lm.attachment_kind,
			lm.created_at
		FROM conversations c
		JOIN users u ON u.id = CASE
			WHEN c.participant_low = $1 THEN c.participant_high
			ELSE c.participant_low
		END
		LEFT JOIN LATERAL (
			SELECT id, conversation_id, sender_id, receiver_id, content, attachment_ref, attachment_kind, created_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		WHERE c.participant_low = $1 OR c.participant_high = $1
		ORDER BY COALESCE(lm.created_at, c.updated_at, c.created_at) DESC, c.id DESC
	`

	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var summary models.ConversationSummary
		var other models.User
		var messageID sql.NullInt64
		var messageConversationID sql.NullInt64
		var messageSenderID sql.NullInt64
		var messageReceiverID sql.NullInt64
		var messageContent sql.NullString
		var messageAttachmentRef sql.NullString
		var messageAttachmentKind sql.NullString
		var messageCreatedAt sql.NullTime

		if err := rows.Scan(
			&summary.ID,
			&summary.ParticipantA,
			&summary.ParticipantB,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&other.ID,
			&other.DisplayName,
			&other.AvatarURL,
			&other.CreatedAt,
			&messageID,
			&messageConversationID,
			&messageSenderID,
			&messageReceiverID,
			&messageContent,
			&messageAttachmentRef,
			&messageAttachmentKind,
			&messageCreatedAt,
		); err != nil {
			return nil, err
		}

		summary.OtherUser = &other
		if messageID.Valid {
			summary.LastMessage = &models.ChatMessage{
				ID:             messageID.Int64,
				ConversationID: messageConversationID.Int64,
				SenderID:       messageSenderID.Int64,
				ReceiverID:     messageReceiverID.Int64,
				Content:        messageContent.String,
				AttachmentRef:  messageAttachmentRef.String,
				AttachmentKind: messageAttachmentKind.String,
				CreatedAt:      messageCreatedAt.Time,
			}
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (r *ConversationRepository) Touch(ctx context.Context, conversationID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET updated_at = NOW()
		WHERE id = $1
	`, conversationID)
	return err
}

// Delete removes the conversation row itself. Message cleanup is the
// service's responsibility and runs in the same transaction.
func (r *ConversationRepository) Delete(ctx context.Context, conversationID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM conversations
		WHERE id = $1
	`, conversationID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
