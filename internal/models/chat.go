package models

import "time"

type Conversation struct {
	ID           int64     `json:"id"`
	ParticipantA int64     `json:"participant_a"`
	ParticipantB int64     `json:"participant_b"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ChatMessage struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	ReceiverID     int64     `json:"receiver_id"`
	Content        string    `json:"content"`
	AttachmentRef  string    `json:"attachment_ref,omitempty"`
	AttachmentKind string    `json:"attachment_kind,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationSummary struct {
	Conversation
	OtherUser   *User        `json:"other_user,omitempty"`
	LastMessage *ChatMessage `json:"last_message,omitempty"`
}
