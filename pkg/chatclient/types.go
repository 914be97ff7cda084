// Package chatclient is the client-side companion to the messaging service:
// an HTTP API client, a websocket listener for pushed events, and a reactive
// thread store that reconciles optimistic sends, pushed arrivals and deletes
// into one consistent message list.
package chatclient

import "time"

type Conversation struct {
	ID           int64     `json:"id"`
	ParticipantA int64     `json:"participant_a"`
	ParticipantB int64     `json:"participant_b"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type User struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type ConversationSummary struct {
	Conversation
	OtherUser   *User    `json:"other_user,omitempty"`
	LastMessage *Message `json:"last_message,omitempty"`
}

type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	ReceiverID     int64     `json:"receiver_id"`
	Content        string    `json:"content"`
	AttachmentRef  string    `json:"attachment_ref,omitempty"`
	AttachmentKind string    `json:"attachment_kind,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
