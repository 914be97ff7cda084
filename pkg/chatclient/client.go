package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// APIError is a non-2xx response from the messaging service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chat api: status %d: %s", e.Status, e.Message)
}

// Attachment is an optional file part for SendMessage.
type Attachment struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

// Client talks to the messaging service's HTTP surface. The bearer token is
// attached to the authenticated endpoints.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: http.DefaultClient,
	}
}

func (c *Client) ListConversations(ctx context.Context, userID int64) ([]ConversationSummary, error) {
	var body struct {
		Conversations []ConversationSummary `json:"conversations"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/conversation/getConversations/%d", userID), nil, "", false, &body)
	if err != nil {
		return nil, err
	}
	return body.Conversations, nil
}

// CreateConversation resolves the pair to one thread. The bool reports
// whether the thread was created by this call (201) or already existed (200).
func (c *Client) CreateConversation(ctx context.Context, senderID, receiverID int64) (*Conversation, bool, error) {
	payload, err := json.Marshal(map[string]int64{
		"sender_id":   senderID,
		"receiver_id": receiverID,
	})
	if err != nil {
		return nil, false, err
	}

	var body struct {
		Conversation *Conversation `json:"conversation"`
	}
	status, err := c.doStatus(ctx, http.MethodPost, "/conversation/createConversation", bytes.NewReader(payload), "application/json", false, &body)
	if err != nil {
		return nil, false, err
	}
	return body.Conversation, status == http.StatusCreated, nil
}

func (c *Client) DeleteConversation(ctx context.Context, conversationID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/conversation/deleteConversation/%d", conversationID), nil, "", false, nil)
}

// SendMessage posts a multipart send request and returns the persisted
// message, whose server-assigned id feeds the optimistic EventSent append.
func (c *Client) SendMessage(ctx context.Context, receiverID int64, content string, attachment *Attachment) (*Message, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("message", content); err != nil {
		return nil, err
	}
	if attachment != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, attachment.Filename))
		header.Set("Content-Type", attachment.ContentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, attachment.Reader); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	var body struct {
		Message *Message `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/message/send/%d", receiverID), &buf, writer.FormDataContentType(), true, &body)
	if err != nil {
		return nil, err
	}
	return body.Message, nil
}

// ListMessages returns the full ascending history of a conversation. It also
// makes *Client a Fetcher for ThreadStore.
func (c *Client) ListMessages(ctx context.Context, conversationID int64) ([]Message, error) {
	var body struct {
		Messages []Message `json:"messages"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/message/getMessage/%d", conversationID), nil, "", true, &body)
	if err != nil {
		return nil, err
	}
	return body.Messages, nil
}

func (c *Client) DeleteMessage(ctx context.Context, messageID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/message/delete/%d", messageID), nil, "", false, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, authed bool, out any) error {
	_, err := c.doStatus(ctx, method, path, body, contentType, authed, out)
	return err
}

func (c *Client) doStatus(ctx context.Context, method, path string, body io.Reader, contentType string, authed bool, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 2048)).Decode(&apiBody)
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: apiBody.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
