package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendMessageCarriesBearerTokenAndMultipartBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/message/send/7" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue("message"); got != "hi there" {
			t.Errorf("unexpected message field %q", got)
		}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": Message{ID: 31, ConversationID: 5, SenderID: 42, ReceiverID: 7, Content: "hi there"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "token-123")
	msg, err := client.SendMessage(context.Background(), 7, "hi there", nil)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.ID != 31 {
		t.Fatalf("expected server-assigned id 31, got %d", msg.ID)
	}
}

func TestSendMessageWithAttachment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
		} else {
			file.Close()
			if header.Filename != "cv.pdf" {
				t.Errorf("unexpected filename %q", header.Filename)
			}
			if got := header.Header.Get("Content-Type"); got != "application/pdf" {
				t.Errorf("unexpected part content type %q", got)
			}
		}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": Message{ID: 32, AttachmentRef: "ref", AttachmentKind: "pdf"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "token-123")
	msg, err := client.SendMessage(context.Background(), 7, "", &Attachment{
		Filename:    "cv.pdf",
		ContentType: "application/pdf",
		Reader:      strings.NewReader("%PDF-1.4"),
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.AttachmentKind != "pdf" {
		t.Fatalf("expected pdf attachment, got %+v", msg)
	}
}

func TestCreateConversationReportsCreation(t *testing.T) {
	status := http.StatusCreated
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			SenderID   int64 `json:"sender_id"`
			ReceiverID int64 `json:"receiver_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Decode: %v", err)
		}
		if body.SenderID != 42 || body.ReceiverID != 7 {
			t.Errorf("unexpected pair: %+v", body)
		}

		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"conversation": Conversation{ID: 9, ParticipantA: 7, ParticipantB: 42},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")

	conversation, created, err := client.CreateConversation(context.Background(), 42, 7)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if !created || conversation.ID != 9 {
		t.Fatalf("expected created thread 9, got %+v created=%v", conversation, created)
	}

	status = http.StatusOK
	_, created, err = client.CreateConversation(context.Background(), 42, 7)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if created {
		t.Fatal("expected existing thread to report created=false")
	}
}

func TestAPIErrorsSurfaceStatusAndMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "token")
	_, err := client.ListMessages(context.Background(), 99)
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "Not found" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestListMessagesDecodesOrderedList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/message/getMessage/5" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []Message{
				{ID: 1, ConversationID: 5, Content: "first"},
				{ID: 2, ConversationID: 5, Content: "second"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "token")
	messages, err := client.ListMessages(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) != 2 || messages[0].ID != 1 || messages[1].ID != 2 {
		t.Fatalf("unexpected messages: %+v", messages)
	}
}
