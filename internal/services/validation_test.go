package services

import (
	"strings"
	"testing"
)

func TestValidateMessageContentBounds(t *testing.T) {
	cases := []struct {
		name          string
		content       string
		hasAttachment bool
		wantErr       bool
	}{
		{name: "single character", content: "x"},
		{name: "at limit", content: strings.Repeat("a", 5000)},
		{name: "over limit", content: strings.Repeat("a", 5001), wantErr: true},
		{name: "empty", content: "", wantErr: true},
		{name: "whitespace only", content: "   \n\t ", wantErr: true},
		{name: "empty with attachment", content: "", hasAttachment: true},
		{name: "over limit with attachment", content: strings.Repeat("a", 5001), hasAttachment: true, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateMessageContent(tc.content, tc.hasAttachment)
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestSanitizeMessageContentNeutralizesMarkup(t *testing.T) {
	got := sanitizeMessageContent(`<script>alert("x")</script>hello <b>world</b>`)
	if strings.Contains(got, "<script>") || strings.Contains(got, "<b>") {
		t.Fatalf("expected markup to be neutralized, got %q", got)
	}
	if !strings.Contains(got, "hello") || !strings.Contains(got, "world") {
		t.Fatalf("expected text to survive sanitization, got %q", got)
	}
}

func TestSanitizeMessageContentKeepsPlainText(t *testing.T) {
	got := sanitizeMessageContent("  see you at 5pm  ")
	if got != "see you at 5pm" {
		t.Fatalf("expected trimmed plain text, got %q", got)
	}
}

func TestAttachmentKindFor(t *testing.T) {
	cases := []struct {
		contentType string
		wantKind    string
		wantOK      bool
	}{
		{"image/jpeg", "image", true},
		{"image/png", "image", true},
		{"IMAGE/PNG", "image", true},
		{"image/png; charset=binary", "image", true},
		{"application/pdf", "pdf", true},
		{"application/x-msdownload", "", false},
		{"text/html", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		kind, ok := attachmentKindFor(tc.contentType)
		if kind != tc.wantKind || ok != tc.wantOK {
			t.Errorf("attachmentKindFor(%q) = (%q, %v), want (%q, %v)", tc.contentType, kind, ok, tc.wantKind, tc.wantOK)
		}
	}
}
