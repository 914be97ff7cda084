package services

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const maxMessageContentLength = 5000

var contentPolicy = bluemonday.StrictPolicy()

// sanitizeMessageContent neutralizes any markup in user-supplied content
// before it is stored. Tags are stripped and the remainder is entity-escaped.
func sanitizeMessageContent(content string) string {
	return strings.TrimSpace(contentPolicy.Sanitize(content))
}

// validateMessageContent enforces the 1-5000 character bound. Content may be
// empty only when the message carries an attachment.
func validateMessageContent(content string, hasAttachment bool) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		if hasAttachment {
			return nil
		}
		return ErrInvalidInput
	}
	if len([]rune(trimmed)) > maxMessageContentLength {
		return ErrInvalidInput
	}
	return nil
}

var attachmentKinds = map[string]string{
	"image/jpeg":      "image",
	"image/png":       "image",
	"image/webp":      "image",
	"image/gif":       "image",
	"application/pdf": "pdf",
}

// attachmentKindFor maps an upload content type to the stored attachment
// kind. Unknown types are rejected.
func attachmentKindFor(contentType string) (string, bool) {
	base := contentType
	if idx := strings.IndexByte(base, ';'); idx >= 0 {
		base = base[:idx]
	}
	kind, ok := attachmentKinds[strings.ToLower(strings.TrimSpace(base))]
	return kind, ok
}
