// Package core provides the shared error, status and attachment types for mobile-harness.
package core

import (
	"time"
)

// Attachment represents a piece of evidence captured during a test
type Attachment struct {
	Test        string    `json:"test"`        // Owning test case name
	Name        string    `json:"name"`        // Descriptive name: screenshot, page_source, error
	ContentType string    `json:"contentType"` // MIME type: image/png, text/xml, text/plain
	CapturedAt  time.Time `json:"capturedAt"`
	Path        string    `json:"path,omitempty"` // Set by sinks that persist to disk
	Body        []byte    `json:"-"`              // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentScreenshot = "screenshot"
	AttachmentPageSource = "page_source"
	AttachmentError      = "error"
	AttachmentLog        = "log"
)

// Common content types
const (
	ContentTypePNG  = "image/png"
	ContentTypeXML  = "text/xml"
	ContentTypeText = "text/plain"
)

// NewScreenshotAttachment creates a screenshot attachment
func NewScreenshotAttachment(test, name string, data []byte) Attachment {
	if name == "" {
		name = AttachmentScreenshot
	}
	return Attachment{
		Test:        test,
		Name:        name,
		ContentType: ContentTypePNG,
		CapturedAt:  time.Now(),
		Body:        data,
	}
}

// NewPageSourceAttachment creates a UI hierarchy (page source) attachment
func NewPageSourceAttachment(test string, source string) Attachment {
	return Attachment{
		Test:        test,
		Name:        AttachmentPageSource,
		ContentType: ContentTypeXML,
		CapturedAt:  time.Now(),
		Body:        []byte(source),
	}
}

// NewTextAttachment creates a plain text attachment
func NewTextAttachment(test, name, text string) Attachment {
	return Attachment{
		Test:        test,
		Name:        name,
		ContentType: ContentTypeText,
		CapturedAt:  time.Now(),
		Body:        []byte(text),
	}
}

// Extension returns the file extension for the attachment's content type.
func (a Attachment) Extension() string {
	switch a.ContentType {
	case ContentTypePNG:
		return ".png"
	case ContentTypeXML:
		return ".xml"
	default:
		return ".txt"
	}
}
