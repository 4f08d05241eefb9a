package core

import (
	"testing"
)

func TestNewScreenshotAttachment(t *testing.T) {
	data := []byte{0x89, 0x50, 0x4E, 0x47} // PNG header
	attachment := NewScreenshotAttachment("LoginTest", "Username_Entered", data)

	if attachment.Name != "Username_Entered" {
		t.Errorf("Name = %s, want Username_Entered", attachment.Name)
	}
	if attachment.Test != "LoginTest" {
		t.Errorf("Test = %s, want LoginTest", attachment.Test)
	}
	if attachment.ContentType != ContentTypePNG {
		t.Errorf("ContentType = %s, want %s", attachment.ContentType, ContentTypePNG)
	}
	if len(attachment.Body) != 4 {
		t.Errorf("Body length = %d, want 4", len(attachment.Body))
	}
	if attachment.CapturedAt.IsZero() {
		t.Error("CapturedAt should be set")
	}
}

func TestNewScreenshotAttachment_DefaultName(t *testing.T) {
	attachment := NewScreenshotAttachment("t", "", nil)
	if attachment.Name != AttachmentScreenshot {
		t.Errorf("Name = %s, want %s", attachment.Name, AttachmentScreenshot)
	}
}

func TestNewPageSourceAttachment(t *testing.T) {
	attachment := NewPageSourceAttachment("t", "<hierarchy/>")

	if attachment.Name != AttachmentPageSource {
		t.Errorf("Name = %s, want %s", attachment.Name, AttachmentPageSource)
	}
	if attachment.ContentType != ContentTypeXML {
		t.Errorf("ContentType = %s, want %s", attachment.ContentType, ContentTypeXML)
	}
	if string(attachment.Body) != "<hierarchy/>" {
		t.Errorf("Body = %q", attachment.Body)
	}
}

func TestAttachment_Extension(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{ContentTypePNG, ".png"},
		{ContentTypeXML, ".xml"},
		{ContentTypeText, ".txt"},
		{"application/octet-stream", ".txt"},
	}
	for _, tt := range tests {
		a := Attachment{ContentType: tt.contentType}
		if got := a.Extension(); got != tt.want {
			t.Errorf("Extension(%s) = %s, want %s", tt.contentType, got, tt.want)
		}
	}
}
