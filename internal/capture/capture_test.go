package capture

import (
	"bytes"
	"image"
	"testing"
)

func TestConvertZPixmap(t *testing.T) {
	// 2x2 BGRX pixels
	data := []byte{
		0x01, 0x02, 0x03, 0x00, 0x04, 0x05, 0x06, 0x00,
		0x07, 0x08, 0x09, 0x00, 0x0a, 0x0b, 0x0c, 0x00,
	}

	f, err := convertZPixmap(data, 2, 2, 24)
	if err != nil {
		t.Fatalf("convertZPixmap() error = %v", err)
	}
	if f.Width != 2 || f.Height != 2 {
		t.Fatalf("size = %dx%d, want 2x2", f.Width, f.Height)
	}

	want := []byte{
		0x03, 0x02, 0x01, 0x06, 0x05, 0x04,
		0x09, 0x08, 0x07, 0x0c, 0x0b, 0x0a,
	}
	if !bytes.Equal(f.Pix, want) {
		t.Errorf("Pix = %x, want %x", f.Pix, want)
	}
}

func TestConvertZPixmapErrors(t *testing.T) {
	if _, err := convertZPixmap(make([]byte, 16), 2, 2, 16); err == nil {
		t.Error("depth 16: expected error")
	}
	if _, err := convertZPixmap(make([]byte, 12), 2, 2, 32); err == nil {
		t.Error("short data: expected error")
	}
}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New("pipewire"); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestScreenCapturerRejectsEmptyRect(t *testing.T) {
	c := NewScreenCapturer()
	if _, err := c.CaptureRect(image.Rect(10, 10, 10, 50)); err == nil {
		t.Error("expected error for empty rectangle")
	}
	if c.Name() != "screen" {
		t.Errorf("Name() = %q", c.Name())
	}
}
