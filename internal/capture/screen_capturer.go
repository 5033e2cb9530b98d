package capture

import (
	"fmt"
	"image"

	"github.com/bryanchriswhite/ScrollStitch/internal/frame"
	"github.com/kbinani/screenshot"
)

// ScreenCapturer captures through kbinani/screenshot, which works on X11,
// macOS and Windows without a persistent connection.
type ScreenCapturer struct{}

// NewScreenCapturer creates a screen capturer
func NewScreenCapturer() *ScreenCapturer {
	return &ScreenCapturer{}
}

// CaptureRect captures a rectangle of the virtual screen
func (c *ScreenCapturer) CaptureRect(r image.Rectangle) (*frame.Frame, error) {
	if r.Empty() {
		return nil, fmt.Errorf("empty capture rectangle %v", r)
	}
	img, err := screenshot.CaptureRect(r)
	if err != nil {
		return nil, fmt.Errorf("failed to capture %v: %w", r, err)
	}
	return frame.FromImage(img), nil
}

// Name returns the capturer name
func (c *ScreenCapturer) Name() string {
	return "screen"
}

// Close is a no-op
func (c *ScreenCapturer) Close() error {
	return nil
}
