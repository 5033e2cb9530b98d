// Package capture grabs screen rectangles as frames.
package capture

import (
	"image"

	"github.com/bryanchriswhite/ScrollStitch/internal/frame"
)

// Capturer defines the interface for screen capture backends
type Capturer interface {
	// CaptureRect captures a rectangle of the screen in root coordinates
	CaptureRect(r image.Rectangle) (*frame.Frame, error)

	// Name returns a human-readable name for this capturer
	Name() string

	// Close releases the display connection
	Close() error
}

// Backend names accepted by New
const (
	BackendX11    = "x11"
	BackendScreen = "screen"
)
