// Package input sends the keyboard shortcuts that scroll the focused window.
package input

import (
	"fmt"
	"strings"

	"github.com/bryanchriswhite/ScrollStitch/internal/logger"
	"github.com/bryanchriswhite/ScrollStitch/internal/window"
)

// Backend names accepted by New
const (
	BackendXTest   = "xtest"
	BackendRobotgo = "robotgo"
)

// Scroller synthesizes scroll keystrokes for the focused window
type Scroller interface {
	// ScrollToTop sends Ctrl+Home
	ScrollToTop(h window.Handle) error

	// PageDown sends Page Down
	PageDown(h window.Handle) error

	// Name returns the backend name
	Name() string

	// Close releases any display connection
	Close() error
}

// New opens the named input backend, falling back to robotgo when the X
// server lacks the XTEST extension.
func New(backend string) (Scroller, error) {
	log := logger.WithComponent("input")

	switch strings.ToLower(backend) {
	case "", BackendXTest:
		s, err := NewXTestScroller()
		if err == nil {
			return s, nil
		}
		log.Warn().Err(err).Msg("XTEST not available, falling back to robotgo")
		return NewRobotgoScroller(), nil

	case BackendRobotgo:
		return NewRobotgoScroller(), nil

	default:
		return nil, fmt.Errorf("unknown input backend %q (want %s or %s)", backend, BackendXTest, BackendRobotgo)
	}
}
