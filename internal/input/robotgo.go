package input

import (
	"fmt"

	"github.com/bryanchriswhite/ScrollStitch/internal/window"
	"github.com/go-vgo/robotgo"
)

// RobotgoScroller taps keys through robotgo. It works on X11, macOS and
// Windows but cannot target a window: keys go wherever focus is.
type RobotgoScroller struct{}

// NewRobotgoScroller creates a robotgo scroller
func NewRobotgoScroller() *RobotgoScroller {
	return &RobotgoScroller{}
}

// ScrollToTop sends Ctrl+Home
func (s *RobotgoScroller) ScrollToTop(h window.Handle) error {
	if err := robotgo.KeyTap("home", "ctrl"); err != nil {
		return fmt.Errorf("ctrl+home: %w", err)
	}
	return nil
}

// PageDown sends Page Down
func (s *RobotgoScroller) PageDown(h window.Handle) error {
	if err := robotgo.KeyTap("pagedown"); err != nil {
		return fmt.Errorf("page down: %w", err)
	}
	return nil
}

// Name returns the backend name
func (s *RobotgoScroller) Name() string {
	return BackendRobotgo
}

// Close is a no-op
func (s *RobotgoScroller) Close() error {
	return nil
}
