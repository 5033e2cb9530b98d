package window

import (
	"errors"
	"fmt"
	"image"
	"regexp"
	"strconv"
)

var (
	// ErrNotFound is returned when no window matches a query
	ErrNotFound = errors.New("window not found")
	// ErrInvalidPattern is returned for a title or class that is not a valid regular expression
	ErrInvalidPattern = errors.New("invalid pattern")
)

// Handle is an opaque reference to an on-screen window
type Handle uint32

// String formats the handle the way xwininfo does
func (h Handle) String() string {
	return fmt.Sprintf("0x%x", uint32(h))
}

// ParseHandle accepts decimal or 0x-prefixed hex window IDs
func ParseHandle(s string) (Handle, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q: %w", s, err)
	}
	return Handle(v), nil
}

// Info represents information about a window
type Info struct {
	Handle  Handle          `json:"id"`
	Title   string          `json:"title"`
	Class   string          `json:"class"`
	PID     int             `json:"pid"`
	Focused bool            `json:"focused"`
	Bounds  image.Rectangle `json:"bounds"`
}

// Backend defines the interface for window discovery and control backends
type Backend interface {
	// ListWindows returns all visible application windows
	ListWindows() ([]*Info, error)

	// GetFocusedWindow returns the currently focused window
	GetFocusedWindow() (*Info, error)

	// Activate raises and focuses the window
	Activate(h Handle) error

	// Rect returns the window's current bounds in root (screen) coordinates
	Rect(h Handle) (image.Rectangle, error)

	// Close closes the connection to the display server
	Close() error

	// Name returns the backend name (e.g., "x11")
	Name() string
}

// Lister is the read-only part of a Backend used for target selection
type Lister interface {
	ListWindows() ([]*Info, error)
	GetFocusedWindow() (*Info, error)
}

// Query selects the capture target. The first non-empty criterion wins, in
// field order; an empty query selects the focused window.
type Query struct {
	ID    Handle
	Title string // regular expression matched against the title
	Class string // regular expression matched against WM_CLASS
}

// Select resolves a query against the windows a backend can see
func Select(l Lister, q Query) (*Info, error) {
	if q.ID == 0 && q.Title == "" && q.Class == "" {
		info, err := l.GetFocusedWindow()
		if err != nil {
			return nil, fmt.Errorf("getting focused window: %w", err)
		}
		return info, nil
	}

	windows, err := l.ListWindows()
	if err != nil {
		return nil, fmt.Errorf("listing windows: %w", err)
	}

	var match func(*Info) bool
	switch {
	case q.ID != 0:
		match = func(w *Info) bool { return w.Handle == q.ID }
	case q.Title != "":
		re, err := regexp.Compile(q.Title)
		if err != nil {
			return nil, fmt.Errorf("%w for title: %v", ErrInvalidPattern, err)
		}
		match = func(w *Info) bool { return re.MatchString(w.Title) }
	default:
		re, err := regexp.Compile(q.Class)
		if err != nil {
			return nil, fmt.Errorf("%w for class: %v", ErrInvalidPattern, err)
		}
		match = func(w *Info) bool { return re.MatchString(w.Class) }
	}

	for _, w := range windows {
		if match(w) {
			return w, nil
		}
	}
	return nil, fmt.Errorf("%w: %+v", ErrNotFound, q)
}
