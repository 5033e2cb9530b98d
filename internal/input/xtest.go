package input

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/bryanchriswhite/ScrollStitch/internal/logger"
	"github.com/bryanchriswhite/ScrollStitch/internal/window"
)

// X keysyms
const (
	keysymHome     xproto.Keysym = 0xff50
	keysymPageDown xproto.Keysym = 0xff56
	keysymControlL xproto.Keysym = 0xffe3
)

// XTestScroller fakes key events with the XTEST extension
type XTestScroller struct {
	conn *xgb.Conn
	root xproto.Window

	mu       sync.Mutex
	keycodes map[xproto.Keysym]xproto.Keycode
}

// NewXTestScroller connects to the X server and loads the keyboard mapping
func NewXTestScroller() (*XTestScroller, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	if err := xtest.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("XTEST extension not available: %w", err)
	}

	setup := xproto.Setup(conn)
	s := &XTestScroller{
		conn:     conn,
		root:     setup.DefaultScreen(conn).Root,
		keycodes: make(map[xproto.Keysym]xproto.Keycode),
	}

	count := byte(setup.MaxKeycode - setup.MinKeycode + 1)
	mapping, err := xproto.GetKeyboardMapping(conn, setup.MinKeycode, count).Reply()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to get keyboard mapping: %w", err)
	}

	for _, sym := range []xproto.Keysym{keysymHome, keysymPageDown, keysymControlL} {
		code, ok := findKeycode(mapping.Keysyms, int(mapping.KeysymsPerKeycode), setup.MinKeycode, sym)
		if !ok {
			conn.Close()
			return nil, fmt.Errorf("no keycode for keysym 0x%x", uint32(sym))
		}
		s.keycodes[sym] = code
	}

	logger.WithComponent("xtest-scroller").Debug().
		Uint8("home", uint8(s.keycodes[keysymHome])).
		Uint8("page_down", uint8(s.keycodes[keysymPageDown])).
		Uint8("control_l", uint8(s.keycodes[keysymControlL])).
		Msg("Resolved keycodes")

	return s, nil
}

// findKeycode scans a GetKeyboardMapping table for the first keycode that
// produces sym in any column
func findKeycode(keysyms []xproto.Keysym, perKeycode int, minKeycode xproto.Keycode, sym xproto.Keysym) (xproto.Keycode, bool) {
	if perKeycode <= 0 {
		return 0, false
	}
	for i, ks := range keysyms {
		if ks == sym {
			return minKeycode + xproto.Keycode(i/perKeycode), true
		}
	}
	return 0, false
}

// ScrollToTop sends Ctrl+Home
func (s *XTestScroller) ScrollToTop(h window.Handle) error {
	return s.chord(keysymControlL, keysymHome)
}

// PageDown sends Page Down
func (s *XTestScroller) PageDown(h window.Handle) error {
	return s.chord(keysymPageDown)
}

// chord presses syms in order and releases them in reverse
func (s *XTestScroller) chord(syms ...xproto.Keysym) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sym := range syms {
		if err := s.fake(xproto.KeyPress, sym); err != nil {
			// Release what is already down so no modifier stays stuck
			for j := i - 1; j >= 0; j-- {
				s.fake(xproto.KeyRelease, syms[j])
			}
			return err
		}
	}
	for i := len(syms) - 1; i >= 0; i-- {
		if err := s.fake(xproto.KeyRelease, syms[i]); err != nil {
			return err
		}
	}
	xproto.GetInputFocus(s.conn).Reply() // round trip flushes the events
	return nil
}

func (s *XTestScroller) fake(eventType byte, sym xproto.Keysym) error {
	code := s.keycodes[sym]
	err := xtest.FakeInputChecked(s.conn, eventType, byte(code), 0, s.root, 0, 0, 0).Check()
	if err != nil {
		return fmt.Errorf("fake input for keysym 0x%x: %w", uint32(sym), err)
	}
	return nil
}

// Name returns the backend name
func (s *XTestScroller) Name() string {
	return BackendXTest
}

// Close closes the X11 connection
func (s *XTestScroller) Close() error {
	s.conn.Close()
	return nil
}
