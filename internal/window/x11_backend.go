package window

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/ScrollStitch/internal/logger"
)

// X11Backend implements the Backend interface using X11
type X11Backend struct {
	conn   *xgb.Conn
	root   xproto.Window
	screen *xproto.ScreenInfo

	mu    sync.Mutex
	atoms map[string]xproto.Atom
}

// NewX11Backend connects to the X server named by $DISPLAY
func NewX11Backend() (*X11Backend, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	return &X11Backend{
		conn:   conn,
		root:   screen.Root,
		screen: screen,
		atoms:  make(map[string]xproto.Atom),
	}, nil
}

// Close closes the X11 connection
func (b *X11Backend) Close() error {
	b.conn.Close()
	return nil
}

// Name returns the backend name
func (b *X11Backend) Name() string {
	return "x11"
}

// ListWindows returns all visible windows using EWMH _NET_CLIENT_LIST with QueryTree fallback
func (b *X11Backend) ListWindows() ([]*Info, error) {
	log := logger.WithComponent("x11-backend")

	windows, err := b.listWindowsEWMH()
	if err == nil && len(windows) > 0 {
		log.Debug().Int("count", len(windows)).Msg("ListWindows: using EWMH _NET_CLIENT_LIST")
		return windows, nil
	}
	if err != nil {
		log.Debug().Err(err).Msg("ListWindows: EWMH failed, falling back to QueryTree")
	}

	tree, err := xproto.QueryTree(b.conn, b.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to query window tree: %w", err)
	}
	return b.describe(tree.Children), nil
}

// listWindowsEWMH gets windows from _NET_CLIENT_LIST (EWMH standard)
func (b *X11Backend) listWindowsEWMH() ([]*Info, error) {
	atom, err := b.getAtom("_NET_CLIENT_LIST")
	if err != nil {
		return nil, fmt.Errorf("failed to get _NET_CLIENT_LIST atom: %w", err)
	}

	reply, err := xproto.GetProperty(b.conn, false, b.root, atom,
		xproto.GetPropertyTypeAny, 0, (1<<32)-1).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get _NET_CLIENT_LIST property: %w", err)
	}
	if reply.ValueLen == 0 {
		return nil, fmt.Errorf("_NET_CLIENT_LIST is empty")
	}

	ids := decodeCardinals(reply.Value)
	wins := make([]xproto.Window, len(ids))
	for i, id := range ids {
		wins[i] = xproto.Window(id)
	}
	return b.describe(wins), nil
}

// describe collects info for each window, skipping ones that are not user windows
func (b *X11Backend) describe(wins []xproto.Window) []*Info {
	log := logger.WithComponent("x11-backend")

	focused := xproto.Window(0)
	if reply, err := xproto.GetInputFocus(b.conn).Reply(); err == nil {
		focused = reply.Focus
	}

	windows := make([]*Info, 0, len(wins))
	for _, win := range wins {
		info, err := b.getWindowInfo(win)
		if err != nil {
			log.Debug().Uint32("winID", uint32(win)).Err(err).Msg("Skipping window without info")
			continue
		}
		if info.Title == "" && info.Class == "" {
			continue
		}
		info.Focused = win == focused
		windows = append(windows, info)
	}
	return windows
}

// GetFocusedWindow returns the currently focused window
func (b *X11Backend) GetFocusedWindow() (*Info, error) {
	focusReply, err := xproto.GetInputFocus(b.conn).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get input focus: %w", err)
	}
	if focusReply.Focus == xproto.InputFocusNone || focusReply.Focus == xproto.InputFocusPointerRoot {
		return nil, ErrNotFound
	}

	info, err := b.getWindowInfo(focusReply.Focus)
	if err != nil {
		return nil, err
	}
	info.Focused = true
	return info, nil
}

// Activate asks the window manager to raise and focus the window via
// _NET_ACTIVE_WINDOW, falling back to raising and focusing it directly.
func (b *X11Backend) Activate(h Handle) error {
	log := logger.WithComponent("x11-backend")
	win := xproto.Window(h)

	atom, err := b.getAtom("_NET_ACTIVE_WINDOW")
	if err == nil {
		ev := xproto.ClientMessageEvent{
			Format: 32,
			Window: win,
			Type:   atom,
			// Source indication 2: request from a pager, honored without focus-stealing checks
			Data: xproto.ClientMessageDataUnionData32New([]uint32{2, uint32(xproto.TimeCurrentTime), 0, 0, 0}),
		}
		mask := uint32(xproto.EventMaskSubstructureNotify | xproto.EventMaskSubstructureRedirect)
		err = xproto.SendEventChecked(b.conn, false, b.root, mask, string(ev.Bytes())).Check()
		if err == nil {
			log.Debug().Uint32("window_id", uint32(h)).Msg("Sent _NET_ACTIVE_WINDOW")
			return nil
		}
	}
	log.Debug().Err(err).Uint32("window_id", uint32(h)).Msg("EWMH activation failed, raising directly")

	if err := xproto.ConfigureWindowChecked(b.conn, win, xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeAbove}).Check(); err != nil {
		return fmt.Errorf("failed to raise window %s: %w", h, err)
	}
	if err := xproto.SetInputFocusChecked(b.conn, xproto.InputFocusPointerRoot, win,
		xproto.TimeCurrentTime).Check(); err != nil {
		return fmt.Errorf("failed to focus window %s: %w", h, err)
	}
	return nil
}

// Rect returns the window's bounds in root coordinates
func (b *X11Backend) Rect(h Handle) (image.Rectangle, error) {
	win := xproto.Window(h)

	geom, err := xproto.GetGeometry(b.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("failed to get geometry of window %s: %w", h, err)
	}

	// Geometry is relative to the parent (often a WM frame), translate to root
	pos, err := xproto.TranslateCoordinates(b.conn, win, b.root, 0, 0).Reply()
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("failed to translate coordinates of window %s: %w", h, err)
	}

	r := image.Rect(int(pos.DstX), int(pos.DstY),
		int(pos.DstX)+int(geom.Width), int(pos.DstY)+int(geom.Height))
	return clampToScreen(r, int(b.screen.WidthInPixels), int(b.screen.HeightInPixels)), nil
}

// clampToScreen cuts off the parts of r outside the root window, which
// GetImage would reject
func clampToScreen(r image.Rectangle, width, height int) image.Rectangle {
	return r.Intersect(image.Rect(0, 0, width, height))
}

// getWindowInfo retrieves information about a window
func (b *X11Backend) getWindowInfo(win xproto.Window) (*Info, error) {
	info := &Info{Handle: Handle(win)}

	if r, err := b.Rect(Handle(win)); err == nil {
		info.Bounds = r
	} else {
		return nil, err
	}

	for _, name := range []string{"_NET_WM_NAME", "WM_NAME"} {
		atom, err := b.getAtom(name)
		if err != nil {
			continue
		}
		if title, err := b.getProperty(win, atom); err == nil && title != "" {
			info.Title = title
			break
		}
	}

	if atom, err := b.getAtom("WM_CLASS"); err == nil {
		if raw, err := b.getProperty(win, atom); err == nil {
			info.Class = parseWMClass(raw)
		}
	}

	if atom, err := b.getAtom("_NET_WM_PID"); err == nil {
		reply, err := xproto.GetProperty(b.conn, false, win, atom, xproto.AtomCardinal, 0, 1).Reply()
		if err == nil {
			if v := decodeCardinals(reply.Value); len(v) > 0 {
				info.PID = int(v[0])
			}
		}
	}

	return info, nil
}

// parseWMClass returns the class part of WM_CLASS ("instance\0class\0"),
// falling back to the instance
func parseWMClass(raw string) string {
	parts := strings.Split(raw, "\x00")
	if len(parts) >= 2 && parts[1] != "" {
		return parts[1]
	}
	if len(parts) >= 1 {
		return parts[0]
	}
	return ""
}

// decodeCardinals decodes a little-endian array of 32-bit property values
func decodeCardinals(value []byte) []uint32 {
	out := make([]uint32, 0, len(value)/4)
	for i := 0; i+4 <= len(value); i += 4 {
		out = append(out, uint32(value[i])|
			uint32(value[i+1])<<8|
			uint32(value[i+2])<<16|
			uint32(value[i+3])<<24)
	}
	return out
}

// getAtom gets an atom ID by name, caching lookups
func (b *X11Backend) getAtom(name string) (xproto.Atom, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if atom, ok := b.atoms[name]; ok {
		return atom, nil
	}
	reply, err := xproto.InternAtom(b.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	b.atoms[name] = reply.Atom
	return reply.Atom, nil
}

// getProperty gets a property value as a string
func (b *X11Backend) getProperty(win xproto.Window, atom xproto.Atom) (string, error) {
	reply, err := xproto.GetProperty(b.conn, false, win, atom,
		xproto.GetPropertyTypeAny, 0, (1<<32)-1).Reply()
	if err != nil {
		return "", err
	}
	if reply.ValueLen == 0 {
		return "", fmt.Errorf("empty property")
	}
	return string(reply.Value), nil
}
