package capture

import (
	"fmt"
	"image"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/ScrollStitch/internal/frame"
	"github.com/bryanchriswhite/ScrollStitch/internal/logger"
)

// X11Capturer captures regions of the X11 root window with GetImage
type X11Capturer struct {
	conn   *xgb.Conn
	root   xproto.Window
	screen *xproto.ScreenInfo
	mu     sync.Mutex
}

// NewX11Capturer creates a new X11 capturer
func NewX11Capturer() (*X11Capturer, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	return &X11Capturer{
		conn:   conn,
		root:   screen.Root,
		screen: screen,
	}, nil
}

// Close closes the X11 connection
func (c *X11Capturer) Close() error {
	c.conn.Close()
	return nil
}

// Name returns the capturer name
func (c *X11Capturer) Name() string {
	return "x11"
}

// CaptureRect captures a region of the root window. The window must be on
// top; its pixels are read from the screen, not from the window.
func (c *X11Capturer) CaptureRect(r image.Rectangle) (*frame.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.Empty() {
		return nil, fmt.Errorf("empty capture rectangle %v", r)
	}

	reply, err := xproto.GetImage(
		c.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(c.root),
		int16(r.Min.X), int16(r.Min.Y),
		uint16(r.Dx()), uint16(r.Dy()),
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	logger.WithComponent("x11-capturer").Debug().
		Int("x", r.Min.X).
		Int("y", r.Min.Y).
		Int("width", r.Dx()).
		Int("height", r.Dy()).
		Int("bytes", len(reply.Data)).
		Msg("Captured region")

	return convertZPixmap(reply.Data, r.Dx(), r.Dy(), int(c.screen.RootDepth))
}

// convertZPixmap converts 24/32-bit ZPixmap data (BGRX, 4 bytes per pixel,
// rows padded to 32 bits) into an RGB frame
func convertZPixmap(data []byte, width, height, depth int) (*frame.Frame, error) {
	if depth != 24 && depth != 32 {
		return nil, fmt.Errorf("unsupported screen depth %d", depth)
	}
	stride := width * 4
	if len(data) < stride*height {
		return nil, fmt.Errorf("short image data: got %d bytes, want %d", len(data), stride*height)
	}

	f := frame.Blank(width, height)
	for y := 0; y < height; y++ {
		src := data[y*stride : (y+1)*stride]
		dst := f.Row(y)
		for x := 0; x < width; x++ {
			dst[x*3] = src[x*4+2]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4]
		}
	}
	return f, nil
}
