package scrolling

import (
	"errors"
	"image"
	"sync"
	"time"

	"github.com/bryanchriswhite/ScrollStitch/internal/frame"
	"github.com/bryanchriswhite/ScrollStitch/internal/frame/frametest"
	"github.com/bryanchriswhite/ScrollStitch/internal/window"
)

var errInjected = errors.New("injected failure")

// fakeWorld is a window showing a viewport onto tall content. Page Down
// moves the viewport by step rows and stops at the bottom.
type fakeWorld struct {
	mu sync.Mutex

	content  *frame.Frame
	viewport int
	step     int
	top      int

	activateErr  error
	resetErr     error
	rectErrAt    int // capture index at which Rect fails, -1 for never
	captureErrAt int
	pageDownErr  error
	narrowAt     int // capture index from which frames are 10 pixels narrower

	block chan struct{} // ScrollToTop waits on it when set

	captures  int
	activated []window.Handle
	pageDowns int
}

func newFakeWorld(width, contentHeight, viewport, step int) *fakeWorld {
	return &fakeWorld{
		content:      frametest.Content(width, contentHeight),
		viewport:     viewport,
		step:         step,
		rectErrAt:    -1,
		captureErrAt: -1,
		narrowAt:     -1,
	}
}

func (w *fakeWorld) Activate(h window.Handle) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.activated = append(w.activated, h)
	return w.activateErr
}

func (w *fakeWorld) Rect(h window.Handle) (image.Rectangle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.captures == w.rectErrAt {
		return image.Rectangle{}, errInjected
	}
	return image.Rect(100, 50, 100+w.content.Width, 50+w.viewport), nil
}

func (w *fakeWorld) CaptureRect(r image.Rectangle) (*frame.Frame, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.captures
	w.captures++
	if i == w.captureErrAt {
		return nil, errInjected
	}
	f := frametest.Viewport(w.content, w.top, w.viewport)
	if w.narrowAt >= 0 && i >= w.narrowAt {
		f = frametest.Viewport(frametest.Content(f.Width-10, w.content.Height), w.top, w.viewport)
	}
	return f, nil
}

func (w *fakeWorld) ScrollToTop(h window.Handle) error {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.resetErr != nil {
		return w.resetErr
	}
	w.top = 0
	return nil
}

func (w *fakeWorld) PageDown(h window.Handle) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pageDownErr != nil {
		return w.pageDownErr
	}
	w.pageDowns++
	w.top += w.step
	if bottom := w.content.Height - w.viewport; w.top > bottom {
		w.top = bottom
	}
	return nil
}

func noSleep(time.Duration) {}

func newTestController(w *fakeWorld, opts ...Option) *Controller {
	opts = append([]Option{WithSleep(noSleep)}, opts...)
	return NewController(w, w, w, DefaultSettings(), opts...)
}
