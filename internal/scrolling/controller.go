// Package scrolling drives a scrollable window from top to bottom, capturing
// one frame per page, and stitches the captures into a single image.
package scrolling

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/bryanchriswhite/ScrollStitch/internal/frame"
	"github.com/bryanchriswhite/ScrollStitch/internal/logger"
	"github.com/bryanchriswhite/ScrollStitch/internal/stitch"
	"github.com/bryanchriswhite/ScrollStitch/internal/window"
)

// ErrNoContentCaptured is returned when not a single frame could be taken,
// usually because the target window is gone or not accessible.
var ErrNoContentCaptured = errors.New("no content captured")

// errWidthChanged stops the loop when the window is resized horizontally.
var errWidthChanged = errors.New("capture width changed")

// Surface brings a window to the front and reports where it is on screen.
type Surface interface {
	Activate(h window.Handle) error
	Rect(h window.Handle) (image.Rectangle, error)
}

// Grabber returns the pixels of a screen rectangle.
type Grabber interface {
	CaptureRect(r image.Rectangle) (*frame.Frame, error)
}

// Scroller sends scroll commands to the focused window. Commands are fire
// and forget: nothing confirms that the content actually moved.
type Scroller interface {
	ScrollToTop(h window.Handle) error
	PageDown(h window.Handle) error
}

// Settings bounds the capture loop and sets the settle delays.
type Settings struct {
	MaxIterations int           `json:"max_iterations" yaml:"max_iterations" mapstructure:"max_iterations"`
	ActivateDelay time.Duration `json:"activate_delay" yaml:"activate_delay" mapstructure:"activate_delay"`
	ResetDelay    time.Duration `json:"reset_delay" yaml:"reset_delay" mapstructure:"reset_delay"`
	ScrollDelay   time.Duration `json:"scroll_delay" yaml:"scroll_delay" mapstructure:"scroll_delay"`
}

// DefaultSettings returns the loop bound and delays used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		MaxIterations: 50,
		ActivateDelay: 50 * time.Millisecond,
		ResetDelay:    50 * time.Millisecond,
		ScrollDelay:   30 * time.Millisecond,
	}
}

// StopReason tells why the capture loop ended.
type StopReason string

const (
	// StopStabilized means a capture repeated the previous one: the end of
	// the scrollable content was reached.
	StopStabilized StopReason = "stabilized"
	// StopIterationBound means MaxIterations frames were taken without the
	// content settling. The content is assumed to be very long.
	StopIterationBound StopReason = "iteration_bound"
	// StopFailure means a capture or scroll command failed mid-loop. Frames
	// taken before the failure are still stitched.
	StopFailure StopReason = "failure"
	// StopCancelled means the caller cancelled between iterations.
	StopCancelled StopReason = "cancelled"
)

// Result is the outcome of one capture run.
type Result struct {
	Image      *frame.Frame     `json:"-"`
	Frames     int              `json:"frames"`
	Iterations int              `json:"iterations"`
	Segments   []stitch.Segment `json:"segments"`
	Reason     StopReason       `json:"reason"`
	// Err holds the failure or cancellation cause that ended the loop early.
	// The result is still usable.
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Request describes one capture run.
type Request struct {
	Target window.Handle
	// MaxIterations overrides Settings.MaxIterations when positive.
	MaxIterations int
	// Observer receives this run's events in addition to the controller's
	// own observer.
	Observer func(Event)
}

// Option configures a Controller.
type Option func(*Controller)

// WithFingerprinter replaces the default prefix fingerprint.
func WithFingerprinter(fp frame.Fingerprinter) Option {
	return func(c *Controller) {
		if fp != nil {
			c.fingerprint = fp
		}
	}
}

// WithStitcher replaces the default stitcher.
func WithStitcher(s *stitch.Stitcher) Option {
	return func(c *Controller) {
		if s != nil {
			c.stitcher = s
		}
	}
}

// WithObserver registers a callback for every event of every run.
func WithObserver(fn func(Event)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// WithSleep replaces time.Sleep for the settle delays.
func WithSleep(fn func(time.Duration)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// Controller runs the activate, reset, capture and scroll cycle.
//
// Runs are strictly sequential: each frame depends on the side effect of the
// previous scroll command. A Controller must not run two captures at once;
// use a Worker to serialize requests.
type Controller struct {
	surface  Surface
	grabber  Grabber
	scroller Scroller
	settings Settings

	fingerprint frame.Fingerprinter
	stitcher    *stitch.Stitcher
	observer    func(Event)
	sleep       func(time.Duration)
}

// NewController wires the collaborators into a controller.
func NewController(surface Surface, grabber Grabber, scroller Scroller, settings Settings, opts ...Option) *Controller {
	if settings.MaxIterations <= 0 {
		settings.MaxIterations = DefaultSettings().MaxIterations
	}

	fp, _ := frame.NewFingerprinter(frame.AlgorithmFNV64a, frame.DefaultPrefixBytes)
	c := &Controller{
		surface:     surface,
		grabber:     grabber,
		scroller:    scroller,
		settings:    settings,
		fingerprint: fp,
		stitcher:    stitch.New(nil),
		sleep:       time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Settings returns the controller's loop settings.
func (c *Controller) Settings() Settings {
	return c.settings
}

// Capture captures target with the configured settings.
func (c *Controller) Capture(ctx context.Context, target window.Handle) (*Result, error) {
	return c.Run(ctx, Request{Target: target})
}

// Run performs one capture run. It returns ErrNoContentCaptured when no frame
// was taken. Failures after the first frame end the loop early but still
// produce a result; see Result.Reason and Result.Err.
func (c *Controller) Run(ctx context.Context, req Request) (*Result, error) {
	log := logger.WithComponent("scroll-controller")
	start := time.Now()

	maxIter := c.settings.MaxIterations
	if req.MaxIterations > 0 {
		maxIter = req.MaxIterations
	}
	emit := c.emitter(req.Observer)

	log.Info().
		Uint32("window_id", uint32(req.Target)).
		Int("max_iterations", maxIter).
		Msg("Starting scrolling capture")
	emit(Event{Kind: EventStarted})

	if err := c.surface.Activate(req.Target); err != nil {
		log.Warn().Err(err).Uint32("window_id", uint32(req.Target)).Msg("Failed to activate window, continuing")
	}
	c.sleep(c.settings.ActivateDelay)

	store := frame.NewStore(maxIter)
	var (
		reason     StopReason
		loopErr    error
		iterations int
	)

	if err := c.scroller.ScrollToTop(req.Target); err != nil {
		reason, loopErr = StopFailure, fmt.Errorf("scroll to top: %w", err)
	} else {
		c.sleep(c.settings.ResetDelay)
		reason, iterations, loopErr = c.collect(ctx, req.Target, maxIter, store, emit)
	}

	if loopErr != nil {
		emit(Event{Kind: kindFor(reason), Iteration: iterations, Frames: store.Len(), Error: loopErr.Error()})
		log.Warn().
			Err(loopErr).
			Str("reason", string(reason)).
			Int("frames", store.Len()).
			Msg("Capture loop ended early")
	}

	if store.Len() == 0 {
		if loopErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoContentCaptured, loopErr)
		}
		return nil, ErrNoContentCaptured
	}

	img, segments, err := c.stitcher.Stitch(store.Frames())
	if err != nil {
		return nil, fmt.Errorf("stitching %d frames: %w", store.Len(), err)
	}

	res := &Result{
		Image:      img,
		Frames:     store.Len(),
		Iterations: iterations,
		Segments:   segments,
		Reason:     reason,
		Err:        loopErr,
		Duration:   time.Since(start),
	}
	emit(Event{Kind: EventStitched, Iteration: iterations, Frames: res.Frames})

	unaligned := 0
	for _, seg := range segments[1:] {
		if !seg.Found {
			unaligned++
		}
	}
	log.Info().
		Int("frames", res.Frames).
		Int("width", img.Width).
		Int("height", img.Height).
		Int("unaligned_seams", unaligned).
		Str("reason", string(reason)).
		Dur("duration", res.Duration).
		Msg("Scrolling capture complete")

	return res, nil
}

// collect runs the capture loop until the content stops changing, the
// iteration bound is hit, a collaborator fails, or ctx is cancelled.
func (c *Controller) collect(ctx context.Context, target window.Handle, maxIter int, store *frame.Store, emit func(Event)) (StopReason, int, error) {
	log := logger.WithComponent("scroll-controller")

	var prev frame.Fingerprint
	for i := 0; i < maxIter; i++ {
		if err := ctx.Err(); err != nil {
			return StopCancelled, i, err
		}

		// Re-read every iteration: the window may be moved while we scroll
		rect, err := c.surface.Rect(target)
		if err != nil {
			return StopFailure, i, fmt.Errorf("reading window rect: %w", err)
		}

		f, err := c.grabber.CaptureRect(rect)
		if err != nil {
			return StopFailure, i, fmt.Errorf("capturing %v: %w", rect, err)
		}
		if f == nil {
			return StopFailure, i, fmt.Errorf("capturing %v: no frame returned", rect)
		}
		if store.Len() > 0 && f.Width != store.At(0).Width {
			return StopFailure, i, fmt.Errorf("%w: %d -> %d pixels", errWidthChanged, store.At(0).Width, f.Width)
		}

		fp := c.fingerprint(f)
		if store.Len() > 0 && frame.IsDuplicate(fp, prev) {
			log.Debug().Int("iteration", i).Msg("Content unchanged after scroll, end reached")
			emit(Event{Kind: EventDuplicate, Iteration: i, Frames: store.Len()})
			return StopStabilized, i + 1, nil
		}

		idx := store.Append(f)
		prev = fp
		log.Debug().
			Int("iteration", i).
			Int("frame", idx).
			Int("width", f.Width).
			Int("height", f.Height).
			Msg("Frame captured")
		emit(Event{Kind: EventFrame, Iteration: i, Frames: store.Len()})

		if err := c.scroller.PageDown(target); err != nil {
			return StopFailure, i + 1, fmt.Errorf("page down: %w", err)
		}
		c.sleep(c.settings.ScrollDelay)
	}

	return StopIterationBound, maxIter, nil
}

func (c *Controller) emitter(extra func(Event)) func(Event) {
	return func(ev Event) {
		ev.Time = time.Now()
		if c.observer != nil {
			c.observer(ev)
		}
		if extra != nil {
			extra(ev)
		}
	}
}

func kindFor(reason StopReason) EventKind {
	if reason == StopCancelled {
		return EventCancelled
	}
	return EventFailure
}
