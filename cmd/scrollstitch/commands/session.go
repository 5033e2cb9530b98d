package commands

import (
	"fmt"

	"github.com/bryanchriswhite/ScrollStitch/internal/capture"
	"github.com/bryanchriswhite/ScrollStitch/internal/config"
	"github.com/bryanchriswhite/ScrollStitch/internal/input"
	"github.com/bryanchriswhite/ScrollStitch/internal/logger"
	"github.com/bryanchriswhite/ScrollStitch/internal/scrolling"
	"github.com/bryanchriswhite/ScrollStitch/internal/stitch"
	"github.com/bryanchriswhite/ScrollStitch/internal/window"
)

// session holds the display connections a capture needs
type session struct {
	windows  *window.X11Backend
	capturer capture.Capturer
	scroller input.Scroller
}

// openSession connects the window, capture and input backends
func openSession(cfg *config.Config) (*session, error) {
	log := logger.WithComponent("session")

	windows, err := window.NewX11Backend()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}

	capturer, err := capture.New(cfg.Capture.CaptureBackend)
	if err != nil {
		windows.Close()
		return nil, err
	}

	scroller, err := input.New(cfg.Capture.InputBackend)
	if err != nil {
		capturer.Close()
		windows.Close()
		return nil, err
	}

	log.Debug().
		Str("windows", windows.Name()).
		Str("capture", capturer.Name()).
		Str("input", scroller.Name()).
		Msg("Backends ready")

	return &session{windows: windows, capturer: capturer, scroller: scroller}, nil
}

// controller builds a capture controller from the config
func (r *session) controller(cfg *config.Config, opts ...scrolling.Option) (*scrolling.Controller, error) {
	fp, err := cfg.Fingerprinter()
	if err != nil {
		return nil, err
	}
	opts = append([]scrolling.Option{
		scrolling.WithFingerprinter(fp),
		scrolling.WithStitcher(stitch.New(stitch.NewLocator(cfg.OverlapOptions()))),
	}, opts...)

	return scrolling.NewController(r.windows, r.capturer, r.scroller, cfg.CaptureSettings(), opts...), nil
}

// Close releases all display connections
func (r *session) Close() {
	r.scroller.Close()
	r.capturer.Close()
	r.windows.Close()
}
