package capture

import (
	"fmt"
	"strings"

	"github.com/bryanchriswhite/ScrollStitch/internal/logger"
)

// New opens the named capture backend. When the X11 backend cannot connect
// it falls back to the portable screen capturer.
func New(backend string) (Capturer, error) {
	log := logger.WithComponent("capture-router")

	switch strings.ToLower(backend) {
	case "", BackendX11:
		x11, err := NewX11Capturer()
		if err == nil {
			log.Info().Msg("X11 capturer initialized")
			return x11, nil
		}
		log.Warn().Err(err).Msg("X11 capturer not available, falling back to screen capturer")
		return NewScreenCapturer(), nil

	case BackendScreen:
		log.Info().Msg("Screen capturer initialized")
		return NewScreenCapturer(), nil

	default:
		return nil, fmt.Errorf("unknown capture backend %q (want %s or %s)", backend, BackendX11, BackendScreen)
	}
}
