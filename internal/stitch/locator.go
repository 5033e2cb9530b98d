// Package stitch aligns consecutive frames of a scrolled surface and merges
// them into one tall image.
package stitch

import (
	"math"

	"github.com/bryanchriswhite/ScrollStitch/internal/frame"
)

// Options tunes the overlap search. Step and Threshold trade alignment
// precision for speed; they only affect seam quality, not correctness.
type Options struct {
	// StripHeight is the number of rows compared per candidate offset.
	StripHeight int `json:"strip_height" yaml:"strip_height" mapstructure:"strip_height"`
	// SampleWidth is the width of the column window centered on the frame.
	// It is capped to a quarter of the frame width.
	SampleWidth int `json:"sample_width" yaml:"sample_width" mapstructure:"sample_width"`
	// Step is the distance between candidate offsets.
	Step int `json:"step" yaml:"step" mapstructure:"step"`
	// Threshold is the fraction of sampled pixels that must match exactly.
	Threshold float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
}

// DefaultOptions returns the search parameters tuned for typical page scrolls.
func DefaultOptions() Options {
	return Options{
		StripHeight: 50,
		SampleWidth: 100,
		Step:        10,
		Threshold:   0.95,
	}
}

// Locator finds how many leading rows of a frame repeat the bottom of the
// frame captured before it.
type Locator struct {
	opts Options
}

// NewLocator creates a Locator. Zero or out-of-range fields fall back to the
// defaults.
func NewLocator(opts Options) *Locator {
	def := DefaultOptions()
	if opts.StripHeight <= 0 {
		opts.StripHeight = def.StripHeight
	}
	if opts.SampleWidth <= 0 {
		opts.SampleWidth = def.SampleWidth
	}
	if opts.Step <= 0 {
		opts.Step = def.Step
	}
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		opts.Threshold = def.Threshold
	}
	return &Locator{opts: opts}
}

// Options returns the effective search parameters.
func (l *Locator) Options() Options {
	return l.opts
}

// FindOverlap returns the number of rows at the top of next that duplicate
// the bottom of prev. Candidates are scanned from StripHeight upward in Step
// increments, below min(prev.Height, next.Height)/2, and the first one whose
// strips match is returned. found is false when no candidate matches or the
// frames differ in width.
func (l *Locator) FindOverlap(prev, next *frame.Frame) (offset int, found bool) {
	if prev == nil || next == nil || prev.Width != next.Width {
		return 0, false
	}

	maxOverlap := min(prev.Height, next.Height) / 2
	strip := l.opts.StripHeight
	x0, x1 := l.sampleColumns(prev.Width)

	for o := strip; o < maxOverlap; o += l.opts.Step {
		if l.stripsMatch(prev, prev.Height-o, next, 0, strip, x0, x1) {
			return o, true
		}
	}
	return 0, false
}

// sampleColumns returns the [x0, x1) column window centered on the frame.
func (l *Locator) sampleColumns(width int) (int, int) {
	center := width / 2
	sw := min(l.opts.SampleWidth, width/4)
	x0, x1 := center-sw/2, center+sw/2
	if x1 <= x0 {
		// Frames narrower than 4 pixels: compare every column
		return 0, width
	}
	return x0, x1
}

// stripsMatch compares rows [ya, ya+rows) of a with [yb, yb+rows) of b over
// columns [x0, x1).
func (l *Locator) stripsMatch(a *frame.Frame, ya int, b *frame.Frame, yb, rows, x0, x1 int) bool {
	total := rows * (x1 - x0)
	if total == 0 {
		return false
	}

	// Stop as soon as the threshold is unreachable
	allowed := total - minMatching(total, l.opts.Threshold)
	mismatched := 0

	for r := 0; r < rows; r++ {
		ra := a.Row(ya + r)[x0*frame.BytesPerPixel : x1*frame.BytesPerPixel]
		rb := b.Row(yb + r)[x0*frame.BytesPerPixel : x1*frame.BytesPerPixel]
		for i := 0; i < len(ra); i += frame.BytesPerPixel {
			if ra[i] != rb[i] || ra[i+1] != rb[i+1] || ra[i+2] != rb[i+2] {
				mismatched++
				if mismatched > allowed {
					return false
				}
			}
		}
	}
	return true
}

// minMatching returns the fewest matching pixels out of total for which
// matching/total >= threshold holds.
func minMatching(total int, threshold float64) int {
	need := int(math.Ceil(threshold * float64(total)))
	if need < 0 {
		need = 0
	}
	// Ceil of the product can be one off from the ratio comparison
	for need > 0 && float64(need-1)/float64(total) >= threshold {
		need--
	}
	for need <= total && float64(need)/float64(total) < threshold {
		need++
	}
	return need
}
