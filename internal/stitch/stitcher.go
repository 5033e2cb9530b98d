package stitch

import (
	"errors"
	"fmt"

	"github.com/bryanchriswhite/ScrollStitch/internal/frame"
)

var (
	// ErrNoFrames is returned when there is nothing to stitch.
	ErrNoFrames = errors.New("no frames to stitch")
	// ErrWidthMismatch is returned when frames do not share one width.
	ErrWidthMismatch = errors.New("frames differ in width")
)

// Segment describes what one frame contributes to the stitched image.
type Segment struct {
	// Index is the frame's position in the sequence.
	Index int `json:"index"`
	// Offset is the number of leading rows dropped as duplicates of the
	// previous frame. Zero for the first frame and for unaligned frames.
	Offset int `json:"offset"`
	// Found is false when no overlap with the previous frame was located and
	// the frame was appended in full, leaving a visible seam.
	Found bool `json:"found"`
	// Rows is the number of rows contributed.
	Rows int `json:"rows"`
}

// Stitcher merges a frame sequence into one image.
type Stitcher struct {
	locator *Locator
}

// New creates a Stitcher that aligns frames with locator.
func New(locator *Locator) *Stitcher {
	if locator == nil {
		locator = NewLocator(DefaultOptions())
	}
	return &Stitcher{locator: locator}
}

// Plan aligns each consecutive pair and reports every frame's contribution.
func (s *Stitcher) Plan(frames []*frame.Frame) ([]Segment, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	width := frames[0].Width
	for i, f := range frames {
		if f == nil {
			return nil, fmt.Errorf("frame %d is nil", i)
		}
		if f.Width != width {
			return nil, fmt.Errorf("%w: frame %d is %d pixels wide, frame 0 is %d", ErrWidthMismatch, i, f.Width, width)
		}
	}

	segments := make([]Segment, len(frames))
	segments[0] = Segment{Index: 0, Rows: frames[0].Height}

	for i := 1; i < len(frames); i++ {
		offset, found := s.locator.FindOverlap(frames[i-1], frames[i])
		segments[i] = Segment{
			Index:  i,
			Offset: offset,
			Found:  found,
			Rows:   frames[i].Height - offset,
		}
	}
	return segments, nil
}

// Stitch produces the merged image. A single frame is returned as is.
func (s *Stitcher) Stitch(frames []*frame.Frame) (*frame.Frame, []Segment, error) {
	segments, err := s.Plan(frames)
	if err != nil {
		return nil, nil, err
	}
	if len(frames) == 1 {
		return frames[0], segments, nil
	}
	return Compose(frames, segments), segments, nil
}

// Compose concatenates each frame's contributed rows top to bottom.
func Compose(frames []*frame.Frame, segments []Segment) *frame.Frame {
	height := 0
	for _, seg := range segments {
		height += seg.Rows
	}

	out := frame.Blank(frames[0].Width, height)
	pos := 0
	for _, seg := range segments {
		f := frames[seg.Index]
		pos += copy(out.Pix[pos:], f.Rows(seg.Offset, f.Height))
	}
	return out
}

// Height returns the stitched height implied by segments.
func Height(segments []Segment) int {
	h := 0
	for _, seg := range segments {
		h += seg.Rows
	}
	return h
}
