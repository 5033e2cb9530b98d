package stitch

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bryanchriswhite/ScrollStitch/internal/frame"
	"github.com/bryanchriswhite/ScrollStitch/internal/frame/frametest"
)

// TestFindOverlap_ScrolledPage covers a 100x300 viewport scrolled by 220
// rows, leaving 80 rows shared between the two captures.
func TestFindOverlap_ScrolledPage(t *testing.T) {
	content := frametest.Content(100, 520)
	first := frametest.Viewport(content, 0, 300)
	second := frametest.Viewport(content, 220, 300)

	l := NewLocator(DefaultOptions())
	offset, found := l.FindOverlap(first, second)
	if !found {
		t.Fatal("overlap not found")
	}
	if offset != 80 {
		t.Errorf("offset = %d, want 80", offset)
	}
}

func TestFindOverlap_Table(t *testing.T) {
	content := frametest.Content(120, 2000)

	tests := []struct {
		name      string
		height    int
		scroll    int
		wantFound bool
		wantMax   int
	}{
		{"overlap on step grid", 400, 300, true, 100},
		{"overlap off the step grid", 400, 295, false, 0},
		{"overlap equal to strip height", 400, 350, true, 50},
		{"overlap below strip height", 400, 360, false, 0},
		{"overlap too large for search", 400, 150, false, 0},
		{"no shared rows", 400, 400, false, 0},
	}

	l := NewLocator(DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := frametest.Viewport(content, 0, tt.height)
			next := frametest.Viewport(content, tt.scroll, tt.height)

			offset, found := l.FindOverlap(prev, next)
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v (offset %d)", found, tt.wantFound, offset)
			}
			if found && offset > tt.wantMax {
				t.Errorf("offset = %d exceeds true overlap %d", offset, tt.wantMax)
			}
			if !found && offset != 0 {
				t.Errorf("offset = %d when not found, want 0", offset)
			}
		})
	}
}

// Uniform content matches at every candidate; the smallest must win.
func TestFindOverlap_PrefersSmallestOffset(t *testing.T) {
	a := frametest.Solid(80, 300, 10, 20, 30)
	b := frametest.Solid(80, 300, 10, 20, 30)

	offset, found := NewLocator(DefaultOptions()).FindOverlap(a, b)
	if !found || offset != 50 {
		t.Errorf("FindOverlap = (%d, %v), want (50, true)", offset, found)
	}
}

func TestFindOverlap_Threshold(t *testing.T) {
	content := frametest.Content(100, 600)
	prev := frametest.Viewport(content, 0, 300)
	next := frametest.Viewport(content, 200, 300)

	// Corrupt one sampled pixel in each of the first ten rows of next
	for y := 0; y < 10; y++ {
		row := next.Row(y)
		row[50*3] ^= 0xff
	}

	strict := NewLocator(Options{StripHeight: 50, SampleWidth: 100, Step: 10, Threshold: 1})
	if _, found := strict.FindOverlap(prev, next); found {
		t.Error("threshold 1.0 should reject a strip with mismatched pixels")
	}

	if offset, found := NewLocator(DefaultOptions()).FindOverlap(prev, next); !found || offset != 100 {
		t.Errorf("default threshold FindOverlap = (%d, %v), want (100, true)", offset, found)
	}
}

func TestFindOverlap_WidthMismatch(t *testing.T) {
	a := frametest.Solid(100, 300, 0, 0, 0)
	b := frametest.Solid(90, 300, 0, 0, 0)
	if _, found := NewLocator(DefaultOptions()).FindOverlap(a, b); found {
		t.Error("frames of different widths must not align")
	}
}

func TestNewLocator_Defaults(t *testing.T) {
	l := NewLocator(Options{Threshold: 2})
	if l.Options() != DefaultOptions() {
		t.Errorf("Options() = %+v, want defaults", l.Options())
	}
}

func TestStitch_SingleFrameUnchanged(t *testing.T) {
	f := frametest.Content(64, 120)
	out, segments, err := New(nil).Stitch([]*frame.Frame{f})
	if err != nil {
		t.Fatalf("Stitch: %v", err)
	}
	if out.Width != f.Width || out.Height != f.Height || !bytes.Equal(out.Pix, f.Pix) {
		t.Error("single frame should be returned unchanged")
	}
	if len(segments) != 1 || segments[0].Rows != 120 {
		t.Errorf("segments = %+v", segments)
	}
}

func TestStitch_ReconstructsPage(t *testing.T) {
	content := frametest.Content(100, 960)
	frames := []*frame.Frame{
		frametest.Viewport(content, 0, 300),
		frametest.Viewport(content, 220, 300),
		frametest.Viewport(content, 440, 300),
		frametest.Viewport(content, 660, 300),
	}

	out, segments, err := New(nil).Stitch(frames)
	if err != nil {
		t.Fatalf("Stitch: %v", err)
	}

	want := frames[0].Height
	for _, seg := range segments[1:] {
		want += frames[seg.Index].Height - seg.Offset
	}
	if out.Height != want || out.Height != Height(segments) {
		t.Errorf("height = %d, want %d", out.Height, want)
	}
	if out.Width != 100 {
		t.Errorf("width = %d, want 100", out.Width)
	}
	if out.Height != 960 || !bytes.Equal(out.Pix, content.Pix) {
		t.Error("stitched image should reproduce the original page")
	}
}

func TestStitch_UnalignedFrameAppendedInFull(t *testing.T) {
	a := frametest.Content(100, 300)
	b := frametest.Solid(100, 200, 255, 0, 0)

	out, segments, err := New(nil).Stitch([]*frame.Frame{a, b})
	if err != nil {
		t.Fatalf("Stitch: %v", err)
	}
	if segments[1].Found || segments[1].Offset != 0 {
		t.Errorf("segment = %+v, want not found", segments[1])
	}
	if out.Height != 500 {
		t.Errorf("height = %d, want 500", out.Height)
	}
	if !bytes.Equal(out.Rows(300, 500), b.Pix) {
		t.Error("unaligned frame should be appended in full")
	}
}

func TestStitch_Preconditions(t *testing.T) {
	s := New(nil)

	if _, _, err := s.Stitch(nil); !errors.Is(err, ErrNoFrames) {
		t.Errorf("Stitch(nil) error = %v, want ErrNoFrames", err)
	}

	frames := []*frame.Frame{frametest.Solid(100, 10, 0, 0, 0), frametest.Solid(99, 10, 0, 0, 0)}
	if _, _, err := s.Stitch(frames); !errors.Is(err, ErrWidthMismatch) {
		t.Errorf("Stitch(mixed widths) error = %v, want ErrWidthMismatch", err)
	}
}

func TestMinMatching(t *testing.T) {
	for _, threshold := range []float64{0, 0.1, 1.0 / 3, 0.5, 0.9, 0.95, 0.99, 1} {
		for total := 1; total <= 5000; total++ {
			need := minMatching(total, threshold)
			if float64(need)/float64(total) < threshold {
				t.Fatalf("minMatching(%d, %v) = %d is below the threshold", total, threshold, need)
			}
			if need > 0 && float64(need-1)/float64(total) >= threshold {
				t.Fatalf("minMatching(%d, %v) = %d, %d already meets the threshold", total, threshold, need, need-1)
			}
		}
	}

	if got := minMatching(500, 0.95); got != 475 {
		t.Errorf("minMatching(500, 0.95) = %d, want 475", got)
	}
}
