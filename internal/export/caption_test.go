package export

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/bryanchriswhite/ScrollStitch/internal/frame/frametest"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

func TestCaptionAddsBand(t *testing.T) {
	src := frametest.Content(200, 50)
	out := Caption(src, "main.go - Editor")

	b := out.Bounds()
	if b.Dx() != 200 || b.Dy() <= 50 {
		t.Fatalf("Caption() bounds = %v, want 200 wide and taller than 50", b)
	}

	// Content is untouched
	for _, p := range []image.Point{{0, 0}, {199, 0}, {37, 49}} {
		want := color.RGBAModel.Convert(src.At(p.X, p.Y))
		if got := out.At(p.X, p.Y); got != want {
			t.Errorf("pixel %v = %v, want %v", p, got, want)
		}
	}

	// Band has both background and text pixels
	var text, background int
	for y := 50; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			switch out.RGBAAt(x, y) {
			case captionText:
				text++
			case captionBackground:
				background++
			}
		}
	}
	if text == 0 {
		t.Error("no text pixels drawn in caption band")
	}
	if background == 0 {
		t.Error("no background pixels in caption band")
	}
}

func TestFitText(t *testing.T) {
	d := &font.Drawer{Face: basicfont.Face7x13}

	if got := fitText(d, "short", 100); got != "short" {
		t.Errorf("fitText(short) = %q", got)
	}

	got := fitText(d, "a very long window title that does not fit", 70)
	if w := d.MeasureString(got).Ceil(); w > 70 {
		t.Errorf("fitText() = %q is %dpx wide, want <= 70", got, w)
	}
	if got == "" || got[len(got)-3:] != "..." {
		t.Errorf("fitText() = %q, want ellipsis", got)
	}

	if got := fitText(d, "anything", 5); got != "" {
		t.Errorf("fitText(too narrow) = %q, want empty", got)
	}
}

func TestCaptionFor(t *testing.T) {
	now := time.Date(2024, 1, 15, 14, 30, 52, 0, time.Local)
	if got := captionFor("Editor", now); got != "Editor | 2024-01-15 14:30:52" {
		t.Errorf("captionFor() = %q", got)
	}
	if got := captionFor("", now); got != "2024-01-15 14:30:52" {
		t.Errorf("captionFor(no title) = %q", got)
	}
}

func TestWriterAnnotate(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, FormatPNG, 0, 0)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	w.Annotate = true

	path := filepath.Join(dir, "captioned.png")
	if err := w.SaveAs(path, frametest.Content(120, 40), "Editor"); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() <= 40 {
		t.Errorf("loaded bounds = %v, want caption band below 120x40", b)
	}
}
