package export

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bryanchriswhite/ScrollStitch/internal/frame/frametest"
)

func TestNormalizeFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", FormatPNG, false},
		{"PNG", FormatPNG, false},
		{".png", FormatPNG, false},
		{"jpg", FormatJPEG, false},
		{"JPEG", FormatJPEG, false},
		{"gif", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncode(t *testing.T) {
	img := frametest.Content(40, 30)

	var buf bytes.Buffer
	if err := Encode(&buf, img, FormatPNG, 0); err != nil {
		t.Fatalf("Encode(png) error = %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if decoded.Bounds().Dx() != 40 || decoded.Bounds().Dy() != 30 {
		t.Errorf("decoded bounds = %v", decoded.Bounds())
	}
	// PNG is lossless
	r, g, b, _ := decoded.At(7, 21).RGBA()
	if byte(r>>8) != 21 || byte(g>>8) != 0 || byte(b>>8) != 7 {
		t.Errorf("pixel (7,21) = %d,%d,%d", r>>8, g>>8, b>>8)
	}

	buf.Reset()
	if err := Encode(&buf, img, "jpg", 75); err != nil {
		t.Fatalf("Encode(jpeg) error = %v", err)
	}
	if _, err := jpeg.Decode(&buf); err != nil {
		t.Fatalf("jpeg.Decode() error = %v", err)
	}

	// A frame encodes exactly like its RGBA copy
	var fromFrame, fromRGBA bytes.Buffer
	if err := Encode(&fromFrame, img, FormatPNG, 0); err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(&fromRGBA, img.RGBA()); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(fromFrame.Bytes(), fromRGBA.Bytes()) {
		t.Error("Encode(frame) differs from encoding its RGBA copy")
	}

	if err := Encode(&buf, img, "bmp", 0); err == nil {
		t.Error("Encode(bmp): expected error")
	}
}

func TestFit(t *testing.T) {
	img := frametest.Content(200, 1000)

	if got := Fit(img, 0); got != image.Image(img) {
		t.Error("Fit(0) should return the image unchanged")
	}
	if got := Fit(img, 400); got != image.Image(img) {
		t.Error("Fit() wider than the image should return it unchanged")
	}

	got := Fit(img, 100)
	if b := got.Bounds(); b.Dx() != 100 || b.Dy() != 500 {
		t.Errorf("Fit(100) bounds = %v, want 100x500", b)
	}
}

func TestWriterSave(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "jpg", 80, 0)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	w.now = func() time.Time { return time.Date(2024, 1, 15, 14, 30, 52, 123e6, time.Local) }

	path, err := w.Save(frametest.Content(50, 60), "Editor")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	want := filepath.Join(dir, "2024", "01", "15", "scroll_20240115_143052.123.jpg")
	if path != want {
		t.Errorf("Save() path = %q, want %q", path, want)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}

	// Same timestamp again must not overwrite
	if _, err := w.Save(frametest.Content(50, 60), "Editor"); err == nil {
		t.Error("second Save() with the same timestamp: expected error")
	}

	if _, err := w.Save(nil, ""); err == nil {
		t.Error("Save(nil): expected error")
	}
}

func TestWriterSaveAsAndLoad(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, FormatPNG, 0, 20)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	path := filepath.Join(dir, "nested", "out.png")
	if err := w.SaveAs(path, frametest.Content(40, 80), ""); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 40 {
		t.Errorf("loaded bounds = %v, want 20x40 after downscale", b)
	}

	if _, err := Load(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("Load(missing): expected error")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := ExpandHome("~/Pictures/scrollstitch")
	if err != nil {
		t.Fatalf("ExpandHome() error = %v", err)
	}
	if got != filepath.Join(home, "Pictures", "scrollstitch") {
		t.Errorf("ExpandHome() = %q", got)
	}

	if got, _ := ExpandHome("/tmp/out"); got != "/tmp/out" {
		t.Errorf("ExpandHome(absolute) = %q", got)
	}
	if got, _ := ExpandHome("~user/x"); !strings.HasPrefix(got, "~user") {
		t.Errorf("ExpandHome(~user) = %q, should be left alone", got)
	}
}
