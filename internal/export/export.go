// Package export encodes stitched captures and writes them to disk.
package export

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bryanchriswhite/ScrollStitch/internal/logger"
	"golang.org/x/image/draw"
)

// Supported output formats
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"

	// DefaultQuality is the JPEG quality used when none is set
	DefaultQuality = 90
)

// timestampLayout keeps names unique for back-to-back captures
const timestampLayout = "20060102_150405.000"

// NormalizeFormat maps user input ("jpg", "PNG", "") to a supported format
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want png or jpeg)", format)
	}
}

// FormatFromPath picks the format from a file extension
func FormatFromPath(path string) (string, error) {
	return NormalizeFormat(filepath.Ext(path))
}

// ContentType returns the MIME type of a normalized format
func ContentType(format string) string {
	if format == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Encode writes img to w in the given format
func Encode(w io.Writer, img image.Image, format string, quality int) error {
	format, err := NormalizeFormat(format)
	if err != nil {
		return err
	}
	// Hand the encoders a concrete RGBA so they skip the per-pixel At path
	if f, ok := img.(interface{ RGBA() *image.RGBA }); ok {
		img = f.RGBA()
	}
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}

	switch format {
	case FormatJPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	default:
		err = png.Encode(w, img)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", format, err)
	}
	return nil
}

// Fit scales img down to maxWidth, keeping the aspect ratio. Images already
// narrow enough, or a maxWidth of 0, are returned unchanged.
func Fit(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}

	height := b.Dy() * maxWidth / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// Writer saves captures into a date-based directory tree:
// <Dir>/2024/01/15/scroll_20240115_143052.123.png
type Writer struct {
	Dir      string
	Format   string
	Quality  int
	MaxWidth int
	// Annotate adds a caption band with the window title and capture time
	Annotate bool

	now func() time.Time
}

// NewWriter creates a writer rooted at dir. A leading ~ expands to the home
// directory.
func NewWriter(dir, format string, quality, maxWidth int) (*Writer, error) {
	format, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}
	dir, err = ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	return &Writer{
		Dir:      dir,
		Format:   format,
		Quality:  quality,
		MaxWidth: maxWidth,
		now:      time.Now,
	}, nil
}

// Save writes img under the dated directory and returns the file path.
// title names the captured window in the caption, if any.
func (w *Writer) Save(img image.Image, title string) (string, error) {
	if img == nil {
		return "", fmt.Errorf("save failed: image cannot be nil")
	}

	now := w.now()
	dir := filepath.Join(w.Dir, now.Format("2006"), now.Format("01"), now.Format("02"))
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("save failed: creating directory %q: %w", dir, err)
	}

	ext := "png"
	if w.Format == FormatJPEG {
		ext = "jpg"
	}
	path := filepath.Join(dir, fmt.Sprintf("scroll_%s.%s", now.Format(timestampLayout), ext))
	if err := w.saveAt(path, img, title, now); err != nil {
		return "", err
	}
	return path, nil
}

// SaveAs writes img to an explicit path, refusing to overwrite
func (w *Writer) SaveAs(path string, img image.Image, title string) error {
	if img == nil {
		return fmt.Errorf("save failed: image cannot be nil")
	}
	return w.saveAt(path, img, title, w.now())
}

func (w *Writer) saveAt(path string, img image.Image, title string, now time.Time) error {
	log := logger.WithComponent("export")

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("save failed: creating directory for %q: %w", path, err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0640)
	if err != nil {
		return fmt.Errorf("save failed: creating %q: %w", path, err)
	}
	defer file.Close()

	scaled := Fit(img, w.MaxWidth)
	if w.Annotate {
		scaled = Caption(scaled, captionFor(title, now))
	}
	if err := Encode(file, scaled, w.Format, w.Quality); err != nil {
		os.Remove(path)
		return fmt.Errorf("save failed: %q: %w", path, err)
	}

	b := scaled.Bounds()
	log.Info().
		Str("path", path).
		Str("format", w.Format).
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Msg("Saved capture")
	return nil
}

func captionFor(title string, now time.Time) string {
	stamp := now.Format("2006-01-02 15:04:05")
	if title == "" {
		return stamp
	}
	return title + " | " + stamp
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Load decodes a PNG or JPEG file
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decoding %q: %w", path, err)
	}
	return img, nil
}
