// Package frame holds captured screenshots of a scrolling surface and the
// cheap fingerprints used to tell consecutive captures apart.
package frame

import (
	"fmt"
	"image"
	"image/color"
)

// BytesPerPixel is the size of one packed RGB pixel.
const BytesPerPixel = 3

// Frame is one captured screenshot: a row-major RGB buffer with no alpha.
//
// A Frame is never modified after it is created. Pix is exported for fast
// read access by the stitcher; callers must treat it as read-only.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// New wraps pix as a Frame. pix must hold exactly width*height RGB pixels.
func New(width, height int, pix []byte) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if want := width * height * BytesPerPixel; len(pix) != want {
		return nil, fmt.Errorf("frame %dx%d needs %d bytes, got %d", width, height, want, len(pix))
	}
	return &Frame{Width: width, Height: height, Pix: pix}, nil
}

// Blank allocates a zeroed frame.
func Blank(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*BytesPerPixel),
	}
}

// FromImage copies any image into a new Frame, dropping alpha.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := Blank(b.Dx(), b.Dy())

	// Fast path for the capturers, which all produce RGBA
	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < f.Height; y++ {
			src := rgba.Pix[(y+b.Min.Y-rgba.Rect.Min.Y)*rgba.Stride+(b.Min.X-rgba.Rect.Min.X)*4:]
			dst := f.Row(y)
			for x := 0; x < f.Width; x++ {
				dst[x*3] = src[x*4]
				dst[x*3+1] = src[x*4+1]
				dst[x*3+2] = src[x*4+2]
			}
		}
		return f
	}

	for y := 0; y < f.Height; y++ {
		dst := f.Row(y)
		for x := 0; x < f.Width; x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			dst[x*3] = c.R
			dst[x*3+1] = c.G
			dst[x*3+2] = c.B
		}
	}
	return f
}

// Stride returns the number of bytes in one row.
func (f *Frame) Stride() int {
	return f.Width * BytesPerPixel
}

// Row returns the bytes of row y.
func (f *Frame) Row(y int) []byte {
	s := f.Stride()
	return f.Pix[y*s : (y+1)*s]
}

// Rows returns the contiguous bytes of rows [from, to).
func (f *Frame) Rows(from, to int) []byte {
	s := f.Stride()
	return f.Pix[from*s : to*s]
}

// ColorModel implements image.Image.
func (f *Frame) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements image.Image.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// At implements image.Image.
func (f *Frame) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return color.RGBA{}
	}
	i := y*f.Stride() + x*BytesPerPixel
	return color.RGBA{R: f.Pix[i], G: f.Pix[i+1], B: f.Pix[i+2], A: 255}
}

// RGBA expands the frame into an opaque *image.RGBA.
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(f.Bounds())
	for y := 0; y < f.Height; y++ {
		src := f.Row(y)
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < f.Width; x++ {
			dst[x*4] = src[x*3]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3+2]
			dst[x*4+3] = 255
		}
	}
	return img
}
