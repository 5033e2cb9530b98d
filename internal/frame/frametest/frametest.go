// Package frametest builds deterministic synthetic frames for tests.
package frametest

import "github.com/bryanchriswhite/ScrollStitch/internal/frame"

// Content returns a tall page in which every row is unique: red and green
// encode the row index, blue encodes the column.
func Content(width, height int) *frame.Frame {
	f := frame.Blank(width, height)
	for y := 0; y < height; y++ {
		row := f.Row(y)
		for x := 0; x < width; x++ {
			row[x*3] = byte(y)
			row[x*3+1] = byte(y >> 8)
			row[x*3+2] = byte(x)
		}
	}
	return f
}

// Viewport copies rows [top, top+height) of content, the way a window
// scrolled to top would show it.
func Viewport(content *frame.Frame, top, height int) *frame.Frame {
	f := frame.Blank(content.Width, height)
	copy(f.Pix, content.Rows(top, top+height))
	return f
}

// Solid returns a frame filled with a single color.
func Solid(width, height int, r, g, b byte) *frame.Frame {
	f := frame.Blank(width, height)
	for i := 0; i < len(f.Pix); i += 3 {
		f.Pix[i] = r
		f.Pix[i+1] = g
		f.Pix[i+2] = b
	}
	return f
}
