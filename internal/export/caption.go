package export

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const captionPadding = 5

var (
	captionText       = color.RGBA{255, 255, 255, 255}
	captionBackground = color.RGBA{32, 32, 32, 255}
)

// Caption returns a copy of img with a footer band holding text. The band
// is added below the content so nothing captured is covered.
func Caption(img image.Image, text string) *image.RGBA {
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil()
	band := lineHeight + captionPadding*2

	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()+band))
	draw.Draw(out, image.Rect(0, 0, b.Dx(), b.Dy()), img, b.Min, draw.Src)
	draw.Draw(out, image.Rect(0, b.Dy(), b.Dx(), b.Dy()+band), image.NewUniform(captionBackground), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(captionText),
		Face: face,
	}
	text = fitText(d, text, b.Dx()-captionPadding*2)
	d.Dot = fixed.Point26_6{
		X: fixed.I(captionPadding),
		Y: fixed.I(b.Dy() + captionPadding + face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)

	return out
}

// fitText truncates text with an ellipsis until it is at most width pixels wide
func fitText(d *font.Drawer, text string, width int) string {
	if d.MeasureString(text).Ceil() <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if d.MeasureString(candidate).Ceil() <= width {
			return candidate
		}
	}
	return ""
}
