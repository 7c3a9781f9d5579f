package images

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

var (
	black = image.NewUniform(color.RGBA{0, 0, 0, 255})
	white = image.NewUniform(color.RGBA{255, 255, 255, 255})
)

var labelGlyphs = NewGlyphSet(1)

// Blank returns a black image of the given bounds.
func Blank(bounds image.Rectangle) *image.RGBA {
	img := image.NewRGBA(bounds)
	draw.Draw(img, img.Bounds(), black, image.Point{}, draw.Src)
	return img
}

// AddLabel draws label with its top left corner at (x, y).
func AddLabel(img draw.Image, x, y int, label string) {
	for _, r := range label {
		mask, advance := labelGlyphs.Glyph(r)
		mb := mask.Bounds()
		draw.DrawMask(img, image.Rect(x, y, x+mb.Dx(), y+mb.Dy()), white, image.Point{}, mask, mb.Min, draw.Over)
		x += advance
	}
}

func AddCenteredLabel(img draw.Image, y int, label string) {
	b := img.Bounds()
	AddLabel(img, b.Min.X+(b.Dx()-labelGlyphs.MeasureString(label))/2, y, label)
}

// Message returns a black screen with the given lines centered on it.
func Message(bounds image.Rectangle, lines ...string) *image.RGBA {
	img := Blank(bounds)
	lineHeight := labelGlyphs.Height()
	top := bounds.Min.Y + (bounds.Dy()-len(lines)*lineHeight)/2
	for i, line := range lines {
		AddCenteredLabel(img, top+i*lineHeight, line)
	}
	return img
}
