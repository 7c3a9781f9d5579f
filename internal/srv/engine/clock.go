package engine

import (
	"image"
	"image/color"
	"math"
	"time"

	"golang.org/x/image/draw"
)

type ClockStyle string

const (
	ClockStyleWavy    ClockStyle = "wavy"
	ClockStyleDigital ClockStyle = "digital"
)

const (
	wavyTimeLayout    = "3:04 PM"
	wavyDateLayout    = "Mon, Jan 02, 2006"
	digitalTimeLayout = "15:04:05"
	clockLineGap      = 2
)

var (
	clockTimeColor = color.RGBA{255, 255, 255, 255}
	clockDateColor = color.RGBA{0x18, 0x45, 0x3b, 255}
)

// GlyphSource provides already rasterized glyphs.
type GlyphSource interface {
	// Glyph returns the coverage mask of r, anchored at (0,0), and its advance in pixels.
	Glyph(r rune) (mask image.Image, advance int)
	Height() int
}

type ClockParams struct {
	Style        ClockStyle
	Amplitude    float64
	AngularSpeed float64
	PhaseStep    int
}

var DefaultClockParams = ClockParams{
	Style:        ClockStyleWavy,
	Amplitude:    10,
	AngularSpeed: 0.2,
	PhaseStep:    2,
}

// ClockRenderer draws the current time, each character shifted vertically along a sine wave.
type ClockRenderer struct {
	bounds     image.Rectangle
	params     ClockParams
	timeGlyphs GlyphSource
	dateGlyphs GlyphSource

	frame int
}

func NewClockRenderer(bounds image.Rectangle, params ClockParams, timeGlyphs GlyphSource, dateGlyphs GlyphSource) *ClockRenderer {
	return &ClockRenderer{
		bounds:     bounds,
		params:     params,
		timeGlyphs: timeGlyphs,
		dateGlyphs: dateGlyphs,
	}
}

// Next renders now with the running frame counter, then advances the counter.
func (c *ClockRenderer) Next(now time.Time) image.Image {
	img := c.Render(now, c.frame)
	c.frame++
	return img
}

func (c *ClockRenderer) FrameCounter() int {
	return c.frame
}

// Render is deterministic for a given instant and frame counter.
func (c *ClockRenderer) Render(now time.Time, frame int) image.Image {
	img := image.NewRGBA(c.bounds)
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{}, draw.Src)

	if c.params.Style == ClockStyleDigital {
		top := c.bounds.Min.Y + (c.bounds.Dy()-c.timeGlyphs.Height())/2
		c.drawLine(img, c.timeGlyphs, now.Format(digitalTimeLayout), top, clockTimeColor, frame, false)
		return img
	}

	block := c.timeGlyphs.Height() + clockLineGap + c.dateGlyphs.Height()
	top := c.bounds.Min.Y + (c.bounds.Dy()-block)/2
	c.drawLine(img, c.timeGlyphs, now.Format(wavyTimeLayout), top, clockTimeColor, frame, true)
	c.drawLine(img, c.dateGlyphs, now.Format(wavyDateLayout), top+c.timeGlyphs.Height()+clockLineGap, clockDateColor, frame, true)
	return img
}

// Offset is the vertical shift of the character at index for the given frame.
func (c *ClockRenderer) Offset(frame int, index int) int {
	phase := float64(frame+index*c.params.PhaseStep) * c.params.AngularSpeed
	return int(math.Sin(phase) * c.params.Amplitude)
}

func (c *ClockRenderer) drawLine(img *image.RGBA, glyphs GlyphSource, text string, top int, col color.Color, frame int, wavy bool) {
	runes := []rune(text)

	width := 0
	for _, r := range runes {
		_, advance := glyphs.Glyph(r)
		width += advance
	}

	src := image.NewUniform(col)
	x := c.bounds.Min.X + (c.bounds.Dx()-width)/2
	for i, r := range runes {
		mask, advance := glyphs.Glyph(r)
		y := top
		if wavy {
			y += c.Offset(frame, i)
		}
		mb := mask.Bounds()
		draw.DrawMask(img, image.Rect(x, y, x+mb.Dx(), y+mb.Dy()), src, image.Point{}, mask, mb.Min, draw.Over)
		x += advance
	}
}
