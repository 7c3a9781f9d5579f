package images

import (
	"image"
	"sync"

	"github.com/hajimehoshi/bitmapfont/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

type glyph struct {
	mask    *image.Alpha
	advance int
}

// GlyphSet rasterizes runes of the bitmap font, optionally scaled up by an integer factor.
type GlyphSet struct {
	lock   sync.Mutex
	face   font.Face
	scale  int
	ascent int
	height int
	cache  map[rune]glyph
}

func NewGlyphSet(scale int) *GlyphSet {
	return NewGlyphSetFromFace(bitmapfont.Face, scale)
}

func NewGlyphSetFromFace(face font.Face, scale int) *GlyphSet {
	if scale < 1 {
		scale = 1
	}
	metrics := face.Metrics()
	return &GlyphSet{
		face:   face,
		scale:  scale,
		ascent: metrics.Ascent.Ceil(),
		height: (metrics.Ascent + metrics.Descent).Ceil(),
		cache:  make(map[rune]glyph),
	}
}

func (g *GlyphSet) Height() int {
	return g.height * g.scale
}

func (g *GlyphSet) Glyph(r rune) (image.Image, int) {
	g.lock.Lock()
	defer g.lock.Unlock()

	cached, ok := g.cache[r]
	if !ok {
		cached = g.rasterize(r)
		g.cache[r] = cached
	}
	return cached.mask, cached.advance
}

func (g *GlyphSet) rasterize(r rune) glyph {
	advance := 0
	if adv, ok := g.face.GlyphAdvance(r); ok {
		advance = adv.Ceil()
	}

	mask := image.NewAlpha(image.Rect(0, 0, advance, g.height))
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: g.face,
		Dot:  fixed.P(0, g.ascent),
	}
	d.DrawString(string(r))

	if g.scale == 1 {
		return glyph{mask: mask, advance: advance}
	}

	scaled := image.NewAlpha(image.Rect(0, 0, advance*g.scale, g.height*g.scale))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), mask, mask.Bounds(), draw.Src, nil)
	return glyph{mask: scaled, advance: advance * g.scale}
}

// MeasureString returns the width in pixels of s.
func (g *GlyphSet) MeasureString(s string) int {
	width := 0
	for _, r := range s {
		_, advance := g.Glyph(r)
		width += advance
	}
	return width
}
