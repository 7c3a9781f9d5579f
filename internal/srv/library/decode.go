package library

import (
	"fmt"
	"image"
	"image/gif"
	"io"
	"time"

	"github.com/jypelle/gifmatrix/internal/images"
	"github.com/jypelle/gifmatrix/internal/srv/engine"
	"golang.org/x/image/draw"
)

const gifDelayUnit = 10 * time.Millisecond

// DecodeGIF decodes every frame of a GIF, fully composited and scaled to bounds over black.
func DecodeGIF(r io.Reader, bounds image.Rectangle) (*engine.Sequence, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrDecode, err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("%w: %v", engine.ErrDecode, engine.ErrEmptySequence)
	}

	canvasRect := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if canvasRect.Empty() {
		for _, frame := range g.Image {
			canvasRect = canvasRect.Union(frame.Bounds())
		}
	}
	canvas := image.NewRGBA(canvasRect)

	seq := &engine.Sequence{LoopCount: nativeLoopCount(g.LoopCount)}
	for i, frame := range g.Image {
		var disposal byte
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		var previous []uint8
		if disposal == gif.DisposalPrevious {
			previous = append(previous, canvas.Pix...)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		var delay time.Duration
		if i < len(g.Delay) {
			delay = time.Duration(g.Delay[i]) * gifDelayUnit
		}
		seq.Frames = append(seq.Frames, engine.Frame{
			Image:    fit(canvas, bounds),
			Duration: delay,
		})

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			copy(canvas.Pix, previous)
		}
	}

	return seq, nil
}

// nativeLoopCount converts image/gif LoopCount to a play count, 0 meaning forever.
func nativeLoopCount(loopCount int) int {
	switch {
	case loopCount < 0:
		return 1
	case loopCount == 0:
		return 0
	default:
		return loopCount + 1
	}
}

func fit(src *image.RGBA, bounds image.Rectangle) *image.RGBA {
	dst := images.Blank(bounds)
	draw.ApproxBiLinear.Scale(dst, bounds, src, src.Bounds(), draw.Over, nil)
	return dst
}
