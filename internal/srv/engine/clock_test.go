package engine

import (
	"image"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clockBounds = image.Rect(0, 0, 128, 64)

func newTestClock(style ClockStyle) *ClockRenderer {
	params := DefaultClockParams
	params.Style = style
	return NewClockRenderer(clockBounds, params, fixedGlyphs{width: 10, height: 20, advance: 12}, fixedGlyphs{width: 5, height: 10, advance: 6})
}

func pixels(t *testing.T, img image.Image) []uint8 {
	t.Helper()
	rgba, ok := img.(*image.RGBA)
	require.True(t, ok)
	return rgba.Pix
}

func TestClockRenderer_Deterministic(t *testing.T) {
	c := newTestClock(ClockStyleWavy)
	now := time.Date(2024, 3, 9, 14, 7, 0, 0, time.UTC)

	first := c.Render(now, 5)
	second := c.Render(now, 5)
	assert.Equal(t, clockBounds, first.Bounds())
	assert.Equal(t, pixels(t, first), pixels(t, second))
}

func TestClockRenderer_WaveMovesWithFrame(t *testing.T) {
	c := newTestClock(ClockStyleWavy)
	now := time.Date(2024, 3, 9, 14, 7, 0, 0, time.UTC)

	assert.NotEqual(t, pixels(t, c.Render(now, 0)), pixels(t, c.Render(now, 4)))
}

func TestClockRenderer_Offset(t *testing.T) {
	c := newTestClock(ClockStyleWavy)
	for _, tt := range []struct{ frame, index int }{{0, 0}, {3, 1}, {10, 4}, {57, 7}} {
		expected := int(math.Sin(float64(tt.frame+tt.index*2)*0.2) * 10)
		assert.Equal(t, expected, c.Offset(tt.frame, tt.index))
	}
	assert.Equal(t, 0, c.Offset(0, 0))
}

func TestClockRenderer_NextAdvancesCounter(t *testing.T) {
	c := newTestClock(ClockStyleWavy)
	now := time.Date(2024, 3, 9, 14, 7, 0, 0, time.UTC)

	assert.Equal(t, 0, c.FrameCounter())
	first := c.Next(now)
	assert.Equal(t, 1, c.FrameCounter())
	assert.Equal(t, pixels(t, c.Render(now, 0)), pixels(t, first))
	c.Next(now)
	assert.Equal(t, 2, c.FrameCounter())
}

func TestClockRenderer_DigitalIgnoresFrame(t *testing.T) {
	c := newTestClock(ClockStyleDigital)
	now := time.Date(2024, 3, 9, 14, 7, 31, 0, time.UTC)

	assert.Equal(t, pixels(t, c.Render(now, 0)), pixels(t, c.Render(now, 9)))
}

func TestClockRenderer_DrawsSomething(t *testing.T) {
	c := newTestClock(ClockStyleWavy)
	lit := 0
	for i, v := range pixels(t, c.Render(time.Now(), 0)) {
		if i%4 != 3 && v != 0 {
			lit++
		}
	}
	assert.Greater(t, lit, 0)
}
