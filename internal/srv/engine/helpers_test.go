package engine

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"
)

var testBounds = image.Rect(0, 0, 16, 8)

type presented struct {
	nowPlaying string
	img        image.Image
	library    bool
}

// recordingSink keeps every presented frame with the now playing value seen at that time.
type recordingSink struct {
	lock       sync.Mutex
	controller *Controller
	frames     []presented
	failOn     func(n int) error
	onPresent  func(n int, p presented)
}

func (s *recordingSink) Bounds() image.Rectangle {
	return testBounds
}

func (s *recordingSink) Present(img image.Image) error {
	s.lock.Lock()
	n := len(s.frames)
	name, _ := s.controller.NowPlaying()
	_, library := img.(*image.Uniform)
	p := presented{nowPlaying: name, img: img, library: library}
	s.frames = append(s.frames, p)
	failOn := s.failOn
	onPresent := s.onPresent
	s.lock.Unlock()

	if onPresent != nil {
		onPresent(n, p)
	}
	if failOn != nil {
		return failOn(n)
	}
	return nil
}

func (s *recordingSink) snapshot() []presented {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]presented(nil), s.frames...)
}

// runs groups consecutive library frames by item name.
func runs(frames []presented) []run {
	var result []run
	for _, f := range frames {
		name := f.nowPlaying
		if !f.library && name != ClockName {
			continue
		}
		if len(result) > 0 && result[len(result)-1].name == name {
			result[len(result)-1].count++
			continue
		}
		result = append(result, run{name: name, count: 1})
	}
	return result
}

type run struct {
	name  string
	count int
}

type fakeLibrary struct {
	lock      sync.Mutex
	names     []string
	sequences map[string]*Sequence
	decoded   []string
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{sequences: make(map[string]*Sequence)}
}

func (l *fakeLibrary) add(name string, seq *Sequence, listed bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.sequences[name] = seq
	if listed {
		l.names = append(l.names, name)
	}
}

func (l *fakeLibrary) List() ([]string, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]string(nil), l.names...), nil
}

func (l *fakeLibrary) Decode(name string) (*Sequence, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.decoded = append(l.decoded, name)
	seq, ok := l.sequences[name]
	if !ok || seq == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrDecode)
	}
	return seq, nil
}

// newSequence builds frames as distinct uniform images.
func newSequence(frameCount int, loopCount int, duration time.Duration) *Sequence {
	seq := &Sequence{LoopCount: loopCount}
	for i := 0; i < frameCount; i++ {
		seq.Frames = append(seq.Frames, Frame{
			Image:    image.NewUniform(color.RGBA{uint8(i), 0, 0, 255}),
			Duration: duration,
		})
	}
	return seq
}

// fixedGlyphs renders every rune as a full block.
type fixedGlyphs struct {
	width   int
	height  int
	advance int
}

func (g fixedGlyphs) Glyph(r rune) (image.Image, int) {
	mask := image.NewAlpha(image.Rect(0, 0, g.width, g.height))
	for i := range mask.Pix {
		mask.Pix[i] = 0xff
	}
	return mask, g.advance
}

func (g fixedGlyphs) Height() int {
	return g.height
}

func newTestPlayer(sink *recordingSink, controller *Controller, params PlayerParams) *Player {
	clock := NewClockRenderer(testBounds, DefaultClockParams, fixedGlyphs{1, 2, 1}, fixedGlyphs{1, 1, 1})
	return NewPlayer(sink, controller, clock, params)
}

func testPlayerParams() PlayerParams {
	return PlayerParams{
		Policy: LoopPolicy{
			DefaultFrameDuration:   time.Millisecond,
			ForcedLoops:            1,
			ShortSequenceThreshold: 8,
			ShortSequenceBump:      1,
		},
		ClockInterval: 30 * time.Millisecond,
		ClockTick:     5 * time.Millisecond,
	}
}

var errDevice = errors.New("device failure")
