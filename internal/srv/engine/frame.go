package engine

import (
	"errors"
	"image"
	"time"
)

var (
	// ErrDecode marks content that cannot be turned into a Sequence.
	ErrDecode = errors.New("unable to decode item")

	// ErrEmptySequence is returned for sequences without frames.
	ErrEmptySequence = errors.New("sequence has no frame")
)

// Frame is one image pushed to the sink, shown for Duration.
type Frame struct {
	Image    image.Image
	Duration time.Duration
}

// Sequence is a decoded animation.
// LoopCount is the native loop count declared by the source, 0 means forever.
type Sequence struct {
	Frames    []Frame
	LoopCount int
}

func (s *Sequence) FrameCount() int {
	return len(s.Frames)
}

func (s *Sequence) Validate() error {
	if s == nil || len(s.Frames) == 0 {
		return ErrEmptySequence
	}
	return nil
}

// LoopPolicy turns sequence metadata into playback timing.
type LoopPolicy struct {
	DefaultFrameDuration   time.Duration
	ForcedLoops            int
	ShortSequenceThreshold int
	ShortSequenceBump      int
}

var DefaultLoopPolicy = LoopPolicy{
	DefaultFrameDuration:   100 * time.Millisecond,
	ForcedLoops:            1,
	ShortSequenceThreshold: 8,
	ShortSequenceBump:      1,
}

// EffectiveLoops returns how many times the sequence body is played.
func (p LoopPolicy) EffectiveLoops(seq *Sequence) int {
	loops := seq.LoopCount
	if loops <= 0 {
		loops = p.ForcedLoops
	}
	if seq.FrameCount() < p.ShortSequenceThreshold {
		loops += p.ShortSequenceBump
	}
	if loops < 1 {
		loops = 1
	}
	return loops
}

func (p LoopPolicy) FrameDuration(frame Frame) time.Duration {
	if frame.Duration <= 0 {
		return p.DefaultFrameDuration
	}
	return frame.Duration
}
