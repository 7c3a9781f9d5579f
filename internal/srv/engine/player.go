package engine

import (
	"context"
	"image"
	"time"

	"github.com/jypelle/gifmatrix/internal/images"
	"github.com/jypelle/gifmatrix/internal/srv/metrics"
	"github.com/sirupsen/logrus"
)

// Sink is the display the engine renders to.
type Sink interface {
	Bounds() image.Rectangle
	Present(img image.Image) error
}

type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeCancelled
	OutcomeStopped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCancelled:
		return metrics.OutcomeCancelled
	case OutcomeStopped:
		return metrics.OutcomeStopped
	default:
		return metrics.OutcomeCompleted
	}
}

type PlayerParams struct {
	Policy        LoopPolicy
	ClockInterval time.Duration
	ClockTick     time.Duration
}

var DefaultPlayerParams = PlayerParams{
	Policy:        DefaultLoopPolicy,
	ClockInterval: 10 * time.Second,
	ClockTick:     10 * time.Millisecond,
}

// Player runs playback sessions, one at a time, on the sink.
type Player struct {
	sink       Sink
	controller *Controller
	clock      *ClockRenderer
	params     PlayerParams
	blank      image.Image
}

func NewPlayer(sink Sink, controller *Controller, clock *ClockRenderer, params PlayerParams) *Player {
	return &Player{
		sink:       sink,
		controller: controller,
		clock:      clock,
		params:     params,
		blank:      images.Blank(sink.Bounds()),
	}
}

// Play renders item until completion, cancellation or ctx end.
// seq is ignored for the clock.
func (p *Player) Play(ctx context.Context, item Item, seq *Sequence) Outcome {
	if item.Clock {
		return p.playClock(ctx, item)
	}
	return p.playSequence(ctx, item, seq)
}

func (p *Player) playSequence(ctx context.Context, item Item, seq *Sequence) Outcome {
	entry := logrus.WithField("item", item.Name)
	if err := seq.Validate(); err != nil {
		entry.Warnf("Unable to play: %v", err)
		return OutcomeCompleted
	}

	// Nothing is published for a session interrupted before its first frame.
	if p.interrupted(ctx) {
		return p.interruption(ctx)
	}
	loops := p.params.Policy.EffectiveLoops(seq)
	p.controller.setNowPlaying(item.Name)
	entry.Debugf("Playing %d frames, %d loops", seq.FrameCount(), loops)

	signal := p.controller.Signal()
	for loop := 0; loop < loops; loop++ {
		for _, frame := range seq.Frames {
			if p.interrupted(ctx) {
				return p.interruption(ctx)
			}
			p.present(entry, frame.Image)
			if !wait(ctx, signal, p.params.Policy.FrameDuration(frame)) {
				return p.interruption(ctx)
			}
		}
	}
	return OutcomeCompleted
}

func (p *Player) playClock(ctx context.Context, item Item) Outcome {
	entry := logrus.WithField("item", item.Name)
	if p.interrupted(ctx) {
		return p.interruption(ctx)
	}
	p.controller.setNowPlaying(item.Name)
	entry.Debugf("Playing clock for %v", p.params.ClockInterval)

	signal := p.controller.Signal()
	deadline := time.Now().Add(p.params.ClockInterval)
	for time.Now().Before(deadline) {
		if p.interrupted(ctx) {
			return p.interruption(ctx)
		}
		p.present(entry, p.clock.Next(time.Now()))
		if !wait(ctx, signal, p.params.ClockTick) {
			return p.interruption(ctx)
		}
	}
	return OutcomeCompleted
}

// Blank shows a black frame for d. It reports false if interrupted.
func (p *Player) Blank(ctx context.Context, d time.Duration) bool {
	p.present(logrus.WithField("item", NoneName), p.blank)
	return wait(ctx, p.controller.Signal(), d)
}

func (p *Player) present(entry *logrus.Entry, img image.Image) {
	if err := p.sink.Present(img); err != nil {
		metrics.DeviceErrorsTotal.Inc()
		entry.Warnf("Frame dropped: %v", err)
		return
	}
	metrics.FramesPresentedTotal.Inc()
}

func (p *Player) interrupted(ctx context.Context) bool {
	return ctx.Err() != nil || p.controller.Signal().IsSet()
}

func (p *Player) interruption(ctx context.Context) Outcome {
	if ctx.Err() != nil {
		return OutcomeStopped
	}
	return OutcomeCancelled
}
