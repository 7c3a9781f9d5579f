package engine

import (
	"context"
	"time"

	"github.com/jypelle/gifmatrix/internal/srv/metrics"
	"github.com/sirupsen/logrus"
)

// Library is the content store the scheduler rotates over.
type Library interface {
	// List returns item names in display order.
	List() ([]string, error)
	Decode(name string) (*Sequence, error)
}

type SchedulerParams struct {
	EmptyLibraryBackoff time.Duration
	BlankDelay          time.Duration
}

var DefaultSchedulerParams = SchedulerParams{
	EmptyLibraryBackoff: 5 * time.Second,
	BlankDelay:          100 * time.Millisecond,
}

// Scheduler is the top level playback loop.
type Scheduler struct {
	library    Library
	controller *Controller
	player     *Player
	params     SchedulerParams
}

func NewScheduler(library Library, controller *Controller, player *Player, params SchedulerParams) *Scheduler {
	return &Scheduler{
		library:    library,
		controller: controller,
		player:     player,
		params:     params,
	}
}

// Run rotates over the library until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	logrus.Infof("Start rotation")
	defer logrus.Infof("Rotation stopped")

	for ctx.Err() == nil {
		names, err := s.library.List()
		if err != nil {
			logrus.Warnf("Unable to list library: %v", err)
			names = nil
		}
		metrics.LibraryItems.Set(float64(len(names)))

		if len(names) == 0 {
			if item, ok := s.controller.Next(Item{}); ok {
				s.play(ctx, item, true)
				continue
			}
			logrus.Debugf("Empty library, retry in %v", s.params.EmptyLibraryBackoff)
			s.player.Blank(ctx, s.params.EmptyLibraryBackoff)
			continue
		}

		for _, name := range names {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.step(ctx, LibraryItem(name))
		}
		if ctx.Err() != nil {
			break
		}

		s.player.Blank(ctx, s.params.BlankDelay)
		s.step(ctx, ClockItem)
	}
	return ctx.Err()
}

// step plays the pending override in place of fallback when there is one: fallback is
// then skipped for this pass and the rotation resumes with the item after it.
func (s *Scheduler) step(ctx context.Context, fallback Item) {
	item, override := s.controller.Next(fallback)
	s.play(ctx, item, override)
}

func (s *Scheduler) play(ctx context.Context, item Item, override bool) {
	kind := "library"
	switch {
	case override:
		kind = "override"
		logrus.Infof("Playing override %s", item.Name)
	case item.Clock:
		kind = "clock"
	}

	var seq *Sequence
	if !item.Clock {
		var err error
		seq, err = s.library.Decode(item.Name)
		if err == nil {
			err = seq.Validate()
		}
		if err != nil {
			metrics.DecodeErrorsTotal.Inc()
			logrus.WithField("item", item.Name).Warnf("Skipped: %v", err)
			return
		}
	}

	outcome := s.player.Play(ctx, item, seq)
	metrics.ItemsPlayedTotal.WithLabelValues(kind, outcome.String()).Inc()
	logrus.WithField("item", item.Name).Debugf("Playback %s", outcome)
}
