package engine

import (
	"sync"

	"github.com/jypelle/gifmatrix/internal/srv/metrics"
	"github.com/sirupsen/logrus"
)

const (
	ClockName = "clock"
	NoneName  = "none"
)

// Item is either a library entry, identified by its filename, or the clock.
type Item struct {
	Name  string
	Clock bool
}

var ClockItem = Item{Name: ClockName, Clock: true}

func LibraryItem(name string) Item {
	return Item{Name: name}
}

// Controller arbitrates between normal rotation and overrides.
// It owns the cancellation signal, the pending override slot and the now playing cell.
type Controller struct {
	signal *Signal

	// Submit and Next both hold submitLock so that the slot and the signal move together.
	submitLock sync.Mutex
	requests   chan Item

	lock       sync.RWMutex
	nowPlaying string
}

func NewController() *Controller {
	return &Controller{
		signal:     NewSignal(),
		requests:   make(chan Item, 1),
		nowPlaying: NoneName,
	}
}

// Submit makes name the next item to play and interrupts the current session.
// A request not yet consumed by Next is replaced.
func (c *Controller) Submit(name string) {
	c.submitLock.Lock()
	defer c.submitLock.Unlock()

	select {
	case dropped := <-c.requests:
		logrus.Infof("Override %s replaced by %s", dropped.Name, name)
	default:
	}
	c.requests <- LibraryItem(name)
	c.signal.Set()
	metrics.OverridesSubmittedTotal.Inc()
	logrus.Infof("Override requested: %s", name)
}

// Skip interrupts the current session without requesting a specific item.
func (c *Controller) Skip() {
	logrus.Infof("Skip requested")
	c.signal.Set()
}

// Next returns the pending override if any, fallback otherwise.
// The signal is cleared since a new session is about to start.
func (c *Controller) Next(fallback Item) (Item, bool) {
	c.submitLock.Lock()
	defer c.submitLock.Unlock()

	c.signal.Clear()
	select {
	case item := <-c.requests:
		metrics.OverridesPlayedTotal.Inc()
		return item, true
	default:
		return fallback, false
	}
}

// Pending reports whether an override waits to be consumed.
func (c *Controller) Pending() bool {
	c.submitLock.Lock()
	defer c.submitLock.Unlock()
	return len(c.requests) > 0
}

func (c *Controller) Signal() *Signal {
	return c.signal
}

// NowPlaying returns the item on screen, ok is false before the first playback.
func (c *Controller) NowPlaying() (string, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.nowPlaying, c.nowPlaying != NoneName
}

func (c *Controller) setNowPlaying(name string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.nowPlaying = name
}
