package engine

import (
	"context"
	"sync"
	"time"
)

// Signal is an edge triggered cancellation flag.
// The channel returned by Done is closed on Set and replaced on Clear.
type Signal struct {
	lock sync.Mutex
	done chan struct{}
	set  bool
}

func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

func (s *Signal) Set() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.set {
		s.set = true
		close(s.done)
	}
}

func (s *Signal) Clear() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.set {
		s.set = false
		s.done = make(chan struct{})
	}
}

func (s *Signal) IsSet() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.set
}

func (s *Signal) Done() <-chan struct{} {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.done
}

// wait sleeps for d and reports false as soon as the signal is set or ctx is done.
func wait(ctx context.Context, signal *Signal, d time.Duration) bool {
	if d <= 0 {
		return !signal.IsSet() && ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return !signal.IsSet()
	case <-signal.Done():
		return false
	case <-ctx.Done():
		return false
	}
}
