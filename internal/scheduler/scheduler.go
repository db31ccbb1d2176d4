// Package scheduler is a small delayed-action queue over an injectable
// clock. Game services use it for turn ticks, bot think delays, and the
// housie auto-call cadence; tests drive it with a mock clock.
package scheduler

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// Cancel stops a scheduled action. It is safe to call more than once and
// after the action has fired.
type Cancel func()

// Scheduler owns a set of pending timers. Stop cancels them all, so a
// service can tear down every timer it ever armed in one call.
type Scheduler struct {
	clock quartz.Clock

	mu      sync.Mutex
	stopped bool
	nextID  uint64
	timers  map[uint64]*quartz.Timer
}

// New builds a scheduler over the given clock. Pass quartz.NewReal() in
// production and quartz.NewMock(t) in tests.
func New(clock quartz.Clock) *Scheduler {
	return &Scheduler{
		clock:  clock,
		timers: make(map[uint64]*quartz.Timer),
	}
}

// Clock exposes the underlying clock for callers that need Now.
func (s *Scheduler) Clock() quartz.Clock {
	return s.clock
}

// After runs fn once after d. fn runs on the clock's timer goroutine.
func (s *Scheduler) After(d time.Duration, fn func()) Cancel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return func() {}
	}

	id := s.nextID
	s.nextID++
	timer := s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		fn()
	})
	s.timers[id] = timer

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t, ok := s.timers[id]; ok {
			t.Stop()
			delete(s.timers, id)
		}
	}
}

// Every runs fn repeatedly at interval d until cancelled. The first run is
// one interval out. A periodic that was cancelled from inside fn stops
// re-arming.
func (s *Scheduler) Every(d time.Duration, fn func()) Cancel {
	var (
		mu        sync.Mutex
		cancelled bool
		inner     Cancel
	)

	var arm func()
	arm = func() {
		c := s.After(d, func() {
			mu.Lock()
			dead := cancelled
			mu.Unlock()
			if dead {
				return
			}
			fn()
			mu.Lock()
			dead = cancelled
			mu.Unlock()
			if !dead {
				arm()
			}
		})
		mu.Lock()
		if cancelled {
			mu.Unlock()
			c()
			return
		}
		inner = c
		mu.Unlock()
	}
	arm()

	return func() {
		mu.Lock()
		cancelled = true
		c := inner
		mu.Unlock()
		if c != nil {
			c()
		}
	}
}

// Stop cancels every pending timer and rejects new ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
