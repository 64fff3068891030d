// Package autosave collapses bursts of edits into single persist calls
// using a keyed debounce: one timer per note id, re-armed on every edit.
package autosave

import (
	"sync"
	"time"
)

// DefaultInterval balances save-on-every-keystroke chatter against the
// data-loss window on crash or navigation.
const DefaultInterval = 800 * time.Millisecond

// FireFunc is invoked, on the timer goroutine, when a note's quiet
// period elapses. The scheduler returns to idle regardless of what the
// callback does.
type FireFunc func(noteID string)

type Scheduler struct {
	mu       sync.Mutex
	interval time.Duration
	timers   map[string]*time.Timer
	fire     FireFunc
	stopped  bool
}

func NewScheduler(interval time.Duration, fire FireFunc) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		interval: interval,
		timers:   make(map[string]*time.Timer),
		fire:     fire,
	}
}

// Schedule arms the timer for noteID, cancelling any pending one first:
// an unbroken stream of calls defers the fire indefinitely (debounce,
// not throttle). Timers for different ids are fully independent.
func (s *Scheduler) Schedule(noteID string) {
	if noteID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if t, ok := s.timers[noteID]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(s.interval, func() {
		s.mu.Lock()
		// A re-arm or cancel may have replaced this timer between its
		// expiry and taking the lock; only the registered timer fires.
		if s.stopped || s.timers[noteID] != t {
			s.mu.Unlock()
			return
		}
		delete(s.timers, noteID)
		s.mu.Unlock()
		s.fire(noteID)
	})
	s.timers[noteID] = t
}

// Cancel guarantees zero fires for the note's current arm cycle.
func (s *Scheduler) Cancel(noteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[noteID]; ok {
		t.Stop()
		delete(s.timers, noteID)
	}
}

// Flush fires a pending arm cycle immediately, on the caller's
// goroutine. No-op if nothing is armed for the id.
func (s *Scheduler) Flush(noteID string) {
	s.mu.Lock()
	t, ok := s.timers[noteID]
	if ok {
		t.Stop()
		delete(s.timers, noteID)
	}
	stopped := s.stopped
	s.mu.Unlock()
	if ok && !stopped {
		s.fire(noteID)
	}
}

func (s *Scheduler) Pending(noteID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[noteID]
	return ok
}

// PendingIDs lists ids with an armed timer.
func (s *Scheduler) PendingIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.timers))
	for id := range s.timers {
		ids = append(ids, id)
	}
	return ids
}

// Stop cancels every pending timer; the scheduler accepts no further
// work afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
