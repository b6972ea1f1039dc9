package flightform

import (
	"sync"
	"time"
)

// Scheduler runs Deferred events on timers. After Close no scheduled event
// is delivered.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[*time.Timer]struct{}
	closed  bool
	deliver func(Event)
}

// NewScheduler returns a scheduler that hands fired events to deliver.
func NewScheduler(deliver func(Event)) *Scheduler {
	return &Scheduler{
		timers:  make(map[*time.Timer]struct{}),
		deliver: deliver,
	}
}

// Schedule arms a timer for each deferred event.
func (s *Scheduler) Schedule(deferred ...Deferred) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, d := range deferred {
		ev := d.Event
		var t *time.Timer
		t = time.AfterFunc(d.After, func() {
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return
			}
			delete(s.timers, t)
			s.mu.Unlock()
			s.deliver(ev)
		})
		s.timers[t] = struct{}{}
	}
}

// Pending returns the number of armed timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close stops every armed timer.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}
