package schedule

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handle identifies one armed timer. It becomes invalid after the timer fires
// or is cancelled.
type Handle string

// Timers is the delay-timer primitive the controller schedules against:
// fire-at-most-once after a delay, cancellable by handle. Production uses
// SystemTimers; tests substitute a fake.
type Timers interface {
	Arm(delay time.Duration, fn func()) Handle
	Cancel(h Handle)
	Active(h Handle) bool
}

type SystemTimers struct {
	mu     sync.Mutex
	timers map[Handle]*time.Timer
}

func NewSystemTimers() *SystemTimers {
	return &SystemTimers{timers: make(map[Handle]*time.Timer)}
}

func (s *SystemTimers) Arm(delay time.Duration, fn func()) Handle {
	if delay < 0 {
		delay = 0
	}
	h := Handle(uuid.NewString())

	s.mu.Lock()
	s.timers[h] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, h)
		s.mu.Unlock()
		fn()
	})
	s.mu.Unlock()

	return h
}

func (s *SystemTimers) Cancel(h Handle) {
	s.mu.Lock()
	t, ok := s.timers[h]
	if ok {
		delete(s.timers, h)
	}
	s.mu.Unlock()

	if ok {
		t.Stop()
	}
}

func (s *SystemTimers) Active(h Handle) bool {
	s.mu.Lock()
	_, ok := s.timers[h]
	s.mu.Unlock()
	return ok
}
