package scan

import (
	"sync"
	"time"
)

// Scheduler coalesces high-frequency host mutation signals into single
// re-scans. It is a single-slot pending trigger: any trigger while the timer
// is armed just resets it, so at most one scan runs per quiet period. Safe to
// trigger from any goroutine.
type Scheduler struct {
	mu      sync.Mutex
	quiet   time.Duration
	timer   *time.Timer
	scan    func()
	stopped bool
}

// NewScheduler creates a scheduler that invokes scan after each quiet period.
func NewScheduler(quiet time.Duration, scan func()) *Scheduler {
	return &Scheduler{
		quiet: quiet,
		scan:  scan,
	}
}

// Trigger arms (or re-arms) the scan timer.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.quiet, s.fire)
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	s.scan()
}

// Stop cancels any pending scan. Further triggers are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
