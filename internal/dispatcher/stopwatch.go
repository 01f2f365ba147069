package dispatcher

import (
	"sync"
	"time"
)

// Stopwatch tracks elapsed wall-clock time for a run, with the ability
// to pause and resume across a job-control suspend (SIGTSTP/SIGCONT on
// Unix) so a stopped run doesn't accumulate timeout-relevant elapsed
// time while the dispatcher itself is suspended.
type Stopwatch struct {
	mu        sync.Mutex
	startedAt time.Time
	pausedAt  time.Time
	paused    bool
	accrued   time.Duration
}

// NewStopwatch starts a running stopwatch.
func NewStopwatch() *Stopwatch {
	return &Stopwatch{startedAt: time.Now()}
}

// Pause freezes the stopwatch; a no-op if already paused.
func (s *Stopwatch) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return
	}
	s.accrued += time.Since(s.startedAt)
	s.paused = true
	s.pausedAt = time.Now()
}

// Resume unfreezes the stopwatch; a no-op if not paused.
func (s *Stopwatch) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return
	}
	s.paused = false
	s.startedAt = time.Now()
}

// Elapsed returns the total running time accrued so far, excluding any
// paused intervals.
func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return s.accrued
	}
	return s.accrued + time.Since(s.startedAt)
}
