package engine

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending callback that can be cancelled before it fires.
type Timer interface {
	Stop() bool
}

// Scheduler runs callbacks after a delay. Sessions take one so tests can
// drive time by hand.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemScheduler schedules callbacks on the runtime timer heap.
func SystemScheduler() Scheduler {
	return systemScheduler{}
}

// ManualScheduler is a deterministic Scheduler whose clock only moves on
// Advance. Callbacks run on the goroutine calling Advance.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending []*manualTimer
}

type manualTimer struct {
	owner   *ManualScheduler
	at      time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

// Now returns the scheduler's virtual time.
func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTimer{owner: s, at: s.now.Add(d), seq: s.seq, fn: f}
	s.pending = append(s.pending, t)
	return t
}

// Advance moves the clock forward by d, firing due callbacks in time order.
// Callbacks scheduled while advancing fire too if they fall inside the window.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		next := s.popDueLocked(target)
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = next.at
		s.mu.Unlock()
		next.fn()
	}
}

// Pending reports how many callbacks are still armed.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.pending {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (s *ManualScheduler) popDueLocked(target time.Time) *manualTimer {
	live := s.pending[:0]
	for _, t := range s.pending {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	s.pending = live
	if len(s.pending) == 0 {
		return nil
	}
	sort.SliceStable(s.pending, func(i, j int) bool {
		if !s.pending[i].at.Equal(s.pending[j].at) {
			return s.pending[i].at.Before(s.pending[j].at)
		}
		return s.pending[i].seq < s.pending[j].seq
	})
	next := s.pending[0]
	if next.at.After(target) {
		return nil
	}
	next.fired = true
	s.pending = s.pending[1:]
	return next
}

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
