package game

import (
	"sort"
	"sync"
	"time"
)

// TimerToken identifies a scheduled callback. The zero token is never issued.
type TimerToken uint64

// Scheduler runs a callback once after a delay.
//
// Callbacks must run on the same goroutine that drives the Controller.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) TimerToken
	Cancel(TimerToken)
}

// DispatchScheduler uses real timers and hands fired callbacks to Dispatch,
// which must run them on the UI goroutine (go-app's ctx.Dispatch, a tcell
// PostEvent, ...). A nil Dispatch runs callbacks on the timer goroutine.
type DispatchScheduler struct {
	Dispatch func(func())

	mu     sync.Mutex
	next   TimerToken
	timers map[TimerToken]*time.Timer
}

// NewDispatchScheduler creates a DispatchScheduler.
func NewDispatchScheduler(dispatch func(func())) *DispatchScheduler {
	return &DispatchScheduler{Dispatch: dispatch}
}

func (s *DispatchScheduler) Schedule(d time.Duration, fn func()) TimerToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timers == nil {
		s.timers = make(map[TimerToken]*time.Timer)
	}
	s.next++
	token := s.next
	s.timers[token] = time.AfterFunc(d, func() {
		s.mu.Lock()
		_, live := s.timers[token]
		delete(s.timers, token)
		s.mu.Unlock()
		if !live {
			return
		}
		if s.Dispatch != nil {
			s.Dispatch(fn)
		} else {
			fn()
		}
	})
	return token
}

func (s *DispatchScheduler) Cancel(token TimerToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[token]; ok {
		t.Stop()
		delete(s.timers, token)
	}
}

// ManualScheduler is a deterministic Scheduler driven by Advance.
// Used in tests and for replaying sessions.
type ManualScheduler struct {
	now     time.Duration
	next    TimerToken
	pending map[TimerToken]manualTimer
}

type manualTimer struct {
	due time.Duration
	fn  func()
}

// NewManualScheduler creates a ManualScheduler at virtual time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{pending: make(map[TimerToken]manualTimer)}
}

func (s *ManualScheduler) Schedule(d time.Duration, fn func()) TimerToken {
	s.next++
	s.pending[s.next] = manualTimer{due: s.now + d, fn: fn}
	return s.next
}

func (s *ManualScheduler) Cancel(token TimerToken) {
	delete(s.pending, token)
}

// Pending returns the number of armed callbacks.
func (s *ManualScheduler) Pending() int {
	return len(s.pending)
}

// Advance moves virtual time forward and runs every callback that became due,
// in due order (ties by scheduling order).
func (s *ManualScheduler) Advance(d time.Duration) {
	s.now += d
	for {
		var due []TimerToken
		for token, t := range s.pending {
			if t.due <= s.now {
				due = append(due, token)
			}
		}
		if len(due) == 0 {
			return
		}
		sort.Slice(due, func(i, j int) bool {
			ti, tj := s.pending[due[i]], s.pending[due[j]]
			if ti.due != tj.due {
				return ti.due < tj.due
			}
			return due[i] < due[j]
		})
		token := due[0]
		t := s.pending[token]
		delete(s.pending, token)
		t.fn()
	}
}

// Clock provides timestamps for session timing.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock is a controllable Clock for tests.
type ManualClock struct {
	mu          sync.RWMutex
	currentTime time.Time
}

// NewManualClock creates a ManualClock set to start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{currentTime: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentTime
}

// Set sets the current time.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = t
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = c.currentTime.Add(d)
}
