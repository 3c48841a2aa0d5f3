package clock

import (
	"sync"
	"time"
)

// MinElapsed is reported instead of zero or negative intervals so that
// consumers can divide by elapsed time unconditionally.
const MinElapsed = 1e-6

type Source interface {
	Now() time.Time
}

// System reads the monotonic wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Manual is a clock that only moves when told to.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual() *Manual {
	return &Manual{now: time.Unix(0, 0)}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by the given number of seconds.
func (m *Manual) Advance(seconds float64) {
	m.mu.Lock()
	m.now = m.now.Add(Duration(seconds))
	m.mu.Unlock()
}

// Elapsed returns seconds since the manual clock was created.
func (m *Manual) Elapsed() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now.Sub(time.Unix(0, 0)).Seconds()
}

// Duration converts seconds to a time.Duration.
func Duration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// StopWatch reports seconds elapsed since its last reset.
type StopWatch struct {
	src  Source
	last time.Time
}

func NewStopWatch(src Source) *StopWatch {
	if src == nil {
		src = System{}
	}
	return &StopWatch{src: src, last: src.Now()}
}

// Reset returns the seconds elapsed since the previous reset and rebases.
func (w *StopWatch) Reset() float64 {
	now := w.src.Now()
	dt := now.Sub(w.last).Seconds()
	w.last = now
	return guard(dt)
}

// Peek returns the seconds elapsed since the previous reset.
func (w *StopWatch) Peek() float64 {
	return guard(w.src.Now().Sub(w.last).Seconds())
}

func guard(dt float64) float64 {
	if dt < MinElapsed {
		return MinElapsed
	}
	return dt
}
