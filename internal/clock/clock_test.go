package clock

import (
	"math"
	"testing"
	"time"
)

func TestStopWatchReset(t *testing.T) {
	src := NewManual()
	w := NewStopWatch(src)

	src.Advance(0.25)
	if got := w.Peek(); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("Peek() = %f, want 0.25", got)
	}
	if got := w.Peek(); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("second Peek() = %f, want 0.25", got)
	}
	if got := w.Reset(); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("Reset() = %f, want 0.25", got)
	}

	src.Advance(0.1)
	if got := w.Reset(); math.Abs(got-0.1) > 1e-9 {
		t.Errorf("Reset() after rebase = %f, want 0.1", got)
	}
}

func TestStopWatchGuardsZeroInterval(t *testing.T) {
	src := NewManual()
	w := NewStopWatch(src)

	if got := w.Reset(); got != MinElapsed {
		t.Errorf("Reset() with no elapsed time = %g, want %g", got, MinElapsed)
	}
	if got := w.Peek(); got <= 0 {
		t.Errorf("Peek() must be positive, got %g", got)
	}
}

type backwards struct{ times []time.Time }

func (b *backwards) Now() time.Time {
	t := b.times[0]
	if len(b.times) > 1 {
		b.times = b.times[1:]
	}
	return t
}

func TestStopWatchGuardsNegativeInterval(t *testing.T) {
	base := time.Unix(100, 0)
	src := &backwards{times: []time.Time{base, base.Add(-time.Second)}}
	w := NewStopWatch(src)

	if got := w.Reset(); got != MinElapsed {
		t.Errorf("Reset() across a backwards step = %g, want %g", got, MinElapsed)
	}
}

func TestSystemClockAdvances(t *testing.T) {
	w := NewStopWatch(nil)
	time.Sleep(2 * time.Millisecond)
	if got := w.Reset(); got < 0.001 {
		t.Errorf("expected at least 1ms elapsed, got %f", got)
	}
}

func TestManualElapsed(t *testing.T) {
	src := NewManual()
	for i := 0; i < 100; i++ {
		src.Advance(0.01)
	}
	if got := src.Elapsed(); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("Elapsed() = %f, want 1.0", got)
	}
}
