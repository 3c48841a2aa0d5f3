package filter

import (
	"github.com/san-kum/loopkit/internal/clock"
)

// MovingAverage is the mean of the last size samples. The window starts
// filled with zeros.
type MovingAverage struct {
	ring []float64
	idx  int
	sum  float64
}

func NewMovingAverage(size int) (*MovingAverage, error) {
	if size < 1 {
		return nil, invalid("moving average: size %d must be >= 1", size)
	}
	return &MovingAverage{ring: make([]float64, size)}, nil
}

// Prime fills the window with v.
func (f *MovingAverage) Prime(v float64) {
	for i := range f.ring {
		f.ring[i] = v
	}
	f.idx = 0
	f.sum = v * float64(len(f.ring))
}

func (f *MovingAverage) Apply(next float64) float64 {
	f.sum += next - f.ring[f.idx]
	f.ring[f.idx] = next
	f.idx++
	if f.idx == len(f.ring) {
		f.idx = 0
		// recount once per lap to shed accumulated rounding error
		f.sum = 0
		for _, v := range f.ring {
			f.sum += v
		}
	}
	return f.sum / float64(len(f.ring))
}

// WeightedMovingAverage weights the newest sample by size, the one before by
// size-1, down to 1 for the oldest.
type WeightedMovingAverage struct {
	ring      []float64
	idx       int
	total     float64
	numerator float64
	denom     float64
}

func NewWeightedMovingAverage(size int) (*WeightedMovingAverage, error) {
	if size < 1 {
		return nil, invalid("weighted moving average: size %d must be >= 1", size)
	}
	n := float64(size)
	return &WeightedMovingAverage{
		ring:  make([]float64, size),
		denom: n * (n + 1) / 2,
	}, nil
}

// Prime fills the window with v.
func (f *WeightedMovingAverage) Prime(v float64) {
	for i := range f.ring {
		f.ring[i] = v
	}
	f.idx = 0
	f.total = v * float64(len(f.ring))
	f.numerator = v * f.denom
}

func (f *WeightedMovingAverage) Apply(next float64) float64 {
	n := float64(len(f.ring))
	oldest := f.ring[f.idx]

	f.numerator += n*next - f.total
	f.total += next - oldest
	f.ring[f.idx] = next
	f.idx = (f.idx + 1) % len(f.ring)

	return f.numerator / f.denom
}

type timedSample struct {
	value float64
	dt    float64
}

// TimedMovingAverage is the time-weighted mean over a trailing window. Each
// sample is weighted by the interval that preceded it.
type TimedMovingAverage struct {
	window    float64
	queue     []timedSample
	head      int
	sumVT     float64
	sumT      float64
	evictions int
	watch     *clock.StopWatch
}

const recountEvery = 512

func NewTimedMovingAverage(window float64, opts ...Option) (*TimedMovingAverage, error) {
	if !(window > 0) {
		return nil, invalid("timed moving average: window %g must be > 0", window)
	}
	o := buildOptions(opts)
	return &TimedMovingAverage{window: window, watch: clock.NewStopWatch(o.src)}, nil
}

func (f *TimedMovingAverage) Apply(next float64) float64 {
	dt := f.watch.Reset()
	f.queue = append(f.queue, timedSample{value: next, dt: dt})
	f.sumVT += next * dt
	f.sumT += dt

	for f.sumT > f.window && f.head < len(f.queue) {
		oldest := &f.queue[f.head]
		excess := f.sumT - f.window
		if oldest.dt > excess {
			oldest.dt -= excess
			f.sumVT -= oldest.value * excess
			f.sumT -= excess
			break
		}
		f.sumVT -= oldest.value * oldest.dt
		f.sumT -= oldest.dt
		f.head++
		f.evictions++
		if f.evictions%recountEvery == 0 {
			f.recount()
		}
	}

	if f.head > len(f.queue)/2 {
		n := copy(f.queue, f.queue[f.head:])
		f.queue = f.queue[:n]
		f.head = 0
	}

	if f.sumT <= 0 {
		return next
	}
	return f.sumVT / f.sumT
}

// Len returns the number of buffered samples.
func (f *TimedMovingAverage) Len() int { return len(f.queue) - f.head }

func (f *TimedMovingAverage) recount() {
	f.sumVT, f.sumT = 0, 0
	for _, s := range f.queue[f.head:] {
		f.sumVT += s.value * s.dt
		f.sumT += s.dt
	}
}
