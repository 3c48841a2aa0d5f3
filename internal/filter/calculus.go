package filter

import "github.com/san-kum/loopkit/internal/clock"

// Derivative is the rate of change of its input per second.
type Derivative struct {
	last  float64
	watch *clock.StopWatch
}

func NewDerivative(opts ...Option) *Derivative {
	o := buildOptions(opts)
	return &Derivative{watch: clock.NewStopWatch(o.src)}
}

func (f *Derivative) Apply(next float64) float64 {
	dt := f.watch.Reset()
	d := (next - f.last) / dt
	f.last = next
	return d
}

// Reset sets the previous sample to v.
func (f *Derivative) Reset(v float64) { f.last = v }

// Integral accumulates its input over time.
type Integral struct {
	sum   float64
	watch *clock.StopWatch
}

func NewIntegral(opts ...Option) *Integral {
	o := buildOptions(opts)
	return &Integral{watch: clock.NewStopWatch(o.src)}
}

func (f *Integral) Apply(next float64) float64 {
	f.sum += next * f.watch.Reset()
	return f.sum
}

func (f *Integral) Value() float64 { return f.sum }

func (f *Integral) Reset(v float64) { f.sum = v }
