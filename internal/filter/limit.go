package filter

import (
	"math"

	"github.com/san-kum/loopkit/internal/clock"
	"github.com/san-kum/loopkit/internal/tunable"
)

// RateLimit bounds how fast its output may follow the input. A limit <= 0
// passes the input through.
type RateLimit struct {
	limit tunable.Number
	out   float64
	watch *clock.StopWatch
}

func NewRateLimit(limit tunable.Number, opts ...Option) *RateLimit {
	o := buildOptions(opts)
	return &RateLimit{limit: tunable.Or(limit, 0), watch: clock.NewStopWatch(o.src)}
}

func (f *RateLimit) Apply(next float64) float64 {
	dt := f.watch.Reset()
	limit := f.limit.Value()
	if limit <= 0 {
		f.out = next
		return f.out
	}
	f.out += clamp(next-f.out, limit*dt)
	return f.out
}

func (f *RateLimit) Reset(v float64) { f.out = v }

// Clamp bounds its input to [min, max].
type Clamp struct {
	min, max float64
}

func NewClamp(min, max float64) (*Clamp, error) {
	if min > max || math.IsNaN(min) || math.IsNaN(max) {
		return nil, invalid("clamp: min %g exceeds max %g", min, max)
	}
	return &Clamp{min: min, max: max}, nil
}

func (f *Clamp) Apply(next float64) float64 {
	return math.Max(f.min, math.Min(f.max, next))
}

// Deadband zeroes inputs whose magnitude is below width.
type Deadband struct {
	width tunable.Number
}

func NewDeadband(width tunable.Number) *Deadband {
	return &Deadband{width: tunable.Or(width, 0)}
}

func (f *Deadband) Apply(next float64) float64 {
	if math.Abs(next) < f.width.Value() {
		return 0
	}
	return next
}
