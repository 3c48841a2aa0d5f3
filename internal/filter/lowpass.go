package filter

import (
	"math"

	"github.com/san-kum/loopkit/internal/clock"
	"github.com/san-kum/loopkit/internal/tunable"
)

// LowPass is a first order RC filter. The smoothing factor is recomputed
// from the measured interval on every sample.
type LowPass struct {
	rc    tunable.Number
	y     float64
	watch *clock.StopWatch
}

// NewLowPass takes the time constant rc in seconds. rc may change while
// running; negative live values are treated as zero.
func NewLowPass(rc tunable.Number, opts ...Option) (*LowPass, error) {
	if rc == nil {
		return nil, invalid("low pass: nil time constant")
	}
	if v := rc.Value(); v < 0 || math.IsNaN(v) {
		return nil, invalid("low pass: time constant %g must be >= 0", v)
	}
	o := buildOptions(opts)
	return &LowPass{rc: rc, watch: clock.NewStopWatch(o.src)}, nil
}

func (f *LowPass) Apply(next float64) float64 {
	dt := f.watch.Reset()
	rc := math.Max(0, f.rc.Value())
	a := dt / (rc + dt)
	f.y += a * (next - f.y)
	return f.y
}

func (f *LowPass) Value() float64 { return f.y }

// Reset sets the filter output to v.
func (f *LowPass) Reset(v float64) { f.y = v }

// HighPass passes what a LowPass with the same time constant rejects.
type HighPass struct {
	lp *LowPass
}

func NewHighPass(rc tunable.Number, opts ...Option) (*HighPass, error) {
	lp, err := NewLowPass(rc, opts...)
	if err != nil {
		return nil, err
	}
	return &HighPass{lp: lp}, nil
}

func (f *HighPass) Apply(next float64) float64 {
	return next - f.lp.Apply(next)
}
