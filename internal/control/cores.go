package control

import (
	"github.com/san-kum/loopkit/internal/clock"
	"github.com/san-kum/loopkit/internal/filter"
	"github.com/san-kum/loopkit/internal/tunable"
)

// NewFeedforward commands kS*sign(v) + kV*v + kA*dv/dt for a velocity
// setpoint v, ignoring the measurement.
func NewFeedforward(kS, kV, kA tunable.Number, opts ...Option) (*Base, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	kS, kV, kA = tunable.Or(kS, 0), tunable.Or(kV, 0), tunable.Or(kA, 0)
	accel := filter.NewDerivative(filter.WithClock(o.src))

	return newBase(CoreFunc(func(setpoint, _, _ float64) float64 {
		return kS.Value()*sign(setpoint) + kV.Value()*setpoint + kA.Value()*accel.Apply(setpoint)
	}), o)
}

type takeBackHalf struct {
	gain     tunable.Number
	out      float64
	tbh      float64
	lastSign float64
	watch    *clock.StopWatch
}

func (c *takeBackHalf) Calculate(_, _, e float64) float64 {
	c.out += c.gain.Value() * e * c.watch.Reset()
	s := sign(e)
	if s != 0 && c.lastSign != 0 && s != c.lastSign {
		c.out = (c.out + c.tbh) / 2
		c.tbh = c.out
	}
	if s != 0 {
		c.lastSign = s
	}
	return c.out
}

// NewTakeBackHalf integrates the error and, on every zero crossing, halves
// the distance back to the output of the previous crossing.
func NewTakeBackHalf(gain tunable.Number, opts ...Option) (*Base, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return newBase(&takeBackHalf{gain: tunable.Or(gain, 0), watch: clock.NewStopWatch(o.src)}, o)
}

// NewBangBang commands +magnitude or -magnitude toward the setpoint.
func NewBangBang(magnitude tunable.Number, opts ...Option) (*Base, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	magnitude = tunable.Or(magnitude, 0)
	return newBase(CoreFunc(func(_, _, e float64) float64 {
		return sign(e) * magnitude.Value()
	}), o)
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
